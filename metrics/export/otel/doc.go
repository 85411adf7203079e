// Package otel publishes goATM machine metrics through OpenTelemetry
// instruments.
//
// Each labelled counter family becomes one Int64ObservableCounter whose
// series carry result (and kind) attributes, for example atm.pin.entries
// with result=locked. atm.machine.state is a one-hot gauge keyed by state,
// and the PIN latency histogram is published as an le-keyed bucket gauge plus
// a count. One callback reads [goATM.Machine.MetricsSnapshot] per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate machine state.
package otel
