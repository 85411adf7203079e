// Package prometheus serves goATM machine metrics in Prometheus text
// exposition format.
//
// Machine counters are grouped into labelled families such as
// atm_pin_entries_total{result="locked"} and
// atm_operations_total{kind="withdraw",result="insufficient_funds"}. The
// one-hot atm_machine_state gauge reports the current card cycle state, and
// atm_pin_verify_latency_seconds appears when latency histograms are enabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate machine state.
package prometheus
