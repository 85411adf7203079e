// Package internaldefs maps goATM machine counters onto labelled metric
// families, and defines the machine state gauge and the PIN latency bucket
// bounds. The Prometheus and OTel exporters both read it, so they publish the
// same series under their own naming conventions.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
