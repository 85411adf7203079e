// Package money implements exact currency amounts as signed 64-bit counts of
// minor units.
//
// # What this package must NOT do
//
//   - Use floating point anywhere, including parsing and formatting.
//   - Know about accounts, currencies or exchange rates.
package money
