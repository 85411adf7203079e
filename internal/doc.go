// Package internal holds the private pieces of the atm command.
//
// # Sub-packages
//
//   - config: atm.yaml, ATM_* environment and flag loading
//   - driver: the interactive console front end of a Machine
//   - i18n: embedded message catalogs for the console
//   - logging: charmbracelet logger construction
//
// # What this package must NOT do
//
//   - Export types that appear in the public goATM API.
//   - Be imported by any package outside the goATM module.
package internal
