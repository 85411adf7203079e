// Package driver is the interactive console collaborator of a goATM.Machine.
//
// It owns prompting, input parsing and message formatting; every decision
// about cards, PINs and balances is delegated to the Machine. A PIN retry is
// offered after ErrInvalidPIN; unknown and locked cards end the card cycle.
//
// # What this package must NOT do
//
//   - Echo or log PINs.
//   - Keep its own failed-attempt count.
//   - Leave a card cycle open when returning to the card prompt.
package driver
