package goATM

import "errors"

var (
	// ErrUnknownCard is returned when the directory has no account for a card.
	ErrUnknownCard = errors.New("unknown card")
	// ErrInvalidPIN is returned for a wrong PIN that did not trigger a lock.
	ErrInvalidPIN = errors.New("invalid pin")
	// ErrCardLocked is returned when the card is locked, including the attempt
	// that locked it.
	ErrCardLocked = errors.New("card locked")
	// ErrNotAuthenticated is returned by balance operations outside an
	// authenticated card cycle.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidAmount is returned for non-positive or unrepresentable amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoCard is returned by EnterPIN when no card is inserted.
	ErrNoCard = errors.New("no card inserted")
	// ErrAlreadyAuthenticated is returned by EnterPIN after the PIN was accepted.
	ErrAlreadyAuthenticated = errors.New("pin already accepted")
	// ErrDirectoryUnavailable wraps directory failures other than a miss.
	ErrDirectoryUnavailable = errors.New("card directory unavailable")
	// ErrCardExists is returned when provisioning a card id twice.
	ErrCardExists = errors.New("card already provisioned")
	// ErrInvalidAccount is returned by NewAccount for malformed account data.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrMachineNotReady is returned by methods on a nil or unbuilt Machine.
	ErrMachineNotReady = errors.New("machine not initialized")
)
