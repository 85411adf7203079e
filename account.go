package goATM

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MrEthical07/goATM/money"
	"github.com/MrEthical07/goATM/pin"
)

// Account is one cardholder's credential, funds and lockout state.
//
// Accounts are created by a provisioning collaborator before any card cycle
// and shared by pointer: the Directory hands the same *Account to every
// Machine that looks the card up. All fields are guarded by an internal
// mutex.
type Account struct {
	mu sync.Mutex

	id             string
	pinHash        string
	balance        money.Amount
	failedAttempts int
	locked         bool
}

// NewAccount returns an unlocked account with a zero failure counter.
//
// pinHash is an argon2id PHC string as produced by [pin.Hasher.Hash].
func NewAccount(id, pinHash string, balance money.Amount) (*Account, error) {
	return RestoreAccount(id, pinHash, balance, 0, false)
}

// RestoreAccount rebuilds an account including its lockout state, for
// directory back-ends that load provisioning records.
func RestoreAccount(id, pinHash string, balance money.Amount, failedAttempts int, locked bool) (*Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty card id", ErrInvalidAccount)
	}
	if pinHash == "" {
		return nil, fmt.Errorf("%w: empty pin hash", ErrInvalidAccount)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: negative balance", ErrInvalidAccount)
	}
	if failedAttempts < 0 {
		return nil, fmt.Errorf("%w: negative failed attempts", ErrInvalidAccount)
	}
	return &Account{
		id:             id,
		pinHash:        pinHash,
		balance:        balance,
		failedAttempts: failedAttempts,
		locked:         locked,
	}, nil
}

// ID returns the card identifier.
func (a *Account) ID() string {
	return a.id
}

// VerifyPIN reports whether the account is unlocked and candidate matches the
// stored PIN. It never changes the failure counter.
func (a *Account) VerifyPIN(candidate string) bool {
	a.mu.Lock()
	locked, encoded := a.locked, a.pinHash
	a.mu.Unlock()

	if locked {
		return false
	}
	ok, err := pin.Verify(candidate, encoded)
	return err == nil && ok
}

// IncrementFailedAttempts adds one failure and returns the new count.
// There is no upper clamp; the caller applies the threshold.
func (a *Account) IncrementFailedAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failedAttempts++
	return a.failedAttempts
}

// ResetFailedAttempts sets the failure counter to zero.
func (a *Account) ResetFailedAttempts() {
	a.mu.Lock()
	a.failedAttempts = 0
	a.mu.Unlock()
}

// FailedAttempts returns the current failure count.
func (a *Account) FailedAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failedAttempts
}

// LockCard marks the account locked. Locking twice is a no-op.
func (a *Account) LockCard() {
	a.mu.Lock()
	a.locked = true
	a.mu.Unlock()
}

// Unlock clears the lock and the failure counter. It is an out-of-band
// operation for provisioning tools; no Machine method calls it.
func (a *Account) Unlock() {
	a.mu.Lock()
	a.locked = false
	a.failedAttempts = 0
	a.mu.Unlock()
}

// IsLocked reports whether the card is locked.
func (a *Account) IsLocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

// Balance returns the current balance.
func (a *Account) Balance() money.Amount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Deposit adds amount to the balance and returns the new balance.
// amount must be positive.
func (a *Account) Deposit(amount money.Amount) (money.Amount, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.balance.Add(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	a.balance = next
	return a.balance, nil
}

// Withdraw subtracts amount from the balance and returns the new balance.
// amount must be positive and no greater than the balance; on failure the
// balance is unchanged.
func (a *Account) Withdraw(amount money.Amount) (money.Amount, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if amount > a.balance {
		return 0, ErrInsufficientFunds
	}
	a.balance -= amount
	return a.balance, nil
}
