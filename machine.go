package goATM

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/goATM/money"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Machine is the session controller of one ATM. It gates every account
// operation behind the NoCard, CardPresent, Authenticated card cycle and
// applies the PIN retry policy.
//
// A Machine serves one card cycle at a time. Methods are safe to call from
// multiple goroutines but are serialized by an internal mutex.
type Machine struct {
	mu sync.Mutex

	config    Config
	directory Directory
	metrics   *Metrics
	logger    *log.Logger

	state     State
	account   *Account
	sessionID string
	cycleLog  *log.Logger
}

// InsertCard looks cardID up in the directory and, on a hit, starts a new
// card cycle in StateCardPresent. An active cycle is ended first.
//
// A miss returns ErrUnknownCard and leaves the machine in StateNoCard.
// Other directory failures are wrapped with ErrDirectoryUnavailable.
func (m *Machine) InsertCard(ctx context.Context, cardID string) error {
	if m == nil || m.directory == nil {
		return ErrMachineNotReady
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNoCard {
		m.endCycleLocked("card replaced")
	}

	if m.config.Security.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Security.LookupTimeout)
		defer cancel()
	}

	acct, err := m.directory.Lookup(ctx, cardID)
	if err == nil && acct == nil {
		err = ErrUnknownCard
	}
	if err != nil {
		if errors.Is(err, ErrUnknownCard) {
			m.metrics.Inc(MetricCardUnknown)
			m.logger.Warn("unknown card", "card", cardID)
			return ErrUnknownCard
		}
		m.logger.Error("directory lookup failed", "card", cardID, "err", err)
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	m.state = StateCardPresent
	m.account = acct
	m.sessionID = uuid.NewString()
	m.cycleLog = m.logger.With("session", m.sessionID, "card", acct.ID())
	m.metrics.Inc(MetricCardInserted)
	m.cycleLog.Info("card inserted")
	return nil
}

// EnterPIN verifies candidate against the inserted card.
//
// A match resets the failure counter and moves to StateAuthenticated. A
// mismatch increments the counter; once it reaches
// Security.MaxPINAttempts the card is locked and ErrCardLocked is returned,
// otherwise ErrInvalidPIN. A locked card returns ErrCardLocked for every
// candidate and the machine stays in StateCardPresent.
func (m *Machine) EnterPIN(candidate string) error {
	if m == nil {
		return ErrMachineNotReady
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateNoCard:
		return ErrNoCard
	case StateAuthenticated:
		return ErrAlreadyAuthenticated
	}

	acct := m.account
	if acct.IsLocked() {
		m.metrics.Inc(MetricLockedCardAttempt)
		m.cycleLog.Warn("pin entered for locked card")
		return ErrCardLocked
	}

	start := time.Now()
	ok := acct.VerifyPIN(candidate)
	m.metrics.Observe(MetricPINVerifyLatency, time.Since(start))

	if ok {
		acct.ResetFailedAttempts()
		m.state = StateAuthenticated
		m.metrics.Inc(MetricPINAccepted)
		m.cycleLog.Info("pin accepted")
		return nil
	}

	attempts := acct.IncrementFailedAttempts()
	if attempts >= m.config.Security.MaxPINAttempts {
		acct.LockCard()
		m.metrics.Inc(MetricCardLocked)
		m.cycleLog.Warn("card locked", "attempts", attempts)
		return ErrCardLocked
	}

	m.metrics.Inc(MetricPINRejected)
	m.cycleLog.Info("pin rejected", "attempts", attempts)
	return ErrInvalidPIN
}

// CheckBalance returns the balance of the authenticated account.
func (m *Machine) CheckBalance() (money.Amount, error) {
	if m == nil {
		return 0, ErrMachineNotReady
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.authenticatedLocked()
	if err != nil {
		return 0, err
	}
	m.metrics.Inc(MetricBalanceInquiry)
	return acct.Balance(), nil
}

// Deposit credits amount to the authenticated account and returns the new
// balance.
func (m *Machine) Deposit(amount money.Amount) (money.Amount, error) {
	if m == nil {
		return 0, ErrMachineNotReady
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.authenticatedLocked()
	if err != nil {
		return 0, err
	}

	balance, err := acct.Deposit(amount)
	if err != nil {
		m.metrics.Inc(MetricDepositRejected)
		m.cycleLog.Info("deposit rejected", "amount", amount, "err", err)
		return 0, err
	}

	m.metrics.Inc(MetricDepositSuccess)
	m.cycleLog.Info("deposit", "amount", amount, "balance", balance)
	m.afterTransactionLocked()
	return balance, nil
}

// Withdraw debits amount from the authenticated account and returns the new
// balance. The balance is unchanged on failure.
func (m *Machine) Withdraw(amount money.Amount) (money.Amount, error) {
	if m == nil {
		return 0, ErrMachineNotReady
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.authenticatedLocked()
	if err != nil {
		return 0, err
	}

	balance, err := acct.Withdraw(amount)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			m.metrics.Inc(MetricInsufficientFunds)
		} else {
			m.metrics.Inc(MetricWithdrawRejected)
		}
		m.cycleLog.Info("withdrawal rejected", "amount", amount, "err", err)
		return 0, err
	}

	m.metrics.Inc(MetricWithdrawSuccess)
	m.cycleLog.Info("withdrawal", "amount", amount, "balance", balance)
	m.afterTransactionLocked()
	return balance, nil
}

// Logout ends the card cycle and returns to StateNoCard. It is a no-op in
// StateNoCard.
func (m *Machine) Logout() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateNoCard {
		return
	}
	m.endCycleLocked("logout")
}

// Transact runs fn inside one authenticated card cycle. The cycle is always
// ended before Transact returns, including when fn fails or panics.
func (m *Machine) Transact(ctx context.Context, cardID, candidate string, fn func(*Machine) error) error {
	if m == nil {
		return ErrMachineNotReady
	}
	defer m.Logout()

	if err := m.InsertCard(ctx, cardID); err != nil {
		return err
	}
	if err := m.EnterPIN(candidate); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	return fn(m)
}

// State returns the current card cycle state.
func (m *Machine) State() State {
	if m == nil {
		return StateNoCard
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the identifier of the active card cycle, or "" in
// StateNoCard.
func (m *Machine) SessionID() string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// CardID returns the inserted card, or "" in StateNoCard.
func (m *Machine) CardID() string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return ""
	}
	return m.account.ID()
}

// RemainingPINAttempts returns how many wrong PINs the inserted card can
// take before it locks. It is 0 with no card or a locked card.
func (m *Machine) RemainingPINAttempts() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.account == nil || m.account.IsLocked() {
		return 0
	}
	left := m.config.Security.MaxPINAttempts - m.account.FailedAttempts()
	if left < 0 {
		return 0
	}
	return left
}

// MetricsSnapshot returns the machine counters.
func (m *Machine) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return m.metrics.Snapshot()
}

// Config returns a copy of the machine policy.
func (m *Machine) Config() Config {
	if m == nil {
		return Config{}
	}
	return cloneConfig(m.config)
}

func (m *Machine) authenticatedLocked() (*Account, error) {
	if m.state != StateAuthenticated || m.account == nil {
		m.metrics.Inc(MetricNotAuthenticated)
		return nil, ErrNotAuthenticated
	}
	if m.account.IsLocked() {
		m.cycleLog.Warn("account locked during session")
		return nil, ErrCardLocked
	}
	return m.account, nil
}

func (m *Machine) afterTransactionLocked() {
	if m.config.Security.SingleTransactionPerCard {
		m.endCycleLocked("single transaction completed")
	}
}

func (m *Machine) endCycleLocked(reason string) {
	m.metrics.Inc(MetricLogout)
	if m.cycleLog != nil {
		m.cycleLog.Info("card cycle ended", "reason", reason)
	}
	m.state = StateNoCard
	m.account = nil
	m.sessionID = ""
	m.cycleLog = nil
}
