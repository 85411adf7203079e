package goATM

import (
	"errors"
	"math"
	"testing"

	"github.com/MrEthical07/goATM/money"
)

func TestNewAccountRejectsMalformed(t *testing.T) {
	hash, err := testConfig().PIN.Hash("5678")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		hash    string
		balance money.Amount
	}{
		{"empty id", "", hash, 0},
		{"blank id", "   ", hash, 0},
		{"empty hash", "card-1", "", 0},
		{"negative balance", "card-1", hash, money.FromMinor(-1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewAccount(tc.id, tc.hash, tc.balance); !errors.Is(err, ErrInvalidAccount) {
				t.Fatalf("expected ErrInvalidAccount, got %v", err)
			}
		})
	}

	if _, err := RestoreAccount("card-1", hash, 0, -1, false); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount for negative attempts, got %v", err)
	}
}

func TestAccountVerifyPINIsPure(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "1000.00")
	a.IncrementFailedAttempts()

	if a.VerifyPIN("0000") {
		t.Fatal("expected wrong pin to fail")
	}
	if !a.VerifyPIN("5678") {
		t.Fatal("expected correct pin to match")
	}
	if got := a.FailedAttempts(); got != 1 {
		t.Fatalf("expected VerifyPIN to leave counter at 1, got %d", got)
	}
}

func TestAccountVerifyPINFalseWhenLocked(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "1000.00")
	a.LockCard()
	a.LockCard()

	if !a.IsLocked() {
		t.Fatal("expected account to be locked")
	}
	if a.VerifyPIN("5678") {
		t.Fatal("expected locked account to reject correct pin")
	}
}

func TestAccountFailedAttemptsHasNoClamp(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "0")
	for i := 1; i <= 5; i++ {
		if got := a.IncrementFailedAttempts(); got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
	a.ResetFailedAttempts()
	if got := a.FailedAttempts(); got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}
}

func TestAccountUnlockClearsState(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "0")
	a.IncrementFailedAttempts()
	a.LockCard()
	a.Unlock()

	if a.IsLocked() || a.FailedAttempts() != 0 {
		t.Fatalf("expected unlocked with zero attempts, got locked=%v attempts=%d", a.IsLocked(), a.FailedAttempts())
	}
	if !a.VerifyPIN("5678") {
		t.Fatal("expected pin to verify after unlock")
	}
}

func TestAccountDeposit(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "1000.00")

	bal, err := a.Deposit(money.MustParse("500"))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if bal != money.MustParse("1500.00") || a.Balance() != bal {
		t.Fatalf("expected 1500.00, got %s", bal)
	}

	for _, bad := range []money.Amount{0, money.FromMinor(-1)} {
		if _, err := a.Deposit(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Deposit(%s): expected ErrInvalidAmount, got %v", bad, err)
		}
	}
	if a.Balance() != money.MustParse("1500.00") {
		t.Fatalf("expected balance unchanged, got %s", a.Balance())
	}
}

func TestAccountDepositOverflow(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "0")
	if _, err := a.Deposit(money.FromMinor(math.MaxInt64)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := a.Deposit(money.FromMinor(1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount on overflow, got %v", err)
	}
	if a.Balance() != money.FromMinor(math.MaxInt64) {
		t.Fatalf("expected balance unchanged after overflow, got %s", a.Balance())
	}
}

func TestAccountWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    string
		wantErr error
	}{
		{"partial", "250.25", "749.75", nil},
		{"exact", "1000", "0.00", nil},
		{"over", "1500", "1000.00", ErrInsufficientFunds},
		{"one cent over", "1000.01", "1000.00", ErrInsufficientFunds},
		{"zero", "0", "1000.00", ErrInvalidAmount},
		{"negative", "-5", "1000.00", ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAccount(t, "user123", "5678", "1000.00")
			_, err := a.Withdraw(money.MustParse(tc.amount))
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if got := a.Balance().String(); got != tc.want {
				t.Fatalf("expected balance %s, got %s", tc.want, got)
			}
		})
	}
}

func TestAccountDepositWithdrawRoundTrip(t *testing.T) {
	a := newTestAccount(t, "user123", "5678", "1000.00")
	start := a.Balance()

	for _, s := range []string{"0.01", "0.10", "0.30", "19.99", "1000000.07"} {
		amt := money.MustParse(s)
		if _, err := a.Deposit(amt); err != nil {
			t.Fatalf("Deposit(%s): %v", s, err)
		}
		if _, err := a.Withdraw(amt); err != nil {
			t.Fatalf("Withdraw(%s): %v", s, err)
		}
		if a.Balance() != start {
			t.Fatalf("round trip of %s drifted: %s != %s", s, a.Balance(), start)
		}
	}
}
