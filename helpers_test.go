package goATM

import (
	"testing"

	"github.com/MrEthical07/goATM/money"
)

// testConfig keeps argon2 at its minimum cost so the suite stays fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PIN.Memory = 8 * 1024
	cfg.PIN.Time = 1
	cfg.PIN.Parallelism = 1
	return cfg
}

func newTestAccount(t *testing.T, id, p string, balance string) *Account {
	t.Helper()

	hash, err := testConfig().PIN.Hash(p)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	acct, err := NewAccount(id, hash, money.MustParse(balance))
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	return acct
}

func newTestMachine(t *testing.T, cfg Config, accounts ...*Account) *Machine {
	t.Helper()

	dir, err := NewMemoryDirectory(accounts...)
	if err != nil {
		t.Fatalf("NewMemoryDirectory: %v", err)
	}
	m, err := New().WithConfig(cfg).WithDirectory(dir).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}
