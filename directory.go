package goATM

import (
	"context"
	"fmt"
	"sync"
)

// Directory resolves a presented card identifier to its Account.
//
// Implementations must return the same *Account for repeated lookups of one
// card within a process so balance and lockout state are never copied. A miss
// must return an error for which errors.Is(err, ErrUnknownCard) holds; any
// other error is treated as a backend failure.
type Directory interface {
	Lookup(ctx context.Context, cardID string) (*Account, error)
}

// DirectoryFunc adapts an ordinary function to the Directory interface.
type DirectoryFunc func(ctx context.Context, cardID string) (*Account, error)

// Lookup calls f(ctx, cardID).
func (f DirectoryFunc) Lookup(ctx context.Context, cardID string) (*Account, error) {
	return f(ctx, cardID)
}

// MemoryDirectory is an in-process Directory backed by a map.
type MemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryDirectory returns a directory holding accounts.
// Duplicate card ids are rejected with ErrCardExists.
func NewMemoryDirectory(accounts ...*Account) (*MemoryDirectory, error) {
	d := &MemoryDirectory{accounts: make(map[string]*Account, len(accounts))}
	for _, a := range accounts {
		if err := d.Add(a); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add registers an account under its card id.
func (d *MemoryDirectory) Add(a *Account) error {
	if a == nil {
		return fmt.Errorf("%w: nil account", ErrInvalidAccount)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accounts == nil {
		d.accounts = make(map[string]*Account)
	}
	if _, ok := d.accounts[a.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrCardExists, a.ID())
	}
	d.accounts[a.ID()] = a
	return nil
}

// Lookup returns the account registered for cardID.
func (d *MemoryDirectory) Lookup(_ context.Context, cardID string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.accounts[cardID]
	if !ok {
		return nil, ErrUnknownCard
	}
	return a, nil
}

// Len returns the number of registered cards.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts)
}
