package directory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/money"
)

// ErrCorruptRecord is returned when a stored card record cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt card record")

// Record is the provisioning form of an account as persisted by a back-end.
// Balance is in minor units.
type Record struct {
	CardID         string
	PINHash        string
	Balance        int64
	FailedAttempts int
	Locked         bool
}

// Validate checks the fields NewAccount would reject.
func (r Record) Validate() error {
	if strings.TrimSpace(r.CardID) == "" {
		return fmt.Errorf("%w: empty card id", goATM.ErrInvalidAccount)
	}
	if !strings.HasPrefix(r.PINHash, "$argon2id$") {
		return fmt.Errorf("%w: pin hash is not an argon2id encoding", goATM.ErrInvalidAccount)
	}
	if r.Balance < 0 {
		return fmt.Errorf("%w: negative balance", goATM.ErrInvalidAccount)
	}
	if r.FailedAttempts < 0 {
		return fmt.Errorf("%w: negative failed attempts", goATM.ErrInvalidAccount)
	}
	return nil
}

func (r Record) account() (*goATM.Account, error) {
	return goATM.RestoreAccount(r.CardID, r.PINHash, money.FromMinor(r.Balance), r.FailedAttempts, r.Locked)
}

// accountCache keeps one *Account per card for the life of the process, so
// every Machine that looks a card up mutates the same balance and lockout
// state.
type accountCache struct {
	mu       sync.Mutex
	accounts map[string]*goATM.Account
}

func (c *accountCache) get(cardID string) (*goATM.Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts[cardID]
	return a, ok
}

// put stores a unless another lookup won the race, and returns the winner.
func (c *accountCache) put(a *goATM.Account) *goATM.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accounts == nil {
		c.accounts = make(map[string]*goATM.Account)
	}
	if existing, ok := c.accounts[a.ID()]; ok {
		return existing
	}
	c.accounts[a.ID()] = a
	return a
}
