package goATM

import (
	"errors"
	"time"

	"github.com/MrEthical07/goATM/pin"
)

// Config defines the tunable policy of a Machine.
//
// Config values are copied by [Builder.WithConfig] and [Builder.Build]; later
// changes to the caller's copy have no effect on a built Machine.
type Config struct {
	Security SecurityConfig
	PIN      PINConfig
	Metrics  MetricsConfig
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the PIN retry policy and card cycle scoping.
type SecurityConfig struct {
	// MaxPINAttempts is the number of consecutive wrong PINs that locks a card.
	MaxPINAttempts int
	// SingleTransactionPerCard ends the card cycle after a successful deposit
	// or withdrawal.
	SingleTransactionPerCard bool
	// LookupTimeout bounds a single Directory lookup. Zero leaves the
	// caller's context as the only bound.
	LookupTimeout time.Duration
}

/*
====================================
PIN CONFIG
====================================
*/

// PINConfig holds the PIN digit policy and the Argon2id cost parameters used
// when provisioning new PINs.
type PINConfig struct {
	MinDigits   int
	MaxDigits   int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// HasherConfig returns the hashing parameters as a [pin.Config].
func (c PINConfig) HasherConfig() pin.Config {
	return pin.Config{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and the PIN verification
// latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the stock policy: three PIN
// attempts, cards usable for any number of transactions per cycle.
func DefaultConfig() Config {
	hc := pin.DefaultConfig()
	return Config{
		Security: SecurityConfig{
			MaxPINAttempts:           3,
			SingleTransactionPerCard: false,
			LookupTimeout:            5 * time.Second,
		},
		PIN: PINConfig{
			MinDigits:   pin.DefaultMinDigits,
			MaxDigits:   pin.DefaultMaxDigits,
			Memory:      hc.Memory,
			Time:        hc.Time,
			Parallelism: hc.Parallelism,
			SaltLength:  hc.SaltLength,
			KeyLength:   hc.KeyLength,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate reports the first policy violation in c.
func (c *Config) Validate() error {
	if c.Security.MaxPINAttempts < 1 {
		return errors.New("Security MaxPINAttempts must be >= 1")
	}
	if c.Security.MaxPINAttempts > 10 {
		return errors.New("Security MaxPINAttempts must be <= 10")
	}
	if c.Security.LookupTimeout < 0 {
		return errors.New("Security LookupTimeout must be >= 0")
	}

	if c.PIN.MinDigits < 1 {
		return errors.New("PIN MinDigits must be >= 1")
	}
	if c.PIN.MaxDigits < c.PIN.MinDigits {
		return errors.New("PIN MaxDigits must be >= MinDigits")
	}
	if c.PIN.MaxDigits > 32 {
		return errors.New("PIN MaxDigits must be <= 32")
	}
	if err := c.PIN.HasherConfig().Validate(); err != nil {
		return err
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Hash checks p against the digit policy and returns its Argon2id encoding.
func (c PINConfig) Hash(p string) (string, error) {
	if err := pin.ValidateFormat(p, c.MinDigits, c.MaxDigits); err != nil {
		return "", err
	}
	h, err := pin.NewHasher(c.HasherConfig())
	if err != nil {
		return "", err
	}
	return h.Hash(p)
}
