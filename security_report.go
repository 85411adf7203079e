package goATM

import "time"

// SecurityReport summarizes the security-relevant policy of a built Machine.
// It never contains PINs or hashes.
type SecurityReport struct {
	MaxPINAttempts           int                 `yaml:"max_pin_attempts"`
	SingleTransactionPerCard bool                `yaml:"single_transaction_per_card"`
	LookupTimeout            time.Duration       `yaml:"lookup_timeout"`
	PINDigits                [2]int              `yaml:"pin_digits,flow"`
	Argon2                   PINHashConfigReport `yaml:"argon2"`
	LatencyHistograms        bool                `yaml:"latency_histograms"`
}

// PINHashConfigReport lists the argon2id cost parameters used for new hashes.
type PINHashConfigReport struct {
	Memory      uint32 `yaml:"memory_kb"`
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
}

// SecurityReport returns the lockout, PIN and hashing policy of m. A nil
// Machine yields the zero report.
func (m *Machine) SecurityReport() SecurityReport {
	if m == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		MaxPINAttempts:           m.config.Security.MaxPINAttempts,
		SingleTransactionPerCard: m.config.Security.SingleTransactionPerCard,
		LookupTimeout:            m.config.Security.LookupTimeout,
		PINDigits:                [2]int{m.config.PIN.MinDigits, m.config.PIN.MaxDigits},
		Argon2: PINHashConfigReport{
			Memory:      m.config.PIN.Memory,
			Time:        m.config.PIN.Time,
			Parallelism: m.config.PIN.Parallelism,
			SaltLength:  m.config.PIN.SaltLength,
			KeyLength:   m.config.PIN.KeyLength,
		},
		LatencyHistograms: m.metrics.LatencyEnabled(),
	}
}
