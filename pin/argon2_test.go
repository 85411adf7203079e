package pin

import (
	"errors"
	"strings"
	"testing"
)

// testConfig keeps the argon2 cost at the package minimum so tests stay fast.
func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewHasher(testConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	encoded, err := hasher.Hash("5678")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := Verify("5678", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching pin to verify")
	}

	ok, err = hasher.Verify("5679", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong pin to be rejected")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher, err := NewHasher(testConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	a, _ := hasher.Hash("1234")
	b, _ := hasher.Hash("1234")
	if a == b {
		t.Fatal("expected distinct salts to produce distinct encodings")
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	hasher, _ := NewHasher(testConfig())
	if _, err := hasher.Hash(""); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, err := NewHasher(testConfig())
	if err != nil {
		t.Fatalf("NewHasher(weak) error: %v", err)
	}
	encoded, err := weak.Hash("2468")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	strong := testConfig()
	strong.Time = 2
	strongHasher, err := NewHasher(strong)
	if err != nil {
		t.Fatalf("NewHasher(strong) error: %v", err)
	}

	upgrade, err := strongHasher.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !upgrade {
		t.Fatal("expected weaker hash to need upgrade")
	}

	upgrade, err = weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if upgrade {
		t.Fatal("expected same-parameter hash not to need upgrade")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
	}
	for _, encoded := range cases {
		if _, err := Verify("1234", encoded); !errors.Is(err, ErrInvalidEncoding) {
			t.Fatalf("Verify(%q): expected ErrInvalidEncoding, got %v", encoded, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt", func(c *Config) { c.SaltLength = 8 }},
		{"key", func(c *Config) { c.KeyLength = 8 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewHasher(cfg); err == nil {
				t.Fatalf("expected %s violation to be rejected", tc.name)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		pin     string
		wantErr error
	}{
		{"5678", nil},
		{"123456789012", nil},
		{"", ErrEmpty},
		{"12a4", ErrFormat},
		{"１２３４", ErrFormat},
		{"123", ErrLength},
		{"1234567890123", ErrLength},
	}
	for _, tc := range tests {
		err := ValidateFormat(tc.pin, DefaultMinDigits, DefaultMaxDigits)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("ValidateFormat(%q): unexpected %v", tc.pin, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("ValidateFormat(%q): expected %v, got %v", tc.pin, tc.wantErr, err)
		}
	}
}
