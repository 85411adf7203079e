package pin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

var (
	// ErrInvalidEncoding is returned when a stored PIN hash is not a valid
	// argon2id PHC string.
	ErrInvalidEncoding = errors.New("invalid pin hash encoding")
)

// Config holds Argon2id cost parameters used when hashing new PINs.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns parameters suitable for interactive PIN entry.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces argon2id PHC strings for PINs.
//
// A Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	config Config
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewHasher validates cfg and returns a Hasher using it.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a salted argon2id key from pin and returns it in PHC format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// Hash does not apply the digit policy; callers run ValidateFormat first.
func (h *Hasher) Hash(pin string) (string, error) {
	if pin == "" {
		return "", ErrEmpty
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(pin), salt, h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether pin matches encoded. The cost parameters are read
// from encoded, so the receiver's own config plays no part.
func (h *Hasher) Verify(pin, encoded string) (bool, error) {
	return Verify(pin, encoded)
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the receiver's config.
func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return h.config.Memory > parsed.memory ||
		h.config.Time > parsed.time ||
		h.config.Parallelism > parsed.parallelism ||
		h.config.KeyLength != uint32(len(parsed.key)), nil
}

// Verify reports whether pin derives the same argon2id key as encoded.
// The comparison is constant-time.
func Verify(pin, encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(pin), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, uint32(len(parsed.key)))
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: expected 5 sections", ErrInvalidEncoding)
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidEncoding, parts[1])
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, fmt.Errorf("%w: bad version", ErrInvalidEncoding)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEncoding, version)
	}

	out := &phc{}
	if err := parseParams(parts[3], out); err != nil {
		return nil, err
	}

	out.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(out.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: bad salt", ErrInvalidEncoding)
	}
	out.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(out.key) < int(minKeyLength) {
		return nil, fmt.Errorf("%w: bad key", ErrInvalidEncoding)
	}
	return out, nil
}

func parseParams(section string, out *phc) error {
	var seen [3]bool
	pairs := strings.Split(section, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: bad parameter list", ErrInvalidEncoding)
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: bad parameter %q", ErrInvalidEncoding, pair)
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return fmt.Errorf("%w: bad memory", ErrInvalidEncoding)
			}
			out.memory = uint32(n)
			seen[0] = true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return fmt.Errorf("%w: bad time", ErrInvalidEncoding)
			}
			out.time = uint32(n)
			seen[1] = true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return fmt.Errorf("%w: bad parallelism", ErrInvalidEncoding)
			}
			out.parallelism = uint8(n)
			seen[2] = true
		default:
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalidEncoding, k)
		}
	}

	if !seen[0] || !seen[1] || !seen[2] {
		return fmt.Errorf("%w: missing parameter", ErrInvalidEncoding)
	}
	return nil
}

// Validate checks the cost parameters against the package minimums.
func (c Config) Validate() error {
	if c.Memory < minMemoryKB {
		return errors.New("pin memory must be >= 8192 KB")
	}
	if c.Time < minTimeCost {
		return errors.New("pin time must be >= 1")
	}
	if c.Parallelism < minParallelism {
		return errors.New("pin parallelism must be >= 1")
	}
	if c.SaltLength < minSaltLength {
		return errors.New("pin salt length must be >= 16")
	}
	if c.KeyLength < minKeyLength {
		return errors.New("pin key length must be >= 16")
	}
	return nil
}
