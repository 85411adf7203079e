// Package config loads the atm command's settings from atm.yaml, ATM_*
// environment variables and command-line flags, and converts them into a
// goATM.Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goATM "github.com/MrEthical07/goATM"
	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// File is the on-disk shape of atm.yaml.
type File struct {
	Language  string          `mapstructure:"language" yaml:"language"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`
	Security  SecurityConfig  `mapstructure:"security" yaml:"security"`
	PIN       PINConfig       `mapstructure:"pin" yaml:"pin"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Seed      []SeedCard      `mapstructure:"seed" yaml:"seed"`
}

// DirectoryConfig selects the card directory back-end.
type DirectoryConfig struct {
	// Backend is "memory", "redis" or "sql".
	Backend     string `mapstructure:"backend" yaml:"backend"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	DBType      string `mapstructure:"db_type" yaml:"db_type"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
}

// SecurityConfig is the lockout and card cycle policy.
type SecurityConfig struct {
	MaxPINAttempts           int           `mapstructure:"max_pin_attempts" yaml:"max_pin_attempts"`
	SingleTransactionPerCard bool          `mapstructure:"single_transaction_per_card" yaml:"single_transaction_per_card"`
	LookupTimeout            time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
}

// PINConfig is the PIN digit policy and the Argon2id cost used for seed and
// provisioned cards.
type PINConfig struct {
	MinDigits   int    `mapstructure:"min_digits" yaml:"min_digits"`
	MaxDigits   int    `mapstructure:"max_digits" yaml:"max_digits"`
	Memory      uint32 `mapstructure:"memory_kb" yaml:"memory_kb"`
	Time        uint32 `mapstructure:"time" yaml:"time"`
	Parallelism uint8  `mapstructure:"parallelism" yaml:"parallelism"`
}

// MetricsConfig controls counters and their two outlets: a Prometheus
// listener at Addr and periodic OpenTelemetry JSON written to OTelFile.
type MetricsConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	LatencyHistograms bool          `mapstructure:"latency_histograms" yaml:"latency_histograms"`
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	OTelFile          string        `mapstructure:"otel_file" yaml:"otel_file"`
	OTelInterval      time.Duration `mapstructure:"otel_interval" yaml:"otel_interval"`
}

// SeedCard is a card provisioned at startup when it does not exist yet.
type SeedCard struct {
	CardID  string `mapstructure:"card_id" yaml:"card_id"`
	PIN     string `mapstructure:"pin" yaml:"pin"`
	Balance string `mapstructure:"balance" yaml:"balance"`
}

// FileName is the config file searched for in the working and user config
// directories.
const FileName = "atm.yaml"

// Default returns the settings used when no file, env or flag overrides
// them: an in-memory directory holding one demo card.
func Default() File {
	def := goATM.DefaultConfig()
	return File{
		Language: "en",
		LogLevel: "info",
		Directory: DirectoryConfig{
			Backend:     "memory",
			RedisPrefix: "atm",
			DBType:      "sqlite",
			DSN:         "./atm.db",
		},
		Security: SecurityConfig{
			MaxPINAttempts:           def.Security.MaxPINAttempts,
			SingleTransactionPerCard: def.Security.SingleTransactionPerCard,
			LookupTimeout:            def.Security.LookupTimeout,
		},
		PIN: PINConfig{
			MinDigits:   def.PIN.MinDigits,
			MaxDigits:   def.PIN.MaxDigits,
			Memory:      def.PIN.Memory,
			Time:        def.PIN.Time,
			Parallelism: def.PIN.Parallelism,
		},
		Metrics: MetricsConfig{
			Enabled:      def.Metrics.Enabled,
			OTelInterval: 10 * time.Second,
		},
		Seed: []SeedCard{
			{CardID: "user123", PIN: "5678", Balance: "1000.00"},
		},
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"lang":             "language",
	"log-level":        "log_level",
	"backend":          "directory.backend",
	"redis-addr":       "directory.redis_addr",
	"db-type":          "directory.db_type",
	"dsn":              "directory.dsn",
	"max-pin-attempts": "security.max_pin_attempts",
	"single-txn":       "security.single_transaction_per_card",
	"metrics-addr":     "metrics.addr",
	"otel-file":        "metrics.otel_file",
}

// Load merges, lowest precedence first: Default, the config file, ATM_*
// environment variables, and any flags in fs that were set. An explicit path
// must exist; without one a missing file is not an error.
func Load(fs *pflag.FlagSet, path string) (File, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "atm"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return File{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("ATM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return File{}, err
				}
			}
		}
	}

	if err := checkSeed(v.Get("seed")); err != nil {
		return File{}, err
	}

	var c File
	if err := v.Unmarshal(&c); err != nil {
		return File{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper, d File) {
	v.SetDefault("language", d.Language)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("directory.backend", d.Directory.Backend)
	v.SetDefault("directory.redis_addr", d.Directory.RedisAddr)
	v.SetDefault("directory.redis_prefix", d.Directory.RedisPrefix)
	v.SetDefault("directory.db_type", d.Directory.DBType)
	v.SetDefault("directory.dsn", d.Directory.DSN)
	v.SetDefault("security.max_pin_attempts", d.Security.MaxPINAttempts)
	v.SetDefault("security.single_transaction_per_card", d.Security.SingleTransactionPerCard)
	v.SetDefault("security.lookup_timeout", d.Security.LookupTimeout)
	v.SetDefault("pin.min_digits", d.PIN.MinDigits)
	v.SetDefault("pin.max_digits", d.PIN.MaxDigits)
	v.SetDefault("pin.memory_kb", d.PIN.Memory)
	v.SetDefault("pin.time", d.PIN.Time)
	v.SetDefault("pin.parallelism", d.PIN.Parallelism)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", d.Metrics.LatencyHistograms)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.otel_file", d.Metrics.OTelFile)
	v.SetDefault("metrics.otel_interval", d.Metrics.OTelInterval)
	seeds := make([]map[string]interface{}, 0, len(d.Seed))
	for _, s := range d.Seed {
		seeds = append(seeds, map[string]interface{}{
			"card_id": s.CardID,
			"pin":     s.PIN,
			"balance": s.Balance,
		})
	}
	v.SetDefault("seed", seeds)
}

// checkSeed rejects seed PINs and balances the YAML parser did not read as
// strings. An unquoted 0123 is an octal integer to YAML and would otherwise
// be provisioned as "83".
func checkSeed(raw interface{}) error {
	var entries []interface{}
	switch s := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		entries = s
	case []map[string]interface{}:
		for _, m := range s {
			entries = append(entries, m)
		}
	default:
		return fmt.Errorf("seed: expected a list, got %T", raw)
	}

	for i, e := range entries {
		var m map[string]interface{}
		switch em := e.(type) {
		case map[string]interface{}:
			m = em
		case map[interface{}]interface{}:
			m = make(map[string]interface{}, len(em))
			for k, val := range em {
				m[fmt.Sprint(k)] = val
			}
		default:
			return fmt.Errorf("seed[%d]: expected a mapping, got %T", i, e)
		}
		for _, key := range []string{"pin", "balance"} {
			val, present := m[key]
			if !present {
				continue
			}
			if _, ok := val.(string); !ok {
				return fmt.Errorf("seed[%d].%s must be a quoted string, got %T", i, key, val)
			}
		}
	}
	return nil
}

// Machine converts f into a validated goATM.Config. Setting a metrics outlet
// forces counters on.
func (f File) Machine() (goATM.Config, error) {
	if f.Metrics.OTelFile != "" && f.Metrics.OTelInterval <= 0 {
		return goATM.Config{}, errors.New("metrics otel_interval must be > 0")
	}

	cfg := goATM.DefaultConfig()
	cfg.Security.MaxPINAttempts = f.Security.MaxPINAttempts
	cfg.Security.SingleTransactionPerCard = f.Security.SingleTransactionPerCard
	cfg.Security.LookupTimeout = f.Security.LookupTimeout
	cfg.PIN.MinDigits = f.PIN.MinDigits
	cfg.PIN.MaxDigits = f.PIN.MaxDigits
	cfg.PIN.Memory = f.PIN.Memory
	cfg.PIN.Time = f.PIN.Time
	cfg.PIN.Parallelism = f.PIN.Parallelism
	cfg.Metrics.Enabled = f.Metrics.Enabled || f.Metrics.Addr != "" || f.Metrics.OTelFile != ""
	cfg.Metrics.EnableLatencyHistograms = f.Metrics.LatencyHistograms

	if err := cfg.Validate(); err != nil {
		return goATM.Config{}, err
	}
	return cfg, nil
}

// Write marshals f as YAML to path, creating parent directories. An existing
// file is only replaced when overwrite is set.
func Write(path string, f File, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create config directory %s: %w", dir, err)
		}
	}
	// 0600: the seed section may hold demo PINs.
	return os.WriteFile(path, data, 0o600)
}
