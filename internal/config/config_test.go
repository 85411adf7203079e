package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// isolate keeps Load away from any atm.yaml on the host.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	f, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Directory.Backend != "memory" {
		t.Fatalf("expected memory backend, got %q", f.Directory.Backend)
	}
	if f.Security.MaxPINAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.Security.MaxPINAttempts)
	}
	if f.Security.LookupTimeout != 5*time.Second {
		t.Fatalf("expected 5s lookup timeout, got %v", f.Security.LookupTimeout)
	}
	if len(f.Seed) != 1 || f.Seed[0].CardID != "user123" || f.Seed[0].PIN != "5678" {
		t.Fatalf("unexpected seed %+v", f.Seed)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
language: de
directory:
  backend: redis
security:
  max_pin_attempts: 5
  lookup_timeout: 2s
`)
	t.Setenv("ATM_DIRECTORY_BACKEND", "sql")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max-pin-attempts", 3, "")
	fs.String("lang", "en", "")
	if err := fs.Parse([]string{"--max-pin-attempts=4"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	f, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Security.MaxPINAttempts != 4 {
		t.Fatalf("expected flag to win with 4, got %d", f.Security.MaxPINAttempts)
	}
	if f.Directory.Backend != "sql" {
		t.Fatalf("expected env to win with sql, got %q", f.Directory.Backend)
	}
	if f.Language != "de" {
		t.Fatalf("expected unset flag to leave file value de, got %q", f.Language)
	}
	if f.Security.LookupTimeout != 2*time.Second {
		t.Fatalf("expected 2s, got %v", f.Security.LookupTimeout)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(nil, filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestWriteThenLoad(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", FileName)

	if err := Write(path, Default(), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, Default(), false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := Write(path, Default(), true); err != nil {
		t.Fatalf("Write with overwrite: %v", err)
	}

	f, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if f.Security != def.Security {
		t.Fatalf("expected %+v, got %+v", def.Security, f.Security)
	}
	if f.PIN != def.PIN {
		t.Fatalf("expected %+v, got %+v", def.PIN, f.PIN)
	}
	if f.Directory != def.Directory {
		t.Fatalf("expected %+v, got %+v", def.Directory, f.Directory)
	}
	if len(f.Seed) != 1 || f.Seed[0].PIN != "5678" {
		t.Fatalf("unexpected seed %+v", f.Seed)
	}
}

func TestMachineConfig(t *testing.T) {
	f := Default()
	f.Security.SingleTransactionPerCard = true
	f.Metrics.Enabled = false
	f.Metrics.Addr = ":9100"

	cfg, err := f.Machine()
	if err != nil {
		t.Fatalf("Machine: %v", err)
	}
	if !cfg.Security.SingleTransactionPerCard {
		t.Fatalf("expected single transaction policy")
	}
	if !cfg.Metrics.Enabled {
		t.Fatalf("expected metrics enabled when an address is set")
	}

	f.Security.MaxPINAttempts = 0
	if _, err := f.Machine(); err == nil {
		t.Fatalf("expected validation error for zero attempts")
	}
}

func TestLoadSeedRequiresQuotedStrings(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name    string
		seed    string
		wantErr bool
	}{
		{name: "unquoted leading zero pin", seed: "pin: 01234567\n    balance: \"10.00\"", wantErr: true},
		{name: "unquoted short pin", seed: "pin: 0123\n    balance: \"10.00\"", wantErr: true},
		{name: "unquoted balance", seed: "pin: \"4321\"\n    balance: 10.50", wantErr: true},
		{name: "quoted values", seed: "pin: \"01234567\"\n    balance: \"10.50\""},
	}

	for i, tc := range tests {
		path := filepath.Join(dir, fmt.Sprintf("seed%d.yaml", i))
		writeFile(t, path, "seed:\n  - card_id: c1\n    "+tc.seed+"\n")

		f, err := Load(nil, path)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got seed %+v", tc.name, f.Seed)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: Load: %v", tc.name, err)
		}
		if len(f.Seed) != 1 || f.Seed[0].PIN != "01234567" || f.Seed[0].Balance != "10.50" {
			t.Fatalf("%s: unexpected seed %+v", tc.name, f.Seed)
		}
	}
}
