package main

import (
	"context"
	"errors"
	"fmt"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/directory"
	"github.com/MrEthical07/goATM/internal/config"
	"github.com/MrEthical07/goATM/money"
	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// cardStore is a Directory that can also provision cards.
type cardStore interface {
	goATM.Directory
	Provision(ctx context.Context, rec directory.Record) error
}

// memoryStore provisions straight into a MemoryDirectory.
type memoryStore struct {
	*goATM.MemoryDirectory
}

func (m memoryStore) Provision(_ context.Context, rec directory.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	acct, err := goATM.RestoreAccount(rec.CardID, rec.PINHash, money.FromMinor(rec.Balance), rec.FailedAttempts, rec.Locked)
	if err != nil {
		return err
	}
	return m.Add(acct)
}

// openStore opens the configured back-end. The returned cleanup is never nil.
// A redis back-end without an address runs against an embedded miniredis.
func openStore(ctx context.Context, cfg config.DirectoryConfig, logger *log.Logger) (cardStore, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "", "memory":
		dir, _ := goATM.NewMemoryDirectory()
		return memoryStore{dir}, noop, nil

	case "redis":
		addr := cfg.RedisAddr
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, noop, fmt.Errorf("failed to start miniredis: %w", err)
			}
			addr = mr.Addr()
			logger.Info("using miniredis", "addr", addr)
		} else {
			logger.Info("using redis", "addr", addr)
		}

		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup := func() {
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
		}
		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return directory.NewRedis(client, cfg.RedisPrefix), cleanup, nil

	case "sql":
		dir, err := directory.OpenSQL(ctx, cfg.DBType, cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using sql directory", "db", cfg.DBType)
		return dir, func() { _ = dir.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown directory backend %q", cfg.Backend)
}

// newRecord hashes pinText under cfg and parses balance into a provisioning
// record.
func newRecord(cfg goATM.PINConfig, cardID, pinText, balance string) (directory.Record, error) {
	amount, err := money.Parse(balance)
	if err != nil {
		return directory.Record{}, fmt.Errorf("balance %q: %w", balance, err)
	}
	hash, err := cfg.Hash(pinText)
	if err != nil {
		return directory.Record{}, err
	}
	rec := directory.Record{CardID: cardID, PINHash: hash, Balance: amount.Minor()}
	return rec, rec.Validate()
}

// seedStore provisions every seed card that does not exist yet.
func seedStore(ctx context.Context, store cardStore, cfg goATM.PINConfig, seeds []config.SeedCard, logger *log.Logger) error {
	for _, s := range seeds {
		rec, err := newRecord(cfg, s.CardID, s.PIN, s.Balance)
		if err != nil {
			return fmt.Errorf("seed card %q: %w", s.CardID, err)
		}
		err = store.Provision(ctx, rec)
		switch {
		case err == nil:
			logger.Info("seeded card", "card", s.CardID)
		case errors.Is(err, goATM.ErrCardExists):
			logger.Debug("seed card already provisioned", "card", s.CardID)
		default:
			return fmt.Errorf("seed card %q: %w", s.CardID, err)
		}
	}
	return nil
}
