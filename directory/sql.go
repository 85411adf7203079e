package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	goATM "github.com/MrEthical07/goATM"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type cardModel struct {
	bun.BaseModel `bun:"table:cards"`

	CardID         string `bun:"card_id,pk"`
	PINHash        string `bun:"pin_hash,notnull"`
	Balance        int64  `bun:"balance,notnull"`
	FailedAttempts int    `bun:"failed_attempts,notnull"`
	Locked         bool   `bun:"locked,notnull"`
}

// SQL is a Directory whose provisioning records live in a "cards" table.
// Supported database types are sqlite, postgres and mysql.
type SQL struct {
	db    *bun.DB
	cache accountCache
}

// OpenSQL connects to dsn and creates the cards table if it is missing.
func OpenSQL(ctx context.Context, dbType, dsn string) (*SQL, error) {
	driverName, err := driverFor(dbType)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory sqlite database exists per connection.
	if dbType == "sqlite" && strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	s := &SQL{db: newBunDB(sqlDB, dbType)}
	if _, err := s.db.NewCreateTable().Model((*cardModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("create cards table: %w", err)
	}
	return s, nil
}

func driverFor(dbType string) (string, error) {
	switch dbType {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		// pgx registers its database/sql driver as "pgx".
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

func newBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// Provision inserts rec. A second record for the same card fails with
// goATM.ErrCardExists.
func (s *SQL) Provision(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	m := &cardModel{
		CardID:         rec.CardID,
		PINHash:        rec.PINHash,
		Balance:        rec.Balance,
		FailedAttempts: rec.FailedAttempts,
		Locked:         rec.Locked,
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", goATM.ErrCardExists, rec.CardID)
		}
		return fmt.Errorf("sql provision: %w", err)
	}
	return nil
}

// Lookup implements goATM.Directory.
func (s *SQL) Lookup(ctx context.Context, cardID string) (*goATM.Account, error) {
	if a, ok := s.cache.get(cardID); ok {
		return a, nil
	}

	var m cardModel
	err := s.db.NewSelect().Model(&m).Where("card_id = ?", cardID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goATM.ErrUnknownCard
	}
	if err != nil {
		return nil, fmt.Errorf("sql lookup: %w", err)
	}

	rec := Record{
		CardID:         m.CardID,
		PINHash:        m.PINHash,
		Balance:        m.Balance,
		FailedAttempts: m.FailedAttempts,
		Locked:         m.Locked,
	}
	a, err := rec.account()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return s.cache.put(a), nil
}

// Close releases the database handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

// MySQL reports 1062, Postgres 23505, SQLite "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	le := strings.ToLower(err.Error())
	return strings.Contains(le, "duplicate") || strings.Contains(le, "unique") ||
		strings.Contains(le, "23505") || strings.Contains(le, "1062")
}
