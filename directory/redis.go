package directory

import (
	"context"
	"fmt"
	"strconv"

	goATM "github.com/MrEthical07/goATM"
	"github.com/redis/go-redis/v9"
)

const (
	fieldPINHash        = "pin_hash"
	fieldBalance        = "balance"
	fieldFailedAttempts = "failed_attempts"
	fieldLocked         = "locked"
)

const provisionScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "pin_hash", ARGV[1], "balance", ARGV[2], "failed_attempts", ARGV[3], "locked", ARGV[4])
return 1
`

var provisionLua = redis.NewScript(provisionScript)

// Redis is a Directory whose provisioning records live in Redis hashes at
// <prefix>:card:<id>.
type Redis struct {
	client redis.UniversalClient
	prefix string
	cache  accountCache
}

// NewRedis returns a Redis directory. An empty prefix defaults to "atm".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "atm"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(cardID string) string {
	return r.prefix + ":card:" + cardID
}

// Provision writes rec unless the card already exists.
func (r *Redis) Provision(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	res, err := provisionLua.Run(ctx, r.client, []string{r.key(rec.CardID)},
		rec.PINHash,
		strconv.FormatInt(rec.Balance, 10),
		strconv.Itoa(rec.FailedAttempts),
		boolField(rec.Locked),
	).Int64()
	if err != nil {
		return fmt.Errorf("redis provision: %w", err)
	}
	if res == 0 {
		return fmt.Errorf("%w: %s", goATM.ErrCardExists, rec.CardID)
	}
	return nil
}

// Lookup implements goATM.Directory.
func (r *Redis) Lookup(ctx context.Context, cardID string) (*goATM.Account, error) {
	if a, ok := r.cache.get(cardID); ok {
		return a, nil
	}

	fields, err := r.client.HGetAll(ctx, r.key(cardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lookup: %w", err)
	}
	if len(fields) == 0 {
		return nil, goATM.ErrUnknownCard
	}

	rec, err := decodeHash(cardID, fields)
	if err != nil {
		return nil, err
	}
	a, err := rec.account()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return r.cache.put(a), nil
}

func decodeHash(cardID string, fields map[string]string) (Record, error) {
	rec := Record{CardID: cardID, PINHash: fields[fieldPINHash]}

	balance, err := strconv.ParseInt(fields[fieldBalance], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: balance: %v", ErrCorruptRecord, err)
	}
	rec.Balance = balance

	if v, ok := fields[fieldFailedAttempts]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, fmt.Errorf("%w: failed_attempts: %v", ErrCorruptRecord, err)
		}
		rec.FailedAttempts = n
	}

	rec.Locked = fields[fieldLocked] == "1"
	return rec, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
