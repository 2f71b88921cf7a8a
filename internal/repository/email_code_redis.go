package repository

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/otp"
)

// markUsedLua flips the record to used only if it still holds the code that was
// read and has not been used since.
// KEYS[1] = record key
// ARGV[1] = stored code as read by the caller
//
// Returns 1 when this call consumed the record, 0 otherwise.
var markUsedLua = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'code', 'used')
if fields[1] ~= ARGV[1] or fields[2] ~= '0' then
  return 0
end
redis.call('HSET', KEYS[1], 'used', '1')
return 1
`)

// RedisCodeStore keeps one-time codes in Redis hashes that expire with the code.
type RedisCodeStore struct {
	redis  redis.UniversalClient
	prefix string
}

var _ otp.CodeStore = (*RedisCodeStore)(nil)

// NewRedisCodeStore constructs the store.
func NewRedisCodeStore(client redis.UniversalClient, prefix string) *RedisCodeStore {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisCodeStore{redis: client, prefix: prefix}
}

func (s *RedisCodeStore) key(email string) string {
	return s.prefix + ":" + email
}

// Save replaces the record for record.Email. The key outlives the code by a
// minute so a late verify still reports expiry instead of a missing record.
func (s *RedisCodeStore) Save(ctx context.Context, record domain.EmailCode) error {
	key := s.key(record.Email)
	ttl := time.Until(record.ExpiresAt) + time.Minute
	if ttl < time.Minute {
		ttl = time.Minute
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code", record.Code,
			"expires_at", record.ExpiresAt.UnixMilli(),
			"created_at", record.CreatedAt.UnixMilli(),
			"used", "0",
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	return nil
}

// Consume reads the record, matches code in constant time, then marks it used
// with a compare-and-set so that of two concurrent callers only one succeeds.
func (s *RedisCodeStore) Consume(ctx context.Context, email, code string, now time.Time) (*domain.EmailCode, error) {
	key := s.key(email)
	fields, err := s.redis.HMGet(ctx, key, "code", "expires_at", "used", "created_at").Result()
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}

	stored, ok := fields[0].(string)
	if !ok {
		return nil, otp.ErrCodeNotFound
	}
	if used, _ := fields[2].(string); used != "0" {
		return nil, otp.ErrCodeNotFound
	}
	expiresAt, err := parseMillis(fields[1])
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if now.After(expiresAt) {
		return nil, otp.ErrCodeNotFound
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, otp.ErrCodeNotFound
	}

	swapped, err := markUsedLua.Run(ctx, s.redis, []string{key}, stored).Int()
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if swapped != 1 {
		return nil, otp.ErrCodeNotFound
	}

	createdAt, err := parseMillis(fields[3])
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return &domain.EmailCode{
		Email:     email,
		Code:      stored,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		Used:      true,
	}, nil
}

func parseMillis(v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
