package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/otp"
)

func newTestCodeStore(t *testing.T) (*RedisCodeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCodeStore(rdb, "otp"), mr
}

func testCode(now time.Time) domain.EmailCode {
	return domain.EmailCode{
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: now.Add(10 * time.Minute),
		CreatedAt: now,
	}
}

func TestRedisCodeStore_ConsumeOnce(t *testing.T) {
	store, _ := newTestCodeStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	require.NoError(t, store.Save(ctx, testCode(now)))

	rec, err := store.Consume(ctx, "a@x.com", "123456", now)
	require.NoError(t, err)
	assert.True(t, rec.Used)
	assert.Equal(t, "123456", rec.Code)
	assert.True(t, rec.ExpiresAt.Equal(now.Add(10*time.Minute)))

	_, err = store.Consume(ctx, "a@x.com", "123456", now)
	assert.ErrorIs(t, err, otp.ErrCodeNotFound)
}

func TestRedisCodeStore_Rejections(t *testing.T) {
	store, _ := newTestCodeStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, store.Save(ctx, testCode(now)))

	_, err := store.Consume(ctx, "a@x.com", "654321", now)
	assert.ErrorIs(t, err, otp.ErrCodeNotFound, "wrong code")

	_, err = store.Consume(ctx, "b@x.com", "123456", now)
	assert.ErrorIs(t, err, otp.ErrCodeNotFound, "unknown email")

	_, err = store.Consume(ctx, "a@x.com", "123456", now.Add(10*time.Minute+time.Millisecond))
	assert.ErrorIs(t, err, otp.ErrCodeNotFound, "expired")

	rec, err := store.Consume(ctx, "a@x.com", "123456", now.Add(10*time.Minute))
	require.NoError(t, err, "valid at exactly expires_at, and failed attempts do not burn the code")
	assert.Equal(t, "a@x.com", rec.Email)
}

func TestRedisCodeStore_SaveReplacesAndResetsUsed(t *testing.T) {
	store, _ := newTestCodeStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, testCode(now)))
	_, err := store.Consume(ctx, "a@x.com", "123456", now)
	require.NoError(t, err)

	next := testCode(now)
	next.Code = "777777"
	require.NoError(t, store.Save(ctx, next))

	_, err = store.Consume(ctx, "a@x.com", "123456", now)
	assert.ErrorIs(t, err, otp.ErrCodeNotFound)
	_, err = store.Consume(ctx, "a@x.com", "777777", now)
	assert.NoError(t, err)
}

func TestRedisCodeStore_KeyExpires(t *testing.T) {
	store, mr := newTestCodeStore(t)
	now := time.Now()
	require.NoError(t, store.Save(context.Background(), testCode(now)))

	ttl := mr.TTL("otp:a@x.com")
	assert.Greater(t, ttl, 10*time.Minute)
	assert.LessOrEqual(t, ttl, 11*time.Minute)

	mr.FastForward(12 * time.Minute)
	assert.False(t, mr.Exists("otp:a@x.com"))
}

func TestRedisCodeStore_ConcurrentConsume(t *testing.T) {
	store, _ := newTestCodeStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.Save(ctx, testCode(now)))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, "a@x.com", "123456", now); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisCodeStore_Unavailable(t *testing.T) {
	store, mr := newTestCodeStore(t)
	mr.Close()

	err := store.Save(context.Background(), testCode(time.Now()))
	require.Error(t, err)

	_, err = store.Consume(context.Background(), "a@x.com", "123456", time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, otp.ErrCodeNotFound)
}

func TestRedisCodeStore_WithFlow(t *testing.T) {
	store, _ := newTestCodeStore(t)
	flow, err := otp.NewFlow(store, nil, otp.Config{DevFallback: true})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := flow.IssueCode(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, otp.OutcomeDevFallback, res.Outcome)

	require.NoError(t, flow.VerifyCode(ctx, "a@x.com", res.Code))
	assert.ErrorIs(t, flow.VerifyCode(ctx, "a@x.com", res.Code), otp.ErrInvalidCode)
}

func TestRedisCodeStore_MarkUsedRequiresUnchangedRecord(t *testing.T) {
	store, mr := newTestCodeStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, store.Save(ctx, testCode(now)))

	// A reissue between the read and the swap replaces the stored code.
	swapped, err := markUsedLua.Run(ctx, store.redis, []string{"otp:a@x.com"}, "999999").Int()
	require.NoError(t, err)
	assert.Equal(t, 0, swapped)
	assert.Equal(t, "0", mr.HGet("otp:a@x.com", "used"))

	swapped, err = markUsedLua.Run(ctx, store.redis, []string{"otp:a@x.com"}, "123456").Int()
	require.NoError(t, err)
	assert.Equal(t, 1, swapped)

	swapped, err = markUsedLua.Run(ctx, store.redis, []string{"otp:a@x.com"}, "123456").Int()
	require.NoError(t, err)
	assert.Equal(t, 0, swapped, "already used")

	_, err = store.Consume(ctx, "a@x.com", "123456", now)
	assert.ErrorIs(t, err, otp.ErrCodeNotFound)
}

func TestRedisCodeStore_MismatchLeavesRecordUnused(t *testing.T) {
	store, mr := newTestCodeStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, store.Save(ctx, testCode(now)))

	for _, candidate := range []string{"12345", "1234567", "000000"} {
		_, err := store.Consume(ctx, "a@x.com", candidate, now)
		assert.ErrorIs(t, err, otp.ErrCodeNotFound, candidate)
	}
	assert.Equal(t, "0", mr.HGet("otp:a@x.com", "used"))
}
