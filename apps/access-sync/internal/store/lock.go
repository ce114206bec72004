package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oyaguma3/access-sync/pkg/apperr"
	"github.com/oyaguma3/access-sync/pkg/valkey"
	"github.com/redis/go-redis/v9"
)

// releaseScript はトークンが一致する場合のみキーを削除する。
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// valkeyLocker はLockerのValkey実装。
type valkeyLocker struct {
	vc  *ValkeyClient
	ttl time.Duration
}

// NewLocker は新しいLockerを生成する。
// ttlは処理が異常終了した場合にロックが自然解放されるまでの時間。
func NewLocker(vc *ValkeyClient, ttl time.Duration) Locker {
	return &valkeyLocker{vc: vc, ttl: ttl}
}

// Acquire はSET NX PXでロックを取得する。
func (l *valkeyLocker) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	ok, err := l.vc.Client().SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", wrapValkeyError("acquire lock", err)
	}
	if !ok {
		return "", apperr.ErrLockHeld
	}
	return token, nil
}

// Release はトークンが一致する場合のみロックを解放する。
func (l *valkeyLocker) Release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.vc.Client(), []string{key}, token).Int()
	if err != nil {
		return wrapValkeyError("release lock", err)
	}
	if n == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// wrapValkeyError は接続障害のみErrValkeyUnavailableとして扱い、それ以外のエラーはそのまま包む。
func wrapValkeyError(op string, err error) error {
	if valkey.IsConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// noopLocker はロックを行わないLocker。
type noopLocker struct{}

// NewNoopLocker はロック無効時のLockerを生成する。
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Acquire(context.Context, string) (string, error) { return "", nil }

func (noopLocker) Release(context.Context, string, string) error { return nil }
