package store

import "context"

// Locker は識別子単位の排他ロックのインターフェース。
type Locker interface {
	// Acquire はロックを取得し、解放用トークンを返す。取得済みの場合はapperr.ErrLockHeld
	Acquire(ctx context.Context, key string) (string, error)
	// Release はトークンが一致する場合のみロックを解放する
	Release(ctx context.Context, key, token string) error
}
