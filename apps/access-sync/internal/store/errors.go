package store

import "errors"

var (
	// ErrValkeyUnavailable はValkeyへの接続が利用不可能な場合のエラー
	ErrValkeyUnavailable = errors.New("valkey unavailable")

	// ErrLockNotOwned は解放時にロックが既に失効・再取得されていた場合のエラー
	ErrLockNotOwned = errors.New("lock not owned")
)
