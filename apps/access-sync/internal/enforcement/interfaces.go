// Package enforcement は加入者の論理状態をコンセントレータへ反映する状態遷移エンジンを提供する。
package enforcement

//go:generate mockgen -source=interfaces.go -destination=mock_interfaces.go -package=enforcement

import (
	"context"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/pkg/model"
)

// ConnectionManager は呼び出し単位の接続を払い出すインターフェース。
type ConnectionManager interface {
	// Acquire は認証済みの新しい接続を返す
	Acquire(ctx context.Context) (concentrator.Conn, error)
}

// SessionTerminator はアクティブセッションを切断するインターフェース。
type SessionTerminator interface {
	// Terminate はセッションを切断する。既に存在しない場合は成功とみなす
	Terminate(ctx context.Context, ex concentrator.Executor, session *model.ActiveSession) error
}
