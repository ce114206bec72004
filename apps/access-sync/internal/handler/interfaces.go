package handler

import (
	"context"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/enforcement"
)

// Enforcer は状態遷移エンジンのインターフェース。
type Enforcer interface {
	Suspend(ctx context.Context, username string) *enforcement.Result
	Restore(ctx context.Context, username string) *enforcement.Result
	TerminateSession(ctx context.Context, username string) *enforcement.Result
	CutByMAC(ctx context.Context, mac string) *enforcement.Result
}
