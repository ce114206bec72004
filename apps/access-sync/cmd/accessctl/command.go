package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/enforcement"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/locator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/store"
	"github.com/oyaguma3/access-sync/pkg/apperr"
)

// サブコマンド名
const (
	cmdSuspend   = "suspend"
	cmdRestore   = "restore"
	cmdTerminate = "terminate"
	cmdCutMAC    = "cut-mac"
)

// 終了コード
const (
	exitFailure = 1
	exitPartial = 2
)

// exitError は結果に応じた終了コードを運ぶ。
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// enforcer はCLIから呼び出す施行操作。
type enforcer interface {
	Suspend(ctx context.Context, username string) *enforcement.Result
	Restore(ctx context.Context, username string) *enforcement.Result
	TerminateSession(ctx context.Context, username string) *enforcement.Result
	CutByMAC(ctx context.Context, mac string) *enforcement.Result
}

// command は解析済みのサブコマンド。
type command struct {
	name string
	arg  string
}

// parseCommand は位置引数からサブコマンドを解析する。
func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}
	switch args[0] {
	case cmdSuspend, cmdRestore, cmdTerminate, cmdCutMAC:
	default:
		return command{}, fmt.Errorf("unknown command %q", args[0])
	}
	if len(args) != 2 {
		return command{}, fmt.Errorf("%s requires exactly one argument", args[0])
	}
	if args[1] == "" {
		return command{}, fmt.Errorf("%s: %w", args[0], apperr.ErrInvalidUsername)
	}
	return command{name: args[0], arg: args[1]}, nil
}

// lockKey はコマンドの排他ロックキーを返す。
func (c command) lockKey() (string, error) {
	if c.name == cmdCutMAC {
		mac, err := locator.NormalizeMAC(c.arg)
		if err != nil {
			return "", err
		}
		return store.MACLockKey(mac), nil
	}
	return store.UserLockKey(c.arg), nil
}

// execute はロックを保持したままコマンドを実行する。
func (c command) execute(ctx context.Context, enf enforcer, locker store.Locker) (*enforcement.Result, error) {
	key, err := c.lockKey()
	if err != nil {
		return nil, err
	}
	token, err := locker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = locker.Release(context.WithoutCancel(ctx), key, token) }()

	switch c.name {
	case cmdSuspend:
		return enf.Suspend(ctx, c.arg), nil
	case cmdRestore:
		return enf.Restore(ctx, c.arg), nil
	case cmdTerminate:
		return enf.TerminateSession(ctx, c.arg), nil
	default:
		return enf.CutByMAC(ctx, c.arg), nil
	}
}

// exitCode は結果を終了コードに変換する。
func exitCode(res *enforcement.Result) int {
	switch res.Outcome {
	case enforcement.OutcomeSuccess:
		return 0
	case enforcement.OutcomePartialSuccess:
		return exitPartial
	default:
		return exitFailure
	}
}
