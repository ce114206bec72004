package enforcement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/locator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/policy"
	"github.com/oyaguma3/access-sync/pkg/apperr"
	"github.com/oyaguma3/access-sync/pkg/logging"
	"github.com/oyaguma3/access-sync/pkg/model"
)

// ErrInternal は操作中のpanicを表すエラー
var ErrInternal = errors.New("internal error during operation")

// 書き込みコマンドパス
const (
	PathSecretSet    = "/ppp/secret/set"
	PathLeaseSet     = "/ip/dhcp-server/lease/set"
	PathActiveRemove = "/ppp/active/remove"
)

// Engine は加入者の状態遷移を実行する。
// 保持するのは不変の設定のみで、異なる加入者への呼び出しは並行に実行できる。
// 同一加入者への同時呼び出しの排他は呼び出し側の責務とする。
type Engine struct {
	conns      ConnectionManager
	policy     *policy.Policy
	terminator SessionTerminator
	fields     *logging.Fields
}

// NewEngine は新しいEngineを生成する。
// terminatorがnilの場合はAPITerminatorを使用する。
func NewEngine(conns ConnectionManager, pol *policy.Policy, terminator SessionTerminator, fields *logging.Fields) *Engine {
	if terminator == nil {
		terminator = APITerminator{}
	}
	if fields == nil {
		fields = logging.NewFields(nil)
	}
	return &Engine{
		conns:      conns,
		policy:     pol,
		terminator: terminator,
		fields:     fields,
	}
}

// Suspend は加入者を停止状態にし、接続中のセッションを切断する。
func (e *Engine) Suspend(ctx context.Context, username string) *Result {
	return e.transition(ctx, OpSuspend, username, policy.StateCut)
}

// Restore は加入者を通常状態に戻し、接続中のセッションを切断する。
func (e *Engine) Restore(ctx context.Context, username string) *Result {
	return e.transition(ctx, OpRestore, username, policy.StateNormal)
}

// TerminateSession はプロファイルを変更せずにセッションのみ切断する。
// PartialSuccess後の再実行に使う。
func (e *Engine) TerminateSession(ctx context.Context, username string) (res *Result) {
	res = &Result{Operation: OpTerminate, Subject: username, State: policy.StateUnknown}
	start := time.Now()
	defer e.finish(ctx, res, start)

	if strings.TrimSpace(username) == "" {
		return res.fail(OutcomeNotFound, apperr.ErrInvalidUsername)
	}

	conn, err := e.conns.Acquire(ctx)
	if err != nil {
		return res.fail(classify(err), err)
	}
	defer conn.Release()

	if err := e.terminateActive(ctx, conn, locator.New(conn), username, res); err != nil {
		return res.fail(classify(err), err)
	}
	res.Outcome = OutcomeSuccess
	return res
}

// CutByMAC はDHCPリースを停止用プールへ移す。
// セッション切断は行わず、次回リース更新時に反映される。
func (e *Engine) CutByMAC(ctx context.Context, mac string) (res *Result) {
	res = &Result{Operation: OpCutByMAC, Subject: mac, State: policy.StateUnknown}
	start := time.Now()
	defer e.finish(ctx, res, start)

	normalized, err := locator.NormalizeMAC(mac)
	if err != nil {
		return res.fail(OutcomeNotFound, err)
	}
	res.Subject = normalized

	conn, err := e.conns.Acquire(ctx)
	if err != nil {
		return res.fail(classify(err), err)
	}
	defer conn.Release()

	loc := locator.New(conn)
	lease, err := loc.FindLeaseByMAC(ctx, normalized)
	if err != nil {
		return res.fail(classify(err), err)
	}
	if lease == nil {
		return res.fail(OutcomeNotFound, apperr.ErrLeaseNotFound)
	}
	res.PreviousPool = lease.AddressPool
	res.Pool = lease.AddressPool

	cutPool := e.policy.CutPool()
	exists, err := loc.PoolExists(ctx, cutPool)
	if err != nil {
		return res.fail(classify(err), err)
	}
	if !exists {
		return res.fail(OutcomeConfigError, fmt.Errorf("%w: %q", apperr.ErrPoolMissing, cutPool))
	}

	if !lease.InPool(cutPool) {
		_, err := conn.Execute(ctx, PathLeaseSet, concentrator.Params{
			concentrator.Arg(locator.FieldID, lease.ID),
			concentrator.Arg(locator.FieldAddress, cutPool),
		})
		if err != nil {
			return res.fail(classify(err), err)
		}
		res.PoolChanged = true
	}
	res.Pool = cutPool
	res.State = policy.StateCut
	res.Outcome = OutcomeSuccess
	return res
}

// transition はシークレットのプロファイルをtargetに合わせ、セッションを切断する。
func (e *Engine) transition(ctx context.Context, op Operation, username string, target policy.State) (res *Result) {
	res = &Result{Operation: op, Subject: username, State: policy.StateUnknown}
	start := time.Now()
	defer e.finish(ctx, res, start)

	if strings.TrimSpace(username) == "" {
		return res.fail(OutcomeNotFound, apperr.ErrInvalidUsername)
	}

	conn, err := e.conns.Acquire(ctx)
	if err != nil {
		return res.fail(classify(err), err)
	}
	defer conn.Release()

	loc := locator.New(conn)
	secret, err := loc.FindSecretByUsername(ctx, username)
	if err != nil {
		return res.fail(classify(err), err)
	}
	if secret == nil {
		return res.fail(OutcomeNotFound, apperr.ErrSubscriberNotFound)
	}
	res.PreviousProfile = secret.Profile
	res.Profile = secret.Profile
	res.State = e.policy.StateOf(secret.Profile)

	// プロファイルの存在は毎回確認する
	targetProfile := e.policy.ProfileFor(target)
	exists, err := loc.ProfileExists(ctx, targetProfile)
	if err != nil {
		return res.fail(classify(err), err)
	}
	if !exists {
		return res.fail(OutcomeConfigError, fmt.Errorf("%w: %q", apperr.ErrProfileMissing, targetProfile))
	}

	if !secret.HasProfile(targetProfile) {
		_, err := conn.Execute(ctx, PathSecretSet, concentrator.Params{
			concentrator.Arg(locator.FieldID, secret.ID),
			concentrator.Arg(locator.FieldProfile, targetProfile),
		})
		if err != nil {
			return res.fail(classify(err), err)
		}
		res.ProfileChanged = true
	}
	res.Profile = targetProfile
	res.State = target

	// ここから先の失敗はプロファイル変更済みのためPartialSuccess
	if err := e.terminateActive(ctx, conn, loc, username, res); err != nil {
		return res.fail(OutcomePartialSuccess, err)
	}
	res.Outcome = OutcomeSuccess
	return res
}

// terminateActive はアクティブセッションがあれば切断する。
func (e *Engine) terminateActive(ctx context.Context, ex concentrator.Executor, loc *locator.Locator, username string, res *Result) error {
	session, err := loc.FindActiveSessionByUsername(ctx, username)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	res.SessionID = session.ID
	if err := e.terminator.Terminate(ctx, ex, session); err != nil {
		return err
	}
	res.SessionTerminated = true
	return nil
}

// finish はpanicを結果に変換し、結果をログに出力する。
func (e *Engine) finish(ctx context.Context, res *Result, start time.Time) {
	if r := recover(); r != nil {
		res.fail(OutcomeCommandError, fmt.Errorf("%w: %v", ErrInternal, r))
	}

	attrs := []any{
		slog.String(logging.FieldOperation, string(res.Operation)),
		slog.String(logging.FieldOutcome, string(res.Outcome)),
		slog.String("state", string(res.State)),
		slog.Bool("profile_changed", res.ProfileChanged),
		slog.Bool("session_terminated", res.SessionTerminated),
		logging.WithLatency(time.Since(start).Milliseconds()),
	}
	if res.Operation == OpCutByMAC {
		attrs = append(attrs, e.fields.WithMAC(res.Subject), slog.Bool("pool_changed", res.PoolChanged))
	} else {
		attrs = append(attrs, e.fields.WithUsername(res.Subject))
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		attrs = append(attrs, logging.WithTraceID(traceID))
	}
	if res.Err != nil {
		attrs = append(attrs, logging.WithError(res.Err))
	}

	switch res.Outcome {
	case OutcomeSuccess, OutcomeNotFound:
		slog.Info("enforcement completed", append(attrs, logging.WithEventID(eventIDFor(res.Operation)))...)
	case OutcomePartialSuccess:
		slog.Warn("enforcement partially completed", append(attrs, logging.WithEventID("ENF_PARTIAL"))...)
	default:
		slog.Error("enforcement failed", append(attrs, logging.WithEventID("ENF_FAIL"))...)
	}
}

func eventIDFor(op Operation) string {
	switch op {
	case OpSuspend:
		return "ENF_SUSPEND"
	case OpRestore:
		return "ENF_RESTORE"
	case OpCutByMAC:
		return "ENF_CUT_MAC"
	default:
		return "ENF_TERMINATE"
	}
}

// APITerminator はコンセントレータAPIでセッションを削除する。
type APITerminator struct{}

// Terminate はアクティブセッションを削除する。該当なし応答は切断済みとみなす。
func (APITerminator) Terminate(ctx context.Context, ex concentrator.Executor, session *model.ActiveSession) error {
	_, err := ex.Execute(ctx, PathActiveRemove, concentrator.Params{
		concentrator.Arg(locator.FieldID, session.ID),
	})
	return err
}
