// Package handler はHTTPリクエストハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/enforcement"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/locator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/store"
	"github.com/oyaguma3/access-sync/pkg/apperr"
	"github.com/oyaguma3/access-sync/pkg/httputil"
	"github.com/oyaguma3/access-sync/pkg/logging"
)

// TraceIDKey はコンテキストにTraceIDを格納するキー。
const TraceIDKey = "trace_id"

// MaxUsernameLength はユーザー名の最大長。
const MaxUsernameLength = 128

// AccessHandler は加入者アクセス制御APIのハンドラー。
type AccessHandler struct {
	enforcer Enforcer
	locker   store.Locker
	fields   *logging.Fields
}

// NewAccessHandler は新しいAccessHandlerを生成する。
func NewAccessHandler(enforcer Enforcer, locker store.Locker, fields *logging.Fields) *AccessHandler {
	if locker == nil {
		locker = store.NewNoopLocker()
	}
	if fields == nil {
		fields = logging.NewFields(nil)
	}
	return &AccessHandler{
		enforcer: enforcer,
		locker:   locker,
		fields:   fields,
	}
}

// HandleSuspend はPOST /api/v1/subscribers/:username/suspend のハンドラー。
func (h *AccessHandler) HandleSuspend(c *gin.Context) {
	h.handleSubscriber(c, h.enforcer.Suspend)
}

// HandleRestore はPOST /api/v1/subscribers/:username/restore のハンドラー。
func (h *AccessHandler) HandleRestore(c *gin.Context) {
	h.handleSubscriber(c, h.enforcer.Restore)
}

// HandleTerminate はPOST /api/v1/subscribers/:username/terminate のハンドラー。
func (h *AccessHandler) HandleTerminate(c *gin.Context) {
	h.handleSubscriber(c, h.enforcer.TerminateSession)
}

// HandleCutByMAC はPOST /api/v1/leases/:mac/cut のハンドラー。
func (h *AccessHandler) HandleCutByMAC(c *gin.Context) {
	traceID := c.GetString(TraceIDKey)

	mac, err := locator.NormalizeMAC(c.Param("mac"))
	if err != nil {
		slog.Warn("invalid MAC address",
			"trace_id", traceID,
			"event_id", "ENF_FAIL",
			"error", err.Error(),
		)
		httputil.WriteError(c, httputil.BadRequest("invalid MAC address").WithTraceID(traceID))
		return
	}

	h.withLock(c, store.MACLockKey(mac), func(ctx context.Context) *enforcement.Result {
		return h.enforcer.CutByMAC(ctx, mac)
	})
}

// handleSubscriber はユーザー名を検証し、ロックを取得してopを実行する。
func (h *AccessHandler) handleSubscriber(c *gin.Context, op func(context.Context, string) *enforcement.Result) {
	traceID := c.GetString(TraceIDKey)
	username := c.Param("username")

	if err := validateUsername(username); err != nil {
		slog.Warn("invalid username",
			"trace_id", traceID,
			"event_id", "ENF_FAIL",
			"error", err.Error(),
		)
		httputil.WriteError(c, httputil.BadRequest(err.Error()).WithTraceID(traceID))
		return
	}

	h.withLock(c, store.UserLockKey(username), func(ctx context.Context) *enforcement.Result {
		return op(ctx, username)
	})
}

// withLock は識別子ロックを保持したままfnを実行し、結果を書き込む。
func (h *AccessHandler) withLock(c *gin.Context, key string, fn func(ctx context.Context) *enforcement.Result) {
	traceID := c.GetString(TraceIDKey)
	ctx := logging.ContextWithTraceID(c.Request.Context(), traceID)

	token, err := h.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, apperr.ErrLockHeld) {
			slog.Warn("operation already in progress",
				"trace_id", traceID,
				"event_id", "LOCK_HELD",
				"lock_key", key,
			)
			httputil.WriteError(c, httputil.Conflict(err.Error()).WithTraceID(traceID))
			return
		}
		slog.Error("lock unavailable",
			"trace_id", traceID,
			"event_id", "ENF_FAIL",
			"error", err.Error(),
		)
		httputil.WriteError(c, httputil.ServiceUnavailable("lock store unavailable").WithTraceID(traceID))
		return
	}
	defer func() {
		// 呼び出し元の切断後もロックは解放する
		if err := h.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			slog.Warn("lock release failed",
				"trace_id", traceID,
				"lock_key", key,
				"error", err.Error(),
			)
		}
	}()

	res := fn(ctx)
	c.JSON(StatusFor(res.Outcome), res.View())
}

// StatusFor は結果分類をHTTPステータスに変換する。
func StatusFor(outcome enforcement.Outcome) int {
	switch outcome {
	case enforcement.OutcomeSuccess:
		return http.StatusOK
	case enforcement.OutcomePartialSuccess:
		return http.StatusMultiStatus
	case enforcement.OutcomeNotFound:
		return http.StatusNotFound
	case enforcement.OutcomeConfigError:
		return http.StatusConflict
	case enforcement.OutcomeConnectionError:
		return http.StatusServiceUnavailable
	case enforcement.OutcomeCommandError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validateUsername はユーザー名を検証する。
func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return apperr.NewValidationError("username", "must not be empty", apperr.ErrInvalidUsername)
	}
	if len(username) > MaxUsernameLength {
		return apperr.NewValidationError("username", fmt.Sprintf("must be at most %d bytes", MaxUsernameLength), apperr.ErrInvalidUsername)
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return apperr.NewValidationError("username", "must not contain control characters", apperr.ErrInvalidUsername)
		}
	}
	return nil
}
