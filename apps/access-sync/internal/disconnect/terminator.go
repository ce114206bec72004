// Package disconnect はRADIUS Disconnect-Message（RFC 5176）によるセッション切断を提供する。
package disconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/oyaguma3/access-sync/pkg/model"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
)

// 属性タイプ
const (
	AttrTypeErrorCause = 101
)

// Error-Cause値（RFC 5176）
const (
	ErrorCauseSessionNotFound uint32 = 503
)

// ErrUnexpectedResponse はDisconnect-ACK/NAK以外の応答を受信した場合のエラー
var ErrUnexpectedResponse = errors.New("unexpected RADIUS response code")

// NAKError はDisconnect-NAKを受信したことを表す。
type NAKError struct {
	ErrorCause uint32
}

func (e *NAKError) Error() string {
	if e.ErrorCause == 0 {
		return "disconnect request rejected"
	}
	return fmt.Sprintf("disconnect request rejected: error-cause=%d", e.ErrorCause)
}

// Terminator はDisconnect-Requestでセッションを切断する。
type Terminator struct {
	addr    string
	secret  []byte
	timeout time.Duration
	client  *radius.Client
}

// NewTerminator は新しいTerminatorを生成する。
func NewTerminator(cfg *config.Config) *Terminator {
	return &Terminator{
		addr:    cfg.RadiusDisconnectAddr,
		secret:  []byte(cfg.RadiusSecret),
		timeout: cfg.RouterTimeout(),
		client: &radius.Client{
			Retry:           time.Second,
			MaxPacketErrors: 10,
		},
	}
}

// Terminate はセッションにDisconnect-Requestを送信する。
// Error-Cause 503（セッションなし）のNAKは切断済みとみなす。
func (t *Terminator) Terminate(ctx context.Context, _ concentrator.Executor, session *model.ActiveSession) error {
	packet, err := t.buildRequest(session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	resp, err := t.client.Exchange(ctx, packet, t.addr)
	latencyMs := time.Since(start).Milliseconds()
	if err != nil {
		kind := concentrator.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			kind = concentrator.KindTimeout
		}
		return &concentrator.ConnectionError{Kind: kind, Cause: err}
	}

	switch resp.Code {
	case radius.CodeDisconnectACK:
		slog.Info("disconnect acknowledged",
			"event_id", "RADIUS_DM_ACK",
			"session_id", session.ID,
			"latency_ms", latencyMs,
		)
		return nil
	case radius.CodeDisconnectNAK:
		nak := &NAKError{ErrorCause: errorCause(resp)}
		if nak.ErrorCause == ErrorCauseSessionNotFound {
			slog.Info("disconnect target already gone",
				"event_id", "RADIUS_DM_NAK",
				"session_id", session.ID,
				"error_cause", nak.ErrorCause,
			)
			return nil
		}
		slog.Warn("disconnect rejected",
			"event_id", "RADIUS_DM_NAK",
			"session_id", session.ID,
			"error_cause", nak.ErrorCause,
			"latency_ms", latencyMs,
		)
		return nak
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Code)
	}
}

// buildRequest はDisconnect-Requestを組み立てる。
func (t *Terminator) buildRequest(session *model.ActiveSession) (*radius.Packet, error) {
	packet := radius.New(radius.CodeDisconnectRequest, t.secret)

	if err := rfc2865.UserName_SetString(packet, session.Username); err != nil {
		return nil, fmt.Errorf("set User-Name: %w", err)
	}
	if session.AcctSessionID != "" {
		if err := rfc2866.AcctSessionID_SetString(packet, session.AcctSessionID); err != nil {
			return nil, fmt.Errorf("set Acct-Session-Id: %w", err)
		}
	}
	if ip := net.ParseIP(session.RemoteAddress); ip != nil && ip.To4() != nil {
		if err := rfc2865.FramedIPAddress_Set(packet, ip.To4()); err != nil {
			return nil, fmt.Errorf("set Framed-IP-Address: %w", err)
		}
	}
	return packet, nil
}

// errorCause はError-Cause属性の値を返す。存在しない場合は0。
func errorCause(p *radius.Packet) uint32 {
	attr := p.Get(radius.Type(AttrTypeErrorCause))
	if attr == nil {
		return 0
	}
	v, err := radius.Integer(attr)
	if err != nil {
		return 0
	}
	return v
}
