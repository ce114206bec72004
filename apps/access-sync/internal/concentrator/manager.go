// Package concentrator はアクセスコンセントレータのREST APIへの接続とコマンド実行を提供する。
package concentrator

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/sony/gobreaker"
)

// Manager は呼び出し単位の接続を払い出す。
// 接続は共有・プールせず、Acquireごとに新しいTransportを生成する。
type Manager struct {
	baseURL  string
	user     string
	password string
	timeout  time.Duration
	tlsConf  *tls.Config
	cb       *gobreaker.CircuitBreaker
}

// NewManager は新しいManagerを生成する。
func NewManager(cfg *config.Config) *Manager {
	cbSettings := gobreaker.Settings{
		Name:        config.CBName,
		MaxRequests: config.CBMaxRequests,
		Interval:    config.CBInterval,
		Timeout:     config.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.CBFailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("circuit breaker opened",
					"event_id", "CB_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateHalfOpen:
				slog.Info("circuit breaker half-open",
					"event_id", "CB_HALF_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateClosed:
				slog.Info("circuit breaker closed",
					"event_id", "CB_CLOSE",
					"cb_name", name,
				)
			}
		},
	}

	var tlsConf *tls.Config
	if cfg.RouterTLS {
		tlsConf = &tls.Config{
			InsecureSkipVerify: cfg.RouterInsecureTLS,
			MinVersion:         tls.VersionTLS12,
		}
	}

	return &Manager{
		baseURL:  cfg.RouterBaseURL(),
		user:     cfg.RouterUser,
		password: cfg.RouterPass,
		timeout:  cfg.RouterTimeout(),
		tlsConf:  tlsConf,
		cb:       gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// BaseURL は接続先のベースURLを返す。
func (m *Manager) BaseURL() string {
	return m.baseURL
}

// Acquire は新しい接続を確立し、ログイン確認を行ってから返す。
// 呼び出し側は必ずReleaseすること。
func (m *Manager) Acquire(ctx context.Context) (Conn, error) {
	start := time.Now()

	result, err := m.cb.Execute(func() (any, error) {
		c := m.newConn()
		if err := c.probe(ctx); err != nil {
			c.Release()
			var connErr *ConnectionError
			if errors.As(err, &connErr) && connErr.Kind == KindAuth {
				// 認証失敗はCBカウントに含めない
				return err, nil
			}
			if ctx.Err() != nil {
				// 呼び出し側の中断もCBカウントに含めない
				return err, nil
			}
			return nil, err
		}
		return c, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ConnectionError{Kind: KindNetwork, Cause: ErrCircuitOpen}
		}
		return nil, err
	}

	if probeErr, ok := result.(error); ok {
		var connErr *ConnectionError
		if !errors.As(probeErr, &connErr) {
			return nil, &ConnectionError{Kind: KindTimeout, Cause: probeErr}
		}
		if connErr.Kind == KindAuth {
			slog.Warn("concentrator login rejected",
				"event_id", "ROS_AUTH_ERR",
				"error", probeErr.Error(),
			)
		}
		return nil, probeErr
	}

	c, ok := result.(*conn)
	if !ok {
		return nil, ErrInvalidResponse
	}

	slog.Debug("concentrator connection acquired",
		"identity", c.identity,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return c, nil
}

// newConn は専用Transportを持つ接続を生成する。
func (m *Manager) newConn() *conn {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: m.timeout,
		}).DialContext,
		TLSClientConfig:       m.tlsConf,
		TLSHandshakeTimeout:   m.timeout,
		ResponseHeaderTimeout: m.timeout,
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		MaxConnsPerHost:       1,
	}

	client := resty.New().
		SetTransport(transport).
		SetBaseURL(m.baseURL).
		SetBasicAuth(m.user, m.password).
		SetTimeout(m.timeout).
		SetHeader(HeaderContentType, ContentTypeJSON).
		SetHeader(HeaderAccept, ContentTypeJSON)

	return &conn{
		client:    client,
		transport: transport,
	}
}

// probe はログイン確認を行い、機器識別名を記録する。
func (c *conn) probe(ctx context.Context) error {
	records, err := c.Execute(ctx, ProbePath, nil)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		c.identity = records[0].Get(identityField)
	}
	return nil
}
