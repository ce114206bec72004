package concentrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// conn はConnの実装。1つのTransportを占有し、同時に1リクエストのみ発行する。
type conn struct {
	client    *resty.Client
	transport *http.Transport
	identity  string

	mu        sync.Mutex
	discarded bool
	released  bool
}

// Execute はコマンドを1回実行し、結果レコードを返す。
// 再試行は行わない。
func (c *conn) Execute(ctx context.Context, path string, params Params) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil, &ConnectionError{Kind: KindNetwork, Cause: ErrConnReleased}
	}
	if c.discarded {
		return nil, &ConnectionError{Kind: KindTimeout, Cause: ErrConnDiscarded}
	}

	body, err := params.MarshalJSON()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	latencyMs := time.Since(start).Milliseconds()

	if err != nil {
		// 送信済みかどうか不明なため、この接続は以後使わない
		c.discarded = true
		ce := classifyTransportError(err)
		slog.Warn("concentrator request failed",
			"event_id", "ROS_CONN_ERR",
			"path", path,
			"kind", string(ce.Kind),
			"error", err.Error(),
			"latency_ms", latencyMs,
		)
		return nil, ce
	}

	statusCode := resp.StatusCode()
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return nil, &ConnectionError{Kind: KindAuth, Cause: ErrAuthRejected}
	case statusCode >= 400:
		cmdErr := parseCommandError(statusCode, resp.Body())
		if cmdErr.IsNoSuchItem() {
			slog.Debug("concentrator command returned no such item",
				"path", path,
				"latency_ms", latencyMs,
			)
			return []Record{}, nil
		}
		slog.Warn("concentrator command error",
			"event_id", "ROS_CMD_ERR",
			"path", path,
			"code", cmdErr.Code,
			"error", cmdErr.Message,
			"latency_ms", latencyMs,
		)
		return nil, cmdErr
	}

	records, err := decodeRecords(resp.Body())
	if err != nil {
		return nil, err
	}

	slog.Debug("concentrator command success",
		"path", path,
		"records", len(records),
		"latency_ms", latencyMs,
	)
	return records, nil
}

// Release は接続を解放する。複数回呼び出してもよい。
func (c *conn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	c.transport.CloseIdleConnections()
}

// commandErrorBody はエラー応答ボディ。
type commandErrorBody struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// parseCommandError はエラー応答をCommandErrorに変換する。
func parseCommandError(statusCode int, body []byte) *CommandError {
	var raw commandErrorBody
	if err := json.Unmarshal(body, &raw); err == nil && (raw.Message != "" || raw.Detail != "" || raw.Error != 0) {
		code := raw.Error
		if code == 0 {
			code = statusCode
		}
		msg := raw.Message
		if raw.Detail != "" {
			if msg != "" {
				msg += ": "
			}
			msg += raw.Detail
		}
		return &CommandError{Code: code, Message: msg}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &CommandError{Code: statusCode, Message: msg}
}

// classifyTransportError は送受信エラーを接続エラー種別に分類する。
func classifyTransportError(err error) *ConnectionError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ConnectionError{Kind: KindTimeout, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ConnectionError{Kind: KindTimeout, Cause: err}
	}
	return &ConnectionError{Kind: KindNetwork, Cause: err}
}
