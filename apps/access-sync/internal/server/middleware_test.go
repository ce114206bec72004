package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/handler"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(mw ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(handler.TraceIDKey))
	})
	engine.GET("/panic", func(*gin.Context) {
		panic("boom")
	})
	return engine
}

func TestTraceIDMiddleware(t *testing.T) {
	engine := newTestEngine(TraceIDMiddleware())

	t.Run("propagates header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Trace-ID", "trace-abc")
		engine.ServeHTTP(w, req)

		if w.Body.String() != "trace-abc" {
			t.Errorf("trace id in context: got %q", w.Body.String())
		}
		if w.Header().Get("X-Trace-ID") != "trace-abc" {
			t.Errorf("response header: got %q", w.Header().Get("X-Trace-ID"))
		}
	})

	t.Run("generates when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		got := w.Header().Get("X-Trace-ID")
		if len(got) != 36 {
			t.Errorf("expected generated UUID, got %q", got)
		}
		if w.Body.String() != got {
			t.Errorf("context and header differ: %q vs %q", w.Body.String(), got)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := newTestEngine(TraceIDMiddleware(), LoggingMiddleware(), RecoveryMiddleware())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	engine := newTestEngine(RateLimitMiddleware(rate.NewLimiter(rate.Every(1<<62), 2)))

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: got %d, want %d", i, codes[i], want[i])
		}
	}
}

func TestNewLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		burst     int
		wantLimit rate.Limit
		wantBurst int
	}{
		{"disabled", 0, 10, rate.Inf, 0},
		{"negative disabled", -1, 10, rate.Inf, 0},
		{"configured", 5, 10, 5, 10},
		{"burst floor", 5, 0, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.rps, tt.burst)
			if l.Limit() != tt.wantLimit {
				t.Errorf("Limit: got %v, want %v", l.Limit(), tt.wantLimit)
			}
			if l.Burst() != tt.wantBurst {
				t.Errorf("Burst: got %d, want %d", l.Burst(), tt.wantBurst)
			}
		})
	}

	// 無制限のリミッタは常に許可する
	l := NewLimiter(0, 0)
	for range 100 {
		if !l.Allow() {
			t.Fatal("disabled limiter must allow")
		}
	}
}
