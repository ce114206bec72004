package concentrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator/concentratortest"
)

func TestAcquireSuccess(t *testing.T) {
	srv := concentratortest.NewServer(t)
	m := NewManager(srv.Config())

	if !strings.HasSuffix(m.BaseURL(), "/rest") {
		t.Errorf("unexpected base URL: %s", m.BaseURL())
	}

	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer c.Release()

	cmds := srv.Commands()
	if len(cmds) != 1 || cmds[0].Path != ProbePath {
		t.Errorf("expected login probe, got %v", cmds)
	}
	if got := c.(*conn).identity; got != concentratortest.Identity {
		t.Errorf("identity: got %q, want %q", got, concentratortest.Identity)
	}
}

func TestAcquireTLSInsecure(t *testing.T) {
	srv := concentratortest.NewTLSServer(t)

	cfg := srv.Config()
	m := NewManager(cfg)
	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire with insecure TLS failed: %v", err)
	}
	c.Release()

	cfg.RouterInsecureTLS = false
	m = NewManager(cfg)
	_, err = m.Acquire(context.Background())
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Kind != KindNetwork {
		t.Fatalf("expected network ConnectionError for untrusted cert, got %v", err)
	}
}

func TestAcquireAuthFailureDoesNotTripBreaker(t *testing.T) {
	srv := concentratortest.NewServer(t)
	cfg := srv.Config()
	cfg.RouterPass = "wrong"
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		_, err := m.Acquire(context.Background())
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			t.Fatalf("attempt %d: expected ConnectionError, got %v", i, err)
		}
		if connErr.Kind != KindAuth {
			t.Fatalf("attempt %d: expected auth kind, got %s", i, connErr.Kind)
		}
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("attempt %d: breaker must not open on auth failures", i)
		}
	}
}

func TestAcquireNetworkFailureTripsBreaker(t *testing.T) {
	srv := concentratortest.NewServer(t)
	cfg := srv.Config()
	srv.Close()
	m := NewManager(cfg)

	for i := 0; i < 3; i++ {
		_, err := m.Acquire(context.Background())
		var connErr *ConnectionError
		if !errors.As(err, &connErr) || connErr.Kind != KindNetwork {
			t.Fatalf("attempt %d: expected network ConnectionError, got %v", i, err)
		}
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("attempt %d: breaker opened too early", i)
		}
	}

	_, err := m.Acquire(context.Background())
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Kind != KindNetwork {
		t.Errorf("expected network kind for open breaker, got %v", err)
	}
}

func TestAcquireCancelledDoesNotTripBreaker(t *testing.T) {
	srv := concentratortest.NewServer(t)
	m := NewManager(srv.Config())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 閾値を超える回数だけ呼び出し側で中断する
	for i := 0; i < 5; i++ {
		_, err := m.Acquire(ctx)
		var connErr *ConnectionError
		if !errors.As(err, &connErr) || connErr.Kind != KindTimeout {
			t.Fatalf("attempt %d: expected timeout ConnectionError, got %v", i, err)
		}
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("attempt %d: breaker must not open on caller cancellation", i)
		}
	}

	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after cancellations failed: %v", err)
	}
	c.Release()
}
