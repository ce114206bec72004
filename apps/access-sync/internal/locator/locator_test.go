package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/pkg/apperr"
)

// fakeExecutor はパスごとに固定の結果を返すExecutor。
type fakeExecutor struct {
	results map[string][]concentrator.Record
	err     error
	calls   []call
}

type call struct {
	path   string
	params concentrator.Params
}

func (f *fakeExecutor) Execute(_ context.Context, path string, params concentrator.Params) ([]concentrator.Record, error) {
	f.calls = append(f.calls, call{path: path, params: params})
	if f.err != nil {
		return nil, f.err
	}
	return f.results[path], nil
}

func TestFindSecretByUsername(t *testing.T) {
	ex := &fakeExecutor{results: map[string][]concentrator.Record{
		PathSecretPrint: {
			{".id": "*1", "name": "User42", "profile": "other"},
			{".id": "*2", "name": "user42", "profile": "PLAN. S/60.00", "service": "pppoe", "disabled": "true", "comment": "c"},
		},
	}}
	l := New(ex)

	secret, err := l.FindSecretByUsername(context.Background(), "user42")
	if err != nil {
		t.Fatalf("FindSecretByUsername failed: %v", err)
	}
	if secret == nil {
		t.Fatal("expected secret, got nil")
	}
	if secret.ID != "*2" {
		t.Errorf("ID: got %q, want *2 (non-exact match must be ignored)", secret.ID)
	}
	if secret.Profile != "PLAN. S/60.00" || secret.Service != "pppoe" || !secret.Disabled || secret.Comment != "c" {
		t.Errorf("unexpected secret: %+v", secret)
	}

	if len(ex.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(ex.calls))
	}
	p := ex.calls[0].params
	if len(p) != 1 || p[0].Key != "?name" || p[0].Value != "user42" {
		t.Errorf("unexpected params: %+v", p)
	}
}

func TestFindSecretByUsernameAbsent(t *testing.T) {
	l := New(&fakeExecutor{results: map[string][]concentrator.Record{}})

	secret, err := l.FindSecretByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if secret != nil {
		t.Errorf("expected nil, got %+v", secret)
	}
}

func TestFindActiveSessionByUsername(t *testing.T) {
	l := New(&fakeExecutor{results: map[string][]concentrator.Record{
		PathActivePrint: {
			{".id": "*80000001", "name": "user42", "address": "10.0.0.5", "caller-id": "AA:BB:CC:00:00:01", "session-id": "0x81A00001", "uptime": "5m"},
		},
	}})

	sess, err := l.FindActiveSessionByUsername(context.Background(), "user42")
	if err != nil {
		t.Fatalf("FindActiveSessionByUsername failed: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != "*80000001" || sess.RemoteAddress != "10.0.0.5" || sess.AcctSessionID != "0x81A00001" {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestFindLeaseByMAC(t *testing.T) {
	ex := &fakeExecutor{results: map[string][]concentrator.Record{
		PathLeasePrint: {
			{".id": "*5", "mac-address": "aa:bb:cc:dd:ee:ff", "address": "pool-main", "active-address": "192.168.88.10", "server": "dhcp1"},
		},
	}}
	l := New(ex)

	lease, err := l.FindLeaseByMAC(context.Background(), "aa-bb-cc-dd-ee-ff")
	if err != nil {
		t.Fatalf("FindLeaseByMAC failed: %v", err)
	}
	if lease == nil {
		t.Fatal("expected lease, got nil")
	}
	if lease.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MACAddress: got %q", lease.MACAddress)
	}
	if lease.AddressPool != "pool-main" {
		t.Errorf("AddressPool: got %q", lease.AddressPool)
	}

	p := ex.calls[0].params
	if len(p) != 1 || p[0].Value != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("query must use normalized MAC, got %+v", p)
	}
}

func TestFindLeaseByMACInvalid(t *testing.T) {
	ex := &fakeExecutor{}
	l := New(ex)

	_, err := l.FindLeaseByMAC(context.Background(), "not-a-mac")
	if !errors.Is(err, apperr.ErrInvalidMACAddress) {
		t.Fatalf("expected ErrInvalidMACAddress, got %v", err)
	}
	if len(ex.calls) != 0 {
		t.Errorf("no command expected for invalid MAC, got %d", len(ex.calls))
	}
}

func TestExistence(t *testing.T) {
	l := New(&fakeExecutor{results: map[string][]concentrator.Record{
		PathProfilePrint: {{"name": "CORTE"}},
		PathPoolPrint:    {{"name": "pool-cut"}},
	}})
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func(context.Context, string) (bool, error)
		arg  string
		want bool
	}{
		{"profile exists", l.ProfileExists, "CORTE", true},
		{"profile missing", l.ProfileExists, "corte", false},
		{"pool exists", l.PoolExists, "pool-cut", true},
		{"pool missing", l.PoolExists, "pool-x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(ctx, tt.arg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorPropagation(t *testing.T) {
	cmdErr := &concentrator.CommandError{Code: 500, Message: "boom"}
	l := New(&fakeExecutor{err: cmdErr})
	ctx := context.Background()

	if _, err := l.FindSecretByUsername(ctx, "u"); !errors.Is(err, cmdErr) {
		t.Errorf("FindSecretByUsername: expected CommandError, got %v", err)
	}
	if _, err := l.FindActiveSessionByUsername(ctx, "u"); !errors.Is(err, cmdErr) {
		t.Errorf("FindActiveSessionByUsername: expected CommandError, got %v", err)
	}
	if _, err := l.FindLeaseByMAC(ctx, "AA:BB:CC:DD:EE:FF"); !errors.Is(err, cmdErr) {
		t.Errorf("FindLeaseByMAC: expected CommandError, got %v", err)
	}
	if _, err := l.ProfileExists(ctx, "p"); !errors.Is(err, cmdErr) {
		t.Errorf("ProfileExists: expected CommandError, got %v", err)
	}
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "aa:bb:cc:dd:ee:ff", want: "AA:BB:CC:DD:EE:FF"},
		{in: "AA-BB-CC-DD-EE-FF", want: "AA:BB:CC:DD:EE:FF"},
		{in: "aabb.ccdd.eeff", want: "AA:BB:CC:DD:EE:FF"},
		{in: "aabbccddeeff", want: "AA:BB:CC:DD:EE:FF"},
		{in: " 00:11:22:33:44:55 ", want: "00:11:22:33:44:55"},
		{in: "", wantErr: true},
		{in: "aabbccddeegg", wantErr: true},
		{in: "aa:bb:cc:dd:ee", wantErr: true},
		{in: "00:00:00:00:fe:80:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeMAC(tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrInvalidMACAddress) {
					t.Errorf("expected ErrInvalidMACAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
