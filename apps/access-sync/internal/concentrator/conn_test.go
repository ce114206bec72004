package concentrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator/concentratortest"
)

func acquire(t *testing.T, srv *concentratortest.Server) Conn {
	t.Helper()
	m := NewManager(srv.Config())
	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(c.Release)
	return c
}

func TestParamsMarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{
			name:   "empty",
			params: nil,
			want:   `{}`,
		},
		{
			name:   "insertion order kept",
			params: Params{Arg(".id", "*1"), Arg("profile", "PLAN. S/60.00"), Arg("comment", "a")},
			want:   `{".id":"*1","profile":"PLAN. S/60.00","comment":"a"}`,
		},
		{
			name:   "query words gathered",
			params: Params{Query("name", "user1"), Arg(".proplist", ".id,name"), Query("disabled", "false")},
			want:   `{".proplist":".id,name",".query":["name=user1","disabled=false"]}`,
		},
		{
			name:   "query only",
			params: Params{Query("mac-address", "AA:BB:CC:DD:EE:FF")},
			want:   `{".query":["mac-address=AA:BB:CC:DD:EE:FF"]}`,
		},
		{
			name:   "special characters escaped once",
			params: Params{Arg("comment", `say "hi" & <bye>\`)},
			want:   `{"comment":"say \"hi\" & <bye>\\"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []Record
		wantErr bool
	}{
		{name: "empty body", body: "", want: []Record{}},
		{name: "empty array", body: "[]", want: []Record{}},
		{
			name: "array",
			body: `[{".id":"*1","name":"a"},{".id":"*2","name":"b"}]`,
			want: []Record{{".id": "*1", "name": "a"}, {".id": "*2", "name": "b"}},
		},
		{
			name: "single object",
			body: `{"name":"router"}`,
			want: []Record{{"name": "router"}},
		},
		{
			name: "non-string scalars",
			body: `[{"disabled":false,"mtu":1480,"comment":null}]`,
			want: []Record{{"disabled": "false", "mtu": "1480", "comment": ""}},
		},
		{name: "garbage", body: "<html>", wantErr: true},
		{name: "broken json", body: `[{"name":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRecords([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Fatalf("expected ErrInvalidResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeRecords failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d records, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				for k, v := range tt.want[i] {
					if got[i].Get(k) != v {
						t.Errorf("record %d field %s: got %q, want %q", i, k, got[i].Get(k), v)
					}
				}
			}
		})
	}
}

func TestParseCommandError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "message and detail",
			status:   400,
			body:     `{"error":400,"message":"Bad Request","detail":"input does not match any value of profile"}`,
			wantCode: 400,
			wantMsg:  "Bad Request: input does not match any value of profile",
		},
		{
			name:     "no such item",
			status:   404,
			body:     `{"error":404,"message":"Not Found"}`,
			wantCode: CodeNoSuchItem,
			wantMsg:  "Not Found",
		},
		{
			name:     "code from status",
			status:   500,
			body:     `{"message":"Internal Server Error"}`,
			wantCode: 500,
			wantMsg:  "Internal Server Error",
		},
		{
			name:     "plain text body",
			status:   502,
			body:     "upstream broken",
			wantCode: 502,
			wantMsg:  "upstream broken",
		},
		{
			name:     "empty body",
			status:   503,
			body:     "",
			wantCode: 503,
			wantMsg:  http.StatusText(503),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCommandError(tt.status, []byte(tt.body))
			if got.Code != tt.wantCode {
				t.Errorf("Code: got %d, want %d", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message: got %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestExecuteQuotingRoundTrip(t *testing.T) {
	srv := concentratortest.NewServer(t)
	id := srv.AddSecret("user42", "basic")
	c := acquire(t, srv)
	ctx := context.Background()

	const profile = "PLAN. S/60.00"
	if _, err := c.Execute(ctx, "/ppp/secret/set", Params{Arg(".id", id), Arg("profile", profile)}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	records, err := c.Execute(ctx, "/ppp/secret/print", Params{Query("name", "user42")})
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].Get("profile"); got != profile {
		t.Errorf("profile not byte-identical: got %q, want %q", got, profile)
	}

	// 値に引用符が付加されていないこと
	for _, cmd := range srv.Writes() {
		if !strings.Contains(string(cmd.Raw), `"profile":"PLAN. S/60.00"`) {
			t.Errorf("unexpected wire body: %s", cmd.Raw)
		}
	}
}

func TestExecuteQueryMatchesExactly(t *testing.T) {
	srv := concentratortest.NewServer(t)
	srv.AddSecret("user4", "basic")
	srv.AddSecret("user42", "basic")
	c := acquire(t, srv)

	records, err := c.Execute(context.Background(), "/ppp/secret/print", Params{Query("name", "user4")})
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if len(records) != 1 || records[0].Get("name") != "user4" {
		t.Errorf("unexpected records: %v", records)
	}

	cmds := srv.Commands()
	last := cmds[len(cmds)-1]
	var body map[string][]string
	if err := json.Unmarshal(last.Raw, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if q := body[".query"]; len(q) != 1 || q[0] != "name=user4" {
		t.Errorf("unexpected query: %v", q)
	}
}

func TestExecuteNoSuchItemIsEmpty(t *testing.T) {
	srv := concentratortest.NewServer(t)
	c := acquire(t, srv)

	srv.Fail("/ppp/active/remove", concentratortest.Fault{Status: 404, Message: "Not Found", Detail: "no such item"})
	records, err := c.Execute(context.Background(), "/ppp/active/remove", Params{Arg(".id", "*99")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil records, got %v", records)
	}
}

func TestExecuteEmptyPrint(t *testing.T) {
	srv := concentratortest.NewServer(t)
	c := acquire(t, srv)

	records, err := c.Execute(context.Background(), "/ppp/secret/print", Params{Query("name", "nobody")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestExecuteCommandError(t *testing.T) {
	srv := concentratortest.NewServer(t)
	c := acquire(t, srv)

	srv.Fail("/ppp/secret/set", concentratortest.Fault{Status: 400, Message: "Bad Request", Detail: "failure: already have such entry"})
	_, err := c.Execute(context.Background(), "/ppp/secret/set", Params{Arg(".id", "*1")})

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Code != 400 {
		t.Errorf("Code: got %d, want 400", cmdErr.Code)
	}
	if cmdErr.Message != "Bad Request: failure: already have such entry" {
		t.Errorf("Message: got %q", cmdErr.Message)
	}
}

func TestExecuteAuthErrorOnCommand(t *testing.T) {
	srv := concentratortest.NewServer(t)
	c := acquire(t, srv)

	srv.Fail("/ppp/secret/print", concentratortest.Fault{Status: 403, Message: "Forbidden"})
	_, err := c.Execute(context.Background(), "/ppp/secret/print", nil)

	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Kind != KindAuth {
		t.Fatalf("expected auth ConnectionError, got %v", err)
	}
}

func TestExecuteTimeoutDiscardsConn(t *testing.T) {
	srv := concentratortest.NewServer(t)
	c := acquire(t, srv)

	srv.Fail("/ppp/secret/print", concentratortest.Fault{Delay: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.Execute(ctx, "/ppp/secret/print", nil)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Kind != KindTimeout {
		t.Fatalf("expected timeout ConnectionError, got %v", err)
	}

	_, err = c.Execute(context.Background(), "/ppp/secret/print", nil)
	if !errors.Is(err, ErrConnDiscarded) {
		t.Errorf("expected ErrConnDiscarded, got %v", err)
	}
}

func TestExecuteAfterRelease(t *testing.T) {
	srv := concentratortest.NewServer(t)
	c := acquire(t, srv)

	c.Release()
	c.Release()

	_, err := c.Execute(context.Background(), "/ppp/secret/print", nil)
	if !errors.Is(err, ErrConnReleased) {
		t.Errorf("expected ErrConnReleased, got %v", err)
	}
}
