// Package concentratortest はテスト用のインメモリなコンセントレータREST APIを提供する。
package concentratortest

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
)

// テスト用の認証情報とポリシー値
const (
	User          = "api-user"
	Password      = "api-pass"
	Identity      = "test-router"
	NormalProfile = "PLAN. S/60.00"
	CutProfile    = "CORTE"
	CutPool       = "pool-cut"
)

// メニューパス
const (
	MenuSecret   = "/ppp/secret"
	MenuActive   = "/ppp/active"
	MenuProfile  = "/ppp/profile"
	MenuPool     = "/ip/pool"
	MenuLease    = "/ip/dhcp-server/lease"
	MenuIdentity = "/system/identity"
)

// Command は受信したコマンドの記録。
type Command struct {
	Path string
	Body map[string]any
	Raw  []byte
}

// IsWrite は状態を変更するコマンドかどうかを返す。
func (c Command) IsWrite() bool {
	return strings.HasSuffix(c.Path, "/set") ||
		strings.HasSuffix(c.Path, "/add") ||
		strings.HasSuffix(c.Path, "/remove")
}

// Fault は1回分の異常応答。
type Fault struct {
	Status  int
	Message string
	Detail  string
	// Delay の間応答を保留する
	Delay time.Duration
}

// Server はインメモリのコンセントレータ。
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	menus    map[string][]map[string]string
	nextID   int
	commands []Command
	faults   map[string][]Fault
}

// NewServer はテストサーバーを起動する。テスト終了時に停止する。
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		menus:  make(map[string][]map[string]string),
		faults: make(map[string][]Fault),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// NewTLSServer はTLSのテストサーバーを起動する。
func NewTLSServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		menus:  make(map[string][]map[string]string),
		faults: make(map[string][]Fault),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Config はこのサーバーに接続する設定を返す。
func (s *Server) Config() *config.Config {
	u := strings.TrimPrefix(strings.TrimPrefix(s.URL, "http://"), "https://")
	host, portStr, _ := net.SplitHostPort(u)
	port, _ := strconv.Atoi(portStr)
	return &config.Config{
		RouterHost:           host,
		RouterPort:           port,
		RouterUser:           User,
		RouterPass:           Password,
		RouterTLS:            strings.HasPrefix(s.URL, "https://"),
		RouterInsecureTLS:    true,
		RouterTimeoutSeconds: 2,
		ProfileNormal:        NormalProfile,
		ProfileCut:           CutProfile,
		PoolCut:              CutPool,
		SessionTermination:   config.TerminationAPI,
		LogLevel:             "DEBUG",
	}
}

// Seed は標準的なプロファイルとプールを登録する。
func (s *Server) Seed() {
	s.AddProfile(NormalProfile)
	s.AddProfile(CutProfile)
	s.AddPool(CutPool)
}

// AddItem はメニューに項目を追加し、.idを返す。
func (s *Server) AddItem(menu string, fields map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("*%X", s.nextID)
	item := map[string]string{".id": id}
	for k, v := range fields {
		item[k] = v
	}
	s.menus[menu] = append(s.menus[menu], item)
	return id
}

// AddSecret はPPPシークレットを追加する。
func (s *Server) AddSecret(name, profile string) string {
	return s.AddItem(MenuSecret, map[string]string{
		"name":     name,
		"profile":  profile,
		"service":  "pppoe",
		"disabled": "false",
	})
}

// AddActive はアクティブセッションを追加する。
func (s *Server) AddActive(name, address string) string {
	return s.AddItem(MenuActive, map[string]string{
		"name":       name,
		"address":    address,
		"caller-id":  "AA:BB:CC:00:00:01",
		"session-id": "0x81A0000" + strconv.Itoa(len(name)),
		"uptime":     "1h2m3s",
	})
}

// AddProfile はPPPプロファイルを追加する。
func (s *Server) AddProfile(name string) string {
	return s.AddItem(MenuProfile, map[string]string{"name": name})
}

// AddPool はIPプールを追加する。
func (s *Server) AddPool(name string) string {
	return s.AddItem(MenuPool, map[string]string{"name": name, "ranges": "10.99.0.2-10.99.0.254"})
}

// AddLease はDHCPリースを追加する。
func (s *Server) AddLease(mac, address string) string {
	return s.AddItem(MenuLease, map[string]string{
		"mac-address":    mac,
		"address":        address,
		"active-address": "192.168.88.10",
		"server":         "dhcp1",
	})
}

// Item は項目のコピーを返す。存在しない場合はnil。
func (s *Server) Item(menu, id string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.menus[menu] {
		if item[".id"] == id {
			return copyItem(item)
		}
	}
	return nil
}

// Count はメニューの項目数を返す。
func (s *Server) Count(menu string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.menus[menu])
}

// Commands は受信したコマンドを順に返す。
func (s *Server) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Writes は受信した書き込みコマンドを返す。
func (s *Server) Writes() []Command {
	var out []Command
	for _, c := range s.Commands() {
		if c.IsWrite() {
			out = append(out, c)
		}
	}
	return out
}

// ResetCommands はコマンド記録を消去する。
func (s *Server) ResetCommands() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
}

// Fail はpathへの次の1リクエストにfを適用する。
func (s *Server) Fail(path string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], f)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != User || pass != Password {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, config.RESTPathPrefix+"/") {
		writeError(w, http.StatusBadRequest, "Bad Request", "no such command")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, config.RESTPathPrefix)
	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	s.mu.Lock()
	s.commands = append(s.commands, Command{Path: path, Body: body, Raw: raw})
	var fault *Fault
	if q := s.faults[path]; len(q) > 0 {
		f := q[0]
		fault = &f
		s.faults[path] = q[1:]
	}
	s.mu.Unlock()

	if fault != nil {
		if fault.Delay > 0 {
			select {
			case <-time.After(fault.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if fault.Status != 0 {
			writeError(w, fault.Status, fault.Message, fault.Detail)
			return
		}
	}

	idx := strings.LastIndex(path, "/")
	menu, verb := path[:idx], path[idx+1:]

	switch verb {
	case "print":
		writeJSON(w, http.StatusOK, s.print(menu, body))
	case "set":
		if !s.set(menu, body) {
			writeError(w, http.StatusNotFound, "Not Found", "no such item")
			return
		}
		writeJSON(w, http.StatusOK, []map[string]string{})
	case "remove":
		if !s.remove(menu, body) {
			writeError(w, http.StatusNotFound, "Not Found", "no such item")
			return
		}
		writeJSON(w, http.StatusOK, []map[string]string{})
	default:
		writeError(w, http.StatusBadRequest, "Bad Request", "no such command")
	}
}

func (s *Server) print(menu string, body map[string]any) []map[string]string {
	if menu == MenuIdentity {
		return []map[string]string{{"name": Identity}}
	}

	var words []string
	if q, ok := body[".query"].([]any); ok {
		for _, w := range q {
			if str, ok := w.(string); ok {
				words = append(words, str)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]string{}
	for _, item := range s.menus[menu] {
		if matches(item, words) {
			out = append(out, copyItem(item))
		}
	}
	return out
}

func (s *Server) set(menu string, body map[string]any) bool {
	id, _ := body[".id"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.menus[menu] {
		if item[".id"] != id {
			continue
		}
		for k, v := range body {
			if k == ".id" {
				continue
			}
			if str, ok := v.(string); ok {
				item[k] = str
			}
		}
		return true
	}
	return false
}

func (s *Server) remove(menu string, body map[string]any) bool {
	id, _ := body[".id"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.menus[menu]
	for i, item := range items {
		if item[".id"] == id {
			s.menus[menu] = append(items[:i], items[i+1:]...)
			return true
		}
	}
	return false
}

func matches(item map[string]string, words []string) bool {
	for _, w := range words {
		k, v, ok := strings.Cut(w, "=")
		if !ok || item[k] != v {
			return false
		}
	}
	return true
}

func copyItem(item map[string]string) map[string]string {
	out := make(map[string]string, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	body := map[string]any{"error": status, "message": message}
	if detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}
