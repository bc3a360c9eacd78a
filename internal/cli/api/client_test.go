package api

import (
	"TrackingCar/internal/cli/session"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memSessions struct {
	s       session.Session
	has     bool
	cleared bool
}

func (m *memSessions) Save(s session.Session) error { m.s, m.has = s, true; return nil }
func (m *memSessions) Load() (session.Session, error) {
	if !m.has {
		return session.Session{}, session.ErrNoSession
	}
	return m.s, nil
}
func (m *memSessions) Clear() error { m.s, m.has, m.cleared = session.Session{}, false, true; return nil }

func writeEnvelope(w http.ResponseWriter, status int, result any, msgs ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if msgs == nil {
		msgs = []string{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"isSuccess":     status < 300,
		"statusCode":    status,
		"errorMessages": msgs,
		"result":        result,
	})
}

func pairResult(access, refresh string) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          map[string]any{"id": "u1", "username": "alice", "role": "manager"},
	}
}

func TestClient_LoginPersistsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/login" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var m map[string]string
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		if m["username"] != "alice" || m["password"] != "secret1" {
			t.Fatalf("unexpected payload: %#v", m)
		}
		writeEnvelope(w, http.StatusOK, pairResult("a1", "r1"))
	}))
	defer ts.Close()

	store := &memSessions{}
	sess, err := NewClient(ts.URL+"/", store).Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccessToken != "a1" || sess.RefreshToken != "r1" || sess.Username != "alice" || sess.Role != "manager" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if store.s != sess {
		t.Fatalf("session not persisted")
	}
}

func TestClient_RefreshesOnceOnUnauthorized(t *testing.T) {
	refreshCalls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/refresh":
			refreshCalls++
			var m map[string]string
			_ = json.NewDecoder(r.Body).Decode(&m)
			if m["refresh_token"] != "r-old" {
				writeEnvelope(w, http.StatusUnauthorized, nil, "token invalid")
				return
			}
			writeEnvelope(w, http.StatusOK, pairResult("a-new", "r-new"))
		case "/api/cars":
			if r.Header.Get("Authorization") != "Bearer a-new" {
				writeEnvelope(w, http.StatusUnauthorized, nil, "unauthorized")
				return
			}
			writeEnvelope(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	store := &memSessions{s: session.Session{AccessToken: "a-old", RefreshToken: "r-old"}, has: true}
	var page Page[map[string]any]
	if err := NewClient(ts.URL, store).Get(context.Background(), "/api/cars", &page); err != nil {
		t.Fatalf("get: %v", err)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected one refresh, got %d", refreshCalls)
	}
	if store.s.AccessToken != "a-new" || store.s.RefreshToken != "r-new" {
		t.Fatalf("rotated tokens not saved: %+v", store.s)
	}

	// отозванный refresh-токен: ошибка с предложением войти заново
	store.s = session.Session{AccessToken: "a-old", RefreshToken: "r-revoked"}
	err := NewClient(ts.URL, store).Get(context.Background(), "/api/cars", &page)
	if err == nil || !strings.Contains(err.Error(), "login again") {
		t.Fatalf("expected session expired error, got %v", err)
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, nil, `plate number "A" already exists`)
	}))
	defer ts.Close()

	err := NewClient(ts.URL, &memSessions{}).PostJSON(context.Background(), "/api/cars", []any{}, nil)
	if StatusOf(err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("message lost: %v", err)
	}

	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer plain.Close()
	err = NewClient(plain.URL, &memSessions{}).Get(context.Background(), "/x", nil)
	if StatusOf(err) != http.StatusBadGateway || !strings.Contains(err.Error(), "bad gateway") {
		t.Fatalf("non-API body must be reported, got %v", err)
	}
}

func TestClient_PostMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annual.pdf")
	if err := os.WriteFile(path, []byte("pdf-bytes"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("cars") != `[{"plate_number":"A"}]` {
			t.Fatalf("unexpected field: %q", r.FormValue("cars"))
		}
		f, fh, err := r.FormFile("annual[0]")
		if err != nil {
			t.Fatalf("file missing: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if fh.Filename != "annual.pdf" || string(data) != "pdf-bytes" {
			t.Fatalf("unexpected file %q: %q", fh.Filename, data)
		}
		writeEnvelope(w, http.StatusCreated, []any{map[string]any{"id": "c1"}})
	}))
	defer ts.Close()

	var out []map[string]any
	err := NewClient(ts.URL, &memSessions{}).PostMultipart(context.Background(), "/api/cars",
		map[string]string{"cars": `[{"plate_number":"A"}]`},
		[]FormFile{{Field: "annual[0]", Path: path}}, &out)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(out) != 1 || out[0]["id"] != "c1" {
		t.Fatalf("unexpected result: %#v", out)
	}

	err = NewClient(ts.URL, &memSessions{}).PostMultipart(context.Background(), "/api/cars", nil,
		[]FormFile{{Field: "annual[0]", Path: filepath.Join(dir, "missing.pdf")}}, nil)
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestClient_LogoutClearsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "unauthorized")
	}))
	defer ts.Close()

	store := &memSessions{s: session.Session{AccessToken: "a"}, has: true}
	if err := NewClient(ts.URL, store).Logout(context.Background()); err != nil {
		t.Fatalf("logout with expired session must succeed locally: %v", err)
	}
	if !store.cleared {
		t.Fatalf("session not cleared")
	}
}
