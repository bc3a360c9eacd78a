package middleware

import (
	"TrackingCar/internal/audit"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *captureSink) Log(e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func TestWithAudit_RecordsMutationsWithRedaction(t *testing.T) {
	sink := &captureSink{}
	h := WithAudit(sink)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = http.MaxBytesReader(w, r.Body, 1<<20).Read(make([]byte, 1024))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":{"refresh_token":"abc","id":"1"}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(`{"username":"a","password":"p"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "1", Username: "alice"}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.entries, 1)
	e := sink.entries[0]
	assert.Equal(t, "POST", e.ActionType)
	assert.Equal(t, "/api/user/login", e.Path)
	assert.Equal(t, http.StatusCreated, e.StatusCode)
	assert.Equal(t, "alice", e.UserName)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.NotContains(t, e.Request, `"p"`)
	assert.Contains(t, e.Request, `"username":"a"`)
	assert.NotContains(t, e.Response, "abc")
	assert.Contains(t, e.Response, `"id":"1"`)
}

func TestWithAudit_SkipsReads(t *testing.T) {
	sink := &captureSink{}
	h := WithAudit(sink)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cars", nil))
	assert.Empty(t, sink.entries)
}
