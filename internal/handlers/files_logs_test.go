package handlers_test

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/service"
	"TrackingCar/internal/storage"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_Serve(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "viewer", model.RoleUser, true)
	token := e.token(t, "viewer")

	name, err := e.files.Save(context.Background(), storage.FolderUsers, "notes.txt", strings.NewReader("text"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "anonymous", path: "/api/files/cars/x.pdf", status: http.StatusUnauthorized},
		{name: "unknown folder", path: "/api/files/secrets/x.pdf", token: token, status: http.StatusNotFound},
		{name: "non-image in users", path: "/api/files/users/" + name, token: token, status: http.StatusBadRequest},
		{name: "missing file", path: "/api/files/cars/absent.pdf", token: token, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodGet, tt.path, tt.token, nil, "")
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestLog_AdminListsMutations(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "root", model.RoleAdmin, true)
	e.createUser(t, "mgr", model.RoleManager, true)
	root := e.token(t, "root")
	mgr := e.token(t, "mgr")

	rr := e.doJSON(t, http.MethodPost, "/api/locations", mgr, service.LocationInput{Name: "Depot"})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = e.doJSON(t, http.MethodPost, "/api/user/login", "", map[string]string{"username": "mgr", "password": "secret1"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = e.doJSON(t, http.MethodGet, "/api/locations", mgr, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// дожидаемся записи очереди
	require.NoError(t, e.sink.Close(context.Background()))

	rr = e.doJSON(t, http.MethodGet, "/api/logs", mgr, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.doJSON(t, http.MethodGet, "/api/logs?page_size=10", root, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var page service.Page[model.LogEntry]
	decode(t, rr, &page)
	require.Equal(t, int64(2), page.Total)

	paths := map[string]model.LogEntry{}
	for _, entry := range page.Items {
		paths[entry.Path] = entry
	}
	created, ok := paths["/api/locations"]
	require.True(t, ok)
	assert.Equal(t, "mgr", created.UserName)
	assert.Equal(t, http.StatusCreated, created.StatusCode)

	login, ok := paths["/api/user/login"]
	require.True(t, ok)
	assert.NotContains(t, login.Request, "secret1")
	assert.NotContains(t, login.Response, "refresh_token\":\"ey")

	rr = e.doJSON(t, http.MethodGet, "/api/logs?user=mgr", root, nil)
	decode(t, rr, &page)
	assert.Equal(t, int64(1), page.Total)
}
