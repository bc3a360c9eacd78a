package api

import (
	"TrackingCar/internal/cli/session"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Envelope — общий формат ответа сервера.
type Envelope struct {
	IsSuccess     bool            `json:"isSuccess"`
	StatusCode    int             `json:"statusCode"`
	ErrorMessages []string        `json:"errorMessages"`
	Result        json.RawMessage `json:"result"`
}

// Page — страница списка.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
}

// Error — неуспешный ответ сервера.
type Error struct {
	Status   int
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("server status %d", e.Status)
	}
	return fmt.Sprintf("server status %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// StatusOf возвращает HTTP-статус ошибки сервера или 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// FormFile — файл для multipart-запроса: поле формы и путь на диске.
type FormFile struct {
	Field string
	Path  string
}

// TokenPair — ответ входа и обновления токенов.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

// Client — HTTP-клиент API. При 401 один раз обновляет токены и повторяет запрос.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions session.Store
}

func NewClient(baseURL string, sessions session.Store) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 60 * time.Second},
		sessions: sessions,
	}
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
}

// Login входит и сохраняет сессию.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	b, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return session.Session{}, err
	}
	var pair TokenPair
	err = c.send(ctx, request{method: http.MethodPost, path: "/api/user/login", body: b, contentType: "application/json"}, &pair)
	if err != nil {
		return session.Session{}, err
	}
	return c.persist(pair)
}

// Logout завершает сессию на сервере и удаляет локальную.
func (c *Client) Logout(ctx context.Context) error {
	err := c.PostJSON(ctx, "/api/user/logout", struct{}{}, nil)
	if clearErr := c.sessions.Clear(); clearErr != nil {
		return clearErr
	}
	if err != nil && StatusOf(err) != http.StatusUnauthorized {
		return err
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.send(ctx, request{method: http.MethodGet, path: path, auth: true}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, request{method: http.MethodDelete, path: path, auth: true}, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, payload, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, payload, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.send(ctx, request{method: method, path: path, body: b, contentType: "application/json", auth: true}, out)
}

// PostMultipart отправляет поля и файлы формой multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []FormFile, out any) error {
	return c.sendMultipart(ctx, http.MethodPost, path, fields, files, out)
}

func (c *Client) PutMultipart(ctx context.Context, path string, fields map[string]string, files []FormFile, out any) error {
	return c.sendMultipart(ctx, http.MethodPut, path, fields, files, out)
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, files []FormFile, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		if err := attachFile(mw, f); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.send(ctx, request{method: method, path: path, body: buf.Bytes(), contentType: mw.FormDataContentType(), auth: true}, out)
}

func attachFile(mw *multipart.Writer, f FormFile) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := mw.CreateFormFile(f.Field, filepath.Base(f.Path))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	sess, err := c.sessions.Load()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return err
	}
	env, status, err := c.do(ctx, req, sess.AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && req.auth && sess.RefreshToken != "" {
		fresh, refreshErr := c.refresh(ctx, sess.RefreshToken)
		if refreshErr != nil {
			return fmt.Errorf("session expired, please login again: %w", refreshErr)
		}
		if env, status, err = c.do(ctx, req, fresh.AccessToken); err != nil {
			return err
		}
	}
	return decodeResult(env, status, out)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (session.Session, error) {
	b, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return session.Session{}, err
	}
	env, status, err := c.do(ctx, request{method: http.MethodPost, path: "/api/user/refresh", body: b, contentType: "application/json"}, "")
	if err != nil {
		return session.Session{}, err
	}
	var pair TokenPair
	if err := decodeResult(env, status, &pair); err != nil {
		return session.Session{}, err
	}
	return c.persist(pair)
}

func (c *Client) persist(pair TokenPair) (session.Session, error) {
	s := session.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.User.ID,
		Username:     pair.User.Username,
		Role:         pair.User.Role,
	}
	if err := c.sessions.Save(s); err != nil {
		return session.Session{}, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, req request, token string) (Envelope, int, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return Envelope{}, 0, err
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Envelope{}, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, resp.StatusCode, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// ответ не в формате API, например от прокси
		env = Envelope{StatusCode: resp.StatusCode}
		if text := strings.TrimSpace(string(raw)); text != "" {
			env.ErrorMessages = []string{text}
		}
	}
	return env, resp.StatusCode, nil
}

func decodeResult(env Envelope, status int, out any) error {
	if status < 200 || status >= 300 || !env.IsSuccess {
		return &Error{Status: status, Messages: env.ErrorMessages}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	return json.Unmarshal(env.Result, out)
}
