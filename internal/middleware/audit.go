package middleware

import (
	"TrackingCar/internal/audit"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// предел захватываемого тела запроса/ответа
const auditCapture = 4096

// секретные поля, которые не попадают в журнал
var redactedKeys = map[string]bool{
	"password":      true,
	"access_token":  true,
	"refresh_token": true,
}

type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

type teeBody struct {
	io.Reader
	io.Closer
}

type auditResponseWriter struct {
	http.ResponseWriter
	status int
	body   *limitedBuffer
}

func (w *auditResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	_, _ = w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// WithAudit пишет изменяющие запросы в журнал аудита: метод, путь, тела, статус, автора и IP.
// Журнал асинхронный, ошибки записи на ответ не влияют.
func WithAudit(sink audit.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			reqBuf := &limitedBuffer{limit: auditCapture}
			isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
			if isJSON && r.Body != nil {
				r.Body = teeBody{Reader: io.TeeReader(r.Body, reqBuf), Closer: r.Body}
			}

			aw := &auditResponseWriter{ResponseWriter: w, status: http.StatusOK, body: &limitedBuffer{limit: auditCapture}}
			next.ServeHTTP(aw, r)

			request := ""
			if isJSON {
				request = redact(reqBuf.buf.Bytes())
			} else if r.ContentLength > 0 {
				request = fmt.Sprintf("%s; %d bytes", r.Header.Get("Content-Type"), r.ContentLength)
			}

			userName := ""
			if id, ok := GetIdentity(r.Context()); ok {
				userName = id.Username
			}
			sink.Log(audit.Entry{
				ActionType: r.Method,
				Path:       r.URL.Path,
				Request:    request,
				Response:   redact(aw.body.buf.Bytes()),
				StatusCode: aw.status,
				UserName:   userName,
				IP:         clientIP(r),
			})
		})
	}
}

// redact заменяет значения секретных полей в JSON. Не-JSON возвращается как есть.
func redact(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return string(data)
	}
	return string(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if redactedKeys[strings.ToLower(k)] {
				t[k] = "***"
				continue
			}
			t[k] = redactValue(val)
		}
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
	}
	return v
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
