package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"runtime"
	"testing"
)

// withTempConfig переопределяет пользовательские каталоги на время теста,
// чтобы файл сессии создавался в temp.
func withTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", dir)
	} else {
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
	return dir
}

// captureOut перенаправляет вывод команд в буфер.
func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := Out
	Out = buf
	t.Cleanup(func() { Out = prev })
	return buf
}

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
