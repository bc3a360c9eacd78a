package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"TrackingCar/internal/cli/session"
)

type fixedSessions struct {
	s   session.Session
	err error
}

func (f fixedSessions) Save(session.Session) error      { return nil }
func (f fixedSessions) Load() (session.Session, error) { return f.s, f.err }
func (f fixedSessions) Clear() error                   { return nil }

func TestPrintVersion(t *testing.T) {
	cases := []struct {
		name  string
		store fixedSessions
		want  string
	}{
		{"logged in", fixedSessions{s: session.Session{Username: "mgr", Role: "manager"}}, "session: mgr (manager)"},
		{"no session", fixedSessions{err: session.ErrNoSession}, "session: none"},
		{"broken file", fixedSessions{err: errors.New("bad json")}, "session: unreadable: bad json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			printVersion(&buf, "http://localhost:8081", tc.store)
			out := buf.String()
			if !strings.Contains(out, "tccli dev") || !strings.Contains(out, "server: http://localhost:8081") {
				t.Fatalf("header missing: %q", out)
			}
			if !strings.Contains(out, tc.want) {
				t.Fatalf("expected %q in %q", tc.want, out)
			}
		})
	}
}
