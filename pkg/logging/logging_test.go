package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "zeit.log")
	log, closeFn, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.WithField("component", "test").Debug("hello")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "hello") || !strings.Contains(string(b), "component=test") {
		t.Fatalf("expected log line in file, got %q", string(b))
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Out: &buf, JSON: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("ready")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"msg":"ready"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestHookForwardsWarnings(t *testing.T) {
	var buf bytes.Buffer
	log, _, _ := New(Options{Out: &buf})
	hook := NewHook(1)
	log.AddHook(hook)

	log.Info("quiet")
	log.Warn("first")
	log.Error("dropped, buffer full")

	select {
	case r := <-hook.C():
		if r.Message != "first" || r.Level != logrus.WarnLevel {
			t.Fatalf("unexpected record %+v", r)
		}
	default:
		t.Fatalf("expected a forwarded record")
	}
	select {
	case r := <-hook.C():
		t.Fatalf("expected empty channel, got %+v", r)
	default:
	}
	if !strings.Contains(buf.String(), "dropped, buffer full") {
		t.Fatalf("dropped record should still reach the output")
	}
}
