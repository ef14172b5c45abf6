package quantaterm

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_SilentByDefault(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() must never return nil")
	}
	if l.Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should discard even error records")
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("atlas grown", "size", 2048)
	if !strings.Contains(buf.String(), "atlas grown") {
		t.Errorf("log output missing record: %q", buf.String())
	}

	SetLogger(nil)
	buf.Reset()
	Logger().Error("dropped")
	if buf.Len() != 0 {
		t.Error("nil restores the silent logger")
	}
}
