package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitAndLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	if err := Init(logPath, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Info("session started: %s", "sess-1")
	Debug("hidden at info level")
	Warn("something odd")
	Error("something broke")

	Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "session started: sess-1") {
		t.Errorf("log missing info line: %q", content)
	}
	if strings.Contains(content, "hidden at info level") {
		t.Error("debug line present without verbose")
	}
	if !strings.Contains(content, "something broke") {
		t.Errorf("log missing error line: %q", content)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	if err := Init(logPath, true); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Debug("poll attempt %d", 3)
	Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "poll attempt 3") {
		t.Errorf("debug line missing with verbose: %q", data)
	}
}

func TestLogWithoutInitIsNoop(t *testing.T) {
	Close()
	// Must not panic
	Info("nowhere to go")
	Error("still nowhere")
}
