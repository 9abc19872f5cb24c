package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAppLoggerWithConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, true)
	if logger == nil {
		t.Fatal("logger should not be nil")
	}
	if !logger.debug {
		t.Error("debug mode should be true")
	}
	if logger.fileHandle != nil {
		t.Error("external writer should not hold a file handle")
	}
}

func TestAppLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		message   string
		expectLog bool
	}{
		{"debug mode writes", true, "debug message", true},
		{"release mode drops", false, "should not appear", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAppLoggerWithConfig(&buf, tt.debugMode)
			logger.Debug(tt.message)
			output := buf.String()
			hasLog := strings.Contains(output, tt.message)
			if hasLog != tt.expectLog {
				t.Errorf("expected log=%v, got %v", tt.expectLog, hasLog)
			}
			if tt.expectLog && !strings.Contains(output, "[DEBUG]") {
				t.Error("debug line should carry [DEBUG]")
			}
		})
	}
}

func TestAppLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		log    func(l *AppLogger)
		prefix string
		text   string
	}{
		{"info", func(l *AppLogger) { l.Info("fetched %d models", 3) }, "[INFO]", "fetched 3 models"},
		{"warn", func(l *AppLogger) { l.Warn("slow upstream: %s", "2s") }, "[WARN]", "slow upstream: 2s"},
		{"error", func(l *AppLogger) { l.Error("fetch failed: %v", "refused") }, "[ERROR]", "fetch failed: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAppLoggerWithConfig(&buf, false)
			tt.log(logger)
			output := buf.String()
			if !strings.Contains(output, tt.prefix) {
				t.Errorf("output %q should contain %s", output, tt.prefix)
			}
			if !strings.Contains(output, tt.text) {
				t.Errorf("output %q should contain formatted message", output)
			}
		})
	}
}

func TestAppLogger_NilSafety(t *testing.T) {
	var logger *AppLogger
	logger.Debug("no panic")
	logger.Info("no panic")
	logger.Warn("no panic")
	logger.Error("no panic")
	if err := logger.Close(); err != nil {
		t.Errorf("closing nil logger should not fail: %v", err)
	}
}

func TestAppLogger_Close(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, false)
	if err := logger.Close(); err != nil {
		t.Errorf("close should not fail: %v", err)
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"plain path", "/var/log/app.log", false},
		{"parent in middle", "/var/../etc/passwd", true},
		{"leading parent", "../secret.txt", true},
		{"current dir", "./local.log", false},
		{"windows parent", "..\\config.ini", true},
		{"empty", "", false},
		{"dotted file name", "/var/log/app.2024.log", false},
		{"double dot inside name", "/var/log/app..log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsPathTraversal(tt.path); got != tt.expected {
				t.Errorf("containsPathTraversal(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestIsDebug(t *testing.T) {
	tests := []struct {
		name     string
		ginMode  string
		expected bool
	}{
		{"debug", "debug", true},
		{"release", "release", false},
		{"test", "test", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GIN_MODE", tt.ginMode)
			if got := IsDebug(); got != tt.expected {
				t.Errorf("IsDebug() = %v, want %v (GIN_MODE=%s)", got, tt.expected, tt.ginMode)
			}
		})
	}
}

func TestCreateLogger_DebugFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	t.Setenv("DEBUG_FILE", path)
	t.Setenv("GIN_MODE", "release")

	logger := CreateLogger()
	appLog, ok := logger.(*AppLogger)
	if !ok {
		t.Fatalf("expected *AppLogger, got %T", logger)
	}
	appLog.Info("written to file")
	if err := appLog.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("debug file should contain the entry, got %q", string(data))
	}
}

func TestAppLogger_MultipleWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, true)
	logger.Debug("first")
	logger.Info("second")
	logger.Warn("third")
	logger.Error("fourth")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
}
