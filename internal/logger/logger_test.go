package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fileLogger points the global logger at a file the way terrainctl does with
// TERRAINCTL_LOG, and restores the no-op logger afterwards.
func fileLogger(t *testing.T, level string, cfg FileConfig) {
	t.Helper()
	if err := InitWithFileConfig(level, cfg, false); err != nil {
		t.Fatalf("InitWithFileConfig: %v", err)
	}
	t.Cleanup(func() {
		Sync()
		Log = zap.NewNop()
		Sugar = Log.Sugar()
	})
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestStorageEntriesReachLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrainctl.log")
	fileLogger(t, "debug", DefaultFileConfig(path))

	Named("terrain").Debug("added region", zap.Int32("x", 1), zap.Int32("y", -2), zap.Int("index", 1))
	Named("terrain").Info("updating height maps", zap.Int("regions", 2))
	Named("project").Info("project saved", zap.String("dir", "world"))

	out := readLog(t, path)
	for _, want := range []string{
		"terrain", "added region", "index",
		"updating height maps", "project", "project saved",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log file lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("file output should not carry color codes")
	}
}

func TestLevelFiltersRebuildChatter(t *testing.T) {
	tests := []struct {
		level   string
		present []string
		absent  []string
	}{
		{"debug", []string{"added region", "updating region map", "shader compile failed"}, nil},
		{"info", []string{"updating region map", "shader compile failed"}, []string{"added region"}},
		{"warn", []string{"shader compile failed"}, []string{"added region", "updating region map"}},
		{"error", []string{"shader compile failed"}, []string{"updating region map", "texture missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.level+".log")
			fileLogger(t, tt.level, FileConfig{Path: path, MaxSizeMB: 1})

			Named("terrain").Debug("added region")
			Named("terrain").Info("updating region map")
			Named("project").Warn("texture missing")
			Named("gl").Error("shader compile failed")

			out := readLog(t, path)
			for _, want := range tt.present {
				if !strings.Contains(out, want) {
					t.Errorf("level %s: missing %q", tt.level, want)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(out, unwanted) {
					t.Errorf("level %s: unexpected %q", tt.level, unwanted)
				}
			}
		})
	}
}

func TestLogFileRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terrainview.log")
	fileLogger(t, "info", FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2})

	// Roughly 2MB of rebuild entries crosses the 1MB limit.
	log := Named("terrain")
	detail := strings.Repeat("r", 256)
	for i := 0; i < 5000; i++ {
		log.Info("updating control maps", zap.Int("pass", i), zap.String("detail", detail))
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var backups int
	for _, e := range entries {
		name := e.Name()
		if name != "terrainview.log" && strings.HasPrefix(name, "terrainview-") && strings.HasSuffix(name, ".log") {
			backups++
		}
	}
	if backups == 0 {
		t.Errorf("no rotated backup next to %s: %v", path, entries)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	got := DefaultFileConfig("terrainctl.log")
	want := FileConfig{Path: "terrainctl.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if got != want {
		t.Errorf("DefaultFileConfig = %+v, want %+v", got, want)
	}
}

func TestLoggingBeforeInit(t *testing.T) {
	Log = zap.NewNop()
	Sugar = Log.Sugar()

	// Storage code logs through Named loggers created before any Init.
	early := Named("terrain")
	early.Info("updating albedo texture array")
	Debug("no output configured")
	Sync()
}

func TestNoOutputsGivesNop(t *testing.T) {
	fileLogger(t, "debug", FileConfig{})
	if Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger without console or file should discard everything")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
