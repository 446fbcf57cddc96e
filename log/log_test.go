package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initTestLog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetDir(dir)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(Close)
	return dir
}

func TestResolveDirPriority(t *testing.T) {
	t.Setenv("TSUYAKU_LOG_PATH", "/env/path")

	got, err := ResolveDir("/flag/path")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/flag/path" {
		t.Fatalf("flag should win: got %q", got)
	}

	got, err = ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/env/path" {
		t.Fatalf("env should win over default: got %q", got)
	}
}

func TestResolveDirRelativeFlag(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("relative flag not resolved: %q", got)
	}
}

func TestDiagnosticsWritten(t *testing.T) {
	dir := initTestLog(t)

	Info("pipeline started")
	Warnf("dropped %d events", 3)

	data, err := os.ReadFile(filepath.Join(dir, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pipeline started") {
		t.Fatal("info line missing from diagnostics log")
	}
	if !strings.Contains(string(data), "dropped 3 events") {
		t.Fatal("warn line missing from diagnostics log")
	}
}

func TestTranscriptWritten(t *testing.T) {
	dir := initTestLog(t)

	SegmentText(1, "こんにちは")
	TranslationText(1, "hello")

	data, err := os.ReadFile(filepath.Join(dir, "transcript_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "seg#1\tこんにちは") {
		t.Fatalf("segment line missing: %q", s)
	}
	if !strings.Contains(s, "tr#1\thello") {
		t.Fatalf("translation line missing: %q", s)
	}
}

func TestWritesIgnoredBeforeInit(t *testing.T) {
	Close()
	// Must not panic with no open files.
	Info("nobody home")
	SegmentText(1, "x")
	Repair(1)
}
