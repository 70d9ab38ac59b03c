package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/getmemscope/memscope/pkg/errors"
)

func TestRecordCommandFlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command without --self", []string{}},
		{"--self with command", []string{"--self", "--", "sleep", "1"}},
		{"--heap-dump without --self", []string{"--heap-dump", "heap.out", "--", "sleep", "1"}},
		{"--pprof without --self", []string{"--pprof", "localhost:6060", "--", "sleep", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, LogInfo)
			cmd := c.recordCommand()
			cmd.SetArgs(tt.args)
			cmd.SilenceErrors = true

			if err := cmd.Execute(); err == nil {
				t.Error("expected a flag validation error")
			}
		})
	}
}

func TestRunAnalyze(t *testing.T) {
	dir := t.TempDir()

	steady := filepath.Join(dir, "steady.csv")
	writeTestCSV(t, steady, `elapsed_sec,rss_bytes,heap_alloc_bytes
0,52428800,10485760
60,52430848,10485760
120,52428800,10485760
`)

	leaky := filepath.Join(dir, "leaky.csv")
	writeTestCSV(t, leaky, `elapsed_sec,rss_bytes,heap_alloc_bytes
0,52428800,10485760
60,83886080,10485760
120,115343360,10485760
180,146800640,10485760
`)

	c := New(io.Discard, LogInfo)

	if err := c.runAnalyze([]string{steady}, &analyzeOpts{}); err != nil {
		t.Errorf("steady recording should pass: %v", err)
	}

	if err := c.runAnalyze([]string{steady, leaky}, &analyzeOpts{}); !errors.Is(err, errors.ErrCodeLeakDetected) {
		t.Errorf("leaky recording should fail with %s, got %v", errors.ErrCodeLeakDetected, err)
	}

	if err := c.runAnalyze([]string{leaky}, &analyzeOpts{noFail: true}); err != nil {
		t.Errorf("--no-fail should suppress the failure: %v", err)
	}

	if err := c.runAnalyze([]string{leaky}, &analyzeOpts{jsonOut: true, noFail: true}); err != nil {
		t.Errorf("--json output should succeed: %v", err)
	}

	if err := c.runAnalyze([]string{filepath.Join(dir, "missing.csv")}, &analyzeOpts{}); err == nil {
		t.Error("missing file should fail")
	}
}

func writeTestCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}
