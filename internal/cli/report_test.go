package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getmemscope/memscope/pkg/errors"
)

func TestCollectInputs(t *testing.T) {
	opts := &reportOpts{
		goCSV:   "go.csv",
		rustCSV: "rust.csv",
		compare: []string{"Baseline:old.csv", "Patched:new.csv"},
	}

	inputs, err := collectInputs(opts)
	if err != nil {
		t.Fatalf("collectInputs() error = %v", err)
	}

	wantLabels := []string{"Go", "Rust", "Baseline", "Patched"}
	wantPaths := []string{"go.csv", "rust.csv", "old.csv", "new.csv"}
	if len(inputs) != len(wantLabels) {
		t.Fatalf("got %d inputs, want %d", len(inputs), len(wantLabels))
	}
	for i, in := range inputs {
		if in.Label != wantLabels[i] {
			t.Errorf("input %d label = %q, want %q", i, in.Label, wantLabels[i])
		}
		if in.Path != wantPaths[i] {
			t.Errorf("input %d path = %q, want %q", i, in.Path, wantPaths[i])
		}
	}
}

func TestCollectInputsCompareWithColonInPath(t *testing.T) {
	// Only the first colon separates label from path.
	inputs, err := collectInputs(&reportOpts{compare: []string{"CI:results:run1.csv"}})
	if err != nil {
		t.Fatalf("collectInputs() error = %v", err)
	}
	if inputs[0].Label != "CI" || inputs[0].Path != "results:run1.csv" {
		t.Errorf("got label=%q path=%q", inputs[0].Label, inputs[0].Path)
	}
}

func TestCollectInputsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts reportOpts
	}{
		{"no inputs", reportOpts{}},
		{"compare without colon", reportOpts{compare: []string{"results.csv"}}},
		{"compare empty label", reportOpts{compare: []string{":results.csv"}}},
		{"compare empty path", reportOpts{compare: []string{"Go:"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collectInputs(&tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestReportCommandRequiresOutput(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cmd := c.reportCommand()
	cmd.SetArgs([]string{"--go", "go.csv"})
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err == nil {
		t.Error("report without --output should fail")
	}
}

func TestReportCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "go.csv")
	writeTestCSV(t, input, `elapsed_sec,rss_bytes,heap_alloc_bytes
0,52428800,10485760
60,62914560,12582912
120,73400320,14680064
`)
	output := filepath.Join(dir, "report.html")

	c := New(io.Discard, LogInfo)
	cmd := c.reportCommand()
	cmd.SetArgs([]string{"--go", input, "-o", output, "-t", "Soak Test", "--no-cache"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "Memory Test Results - Soak Test") {
		t.Error("report missing title")
	}
	if !strings.Contains(html, "const GoT = [0,1,2];") {
		t.Error("report missing converted series")
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"report", "record", "analyze", "serve", "runs", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}
