package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/sample"
	"github.com/getmemscope/memscope/pkg/trend"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	jsonOut bool // print reports as JSON instead of tables
	noFail  bool // exit 0 even when a leak is detected
}

// fileAnalysis pairs a recording path with its trend report for JSON output.
type fileAnalysis struct {
	File   string       `json:"file"`
	Report trend.Report `json:"report"`
}

// analyzeCommand creates the analyze command for leak detection on recordings.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>...",
		Short: "Analyze recordings for leak-shaped memory growth",
		Long: `Analyze one or more memory recordings for leak-shaped growth.

A linear regression is fit to RSS over elapsed time. A recording is flagged
when RSS grows faster than 100 KB/min with a consistent fit (R² > 0.7), or
when the goroutine count at least doubles over the run.

The command exits with status 1 when any recording is flagged, so it can
gate CI jobs. Use --no-fail to report without failing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(args, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print reports as JSON")
	cmd.Flags().BoolVar(&opts.noFail, "no-fail", false, "exit 0 even when a leak is detected")

	return cmd
}

func (c *CLI) runAnalyze(paths []string, opts *analyzeOpts) error {
	analyses := make([]fileAnalysis, 0, len(paths))
	leaks := 0

	for _, path := range paths {
		samples, err := sample.ReadCSVFile(path)
		if err != nil {
			return err
		}
		rep := trend.Analyze(samples)
		if rep.LeakDetected {
			leaks++
		}
		analyses = append(analyses, fileAnalysis{File: path, Report: rep})
		if !opts.jsonOut {
			printAnalysis(path, samples, rep)
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analyses); err != nil {
			return err
		}
	}

	if leaks > 0 && !opts.noFail {
		return errors.New(errors.ErrCodeLeakDetected, "leak detected in %d of %d recordings", leaks, len(analyses))
	}
	return nil
}

// printAnalysis renders the per-sample table, the summary table, and the
// verdict for one recording.
func printAnalysis(path string, samples []sample.Sample, rep trend.Report) {
	fmt.Println(StyleTitle.Render(path))

	if rep.SampleCount < 2 {
		printWarning("not enough samples to analyze (%d)", rep.SampleCount)
		fmt.Println()
		return
	}

	st := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Time(min)", "RSS", "Heap", "Delta", "Rate KB/min", "Goroutines").
		Rows(sampleRows(samples)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader.Padding(0, 1)
			}
			return styleTableCell
		})
	fmt.Println(st.Render())

	rows := [][]string{
		{"Samples", fmt.Sprintf("%d", rep.SampleCount)},
		{"Duration", fmt.Sprintf("%.1f min", rep.DurationMinutes)},
		{"RSS", fmt.Sprintf("%.1f MB → %.1f MB (max %.1f)", rep.StartRSSMB, rep.EndRSSMB, rep.MaxRSSMB)},
		{"Heap", fmt.Sprintf("%.2f MB → %.2f MB (max %.2f)", rep.StartHeapMB, rep.EndHeapMB, rep.MaxHeapMB)},
		{"Slope", fmt.Sprintf("%.1f KB/min (R² %.2f)", rep.SlopeKBPerMin, rep.RSquared)},
	}
	if rep.GoroutineMax > 0 {
		rows = append(rows, []string{"Goroutines",
			fmt.Sprintf("%d → %d (max %d)", rep.GoroutineStart, rep.GoroutineEnd, rep.GoroutineMax)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return styleTableHeader.Padding(0, 1)
			}
			return styleTableCell
		})
	fmt.Println(t.Render())

	fmt.Println(verdictLine(rep.LeakDetected, rep.LeakDescription))
	fmt.Println()
}

// sampleRows builds the per-sample rows: elapsed minutes, RSS, heap, RSS
// delta and instantaneous growth rate against the previous sample, and the
// goroutine count.
func sampleRows(samples []sample.Sample) [][]string {
	rows := make([][]string, 0, len(samples))
	var prev sample.Sample
	for i, s := range samples {
		delta, rate := "-", "-"
		if i > 0 {
			d := int64(s.RSSBytes) - int64(prev.RSSBytes)
			delta = fmt.Sprintf("%+.1f MB", float64(d)/(1024*1024))
			if dt := s.Minutes() - prev.Minutes(); dt > 0 {
				rate = fmt.Sprintf("%+.0f", float64(d)/1024/dt)
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%.1f", s.Minutes()),
			fmt.Sprintf("%.2f MB", s.RSSMB()),
			fmt.Sprintf("%.2f MB", s.HeapMB()),
			delta,
			rate,
			fmt.Sprintf("%d", s.Goroutines),
		})
		prev = s
	}
	return rows
}
