package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/observability"
	"github.com/getmemscope/memscope/pkg/pipeline"
)

// reportOpts holds the command-line flags for the report command.
type reportOpts struct {
	goCSV   string   // Go recording, labeled "Go"
	rustCSV string   // Rust recording, labeled "Rust"
	compare []string // extra recordings as LABEL:FILE
	output  string   // output file path (required)
	title   string   // report title
	format  string   // html or json
	noCache bool
	refresh bool
}

// reportCommand creates the report command for rendering recordings to HTML.
func (c *CLI) reportCommand() *cobra.Command {
	opts := reportOpts{format: pipeline.FormatHTML}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render memory recordings as an HTML report",
		Long: `Render one or more memory recordings as a single report.

Each recording is a CSV produced by 'memscope record' (or a compatible
harness) with elapsed_sec, rss_bytes, and heap_alloc_bytes columns. The
report shows an RSS and a heap chart per recording, plus a summary of
start/end values and run duration.

Results are cached locally for faster subsequent runs.

Examples:
  memscope report --go go_results.csv -o report.html
  memscope report --go go.csv --rust rust.csv -o compare.html -t "1.5h Soak"
  memscope report --compare Baseline:old.csv --compare Patched:new.csv -o diff.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := collectInputs(&opts)
			if err != nil {
				return err
			}
			if opts.output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--output is required")
			}
			return c.runReport(cmd, inputs, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.goCSV, "go", "", "Go memory test CSV file")
	cmd.Flags().StringVar(&opts.rustCSV, "rust", "", "Rust memory test CSV file")
	cmd.Flags().StringArrayVar(&opts.compare, "compare", nil, "additional CSV as LABEL:FILE (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (required)")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "report title")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: html (default), json")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache and re-render")

	return cmd
}

// collectInputs translates the input flags into labeled pipeline inputs,
// preserving flag order: --go, then --rust, then each --compare.
func collectInputs(opts *reportOpts) ([]pipeline.Input, error) {
	var inputs []pipeline.Input
	if opts.goCSV != "" {
		inputs = append(inputs, pipeline.Input{Label: "Go", Path: opts.goCSV})
	}
	if opts.rustCSV != "" {
		inputs = append(inputs, pipeline.Input{Label: "Rust", Path: opts.rustCSV})
	}
	for _, item := range opts.compare {
		label, path, ok := strings.Cut(item, ":")
		if !ok || label == "" || path == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"invalid --compare %q (expected LABEL:FILE)", item)
		}
		inputs = append(inputs, pipeline.Input{Label: label, Path: path})
	}
	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"at least one of --go, --rust, or --compare is required")
	}
	return inputs, nil
}

// runReport executes the pipeline and writes the selected artifact.
func (c *CLI) runReport(cmd *cobra.Command, inputs []pipeline.Input, opts *reportOpts) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	title := opts.title
	if title == "" {
		title = c.Config.Report.Title
	}

	spinner := newSpinnerWithContext(ctx, "Loading recordings...")
	spinner.Start()
	observability.SetPipelineHooks(spinnerHooks{spinner: spinner})
	defer observability.Reset()

	result, err := runner.Execute(ctx, pipeline.Options{
		Inputs:   inputs,
		Title:    title,
		Formats:  []string{opts.format},
		CacheTTL: c.Config.Cache.TTL.Std(),
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Report failed")
		return err
	}
	spinner.Stop()

	if err := os.WriteFile(opts.output, result.Artifacts[opts.format], 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess("Report written")
	printFile(opts.output)
	printPipelineStats(len(result.Datasets), result.Stats.SampleCount, result.LeakCount(), result.CacheInfo.RenderHit)
	return nil
}

// spinnerHooks advances the spinner text as the pipeline moves through its
// stages.
type spinnerHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
}

func (h spinnerHooks) OnLoadStart(_ context.Context, labels []string) {
	h.spinner.SetMessage(fmt.Sprintf("Loading %d recordings...", len(labels)))
}

func (h spinnerHooks) OnAnalyzeStart(_ context.Context, _ int) {
	h.spinner.SetMessage("Analyzing trends...")
}

func (h spinnerHooks) OnRenderStart(_ context.Context, _ []string) {
	h.spinner.SetMessage("Rendering report...")
}
