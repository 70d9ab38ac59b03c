package cli

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers debug handlers for --pprof
	"os"
	"os/exec"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/sample"
	"github.com/getmemscope/memscope/pkg/store"
	"github.com/getmemscope/memscope/pkg/trend"
)

// recordOpts holds the command-line flags for the record command.
type recordOpts struct {
	self     bool          // sample the memscope process itself
	live     bool          // show the live dashboard
	interval time.Duration // sampling interval (0 = config default)
	duration time.Duration // stop after this long (0 = until exit/signal)
	csvPath  string        // recording output path
	label    string        // run label for history
	heapDump string        // write a pprof heap profile here on stop (self mode)
	pprof    string        // serve net/http/pprof at this address (self mode)
	noStore  bool          // skip run history
	noFail   bool          // exit 0 even when a leak is detected
}

// recordCommand creates the record command for sampling process memory.
func (c *CLI) recordCommand() *cobra.Command {
	var opts recordOpts

	cmd := &cobra.Command{
		Use:   "record [flags] -- <command> [args...]",
		Short: "Record process memory usage over time",
		Long: `Record memory usage of a process into a CSV recording.

By default the given command is spawned and its RSS is sampled until it
exits. With --self, memscope samples its own process instead, including Go
heap statistics; combine with --duration to bound the run.

The recording is appended in real time, so a crash loses at most one
sampling interval. On completion the trend report is printed and the run is
saved to history. The command exits with status 1 when a leak is detected.

Examples:
  memscope record -- ./my-service --port 9000
  memscope record --self --duration 90m --csv soak.csv
  memscope record --interval 5s --label nightly -- ./worker`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.self && len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput,
					"a command is required unless --self is given")
			}
			if opts.self && len(args) > 0 {
				return errors.New(errors.ErrCodeInvalidInput,
					"--self and a command are mutually exclusive")
			}
			if opts.heapDump != "" && !opts.self {
				return errors.New(errors.ErrCodeInvalidInput,
					"--heap-dump requires --self (heap statistics of external processes are not visible)")
			}
			if opts.pprof != "" && !opts.self {
				return errors.New(errors.ErrCodeInvalidInput,
					"--pprof requires --self")
			}
			return c.runRecord(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.self, "self", false, "sample the memscope process itself")
	cmd.Flags().BoolVar(&opts.live, "live", false, "show a live dashboard while recording")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "sampling interval (default from config)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "stop after this duration (0 = until exit)")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "recording output file (default memtest_<timestamp>.csv)")
	cmd.Flags().StringVar(&opts.label, "label", "", "label for run history")
	cmd.Flags().StringVar(&opts.heapDump, "heap-dump", "", "write a pprof heap profile on stop (--self only)")
	cmd.Flags().StringVar(&opts.pprof, "pprof", "", "serve net/http/pprof at this address while recording (--self only)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not save the run to history")
	cmd.Flags().BoolVar(&opts.noFail, "no-fail", false, "exit 0 even when a leak is detected")

	return cmd
}

func (c *CLI) runRecord(ctx context.Context, args []string, opts *recordOpts) error {
	logger := loggerFromContext(ctx)

	interval := opts.interval
	if interval == 0 {
		interval = c.Config.Record.Interval.Std()
	}
	csvPath := opts.csvPath
	if csvPath == "" {
		csvPath = fmt.Sprintf("memtest_%s.csv", time.Now().Format("20060102_150405"))
	}

	trackerOpts := []sample.Option{
		sample.WithCSVFile(csvPath),
		sample.WithWarnf(logger.Warnf),
	}

	// Spawn the observed command, if any.
	var cmd *exec.Cmd
	cmdDone := make(chan error, 1)
	if len(args) > 0 {
		cmd = exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return errors.Wrap(errors.ErrCodeRecord, err, "start %s", args[0])
		}
		trackerOpts = append(trackerOpts, sample.WithProcess(cmd.Process.Pid))
		go func() { cmdDone <- cmd.Wait() }()
		logger.Info("recording", "pid", cmd.Process.Pid, "interval", interval, "csv", csvPath)
	} else {
		logger.Info("recording self", "interval", interval, "csv", csvPath)
	}

	if opts.pprof != "" {
		logger.Info("pprof endpoint", "addr", "http://"+opts.pprof+"/debug/pprof/")
		go func() {
			if err := http.ListenAndServe(opts.pprof, nil); err != nil {
				logger.Warn("pprof server", "error", err)
			}
		}()
	}

	var dash *liveDashboard
	if opts.live {
		dash = newLiveDashboard(csvPath)
		trackerOpts = append(trackerOpts, sample.WithOnSample(dash.Push))
	}

	tracker := sample.New(interval, trackerOpts...)
	startedAt := time.Now()
	prog := newProgress(logger)
	if err := tracker.Start(); err != nil {
		return errors.Wrap(errors.ErrCodeRecord, err, "start tracker")
	}

	waitErr := c.waitRecording(ctx, opts, cmd != nil, cmdDone, dash)
	tracker.Stop()

	if opts.heapDump != "" {
		if err := writeHeapProfile(opts.heapDump); err != nil {
			logger.Warn("heap dump failed", "error", err)
		} else {
			printFile(opts.heapDump)
		}
	}

	samples := tracker.Samples()
	rep := trend.Analyze(samples)

	prog.done(fmt.Sprintf("recorded %d samples", len(samples)))
	printSuccess("Recording finished")
	printFile(csvPath)
	printAnalysis(csvPath, samples, rep)

	if !opts.noStore {
		c.saveRun(ctx, opts.label, args, csvPath, startedAt, rep)
	}

	if waitErr != nil {
		return waitErr
	}
	if rep.LeakDetected && !opts.noFail {
		return errors.New(errors.ErrCodeLeakDetected, "leak detected: %s", rep.LeakDescription)
	}
	return nil
}

// waitRecording blocks until the observed command exits, the duration
// elapses, the live dashboard is quit, or the context is canceled.
func (c *CLI) waitRecording(ctx context.Context, opts *recordOpts, hasCmd bool, cmdDone <-chan error, dash *liveDashboard) error {
	var timeout <-chan time.Time
	if opts.duration > 0 {
		t := time.NewTimer(opts.duration)
		defer t.Stop()
		timeout = t.C
	}

	dashDone := make(chan struct{})
	if dash != nil {
		go func() {
			dash.Run(ctx)
			close(dashDone)
		}()
	} else {
		// Without a dashboard nothing reads from it; leave the channel open
		// only when a dashboard exists.
		dashDone = nil
	}

	for {
		select {
		case <-ctx.Done():
			// Interrupt stops the recording but still produces the report,
			// matching a soak run ended by hand.
			if dash != nil {
				dash.Quit()
			}
			return nil
		case <-timeout:
			if dash != nil {
				dash.Quit()
			}
			if hasCmd {
				// CommandContext kills on ctx cancel; duration expiry has to
				// reap the child explicitly via the parent's cancelation,
				// so just stop sampling and leave the child running.
				c.Logger.Info("duration elapsed, stopping recording")
			}
			return nil
		case err := <-cmdDone:
			if dash != nil {
				dash.Quit()
			}
			if err != nil {
				c.Logger.Warn("command exited", "error", err)
			}
			return nil
		case <-dashDone:
			// User quit the dashboard; stop recording.
			return nil
		}
	}
}

// saveRun persists the run summary; failures are warnings, not errors.
func (c *CLI) saveRun(ctx context.Context, label string, args []string, csvPath string, startedAt time.Time, rep trend.Report) {
	path, err := store.DefaultPath()
	if err != nil {
		c.Logger.Warn("run history unavailable", "error", err)
		return
	}
	st, err := store.Open(path)
	if err != nil {
		c.Logger.Warn("run history unavailable", "error", err)
		return
	}
	defer st.Close()

	run := &store.Run{
		ID:         store.NewRunID(),
		Label:      label,
		Command:    strings.Join(args, " "),
		CSVPath:    csvPath,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	run.ApplyReport(rep)

	if err := st.Save(ctx, run); err != nil {
		c.Logger.Warn("save run", "error", err)
		return
	}
	printDetail("run %s saved to history", run.ID[:8])
}

// writeHeapProfile dumps the current heap profile to path.
func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
