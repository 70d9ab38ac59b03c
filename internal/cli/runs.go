package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/getmemscope/memscope/pkg/store"
)

// runsCommand creates the runs command for inspecting run history.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded run history",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsPruneCommand())

	return cmd
}

// openStore opens the run history database at the default location.
func openStore() (store.Store, error) {
	path, err := store.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("locate run history: %w", err)
	}
	return store.Open(path)
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				verdict := "ok"
				if r.LeakDetected {
					verdict = "LEAK"
				}
				rows = append(rows, []string{
					r.ID[:8],
					r.Label,
					r.StartedAt.Format("2006-01-02 15:04"),
					r.Duration().Round(time.Second).String(),
					fmt.Sprintf("%d", r.SampleCount),
					fmt.Sprintf("%.1f", r.EndRSSMB),
					verdict,
				})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Label", "Started", "Duration", "Samples", "RSS MB", "Verdict").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return styleTableHeader.Padding(0, 1)
					}
					if col == 6 && row < len(rows) && rows[row][6] == "LEAK" {
						return StyleError.Padding(0, 1)
					}
					return styleTableCell
				})
			fmt.Println(t.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")

	return cmd
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details of one run (ID prefixes accepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		},
	}
}

// runsPruneCommand creates the "runs prune" subcommand.
func (c *CLI) runsPruneCommand() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs, keeping the most recent",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			deleted, err := st.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			printSuccess("Pruned %d runs (kept %d most recent)", deleted, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "number of recent runs to keep (0 = delete all)")

	return cmd
}

func printRun(run *store.Run) {
	fmt.Println(StyleTitle.Render("Run " + run.ID))
	kv := func(key, value string) {
		fmt.Println(StyleDim.Render(fmt.Sprintf("%-12s", key)) + StyleValue.Render(value))
	}

	if run.Label != "" {
		kv("Label", run.Label)
	}
	if run.Command != "" {
		kv("Command", run.Command)
	}
	kv("CSV", run.CSVPath)
	kv("Started", run.StartedAt.Format(time.RFC3339))
	kv("Duration", run.Duration().Round(time.Second).String())
	kv("Samples", fmt.Sprintf("%d", run.SampleCount))
	kv("End RSS", fmt.Sprintf("%.1f MB", run.EndRSSMB))
	kv("End heap", fmt.Sprintf("%.2f MB", run.EndHeapMB))
	kv("Slope", fmt.Sprintf("%.1f KB/min (R² %.2f)", run.SlopeKBPerMin, run.RSquared))
	fmt.Println(verdictLine(run.LeakDetected, run.LeakDescription))
}
