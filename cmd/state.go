package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prgate/prgate/internal/output"
)

var stateJSON bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the review state ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stateListRun()
	},
}

var stateShowCmd = &cobra.Command{
	Use:   "show <task>",
	Short: "Show the full ledger for one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stateShowRun(args[0])
	},
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all review state records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stateListRun()
	},
}

func init() {
	stateCmd.PersistentFlags().BoolVar(&stateJSON, "json", false, "Emit JSON")
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateListCmd)
	rootCmd.AddCommand(stateCmd)
}

func stateShowRun(task string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	rec, err := s.GetState(context.Background(), task)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no review state for task: %s", task)
	}

	if stateJSON {
		data, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Fprintln(ui.Out, string(data))
		return nil
	}

	ui.Info("Task %s — %s (iteration %d/%d)", output.Cyan(rec.Task), output.StatusColor(string(rec.Status)), rec.Iteration, rec.MaxIterations)
	ui.Info("Started %s, updated %s", rec.StartedAt.Format(time.RFC3339), rec.UpdatedAt.Format(time.RFC3339))
	ui.Info("Cost: opus $%.6f + codex $%.6f = $%.6f (%d in / %d out tokens)",
		rec.Cost.Opus, rec.Cost.Codex, rec.Cost.Total,
		rec.Cost.Breakdown.Opus.TokensIn, rec.Cost.Breakdown.Opus.TokensOut)
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"ITER", "SCORE", "VERDICT", "FINDINGS"})
	for _, rv := range rec.Reviews {
		_ = table.Append([]string{
			fmt.Sprintf("%d", rv.Iteration),
			scoreCell(rv.Opus.Score),
			string(rv.Opus.Verdict),
			fmt.Sprintf("%d", len(rv.Opus.Findings)),
		})
	}
	_ = table.Render()

	if verbose && len(rec.Cost.Reviews) > 0 {
		fmt.Fprintln(ui.Out)
		audit := ui.Table([]string{"WHEN", "MODEL", "PR", "SCORE", "STATUS", "COST"})
		for _, e := range rec.Cost.Reviews {
			_ = audit.Append([]string{
				e.Timestamp.Format(time.RFC3339),
				e.Model,
				fmt.Sprintf("%d", e.PRNumber),
				scoreCell(e.Score),
				output.StatusColor(string(e.Status)),
				fmt.Sprintf("$%.6f", e.CostUSD),
			})
		}
		_ = audit.Render()
	}

	return nil
}

func stateListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	states, err := s.ListStates(context.Background())
	if err != nil {
		return err
	}

	if stateJSON {
		data, _ := json.MarshalIndent(states, "", "  ")
		fmt.Fprintln(ui.Out, string(data))
		return nil
	}

	if len(states) == 0 {
		ui.Info("No review state recorded yet. Run 'prgate review' first.")
		return nil
	}

	table := ui.Table([]string{"TASK", "PR", "STATUS", "ITER", "TOTAL", "UPDATED"})
	for _, st := range states {
		_ = table.Append([]string{
			st.Task,
			fmt.Sprintf("#%d", st.PRNumber),
			output.StatusColor(string(st.Status)),
			fmt.Sprintf("%d", st.Iteration),
			fmt.Sprintf("$%.6f", st.TotalUSD),
			st.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	_ = table.Render()
	return nil
}

func scoreCell(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *score)
}
