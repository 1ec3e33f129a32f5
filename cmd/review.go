package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prgate/prgate/internal/comments"
	"github.com/prgate/prgate/internal/cost"
	"github.com/prgate/prgate/internal/git"
	"github.com/prgate/prgate/internal/llm"
	"github.com/prgate/prgate/internal/models"
	"github.com/prgate/prgate/internal/normalize"
	"github.com/prgate/prgate/internal/output"
	"github.com/prgate/prgate/internal/pipeline"
)

var (
	reviewTask         string
	reviewPR           int
	reviewRepo         string
	reviewResponseFile string
	reviewCommentsFile string
	reviewDiffFile     string
	reviewTokensIn     int64
	reviewTokensOut    int64
	reviewTimedOut     bool
	reviewTimeout      time.Duration
	reviewJSON         bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run one review iteration and update the gate",
	Long: `Run one review iteration for a pull request.

Without --response-file, prgate fetches the PR diff (from --diff-file or the
gh CLI) and requests a review from the Anthropic API. With --response-file,
it consumes a pre-fetched model response instead, so CI can keep transport
concerns outside the gate; pass --tokens-in/--tokens-out for cost tracking.

A timed-out review (--timed-out, or an API deadline) passes the gate with
status "warning" so provider flakiness never blocks a pull request. The exit
code is 0 only when the gate passes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd.Context())
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewTask, "task", "", "Task identifier for the state ledger (required)")
	reviewCmd.Flags().IntVar(&reviewPR, "pr", 0, "Pull request number (required)")
	reviewCmd.Flags().StringVar(&reviewRepo, "repo", "", "Repository as owner/name or URL (needed when fetching via gh)")
	reviewCmd.Flags().StringVar(&reviewResponseFile, "response-file", "", "Pre-fetched model response ('-' for stdin)")
	reviewCmd.Flags().StringVar(&reviewCommentsFile, "comments-file", "", "Pre-fetched PR comment JSON ('-' for stdin)")
	reviewCmd.Flags().StringVar(&reviewDiffFile, "diff-file", "", "Diff to review instead of fetching via gh")
	reviewCmd.Flags().Int64Var(&reviewTokensIn, "tokens-in", 0, "Input token count for a pre-fetched response")
	reviewCmd.Flags().Int64Var(&reviewTokensOut, "tokens-out", 0, "Output token count for a pre-fetched response")
	reviewCmd.Flags().BoolVar(&reviewTimedOut, "timed-out", false, "Record an upstream review timeout (fail-open)")
	reviewCmd.Flags().DurationVar(&reviewTimeout, "timeout", 2*time.Minute, "Deadline for the review API call")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Emit the result and normalized review as JSON")

	_ = reviewCmd.MarkFlagRequired("task")
	_ = reviewCmd.MarkFlagRequired("pr")

	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if dryRun {
		ui.DryRunMsg("Would run review iteration for task %s, PR #%d", reviewTask, reviewPR)
		return nil
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	pricing, err := cost.LoadTable(cost.Rates{
		InputPerMillion:  viper.GetFloat64("cost.input_per_million"),
		OutputPerMillion: viper.GetFloat64("cost.output_per_million"),
	})
	if err != nil {
		return err
	}

	model := viper.GetString("anthropic.model")
	ghc := git.NewGitHubClient()

	responseText, tokensIn, tokensOut, timedOut, err := obtainResponse(ctx, ghc, model)
	if err != nil {
		return err
	}

	rawComments, err := obtainComments(ghc)
	if err != nil {
		return err
	}

	runner := pipeline.New(s, pricing, pipeline.Config{
		Threshold: viper.GetFloat64("review.threshold"),
	})
	res, rec, err := runner.Run(ctx, pipeline.RunInput{
		Task:         reviewTask,
		PRNumber:     reviewPR,
		Model:        model,
		ResponseText: responseText,
		TimedOut:     timedOut,
		TokensIn:     tokensIn,
		TokensOut:    tokensOut,
	})
	if err != nil {
		return err
	}

	normalizer := normalize.New(viper.GetString("reviewer.identity"))
	review, err := normalizer.Normalize(rec.Iteration, responseText, rawComments)
	if err != nil {
		return err
	}

	if reviewJSON {
		printReviewJSON(res, review)
	} else {
		printReviewHuman(res, review, rec)
	}

	if !res.Passed {
		_ = s.Close()
		os.Exit(1)
	}
	return nil
}

// obtainResponse yields the raw response blob for this iteration, either from
// a pre-fetched file or by calling the review API. The bool reports a
// transport timeout.
func obtainResponse(ctx context.Context, ghc git.GitHubClient, model string) (string, int64, int64, bool, error) {
	if reviewTimedOut {
		return "", 0, 0, true, nil
	}

	if reviewResponseFile != "" {
		text, err := readInput(reviewResponseFile)
		if err != nil {
			return "", 0, 0, false, fmt.Errorf("read response: %w", err)
		}
		return text, reviewTokensIn, reviewTokensOut, false, nil
	}

	diff, err := obtainDiff(ghc)
	if err != nil {
		return "", 0, 0, false, err
	}

	client := llm.NewClient(viper.GetString("anthropic.api_key"), model)
	callCtx, cancel := context.WithTimeout(ctx, reviewTimeout)
	defer cancel()

	ui.VerboseLog("Requesting review from %s", model)
	resp, err := client.Review(callCtx, diff)
	if errors.Is(err, llm.ErrTimeout) {
		return "", 0, 0, true, nil
	}
	if err != nil {
		return "", 0, 0, false, err
	}
	return resp.Text, resp.TokensIn, resp.TokensOut, false, nil
}

func obtainDiff(ghc git.GitHubClient) (string, error) {
	if reviewDiffFile != "" {
		return readInput(reviewDiffFile)
	}

	owner, repo, err := resolveRepo()
	if err != nil {
		return "", fmt.Errorf("--diff-file or --repo is required to obtain the diff: %w", err)
	}
	ui.VerboseLog("Fetching diff for %s/%s#%d", owner, repo, reviewPR)
	return ghc.PRDiff(owner, repo, reviewPR)
}

// obtainComments is best-effort: without a comment source the classifier
// simply sees an empty set and reports pending.
func obtainComments(ghc git.GitHubClient) ([]byte, error) {
	if reviewCommentsFile != "" {
		raw, err := readInput(reviewCommentsFile)
		if err != nil {
			return nil, fmt.Errorf("read comments: %w", err)
		}
		return []byte(raw), nil
	}

	owner, repo, err := resolveRepo()
	if err != nil {
		return []byte("[]"), nil
	}
	raw, err := ghc.PRComments(owner, repo, reviewPR)
	if err != nil {
		ui.Warning("Could not fetch PR comments: %v", err)
		return []byte("[]"), nil
	}
	return raw, nil
}

func resolveRepo() (string, string, error) {
	spec := reviewRepo
	if spec == "" {
		return "", "", fmt.Errorf("no repository configured")
	}
	if !strings.Contains(spec, "/") {
		if org := viper.GetString("github.default_org"); org != "" {
			spec = org + "/" + spec
		}
	}
	return git.ExtractOwnerRepo(spec)
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printReviewJSON(res *models.Result, review *normalize.Review) {
	out := struct {
		Result *models.Result    `json:"result"`
		Review *normalize.Review `json:"review"`
	}{Result: res, Review: review}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(ui.Out, string(data))
}

func printReviewHuman(res *models.Result, review *normalize.Review, rec *models.StateRecord) {
	switch {
	case res.TimedOut:
		ui.Warning("Review timed out; gate passes open (status=%s)", res.Status)
	case res.Score == nil:
		ui.Error("Score unparseable from response; gate fails (verdict forced to %s)", res.Verdict)
	case res.Passed:
		ui.Success("Score %s >= threshold %.1f — %s", output.ScoreColor(*res.Score, res.Threshold), res.Threshold, output.StatusColor(string(res.Status)))
	default:
		ui.Error("Score %s < threshold %.1f — %s", output.ScoreColor(*res.Score, res.Threshold), res.Threshold, output.StatusColor(string(res.Status)))
	}

	if len(res.Findings) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"SEVERITY", "FILE", "LINE", "ISSUE"})
		for _, f := range res.Findings {
			line := ""
			if f.Line > 0 {
				line = fmt.Sprintf("%d", f.Line)
			}
			_ = table.Append([]string{output.SeverityColor(string(f.Severity)), f.File, line, f.Issue})
		}
		_ = table.Render()
		fmt.Fprintln(ui.Out)
	}

	identity := viper.GetString("reviewer.identity")
	if identity == "" {
		identity = comments.DefaultIdentity
	}
	ui.Info("%s: %s (%d comments)", identity, review.Greptile.Status, len(review.Greptile.Comments))
	ui.Info("Iteration %d — this call $%.6f (%d in / %d out tokens), task total $%.6f",
		rec.Iteration, res.CostUSD, res.TokensIn, res.TokensOut, rec.Cost.Total)
}
