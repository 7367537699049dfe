// File: cmd/triage.go
package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/console"
	"github.com/xkilldash9x/aiseed/internal/crew"
	"github.com/xkilldash9x/aiseed/internal/ghclient"
	"github.com/xkilldash9x/aiseed/internal/observability"
	"github.com/xkilldash9x/aiseed/internal/triage"
)

// TriageRunner files a triage report for a failed run.
type TriageRunner interface {
	Run(ctx context.Context, opts triage.Options) (triage.Report, error)
}

type triageInitializer func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (TriageRunner, func(), error)

// initializeTriage builds a runner from whatever is available. A missing
// token or LLM credential degrades the run instead of failing it.
func initializeTriage(ctx context.Context, cfg config.Interface, logger *zap.Logger) (TriageRunner, func(), error) {
	var github triage.IssueClient
	gh, err := ghclient.New(cfg.GitHub(), logger)
	if err != nil {
		logger.Warn("GitHub client unavailable; the report will be printed only.", zap.Error(err))
	} else {
		github = gh
	}

	if cfg.LLM().APIKey == "" && !config.HasCompletionCredential() {
		logger.Info("No LLM credential found; using heuristic triage.")
		return triage.NewRunner(github, nil, cfg.Workflow().FailureReporting, logger), func() {}, nil
	}

	coordinator, hasClient, cleanup, err := buildCoordinator(ctx, cfg, logger, crew.ModeTriage)
	if err != nil {
		return nil, nil, err
	}

	var reporter triage.Reporter
	if _, configured := cfg.Agents()[crew.RoleTriager.String()]; hasClient && configured {
		reporter = coordinator
	}
	return triage.NewRunner(github, reporter, cfg.Workflow().FailureReporting, logger), cleanup, nil
}

// newTriageCmd creates the 'triage' command, which files an issue for a
// failed CI run from its downloaded logs.
func newTriageCmd() *cobra.Command {
	var opts triage.Options
	initFn := initializeTriage

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Creates or updates a CI failure issue from workflow run logs.",
		Long: `The triage command tails every *.txt and *.log file under --logs-root,
summarizes the failure with the triager agent (or built-in heuristics when no
LLM is available) and files a GitHub issue. It never fails the calling job.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			runTriage(ctx, cfg, observability.Named("triage"), opts, cmd.OutOrStdout(), initFn)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.WorkflowName, "workflow-name", "", "Name of the failed workflow (required).")
	cmd.Flags().StringVar(&opts.RunURL, "run-url", "", "URL of the failed run (required).")
	cmd.Flags().StringVar(&opts.GitRef, "git-ref", "", "Git ref the run was for (required).")
	cmd.Flags().StringVar(&opts.CommitSHA, "commit-sha", "", "Commit SHA the run was for (required).")
	cmd.Flags().StringVar(&opts.LogsRoot, "logs-root", ".", "Directory holding the unpacked run logs.")
	cmd.Flags().IntVar(&opts.TailLines, "tail-lines", 0, "Lines kept per log file (default from config, else 200).")
	for _, name := range []string{"workflow-name", "run-url", "git-ref", "commit-sha"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// runTriage reports problems through the logger only.
func runTriage(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts triage.Options, out io.Writer, initFn triageInitializer) {
	runner, cleanup, err := initFn(ctx, cfg, logger)
	if err != nil {
		logger.Error("Triage initialization failed.", zap.Error(err))
		return
	}
	defer cleanup()

	report, err := runner.Run(ctx, opts)
	if err != nil {
		logger.Error("Triage finished without filing an issue.", zap.Error(err))
	}
	if err := console.TriageSummary(out, report); err != nil {
		logger.Warn("Could not write summary.", zap.Error(err))
	}
}
