// File: cmd/evolution.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/console"
	"github.com/xkilldash9x/aiseed/internal/crew"
	"github.com/xkilldash9x/aiseed/internal/ghclient"
	"github.com/xkilldash9x/aiseed/internal/observability"
	"github.com/xkilldash9x/aiseed/internal/orchestrator"
)

// errEvolutionFailed is returned when a cycle ends without a pull request.
var errEvolutionFailed = errors.New("evolution process failed")

// EvolutionRunner processes one evolution request.
type EvolutionRunner interface {
	ProcessEvolutionRequest(ctx context.Context, req schemas.EvolutionRequest) orchestrator.Outcome
}

// evolutionInitializer builds the runner and returns a cleanup function.
// Tests substitute their own.
type evolutionInitializer func(ctx context.Context, cfg config.Interface, logger *zap.Logger, req schemas.EvolutionRequest) (EvolutionRunner, func(), error)

// initializeOrchestrator is the production evolutionInitializer.
func initializeOrchestrator(ctx context.Context, cfg config.Interface, logger *zap.Logger, req schemas.EvolutionRequest) (EvolutionRunner, func(), error) {
	ghCfg := cfg.GitHub()
	if req.Repository != "" {
		ghCfg.Repository = req.Repository
	}
	gh, err := ghclient.New(ghCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GitHub client: %w", err)
	}

	coordinator, _, cleanup, err := buildCoordinator(ctx, cfg, logger, crew.ModeFull)
	if err != nil {
		return nil, nil, err
	}

	o, err := orchestrator.New(gh, coordinator, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return o, cleanup, nil
}

// newEvolveCmd creates the 'evolve' command, which turns one issue into a
// pull request.
func newEvolveCmd() *cobra.Command {
	var req schemas.EvolutionRequest
	initFn := initializeOrchestrator

	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Runs the agent workflow for an issue and opens a pull request.",
		Long: `The evolve command gathers repository context, creates the working branch,
runs the planner, coder, tester, documenter and deployer agents, and opens a
pull request with the result. On failure the issue receives a comment
explaining how to retry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runEvolve(ctx, cfg, observability.Named("evolve"), req, cmd.OutOrStdout(), initFn)
		},
	}

	cmd.Flags().IntVar(&req.IssueNumber, "issue-number", 0, "GitHub issue number (required).")
	cmd.Flags().StringVar(&req.Title, "issue-title", "", "GitHub issue title (required).")
	cmd.Flags().StringVar(&req.Body, "issue-body", "", "GitHub issue body (required).")
	cmd.Flags().StringVar(&req.Repository, "repository", "", "Repository in owner/name form (required).")
	cmd.Flags().StringVar(&req.BranchName, "branch-name", "", "Branch name for changes (required).")
	for _, name := range []string{"issue-number", "issue-title", "issue-body", "repository", "branch-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// runEvolve holds the command logic, decoupled from cobra.
func runEvolve(
	ctx context.Context,
	cfg config.Interface,
	logger *zap.Logger,
	req schemas.EvolutionRequest,
	out io.Writer,
	initFn evolutionInitializer,
) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid evolution request: %w", err)
	}

	runner, cleanup, err := initFn(ctx, cfg, logger, req)
	if err != nil {
		logger.Error("Orchestrator initialization failed.", zap.Error(err))
		return err
	}
	defer cleanup()

	outcome := runner.ProcessEvolutionRequest(ctx, req)
	if err := console.EvolutionSummary(out, req, outcome); err != nil {
		logger.Warn("Could not write summary.", zap.Error(err))
	}

	if !outcome.Success {
		if outcome.Err != nil {
			return fmt.Errorf("%w: %v", errEvolutionFailed, outcome.Err)
		}
		return errEvolutionFailed
	}
	return nil
}
