// File: cmd/crew.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
	"github.com/xkilldash9x/aiseed/internal/crew"
	"github.com/xkilldash9x/aiseed/internal/engine"
	"github.com/xkilldash9x/aiseed/internal/llmclient"
)

// buildCoordinator wires the LLM client, roster and worker pool. A client
// that cannot be created is logged and leaves the roster empty, so callers
// fall back to their no-LLM behaviour. The returned cleanup is never nil.
func buildCoordinator(ctx context.Context, cfg config.Interface, logger *zap.Logger, mode crew.Mode) (*crew.Coordinator, bool, func(), error) {
	var client schemas.LLMClient
	c, err := llmclient.NewClient(ctx, cfg.LLM(), logger)
	if err != nil {
		logger.Warn("LLM initialization failed; falling back to no-LLM mode.", zap.Error(err))
	} else {
		client = c
	}

	pool, err := engine.NewPool(cfg.Workflow().MaxConcurrentRuns, logger)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, false, func() {}, fmt.Errorf("failed to create worker pool: %w", err)
	}

	cleanup := func() {
		pool.Close()
		if client != nil {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close LLM client.", zap.Error(err))
			}
		}
	}

	roster := crew.NewRoster(cfg.Agents(), client, mode)
	coordinator, err := crew.NewCoordinator(roster, pool, cfg.Workflow(), logger)
	if err != nil {
		cleanup()
		return nil, false, func() {}, err
	}
	return coordinator, client != nil, cleanup, nil
}
