package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/compass-engine/compass/internal/cache"
	"github.com/compass-engine/compass/internal/catalog"
	"github.com/compass-engine/compass/internal/conflict"
	"github.com/compass-engine/compass/internal/engine"
	"github.com/compass-engine/compass/internal/observability"
	"github.com/compass-engine/compass/internal/ratelimit"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/trigger"
	"github.com/compass-engine/compass/internal/validation"
)

func newRunCmd() *cobra.Command {
	var (
		format     string
		force      bool
		traceSpans bool
	)

	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Run the methodology against a request",
		Long: `run classifies the request, and when it qualifies as a complex
analytical task (or --force is given), executes the full phase graph and
prints the final report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			request := args[0]

			tp, err := observability.InitTracing(cmd.Context(), traceSpans, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("trace provider shutdown failed", "error", err)
				}
			}()
			tracer := tp.Tracer("compass")

			decision := trigger.NewClassifier(cfg.Trigger.Threshold).Classify(request)
			if !decision.Invoke && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "request does not require methodology orchestration")
				return nil
			}

			g, err := catalog.BuildGraph()
			if err != nil {
				return err
			}

			store := cache.New(cfg.Validation.CacheMaxEntries)
			limiter := ratelimit.New(ratelimit.Config{
				Requests: cfg.Validation.RateRequests,
				Window:   cfg.Validation.RateWindow,
			})
			gate := validation.NewGate(store, limiter,
				validation.WithTTL(cfg.Validation.CacheTTL),
				validation.WithCallTimeout(cfg.Validation.CallTimeout),
				validation.WithLogger(logger),
				validation.WithTracer(tracer),
			)
			collaborator := validation.HTTPCollaborator(http.DefaultClient, cfg.Validation.BaseURL)

			orch := engine.NewOrchestrator(
				engine.WithLogger(logger),
				engine.WithTracer(tracer),
				engine.WithMaxParallel(cfg.Engine.MaxParallel),
				engine.WithTaskTimeout(cfg.Engine.TaskTimeout),
				engine.WithGroupRetryLimit(cfg.Engine.GroupRetryLimit),
				engine.WithValidationGate(gate, collaborator),
				engine.WithConflictDetector(catalog.DefaultDetector()),
				engine.WithConflictResolver(conflict.NewResolver(catalog.SecondOpinion(), logger)),
				engine.WithUsageEstimator(catalog.DefaultEstimator()),
			)

			ec := task.NewExecutionContext(request, decision.Domains)
			rep, runErr := orch.Run(cmd.Context(), g, ec)

			var rendered []byte
			if format == "json" {
				rendered, err = rep.ToJSON()
			} else {
				rendered, err = rep.ToYAML()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(rendered))

			// An aborted run already produced the partial report above;
			// surface the abort as the command's error as well.
			var abortErr *engine.PhaseAbortedError
			if errors.As(runErr, &abortErr) {
				return abortErr
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "report format: yaml or json")
	cmd.Flags().BoolVar(&force, "force", false, "run even when the trigger classifier declines")
	cmd.Flags().BoolVar(&traceSpans, "trace", false, "export run spans to stderr")
	return cmd
}
