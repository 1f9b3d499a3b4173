package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"scenetest/internal/cli/app"
	"scenetest/internal/orchestrator"
	"scenetest/internal/reporter"
)

type RunCmd struct {
	Scenes    []string `arg:"" name:"scene" help:"Scene manifests, sftp:// URLs or registered scene ids to run, in order"`
	TimeoutMs int64    `name:"timeout-ms" help:"Budget for each scene in milliseconds, overrides run.timeout_ms"`
	Only      []string `short:"o" name:"only" help:"Only run the test cases with these names" placeholder:"NAME"`
	Parallel  int      `short:"p" help:"Number of test cases to run concurrently, overrides run.parallelism"`
	Results   string   `short:"r" help:"Write the results as JSON to this file, zstd compressed when ending with .zst" type:"path"`
	Metrics   string   `short:"m" help:"Write prometheus metrics to this file" type:"path"`
	NoTable   bool     `help:"Do not print the summary table"`
}

func (cmd *RunCmd) Run(ctx *app.Context) error {
	log := ctx.Log
	cfg := ctx.Config

	timeoutMs := firstNonZero(cmd.TimeoutMs, cfg.Run.TimeoutMs)
	parallel := firstNonZero(cmd.Parallel, cfg.Run.Parallelism)
	resultsPath := firstNonZero(cmd.Results, cfg.Output.Results)
	metricsPath := firstNonZero(cmd.Metrics, cfg.Output.Metrics)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var failures []error
	for i, sceneID := range cmd.Scenes {
		opts := []orchestrator.Option{orchestrator.WithDevops(ctx.Devops)}
		if resultsPath != "" {
			opts = append(opts, orchestrator.WithResultsArchive(indexedPath(resultsPath, i, len(cmd.Scenes))))
		}
		if metricsPath != "" {
			opts = append(opts, orchestrator.WithMetricsTextfile(indexedPath(metricsPath, i, len(cmd.Scenes))))
		}

		o := orchestrator.New(ctx.Host, log, opts...)
		run, err := o.RunScene(sigCtx, sceneID, orchestrator.Properties{
			TimeoutMs:   timeoutMs,
			Only:        cmd.Only,
			Parallelism: parallel,
		})
		if err != nil {
			return fmt.Errorf("scene '%s': %w", sceneID, err)
		}

		if run.Skipped {
			continue
		}

		if !cmd.NoTable {
			reporter.PrintSummary(ctx.Out, sceneID, run.Results)
		}

		if err := run.Summary.ExitError(); err != nil {
			failures = append(failures, fmt.Errorf("scene '%s': %w", sceneID, err))
		}
	}

	return errors.Join(failures...)
}

func firstNonZero[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Gives every scene of a multi-scene run its own output file by inserting
// the scene's position before the extensions.
//
// Example: results.json.zst -> results-2.json.zst
func indexedPath(path string, index, count int) string {
	if count <= 1 {
		return path
	}

	dir, base := filepath.Split(path)
	stem, ext := base, ""
	if dot := strings.Index(base, "."); dot > 0 {
		stem, ext = base[:dot], base[dot:]
	}

	return filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, index+1, ext))
}
