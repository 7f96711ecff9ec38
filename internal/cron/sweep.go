package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
)

const defaultBatchSize = 100

const (
	outcomeProcessed = "processed"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

type itemRecorder interface {
	AddItems(job, outcome string, n int)
}

type sweepTally struct {
	processed int
	skipped   int
	failed    int
}

// sweep hands every item to handle. A failing item is logged and counted
// but never stops the rest of the batch; the failures come back combined.
// handle reports false when another actor already moved the item. Every
// extendEvery items the cycle lock is extended, and the sweep stops once it
// is lost.
func sweep[T any](
	ctx context.Context,
	logg *logger.Logger,
	items []T,
	id func(T) string,
	handle func(context.Context, T) (bool, error),
) (sweepTally, error) {
	var (
		tally sweepTally
		errs  error
	)
	for i, item := range items {
		if ctx.Err() != nil {
			return tally, multierr.Append(errs, ctx.Err())
		}
		if i > 0 && i%extendEvery == 0 {
			if err := extendLease(ctx); err != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"remaining": len(items) - i, "error": err.Error()}), "sweep stopped without cron lock")
				return tally, multierr.Append(errs, err)
			}
		}
		done, err := handle(ctx, item)
		switch {
		case err != nil:
			tally.failed++
			logg.Warn(logg.WithFields(ctx, map[string]any{"item": id(item), "error": err.Error()}), "sweep item failed")
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id(item), err))
		case done:
			tally.processed++
		default:
			tally.skipped++
		}
	}
	return tally, errs
}

func (t sweepTally) record(ctx context.Context, logg *logger.Logger, metrics itemRecorder, job string) {
	if metrics != nil {
		metrics.AddItems(job, outcomeProcessed, t.processed)
		metrics.AddItems(job, outcomeSkipped, t.skipped)
		metrics.AddItems(job, outcomeFailed, t.failed)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"processed": t.processed,
		"skipped":   t.skipped,
		"failed":    t.failed,
	}), "sweep complete")
}

func batchSize(n int) int {
	if n <= 0 {
		return defaultBatchSize
	}
	return n
}
