package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tutorbook/internal/pkg/logger"
)

// Recomputer re-derives denormalized tutor ratings from the review table.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// RatingReconciler runs the rating recompute pass on a cron schedule.
type RatingReconciler struct {
	reviews Recomputer
	timeout time.Duration
	log     *slog.Logger
	cron    *cron.Cron
}

func NewRatingReconciler(reviews Recomputer, timeout time.Duration, log *slog.Logger) *RatingReconciler {
	if log == nil {
		log = logger.Discard()
	}
	return &RatingReconciler{
		reviews: reviews,
		timeout: timeout,
		log:     log.With(slog.String("job", "rating_reconcile")),
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the job and starts the scheduler in the background.
func (r *RatingReconciler) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, func() { _, _ = r.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("jobs.RatingReconciler.Start: schedule %q: %w", spec, err)
	}
	r.cron.Start()
	r.log.Info("scheduled", slog.String("schedule", spec))
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish or ctx to end.
func (r *RatingReconciler) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.log.Warn("stop timed out with a pass still running")
	}
}

func (r *RatingReconciler) RunOnce(ctx context.Context) (int, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	updated, err := r.reviews.RecomputeAll(ctx)
	if err != nil {
		r.log.Error("reconcile failed", slog.Int("updated", updated), logger.Err(err))
		return updated, err
	}

	r.log.Info("reconcile finished",
		slog.Int("updated", updated),
		slog.Duration("took", time.Since(start)),
	)
	return updated, nil
}
