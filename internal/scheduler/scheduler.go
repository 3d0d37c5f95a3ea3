package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
	"github.com/timofeiryko/tg-marketing-bot/internal/store"
)

// HandlerFunc processes one due job. Returning an error leaves the job
// scheduled, so it is retried on the next poll.
type HandlerFunc func(ctx context.Context, job domain.Job) error

// Scheduler periodically polls the job store and dispatches due jobs to the
// handler registered for their kind. A job is marked fired only after its
// handler returns successfully, which makes delivery at-least-once; handlers
// whose side effects are not naturally idempotent must tolerate a retry.
type Scheduler struct {
	jobs     store.JobRepo
	log      *zap.Logger
	handlers map[domain.JobKind]HandlerFunc
	interval time.Duration
}

// New creates a Scheduler polling at the given interval.
func New(jobs store.JobRepo, log *zap.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		log:      log,
		handlers: make(map[domain.JobKind]HandlerFunc),
		interval: interval,
	}
}

// Register binds a handler to a job kind. Must be called before Run.
func (s *Scheduler) Register(kind domain.JobKind, fn HandlerFunc) {
	s.handlers[kind] = fn
}

// Run starts the poll loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one scheduling cycle: find due jobs, dispatch, mark fired.
// A failing job is logged and left scheduled; it never stalls the others.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.jobs.DueJobs(ctx, now)
	if err != nil {
		s.log.Error("due jobs query failed", zap.Error(err))
		return
	}
	for _, job := range due {
		fn, ok := s.handlers[job.Kind]
		if !ok {
			s.log.Warn("no handler for job kind",
				zap.String("job", job.Name), zap.String("kind", string(job.Kind)))
			continue
		}
		if err := fn(ctx, job); err != nil {
			s.log.Error("job handler failed, will retry",
				zap.Error(err), zap.String("job", job.Name))
			continue
		}
		if err := s.jobs.MarkFired(ctx, job.ID); err != nil {
			s.log.Error("mark fired failed",
				zap.Error(err), zap.String("job", job.Name))
			continue
		}
		s.log.Info("job fired",
			zap.String("job", job.Name), zap.String("kind", string(job.Kind)))
	}
}
