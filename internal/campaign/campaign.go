package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
	"github.com/timofeiryko/tg-marketing-bot/internal/store"
)

// BroadcastJobName is the replace-by-name identity of the single sell
// broadcast; restarting the process re-upserts it rather than duplicating it.
const BroadcastJobName = "sell-broadcast"

// FollowupJobName returns the per-user follow-up job name.
func FollowupJobName(telegramID int64) string {
	return fmt.Sprintf("morning-followup-%d", telegramID)
}

// Orchestrator decides which jobs to (re)schedule from user actions and the
// campaign calendar.
type Orchestrator struct {
	jobs           store.JobRepo
	log            *zap.Logger
	sellAt         time.Time
	followupOffset time.Duration
}

// New creates an Orchestrator for a campaign selling at sellAt, with per-user
// follow-ups offset from the qualifying action.
func New(jobs store.JobRepo, log *zap.Logger, sellAt time.Time, followupOffset time.Duration) *Orchestrator {
	return &Orchestrator{
		jobs:           jobs,
		log:            log,
		sellAt:         sellAt,
		followupOffset: followupOffset,
	}
}

// EnsureBroadcast makes sure exactly one sell broadcast job exists at the
// campaign instant. Safe to call on every startup: once the broadcast has
// fired, a restart leaves it alone instead of re-scheduling a past-dated job
// that would immediately re-send to everyone.
func (o *Orchestrator) EnsureBroadcast(ctx context.Context) error {
	existing, err := o.jobs.JobByName(ctx, BroadcastJobName)
	if err != nil && !errors.Is(err, domain.ErrJobNotFound) {
		return fmt.Errorf("ensure broadcast: %w", err)
	}
	if existing != nil && existing.Status == domain.StatusFired {
		o.log.Info("sell broadcast already fired", zap.Time("trigger_at", existing.TriggerAt))
		return nil
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		Name:      BroadcastJobName,
		Kind:      domain.KindBroadcastSell,
		TriggerAt: o.sellAt.UTC(),
		Status:    domain.StatusScheduled,
	}
	if err := o.jobs.UpsertJobByName(ctx, job); err != nil {
		return fmt.Errorf("ensure broadcast: %w", err)
	}
	o.log.Info("sell broadcast scheduled", zap.Time("trigger_at", job.TriggerAt))
	return nil
}

// NoteQualifyingAction schedules (or reschedules) the user's morning follow-up
// when the action happened after the campaign instant. A repeated action
// replaces the previous follow-up, keeping at most one per user.
func (o *Orchestrator) NoteQualifyingAction(ctx context.Context, telegramID int64, at time.Time) error {
	if !at.After(o.sellAt) {
		return nil
	}
	target := telegramID
	job := &domain.Job{
		ID:         uuid.NewString(),
		Name:       FollowupJobName(telegramID),
		Kind:       domain.KindMorningFollowup,
		TriggerAt:  at.Add(o.followupOffset).UTC(),
		TargetUser: &target,
		Status:     domain.StatusScheduled,
	}
	if err := o.jobs.UpsertJobByName(ctx, job); err != nil {
		return fmt.Errorf("schedule followup: %w", err)
	}
	o.log.Info("morning followup scheduled",
		zap.Int64("chat_id", telegramID), zap.Time("trigger_at", job.TriggerAt))
	return nil
}
