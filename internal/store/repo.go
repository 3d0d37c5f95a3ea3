package store

import (
	"context"
	"time"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

// UserRepo defines storage operations on user profiles.
type UserRepo interface {
	// GetOrCreateUser returns the row for u.TelegramID, inserting u as
	// defaults when no row exists. Existing rows are not updated.
	GetOrCreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	SetEmail(ctx context.Context, telegramID int64, email string) error
	// MarkPaid flips has_paid false->true. The bool reports whether this
	// call performed the transition; false means the user had already paid.
	MarkPaid(ctx context.Context, telegramID int64) (bool, error)
	ListUnpaid(ctx context.Context) ([]domain.User, error)
}

// JobRepo defines the durable job store contract.
type JobRepo interface {
	// InsertJob fails with domain.ErrDuplicateJobID when the id exists.
	InsertJob(ctx context.Context, j *domain.Job) error
	// UpsertJobByName cancels any scheduled job sharing j.Name and inserts
	// j, so at most one scheduled job exists per name.
	UpsertJobByName(ctx context.Context, j *domain.Job) error
	// CancelJob marks scheduled jobs with the name cancelled; no-op when
	// none match.
	CancelJob(ctx context.Context, name string) error
	// DueJobs returns scheduled jobs with trigger_at <= now, ordered by
	// trigger_at then insertion order.
	DueJobs(ctx context.Context, now time.Time) ([]domain.Job, error)
	// MarkFired transitions scheduled->fired; calling it again is a no-op.
	MarkFired(ctx context.Context, id string) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	// JobByName returns the latest job with the name regardless of status.
	JobByName(ctx context.Context, name string) (*domain.Job, error)
}

// StateRepo defines persisted per-user conversation state.
type StateRepo interface {
	// GetState returns StateIdle for users with no stored state.
	GetState(ctx context.Context, telegramID int64) (domain.ConvState, error)
	SetState(ctx context.Context, telegramID int64, s domain.ConvState) error
}

// Repo aggregates all storage operations behind one handle.
type Repo interface {
	UserRepo
	JobRepo
	StateRepo
	Close() error
}
