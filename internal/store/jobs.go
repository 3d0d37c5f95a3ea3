package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

const jobColumns = `id, name, kind, trigger_at, target_user, status, payload, created_at`

// InsertJob stores a new scheduled job. Inserting an existing id fails with
// domain.ErrDuplicateJobID.
func (r *SQLiteRepo) InsertJob(ctx context.Context, j *domain.Job) error {
	if j == nil {
		return errors.New("nil job")
	}
	err := insertJobTx(ctx, r.db, j)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateJobID
	}
	return err
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertJobTx(ctx context.Context, ex execer, j *domain.Job) error {
	status := j.Status
	if status == "" {
		status = domain.StatusScheduled
	}
	created := j.CreatedAt.UTC().Unix()
	if j.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO jobs (id, name, kind, trigger_at, target_user, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Name, string(j.Kind), j.TriggerAt.UTC().Unix(),
		toNullInt64(j.TargetUser), string(status), j.Payload, created,
	)
	return err
}

// UpsertJobByName atomically cancels any scheduled job sharing j.Name and
// inserts j, keeping at most one scheduled job per name.
func (r *SQLiteRepo) UpsertJobByName(ctx context.Context, j *domain.Job) error {
	if j == nil {
		return errors.New("nil job")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?
		WHERE name = ? AND status = ?`,
		string(domain.StatusCancelled), j.Name, string(domain.StatusScheduled),
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertJobTx(ctx, tx, j); err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return domain.ErrDuplicateJobID
		}
		return err
	}
	return tx.Commit()
}

// CancelJob marks scheduled jobs with the given name cancelled. Cancelling a
// name with no scheduled job is a no-op, not an error.
func (r *SQLiteRepo) CancelJob(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?
		WHERE name = ? AND status = ?`,
		string(domain.StatusCancelled), name, string(domain.StatusScheduled),
	)
	return err
}

// DueJobs returns all scheduled jobs with trigger_at <= now, ordered by
// trigger time and then insertion order.
func (r *SQLiteRepo) DueJobs(ctx context.Context, now time.Time) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status = ? AND trigger_at <= ?
		ORDER BY trigger_at ASC, seq ASC`,
		string(domain.StatusScheduled), now.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// MarkFired transitions a job scheduled->fired. The update is guarded on the
// current status, so calling it again (or for a cancelled job) changes nothing.
func (r *SQLiteRepo) MarkFired(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?
		WHERE id = ? AND status = ?`,
		string(domain.StatusFired), id, string(domain.StatusScheduled),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Already fired/cancelled is fine; a missing id is not.
	if _, err := r.GetJob(ctx, id); err != nil {
		return err
	}
	return nil
}

// JobByName returns the most recently inserted job with the given name,
// whatever its status, or domain.ErrJobNotFound.
func (r *SQLiteRepo) JobByName(ctx context.Context, name string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1`,
		name,
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return j, err
}

// GetJob returns a job by id or domain.ErrJobNotFound.
func (r *SQLiteRepo) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE id = ?`,
		id,
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return j, err
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		id        string
		name      string
		kind      string
		triggerAt int64
		targetNS  sql.NullInt64
		status    string
		payload   string
		createdAt int64
	)
	if err := row.Scan(&id, &name, &kind, &triggerAt, &targetNS, &status, &payload, &createdAt); err != nil {
		return nil, err
	}
	return &domain.Job{
		ID:         id,
		Name:       name,
		Kind:       domain.JobKind(kind),
		TriggerAt:  unixUTC(triggerAt),
		TargetUser: fromNullInt64(targetNS),
		Status:     domain.JobStatus(status),
		Payload:    payload,
		CreatedAt:  unixUTC(createdAt),
	}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
