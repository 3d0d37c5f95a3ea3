package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

// GetState returns the persisted conversation state for a user. Users without
// a stored row are Idle.
func (r *SQLiteRepo) GetState(ctx context.Context, telegramID int64) (domain.ConvState, error) {
	var s string
	err := r.db.QueryRowContext(ctx, `
		SELECT state
		FROM conv_states
		WHERE telegram_id = ?`,
		telegramID,
	).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StateIdle, nil
	}
	if err != nil {
		return domain.StateIdle, err
	}
	return domain.ConvState(s), nil
}

// SetState persists the conversation state for a user.
func (r *SQLiteRepo) SetState(ctx context.Context, telegramID int64, s domain.ConvState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conv_states (telegram_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			state      = excluded.state,
			updated_at = excluded.updated_at`,
		telegramID, string(s), time.Now().UTC().Unix(),
	)
	return err
}
