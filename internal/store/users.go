package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

const userColumns = `id, telegram_id, username, first_name, last_name, email, has_paid, created_at`

// GetOrCreateUser returns the stored user for u.TelegramID, inserting u as
// defaults when the row does not exist yet. Existing rows are left untouched,
// mirroring get-or-create semantics.
func (r *SQLiteRepo) GetOrCreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, errors.New("nil user")
	}

	created := u.CreatedAt.UTC().Unix()
	if u.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, email, has_paid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO NOTHING`,
		u.TelegramID, u.Username, u.FirstName, u.LastName,
		toNullString(u.Email), boolToInt(u.HasPaid), created,
	)
	if err != nil {
		return nil, err
	}
	return r.GetUser(ctx, u.TelegramID)
}

// GetUser returns a user by telegram id or domain.ErrUserNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE telegram_id = ?`,
		telegramID,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

// SetEmail stores a validated email on an existing user.
func (r *SQLiteRepo) SetEmail(ctx context.Context, telegramID int64, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?
		WHERE telegram_id = ?`,
		email, telegramID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// MarkPaid flips has_paid false->true via a compare-and-set. The returned bool
// reports whether this call won the transition; false with a nil error means
// the user had already paid (a duplicate completion signal).
func (r *SQLiteRepo) MarkPaid(ctx context.Context, telegramID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET has_paid = 1
		WHERE telegram_id = ? AND has_paid = 0`,
		telegramID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	// Lost the race or duplicate signal; distinguish from a missing user.
	if _, err := r.GetUser(ctx, telegramID); err != nil {
		return false, err
	}
	return false, nil
}

// ListUnpaid returns all users who have not paid, in registration order.
func (r *SQLiteRepo) ListUnpaid(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE has_paid = 0
		ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		id        int64
		tgID      int64
		username  string
		firstName string
		lastName  string
		emailNS   sql.NullString
		paidInt   int
		createdAt int64
	)
	if err := row.Scan(&id, &tgID, &username, &firstName, &lastName, &emailNS, &paidInt, &createdAt); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:         id,
		TelegramID: tgID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      fromNullString(emailNS),
		HasPaid:    paidInt != 0,
		CreatedAt:  unixUTC(createdAt),
	}, nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
