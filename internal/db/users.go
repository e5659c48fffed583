package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobarin/aistudio/internal/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const userColumns = `
	id, name, email, password_hash, plan, daily_voice_count, daily_video_count,
	total_tokens_used, last_reset_date, created_at
`

// CreateUser inserts a new user record. A duplicate email yields ErrEmailTaken.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, plan)
		VALUES ($1, $2, $3, $4)
		RETURNING id, daily_voice_count, daily_video_count, total_tokens_used, last_reset_date, created_at
	`

	err := db.QueryRowContext(
		ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Plan,
	).Scan(
		&user.ID, &user.DailyVoiceCount, &user.DailyVideoCount,
		&user.TotalTokensUsed, &user.LastResetDate, &user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user := &models.User{}
	err := db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Plan,
		&user.DailyVoiceCount, &user.DailyVideoCount, &user.TotalTokensUsed,
		&user.LastResetDate, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// ResetDailyCounters zeroes the daily counters when the stored reset date is
// not today. Lifetime token usage is left alone.
func (db *DB) ResetDailyCounters(ctx context.Context, user *models.User, today time.Time) error {
	query := `
		UPDATE users
		SET daily_voice_count = 0,
		    daily_video_count = 0,
		    last_reset_date = $1
		WHERE id = $2 AND last_reset_date <> $1
	`
	if _, err := db.ExecContext(ctx, query, today, user.ID); err != nil {
		return fmt.Errorf("failed to reset daily counters: %w", err)
	}

	user.DailyVoiceCount = 0
	user.DailyVideoCount = 0
	user.LastResetDate = today
	return nil
}
