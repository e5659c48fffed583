package db

import (
	"context"
	"fmt"

	"github.com/bobarin/aistudio/internal/models"
)

// VoiceUsage is the counter delta applied together with a history entry.
type VoiceUsage struct {
	Tokens         int
	IncrementDaily bool
	// AudioURL builds the stored URL from the new entry's ID; nil stores NULL.
	AudioURL func(id int64) string
}

// RecordVoiceGeneration inserts a history entry and charges the user's token
// usage in one transaction. On success user and entry reflect the stored row.
func (db *DB) RecordVoiceGeneration(ctx context.Context, user *models.User, entry *models.VoiceHistory, usage VoiceUsage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO voice_history (user_id, text)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, user.ID, entry.Text).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert voice history: %w", err)
	}
	entry.UserID = user.ID

	if usage.AudioURL != nil {
		url := usage.AudioURL(entry.ID)
		if _, err := tx.ExecContext(ctx, `UPDATE voice_history SET audio_url = $1 WHERE id = $2`, url, entry.ID); err != nil {
			return fmt.Errorf("failed to set audio url: %w", err)
		}
		entry.AudioURL = &url
	}

	dailyDelta := 0
	if usage.IncrementDaily {
		dailyDelta = 1
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE users
		SET total_tokens_used = total_tokens_used + $1,
		    daily_voice_count = daily_voice_count + $2
		WHERE id = $3
		RETURNING total_tokens_used, daily_voice_count
	`, usage.Tokens, dailyDelta, user.ID).Scan(&user.TotalTokensUsed, &user.DailyVoiceCount)
	if err != nil {
		return fmt.Errorf("failed to update token usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit voice generation: %w", err)
	}
	return nil
}

// ListVoiceHistory returns the user's history, oldest first.
func (db *DB) ListVoiceHistory(ctx context.Context, userID int64) ([]models.VoiceHistory, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, text, audio_url, created_at
		FROM voice_history
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice history: %w", err)
	}
	defer rows.Close()

	var history []models.VoiceHistory
	for rows.Next() {
		var h models.VoiceHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Text, &h.AudioURL, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voice history: %w", err)
		}
		history = append(history, h)
	}

	return history, rows.Err()
}
