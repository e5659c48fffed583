package db

import (
	"context"
	"fmt"

	"github.com/bobarin/aistudio/internal/models"
)

func (db *DB) CreateGeneratedVideo(ctx context.Context, video *models.GeneratedVideo) error {
	query := `
		INSERT INTO generated_videos (user_id, video_url)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	if err := db.QueryRowContext(ctx, query, video.UserID, video.VideoURL).Scan(&video.ID, &video.CreatedAt); err != nil {
		return fmt.Errorf("failed to create generated video: %w", err)
	}
	return nil
}

// HasVideoRecord reports whether userID ever generated an artifact stored
// under exactly videoURL, regardless of whether its bytes are still cached.
func (db *DB) HasVideoRecord(ctx context.Context, userID int64, videoURL string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM generated_videos
			WHERE user_id = $1 AND video_url = $2
		)
	`

	var exists bool
	if err := db.QueryRowContext(ctx, query, userID, videoURL).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up video record: %w", err)
	}
	return exists, nil
}
