package favorites

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cliphub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add saves a clip to the user's favorites. Re-adding is a no-op.
func (r *Repo) Add(ctx context.Context, userID string, clipID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, clip_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, clip_id) DO NOTHING
	`, userID, clipID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID string, clipID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM user_favorites
		WHERE user_id = ? AND clip_id = ?
	`, userID, clipID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Has(ctx context.Context, userID string, clipID int64) (bool, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT 1 FROM user_favorites
		WHERE user_id = ? AND clip_id = ?
	`, userID, clipID)

	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return true, nil
}

// SavedClip is a favorited clip with the time it was saved.
type SavedClip struct {
	models.Clip
	SavedAt time.Time `json:"saved_at"`
}

// List returns the user's saved clips, newest save first. Clips that were
// blacklisted after being saved are filtered out here, same as everywhere
// else.
func (r *Repo) List(ctx context.Context, userID string, limit, offset int) ([]SavedClip, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_favorites f
		JOIN clips c ON c.id = f.clip_id
		WHERE f.user_id = ? AND c.blacklisted = 0
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.external_id, c.platform, c.source, c.title, c.author,
			c.media_url, c.thumbnail_url, c.duration_sec, c.tags, c.views,
			c.likes, c.nsfw, c.lang, c.posted_at, f.created_at
		FROM user_favorites f
		JOIN clips c ON c.id = f.clip_id
		WHERE f.user_id = ? AND c.blacklisted = 0
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]SavedClip, 0, limit)
	for rows.Next() {
		var (
			sc       SavedClip
			author   sql.NullString
			thumb    sql.NullString
			tagsJSON string
			nsfw     int
			lang     sql.NullString
		)
		if err := rows.Scan(
			&sc.ID, &sc.ExternalID, &sc.Platform, &sc.Source, &sc.Title, &author,
			&sc.MediaURL, &thumb, &sc.DurationSec, &tagsJSON, &sc.Views,
			&sc.Likes, &nsfw, &lang, &sc.PostedAt, &sc.SavedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan favorite row: %w", err)
		}
		sc.Author = author.String
		sc.ThumbnailURL = thumb.String
		sc.NSFW = nsfw != 0
		sc.Lang = lang.String
		_ = json.Unmarshal([]byte(tagsJSON), &sc.Tags)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}
