package reports

import (
	"context"
	"database/sql"
	"fmt"

	"cliphub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, clipID int64, userID, reason, details string) (*models.Report, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO reports (clip_id, user_id, reason, details)
		VALUES (?, ?, ?, ?)
	`, clipID, userID, reason, details)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, clip_id, user_id, reason, details, status, created_at, resolved_at
		FROM reports
		WHERE id = ?
	`, id)

	rep, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

func (r *Repo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Report, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reports WHERE status = ?
	`, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, clip_id, user_id, reason, details, status, created_at, resolved_at
		FROM reports
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]models.Report, 0, limit)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// Resolve closes an open report. Returns false when the report does not
// exist or is already resolved.
func (r *Repo) Resolve(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE reports
		SET status = ?, resolved_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, models.ReportResolved, id, models.ReportOpen)
	if err != nil {
		return false, fmt.Errorf("resolve report: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		rep      models.Report
		details  sql.NullString
		resolved sql.NullTime
	)
	if err := row.Scan(&rep.ID, &rep.ClipID, &rep.UserID, &rep.Reason, &details,
		&rep.Status, &rep.CreatedAt, &resolved); err != nil {
		return nil, err
	}
	rep.Details = details.String
	if resolved.Valid {
		rep.ResolvedAt = resolved.Time
	}
	return &rep, nil
}
