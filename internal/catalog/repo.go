package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"cliphub/pkg/models"
)

// clipColumns is the scan order used by every clip query.
const clipColumns = "id, external_id, platform, source, title, author, media_url, thumbnail_url, " +
	"duration_sec, tags, views, likes, nsfw, blacklisted, lang, meta, posted_at, created_at, " +
	"updated_at, media_checked_at"

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// PageQuery is one filtered, sorted, paginated read of the catalog.
// Blacklisted rows never come back; NSFW rows only when asked for.
type PageQuery struct {
	Source      string
	Platform    string
	Q           string // keyword search in title/author
	Lang        string
	IncludeNSFW bool
	Since       time.Time // posted_at lower bound, zero = unbounded
	ExcludeIDs  []int64
	Sort        string // "new" (default), "views", "likes"
	Seed        int64  // day-rotating tiebreak multiplier, 0 = none
	Limit       int
	Offset      int
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Clip, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+clipColumns+" FROM clips WHERE id = ?", id)
	clip, err := scanClip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip by id: %w", err)
	}
	return clip, nil
}

func (r *Repo) FindByExternalID(ctx context.Context, platform, externalID string) (*models.Clip, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+clipColumns+" FROM clips WHERE platform = ? AND external_id = ?",
		platform, externalID)
	clip, err := scanClip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip by external id: %w", err)
	}
	return clip, nil
}

// KnownExternalIDs returns which of the given external ids already exist in
// the catalog for a platform, so a cycle can drop already-seen candidates
// before running the expensive checks.
func (r *Repo) KnownExternalIDs(ctx context.Context, platform string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sq.Select("external_id").From("clips").
		Where(sq.Eq{"platform": platform, "external_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build known ids query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan known id: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) FindRecentBySource(ctx context.Context, platform, source string, since time.Time) ([]models.Clip, error) {
	return r.selectClips(ctx, sq.Select(clipColumns).From("clips").
		Where(sq.Eq{"platform": platform, "source": source}).
		Where(sq.GtOrEq{"posted_at": since}))
}

func (r *Repo) FindRecentByAuthor(ctx context.Context, author string, since time.Time) ([]models.Clip, error) {
	return r.selectClips(ctx, sq.Select(clipColumns).From("clips").
		Where(sq.Eq{"author": author}).
		Where(sq.GtOrEq{"posted_at": since}))
}

func (r *Repo) FindByMediaURL(ctx context.Context, mediaURL string) ([]models.Clip, error) {
	return r.selectClips(ctx, sq.Select(clipColumns).From("clips").
		Where(sq.Eq{"media_url": mediaURL}))
}

// Insert adds a new catalog row and returns its id. A unique-constraint
// failure here means another writer won the race; callers treat it as a
// per-item skip, not a cycle failure.
func (r *Repo) Insert(ctx context.Context, clip models.Clip) (int64, error) {
	tags, meta, err := encodeJSONFields(clip)
	if err != nil {
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO clips (external_id, platform, source, title, author, media_url,
			thumbnail_url, duration_sec, tags, views, likes, nsfw, blacklisted,
			lang, meta, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, clip.ExternalID, clip.Platform, clip.Source, clip.Title, clip.Author,
		clip.MediaURL, clip.ThumbnailURL, clip.DurationSec, tags, clip.Views,
		clip.Likes, boolToInt(clip.NSFW), boolToInt(clip.Blacklisted),
		clip.Lang, meta, clip.PostedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert clip: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert clip id: %w", err)
	}
	return id, nil
}

// ReplaceContent overwrites an existing row's content in place, preserving
// its id and created_at, for resolver replace decisions. The identity pair
// (platform, external_id) follows the winning observation, which may come
// from a different platform than the row it replaces.
func (r *Repo) ReplaceContent(ctx context.Context, id int64, clip models.Clip) error {
	tags, meta, err := encodeJSONFields(clip)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE clips SET
			external_id = ?, platform = ?, source = ?, title = ?, author = ?,
			media_url = ?, thumbnail_url = ?, duration_sec = ?, tags = ?,
			likes = ?, lang = ?, meta = ?, posted_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, clip.ExternalID, clip.Platform, clip.Source, clip.Title, clip.Author,
		clip.MediaURL, clip.ThumbnailURL, clip.DurationSec, tags, clip.Likes,
		clip.Lang, meta, clip.PostedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("replace clip %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("replace clip %d: not found", id)
	}
	return nil
}

// IncrementViews bumps the local view counter of the given clips.
func (r *Repo) IncrementViews(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sq.Update("clips").
		Set("views", sq.Expr("views + 1")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build views update: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Moderation mutations. These bypass the ingestion pipeline on purpose.

func (r *Repo) MarkUnsafe(ctx context.Context, id int64) error {
	return r.setFlag(ctx, id, "nsfw")
}

func (r *Repo) Blacklist(ctx context.Context, id int64) error {
	return r.setFlag(ctx, id, "blacklisted")
}

func (r *Repo) setFlag(ctx context.Context, id int64, col string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clips SET "+col+" = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("set %s on clip %d: %w", col, id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("set %s: clip %d not found", col, id)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM clips WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete clip %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// StaleMedia returns a bounded batch of entries whose media has not been
// verified since the given cutoff, oldest check first.
func (r *Repo) StaleMedia(ctx context.Context, checkedBefore time.Time, limit int) ([]models.Clip, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.selectClips(ctx, sq.Select(clipColumns).From("clips").
		Where(sq.Eq{"blacklisted": 0}).
		Where(sq.Or{
			sq.Eq{"media_checked_at": nil},
			sq.Lt{"media_checked_at": checkedBefore},
		}).
		OrderBy("media_checked_at ASC").
		Limit(uint64(limit)))
}

func (r *Repo) SetMediaChecked(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE clips SET media_checked_at = ? WHERE id = ?", at.UTC(), id); err != nil {
		return fmt.Errorf("set media checked %d: %w", id, err)
	}
	return nil
}

// QueryPage runs one filtered, sorted, paginated read and returns rows plus
// the total matching count.
func (r *Repo) QueryPage(ctx context.Context, q PageQuery) ([]models.Clip, int, error) {
	where := r.pageWhere(q)

	countSQL, countArgs, err := sq.Select("COUNT(*)").From("clips").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count page: %w", err)
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	builder := sq.Select(clipColumns).From("clips").Where(where).
		OrderBy(orderClauses(q)...).
		Limit(uint64(limit)).Offset(uint64(offset))

	clips, err := r.selectClips(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return clips, total, nil
}

func (r *Repo) pageWhere(q PageQuery) sq.And {
	where := sq.And{sq.Eq{"blacklisted": 0}}

	if !q.IncludeNSFW {
		where = append(where, sq.Eq{"nsfw": 0})
	}
	if q.Source != "" {
		where = append(where, sq.Eq{"source": q.Source})
	}
	if q.Platform != "" {
		where = append(where, sq.Eq{"platform": q.Platform})
	}
	if q.Lang != "" {
		where = append(where, sq.Eq{"lang": q.Lang})
	}
	if kw := strings.TrimSpace(q.Q); kw != "" {
		pat := "%" + strings.ToLower(kw) + "%"
		where = append(where, sq.Or{
			sq.Like{"LOWER(title)": pat},
			sq.Like{"LOWER(author)": pat},
		})
	}
	if !q.Since.IsZero() {
		where = append(where, sq.GtOrEq{"posted_at": q.Since})
	}
	if len(q.ExcludeIDs) > 0 {
		where = append(where, sq.NotEq{"id": q.ExcludeIDs})
	}
	return where
}

// orderClauses builds the combined ordering: requested sort, views
// tiebreak, then a seeded pseudo-random tiebreak so equal rows rotate
// instead of freezing into one order.
func orderClauses(q PageQuery) []string {
	var out []string
	switch q.Sort {
	case "views":
		out = append(out, "views DESC")
	case "likes":
		out = append(out, "likes DESC")
	default:
		out = append(out, "posted_at DESC")
	}
	out = append(out, "views DESC")
	if q.Seed > 0 {
		out = append(out, fmt.Sprintf("(id * %d) %% 104729", q.Seed%104729))
	}
	out = append(out, "id DESC")
	return out
}

func (r *Repo) selectClips(ctx context.Context, builder sq.SelectBuilder) ([]models.Clip, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build clip query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	var out []models.Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip row: %w", err)
		}
		out = append(out, *clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClip(row rowScanner) (*models.Clip, error) {
	var (
		m            models.Clip
		author       sql.NullString
		thumbnail    sql.NullString
		tagsJSON     string
		nsfw         int
		blacklisted  int
		lang         sql.NullString
		metaJSON     string
		mediaChecked sql.NullTime
	)

	if err := row.Scan(
		&m.ID, &m.ExternalID, &m.Platform, &m.Source, &m.Title, &author,
		&m.MediaURL, &thumbnail, &m.DurationSec, &tagsJSON, &m.Views, &m.Likes,
		&nsfw, &blacklisted, &lang, &metaJSON, &m.PostedAt, &m.CreatedAt,
		&m.UpdatedAt, &mediaChecked,
	); err != nil {
		return nil, err
	}

	m.Author = author.String
	m.ThumbnailURL = thumbnail.String
	m.NSFW = nsfw != 0
	m.Blacklisted = blacklisted != 0
	m.Lang = lang.String
	if mediaChecked.Valid {
		m.MediaCheckedAt = mediaChecked.Time
	}

	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	_ = json.Unmarshal([]byte(metaJSON), &m.Meta)
	return &m, nil
}

func encodeJSONFields(clip models.Clip) (tags string, meta string, err error) {
	if clip.Tags == nil {
		clip.Tags = []string{}
	}
	if clip.Meta == nil {
		clip.Meta = map[string]string{}
	}

	tb, err := json.Marshal(clip.Tags)
	if err != nil {
		return "", "", fmt.Errorf("marshal tags for %s: %w", clip.ExternalID, err)
	}
	mb, err := json.Marshal(clip.Meta)
	if err != nil {
		return "", "", fmt.Errorf("marshal meta for %s: %w", clip.ExternalID, err)
	}
	return string(tb), string(mb), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
