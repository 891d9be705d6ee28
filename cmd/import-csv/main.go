package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"cliphub/pkg/database"
)

func main() {
	var (
		clipsIn = flag.String("clips", "data/clips.csv", "input CSV path for clips")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := importClips(ctx, db, *clipsIn)
	if err != nil {
		log.Fatalf("import clips failed: %v", err)
	}

	log.Printf("imported %d clips from %s", n, *clipsIn)
}

func importClips(ctx context.Context, db *sql.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO clips (external_id, platform, source, title, author, media_url,
			thumbnail_url, duration_sec, tags, views, likes, nsfw, lang, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, external_id) DO UPDATE SET
		  title = excluded.title,
		  author = excluded.author,
		  media_url = excluded.media_url,
		  thumbnail_url = excluded.thumbnail_url,
		  duration_sec = excluded.duration_sec,
		  tags = excluded.tags,
		  likes = excluded.likes,
		  nsfw = excluded.nsfw,
		  lang = excluded.lang,
		  posted_at = excluded.posted_at,
		  updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if len(row) == 0 {
			continue
		}

		externalID := valueAt(header, row, "external_id")
		platform := valueAt(header, row, "platform")
		title := valueAt(header, row, "title")
		mediaURL := valueAt(header, row, "media_url")
		if externalID == "" || platform == "" || title == "" || mediaURL == "" {
			continue
		}

		duration, err := parseFloat(valueAt(header, row, "duration_sec"))
		if err != nil {
			return count, fmt.Errorf("parse duration_sec for %s: %w", externalID, err)
		}
		views, err := parseInt(valueAt(header, row, "views"))
		if err != nil {
			return count, fmt.Errorf("parse views for %s: %w", externalID, err)
		}
		likes, err := parseInt(valueAt(header, row, "likes"))
		if err != nil {
			return count, fmt.Errorf("parse likes for %s: %w", externalID, err)
		}
		nsfw, err := parseInt(valueAt(header, row, "nsfw"))
		if err != nil {
			return count, fmt.Errorf("parse nsfw for %s: %w", externalID, err)
		}
		postedAt, err := parseTime(valueAt(header, row, "posted_at"))
		if err != nil {
			return count, fmt.Errorf("parse posted_at for %s: %w", externalID, err)
		}

		tags := valueAt(header, row, "tags")
		if tags == "" {
			tags = "[]"
		}

		if _, err := stmt.ExecContext(
			ctx,
			externalID,
			platform,
			valueAt(header, row, "source"),
			title,
			valueAt(header, row, "author"),
			mediaURL,
			valueAt(header, row, "thumbnail_url"),
			duration,
			tags,
			views,
			likes,
			nsfw,
			valueAt(header, row, "lang"),
			postedAt,
		); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseInt(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
