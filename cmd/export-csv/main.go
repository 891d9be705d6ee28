package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cliphub/pkg/database"
)

func main() {
	var (
		clipsOut = flag.String("clips", "data/clips.csv", "output CSV path for clips")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportClips(ctx, db, *clipsOut); err != nil {
		log.Fatalf("export clips failed: %v", err)
	}

	log.Printf("exported clips to %s", *clipsOut)
}

func exportClips(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"external_id", "platform", "source", "title", "author", "media_url",
		"thumbnail_url", "duration_sec", "tags", "views", "likes", "nsfw",
		"lang", "posted_at",
	}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT external_id, platform, source, title, author, media_url,
               thumbnail_url, duration_sec, tags, views, likes, nsfw, lang, posted_at
        FROM clips
        WHERE blacklisted = 0
        ORDER BY posted_at DESC
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			externalID  string
			platform    string
			source      string
			title       string
			author      sql.NullString
			mediaURL    string
			thumbnail   sql.NullString
			durationSec float64
			tags        sql.NullString
			views       int64
			likes       int64
			nsfw        int
			lang        sql.NullString
			postedAt    time.Time
		)

		if err := rows.Scan(&externalID, &platform, &source, &title, &author,
			&mediaURL, &thumbnail, &durationSec, &tags, &views, &likes, &nsfw,
			&lang, &postedAt); err != nil {
			return err
		}

		if err := w.Write([]string{
			externalID,
			platform,
			source,
			title,
			author.String,
			mediaURL,
			thumbnail.String,
			strconv.FormatFloat(durationSec, 'f', -1, 64),
			tags.String,
			strconv.FormatInt(views, 10),
			strconv.FormatInt(likes, 10),
			strconv.Itoa(nsfw),
			lang.String,
			postedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
