package store

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Index is the local article database backing the news-index provider. Reads
// and writes go through separate connections; the write side is serialized to
// a single connection to keep sqlite happy under concurrent ingest.
type Index struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// Article is a stored news article, one row in the index.
type Article struct {
	ID          string
	Origin      string
	Title       string
	URL         string
	Excerpt     string
	Body        string
	Published   time.Time
	FetchedAt   time.Time
	AutoIndexed bool
}

// SearchOpts narrows a keyword search.
type SearchOpts struct {
	Keywords []string
	Origins  []string
	Since    time.Time
	Limit    int
}

// OriginCount is one row of per-origin statistics.
type OriginCount struct {
	Origin string
	Count  int
	Latest time.Time
}

func Open(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	idx := &Index{readDB: readDB, writeDB: writeDB}
	if err := idx.init(); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) init() error {
	_, err := idx.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id           TEXT PRIMARY KEY,
			origin       TEXT NOT NULL,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL UNIQUE,
			excerpt      TEXT NOT NULL DEFAULT '',
			body         TEXT NOT NULL DEFAULT '',
			published    DATETIME NOT NULL,
			fetched_at   DATETIME NOT NULL,
			auto_indexed INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published DESC);
		CREATE INDEX IF NOT EXISTS idx_articles_origin ON articles(origin);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (idx *Index) Close() error {
	var errs []error
	if idx.readDB != nil {
		errs = append(errs, idx.readDB.Close())
	}
	if idx.writeDB != nil {
		errs = append(errs, idx.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// ArticleID derives the stable primary key for an article URL.
func ArticleID(url string) string {
	h := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", h[:16])
}

// Upsert inserts or refreshes articles. Existing rows keep their id; title,
// excerpt, body and fetch time are updated in place.
func (idx *Index) Upsert(articles []Article) error {
	tx, err := idx.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, origin, title, url, excerpt, body, published, fetched_at, auto_indexed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			body = CASE WHEN excluded.body != '' THEN excluded.body ELSE articles.body END,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range articles {
		if a.ID == "" {
			a.ID = ArticleID(a.URL)
		}
		_, err := stmt.Exec(a.ID, a.Origin, a.Title, a.URL, a.Excerpt, a.Body,
			a.Published, a.FetchedAt, a.AutoIndexed)
		if err != nil {
			return fmt.Errorf("upserting article %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// Search returns articles matching any of the keywords in title, excerpt or
// body, newest first. An empty keyword list matches nothing.
func (idx *Index) Search(opts SearchOpts) ([]Article, error) {
	if len(opts.Keywords) == 0 {
		return nil, nil
	}

	var (
		where []string
		args  []interface{}
	)

	var kw []string
	for _, k := range opts.Keywords {
		term := "%" + strings.ToLower(k) + "%"
		kw = append(kw, "(lower(title) LIKE ? OR lower(excerpt) LIKE ? OR lower(body) LIKE ?)")
		args = append(args, term, term, term)
	}
	where = append(where, "("+strings.Join(kw, " OR ")+")")

	if !opts.Since.IsZero() {
		where = append(where, "published >= ?")
		args = append(args, opts.Since)
	}

	if len(opts.Origins) > 0 {
		placeholders := make([]string, len(opts.Origins))
		for i, o := range opts.Origins {
			placeholders[i] = "?"
			args = append(args, o)
		}
		where = append(where, "origin IN ("+strings.Join(placeholders, ",")+")")
	}

	q := `SELECT id, origin, title, url, excerpt, body, published, fetched_at, auto_indexed
		FROM articles WHERE ` + strings.Join(where, " AND ") + ` ORDER BY published DESC`

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := idx.readDB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Origin, &a.Title, &a.URL, &a.Excerpt, &a.Body,
			&a.Published, &a.FetchedAt, &a.AutoIndexed); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Has reports whether a URL is already indexed.
func (idx *Index) Has(url string) (bool, error) {
	var one int
	err := idx.readDB.QueryRow("SELECT 1 FROM articles WHERE id = ?", ArticleID(url)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Prune deletes articles older than the retention window and returns how many
// rows were removed.
func (idx *Index) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := idx.writeDB.Exec("DELETE FROM articles WHERE published < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats returns the article count and per-origin breakdown.
func (idx *Index) Stats() (int, []OriginCount, error) {
	var total int
	if err := idx.readDB.QueryRow("SELECT COUNT(*) FROM articles").Scan(&total); err != nil {
		return 0, nil, err
	}

	rows, err := idx.readDB.Query(`
		SELECT origin, COUNT(*), MAX(published)
		FROM articles GROUP BY origin ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var byOrigin []OriginCount
	for rows.Next() {
		var oc OriginCount
		// MAX(published) loses the column's DATETIME declared type, so the
		// driver hands back the stored string instead of a time.Time.
		var latest sql.NullString
		if err := rows.Scan(&oc.Origin, &oc.Count, &latest); err != nil {
			return 0, nil, err
		}
		if latest.Valid {
			t, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", latest.String)
			if err != nil {
				return 0, nil, fmt.Errorf("parsing latest published time: %w", err)
			}
			oc.Latest = t
		}
		byOrigin = append(byOrigin, oc)
	}
	return total, byOrigin, rows.Err()
}
