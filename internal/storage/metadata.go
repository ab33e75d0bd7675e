package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultListLimit caps ListClips when no limit is given
const DefaultListLimit = 50

// ClipRecord is one published clip in the catalog
type ClipRecord struct {
	JobID        string    `json:"job_id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	StartSeconds int       `json:"start_seconds"`
	EndSeconds   int       `json:"end_seconds"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClipCatalog keeps a SQLite record of every published clip
type ClipCatalog struct {
	db  *sql.DB
	now func() time.Time
}

// NewClipCatalog opens (or creates) the catalog database at dbPath
func NewClipCatalog(dbPath string) (*ClipCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// pipeline goroutines write concurrently; sqlite allows one writer
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS clips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		start_seconds INTEGER NOT NULL,
		end_seconds INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clips_created_at ON clips(created_at);
	CREATE INDEX IF NOT EXISTS idx_clips_job_id ON clips(job_id);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &ClipCatalog{db: db, now: time.Now}, nil
}

// RecordClip saves one published clip
func (c *ClipCatalog) RecordClip(jobID, title, url string, startSeconds, endSeconds int) error {
	query := `
	INSERT INTO clips (job_id, title, url, start_seconds, end_seconds, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(query, jobID, title, url, startSeconds, endSeconds, c.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save clip metadata: %w", err)
	}
	return nil
}

// ListClips returns the most recent clips, newest first
func (c *ClipCatalog) ListClips(limit int) ([]ClipRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `
	SELECT job_id, title, url, start_seconds, end_seconds, created_at
	FROM clips ORDER BY created_at DESC, id DESC LIMIT ?
	`
	return c.query(query, limit)
}

// ClipsForJob returns the clips recorded for one job in publish order
func (c *ClipCatalog) ClipsForJob(jobID string) ([]ClipRecord, error) {
	query := `
	SELECT job_id, title, url, start_seconds, end_seconds, created_at
	FROM clips WHERE job_id = ? ORDER BY id ASC
	`
	return c.query(query, jobID)
}

func (c *ClipCatalog) query(query string, args ...interface{}) ([]ClipRecord, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}
	defer rows.Close()

	clips := []ClipRecord{}
	for rows.Next() {
		var r ClipRecord
		if err := rows.Scan(&r.JobID, &r.Title, &r.URL, &r.StartSeconds, &r.EndSeconds, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, r)
	}
	return clips, rows.Err()
}

// Close closes the database connection
func (c *ClipCatalog) Close() error {
	return c.db.Close()
}
