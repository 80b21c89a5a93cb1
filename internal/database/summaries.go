package database

import (
	"database/sql"
	"encoding/json"
)

// SaveSummary inserts or replaces the summary of an article.
func (db *DB) SaveSummary(url, summary string, keyPoints []string, generator string) error {
	var kpJSON *string
	if len(keyPoints) > 0 {
		data, err := json.Marshal(keyPoints)
		if err != nil {
			return err
		}
		s := string(data)
		kpJSON = &s
	}

	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO summaries (url, summary, key_points, generator, generated_at)
		VALUES (?, ?, ?, ?, datetime('now'))`,
		url, summary, kpJSON, generator,
	)
	return err
}

// GetSummary returns the cached summary of an article, or nil.
func (db *DB) GetSummary(url string) (*Summary, error) {
	row := db.conn.QueryRow(
		"SELECT url, summary, key_points, generator, generated_at FROM summaries WHERE url = ?", url,
	)

	var s Summary
	var kpJSON *string
	if err := row.Scan(&s.URL, &s.Summary, &kpJSON, &s.Generator, &s.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if kpJSON != nil {
		if err := json.Unmarshal([]byte(*kpJSON), &s.KeyPoints); err != nil {
			s.KeyPoints = nil
		}
	}
	return &s, nil
}

// ClearSummaries deletes all cached summaries.
func (db *DB) ClearSummaries() (int64, error) {
	result, err := db.conn.Exec("DELETE FROM summaries")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
