package database

import "database/sql"

// InsertRefreshRun records the start of a refresh cycle.
func (db *DB) InsertRefreshRun(trigger, country string) (int64, error) {
	var c *string
	if country != "" {
		c = &country
	}
	result, err := db.conn.Exec(
		"INSERT INTO refresh_runs (trigger, country) VALUES (?, ?)", trigger, c,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRecentRefreshRuns returns the latest refresh runs, newest first.
func (db *DB) GetRecentRefreshRuns(limit int) ([]RefreshRun, error) {
	rows, err := db.conn.Query(
		"SELECT id, trigger, country, started_at FROM refresh_runs ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var r RefreshRun
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Country, &r.StartedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM settings", &s.Settings},
		{"SELECT COUNT(*) FROM summaries", &s.Summaries},
		{"SELECT COUNT(*) FROM refresh_runs", &s.RefreshRuns},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(started_at) FROM refresh_runs").Scan(&last); err != nil {
		return nil, err
	}
	if last.Valid {
		s.LastRefresh = &last.String
	}

	return s, nil
}
