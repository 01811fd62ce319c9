package store

import (
	"context"
	"os"
	"time"
)

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Backend: "sqlite", Location: s.path, Keys: []KeyStats{}}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&st.TotalVersions)

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, COUNT(*) AS cnt, MAX(version) AS latest, MAX(created_at) AS updated
		FROM records GROUP BY key ORDER BY key`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ks KeyStats
		var updated string
		if err := rows.Scan(&ks.Key, &ks.Versions, &ks.Latest, &updated); err != nil {
			return st, err
		}
		ks.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		st.Keys = append(st.Keys, ks)
	}

	return st, rows.Err()
}
