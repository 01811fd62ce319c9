package store

import "context"

// Open returns a RedisStore when redisURL is set, otherwise a SQLiteStore at dbPath.
func Open(ctx context.Context, dbPath, redisURL string) (Store, error) {
	if redisURL != "" {
		return NewRedisStore(ctx, redisURL)
	}
	return NewSQLiteStore(dbPath)
}
