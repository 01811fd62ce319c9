package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/duel-brain/internal/config"
	"github.com/rcliao/duel-brain/internal/memory"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/store"
)

// withConfig swaps the package-level config and db flag for one test.
func withConfig(t *testing.T, c *config.Config, db string) {
	t.Helper()
	prevCfg, prevDB := cfg, dbPath
	cfg, dbPath = c, db
	t.Cleanup(func() { cfg, dbPath = prevCfg, prevDB })
}

func quickMatch() simParams {
	return simParams{
		tier:       model.TierEasy,
		seed:       42,
		roundTime:  3,
		aggression: 0.8,
		offline:    true,
		execRate:   time.Millisecond,
		interval:   5 * time.Millisecond,
		step:       0.05,
	}
}

func TestPlayMatchWithoutStorage(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	withConfig(t, nil, filepath.Join(blocker, "sub", "profile.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := playMatch(ctx, quickMatch(), zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, res.Interrupted)
	assert.NotEmpty(t, res.Session.ID)
	assert.GreaterOrEqual(t, res.Session.Rounds, 2)
	assert.Equal(t, 2, max(res.PlayerWins, res.AIWins))
}

func TestPlayMatchRedisUnreachable(t *testing.T) {
	withConfig(t, &config.Config{RedisURL: "redis://127.0.0.1:1"}, filepath.Join(t.TempDir(), "unused.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	res, err := playMatch(ctx, quickMatch(), zerolog.Nop())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.ID)
}

func TestPlayMatchInterruptedSavesProfile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "profile.db")
	withConfig(t, nil, db)

	p := quickMatch()
	p.roundTime = 600
	p.execRate = 0
	p.interval = 0
	p.step = 0

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	res, err := playMatch(ctx, p, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.Empty(t, res.Session.ID)

	s, err := store.NewSQLiteStore(db)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.Get(context.Background(), store.GetParams{Key: memory.DefaultKey})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	rec, err := memory.ParseRecord(entries[0].Body, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Profile.TotalFights)
}
