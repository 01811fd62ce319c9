// Package cli implements the duel-brain CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/config"
	"github.com/rcliao/duel-brain/internal/logging"
	"github.com/rcliao/duel-brain/internal/memory"
	"github.com/rcliao/duel-brain/internal/store"
)

var (
	dbPath     string
	formatFlag string
	logLevel   string

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "duel-brain",
	Short: "Decision engine for an AI duelist",
	Long:  "Drives an arena opponent from a local chat model with an offline fallback, and remembers how the human plays between matches.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := config.Load()
		if err != nil {
			exitErr("config", err)
		}
		cfg = c
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $DUEL_DB or ~/.duel-brain/profile.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: $DUEL_LOG_LEVEL or info)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if cfg != nil && cfg.DB != "" {
		return cfg.DB
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".duel-brain", "profile.db")
}

func newLogger() zerolog.Logger {
	level, format := "info", "console"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(level, format)
}

func openStore(ctx context.Context) (store.Store, error) {
	redisURL := ""
	if cfg != nil {
		redisURL = cfg.RedisURL
	}
	return store.Open(ctx, getDBPath(), redisURL)
}

// openMemory opens the backend and loads the player profile from it.
func openMemory(ctx context.Context, backend store.Store) *memory.Store {
	opts := memory.Options{Logger: newLogger()}
	if cfg != nil {
		opts.Key = cfg.ProfileKey
		opts.Debounce = cfg.SaveDebounce
	}
	m := memory.New(backend, opts)
	m.Load(ctx)
	return m
}

// openGameplayMemory opens the profile for commands that must keep playing
// without storage. When the backend cannot be opened the profile lives in
// memory for the rest of the process.
func openGameplayMemory(ctx context.Context, log zerolog.Logger) (*memory.Store, func()) {
	s, err := openStore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("profile storage unavailable, continuing in memory")
		return openMemory(ctx, nil), func() {}
	}
	return openMemory(ctx, s), func() { s.Close() }
}

func aiModel() string {
	if cfg != nil {
		return cfg.AIModel
	}
	return ""
}

func profileKey() string {
	if cfg != nil && cfg.ProfileKey != "" {
		return cfg.ProfileKey
	}
	return memory.DefaultKey
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
