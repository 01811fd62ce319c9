package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rcliao/duel-brain/internal/llm"
	"github.com/rcliao/duel-brain/internal/match"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/offline"
	"github.com/rcliao/duel-brain/internal/scheduler"
	"github.com/rcliao/duel-brain/internal/sim"
	"github.com/rcliao/duel-brain/internal/stream"
)

func init() {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a full match against a scripted opponent",
		Long: "Run the decision and execution loops against the headless arena. The match result is folded into the player profile. " +
			"With --listen, frames are streamed over a websocket at /ws and metrics are served at /metrics.",
		Run: runSimulate,
	}

	cmd.Flags().StringP("tier", "t", string(model.TierAdaptive), "Difficulty tier: easy, medium, hard, adaptive")
	cmd.Flags().Int64("seed", 0, "Seed for the arena and offline engine (default: time based)")
	cmd.Flags().Float64("round-time", 60, "Round length in arena seconds")
	cmd.Flags().Int("rounds-to-win", 2, "Rounds needed to win the match")
	cmd.Flags().Float64("aggression", 0.6, "Scripted player aggression, 0..1")
	cmd.Flags().Bool("offline", false, "Never call the AI server")
	cmd.Flags().String("listen", "", "Address for the websocket and metrics server, e.g. :8090")

	RootCmd.AddCommand(cmd)
}

// simParams are the knobs of one simulated match. execRate, interval and
// step are zero outside tests.
type simParams struct {
	tier        model.Tier
	seed        int64
	roundTime   float64
	roundsToWin int
	aggression  float64
	offline     bool
	listen      string

	execRate time.Duration
	interval time.Duration
	step     float64
}

type simResult struct {
	Session     model.SessionSummary `json:"session"`
	PlayerWins  int                  `json:"playerWins"`
	AIWins      int                  `json:"aiWins"`
	Model       string               `json:"model"`
	Interrupted bool                 `json:"interrupted,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) {
	tierName, _ := cmd.Flags().GetString("tier")
	p := simParams{}
	p.seed, _ = cmd.Flags().GetInt64("seed")
	p.roundTime, _ = cmd.Flags().GetFloat64("round-time")
	p.roundsToWin, _ = cmd.Flags().GetInt("rounds-to-win")
	p.aggression, _ = cmd.Flags().GetFloat64("aggression")
	p.offline, _ = cmd.Flags().GetBool("offline")
	p.listen, _ = cmd.Flags().GetString("listen")

	t, err := model.ParseTier(tierName)
	if err != nil {
		exitErr("simulate", err)
	}
	p.tier = t

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := playMatch(ctx, p, newLogger())
	if err != nil {
		exitErr("simulate", err)
	}
	printJSON(res)
}

// playMatch runs one match to completion or until ctx is cancelled. An
// interrupted match is not an error: the profile is still flushed and the
// partial result returned.
func playMatch(ctx context.Context, p simParams, log zerolog.Logger) (simResult, error) {
	if p.seed == 0 {
		p.seed = time.Now().UnixNano()
	}

	mem, closeStore := openGameplayMemory(ctx, log)
	defer closeStore()
	// Flush anything the debounce has not written yet.
	defer mem.Save(context.Background())

	var client llm.Client
	if !p.offline {
		var err error
		if client, err = llm.NewFromConfig(cfg); err != nil {
			return simResult{}, fmt.Errorf("ai client: %w", err)
		}
	}
	sched := scheduler.New(client, scheduler.Options{
		Model:   aiModel(),
		Offline: offline.New(p.seed),
		Memory:  mem,
		Logger:  log,
	})

	arena := sim.New(sim.Options{
		RoundTime:   p.roundTime,
		RoundsToWin: p.roundsToWin,
		Step:        p.step,
		Seed:        p.seed,
		Aggression:  p.aggression,
	})
	sinks := match.MultiSink{arena}

	if p.listen != "" {
		hub := stream.NewHub(log)
		defer hub.Close()
		sinks = append(sinks, hub)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: p.listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", p.listen).Msg("serving /ws and /metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ctrl, err := match.New(arena, sinks, sched, mem, match.Options{
		Tier:     p.tier,
		Spawn:    sim.AISpawn,
		ExecRate: p.execRate,
		Interval: p.interval,
		Logger:   log,
	})
	if err != nil {
		return simResult{}, err
	}

	summary, err := ctrl.Run(ctx)
	interrupted := false
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return simResult{}, err
		}
		interrupted = true
		log.Info().Msg("match interrupted, saving profile")
	}

	playerWins, aiWins := arena.Wins()
	return simResult{
		Session:     summary,
		PlayerWins:  playerWins,
		AIWins:      aiWins,
		Model:       sched.Model(),
		Interrupted: interrupted,
	}, nil
}
