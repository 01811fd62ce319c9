package match

import (
	"context"
	"time"

	"github.com/rcliao/duel-brain/internal/executor"
	"github.com/rcliao/duel-brain/internal/model"
)

// GameState is what the game-state provider reports each execution tick. All
// fields describe the human player except where noted.
type GameState struct {
	Round           int
	RoundsCompleted int
	LastRoundWinner model.Actor
	MatchOver       bool
	MatchWinner     model.Actor
	TimeRemaining   float64

	AIHealth     float64
	PlayerHealth float64
	PlayerPos    executor.Vec2

	PlayerRecentActions []string
	PlayerBlocking      bool
	PlayerDebuffs       model.Debuffs

	// AI spell state.
	AvailableSpells []model.Spell
	Cooldowns       map[model.Spell]float64
}

// Provider is the upstream game. Events drains everything since the last call.
type Provider interface {
	State() GameState
	Events() []model.Event
}

// Sink receives every executor frame.
type Sink interface {
	Frame(f executor.Frame)
}

// Decider produces decisions and owns per-round remote state.
// *scheduler.Scheduler satisfies it.
type Decider interface {
	GetDecision(ctx context.Context, snap model.Snapshot, t model.Tier) model.Decision
	ResetRound()
}

// Memory records what happens in the match. *memory.Store satisfies it.
type Memory interface {
	RecordEvent(actor model.Actor, kind model.EventKind, detail string)
	RecordDistance(d float64)
	RecordRoundEnd(ctx context.Context, playerWon bool)
	RecordMatchEnd(ctx context.Context, playerWon bool, difficulty model.Tier) model.SessionSummary
	Tick(ctx context.Context, now time.Time)
}

// MultiSink fans a frame out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Frame(f executor.Frame) {
	for _, s := range m {
		s.Frame(f)
	}
}
