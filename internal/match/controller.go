// Package match runs one duel: a slow decision loop feeding a fast execution
// loop, both driven from a single goroutine.
package match

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/duel-brain/internal/executor"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/tier"
)

// DefaultExecRate is the execution loop period.
const DefaultExecRate = time.Second / 60

// ErrNoProvider is returned by New without a provider.
var ErrNoProvider = errors.New("match: provider is required")

// Options configures a Controller.
type Options struct {
	Tier     model.Tier
	Spawn    executor.Vec2
	ExecRate time.Duration
	// Interval overrides the tier's decision interval.
	Interval time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger
}

type result struct {
	token    uint64
	decision model.Decision
}

// Controller owns the executor and the round token. Every method except Run's
// request goroutine executes on the loop goroutine.
type Controller struct {
	provider Provider
	sink     Sink
	decider  Decider
	memory   Memory
	exec     *executor.Executor
	settings tier.Settings
	opts     Options
	log      zerolog.Logger

	results  chan result
	token    uint64
	inFlight bool

	round      int
	roundsSeen int
	lastExec   time.Time
	summary    model.SessionSummary
	over       bool
}

// New wires a controller. memory and sink may be nil.
func New(p Provider, sink Sink, d Decider, mem Memory, opts Options) (*Controller, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	if opts.Tier == "" {
		opts.Tier = model.TierMedium
	}
	if opts.ExecRate <= 0 {
		opts.ExecRate = DefaultExecRate
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Spawn == (executor.Vec2{}) {
		opts.Spawn = executor.Vec2{X: 3}
	}
	st := tier.For(opts.Tier)
	if opts.Interval <= 0 {
		opts.Interval = st.Interval
	}
	return &Controller{
		round:    p.State().Round,
		provider: p,
		sink:     sink,
		decider:  d,
		memory:   mem,
		exec:     executor.New(st.Speed, opts.Spawn),
		settings: st,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "match").Str("tier", string(opts.Tier)).Logger(),
		results:  make(chan result, 1),
	}, nil
}

// Run drives the match until it ends or ctx is cancelled. It returns the
// session summary recorded at match end.
func (c *Controller) Run(ctx context.Context) (model.SessionSummary, error) {
	decide := time.NewTicker(c.opts.Interval)
	defer decide.Stop()
	execute := time.NewTicker(c.opts.ExecRate)
	defer execute.Stop()

	c.log.Info().Dur("interval", c.opts.Interval).Msg("match started")
	c.DecisionTick(ctx)

	for {
		select {
		case <-ctx.Done():
			return c.summary, ctx.Err()
		case r := <-c.results:
			c.deliver(r)
		case <-decide.C:
			c.DecisionTick(ctx)
		case now := <-execute.C:
			if c.ExecTick(ctx, now) {
				return c.summary, nil
			}
		}
	}
}

// DecisionTick starts a decision request unless one is already in flight. It
// reports whether a request was started.
func (c *Controller) DecisionTick(ctx context.Context) bool {
	if c.inFlight || c.over || c.decider == nil {
		return false
	}
	state := c.provider.State()
	snap := c.Snapshot(state)
	if c.memory != nil {
		c.memory.RecordDistance(snap.Distance)
	}

	c.inFlight = true
	tok := c.token
	go func() {
		d := c.decider.GetDecision(ctx, snap, c.opts.Tier)
		c.results <- result{token: tok, decision: d}
	}()
	return true
}

// deliver applies a finished request. Results from an earlier round are
// dropped. It reports whether the decision was applied.
func (c *Controller) deliver(r result) bool {
	c.inFlight = false
	if r.token != c.token {
		c.log.Debug().Uint64("token", r.token).Uint64("current", c.token).Msg("stale decision dropped")
		return false
	}
	c.exec.Apply(r.decision, c.opts.Now())
	c.log.Debug().Stringer("decision", r.decision).Msg("decision applied")
	return true
}

// ExecTick runs one execution frame. It reports true once the match is over.
func (c *Controller) ExecTick(ctx context.Context, now time.Time) bool {
	if c.over {
		return true
	}
	state := c.provider.State()

	if state.Round != c.round {
		c.startRound(state.Round)
	}
	for _, ev := range c.provider.Events() {
		if c.memory != nil {
			c.memory.RecordEvent(ev.Actor, ev.Kind, ev.Detail)
		}
	}
	for c.roundsSeen < state.RoundsCompleted {
		c.roundsSeen++
		if c.memory != nil {
			c.memory.RecordRoundEnd(ctx, state.LastRoundWinner == model.ActorPlayer)
		}
	}

	dt := 0.0
	if !c.lastExec.IsZero() {
		dt = now.Sub(c.lastExec).Seconds()
	}
	c.lastExec = now

	frame := c.exec.Tick(now, dt, state.PlayerPos)
	if c.sink != nil {
		c.sink.Frame(frame)
	}
	if c.memory != nil {
		c.memory.Tick(ctx, now)
	}

	if state.MatchOver {
		c.finish(ctx, state)
		return true
	}
	return false
}

func (c *Controller) startRound(round int) {
	c.round = round
	c.token++
	c.exec.Reset(c.opts.Spawn)
	c.lastExec = time.Time{}
	if c.decider != nil {
		c.decider.ResetRound()
	}
	c.log.Info().Int("round", round).Msg("round started")
}

func (c *Controller) finish(ctx context.Context, state GameState) {
	c.over = true
	c.token++
	playerWon := state.MatchWinner == model.ActorPlayer
	if c.memory != nil {
		c.summary = c.memory.RecordMatchEnd(ctx, playerWon, c.opts.Tier)
	}
	c.log.Info().Bool("playerWon", playerWon).Int("rounds", state.RoundsCompleted).Msg("match over")
}

// Snapshot builds the decision input from the provider state and the
// executor, from the AI's point of view.
func (c *Controller) Snapshot(state GameState) model.Snapshot {
	return model.NewSnapshot(model.Snapshot{
		MyHealth:              state.AIHealth,
		OpponentHealth:        state.PlayerHealth,
		Distance:              c.exec.Position().Dist(state.PlayerPos),
		Round:                 state.Round,
		TimeRemaining:         state.TimeRemaining,
		MyRecentActions:       c.exec.RecentActions(model.MaxRecentActions),
		OpponentRecentActions: state.PlayerRecentActions,
		MyBlocking:            c.exec.Blocking(),
		OpponentBlocking:      state.PlayerBlocking,
		AvailableSpells:       state.AvailableSpells,
		Cooldowns:             state.Cooldowns,
		OpponentDebuffs:       state.PlayerDebuffs,
	})
}

// Executor exposes the executor for inspection.
func (c *Controller) Executor() *executor.Executor { return c.exec }

// Token is the current round token.
func (c *Controller) Token() uint64 { return c.token }
