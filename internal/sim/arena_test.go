package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/duel-brain/internal/executor"
	"github.com/rcliao/duel-brain/internal/match"
	"github.com/rcliao/duel-brain/internal/memory"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/offline"
	"github.com/rcliao/duel-brain/internal/scheduler"
)

var _ match.Provider = (*Arena)(nil)
var _ match.Sink = (*Arena)(nil)

func idleFrame(pos executor.Vec2) executor.Frame {
	return executor.Frame{Position: pos, Move: model.MoveHold}
}

func TestRoundEndsOnTimeout(t *testing.T) {
	a := New(Options{RoundTime: 0.1, Step: 0.05, Seed: 1})
	a.mu.Lock()
	a.aiHealth = 90
	a.playerHealth = 95
	a.mu.Unlock()

	// Keep the AI far away so the bot cannot fight.
	far := executor.Vec2{X: 9}
	a.player.stunLeft = 10
	a.Frame(idleFrame(far))
	a.Frame(idleFrame(far))

	st := a.State()
	assert.Equal(t, 1, st.RoundsCompleted)
	assert.Equal(t, model.ActorPlayer, st.LastRoundWinner)
	assert.Equal(t, 2, st.Round)
	assert.Equal(t, MaxHealth, st.PlayerHealth, "next round starts fresh")
	assert.False(t, st.MatchOver)
}

func TestAIAttackHitsUnblockedPlayer(t *testing.T) {
	a := New(Options{Seed: 1})
	a.player.stunLeft = 10
	a.player.pos = executor.Vec2{X: 1}

	a.Frame(executor.Frame{Position: executor.Vec2{X: 2.5}, Attacking: true, Started: model.ActionAttack})

	st := a.State()
	assert.Equal(t, MaxHealth-AIDamage, st.PlayerHealth)
	events := a.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.Event{Actor: model.ActorAI, Kind: model.EventAttack}, events[0])
	assert.Equal(t, model.Event{Actor: model.ActorAI, Kind: model.EventHit}, events[1])
	assert.Empty(t, a.Events(), "events are drained")
}

func TestBlockedAttackDoesNoDamage(t *testing.T) {
	a := New(Options{Seed: 1})
	a.player.pos = executor.Vec2{X: 1}
	a.player.blockLeft = 1
	a.player.thinkLeft = 10

	a.Frame(executor.Frame{Position: executor.Vec2{X: 2.5}, Attacking: true, Started: model.ActionAttack})
	assert.Equal(t, MaxHealth, a.State().PlayerHealth)
}

func TestSpellsApplyDebuffsAndCooldowns(t *testing.T) {
	a := New(Options{Seed: 1})
	far := executor.Vec2{X: 9}

	a.Frame(executor.Frame{Position: far, Cast: model.SpellStun})
	st := a.State()
	assert.True(t, st.PlayerDebuffs.Stunned)
	assert.InDelta(t, SpellCooldowns[model.SpellStun], st.Cooldowns[model.SpellStun], 0.1)

	// A second cast while cooling down is ignored.
	a.Events()
	a.Frame(executor.Frame{Position: far, Cast: model.SpellStun})
	for _, ev := range a.Events() {
		assert.NotEqual(t, model.EventSpell, ev.Kind)
	}

	a.Frame(executor.Frame{Position: far, Cast: model.SpellFireball})
	st = a.State()
	assert.True(t, st.PlayerDebuffs.Burning)
	assert.Less(t, st.PlayerHealth, MaxHealth-FireballDamage+0.01)
}

func TestMatchEndsAfterRoundsToWin(t *testing.T) {
	a := New(Options{RoundTime: 0.05, Step: 0.05, RoundsToWin: 2, Seed: 3})
	far := executor.Vec2{X: 9}
	for i := 0; i < 10 && !a.State().MatchOver; i++ {
		a.player.stunLeft = 10
		a.Frame(idleFrame(far))
	}
	st := a.State()
	require.True(t, st.MatchOver)
	// Equal health on timeout goes to the AI.
	assert.Equal(t, model.ActorAI, st.MatchWinner)
	assert.Equal(t, 2, st.RoundsCompleted)
	player, ai := a.Wins()
	assert.Equal(t, 0, player)
	assert.Equal(t, 2, ai)
}

func TestFullMatchOffline(t *testing.T) {
	arena := New(Options{RoundTime: 3, Step: 0.05, Seed: 42, Aggression: 0.8})
	mem := memory.New(nil, memory.Options{})
	sched := scheduler.New(nil, scheduler.Options{Offline: offline.New(7), Memory: mem})

	c, err := match.New(arena, arena, sched, mem, match.Options{
		Tier:     model.TierAdaptive,
		Spawn:    AISpawn,
		ExecRate: time.Millisecond,
		Interval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	summary, err := c.Run(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, model.TierAdaptive, summary.Difficulty)
	assert.GreaterOrEqual(t, summary.Rounds, 2)

	p := mem.Profile()
	assert.Equal(t, 1, p.TotalFights)
	assert.GreaterOrEqual(t, p.AggressionRatio, 0.0)
	assert.LessOrEqual(t, p.AggressionRatio, 1.0)
}
