// Package offline is the zero-latency heuristic decision source. It backs up
// the remote scheduler and is the only source on the easy tier.
package offline

import (
	"math/rand"
	"sync"

	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/tier"
)

// Distance and health buckets.
const (
	CloseRange     = 2.0
	FarRange       = 3.5
	ExtendedRange  = 5.0
	BehindBy       = -20.0
	CriticalHealth = 25.0
)

// Engine makes rule-based decisions. The random source only breaks ties
// between equally reasonable options.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Engine with a seeded random source.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

func (e *Engine) chance(p float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < p
}

// situation is the bucketed view every tier reasons over.
type situation struct {
	close, far, mid bool
	ahead, behind   bool
	aggressive      bool
}

func bucket(s model.Snapshot, t model.Tier) situation {
	diff := s.HealthDiff()
	sit := situation{
		close:      s.Distance < CloseRange,
		far:        s.Distance > FarRange,
		ahead:      diff > tier.For(t).AheadThreshold,
		behind:     diff < BehindBy,
		aggressive: s.OpponentAggressive(),
	}
	sit.mid = !sit.close && !sit.far
	return sit
}

// Decide returns a decision for the snapshot. profile may be nil; only the
// adaptive tier reads it.
func (e *Engine) Decide(s model.Snapshot, t model.Tier, profile *model.Profile) model.Decision {
	sit := bucket(s, t)

	var d model.Decision
	switch t {
	case model.TierEasy:
		d = e.easy(sit)
	case model.TierMedium:
		d = e.medium(sit)
	case model.TierAdaptive:
		if profile != nil && profile.TotalFights > 0 {
			d = e.adaptive(sit, *profile)
		} else {
			d = e.hard(sit)
		}
	default:
		d = e.hard(sit)
	}

	if t != model.TierEasy {
		d.Spell = pickSpell(s, sit)
	}
	return d
}

func (e *Engine) easy(sit situation) model.Decision {
	switch {
	case sit.far:
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingDelayed}
	case sit.close:
		if e.chance(0.6) {
			return model.Decision{Move: model.MoveHold, Action: model.ActionAttack, Timing: model.TimingCautious}
		}
		return model.Decision{Move: model.MoveHold, Action: model.ActionIdle, Timing: model.TimingCautious}
	default:
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingDelayed}
	}
}

func (e *Engine) medium(sit situation) model.Decision {
	switch {
	case sit.far:
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingImmediate}
	case sit.close && sit.behind:
		return model.Decision{Move: model.MoveRetreat, Action: model.ActionBlock, Timing: model.TimingImmediate}
	case sit.close && sit.aggressive:
		if e.chance(0.5) {
			return model.Decision{Move: model.MoveHold, Action: model.ActionBlock, Timing: model.TimingImmediate}
		}
		return model.Decision{Move: model.MoveHold, Action: model.ActionAttack, Timing: model.TimingDelayed}
	case sit.close:
		return model.Decision{Move: model.MoveHold, Action: model.ActionAttack, Timing: model.TimingImmediate}
	default:
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingDelayed}
	}
}

func (e *Engine) hard(sit situation) model.Decision {
	switch {
	case sit.far:
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingImmediate}
	case sit.close && sit.aggressive:
		return model.Decision{Move: e.strafe(), Action: model.ActionBlock, Timing: model.TimingImmediate}
	case sit.close && sit.ahead:
		return model.Decision{Move: model.MoveHold, Action: model.ActionAttack, Timing: model.TimingImmediate}
	case sit.close && sit.behind:
		return model.Decision{Move: e.strafe(), Action: model.ActionAttack, Timing: model.TimingDelayed}
	case sit.close:
		return model.Decision{Move: model.MoveHold, Action: model.ActionAttack, Timing: model.TimingImmediate}
	case sit.behind:
		return model.Decision{Move: e.strafe(), Action: model.ActionIdle, Timing: model.TimingDelayed}
	default:
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingImmediate}
	}
}

// adaptive biases the hard tree with what the profile knows about the player.
func (e *Engine) adaptive(sit situation, p model.Profile) model.Decision {
	if sit.far {
		return model.Decision{Move: model.MoveAdvance, Action: model.ActionIdle, Timing: model.TimingImmediate}
	}

	strafeP := 0.2 + 0.5*p.AggressionRatio
	blockP := 0.15 + 0.45*p.AggressionRatio
	if sit.aggressive {
		blockP += 0.2
	}
	delayP := 0.1 + 0.6*p.BlockFrequency
	immediateP := p.SkillRating / 10

	move := model.MoveAdvance
	if sit.close {
		move = model.MoveHold
	}
	if e.chance(strafeP) {
		move = e.strafe()
	}

	if !sit.close {
		timing := model.TimingDelayed
		if e.chance(immediateP) {
			timing = model.TimingImmediate
		}
		return model.Decision{Move: move, Action: model.ActionIdle, Timing: timing}
	}

	if e.chance(blockP) {
		return model.Decision{Move: move, Action: model.ActionBlock, Timing: model.TimingImmediate}
	}
	timing := model.TimingImmediate
	switch {
	case e.chance(delayP):
		timing = model.TimingDelayed
	case !e.chance(immediateP):
		timing = model.TimingCautious
	}
	return model.Decision{Move: move, Action: model.ActionAttack, Timing: timing}
}

func (e *Engine) strafe() model.Move {
	if e.chance(0.5) {
		return model.MoveStrafeLeft
	}
	return model.MoveStrafeRight
}

// pickSpell applies the spell priority: stun an aggressive opponent in
// extended range, finish a critically low opponent, slow them when behind at
// mid range. Spells whose debuff is already active are never re-applied.
func pickSpell(s model.Snapshot, sit situation) model.Spell {
	switch {
	case sit.aggressive && s.Distance <= ExtendedRange && s.CanCast(model.SpellStun):
		return model.SpellStun
	case s.OpponentHealth <= CriticalHealth && s.CanCast(model.SpellFireball):
		return model.SpellFireball
	case sit.behind && sit.mid && s.CanCast(model.SpellFrost):
		return model.SpellFrost
	}
	return model.SpellNone
}
