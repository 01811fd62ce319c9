// Package executor turns the latest decision into per-frame fighter output:
// delayed action firing, attack and block windows, and movement inside the
// arena.
package executor

import (
	"math"
	"time"

	"github.com/rcliao/duel-brain/internal/model"
)

// Tuning.
const (
	AttackDuration = 400 * time.Millisecond
	BlockDuration  = 600 * time.Millisecond

	EngageDistance = 2.2 // attacks are dropped beyond this
	MinApproach    = 1.2 // advance stops closing inside this
	ArenaRadius    = 9.0

	HistorySize = 6
)

// Delay returns how long after receipt an action with timing t fires.
func Delay(t model.Timing) time.Duration {
	switch t {
	case model.TimingDelayed:
		return 500 * time.Millisecond
	case model.TimingCautious:
		return 900 * time.Millisecond
	default:
		return 0
	}
}

// Vec2 is a point or direction on the arena floor.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) perpendicular() Vec2  { return Vec2{-v.Y, v.X} }

// ClampToArena pulls p back onto the arena circle of radius r, keeping its
// direction from the center.
func ClampToArena(p Vec2, r float64) Vec2 {
	l := p.Len()
	if l <= r || l == 0 {
		return p
	}
	return Vec2{p.X * r / l, p.Y * r / l}
}

// Frame is what the executor emits each tick.
type Frame struct {
	Position  Vec2       `json:"position"`
	Move      model.Move `json:"move"`
	Attacking bool       `json:"attacking"`
	Blocking  bool       `json:"blocking"`

	// Started is the action that began this tick, if any.
	Started model.Action `json:"started,omitempty"`
	// Cast is set only on the tick the spell fires.
	Cast model.Spell `json:"cast,omitempty"`
}

// Executor is driven from a single goroutine.
type Executor struct {
	speed float64
	pos   Vec2

	decision model.Decision
	armed    bool
	armedAt  time.Time

	attacking   bool
	attackStart time.Time
	blocking    bool
	blockStart  time.Time

	history []string
}

// New returns an executor standing at spawn, moving speed units per second.
func New(speed float64, spawn Vec2) *Executor {
	e := &Executor{speed: speed}
	e.Reset(spawn)
	return e
}

// Apply stores d and schedules its action for now + Delay(d.Timing). A newer
// decision replaces one that has not fired yet.
func (e *Executor) Apply(d model.Decision, now time.Time) {
	e.decision = d
	e.armed = true
	e.armedAt = now.Add(Delay(d.Timing))
}

// Tick advances one frame.
func (e *Executor) Tick(now time.Time, dt float64, opponent Vec2) Frame {
	if e.attacking && now.Sub(e.attackStart) >= AttackDuration {
		e.attacking = false
	}
	if e.blocking && now.Sub(e.blockStart) >= BlockDuration {
		e.blocking = false
	}

	var f Frame
	if e.armed && !now.Before(e.armedAt) {
		e.armed = false
		f.Started, f.Cast = e.fire(now, e.pos.Dist(opponent))
	}

	e.move(dt, opponent)

	f.Position = e.pos
	f.Move = e.decision.Move
	f.Attacking = e.attacking
	f.Blocking = e.blocking
	return f
}

func (e *Executor) fire(now time.Time, dist float64) (model.Action, model.Spell) {
	var started model.Action
	switch e.decision.Action {
	case model.ActionAttack:
		if !e.attacking && dist < EngageDistance {
			e.attacking = true
			e.attackStart = now
			started = model.ActionAttack
		}
	case model.ActionBlock:
		if !e.blocking {
			e.blocking = true
			e.blockStart = now
			started = model.ActionBlock
		}
	}
	if started != "" {
		e.remember(string(started))
	}
	if e.decision.Spell != model.SpellNone {
		e.remember("spell")
	}
	return started, e.decision.Spell
}

func (e *Executor) move(dt float64, opponent Vec2) {
	toward := opponent.Sub(e.pos)
	dist := toward.Len()
	if dist == 0 || dt <= 0 {
		return
	}
	unit := toward.Scale(1 / dist)
	step := e.speed * dt

	var delta Vec2
	switch e.decision.Move {
	case model.MoveAdvance:
		if dist <= MinApproach {
			return
		}
		delta = unit.Scale(math.Min(step, dist-MinApproach))
	case model.MoveRetreat:
		delta = unit.Scale(-step)
	case model.MoveStrafeLeft:
		delta = unit.perpendicular().Scale(step)
	case model.MoveStrafeRight:
		delta = unit.perpendicular().Scale(-step)
	default:
		return
	}
	e.pos = ClampToArena(e.pos.Add(delta), ArenaRadius)
}

func (e *Executor) remember(a string) {
	if len(e.history) >= HistorySize {
		e.history = e.history[1:]
	}
	e.history = append(e.history, a)
}

// Reset puts the executor back at spawn with no decision, no active windows
// and an empty history. Calling it twice is the same as calling it once.
func (e *Executor) Reset(spawn Vec2) {
	e.pos = ClampToArena(spawn, ArenaRadius)
	e.decision = model.Decision{Move: model.MoveHold, Action: model.ActionIdle, Timing: model.TimingImmediate}
	e.armed = false
	e.armedAt = time.Time{}
	e.attacking = false
	e.attackStart = time.Time{}
	e.blocking = false
	e.blockStart = time.Time{}
	e.history = nil
}

// RecentActions returns up to the last n fired actions, oldest first.
func (e *Executor) RecentActions(n int) []string {
	h := e.history
	if n >= 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	return append([]string{}, h...)
}

func (e *Executor) Position() Vec2           { return e.pos }
func (e *Executor) Attacking() bool          { return e.attacking }
func (e *Executor) Blocking() bool           { return e.blocking }
func (e *Executor) Decision() model.Decision { return e.decision }

// Speed returns the movement speed in arena units per second.
func (e *Executor) Speed() float64 { return e.speed }
