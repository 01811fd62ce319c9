// Package model defines the core combat and player-profile data types.
package model

import (
	"fmt"
	"strings"
)

// Move is the locomotion half of a decision.
type Move string

const (
	MoveAdvance     Move = "advance"
	MoveRetreat     Move = "retreat"
	MoveStrafeLeft  Move = "strafe_left"
	MoveStrafeRight Move = "strafe_right"
	MoveHold        Move = "hold"
)

// Action is the combat half of a decision.
type Action string

const (
	ActionAttack Action = "attack"
	ActionBlock  Action = "block"
	ActionIdle   Action = "idle"
)

// Timing controls how long after receipt the action fires.
type Timing string

const (
	TimingImmediate Timing = "immediate"
	TimingDelayed   Timing = "delayed"
	TimingCautious  Timing = "cautious"
)

// Spell names a castable spell. The zero value means no spell.
type Spell string

const (
	SpellNone     Spell = ""
	SpellStun     Spell = "stun"
	SpellFireball Spell = "fireball"
	SpellFrost    Spell = "frost"
)

// ValidMoves are the allowed moves.
var ValidMoves = map[Move]bool{
	MoveAdvance:     true,
	MoveRetreat:     true,
	MoveStrafeLeft:  true,
	MoveStrafeRight: true,
	MoveHold:        true,
}

// ValidActions are the allowed actions.
var ValidActions = map[Action]bool{
	ActionAttack: true,
	ActionBlock:  true,
	ActionIdle:   true,
}

// ValidTimings are the allowed timings.
var ValidTimings = map[Timing]bool{
	TimingImmediate: true,
	TimingDelayed:   true,
	TimingCautious:  true,
}

// ValidSpells are the allowed spells, including none.
var ValidSpells = map[Spell]bool{
	SpellNone:     true,
	SpellStun:     true,
	SpellFireball: true,
	SpellFrost:    true,
}

// Decision is one tactical instruction for the AI fighter.
type Decision struct {
	Move   Move   `json:"move"`
	Action Action `json:"action"`
	Timing Timing `json:"timing"`
	Spell  Spell  `json:"spell,omitempty"`
}

// Valid reports whether every field is a member of its enum.
func (d Decision) Valid() bool {
	return ValidMoves[d.Move] && ValidActions[d.Action] && ValidTimings[d.Timing] && ValidSpells[d.Spell]
}

func (d Decision) String() string {
	s := fmt.Sprintf("%s/%s/%s", d.Move, d.Action, d.Timing)
	if d.Spell != SpellNone {
		s += "+" + string(d.Spell)
	}
	return s
}

// Debuffs are status effects currently active on the opponent.
type Debuffs struct {
	Stunned bool `json:"stunned"`
	Slowed  bool `json:"slowed"`
	Burning bool `json:"burning"`
}

// Has reports whether the debuff applied by s is already active.
func (d Debuffs) Has(s Spell) bool {
	switch s {
	case SpellStun:
		return d.Stunned
	case SpellFrost:
		return d.Slowed
	case SpellFireball:
		return d.Burning
	}
	return false
}

// MaxRecentActions bounds the per-actor action lists carried by a Snapshot.
const MaxRecentActions = 3

// Snapshot is the read-only situational summary a decision is made from.
type Snapshot struct {
	MyHealth              float64           `json:"myHealth"`
	OpponentHealth        float64           `json:"opponentHealth"`
	Distance              float64           `json:"distance"`
	Round                 int               `json:"round"`
	TimeRemaining         float64           `json:"timeRemaining"`
	MyRecentActions       []string          `json:"myRecentActions"`
	OpponentRecentActions []string          `json:"opponentRecentActions"`
	MyBlocking            bool              `json:"myBlocking"`
	OpponentBlocking      bool              `json:"opponentBlocking"`
	AvailableSpells       []Spell           `json:"availableSpells"`
	Cooldowns             map[Spell]float64 `json:"cooldowns"`
	OpponentDebuffs       Debuffs           `json:"opponentDebuffs"`
}

// NewSnapshot returns a copy of s with its action lists truncated to the most
// recent MaxRecentActions entries and its slices and maps detached from the caller.
func NewSnapshot(s Snapshot) Snapshot {
	s.MyRecentActions = lastN(s.MyRecentActions, MaxRecentActions)
	s.OpponentRecentActions = lastN(s.OpponentRecentActions, MaxRecentActions)
	s.AvailableSpells = append([]Spell(nil), s.AvailableSpells...)
	cds := make(map[Spell]float64, len(s.Cooldowns))
	for k, v := range s.Cooldowns {
		cds[k] = v
	}
	s.Cooldowns = cds
	return s
}

// CanCast reports whether sp is available, off cooldown and not already active
// on the opponent.
func (s Snapshot) CanCast(sp Spell) bool {
	if sp == SpellNone {
		return true
	}
	if s.Cooldowns[sp] > 0 || s.OpponentDebuffs.Has(sp) {
		return false
	}
	for _, a := range s.AvailableSpells {
		if a == sp {
			return true
		}
	}
	return false
}

// HealthDiff is own health minus opponent health.
func (s Snapshot) HealthDiff() float64 {
	return s.MyHealth - s.OpponentHealth
}

// OpponentAggressive reports whether at least two of the opponent's last
// three tracked actions were attacks.
func (s Snapshot) OpponentAggressive() bool {
	n := 0
	for _, a := range lastN(s.OpponentRecentActions, MaxRecentActions) {
		if a == string(ActionAttack) {
			n++
		}
	}
	return n >= 2
}

func lastN(in []string, n int) []string {
	if len(in) > n {
		in = in[len(in)-n:]
	}
	return append([]string(nil), in...)
}

// Tier is a difficulty level.
type Tier string

const (
	TierEasy     Tier = "easy"
	TierMedium   Tier = "medium"
	TierHard     Tier = "hard"
	TierAdaptive Tier = "adaptive"
)

// ValidTiers are the known difficulty tiers.
var ValidTiers = map[Tier]bool{
	TierEasy:     true,
	TierMedium:   true,
	TierHard:     true,
	TierAdaptive: true,
}

// ParseTier converts a case-insensitive tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !ValidTiers[t] {
		return "", fmt.Errorf("unknown tier %q (use easy, medium, hard, adaptive)", s)
	}
	return t, nil
}
