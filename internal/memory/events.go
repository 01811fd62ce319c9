package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/duel-brain/internal/model"
)

// Range buckets shared with the offline engine.
const (
	CloseRange = 2.0
	FarRange   = 3.5
)

// RecordEvent logs one combat event and bumps the matching session counters.
// Player attacks, blocks, spells and dodges also extend the action sequence.
func (s *Store) RecordEvent(actor model.Actor, kind model.EventKind, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.roundLog) >= MaxRoundLog {
		s.roundLog = s.roundLog[1:]
	}
	s.roundLog = append(s.roundLog, model.Event{Actor: actor, Kind: kind, Detail: detail, At: s.now()})

	cs := &s.rec.CurrentSession
	player := actor == model.ActorPlayer
	switch kind {
	case model.EventAttack:
		if player {
			cs.PlayerAttacks++
		} else {
			cs.AIAttacks++
		}
	case model.EventBlock:
		if player {
			cs.PlayerBlocks++
		} else {
			cs.AIBlocks++
		}
	case model.EventHit:
		if player {
			cs.PlayerHits++
		} else {
			cs.AIHits++
		}
	case model.EventDodge:
		if player {
			cs.PlayerDodges++
		} else {
			cs.AIDodges++
		}
	case model.EventSpell:
		if player {
			cs.PlayerSpells++
			if detail != "" {
				cs.SpellUses[detail]++
			}
		} else {
			cs.AISpells++
		}
	}

	if player && kind != model.EventHit {
		step := string(kind)
		if kind == model.EventSpell && detail != "" {
			step = "spell:" + detail
		}
		if len(cs.ActionSequence) >= MaxActionSequence {
			cs.ActionSequence = cs.ActionSequence[1:]
		}
		cs.ActionSequence = append(cs.ActionSequence, step)
	}

	s.touchLocked()
}

// RecordDistance adds a range sample used to infer the preferred range.
func (s *Store) RecordDistance(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := &s.rec.CurrentSession
	switch {
	case d < CloseRange:
		cs.CloseSamples++
	case d > FarRange:
		cs.FarSamples++
	default:
		cs.MidSamples++
	}
}

// RecordRoundEnd closes a round from the player's point of view.
func (s *Store) RecordRoundEnd(ctx context.Context, playerWon bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec.CurrentSession.Rounds++
	if playerWon {
		s.rec.CurrentSession.RoundsWon++
	}
	s.roundLog = nil
	s.touchLocked()
	s.saveLocked(ctx)
}

// RecordMatchEnd folds the session into the profile, appends a summary and
// starts a fresh session.
func (s *Store) RecordMatchEnd(ctx context.Context, playerWon bool, difficulty model.Tier) model.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &s.rec.Profile
	cs := s.rec.CurrentSession
	before := p.TotalFights
	prevAggression := p.AggressionRatio

	actions := cs.PlayerAttacks + cs.PlayerBlocks + cs.PlayerDodges + cs.PlayerSpells
	aggression := ratio(cs.PlayerAttacks, actions)
	blocking := ratio(cs.PlayerBlocks, actions)
	p.AggressionRatio = clamp01(Blend(p.AggressionRatio, aggression, before))
	p.BlockFrequency = clamp01(Blend(p.BlockFrequency, blocking, before))

	patterns := topPatterns(cs.ActionSequence)
	p.TopPatterns = patterns

	p.SkillRating = clamp(Blend(p.SkillRating, SessionSkill(cs, playerWon), before), 0, 10)

	won := 0.0
	if playerWon {
		won = 1
	}
	p.WinRate = clamp01((p.WinRate*float64(before) + won) / float64(before+1))
	p.TotalFights = before + 1

	p.LowHealthBehavior, p.WinningBehavior = classify(p.AggressionRatio, p.BlockFrequency)
	if r := preferredRange(cs); r != "" {
		p.PreferredRange = r
	}
	if p.SpellUsage == nil {
		p.SpellUsage = map[string]int{}
	}
	for sp, n := range cs.SpellUses {
		p.SpellUsage[sp] += n
	}

	result := "loss"
	if playerWon {
		result = "win"
	}
	summary := model.SessionSummary{
		ID:          ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Date:        now,
		Rounds:      cs.Rounds,
		Result:      result,
		Difficulty:  difficulty,
		SkillRating: p.SkillRating,
		Adaptations: adaptations(cs, aggression, blocking, prevAggression, playerWon, patterns),
	}
	s.rec.Sessions = append(s.rec.Sessions, summary)
	if len(s.rec.Sessions) > MaxSessions {
		s.rec.Sessions = s.rec.Sessions[len(s.rec.Sessions)-MaxSessions:]
	}

	s.rec.CurrentSession = model.NewCurrentSession(now)
	s.roundLog = nil
	s.touchLocked()
	s.saveLocked(ctx)

	s.log.Info().
		Str("result", result).
		Int("fights", p.TotalFights).
		Float64("aggression", p.AggressionRatio).
		Float64("skill", p.SkillRating).
		Msg("match folded into profile")
	return summary
}

// SessionSkill scores one match on the 0..10 scale:
// hitAccuracy*4 + survivalRate*3 + 3 for a win.
func SessionSkill(cs model.CurrentSession, playerWon bool) float64 {
	accuracy := clamp01(ratio(cs.PlayerHits, cs.PlayerAttacks))
	survival := 1.0
	if cs.AIAttacks > 0 {
		survival = clamp01(1 - ratio(cs.AIHits, cs.AIAttacks))
	}
	score := accuracy*4 + survival*3
	if playerWon {
		score += 3
	}
	return score
}

func classify(aggression, blocking float64) (lowHealth, winning string) {
	switch {
	case aggression > 0.6:
		lowHealth = model.BehaviorDesperate
	case blocking > 0.35:
		lowHealth = model.BehaviorTurtle
	default:
		lowHealth = model.BehaviorBalanced
	}
	switch {
	case aggression > 0.5 && blocking < 0.3:
		winning = model.BehaviorPress
	case blocking > 0.4:
		winning = model.BehaviorCoast
	default:
		winning = model.BehaviorBalanced
	}
	return lowHealth, winning
}

func preferredRange(cs model.CurrentSession) string {
	best, n := "", 0
	for _, c := range []struct {
		name  string
		count int
	}{
		{model.RangeClose, cs.CloseSamples},
		{model.RangeMid, cs.MidSamples},
		{model.RangeFar, cs.FarSamples},
	} {
		if c.count > n {
			best, n = c.name, c.count
		}
	}
	return best
}

func favoriteSpell(uses map[string]int) (string, int) {
	names := make([]string, 0, len(uses))
	for k := range uses {
		names = append(names, k)
	}
	sort.Strings(names)
	best, n := "", 0
	for _, k := range names {
		if uses[k] > n {
			best, n = k, uses[k]
		}
	}
	return best, n
}

func adaptations(cs model.CurrentSession, aggression, blocking, prevAggression float64, playerWon bool, patterns []string) []string {
	out := []string{}
	if aggression > 0.6 {
		out = append(out, "Player is highly aggressive: block more and counter after their swings")
	}
	if blocking > 0.4 {
		out = append(out, "Player blocks often: use delayed attacks and spells to break their guard")
	}
	if cs.PlayerHits > cs.AIHits {
		out = append(out, fmt.Sprintf("Player out-damaged the AI (%d hits to %d): tighten spacing and stop trading", cs.PlayerHits, cs.AIHits))
	}
	if sp, n := favoriteSpell(cs.SpellUses); n >= 2 {
		out = append(out, fmt.Sprintf("Player favors %s (%d casts): respect it while it is off cooldown", sp, n))
	}
	if len(patterns) > 0 {
		out = append(out, fmt.Sprintf("Player repeats %s: anticipate the sequence and punish it", patterns[0]))
	}
	if !playerWon && aggression > prevAggression+0.1 {
		out = append(out, "Player gets more aggressive after losing: expect an early rush next match")
	}
	return out
}
