package memory

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// NeutralBrief is rendered before the first recorded fight.
const NeutralBrief = "No prior history with this player. Observe their habits and fight a balanced style."

const (
	briefSessions     = 3
	briefAdaptations  = 2
	briefMaxChars     = 1600
	briefLivePatterns = 2
)

// BuildMemoryPrompt renders the profile, the last few sessions and the live
// session into a compact dossier for the remote model.
func (s *Store) BuildMemoryPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.rec.Profile
	if p.TotalFights == 0 {
		return NeutralBrief
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PLAYER DOSSIER (%d fights, player win rate %.0f%%, skill %.1f/10)\n",
		p.TotalFights, p.WinRate*100, p.SkillRating)
	fmt.Fprintf(&b, "Style: aggression %.2f, blocking %.2f, prefers %s range\n",
		p.AggressionRatio, p.BlockFrequency, p.PreferredRange)
	fmt.Fprintf(&b, "Low health: %s. When winning: %s.\n", p.LowHealthBehavior, p.WinningBehavior)
	if len(p.TopPatterns) > 0 {
		fmt.Fprintf(&b, "Habits: %s\n", strings.Join(p.TopPatterns, " | "))
	}
	if spells := renderSpells(p.SpellUsage); spells != "" {
		fmt.Fprintf(&b, "Spells: %s\n", spells)
	}

	sessions := s.rec.Sessions
	if len(sessions) > briefSessions {
		sessions = sessions[len(sessions)-briefSessions:]
	}
	if len(sessions) > 0 {
		b.WriteString("Recent matches:\n")
		for i := len(sessions) - 1; i >= 0; i-- {
			ss := sessions[i]
			fmt.Fprintf(&b, "- %s %s player %s, %d rounds, skill %.1f",
				ss.Date.Format("2006-01-02"), ss.Difficulty, ss.Result, ss.Rounds, ss.SkillRating)
			notes := ss.Adaptations
			if len(notes) > briefAdaptations {
				notes = notes[:briefAdaptations]
			}
			if len(notes) > 0 {
				fmt.Fprintf(&b, "; %s", strings.Join(notes, "; "))
			}
			b.WriteString("\n")
		}
	}

	cs := s.rec.CurrentSession
	if cs.PlayerAttacks+cs.PlayerBlocks+cs.PlayerDodges+cs.PlayerSpells > 0 || cs.Rounds > 0 {
		fmt.Fprintf(&b, "This match: %d attacks, %d blocks, %d dodges, %d hits landed, %d/%d rounds won\n",
			cs.PlayerAttacks, cs.PlayerBlocks, cs.PlayerDodges, cs.PlayerHits, cs.RoundsWon, cs.Rounds)
	}
	if live := CountPatterns(cs.ActionSequence, 2); len(live) > 0 {
		if len(live) > briefLivePatterns {
			live = live[:briefLivePatterns]
		}
		parts := make([]string, 0, len(live))
		for _, lp := range live {
			parts = append(parts, fmt.Sprintf("%s x%d", lp.Seq, lp.Count))
		}
		fmt.Fprintf(&b, "Live patterns: %s\n", strings.Join(parts, " | "))
	}

	out := strings.TrimRight(b.String(), "\n")
	if len(out) > briefMaxChars {
		cut := briefMaxChars
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "..."
	}
	return out
}

func renderSpells(usage map[string]int) string {
	names := make([]string, 0, len(usage))
	for k, v := range usage {
		if v > 0 {
			names = append(names, k)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if usage[names[i]] != usage[names[j]] {
			return usage[names[i]] > usage[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s x%d", n, usage[n]))
	}
	return strings.Join(parts, ", ")
}
