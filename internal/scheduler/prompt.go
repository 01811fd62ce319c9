package scheduler

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/tier"
)

// Tag thresholds for the situational brief.
const (
	LowHealth     = 25.0
	MeleeRange    = 2.0
	FarRange      = 3.5
	TimePressure  = 15.0
	HealthSwing   = 15.0
	responseReply = `Answer with the JSON object only, e.g. {"move":"advance","action":"attack","timing":"immediate","spell":"none"}`
)

// Tags returns the qualitative labels that describe the snapshot.
func Tags(s model.Snapshot) []string {
	var tags []string
	if s.MyHealth <= LowHealth {
		tags = append(tags, "critical-health")
	}
	if s.OpponentHealth <= LowHealth {
		tags = append(tags, "opponent-low")
	}
	switch {
	case s.Distance < MeleeRange:
		tags = append(tags, "melee-range")
	case s.Distance > FarRange:
		tags = append(tags, "far-range")
	}
	if s.TimeRemaining <= TimePressure {
		tags = append(tags, "time-pressure")
	}
	if s.OpponentAggressive() {
		tags = append(tags, "aggressive-opponent")
	}
	if s.OpponentBlocking {
		tags = append(tags, "guarding")
	}
	switch diff := s.HealthDiff(); {
	case diff > HealthSwing:
		tags = append(tags, "winning")
	case diff < -HealthSwing:
		tags = append(tags, "losing")
	}
	return tags
}

// SituationBrief renders the user message for one decision request.
func SituationBrief(s model.Snapshot) string {
	var b strings.Builder
	tags := Tags(s)
	if len(tags) == 0 {
		tags = []string{"neutral"}
	}
	fmt.Fprintf(&b, "Situation: %s\n", strings.Join(tags, ", "))
	fmt.Fprintf(&b, "Health: me %.0f, opponent %.0f. Distance %.1f. Round %d, %.0fs left.\n",
		s.MyHealth, s.OpponentHealth, s.Distance, s.Round, math.Max(s.TimeRemaining, 0))
	fmt.Fprintf(&b, "Opponent recent: %s. Me recent: %s.\n", listOrNone(s.OpponentRecentActions), listOrNone(s.MyRecentActions))

	var ready []string
	for _, sp := range s.AvailableSpells {
		if s.CanCast(sp) {
			ready = append(ready, string(sp))
		}
	}
	fmt.Fprintf(&b, "Spells ready: %s.", listOrNone(ready))
	if cds := cooldowns(s.Cooldowns); cds != "" {
		fmt.Fprintf(&b, " Cooling down: %s.", cds)
	}
	b.WriteString("\n")
	if d := s.OpponentDebuffs; d.Stunned || d.Slowed || d.Burning {
		var active []string
		if d.Stunned {
			active = append(active, "stunned")
		}
		if d.Slowed {
			active = append(active, "slowed")
		}
		if d.Burning {
			active = append(active, "burning")
		}
		fmt.Fprintf(&b, "Opponent is %s.\n", strings.Join(active, " and "))
	}
	b.WriteString(responseReply)
	return b.String()
}

// SystemPrompt is the tier persona, prefixed by the memory brief when the
// tier uses memory.
func SystemPrompt(st tier.Settings, brief string) string {
	if !st.UseMemory || brief == "" {
		return st.Persona
	}
	return brief + "\n\n" + st.Persona
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func cooldowns(cds map[model.Spell]float64) string {
	names := make([]string, 0, len(cds))
	for sp, left := range cds {
		if left > 0 {
			names = append(names, string(sp))
		}
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s %.1fs", n, cds[model.Spell(n)]))
	}
	return strings.Join(parts, ", ")
}
