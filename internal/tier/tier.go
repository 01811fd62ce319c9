// Package tier holds per-difficulty tuning for the decision and execution loops.
package tier

import (
	"time"

	"github.com/rcliao/duel-brain/internal/model"
)

// Settings tunes one difficulty tier.
type Settings struct {
	Tier model.Tier

	// Remote is false for tiers that must never touch the network.
	Remote      bool
	Temperature float32
	Interval    time.Duration

	// UseMemory prepends the player-profile brief to remote requests.
	UseMemory bool
	// MultiTurn keeps a per-round conversation history.
	MultiTurn bool

	Speed          float64 // arena units per second
	AheadThreshold float64 // health lead that counts as "ahead"
	Persona        string
}

const personaContract = `Reply with ONE JSON object and nothing else:
{"move":"advance|retreat|strafe_left|strafe_right|hold","action":"attack|block|idle","timing":"immediate|delayed|cautious","spell":"stun|fireball|frost|none"}`

var table = map[model.Tier]Settings{
	model.TierEasy: {
		Tier:           model.TierEasy,
		Interval:       1500 * time.Millisecond,
		Speed:          2.2,
		AheadThreshold: 20,
		Persona:        "You are a clumsy training-dummy duelist. You telegraph every move.\n" + personaContract,
	},
	model.TierMedium: {
		Tier:           model.TierMedium,
		Remote:         true,
		Temperature:    0.9,
		Interval:       1200 * time.Millisecond,
		Speed:          2.8,
		AheadThreshold: 20,
		Persona:        "You are a competent arena duelist. Trade blows when safe, guard when pressed.\n" + personaContract,
	},
	model.TierHard: {
		Tier:           model.TierHard,
		Remote:         true,
		Temperature:    0.6,
		Interval:       800 * time.Millisecond,
		MultiTurn:      true,
		Speed:          3.4,
		AheadThreshold: 15,
		Persona:        "You are a veteran duelist. Punish overextension, control spacing, spend spells for decisive swings.\n" + personaContract,
	},
	model.TierAdaptive: {
		Tier:           model.TierAdaptive,
		Remote:         true,
		Temperature:    0.5,
		Interval:       800 * time.Millisecond,
		UseMemory:      true,
		MultiTurn:      true,
		Speed:          3.4,
		AheadThreshold: 15,
		Persona:        "You are a master duelist who has studied this opponent before. Exploit their habits from the dossier.\n" + personaContract,
	},
}

// For returns the settings for t, falling back to medium for unknown tiers.
func For(t model.Tier) Settings {
	if s, ok := table[t]; ok {
		return s
	}
	return table[model.TierMedium]
}
