package model

import "time"

// Actor identifies who produced an event.
type Actor string

const (
	ActorPlayer Actor = "player"
	ActorAI     Actor = "ai"
)

// EventKind is the type of a recorded combat event.
type EventKind string

const (
	EventAttack EventKind = "attack"
	EventBlock  EventKind = "block"
	EventHit    EventKind = "hit"
	EventSpell  EventKind = "spell"
	EventDodge  EventKind = "dodge"
)

// ValidEventKinds are the allowed event kinds.
var ValidEventKinds = map[EventKind]bool{
	EventAttack: true,
	EventBlock:  true,
	EventHit:    true,
	EventSpell:  true,
	EventDodge:  true,
}

// Event is a single entry in the round-scoped log.
type Event struct {
	Actor  Actor     `json:"actor"`
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Behavior and range categories.
const (
	Unknown = "unknown"

	RangeClose = "close"
	RangeMid   = "mid"
	RangeFar   = "far"

	BehaviorDesperate = "desperate"
	BehaviorTurtle    = "turtle"
	BehaviorBalanced  = "balanced"
	BehaviorPress     = "press"
	BehaviorCoast     = "coast"
)

// Profile is the durable behavioral model of the human player.
type Profile struct {
	AggressionRatio   float64        `json:"aggressionRatio"`
	BlockFrequency    float64        `json:"blockFrequency"`
	PreferredRange    string         `json:"preferredRange"`
	TopPatterns       []string       `json:"topPatterns"`
	LowHealthBehavior string         `json:"lowHealthBehavior"`
	WinningBehavior   string         `json:"winningBehavior"`
	SpellUsage        map[string]int `json:"spellUsage"`
	SkillRating       float64        `json:"skillRating"`
	TotalFights       int            `json:"totalFights"`
	WinRate           float64        `json:"winRate"`
}

// SessionSummary records the outcome of one finished match.
type SessionSummary struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Rounds      int       `json:"rounds"`
	Result      string    `json:"result"`
	Difficulty  Tier      `json:"difficulty"`
	SkillRating float64   `json:"skillRating"`
	Adaptations []string  `json:"adaptations"`
}

// CurrentSession holds the running counters of the match in progress.
type CurrentSession struct {
	StartedAt      time.Time      `json:"startedAt"`
	PlayerAttacks  int            `json:"playerAttacks"`
	PlayerBlocks   int            `json:"playerBlocks"`
	PlayerHits     int            `json:"playerHits"`
	PlayerDodges   int            `json:"playerDodges"`
	PlayerSpells   int            `json:"playerSpells"`
	AIAttacks      int            `json:"aiAttacks"`
	AIBlocks       int            `json:"aiBlocks"`
	AIHits         int            `json:"aiHits"`
	AIDodges       int            `json:"aiDodges"`
	AISpells       int            `json:"aiSpells"`
	SpellUses      map[string]int `json:"spellUses"`
	Rounds         int            `json:"rounds"`
	RoundsWon      int            `json:"roundsWon"`
	CloseSamples   int            `json:"closeSamples"`
	MidSamples     int            `json:"midSamples"`
	FarSamples     int            `json:"farSamples"`
	ActionSequence []string       `json:"actionSequence"`
}

// Record is the persisted root: one per installation.
type Record struct {
	Profile        Profile          `json:"profile"`
	Sessions       []SessionSummary `json:"sessions"`
	CurrentSession CurrentSession   `json:"currentSession"`
}

// DefaultProfile returns the profile used before any fight was recorded.
func DefaultProfile() Profile {
	return Profile{
		AggressionRatio:   0.5,
		BlockFrequency:    0.3,
		PreferredRange:    Unknown,
		TopPatterns:       []string{},
		LowHealthBehavior: Unknown,
		WinningBehavior:   Unknown,
		SpellUsage:        map[string]int{},
		SkillRating:       5,
	}
}

// NewCurrentSession returns zeroed session counters.
func NewCurrentSession(now time.Time) CurrentSession {
	return CurrentSession{
		StartedAt:      now,
		SpellUses:      map[string]int{},
		ActionSequence: []string{},
	}
}

// DefaultRecord returns an empty record.
func DefaultRecord(now time.Time) Record {
	return Record{
		Profile:        DefaultProfile(),
		Sessions:       []SessionSummary{},
		CurrentSession: NewCurrentSession(now),
	}
}
