// Package sim is a headless duel arena with a scripted stand-in for the human
// player. It plays both sides of the match loop: it provides game state and
// consumes the AI's executor frames.
package sim

import (
	"math"
	"math/rand"
	"sync"

	"github.com/rcliao/duel-brain/internal/executor"
	"github.com/rcliao/duel-brain/internal/match"
	"github.com/rcliao/duel-brain/internal/model"
)

// Combat tuning.
const (
	MaxHealth      = 100.0
	AIDamage       = 10.0
	PlayerDamage   = 8.0
	FireballDamage = 12.0
	BurnDPS        = 2.0
	StunTime       = 1.5
	SlowTime       = 3.0
	BurnTime       = 3.0
	PlayerSpeed    = 3.0
	PlayerReach    = 2.2
	BlockTime      = 0.6
	AttackCooldown = 0.7
	ThinkInterval  = 0.25
)

// SpellCooldowns in seconds.
var SpellCooldowns = map[model.Spell]float64{
	model.SpellStun:     8,
	model.SpellFireball: 6,
	model.SpellFrost:    10,
}

// Spawn points.
var (
	AISpawn     = executor.Vec2{X: 3}
	PlayerSpawn = executor.Vec2{X: -3}
)

// Options configures an Arena.
type Options struct {
	RoundTime   float64 // seconds of arena time per round
	RoundsToWin int
	// Step is the arena time advanced per frame.
	Step float64
	Seed int64
	// Aggression in [0,1] shapes the scripted player.
	Aggression float64
}

// Arena implements match.Provider and match.Sink.
type Arena struct {
	mu   sync.Mutex
	opts Options
	rng  *rand.Rand

	round           int
	roundsCompleted int
	lastWinner      model.Actor
	wins            map[model.Actor]int
	matchOver       bool
	matchWinner     model.Actor
	timeLeft        float64

	aiHealth     float64
	aiPos        executor.Vec2
	aiBlocking   bool
	aiAttacking  bool
	aiCooldowns  map[model.Spell]float64
	playerHealth float64
	player       bot

	events []model.Event
}

type bot struct {
	pos        executor.Vec2
	intent     model.Move
	thinkLeft  float64
	blockLeft  float64
	attackCD   float64
	fireballCD float64
	stunLeft   float64
	slowLeft   float64
	burnLeft   float64
	recent     []string
}

// New creates an arena at the start of round 1.
func New(opts Options) *Arena {
	if opts.RoundTime <= 0 {
		opts.RoundTime = 60
	}
	if opts.RoundsToWin <= 0 {
		opts.RoundsToWin = 2
	}
	if opts.Step <= 0 {
		opts.Step = 1.0 / 60
	}
	if opts.Aggression <= 0 {
		opts.Aggression = 0.6
	}
	a := &Arena{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		wins: map[model.Actor]int{},
	}
	a.resetRound(1)
	return a
}

func (a *Arena) resetRound(round int) {
	a.round = round
	a.timeLeft = a.opts.RoundTime
	a.aiHealth = MaxHealth
	a.playerHealth = MaxHealth
	a.aiPos = AISpawn
	a.aiBlocking = false
	a.aiAttacking = false
	a.aiCooldowns = map[model.Spell]float64{}
	a.player = bot{pos: PlayerSpawn, intent: model.MoveAdvance}
}

// State implements match.Provider.
func (a *Arena) State() match.GameState {
	a.mu.Lock()
	defer a.mu.Unlock()

	cds := make(map[model.Spell]float64, len(a.aiCooldowns))
	for k, v := range a.aiCooldowns {
		if v > 0 {
			cds[k] = v
		}
	}
	return match.GameState{
		Round:               a.round,
		RoundsCompleted:     a.roundsCompleted,
		LastRoundWinner:     a.lastWinner,
		MatchOver:           a.matchOver,
		MatchWinner:         a.matchWinner,
		TimeRemaining:       a.timeLeft,
		AIHealth:            a.aiHealth,
		PlayerHealth:        a.playerHealth,
		PlayerPos:           a.player.pos,
		PlayerRecentActions: append([]string(nil), a.player.recent...),
		PlayerBlocking:      a.player.blockLeft > 0,
		PlayerDebuffs: model.Debuffs{
			Stunned: a.player.stunLeft > 0,
			Slowed:  a.player.slowLeft > 0,
			Burning: a.player.burnLeft > 0,
		},
		AvailableSpells: []model.Spell{model.SpellStun, model.SpellFireball, model.SpellFrost},
		Cooldowns:       cds,
	}
}

// Events implements match.Provider.
func (a *Arena) Events() []model.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	ev := a.events
	a.events = nil
	return ev
}

// Frame implements match.Sink. Each frame advances the arena by one step.
func (a *Arena) Frame(f executor.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.matchOver {
		return
	}
	dt := a.opts.Step

	a.aiPos = f.Position
	a.aiBlocking = f.Blocking
	a.aiAttacking = f.Attacking

	if f.Started == model.ActionAttack {
		a.emit(model.ActorAI, model.EventAttack, "")
		if a.aiPos.Dist(a.player.pos) < executor.EngageDistance && a.player.blockLeft <= 0 {
			a.damagePlayer(AIDamage)
			a.emit(model.ActorAI, model.EventHit, "")
		}
	}
	if f.Started == model.ActionBlock {
		a.emit(model.ActorAI, model.EventBlock, "")
	}
	if f.Cast != model.SpellNone {
		a.castAI(f.Cast)
	}

	a.stepPlayer(dt)
	a.stepTimers(dt)
	a.checkRoundEnd()
}

func (a *Arena) castAI(sp model.Spell) {
	if a.aiCooldowns[sp] > 0 {
		return
	}
	cd, ok := SpellCooldowns[sp]
	if !ok {
		return
	}
	a.aiCooldowns[sp] = cd
	a.emit(model.ActorAI, model.EventSpell, string(sp))
	switch sp {
	case model.SpellStun:
		a.player.stunLeft = StunTime
		a.player.blockLeft = 0
	case model.SpellFireball:
		a.damagePlayer(FireballDamage)
		a.player.burnLeft = BurnTime
	case model.SpellFrost:
		a.player.slowLeft = SlowTime
	}
}

func (a *Arena) stepPlayer(dt float64) {
	p := &a.player
	if p.stunLeft > 0 {
		return
	}

	dist := a.aiPos.Dist(p.pos)
	p.thinkLeft -= dt
	if p.thinkLeft <= 0 {
		p.thinkLeft = ThinkInterval
		a.think(dist)
	}

	speed := PlayerSpeed
	if p.slowLeft > 0 {
		speed /= 2
	}
	toward := a.aiPos.Sub(p.pos)
	if dist == 0 {
		return
	}
	unit := toward.Scale(1 / dist)
	switch p.intent {
	case model.MoveAdvance:
		if dist > executor.MinApproach {
			p.pos = p.pos.Add(unit.Scale(math.Min(speed*dt, dist-executor.MinApproach)))
		}
	case model.MoveRetreat:
		p.pos = p.pos.Add(unit.Scale(-speed * dt))
	}
	p.pos = executor.ClampToArena(p.pos, executor.ArenaRadius)
}

// think picks the scripted player's next action.
func (a *Arena) think(dist float64) {
	p := &a.player
	agg := a.opts.Aggression
	inReach := dist < PlayerReach

	switch {
	case a.aiAttacking && p.blockLeft <= 0 && a.rng.Float64() < 0.1+0.4*(1-agg):
		p.blockLeft = BlockTime
		a.playerAction(model.EventBlock, "")
	case inReach && p.attackCD <= 0 && a.rng.Float64() < agg:
		p.attackCD = AttackCooldown
		a.playerAction(model.EventAttack, "")
		if !a.aiBlocking {
			a.aiHealth = math.Max(0, a.aiHealth-PlayerDamage)
			a.emit(model.ActorPlayer, model.EventHit, "")
		}
	case inReach && a.rng.Float64() < 0.1:
		side := executor.Vec2{X: -(a.aiPos.Y - p.pos.Y), Y: a.aiPos.X - p.pos.X}
		if l := side.Len(); l > 0 {
			p.pos = executor.ClampToArena(p.pos.Add(side.Scale(1/l)), executor.ArenaRadius)
		}
		a.playerAction(model.EventDodge, "")
	case dist < 5 && p.fireballCD <= 0 && a.rng.Float64() < 0.05:
		p.fireballCD = SpellCooldowns[model.SpellFireball]
		a.playerAction(model.EventSpell, string(model.SpellFireball))
		a.aiHealth = math.Max(0, a.aiHealth-FireballDamage)
	}

	switch {
	case dist > 1.8:
		p.intent = model.MoveAdvance
	case agg < 0.4 && a.rng.Float64() < 0.3:
		p.intent = model.MoveRetreat
	default:
		p.intent = model.MoveHold
	}
}

func (a *Arena) playerAction(kind model.EventKind, detail string) {
	p := &a.player
	label := string(kind)
	if kind == model.EventSpell {
		label = "spell"
	}
	p.recent = append(p.recent, label)
	if len(p.recent) > model.MaxRecentActions {
		p.recent = p.recent[1:]
	}
	a.emit(model.ActorPlayer, kind, detail)
}

func (a *Arena) stepTimers(dt float64) {
	p := &a.player
	if p.burnLeft > 0 {
		a.damagePlayer(BurnDPS * math.Min(dt, p.burnLeft))
	}
	for _, t := range []*float64{&p.blockLeft, &p.attackCD, &p.fireballCD, &p.stunLeft, &p.slowLeft, &p.burnLeft} {
		*t = math.Max(0, *t-dt)
	}
	for sp, left := range a.aiCooldowns {
		a.aiCooldowns[sp] = math.Max(0, left-dt)
	}
	a.timeLeft = math.Max(0, a.timeLeft-dt)
}

func (a *Arena) checkRoundEnd() {
	if a.playerHealth > 0 && a.aiHealth > 0 && a.timeLeft > 0 {
		return
	}
	winner := model.ActorAI
	if a.playerHealth > a.aiHealth {
		winner = model.ActorPlayer
	}
	a.roundsCompleted++
	a.lastWinner = winner
	a.wins[winner]++
	if a.wins[winner] >= a.opts.RoundsToWin {
		a.matchOver = true
		a.matchWinner = winner
		return
	}
	a.resetRound(a.round + 1)
}

func (a *Arena) damagePlayer(n float64) {
	a.playerHealth = math.Max(0, a.playerHealth-n)
}

func (a *Arena) emit(actor model.Actor, kind model.EventKind, detail string) {
	a.events = append(a.events, model.Event{Actor: actor, Kind: kind, Detail: detail})
}

// Wins returns the rounds won by each side so far.
func (a *Arena) Wins() (player, ai int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wins[model.ActorPlayer], a.wins[model.ActorAI]
}
