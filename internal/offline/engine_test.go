package offline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/duel-brain/internal/model"
)

var allTiers = []model.Tier{model.TierEasy, model.TierMedium, model.TierHard, model.TierAdaptive}

func snap(dist, my, opp float64) model.Snapshot {
	return model.NewSnapshot(model.Snapshot{
		MyHealth:        my,
		OpponentHealth:  opp,
		Distance:        dist,
		Round:           1,
		TimeRemaining:   60,
		AvailableSpells: []model.Spell{model.SpellStun, model.SpellFireball, model.SpellFrost},
	})
}

func TestFarRangeAlwaysAdvances(t *testing.T) {
	e := New(1)
	profile := model.DefaultProfile()
	profile.TotalFights = 4
	profile.AggressionRatio = 1

	for _, tr := range allTiers {
		for _, dist := range []float64{3.5001, 4, 8, 20} {
			for i := 0; i < 50; i++ {
				d := e.Decide(snap(dist, 50, 50), tr, &profile)
				assert.Equal(t, model.MoveAdvance, d.Move, "tier %s dist %v", tr, dist)
			}
		}
	}
}

func TestDecisionsAlwaysValid(t *testing.T) {
	e := New(7)
	profile := model.DefaultProfile()
	profile.TotalFights = 2

	dists := []float64{0, 1, 1.99, 2, 3, 3.5, 4, 6}
	healths := []float64{5, 25, 50, 90}
	for _, tr := range allTiers {
		for _, dist := range dists {
			for _, my := range healths {
				for _, opp := range healths {
					s := snap(dist, my, opp)
					s.OpponentRecentActions = []string{"attack", "attack", "block"}
					for _, p := range []*model.Profile{nil, &profile} {
						d := e.Decide(s, tr, p)
						assert.True(t, d.Valid(), "invalid decision %+v", d)
					}
				}
			}
		}
	}
}

func TestEasyNeverCasts(t *testing.T) {
	e := New(3)
	s := snap(1, 50, 10)
	for i := 0; i < 20; i++ {
		assert.Equal(t, model.SpellNone, e.Decide(s, model.TierEasy, nil).Spell)
	}
}

func TestStunAggressiveOpponentInExtendedRange(t *testing.T) {
	e := New(1)
	s := snap(4.5, 50, 50)
	s.OpponentRecentActions = []string{"attack", "block", "attack"}

	d := e.Decide(s, model.TierHard, nil)
	assert.Equal(t, model.SpellStun, d.Spell)
}

func TestActiveDebuffNotReapplied(t *testing.T) {
	e := New(1)
	s := snap(4.5, 50, 50)
	s.OpponentRecentActions = []string{"attack", "attack", "attack"}
	s.OpponentDebuffs.Stunned = true

	assert.NotEqual(t, model.SpellStun, e.Decide(s, model.TierHard, nil).Spell)

	low := snap(1, 50, 20)
	low.OpponentDebuffs.Burning = true
	assert.Equal(t, model.SpellNone, e.Decide(low, model.TierMedium, nil).Spell)
}

func TestFinisherOnCriticalOpponent(t *testing.T) {
	e := New(1)
	assert.Equal(t, model.SpellFireball, e.Decide(snap(1, 50, 20), model.TierMedium, nil).Spell)
}

func TestFrostWhenBehindAtMidRange(t *testing.T) {
	e := New(1)
	s := snap(3, 30, 80)
	assert.Equal(t, model.SpellFrost, e.Decide(s, model.TierHard, nil).Spell)

	s.Cooldowns = map[model.Spell]float64{model.SpellFrost: 2}
	assert.Equal(t, model.SpellNone, e.Decide(s, model.TierHard, nil).Spell)
}

func TestHardBlocksAggressiveOpponentUpClose(t *testing.T) {
	e := New(1)
	s := snap(1, 50, 50)
	s.OpponentRecentActions = []string{"attack", "attack"}

	d := e.Decide(s, model.TierHard, nil)
	assert.Equal(t, model.ActionBlock, d.Action)
	assert.Contains(t, []model.Move{model.MoveStrafeLeft, model.MoveStrafeRight}, d.Move)
}

func TestAdaptiveBlocksMoreAgainstAggressivePlayer(t *testing.T) {
	calm := model.DefaultProfile()
	calm.TotalFights = 5
	calm.AggressionRatio = 0

	wild := calm
	wild.AggressionRatio = 1

	count := func(p model.Profile) int {
		e := New(42)
		n := 0
		for i := 0; i < 2000; i++ {
			if e.Decide(snap(1, 50, 50), model.TierAdaptive, &p).Action == model.ActionBlock {
				n++
			}
		}
		return n
	}
	assert.Greater(t, count(wild), count(calm))
}
