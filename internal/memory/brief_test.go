package memory

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/duel-brain/internal/model"
)

func TestBriefNeutralBeforeFirstFight(t *testing.T) {
	s := newTestMemory(nil, newClock())
	s.RecordEvent(model.ActorPlayer, model.EventAttack, "")
	assert.Equal(t, NeutralBrief, s.BuildMemoryPrompt())
}

func TestBriefRendersProfileAndLiveSession(t *testing.T) {
	ctx := context.Background()
	s := newTestMemory(nil, newClock())

	for i := 0; i < 3; i++ {
		s.RecordEvent(model.ActorPlayer, model.EventAttack, "")
		s.RecordEvent(model.ActorPlayer, model.EventBlock, "")
	}
	s.RecordEvent(model.ActorPlayer, model.EventSpell, "stun")
	s.RecordMatchEnd(ctx, false, model.TierAdaptive)

	s.RecordEvent(model.ActorPlayer, model.EventDodge, "")
	s.RecordEvent(model.ActorPlayer, model.EventAttack, "")
	s.RecordEvent(model.ActorPlayer, model.EventDodge, "")
	s.RecordEvent(model.ActorPlayer, model.EventAttack, "")

	brief := s.BuildMemoryPrompt()
	assert.Contains(t, brief, "PLAYER DOSSIER (1 fights")
	assert.Contains(t, brief, "Habits: attack,block,attack")
	assert.Contains(t, brief, "Spells: stun x1")
	assert.Contains(t, brief, "adaptive player loss")
	assert.Contains(t, brief, "This match: 2 attacks")
	assert.Contains(t, brief, "Live patterns: dodge,attack x2")
	assert.LessOrEqual(t, len(brief), briefMaxChars+3)
}

func TestBriefTruncatesOnRuneBoundary(t *testing.T) {
	for pad := 0; pad < 2; pad++ {
		s := newTestMemory(nil, newClock())
		detail := strings.Repeat("a", pad) + strings.Repeat("ж", 1000)
		s.RecordEvent(model.ActorPlayer, model.EventSpell, detail)
		s.RecordEvent(model.ActorPlayer, model.EventSpell, detail)
		s.RecordMatchEnd(context.Background(), true, model.TierHard)

		brief := s.BuildMemoryPrompt()
		assert.True(t, strings.HasSuffix(brief, "..."), "pad %d", pad)
		assert.LessOrEqual(t, len(brief), briefMaxChars+3, "pad %d", pad)
		assert.True(t, utf8.ValidString(brief), "pad %d: brief is not valid UTF-8", pad)
	}
}
