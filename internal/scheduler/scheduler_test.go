package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/duel-brain/internal/llm"
	"github.com/rcliao/duel-brain/internal/llm/mocks"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/offline"
)

const goodReply = `Sure! {"move":"advance","action":"attack","timing":"immediate","spell":"none"}`

type fakeMemory struct {
	brief   string
	profile model.Profile
}

func (f *fakeMemory) BuildMemoryPrompt() string { return f.brief }
func (f *fakeMemory) Profile() model.Profile    { return f.profile }

func testSnapshot() model.Snapshot {
	return model.NewSnapshot(model.Snapshot{
		MyHealth:        80,
		OpponentHealth:  60,
		Distance:        1.5,
		Round:           1,
		TimeRemaining:   50,
		AvailableSpells: []model.Spell{model.SpellStun, model.SpellFireball},
	})
}

func newTestScheduler(c llm.Client, opts Options) *Scheduler {
	opts.Offline = offline.New(1)
	return New(c, opts)
}

func TestEasyNeverTouchesNetwork(t *testing.T) {
	c := &mocks.Client{}
	s := newTestScheduler(c, Options{})

	for i := 0; i < 5; i++ {
		d := s.GetDecision(context.Background(), testSnapshot(), model.TierEasy)
		assert.True(t, d.Valid())
	}
	c.AssertNotCalled(t, "ListModels", mock.Anything)
	c.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestNilClientIsOffline(t *testing.T) {
	s := newTestScheduler(nil, Options{})
	d := s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
	assert.True(t, d.Valid())
}

func TestRemoteDecision(t *testing.T) {
	c := &mocks.Client{}
	c.On("ListModels", mock.Anything).Return([]llm.Model{
		{ID: "text-embedding-3-small"},
		{ID: "qwen2.5-7b", Chat: true},
	}, nil).Once()
	c.On("Chat", mock.Anything, mock.MatchedBy(func(r llm.ChatRequest) bool {
		return r.Model == "qwen2.5-7b" && r.Temperature == 0.9
	})).Return(goodReply, nil)

	s := newTestScheduler(c, Options{})
	for i := 0; i < 3; i++ {
		d := s.GetDecision(context.Background(), testSnapshot(), model.TierMedium)
		assert.Equal(t, model.Decision{Move: model.MoveAdvance, Action: model.ActionAttack, Timing: model.TimingImmediate}, d)
	}
	assert.Equal(t, "qwen2.5-7b", s.Model())
	c.AssertNumberOfCalls(t, "ListModels", 1)
	c.AssertNumberOfCalls(t, "Chat", 3)
}

func TestPresetModelSkipsDiscovery(t *testing.T) {
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.MatchedBy(func(r llm.ChatRequest) bool { return r.Model == "local" })).
		Return(goodReply, nil)

	s := newTestScheduler(c, Options{Model: "local"})
	s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
	c.AssertNotCalled(t, "ListModels", mock.Anything)
}

func TestDiscoveryFailureIsTerminal(t *testing.T) {
	for name, setup := range map[string]func(c *mocks.Client){
		"error": func(c *mocks.Client) { c.On("ListModels", mock.Anything).Return(nil, errors.New("connection refused")) },
		"empty": func(c *mocks.Client) { c.On("ListModels", mock.Anything).Return([]llm.Model{}, nil) },
	} {
		t.Run(name, func(t *testing.T) {
			c := &mocks.Client{}
			setup(c)
			s := newTestScheduler(c, Options{})

			for i := 0; i < 4; i++ {
				assert.True(t, s.GetDecision(context.Background(), testSnapshot(), model.TierMedium).Valid())
			}
			s.ResetRound()
			s.GetDecision(context.Background(), testSnapshot(), model.TierMedium)

			c.AssertNumberOfCalls(t, "ListModels", 1)
			c.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
		})
	}
}

func TestBreakerOpensAfterThreeFailures(t *testing.T) {
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("503")).Times(BreakerThreshold)

	s := newTestScheduler(c, Options{Model: "m"})
	for i := 0; i < 6; i++ {
		d := s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
		assert.True(t, d.Valid())
	}
	c.AssertNumberOfCalls(t, "Chat", BreakerThreshold)
	assert.True(t, s.BreakerOpen())

	c.On("Chat", mock.Anything, mock.Anything).Return(goodReply, nil)
	s.ResetRound()
	assert.False(t, s.BreakerOpen())

	d := s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
	assert.Equal(t, model.MoveAdvance, d.Move)
	c.AssertNumberOfCalls(t, "Chat", BreakerThreshold+1)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Twice()
	c.On("Chat", mock.Anything, mock.Anything).Return(goodReply, nil).Once()
	c.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Twice()

	s := newTestScheduler(c, Options{Model: "m"})
	for i := 0; i < 5; i++ {
		s.GetDecision(context.Background(), testSnapshot(), model.TierMedium)
	}
	assert.False(t, s.BreakerOpen())
}

func TestGarbageReplyFallsBackWithoutTrippingBreaker(t *testing.T) {
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).Return("I think you should attack!!", nil)

	s := newTestScheduler(c, Options{Model: "m"})
	for i := 0; i < 5; i++ {
		assert.True(t, s.GetDecision(context.Background(), testSnapshot(), model.TierMedium).Valid())
	}
	c.AssertNumberOfCalls(t, "Chat", 5)
	assert.False(t, s.BreakerOpen())
}

func TestGarbageReplyKeepsFailureCount(t *testing.T) {
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("boom")).Twice()
	c.On("Chat", mock.Anything, mock.Anything).Return("no json here", nil).Once()
	c.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	s := newTestScheduler(c, Options{Model: "m"})
	for i := 0; i < 4; i++ {
		assert.True(t, s.GetDecision(context.Background(), testSnapshot(), model.TierMedium).Valid())
	}
	assert.True(t, s.BreakerOpen())

	// Open breaker: no further network calls.
	s.GetDecision(context.Background(), testSnapshot(), model.TierMedium)
	c.AssertNumberOfCalls(t, "Chat", 4)
}

func TestHistoryTrimmedToSixExchanges(t *testing.T) {
	var last llm.ChatRequest
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { last = args.Get(1).(llm.ChatRequest) }).
		Return(goodReply, nil)

	s := newTestScheduler(c, Options{Model: "m"})
	for i := 0; i < 10; i++ {
		s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
	}
	// system + 6 exchanges + the new user message
	require.Len(t, last.Messages, 1+2*MaxHistory+1)
	assert.Equal(t, llm.RoleSystem, last.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, last.Messages[2].Role)

	s.ResetRound()
	s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
	assert.Len(t, last.Messages, 2)
}

func TestSingleTurnTierSendsNoHistory(t *testing.T) {
	var last llm.ChatRequest
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { last = args.Get(1).(llm.ChatRequest) }).
		Return(goodReply, nil)

	s := newTestScheduler(c, Options{Model: "m"})
	for i := 0; i < 3; i++ {
		s.GetDecision(context.Background(), testSnapshot(), model.TierMedium)
	}
	assert.Len(t, last.Messages, 2)
}

func TestAdaptivePrependsMemoryBrief(t *testing.T) {
	var last llm.ChatRequest
	c := &mocks.Client{}
	c.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { last = args.Get(1).(llm.ChatRequest) }).
		Return(goodReply, nil)

	mem := &fakeMemory{brief: "PLAYER DOSSIER (3 fights)"}
	s := newTestScheduler(c, Options{Model: "m", Memory: mem})

	s.GetDecision(context.Background(), testSnapshot(), model.TierAdaptive)
	assert.Contains(t, last.Messages[0].Content, "PLAYER DOSSIER (3 fights)")

	s.GetDecision(context.Background(), testSnapshot(), model.TierHard)
	assert.NotContains(t, last.Messages[0].Content, "PLAYER DOSSIER")
}
