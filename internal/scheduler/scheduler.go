// Package scheduler turns snapshots into decisions. It asks a remote chat
// model when the tier allows it and falls back to the offline engine on any
// failure, so GetDecision always returns a valid decision.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/duel-brain/internal/llm"
	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/offline"
	"github.com/rcliao/duel-brain/internal/tier"
)

const (
	// BreakerThreshold is the number of consecutive remote failures after
	// which requests stop going to the network until the next round.
	BreakerThreshold = 3
	// MaxHistory bounds the per-round conversation, in exchanges.
	MaxHistory = 6
)

// ProfileSource supplies the player dossier for memory-enabled tiers.
// *memory.Store satisfies it.
type ProfileSource interface {
	BuildMemoryPrompt() string
	Profile() model.Profile
}

// Options configures a Scheduler.
type Options struct {
	// Model skips discovery when set.
	Model   string
	Offline *offline.Engine
	Memory  ProfileSource
	Logger  zerolog.Logger
}

type exchange struct {
	user, assistant string
}

// Scheduler is safe for concurrent use. Its lock is never held across a
// network call.
type Scheduler struct {
	client  llm.Client
	offline *offline.Engine
	memory  ProfileSource
	log     zerolog.Logger

	discover sync.Once

	mu          sync.Mutex
	model       string
	discoverErr error
	failures    int
	history     []exchange
}

// New creates a Scheduler. A nil client keeps every decision offline.
func New(client llm.Client, opts Options) *Scheduler {
	if opts.Offline == nil {
		opts.Offline = offline.New(time.Now().UnixNano())
	}
	return &Scheduler{
		client:  client,
		offline: opts.Offline,
		memory:  opts.Memory,
		log:     opts.Logger,
		model:   opts.Model,
	}
}

// GetDecision returns a decision for snap at tier t. It never fails.
func (s *Scheduler) GetDecision(ctx context.Context, snap model.Snapshot, t model.Tier) model.Decision {
	st := tier.For(t)
	if !st.Remote || s.client == nil {
		return s.fallback(snap, t, SourceOffline)
	}

	s.mu.Lock()
	open := s.failures >= BreakerThreshold
	s.mu.Unlock()
	if open {
		return s.fallback(snap, t, SourceBreaker)
	}

	modelID, err := s.resolveModel(ctx)
	if err != nil {
		return s.fallback(snap, t, SourceOffline)
	}

	user := SituationBrief(snap)
	req := llm.ChatRequest{
		Model:       modelID,
		Messages:    s.messages(st, user),
		Temperature: st.Temperature,
	}

	start := time.Now()
	reply, err := s.client.Chat(ctx, req)
	remoteRequestDuration.WithLabelValues(modelID).Observe(time.Since(start).Seconds())
	if err != nil {
		remoteRequestsTotal.WithLabelValues(modelID, "error").Inc()
		s.recordFailure(err, t)
		return s.fallback(snap, t, SourceError)
	}
	remoteRequestsTotal.WithLabelValues(modelID, "success").Inc()

	d, err := ParseDecision(reply, snap)
	if err != nil {
		// Unparseable replies neither count toward nor clear the breaker.
		s.log.Debug().Err(err).Str("tier", string(t)).Msg("unparseable reply, using offline decision")
		return s.fallback(snap, t, SourceParse)
	}

	s.mu.Lock()
	s.failures = 0
	if st.MultiTurn {
		s.history = append(s.history, exchange{user: user, assistant: reply})
		s.trimLocked()
	}
	s.mu.Unlock()
	breakerOpen.Set(0)

	decisionsTotal.WithLabelValues(SourceRemote, string(t)).Inc()
	return d
}

// ResetRound clears the conversation and closes the breaker.
func (s *Scheduler) ResetRound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.history = nil
	breakerOpen.Set(0)
}

// BreakerOpen reports whether remote calls are currently suppressed.
func (s *Scheduler) BreakerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures >= BreakerThreshold
}

// Model returns the resolved model id, empty before discovery.
func (s *Scheduler) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// resolveModel runs discovery at most once per Scheduler. A failed discovery
// is permanent.
func (s *Scheduler) resolveModel(ctx context.Context) (string, error) {
	s.discover.Do(func() {
		s.mu.Lock()
		preset := s.model
		s.mu.Unlock()
		if preset != "" {
			return
		}

		models, err := s.client.ListModels(ctx)
		var id string
		if err == nil {
			id, err = llm.PickModel(models)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.discoverErr = err
			s.log.Warn().Err(err).Msg("model discovery failed, staying offline")
			return
		}
		s.model = id
		s.log.Info().Str("model", id).Int("available", len(models)).Msg("remote model selected")
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discoverErr != nil {
		return "", s.discoverErr
	}
	if s.model == "" {
		return "", llm.ErrNoModels
	}
	return s.model, nil
}

func (s *Scheduler) messages(st tier.Settings, user string) []llm.Message {
	brief := ""
	if st.UseMemory && s.memory != nil {
		brief = s.memory.BuildMemoryPrompt()
	}
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: SystemPrompt(st, brief)}}

	if st.MultiTurn {
		s.mu.Lock()
		s.trimLocked()
		for _, ex := range s.history {
			msgs = append(msgs,
				llm.Message{Role: llm.RoleUser, Content: ex.user},
				llm.Message{Role: llm.RoleAssistant, Content: ex.assistant},
			)
		}
		s.mu.Unlock()
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: user})
}

func (s *Scheduler) trimLocked() {
	if len(s.history) > MaxHistory {
		s.history = append([]exchange(nil), s.history[len(s.history)-MaxHistory:]...)
	}
}

func (s *Scheduler) recordFailure(err error, t model.Tier) {
	s.mu.Lock()
	s.failures++
	n := s.failures
	s.mu.Unlock()

	ev := s.log.Debug()
	if n == BreakerThreshold {
		breakerOpen.Set(1)
		ev = s.log.Warn()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		ev = ev.Bool("timeout", true)
	}
	ev.Err(err).Int("failures", n).Str("tier", string(t)).Msg("remote decision failed")
}

func (s *Scheduler) fallback(snap model.Snapshot, t model.Tier, source string) model.Decision {
	var profile *model.Profile
	if t == model.TierAdaptive && s.memory != nil {
		p := s.memory.Profile()
		profile = &p
	}
	decisionsTotal.WithLabelValues(source, string(t)).Inc()
	return s.offline.Decide(snap, t, profile)
}
