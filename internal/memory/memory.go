// Package memory keeps the long-lived model of the human player's habits and
// renders it back into decision-request context.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/duel-brain/internal/model"
	"github.com/rcliao/duel-brain/internal/store"
)

// Bounds on the record.
const (
	MaxSessions       = 20
	MaxTopPatterns    = 5
	MaxActionSequence = 30
	MaxRoundLog       = 50
)

// DefaultKey is the fixed identifier the record is stored under.
const DefaultKey = "player-profile"

// DefaultDebounce is how long the event count must stay still before a save.
const DefaultDebounce = 2 * time.Second

// Backend persists the serialized record. store.Store satisfies it.
type Backend interface {
	Put(ctx context.Context, p store.PutParams) (*store.Entry, error)
	Get(ctx context.Context, p store.GetParams) ([]store.Entry, error)
}

// Options configures a Store.
type Options struct {
	Key      string
	Debounce time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Store is the player-profile memory. It is safe for concurrent use, though
// mutations are expected only at event, round and match boundaries.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	key      string
	debounce time.Duration
	now      func() time.Time
	log      zerolog.Logger
	entropy  *rand.Rand

	rec      model.Record
	roundLog []model.Event

	events      int
	savedEvents int
	lastChange  time.Time
}

// New returns a Store holding the default record. Call Load to read the
// persisted one. A nil backend keeps everything in memory.
func New(backend Backend, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend:  backend,
		key:      opts.Key,
		debounce: opts.Debounce,
		now:      opts.Now,
		log:      opts.Logger,
		entropy:  rand.New(rand.NewSource(opts.Now().UnixNano())),
		rec:      model.DefaultRecord(opts.Now()),
	}
}

// Load replaces the in-memory record with the persisted one, merged field by
// field over defaults. Missing, unreadable or corrupt data leaves the defaults
// in place.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		return
	}
	entries, err := s.backend.Get(ctx, store.GetParams{Key: s.key})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Debug().Err(err).Str("key", s.key).Msg("profile load failed, using defaults")
		}
		return
	}
	rec, err := ParseRecord(entries[0].Body, s.now())
	if err != nil {
		s.log.Debug().Err(err).Str("key", s.key).Msg("profile record corrupt, using defaults")
		return
	}
	s.rec = rec
	s.log.Debug().Int("fights", rec.Profile.TotalFights).Int("sessions", len(rec.Sessions)).Msg("profile loaded")
}

// Tick saves the record once the event count has changed and then stayed
// unchanged for the debounce window.
func (s *Store) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.events == s.savedEvents || now.Sub(s.lastChange) < s.debounce {
		return
	}
	s.saveLocked(ctx)
}

// Save persists the record immediately.
func (s *Store) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) {
	s.savedEvents = s.events
	if s.backend == nil {
		return
	}
	b, err := json.Marshal(s.rec)
	if err != nil {
		s.log.Debug().Err(err).Msg("profile encode failed")
		return
	}
	if _, err := s.backend.Put(ctx, store.PutParams{Key: s.key, Body: b}); err != nil {
		s.log.Debug().Err(err).Str("key", s.key).Msg("profile save failed, continuing in memory")
	}
}

// Reset wipes the record back to defaults and persists the result.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = model.DefaultRecord(s.now())
	s.roundLog = nil
	s.touchLocked()
	s.saveLocked(ctx)
}

// Profile returns a copy of the current profile.
func (s *Store) Profile() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProfile(s.rec.Profile)
}

// Record returns a deep copy of the whole record.
func (s *Store) Record() model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := json.Marshal(s.rec)
	var out model.Record
	json.Unmarshal(b, &out)
	return out
}

// RoundLog returns a copy of the round-scoped event log.
func (s *Store) RoundLog() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.roundLog...)
}

func (s *Store) touchLocked() {
	s.events++
	s.lastChange = s.now()
}

func copyProfile(p model.Profile) model.Profile {
	p.TopPatterns = append([]string{}, p.TopPatterns...)
	usage := make(map[string]int, len(p.SpellUsage))
	for k, v := range p.SpellUsage {
		usage[k] = v
	}
	p.SpellUsage = usage
	return p
}
