package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/db"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

// Recorder receives an entry for every applied command.
type Recorder interface {
	Record(ctx context.Context, a db.Activity) error
}

// batchSaver is implemented by stores that can write several collections
// in one transaction.
type batchSaver interface {
	SaveAll(ctx context.Context, values map[string]any) error
}

// Service owns the state. Commands run one at a time; after each one the
// collections it touched are written to the store before the new state is
// published.
type Service struct {
	mu       sync.Mutex
	state    State
	store    store.Store
	reducer  *Reducer
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithReducer replaces the default reducer.
func WithReducer(r *Reducer) ServiceOption {
	return func(s *Service) {
		s.reducer = r
		s.now = r.now
	}
}

// WithRecorder sets where applied commands are logged.
func WithRecorder(rec Recorder) ServiceOption {
	return func(s *Service) { s.recorder = rec }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service with an empty state. Call Load to read the
// store.
func NewService(st store.Store, opts ...ServiceOption) *Service {
	s := &Service{
		state:   NewState(),
		store:   st,
		reducer: defaultReducer,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every collection from the store and normalizes it. Missing
// collections are empty.
func (s *Service) Load(ctx context.Context) error {
	var loaded State
	for _, key := range store.Keys {
		found, err := s.store.Load(ctx, key, loaded.target(key))
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", key, err)
		}
		s.logger.Debug("collection loaded", "key", key, "found", found)
	}

	s.mu.Lock()
	s.state = loaded.Normalize()
	s.mu.Unlock()
	return nil
}

// State returns the current state. Callers must not modify the slices it
// holds.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply runs cmd and persists what it touched. If the command is refused
// or a write fails the state is left as it was.
func (s *Service) Apply(ctx context.Context, cmd Command) (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, eff, err := s.reducer.Reduce(s.state, cmd)
	if err != nil {
		s.logger.Debug("command refused", "command", cmd.Name(), "error", err)
		return Effect{}, err
	}

	if err := s.persist(ctx, next, eff.Touched); err != nil {
		return Effect{}, err
	}
	s.state = next

	s.logger.Debug("command applied", "command", cmd.Name(), "touched", eff.Touched, "summary", eff.Summary)

	if s.recorder != nil {
		a := db.Activity{
			Command:    cmd.Name(),
			StudentID:  eff.StudentID,
			Amount:     eff.Amount,
			Summary:    eff.Summary,
			OccurredAt: s.now(),
		}
		if err := s.recorder.Record(ctx, a); err != nil {
			s.logger.Warn("failed to record activity", "command", cmd.Name(), "error", err)
		}
	}

	return eff, nil
}

func (s *Service) persist(ctx context.Context, next State, keys []string) error {
	if bs, ok := s.store.(batchSaver); ok && len(keys) > 1 {
		values := make(map[string]any, len(keys))
		for _, key := range keys {
			values[key] = next.Value(key)
		}
		if err := bs.SaveAll(ctx, values); err != nil {
			return fmt.Errorf("failed to save %v: %w", keys, err)
		}
		return nil
	}

	for _, key := range keys {
		if err := s.store.Save(ctx, key, next.Value(key)); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return nil
}
