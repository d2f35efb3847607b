// Package session holds a client's view of one day: the meals, targets and
// progression loaded from the API plus meals logged optimistically that the
// server has not confirmed yet.
//
// Every optimistic write carries a correlation id, sent to the server as the
// meal's client_id. On success the speculative entry is replaced by the
// server's meal; on failure it is removed and a Reverted event is emitted.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// Backend is the part of the API the state container syncs with.
// *client.Client implements it.
type Backend interface {
	Daily(ctx context.Context, date string) (models.DailyView, error)
	LogMeal(ctx context.Context, in models.MealInput) (models.MealCreated, error)
	DeleteMeal(ctx context.Context, id string) error
}

type EventKind string

const (
	Confirmed EventKind = "confirmed"
	Reverted  EventKind = "reverted"
)

// Event reports the outcome of an optimistic write.
type Event struct {
	Kind          EventKind
	CorrelationID string
	Meal          models.Meal
	Err           error // set for Reverted
}

// State is the single owner of the loaded day. Safe for concurrent use;
// listeners run outside the lock.
type State struct {
	backend Backend
	now     func() time.Time

	mu        sync.Mutex
	date      models.DateOnly
	targets   nutrition.Targets
	meals     []models.Meal          // server-confirmed
	pending   map[string]models.Meal // correlation id -> speculative meal
	progress  nutrition.Progress
	listeners []func(Event)
}

func New(backend Backend) *State {
	return &State{backend: backend, now: time.Now, pending: map[string]models.Meal{}}
}

// Subscribe registers fn for every Confirmed and Reverted event.
func (s *State) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *State) emit(e Event) {
	s.mu.Lock()
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

// Load replaces the confirmed state with the server's view of date (empty
// means today). Pending writes are kept.
func (s *State) Load(ctx context.Context, date string) error {
	v, err := s.backend.Daily(ctx, date)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = v.Date
	s.targets = v.Stats.TargetMacros
	s.meals = append([]models.Meal{}, v.Meals...)
	s.progress = v.Progress
	return nil
}

// LogMeal applies the meal locally at once, then writes it to the server.
// The returned meal is the server's on success. On failure the speculative
// entry is reverted and the error returned.
func (s *State) LogMeal(ctx context.Context, in models.MealInput) (models.Meal, error) {
	if err := in.Validate(); err != nil {
		return models.Meal{}, err
	}
	id := uuid.NewString()
	in.ClientID = &id

	speculative := in.Meal(0, s.now())
	s.mu.Lock()
	s.pending[id] = speculative
	s.mu.Unlock()

	res, err := s.backend.LogMeal(ctx, in)
	if err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		s.emit(Event{Kind: Reverted, CorrelationID: id, Meal: speculative, Err: err})
		return models.Meal{}, err
	}

	s.mu.Lock()
	delete(s.pending, id)
	s.meals = append(s.meals, res.Meal)
	s.progress = res.Progress
	s.mu.Unlock()
	s.emit(Event{Kind: Confirmed, CorrelationID: id, Meal: res.Meal})
	return res.Meal, nil
}

// DeleteMeal removes a confirmed meal locally and on the server, restoring
// it if the server refuses.
func (s *State) DeleteMeal(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, m := range s.meals {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("meal %s is not loaded", id)
	}
	removed := s.meals[idx]
	s.meals = append(s.meals[:idx:idx], s.meals[idx+1:]...)
	s.mu.Unlock()

	if err := s.backend.DeleteMeal(ctx, id); err != nil {
		s.mu.Lock()
		s.meals = append(s.meals, removed)
		s.mu.Unlock()
		s.emit(Event{Kind: Reverted, CorrelationID: id, Meal: removed, Err: err})
		return err
	}
	s.emit(Event{Kind: Confirmed, CorrelationID: id, Meal: removed})
	return nil
}

// Meals returns confirmed and pending meals, oldest first.
func (s *State) Meals() []models.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Meal, 0, len(s.meals)+len(s.pending))
	out = append(out, s.meals...)
	for _, m := range s.pending {
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Pending is the number of unconfirmed writes.
func (s *State) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stats recomputes the day's stats from confirmed and pending meals.
func (s *State) Stats() nutrition.DailyStats {
	meals := s.Meals()
	s.mu.Lock()
	targets := s.targets
	s.mu.Unlock()

	intakes := make([]nutrition.Intake, len(meals))
	for i, m := range meals {
		intakes[i] = m.Intake()
	}
	return nutrition.BuildDailyStats(nutrition.Sum(intakes), targets)
}

func (s *State) Date() models.DateOnly {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

func (s *State) Targets() nutrition.Targets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets
}

// Progress is the progression last reported by the server.
func (s *State) Progress() nutrition.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}
