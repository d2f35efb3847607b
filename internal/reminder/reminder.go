// Package reminder fires meal-logging nudges at configured local times of day.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Interval is how often Run checks for due slots.
const Interval = 60 * time.Second

// DefaultWindow is how long after its time a slot still counts as due.
const DefaultWindow = 30 * time.Minute

// Slot is a named local time of day, e.g. "breakfast" at 08:00.
type Slot struct {
	Name   string
	Hour   int
	Minute int
}

func (s Slot) String() string { return fmt.Sprintf("%s=%02d:%02d", s.Name, s.Hour, s.Minute) }

// on returns the slot's instant on day's calendar date in day's location.
func (s Slot) on(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, day.Location())
}

// DefaultSlots are breakfast, lunch and dinner.
func DefaultSlots() []Slot {
	return []Slot{{"breakfast", 8, 0}, {"lunch", 12, 30}, {"dinner", 19, 0}}
}

// ParseSlot parses "name=HH:MM".
func ParseSlot(s string) (Slot, error) {
	name, clock, ok := strings.Cut(strings.TrimSpace(s), "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Slot{}, fmt.Errorf("reminder %q: expected name=HH:MM", s)
	}
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return Slot{}, fmt.Errorf("reminder %q: invalid time, expected HH:MM", s)
	}
	return Slot{Name: name, Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseSlots parses a comma-separated list of "name=HH:MM" entries, ordered
// by time of day. Names must be unique.
func ParseSlots(list string) ([]Slot, error) {
	var slots []Slot
	seen := map[string]bool{}
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		slot, err := ParseSlot(part)
		if err != nil {
			return nil, err
		}
		if seen[slot.Name] {
			return nil, fmt.Errorf("reminder %q listed twice", slot.Name)
		}
		seen[slot.Name] = true
		slots = append(slots, slot)
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Hour*60+slots[i].Minute < slots[j].Hour*60+slots[j].Minute
	})
	return slots, nil
}

// Scheduler tracks which slots already fired today. Safe for concurrent use.
type Scheduler struct {
	slots  []Slot
	window time.Duration
	notify func(Slot, time.Time)

	mu    sync.Mutex
	fired map[string]string // slot name -> date it last fired
}

// New returns a scheduler. notify may be nil when only Tick is used.
func New(slots []Slot, window time.Duration, notify func(Slot, time.Time)) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{slots: slots, window: window, notify: notify, fired: map[string]string{}}
}

// Tick returns the slots due at now that have not fired yet on now's date,
// and marks them fired. A slot is due from its time until window later.
func (s *Scheduler) Tick(now time.Time) []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format("2006-01-02")
	var due []Slot
	for _, slot := range s.slots {
		at := slot.on(now)
		if now.Before(at) || !now.Before(at.Add(s.window)) {
			continue
		}
		if s.fired[slot.Name] == today {
			continue
		}
		s.fired[slot.Name] = today
		due = append(due, slot)
	}
	return due
}

// Next returns the next slot time strictly after now, or false with no slots.
func (s *Scheduler) Next(now time.Time) (Slot, time.Time, bool) {
	var best Slot
	var bestAt time.Time
	for _, slot := range s.slots {
		at := slot.on(now)
		if !at.After(now) {
			at = slot.on(now.AddDate(0, 0, 1))
		}
		if bestAt.IsZero() || at.Before(bestAt) {
			best, bestAt = slot, at
		}
	}
	return best, bestAt, !bestAt.IsZero()
}

// Run ticks every Interval until ctx is cancelled, calling notify for each
// due slot. clock supplies the current time in the user's location.
func (s *Scheduler) Run(ctx context.Context, clock func() time.Time) error {
	fire := func() {
		now := clock()
		for _, slot := range s.Tick(now) {
			if s.notify != nil {
				s.notify(slot, now)
			}
		}
	}

	fire()
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fire()
		}
	}
}
