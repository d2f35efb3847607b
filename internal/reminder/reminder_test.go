package reminder

import (
	"context"
	"testing"
	"time"
)

func TestParseSlots(t *testing.T) {
	slots, err := ParseSlots("dinner=19:00, breakfast=08:05,,lunch=12:30")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"breakfast=08:05", "lunch=12:30", "dinner=19:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, s := range slots {
		if s.String() != want[i] {
			t.Errorf("slot %d: expected %s, got %s", i, want[i], s)
		}
	}
}

func TestParseSlots_Errors(t *testing.T) {
	for _, in := range []string{"breakfast", "=08:00", "lunch=25:00", "lunch=noon", "a=08:00,a=09:00"} {
		if _, err := ParseSlots(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestTick_FiresOncePerDayWithinWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}
	s := New([]Slot{{"breakfast", 8, 0}, {"lunch", 12, 30}}, 30*time.Minute, nil)
	at := func(day, h, m int) time.Time { return time.Date(2026, 3, day, h, m, 0, 0, loc) }

	if due := s.Tick(at(10, 7, 59)); len(due) != 0 {
		t.Errorf("before breakfast: expected nothing, got %v", due)
	}
	due := s.Tick(at(10, 8, 0))
	if len(due) != 1 || due[0].Name != "breakfast" {
		t.Fatalf("at 08:00: expected breakfast, got %v", due)
	}
	if due := s.Tick(at(10, 8, 10)); len(due) != 0 {
		t.Errorf("breakfast fired twice: %v", due)
	}
	if due := s.Tick(at(10, 13, 0)); len(due) != 0 {
		t.Errorf("13:00 is past the lunch window, got %v", due)
	}
	if due := s.Tick(at(11, 8, 29)); len(due) != 1 {
		t.Errorf("next day: expected breakfast again, got %v", due)
	}
}

func TestNext(t *testing.T) {
	s := New(DefaultSlots(), 0, nil)

	slot, at, ok := s.Next(time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))
	if !ok || slot.Name != "dinner" || at.Hour() != 19 {
		t.Errorf("expected dinner at 19:00, got %v at %v", slot, at)
	}
	slot, at, _ = s.Next(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC))
	if slot.Name != "breakfast" || at.Day() != 11 {
		t.Errorf("expected tomorrow's breakfast, got %v at %v", slot, at)
	}
	if _, _, ok := New(nil, 0, nil).Next(time.Now()); ok {
		t.Error("no slots should report ok=false")
	}
}

func TestRun_NotifiesAndStops(t *testing.T) {
	var got []string
	s := New([]Slot{{"lunch", 12, 0}}, time.Hour, func(slot Slot, _ time.Time) {
		got = append(got, slot.Name)
	})

	ctx, cancel := context.WithCancel(context.Background())
	clock := func() time.Time {
		cancel()
		return time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC)
	}
	if err := s.Run(ctx, clock); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(got) != 1 || got[0] != "lunch" {
		t.Errorf("expected one lunch notification, got %v", got)
	}
}
