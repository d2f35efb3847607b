package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/reminder"
)

var (
	remindSlots  string
	remindWindow time.Duration
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Print meal reminders until interrupted",
	Long: `Run in the foreground and print a reminder at each meal slot, with the
calories left for the day. Each slot fires at most once per day, within the
window after its time.

Examples:
  nura remind
  nura remind --slots "breakfast=07:30,lunch=12:00,snack=16:00,dinner=19:30"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slots, err := reminder.ParseSlots(remindSlots)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			return errors.New("no reminder slots")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		loc := userLocation()
		clock := func() time.Time { return time.Now().In(loc) }

		s := reminder.New(slots, remindWindow, func(slot reminder.Slot, now time.Time) {
			notifyMeal(ctx, out, slot, now)
		})
		if slot, at, ok := s.Next(clock()); ok {
			color.New(color.Faint).Fprintf(out, "Reminders on. Next: %s at %s\n", slot.Name, at.Format("Mon 15:04"))
		}

		if err := s.Run(ctx, clock); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// notifyMeal prints the reminder with the calories left today. A failed
// lookup still prints the reminder.
func notifyMeal(ctx context.Context, w io.Writer, slot reminder.Slot, now time.Time) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "%s  time for %s", now.Format("15:04"), slot.Name)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	v, err := newClient().Daily(ctx, "")
	if err != nil {
		fmt.Fprintln(w)
		color.New(color.Faint).Fprintf(w, "  (could not load today: %v)\n", err)
		return
	}
	left := v.Stats.TargetCalories - v.Stats.ConsumedCalories
	if left < 0 {
		fmt.Fprintf(w, ", %d kcal over target\n", -left)
		return
	}
	fmt.Fprintf(w, ", %d kcal left today\n", left)
}

func defaultSlotList() string {
	parts := make([]string, 0, 3)
	for _, s := range reminder.DefaultSlots() {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ",")
}

func init() {
	slots := os.Getenv("NURA_REMINDERS")
	if slots == "" {
		slots = defaultSlotList()
	}
	remindCmd.Flags().StringVar(&remindSlots, "slots", slots, "comma-separated name=HH:MM slots (env NURA_REMINDERS)")
	remindCmd.Flags().DurationVar(&remindWindow, "window", reminder.DefaultWindow, "how late a missed slot still fires")
	rootCmd.AddCommand(remindCmd)
}
