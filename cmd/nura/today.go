package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
	"nura/go-api/internal/session"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"t"},
	Short:   "Show the day's flow score, macros and meals",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if todayDate != "" {
			if _, err := models.ParseDate(todayDate); err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", todayDate)
			}
		}
		state := session.New(newClient())
		if err := state.Load(cmd.Context(), todayDate); err != nil {
			return err
		}
		printDay(cmd.OutOrStdout(), state)
		return nil
	},
}

func printDay(w io.Writer, state *session.State) {
	stats := state.Stats()
	targets := state.Targets()
	progress := state.Progress()

	header := color.New(color.Bold)
	header.Fprintf(w, "%s  ", state.Date())
	scoreColor := color.New(color.FgYellow)
	if stats.FlowDay {
		scoreColor = color.New(color.FgGreen)
	}
	scoreColor.Fprintf(w, "flow %d", stats.FlowScore)
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-9s %s %5d / %d kcal\n", "Calories", bar(float64(stats.ConsumedCalories), float64(targets.Calories), 20), stats.ConsumedCalories, targets.Calories)
	fmt.Fprintf(w, "  %-9s %s %5.0f / %d g\n", "Protein", bar(stats.Macros.Protein, float64(targets.Protein), 20), stats.Macros.Protein, targets.Protein)
	fmt.Fprintf(w, "  %-9s %s %5.0f / %d g\n", "Carbs", bar(stats.Macros.Carbs, float64(targets.Carbs), 20), stats.Macros.Carbs, targets.Carbs)
	fmt.Fprintf(w, "  %-9s %s %5.0f / %d g\n", "Fats", bar(stats.Macros.Fats, float64(targets.Fats), 20), stats.Macros.Fats, targets.Fats)
	fmt.Fprintln(w)

	faint := color.New(color.Faint)
	meals := state.Meals()
	if len(meals) == 0 {
		faint.Fprintln(w, "  No meals logged.")
	}
	for _, m := range meals {
		fmt.Fprintf(w, "  %s %s  %-28s %5d kcal  %s\n",
			faint.Sprint(shortID(m.ID)),
			m.Timestamp.In(userLocation()).Format("15:04"),
			truncate(m.Name, 28),
			m.Calories,
			faint.Sprint(m.Source))
	}
	fmt.Fprintln(w)
	printProgress(w, progress)
}

func printProgress(w io.Writer, p nutrition.Progress) {
	fmt.Fprintf(w, "  %s %s  streak %d (best %d)  %d flow days",
		color.New(color.FgCyan).Sprint("●"), p.Level, p.CurrentStreak, p.LongestStreak, p.TotalFlowDays)
	if p.NextLevel != "" {
		fmt.Fprintf(w, "  %d to %s", p.DaysToNextLevel, p.NextLevel)
	}
	fmt.Fprintln(w)
}

// bar renders consumed/target as a fixed-width gauge that saturates at full.
func bar(consumed, target float64, width int) string {
	filled := 0
	if target > 0 {
		filled = int(consumed / target * float64(width))
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func init() {
	todayCmd.Flags().StringVarP(&todayDate, "date", "d", "", "day to show (YYYY-MM-DD)")
	rootCmd.AddCommand(todayCmd)
}
