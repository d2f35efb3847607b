package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
	"nura/go-api/internal/session"
)

var (
	logProtein float64
	logCarbs   float64
	logFats    float64
	logAt      string
)

var logCmd = &cobra.Command{
	Use:     "log <name> <calories>",
	Aliases: []string{"l"},
	Short:   "Log a meal",
	Long: `Log a meal with calories and macros in grams.

Examples:
  nura log "Oats with berries" 420 -p 15 -c 70 -f 9
  nura log "Steak dinner" 780 -p 60 -c 20 -f 48 --at 19:30
  nura log "Late snack" 200 -p 5 -c 30 -f 6 --at "2026-03-09 23:10"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		calories, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid calories: %s", args[1])
		}

		in := models.NewMealInput(args[0], calories, nutrition.Macros{
			Protein: logProtein,
			Carbs:   logCarbs,
			Fats:    logFats,
		}, models.SourceManual)
		if logAt != "" {
			t, err := parseTime(logAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", logAt)
			}
			in.Timestamp = &t
		}
		if err := in.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		state := session.New(newClient())
		if err := state.Load(cmd.Context(), ""); err != nil {
			return err
		}
		state.Subscribe(func(e session.Event) {
			if e.Kind == session.Reverted {
				color.New(color.FgRed).Fprintf(out, "✗ %s was not saved: %v\n", e.Meal.Name, e.Err)
			}
		})

		meal, err := state.LogMeal(cmd.Context(), in)
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(out, "✓ Logged %s\n", meal.Name)
		fmt.Fprintf(out, "  %s %d kcal  P %.0fg  C %.0fg  F %.0fg\n",
			color.New(color.Faint).Sprint(shortID(meal.ID)),
			meal.Calories, meal.Macros.Protein, meal.Macros.Carbs, meal.Macros.Fats)

		if sameDay(state, meal) {
			stats := state.Stats()
			fmt.Fprintf(out, "  today %d / %d kcal, flow %d\n",
				stats.ConsumedCalories, stats.TargetCalories, stats.FlowScore)
		}
		return nil
	},
}

// sameDay reports whether meal falls on the loaded day.
func sameDay(state *session.State, meal models.Meal) bool {
	return meal.Timestamp.In(userLocation()).Format(models.DateLayout) == state.Date().String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	logCmd.Flags().Float64VarP(&logProtein, "protein", "p", 0, "protein (g)")
	logCmd.Flags().Float64VarP(&logCarbs, "carbs", "c", 0, "carbohydrates (g)")
	logCmd.Flags().Float64VarP(&logFats, "fats", "f", 0, "fat (g)")
	logCmd.Flags().StringVar(&logAt, "at", "", "when it was eaten (HH:MM or YYYY-MM-DD HH:MM)")
	_ = logCmd.MarkFlagRequired("protein")
	_ = logCmd.MarkFlagRequired("carbs")
	_ = logCmd.MarkFlagRequired("fats")
	rootCmd.AddCommand(logCmd)
}
