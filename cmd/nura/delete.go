package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/session"
)

var deleteDate string

var deleteCmd = &cobra.Command{
	Use:     "delete <id-prefix>",
	Aliases: []string{"rm"},
	Short:   "Delete a meal from a day",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state := session.New(newClient())
		if err := state.Load(cmd.Context(), deleteDate); err != nil {
			return err
		}

		var matches []string
		var name string
		for _, m := range state.Meals() {
			if strings.HasPrefix(m.ID, args[0]) {
				matches = append(matches, m.ID)
				name = m.Name
			}
		}
		switch len(matches) {
		case 0:
			return fmt.Errorf("no meal on %s matches %q", state.Date(), args[0])
		case 1:
		default:
			return fmt.Errorf("%q matches %d meals, use a longer prefix", args[0], len(matches))
		}

		if err := state.DeleteMeal(cmd.Context(), matches[0]); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Deleted %s\n", name)
		stats := state.Stats()
		fmt.Fprintf(out, "  %s %d / %d kcal, flow %d\n", state.Date(), stats.ConsumedCalories, stats.TargetCalories, stats.FlowScore)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteDate, "date", "d", "", "day of the meal (YYYY-MM-DD)")
	rootCmd.AddCommand(deleteCmd)
}
