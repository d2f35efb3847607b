package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/models"
)

var planNote string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the active quarterly plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := newClient().ActivePlan(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if plan == nil {
			color.New(color.Faint).Fprintln(out, "No active plan. Run 'nura plan generate' to create one.")
			return nil
		}
		printPlan(out, *plan)
		return nil
	},
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new plan with AI and make it active",
	Long: `Ask the AI for a three-month plan based on your profile. The new plan
becomes active and any previous plan is archived.

Examples:
  nura plan generate
  nura plan generate --note "vegetarian, training for a half marathon"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := newClient().GeneratePlan(cmd.Context(), planNote)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ New plan active")
		printPlan(out, plan)
		return nil
	},
}

func printPlan(w io.Writer, p models.Plan) {
	color.New(color.Bold).Fprintf(w, "%s", p.OptimizationTag)
	color.New(color.Faint).Fprintf(w, "  %s to %s\n", p.StartDate, p.EndDate)
	fmt.Fprintf(w, "  %d kcal/day  P %.0fg  C %.0fg  F %.0fg\n", p.Calories, p.Macros.Protein, p.Macros.Carbs, p.Macros.Fats)
	for _, ph := range p.Phases {
		fmt.Fprintf(w, "  %s %s", color.New(color.FgCyan).Sprintf("Month %d", ph.Month), ph.Title)
		if ph.Focus != "" {
			color.New(color.Faint).Fprintf(w, " (%s)", ph.Focus)
		}
		fmt.Fprintln(w)
		if ph.Description != "" {
			fmt.Fprintf(w, "    %s\n", ph.Description)
		}
	}
}

func init() {
	planGenerateCmd.Flags().StringVar(&planNote, "note", "", "extra context for the AI")
	planCmd.AddCommand(planGenerateCmd)
	rootCmd.AddCommand(planCmd)
}
