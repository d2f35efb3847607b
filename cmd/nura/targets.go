package main

import (
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/nutrition"
)

var (
	targetsWeight   float64
	targetsHeight   float64
	targetsAge      int
	targetsGender   string
	targetsActivity string
	targetsGoal     string
	targetsBiotype  string
	targetsRemote   bool
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Calculate daily calorie and macro targets",
	Long: `Calculate targets from biometrics. Runs offline by default; missing
weight, height and age fall back to 70 kg, 175 cm and 30 years.

With --remote the stored profile is used and the flags override it.

Examples:
  nura targets --weight 70 --height 175 --age 30 --activity moderate
  nura targets --goal aesthetic --biotype endo
  nura targets --remote --goal performance`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetsGender != "" && !nutrition.IsValidGender(targetsGender) {
			return fmt.Errorf("gender must be male or female")
		}
		if targetsActivity != "" && !nutrition.IsValidActivityLevel(targetsActivity) {
			return fmt.Errorf("activity must be sedentary, moderate or intense")
		}
		if targetsGoal != "" && !nutrition.IsValidGoal(targetsGoal) {
			return fmt.Errorf("goal must be aesthetic, health or performance")
		}
		if targetsBiotype != "" && !nutrition.IsValidBiotype(targetsBiotype) {
			return fmt.Errorf("biotype must be ecto, meso or endo")
		}

		out := cmd.OutOrStdout()
		if targetsRemote {
			res, err := newClient().Targets(cmd.Context(), targetsOverrides(cmd))
			if err != nil {
				return err
			}
			printTargets(out, res.Biometrics, res.Targets, res.BMR, res.TDEE)
			return nil
		}

		b := nutrition.Biometrics{
			WeightKg:      targetsWeight,
			HeightCm:      targetsHeight,
			Age:           targetsAge,
			Gender:        nutrition.Gender(targetsGender),
			ActivityLevel: nutrition.ActivityLevel(targetsActivity),
			Goal:          nutrition.Goal(targetsGoal),
			Biotype:       nutrition.Biotype(targetsBiotype),
		}.WithDefaults()
		printTargets(out, b, nutrition.ComputeTargets(b),
			int(math.Round(nutrition.BMR(b))), int(math.Round(nutrition.TDEE(b))))
		return nil
	},
}

// targetsOverrides forwards only the flags the user actually set.
func targetsOverrides(cmd *cobra.Command) url.Values {
	q := url.Values{}
	set := func(flag, key, value string) {
		if cmd.Flags().Changed(flag) {
			q.Set(key, value)
		}
	}
	set("weight", "weight_kg", strconv.FormatFloat(targetsWeight, 'f', -1, 64))
	set("height", "height_cm", strconv.FormatFloat(targetsHeight, 'f', -1, 64))
	set("age", "age", strconv.Itoa(targetsAge))
	set("gender", "gender", targetsGender)
	set("activity", "activity_level", targetsActivity)
	set("goal", "goal", targetsGoal)
	set("biotype", "biotype", targetsBiotype)
	return q
}

func printTargets(w io.Writer, b nutrition.Biometrics, t nutrition.Targets, bmr, tdee int) {
	faint := color.New(color.Faint)
	faint.Fprintf(w, "%.1f kg, %.0f cm, %d y", b.WeightKg, b.HeightCm, b.Age)
	for _, s := range []string{string(b.Gender), string(b.ActivityLevel), string(b.Goal), string(b.Biotype)} {
		if s != "" {
			faint.Fprintf(w, ", %s", s)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  BMR  %d kcal\n  TDEE %d kcal\n", bmr, tdee)
	color.New(color.Bold).Fprintf(w, "  %d kcal/day\n", t.Calories)
	fmt.Fprintf(w, "  protein %dg  carbs %dg  fats %dg\n", t.Protein, t.Carbs, t.Fats)
}

func init() {
	f := targetsCmd.Flags()
	f.Float64Var(&targetsWeight, "weight", 0, "weight (kg)")
	f.Float64Var(&targetsHeight, "height", 0, "height (cm)")
	f.IntVar(&targetsAge, "age", 0, "age (years)")
	f.StringVar(&targetsGender, "gender", "", "male or female")
	f.StringVar(&targetsActivity, "activity", "", "sedentary, moderate or intense")
	f.StringVar(&targetsGoal, "goal", "", "aesthetic, health or performance")
	f.StringVar(&targetsBiotype, "biotype", "", "ecto, meso or endo")
	f.BoolVar(&targetsRemote, "remote", false, "start from the stored profile")
	rootCmd.AddCommand(targetsCmd)
}
