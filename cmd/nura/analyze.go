package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nura/go-api/internal/client"
	"nura/go-api/internal/models"
)

var (
	analyzeImage string
	analyzeLog   bool
	analyzeVoice bool
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze [description...]",
	Aliases: []string{"a"},
	Short:   "Estimate a meal's calories and macros with AI",
	Long: `Send a meal description or photo to the AI and print the estimate.
With --log the estimate is also logged as a meal.

Examples:
  nura analyze "two eggs, toast and a latte"
  nura analyze --image lunch.jpg --log
  nura analyze "chicken salad" --voice --log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.AnalyzeRequest{
			Text:  strings.TrimSpace(strings.Join(args, " ")),
			Voice: analyzeVoice,
			Log:   analyzeLog,
		}
		if analyzeImage != "" {
			data, err := os.ReadFile(analyzeImage)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			req.Image = base64.StdEncoding.EncodeToString(data)
			req.MimeType = http.DetectContentType(data)
		}
		if req.Text == "" && req.Image == "" {
			return errors.New("give a description or --image")
		}

		out := cmd.OutOrStdout()
		res, err := newClient().Analyze(cmd.Context(), req)
		if errors.Is(err, client.ErrUnrecognized) {
			color.New(color.FgYellow).Fprintln(out, "? That doesn't look like food.")
			return nil
		}
		if err != nil {
			return err
		}

		a := res.Analysis
		color.New(color.Bold).Fprintf(out, "%s\n", a.FoodName)
		fmt.Fprintf(out, "  ~%d kcal  P %.0fg  C %.0fg  F %.0fg\n", a.Calories, a.Macros.Protein, a.Macros.Carbs, a.Macros.Fats)
		faint := color.New(color.Faint)
		for _, it := range a.Items {
			fmt.Fprintf(out, "  %s %-24s %-12s %d kcal\n", faint.Sprint("-"), truncate(it.Name, 24), it.Quantity, it.Calories)
		}
		if a.Message != "" {
			faint.Fprintf(out, "  %s\n", a.Message)
		}
		if res.Meal != nil {
			color.New(color.FgGreen).Fprintf(out, "✓ Logged %s", shortID(res.Meal.ID))
			if res.Stats != nil {
				fmt.Fprintf(out, "  today %d / %d kcal, flow %d", res.Stats.ConsumedCalories, res.Stats.TargetCalories, res.Stats.FlowScore)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeImage, "image", "i", "", "photo of the meal")
	analyzeCmd.Flags().BoolVar(&analyzeLog, "log", false, "log the estimate as a meal")
	analyzeCmd.Flags().BoolVar(&analyzeVoice, "voice", false, "the description is a voice transcript")
	rootCmd.AddCommand(analyzeCmd)
}
