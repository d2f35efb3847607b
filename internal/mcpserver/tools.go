package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nura/go-api/internal/client"
	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compute_targets",
		Description: "Calculate daily calorie and macro targets from biometrics. Missing weight, height or age fall back to defaults.",
	}, s.handleComputeTargets)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_daily_stats",
		Description: "Get consumed calories, macros, targets and flow score for a day",
	}, s.handleGetDailyStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_meal",
		Description: "Log a meal with calories and macros (grams)",
	}, s.handleLogMeal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_meal",
		Description: "Estimate calories and macros from a free-text meal description, optionally logging it",
	}, s.handleAnalyzeMeal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_progress",
		Description: "Get the flow streak, total flow days and level",
	}, s.handleGetProgress)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_active_plan",
		Description: "Get the active quarterly nutrition plan",
	}, s.handleGetActivePlan)
}

// Input types

type computeTargetsInput struct {
	WeightKg      float64 `json:"weight_kg,omitempty" jsonschema:"body weight in kilograms"`
	HeightCm      float64 `json:"height_cm,omitempty" jsonschema:"height in centimeters"`
	Age           int     `json:"age,omitempty" jsonschema:"age in years"`
	Gender        string  `json:"gender,omitempty" jsonschema:"male or female"`
	ActivityLevel string  `json:"activity_level,omitempty" jsonschema:"sedentary, moderate or intense"`
	Goal          string  `json:"goal,omitempty" jsonschema:"aesthetic, health or performance"`
	Biotype       string  `json:"biotype,omitempty" jsonschema:"ecto, meso or endo"`
}

type dayInput struct {
	Date string `json:"date,omitempty" jsonschema:"day as YYYY-MM-DD, defaults to today"`
}

type logMealInput struct {
	Name     string  `json:"name" jsonschema:"what was eaten"`
	Calories int     `json:"calories" jsonschema:"total kilocalories"`
	Protein  float64 `json:"protein" jsonschema:"protein in grams"`
	Carbs    float64 `json:"carbs" jsonschema:"carbohydrates in grams"`
	Fats     float64 `json:"fats" jsonschema:"fat in grams"`
	LoggedAt string  `json:"logged_at,omitempty" jsonschema:"when it was eaten (RFC3339), defaults to now"`
}

type analyzeMealInput struct {
	Text string `json:"text" jsonschema:"description of the meal"`
	Log  bool   `json:"log,omitempty" jsonschema:"also log the analyzed meal"`
}

type emptyInput struct{}

// Output types

type targetsOutput struct {
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fats     int    `json:"fats"`
	BMR      int    `json:"bmr"`
	TDEE     int    `json:"tdee"`
	Message  string `json:"message"`
}

type dailyStatsOutput struct {
	Date             string  `json:"date"`
	ConsumedCalories int     `json:"consumed_calories"`
	TargetCalories   int     `json:"target_calories"`
	Protein          float64 `json:"protein"`
	Carbs            float64 `json:"carbs"`
	Fats             float64 `json:"fats"`
	FlowScore        int     `json:"flow_score"`
	FlowDay          bool    `json:"flow_day"`
	MealCount        int     `json:"meal_count"`
	Message          string  `json:"message"`
}

type mealOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Calories  int    `json:"calories"`
	LoggedAt  string `json:"logged_at"`
	FlowScore int    `json:"flow_score"`
	Message   string `json:"message"`
}

type analysisOutput struct {
	Recognized bool    `json:"recognized"`
	FoodName   string  `json:"food_name,omitempty"`
	Calories   int     `json:"calories,omitempty"`
	Protein    float64 `json:"protein,omitempty"`
	Carbs      float64 `json:"carbs,omitempty"`
	Fats       float64 `json:"fats,omitempty"`
	MealID     string  `json:"meal_id,omitempty"`
	Message    string  `json:"message"`
}

type progressOutput struct {
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	TotalFlowDays   int    `json:"total_flow_days"`
	Level           string `json:"level"`
	NextLevel       string `json:"next_level,omitempty"`
	DaysToNextLevel int    `json:"days_to_next_level"`
	Message         string `json:"message"`
}

type phaseOutput struct {
	Month int    `json:"month"`
	Title string `json:"title"`
	Focus string `json:"focus"`
}

type planOutput struct {
	Active          bool          `json:"active"`
	ID              string        `json:"id,omitempty"`
	Calories        int           `json:"calories,omitempty"`
	Protein         float64       `json:"protein,omitempty"`
	Carbs           float64       `json:"carbs,omitempty"`
	Fats            float64       `json:"fats,omitempty"`
	OptimizationTag string        `json:"optimization_tag,omitempty"`
	StartDate       string        `json:"start_date,omitempty"`
	EndDate         string        `json:"end_date,omitempty"`
	Phases          []phaseOutput `json:"phases,omitempty"`
	Message         string        `json:"message"`
}

// Tool handlers

func (s *Server) handleComputeTargets(ctx context.Context, req *mcp.CallToolRequest, input computeTargetsInput) (*mcp.CallToolResult, targetsOutput, error) {
	if input.Gender != "" && !nutrition.IsValidGender(input.Gender) {
		return nil, targetsOutput{}, fmt.Errorf("invalid gender %q", input.Gender)
	}
	if input.ActivityLevel != "" && !nutrition.IsValidActivityLevel(input.ActivityLevel) {
		return nil, targetsOutput{}, fmt.Errorf("invalid activity_level %q", input.ActivityLevel)
	}
	if input.Goal != "" && !nutrition.IsValidGoal(input.Goal) {
		return nil, targetsOutput{}, fmt.Errorf("invalid goal %q", input.Goal)
	}
	if input.Biotype != "" && !nutrition.IsValidBiotype(input.Biotype) {
		return nil, targetsOutput{}, fmt.Errorf("invalid biotype %q", input.Biotype)
	}

	b := nutrition.Biometrics{
		WeightKg:      input.WeightKg,
		HeightCm:      input.HeightCm,
		Age:           input.Age,
		Gender:        nutrition.Gender(input.Gender),
		ActivityLevel: nutrition.ActivityLevel(input.ActivityLevel),
		Goal:          nutrition.Goal(input.Goal),
		Biotype:       nutrition.Biotype(input.Biotype),
	}.WithDefaults()
	t := nutrition.ComputeTargets(b)

	return nil, targetsOutput{
		Calories: t.Calories,
		Protein:  t.Protein,
		Carbs:    t.Carbs,
		Fats:     t.Fats,
		BMR:      int(math.Round(nutrition.BMR(b))),
		TDEE:     int(math.Round(nutrition.TDEE(b))),
		Message:  fmt.Sprintf("%d kcal/day: %dg protein, %dg carbs, %dg fats", t.Calories, t.Protein, t.Carbs, t.Fats),
	}, nil
}

func (s *Server) handleGetDailyStats(ctx context.Context, req *mcp.CallToolRequest, input dayInput) (*mcp.CallToolResult, dailyStatsOutput, error) {
	if input.Date != "" {
		if _, err := models.ParseDate(input.Date); err != nil {
			return nil, dailyStatsOutput{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", input.Date)
		}
	}

	v, err := s.api.Daily(ctx, input.Date)
	if err != nil {
		return nil, dailyStatsOutput{}, fmt.Errorf("failed to get daily stats: %w", err)
	}

	st := v.Stats
	return nil, dailyStatsOutput{
		Date:             v.Date.String(),
		ConsumedCalories: st.ConsumedCalories,
		TargetCalories:   st.TargetCalories,
		Protein:          st.Macros.Protein,
		Carbs:            st.Macros.Carbs,
		Fats:             st.Macros.Fats,
		FlowScore:        st.FlowScore,
		FlowDay:          st.FlowDay,
		MealCount:        len(v.Meals),
		Message: fmt.Sprintf("%s: %d of %d kcal, flow score %d",
			v.Date, st.ConsumedCalories, st.TargetCalories, st.FlowScore),
	}, nil
}

func (s *Server) handleLogMeal(ctx context.Context, req *mcp.CallToolRequest, input logMealInput) (*mcp.CallToolResult, mealOutput, error) {
	in := models.NewMealInput(input.Name, input.Calories, nutrition.Macros{
		Protein: input.Protein,
		Carbs:   input.Carbs,
		Fats:    input.Fats,
	}, models.SourceManual)

	if input.LoggedAt != "" {
		t, err := time.Parse(time.RFC3339, input.LoggedAt)
		if err != nil {
			return nil, mealOutput{}, fmt.Errorf("invalid logged_at %q, expected RFC3339", input.LoggedAt)
		}
		in.Timestamp = &t
	}
	if err := in.Validate(); err != nil {
		return nil, mealOutput{}, err
	}

	res, err := s.api.LogMeal(ctx, in)
	if err != nil {
		return nil, mealOutput{}, fmt.Errorf("failed to log meal: %w", err)
	}

	return nil, mealOutput{
		ID:        res.Meal.ID,
		Name:      res.Meal.Name,
		Calories:  res.Meal.Calories,
		LoggedAt:  res.Meal.Timestamp.Format(time.RFC3339),
		FlowScore: res.Stats.FlowScore,
		Message: fmt.Sprintf("Logged %s (%d kcal). Today: %d of %d kcal, flow score %d",
			res.Meal.Name, res.Meal.Calories, res.Stats.ConsumedCalories, res.Stats.TargetCalories, res.Stats.FlowScore),
	}, nil
}

func (s *Server) handleAnalyzeMeal(ctx context.Context, req *mcp.CallToolRequest, input analyzeMealInput) (*mcp.CallToolResult, analysisOutput, error) {
	if input.Text == "" {
		return nil, analysisOutput{}, errors.New("text is required")
	}

	res, err := s.api.Analyze(ctx, models.AnalyzeRequest{Text: input.Text, Log: input.Log})
	if errors.Is(err, client.ErrUnrecognized) {
		return nil, analysisOutput{Message: "That doesn't look like food."}, nil
	}
	if err != nil {
		return nil, analysisOutput{}, fmt.Errorf("failed to analyze meal: %w", err)
	}

	a := res.Analysis
	out := analysisOutput{
		Recognized: true,
		FoodName:   a.FoodName,
		Calories:   a.Calories,
		Protein:    a.Macros.Protein,
		Carbs:      a.Macros.Carbs,
		Fats:       a.Macros.Fats,
		Message:    fmt.Sprintf("%s: ~%d kcal", a.FoodName, a.Calories),
	}
	if res.Meal != nil {
		out.MealID = res.Meal.ID
		out.Message += " (logged)"
	}
	return nil, out, nil
}

func (s *Server) handleGetProgress(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, progressOutput, error) {
	p, err := s.api.Progress(ctx)
	if err != nil {
		return nil, progressOutput{}, fmt.Errorf("failed to get progress: %w", err)
	}
	return nil, progressFrom(p), nil
}

func progressFrom(p nutrition.Progress) progressOutput {
	msg := fmt.Sprintf("Level %s, %d-day streak, %d flow days total", p.Level, p.CurrentStreak, p.TotalFlowDays)
	if p.NextLevel != "" {
		msg += fmt.Sprintf(", %d to %s", p.DaysToNextLevel, p.NextLevel)
	}
	return progressOutput{
		CurrentStreak:   p.CurrentStreak,
		LongestStreak:   p.LongestStreak,
		TotalFlowDays:   p.TotalFlowDays,
		Level:           string(p.Level),
		NextLevel:       string(p.NextLevel),
		DaysToNextLevel: p.DaysToNextLevel,
		Message:         msg,
	}
}

func (s *Server) handleGetActivePlan(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, planOutput, error) {
	plan, err := s.api.ActivePlan(ctx)
	if err != nil {
		return nil, planOutput{}, fmt.Errorf("failed to get active plan: %w", err)
	}
	if plan == nil {
		return nil, planOutput{Message: "No active plan."}, nil
	}
	return nil, planFrom(*plan), nil
}

func planFrom(p models.Plan) planOutput {
	phases := make([]phaseOutput, len(p.Phases))
	for i, ph := range p.Phases {
		phases[i] = phaseOutput{Month: ph.Month, Title: ph.Title, Focus: ph.Focus}
	}
	return planOutput{
		Active:          true,
		ID:              p.ID,
		Calories:        p.Calories,
		Protein:         p.Macros.Protein,
		Carbs:           p.Macros.Carbs,
		Fats:            p.Macros.Fats,
		OptimizationTag: p.OptimizationTag,
		StartDate:       p.StartDate.String(),
		EndDate:         p.EndDate.String(),
		Phases:          phases,
		Message:         fmt.Sprintf("%s plan, %d kcal/day, %s to %s", p.OptimizationTag, p.Calories, p.StartDate, p.EndDate),
	}
}
