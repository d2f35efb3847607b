// Package nutrition holds the pure computations behind NURA: calorie and macro
// targets, daily consumption totals, the flow score, level/streak progression
// and quarterly plan shaping. Nothing in here touches the network or the DB.
package nutrition

import "math"

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

type ActivityLevel string

const (
	Sedentary ActivityLevel = "sedentary"
	Moderate  ActivityLevel = "moderate"
	Intense   ActivityLevel = "intense"
)

type Goal string

const (
	GoalAesthetic   Goal = "aesthetic"
	GoalHealth      Goal = "health"
	GoalPerformance Goal = "performance"
)

type Biotype string

const (
	Ecto Biotype = "ecto"
	Meso Biotype = "meso"
	Endo Biotype = "endo"
)

// Fallbacks applied when a profile is missing a numeric biometric.
const (
	DefaultWeightKg = 70.0
	DefaultHeightCm = 175.0
	DefaultAge      = 30
)

// activityMultipliers maps activity levels to their TDEE multiplier. This is
// the single source of truth for valid activity levels; profile validation
// uses it too.
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary: 1.2,
	Moderate:  1.55,
	Intense:   1.725,
}

// goalAdjustments is the flat calorie offset applied to TDEE per goal.
var goalAdjustments = map[Goal]float64{
	GoalAesthetic:   -300,
	GoalHealth:      0,
	GoalPerformance: 200,
}

// MacroSplit is the fraction of calories assigned to each macro. Fractions sum to 1.
type MacroSplit struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// DefaultSplit is used for meso and for any biotype we don't recognise.
var DefaultSplit = MacroSplit{Protein: 0.30, Carbs: 0.40, Fat: 0.30}

var biotypeSplits = map[Biotype]MacroSplit{
	Ecto: {Protein: 0.25, Carbs: 0.50, Fat: 0.25},
	Meso: DefaultSplit,
	Endo: {Protein: 0.40, Carbs: 0.25, Fat: 0.35},
}

// Biometrics is the input to the target calculator.
type Biometrics struct {
	WeightKg      float64       `json:"weight_kg"`
	HeightCm      float64       `json:"height_cm"`
	Age           int           `json:"age"`
	Gender        Gender        `json:"gender"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
	Biotype       Biotype       `json:"biotype"`
}

// Targets is the daily calorie budget plus macro targets in grams.
type Targets struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

// WithDefaults fills zero or negative weight, height and age with the standard
// fallbacks. Missing inputs are never rejected; a result is always produced.
func (b Biometrics) WithDefaults() Biometrics {
	if b.WeightKg <= 0 {
		b.WeightKg = DefaultWeightKg
	}
	if b.HeightCm <= 0 {
		b.HeightCm = DefaultHeightCm
	}
	if b.Age <= 0 {
		b.Age = DefaultAge
	}
	return b
}

func IsValidGender(s string) bool { return s == string(Male) || s == string(Female) }

func IsValidActivityLevel(s string) bool {
	_, ok := activityMultipliers[ActivityLevel(s)]
	return ok
}

func IsValidGoal(s string) bool {
	_, ok := goalAdjustments[Goal(s)]
	return ok
}

func IsValidBiotype(s string) bool {
	_, ok := biotypeSplits[Biotype(s)]
	return ok
}

// SplitFor returns the macro split for a biotype.
func SplitFor(b Biotype) MacroSplit {
	if s, ok := biotypeSplits[b]; ok {
		return s
	}
	return DefaultSplit
}

// BMR computes basal metabolic rate with the Harris-Benedict equation.
// Anything other than "female" takes the male constants.
func BMR(b Biometrics) float64 {
	age := float64(b.Age)
	if b.Gender == Female {
		return 447.593 + 9.247*b.WeightKg + 3.098*b.HeightCm - 4.330*age
	}
	return 88.362 + 13.397*b.WeightKg + 4.799*b.HeightCm - 5.677*age
}

// TDEE multiplies BMR by the activity multiplier. Unknown levels count as sedentary.
func TDEE(b Biometrics) float64 {
	mult, ok := activityMultipliers[b.ActivityLevel]
	if !ok {
		mult = activityMultipliers[Sedentary]
	}
	return BMR(b) * mult
}

// ComputeTargets turns biometrics into a calorie budget and macro grams.
// Calories are rounded first and the grams derive from the rounded value, so a
// goal change moves calories by exactly its offset.
func ComputeTargets(b Biometrics) Targets {
	calories := int(math.Round(TDEE(b) + goalAdjustments[b.Goal]))
	split := SplitFor(b.Biotype)
	kcal := float64(calories)
	return Targets{
		Calories: calories,
		Protein:  int(math.Round(kcal * split.Protein / 4)),
		Carbs:    int(math.Round(kcal * split.Carbs / 4)),
		Fats:     int(math.Round(kcal * split.Fat / 9)),
	}
}
