package nutrition

import "time"

// Macros are grams of protein, carbs and fats.
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// Intake is an amount of food energy: calories plus macros.
type Intake struct {
	Calories int    `json:"calories"`
	Macros   Macros `json:"macros"`
}

// Add returns the elementwise sum of a and b.
func (a Intake) Add(b Intake) Intake {
	return Intake{
		Calories: a.Calories + b.Calories,
		Macros: Macros{
			Protein: a.Macros.Protein + b.Macros.Protein,
			Carbs:   a.Macros.Carbs + b.Macros.Carbs,
			Fats:    a.Macros.Fats + b.Macros.Fats,
		},
	}
}

// Sum folds a list of intakes. An empty list sums to zero.
func Sum(items []Intake) Intake {
	var total Intake
	for _, it := range items {
		total = total.Add(it)
	}
	return total
}

// Logged is anything with a timestamp and an intake, e.g. a logged meal.
type Logged interface {
	LoggedAt() time.Time
	Intake() Intake
}

// DayBounds returns the midnight that starts day's calendar day and the
// midnight that starts the next one, in day's location. The window is
// half-open: start <= t < end.
func DayBounds(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end = start.AddDate(0, 0, 1)
	return start, end
}

// SumDay totals the meals whose timestamp falls on day's calendar day.
// Meals are compared in day's location, so pass a day in the user's zone.
func SumDay[M Logged](meals []M, day time.Time) Intake {
	start, end := DayBounds(day)
	var total Intake
	for _, m := range meals {
		at := m.LoggedAt()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		total = total.Add(m.Intake())
	}
	return total
}
