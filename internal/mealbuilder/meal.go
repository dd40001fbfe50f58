package mealbuilder

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type MealOption string

const (
	OptionA MealOption = "A"
	OptionB MealOption = "B"
)

func ParseMealOption(s string) (MealOption, error) {
	o := MealOption(strings.ToUpper(strings.TrimSpace(s)))
	switch o {
	case OptionA, OptionB:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOption, s)
}

type MealField string

const (
	MealFieldName MealField = "name"
	MealFieldTime MealField = "time"
)

func ParseMealField(s string) (MealField, error) {
	f := MealField(strings.TrimSpace(s))
	switch f {
	case MealFieldName, MealFieldTime:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// MealKey identifies a logical meal. A and B variants share a key.
type MealKey struct {
	Name string
	Time string
}

type Meal struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Time   string     `json:"time"`
	Option MealOption `json:"mealOption"`
	Foods  []Food     `json:"foods"`
}

// DefaultMeal is the n-th (1-based) meal of a plan: option A, one blank food.
func DefaultMeal(n int) Meal {
	return Meal{
		ID:     uuid.NewString(),
		Name:   fmt.Sprintf("Meal %d", n),
		Option: OptionA,
		Foods:  []Food{{}},
	}
}

func (m Meal) Key() MealKey {
	return MealKey{Name: m.Name, Time: m.Time}
}

func (m Meal) clone() Meal {
	out := m
	out.Foods = make([]Food, len(m.Foods))
	copy(out.Foods, m.Foods)
	return out
}

func (m Meal) HasFood(i int) bool {
	return i >= 0 && i < len(m.Foods)
}

func (m Meal) Macros() Macros {
	var total Macros
	for _, f := range m.Foods {
		total = total.Add(f.Macros())
	}
	return total
}

// Macros is a calorie and macronutrient sum.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}
