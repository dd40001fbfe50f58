package mealbuilder

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownField  = errors.New("unknown food field")
	ErrDerivedField  = errors.New("field is derived")
	ErrUnknownOption = errors.New("unknown meal option")
)

// Energy per gram of macronutrient.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

type FoodField string

const (
	FieldName     FoodField = "name"
	FieldPortion  FoodField = "portion"
	FieldProtein  FoodField = "protein"
	FieldCarbs    FoodField = "carbs"
	FieldFat      FoodField = "fat"
	fieldCalories FoodField = "calories"
)

func ParseFoodField(s string) (FoodField, error) {
	f := FoodField(strings.TrimSpace(s))
	switch f {
	case FieldName, FieldPortion, FieldProtein, FieldCarbs, FieldFat:
		return f, nil
	case fieldCalories:
		return "", fmt.Errorf("%w: calories = protein*4 + carbs*4 + fat*9", ErrDerivedField)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f FoodField) IsMacro() bool {
	return f == FieldProtein || f == FieldCarbs || f == FieldFat
}

// Food keeps macros as the raw text the coach typed so partial input like
// "1." survives a round trip. Calories are derived from the parsed values.
type Food struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion"`
	Protein  string  `json:"protein"`
	Carbs    string  `json:"carbs"`
	Fat      string  `json:"fat"`
	Calories float64 `json:"calories"`
}

// Grams parses a macro input. Empty or unparseable input counts as zero.
func Grams(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func Calories(protein, carbs, fat float64) float64 {
	return protein*KcalPerGramProtein + carbs*KcalPerGramCarbs + fat*KcalPerGramFat
}

func (f Food) Macros() Macros {
	return Macros{
		Calories: f.Calories,
		Protein:  Grams(f.Protein),
		Carbs:    Grams(f.Carbs),
		Fat:      Grams(f.Fat),
	}
}

func (f Food) recompute() Food {
	f.Calories = Calories(Grams(f.Protein), Grams(f.Carbs), Grams(f.Fat))
	return f
}

// With applies the edit first, then recomputes calories from the new values.
func (f Food) With(field FoodField, value string) Food {
	switch field {
	case FieldName:
		f.Name = value
	case FieldPortion:
		f.Portion = value
	case FieldProtein:
		f.Protein = value
	case FieldCarbs:
		f.Carbs = value
	case FieldFat:
		f.Fat = value
	default:
		return f
	}
	if field.IsMacro() {
		f = f.recompute()
	}
	return f
}

// Blur runs when a macro input loses focus: an empty value becomes "0".
func (f Food) Blur(field FoodField) Food {
	if !field.IsMacro() {
		return f
	}
	switch field {
	case FieldProtein:
		f.Protein = zeroIfBlank(f.Protein)
	case FieldCarbs:
		f.Carbs = zeroIfBlank(f.Carbs)
	case FieldFat:
		f.Fat = zeroIfBlank(f.Fat)
	}
	return f.recompute()
}

func zeroIfBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
