package mealbuilder

import (
	"encoding/json"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFood_CaloriesFollowMacroEdits(t *testing.T) {
	for run := 0; run < 50; run++ {
		p := float64(gofakeit.IntRange(0, 300))
		c := float64(gofakeit.IntRange(0, 300))
		f := float64(gofakeit.IntRange(0, 150))

		food := Food{}.
			With(FieldProtein, formatGrams(p)).
			With(FieldCarbs, formatGrams(c)).
			With(FieldFat, formatGrams(f))
		assert.Equal(t, p*4+c*4+f*9, food.Calories)

		// non-macro edits keep the derived value
		food = food.With(FieldName, gofakeit.Name())
		assert.Equal(t, p*4+c*4+f*9, food.Calories)
	}
}

func TestFood_BadInputCountsAsZero(t *testing.T) {
	food := Food{}.With(FieldProtein, "10").With(FieldCarbs, "abc").With(FieldFat, "")
	assert.Equal(t, 40.0, food.Calories)
	assert.Equal(t, "abc", food.Carbs)

	food = food.With(FieldProtein, "NaN")
	assert.Equal(t, 0.0, food.Calories)
}

func TestFood_BlurFillsZero(t *testing.T) {
	food := Food{}.With(FieldProtein, "12.5").Blur(FieldCarbs)
	assert.Equal(t, "0", food.Carbs)
	assert.Equal(t, "", food.Fat)
	assert.Equal(t, 50.0, food.Calories)

	food = food.With(FieldProtein, "").Blur(FieldProtein)
	assert.Equal(t, "0", food.Protein)
	assert.Equal(t, 0.0, food.Calories)
}

func TestParseFoodField_RejectsCalories(t *testing.T) {
	_, err := ParseFoodField("calories")
	assert.ErrorIs(t, err, ErrDerivedField)

	_, err = ParseFoodField("sugar")
	assert.ErrorIs(t, err, ErrUnknownField)

	f, err := ParseFoodField("fat")
	require.NoError(t, err)
	assert.True(t, f.IsMacro())
}

func TestPlan_BreakfastScenario(t *testing.T) {
	p := NewPlan()
	p = p.SetMealField(0, MealFieldName, "Breakfast")
	p = p.SetMealField(0, MealFieldTime, "7:00 AM")
	p = p.SetFoodField(0, 0, FieldProtein, "20")
	p = p.SetFoodField(0, 0, FieldCarbs, "30")
	p = p.SetFoodField(0, 0, FieldFat, "10")

	assert.Equal(t, 290.0, p.Meals[0].Foods[0].Calories)

	totals := p.Totals(0)
	assert.Equal(t, 20.0, totals.Protein)
	assert.Equal(t, 290.0, totals.Calories)
	assert.Equal(t, 30.0, totals.Carbs)
	assert.Equal(t, 10.0, totals.Fat)
}

func twoVariantPlan() Plan {
	p := NewPlan().SetMealField(0, MealFieldName, "Lunch").SetMealField(0, MealFieldTime, "12:00")
	p = p.SetFoodField(0, 0, FieldProtein, "30")
	p = p.AddMealOption(0)
	p = p.SetFoodField(1, 0, FieldProtein, "50")
	p = p.AddMeal().SetFoodField(2, 0, FieldFat, "5")
	return p
}

func TestTotals_DefaultWinsUnlessViewingB(t *testing.T) {
	p := twoVariantPlan()
	require.Len(t, p.Meals, 3)
	require.Equal(t, OptionB, p.Meals[1].Option)
	require.Equal(t, p.Meals[0].Key(), p.Meals[1].Key())

	// viewing A or an unrelated meal: A counts
	for _, viewing := range []int{-1, 0, 2} {
		totals := p.Totals(viewing)
		assert.Equal(t, 30.0, totals.Protein, "viewing=%d", viewing)
		assert.Equal(t, 30.0*4+5*9, totals.Calories, "viewing=%d", viewing)
	}

	// viewing B: B replaces A for that key only
	totals := p.Totals(1)
	assert.Equal(t, 50.0, totals.Protein)
	assert.Equal(t, 50.0*4+5*9, totals.Calories)
}

func TestTotals_OrphanBCounts(t *testing.T) {
	p := twoVariantPlan().RemoveMeal(0)
	require.Equal(t, OptionB, p.Meals[0].Option)
	assert.Equal(t, 50.0, p.Totals(-1).Protein)
}

func TestAddMealOption_Rules(t *testing.T) {
	p := NewPlan()
	assert.True(t, p.CanAddMealOption(0))

	p = p.AddMealOption(0)
	assert.False(t, p.CanAddMealOption(0), "A already has a B")
	assert.False(t, p.CanAddMealOption(1), "B never offers an option")
	assert.Len(t, p.AddMealOption(0).Meals, 2)
	assert.NotEqual(t, p.Meals[0].ID, p.Meals[1].ID)
}

func TestSetMealField_PropagatesToVariants(t *testing.T) {
	p := twoVariantPlan().SetMealField(1, MealFieldTime, "13:30")
	assert.Equal(t, "13:30", p.Meals[0].Time)
	assert.Equal(t, "13:30", p.Meals[1].Time)
	assert.Equal(t, "", p.Meals[2].Time)
}

func TestSetMealField_RefusesKeyCollision(t *testing.T) {
	p := twoVariantPlan()

	p = p.SetMealField(2, MealFieldName, "Lunch")
	require.Equal(t, "Lunch", p.Meals[2].Name)

	// Lunch at 12:00 already exists as the A/B pair
	assert.False(t, p.CanSetMealField(2, MealFieldTime, "12:00"))
	assert.Equal(t, p, p.SetMealField(2, MealFieldTime, "12:00"))
	assert.Equal(t, 30.0*4+5*9, p.Totals(-1).Calories)

	// the pair itself may be re-set to its own key
	assert.True(t, p.CanSetMealField(1, MealFieldTime, "12:00"))
}

func TestAddMeal_SkipsTakenNames(t *testing.T) {
	p := NewPlan().AddMeal()
	require.Equal(t, "Meal 2", p.Meals[1].Name)

	p = p.RemoveMeal(0).AddMeal()
	require.Len(t, p.Meals, 2)
	assert.Equal(t, "Meal 2", p.Meals[0].Name)
	assert.Equal(t, "Meal 3", p.Meals[1].Name)
	assert.NotEqual(t, p.Meals[0].Key(), p.Meals[1].Key())
}

func TestRemoveBlockedOnLast(t *testing.T) {
	p := NewPlan()
	assert.Equal(t, p, p.RemoveMeal(0))
	assert.Equal(t, p, p.RemoveFood(0, 0))

	p = p.AddFood(0).SetFoodField(0, 1, FieldName, "Oats")
	got := p.RemoveFood(0, 0)
	require.Len(t, got.Meals[0].Foods, 1)
	assert.Equal(t, "Oats", got.Meals[0].Foods[0].Name)
	assert.Len(t, p.Meals[0].Foods, 2, "receiver untouched")
}

func TestPayload_RoundTrip(t *testing.T) {
	p := twoVariantPlan().SetTitle("Cut").SetDescription("2200 kcal")
	p = p.SetFoodField(0, 0, FieldCarbs, "12.5")

	raw, err := json.Marshal(p.Payload())
	require.NoError(t, err)

	var pl Payload
	require.NoError(t, json.Unmarshal(raw, &pl))
	got := FromPayload(pl)

	assert.Equal(t, p.Payload(), got.Payload())
	assert.Equal(t, p.Totals(1), got.Totals(1))
	assert.Equal(t, "12.5", got.Meals[0].Foods[0].Carbs)
}

func TestFromPayload_EmptyGetsDefaultMeal(t *testing.T) {
	p := FromPayload(Payload{Title: "Empty"})
	require.Len(t, p.Meals, 1)
	assert.Equal(t, "Meal 1", p.Meals[0].Name)
	assert.Len(t, p.Meals[0].Foods, 1)
}
