package mealplans

import (
	"errors"
	"fmt"

	mb "github.com/fdg312/coach-hub/internal/mealbuilder"
)

const (
	OpSetTitle       = "set_title"
	OpSetDescription = "set_description"
	OpSelectMeal     = "select_meal"
	OpAddMeal        = "add_meal"
	OpRemoveMeal     = "remove_meal"
	OpSetMealField   = "set_meal_field"
	OpAddMealOption  = "add_meal_option"
	OpAddFood        = "add_food"
	OpRemoveFood     = "remove_food"
	OpSetFoodField   = "set_food_field"
	OpBlurFoodField  = "blur_food_field"
)

func apply(s *mb.Session, cmd Command) error {
	p := s.Plan

	switch cmd.Op {
	case OpSetTitle:
		return s.Edit(func(p mb.Plan) mb.Plan { return p.SetTitle(cmd.Value) })

	case OpSetDescription:
		return s.Edit(func(p mb.Plan) mb.Plan { return p.SetDescription(cmd.Value) })

	case OpSelectMeal:
		if !p.HasMeal(cmd.Meal) {
			return fmt.Errorf("%w: no meal %d", ErrInvalidRequest, cmd.Meal)
		}
		s.SelectMeal(cmd.Meal)
		return nil

	case OpAddMeal:
		return s.AddMeal()

	case OpRemoveMeal:
		if !p.CanRemoveMeal(cmd.Meal) {
			return fmt.Errorf("%w: meal %d cannot be removed", ErrInvalidRequest, cmd.Meal)
		}
		return s.RemoveMeal(cmd.Meal)

	case OpSetMealField:
		field, err := mb.ParseMealField(cmd.Field)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if !p.HasMeal(cmd.Meal) {
			return fmt.Errorf("%w: no meal %d", ErrInvalidRequest, cmd.Meal)
		}
		if !p.CanSetMealField(cmd.Meal, field, cmd.Value) {
			return fmt.Errorf("%w: another meal already uses this name and time", ErrInvalidRequest)
		}
		return s.Edit(func(p mb.Plan) mb.Plan { return p.SetMealField(cmd.Meal, field, cmd.Value) })

	case OpAddMealOption:
		if !p.CanAddMealOption(cmd.Meal) {
			return fmt.Errorf("%w: meal %d cannot take an option B", ErrInvalidRequest, cmd.Meal)
		}
		return s.AddMealOption(cmd.Meal)

	case OpAddFood:
		if !p.HasMeal(cmd.Meal) {
			return fmt.Errorf("%w: no meal %d", ErrInvalidRequest, cmd.Meal)
		}
		return s.Edit(func(p mb.Plan) mb.Plan { return p.AddFood(cmd.Meal) })

	case OpRemoveFood:
		if !p.CanRemoveFood(cmd.Meal, cmd.Food) {
			return fmt.Errorf("%w: food %d of meal %d cannot be removed", ErrInvalidRequest, cmd.Food, cmd.Meal)
		}
		return s.Edit(func(p mb.Plan) mb.Plan { return p.RemoveFood(cmd.Meal, cmd.Food) })

	case OpSetFoodField, OpBlurFoodField:
		field, err := mb.ParseFoodField(cmd.Field)
		if err != nil {
			if errors.Is(err, mb.ErrDerivedField) {
				return fmt.Errorf("%w: calories are computed from protein, carbs and fat", ErrInvalidRequest)
			}
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if !p.HasFood(cmd.Meal, cmd.Food) {
			return fmt.Errorf("%w: no food %d in meal %d", ErrInvalidRequest, cmd.Food, cmd.Meal)
		}
		if cmd.Op == OpBlurFoodField {
			return s.Edit(func(p mb.Plan) mb.Plan { return p.BlurFoodField(cmd.Meal, cmd.Food, field) })
		}
		return s.Edit(func(p mb.Plan) mb.Plan { return p.SetFoodField(cmd.Meal, cmd.Food, field, cmd.Value) })
	}

	return fmt.Errorf("%w: unknown op %q", ErrInvalidRequest, cmd.Op)
}
