package workouts

import (
	"fmt"

	wb "github.com/fdg312/coach-hub/internal/workoutbuilder"
)

const (
	OpSetPlanName      = "set_plan_name"
	OpSetBuilderMode   = "set_builder_mode"
	OpSetDaysPerWeek   = "set_days_per_week"
	OpSelectDay        = "select_day"
	OpSetMode          = "set_mode"
	OpSetLabel         = "set_label"
	OpSetGroupType     = "set_group_type"
	OpAddGroup         = "add_group"
	OpRemoveGroup      = "remove_group"
	OpAddExercise      = "add_exercise"
	OpRemoveExercise   = "remove_exercise"
	OpSetExerciseField = "set_exercise_field"
)

// apply validates cmd against the current tree and runs it. Everything the
// builder would silently ignore is reported as ErrInvalidRequest here.
func apply(s *wb.Session, cmd Command) error {
	day := s.ActiveDay()

	switch cmd.Op {
	case OpSetPlanName:
		return s.Edit(func(p wb.Plan) wb.Plan { return p.SetName(cmd.Value) })

	case OpSetBuilderMode:
		mode, err := wb.ParseBuilderMode(cmd.Value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return s.SetBuilderMode(mode)

	case OpSetDaysPerWeek:
		if s.Plan.Mode != wb.ModeFlexible {
			return fmt.Errorf("%w: days per week is only used by the flexible schedule", ErrInvalidRequest)
		}
		if cmd.Days < wb.MinDaysPerWeek || cmd.Days > wb.MaxDaysPerWeek {
			return fmt.Errorf("%w: days must be between %d and %d", ErrInvalidRequest, wb.MinDaysPerWeek, wb.MaxDaysPerWeek)
		}
		return s.SetDaysPerWeek(cmd.Days)

	case OpSelectDay:
		if !s.Plan.HasSlot(cmd.Slot) {
			return fmt.Errorf("%w: no day %d", ErrInvalidRequest, cmd.Slot)
		}
		s.SelectDay(cmd.Slot)
		return nil

	case OpSetMode:
		mode, err := wb.ParseDayMode(cmd.Value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.SetMode(mode) })

	case OpSetLabel:
		if day.IsRest() {
			return fmt.Errorf("%w: rest days have no label", ErrInvalidRequest)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.SetLabel(cmd.Value) })

	case OpSetGroupType:
		t, err := wb.ParseGroupType(cmd.Value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if !day.HasGroup(cmd.Group) {
			return fmt.Errorf("%w: no group %d", ErrInvalidRequest, cmd.Group)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.SetGroupType(cmd.Group, t) })

	case OpAddGroup:
		if day.IsRest() {
			return fmt.Errorf("%w: rest days have no groups", ErrInvalidRequest)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.AddGroup() })

	case OpRemoveGroup:
		if !day.CanRemoveGroup(cmd.Group) {
			return fmt.Errorf("%w: group %d cannot be removed", ErrInvalidRequest, cmd.Group)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.RemoveGroup(cmd.Group) })

	case OpAddExercise:
		if !day.CanAddExercise(cmd.Group) {
			return fmt.Errorf("%w: only a Giant Set takes extra exercises", ErrInvalidRequest)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.AddExercise(cmd.Group) })

	case OpRemoveExercise:
		if !day.CanRemoveExercise(cmd.Group, cmd.Exercise) {
			return fmt.Errorf("%w: exercise %d of group %d cannot be removed", ErrInvalidRequest, cmd.Exercise, cmd.Group)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.RemoveExercise(cmd.Group, cmd.Exercise) })

	case OpSetExerciseField:
		field, err := wb.ParseExerciseField(cmd.Field)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if !day.HasExercise(cmd.Group, cmd.Exercise) {
			return fmt.Errorf("%w: no exercise %d in group %d", ErrInvalidRequest, cmd.Exercise, cmd.Group)
		}
		return s.EditActiveDay(func(d wb.Day) wb.Day { return d.SetExerciseField(cmd.Group, cmd.Exercise, field, cmd.Value) })
	}

	return fmt.Errorf("%w: unknown op %q", ErrInvalidRequest, cmd.Op)
}
