package workoutbuilder

import (
	"fmt"
	"strings"
)

type DayMode string

const (
	DayWorkout DayMode = "workout"
	DayRest    DayMode = "rest"
)

func ParseDayMode(s string) (DayMode, error) {
	m := DayMode(strings.TrimSpace(s))
	switch m {
	case DayWorkout, DayRest:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDayMode, s)
}

// Day is either a rest day (no groups, no label) or a workout day with at
// least one group. All methods return a new Day; the receiver is never
// modified. Out-of-range indexes and forbidden edits return the day as is.
type Day struct {
	Mode   DayMode `json:"mode"`
	Groups []Group `json:"groups,omitempty"`
	Label  string  `json:"dayLabel,omitempty"`
}

func RestDay() Day {
	return Day{Mode: DayRest}
}

func WorkoutDay() Day {
	return Day{Mode: DayWorkout, Groups: []Group{NewGroup(GroupSingle)}}
}

func (d Day) clone() Day {
	out := Day{Mode: d.Mode, Label: d.Label}
	if d.Groups != nil {
		out.Groups = make([]Group, len(d.Groups))
		for i, g := range d.Groups {
			out.Groups[i] = g.clone()
		}
	}
	return out
}

func (d Day) IsRest() bool {
	return d.Mode != DayWorkout
}

func (d Day) HasGroup(i int) bool {
	return i >= 0 && i < len(d.Groups)
}

// Type mirrors the first group's type; empty for rest days.
func (d Day) Type() GroupType {
	if d.IsRest() || len(d.Groups) == 0 {
		return ""
	}
	return d.Groups[0].Type
}

// SetMode replaces the day wholesale. Going to rest drops everything;
// going to workout keeps existing groups or installs one Single group.
func (d Day) SetMode(m DayMode) Day {
	switch m {
	case DayRest:
		return RestDay()
	case DayWorkout:
		out := d.clone()
		out.Mode = DayWorkout
		if len(out.Groups) == 0 {
			out.Groups = []Group{NewGroup(GroupSingle)}
		}
		return out
	}
	return d
}

func (d Day) SetLabel(label string) Day {
	if d.IsRest() {
		return d
	}
	out := d.clone()
	out.Label = label
	return out
}

// SetGroupType rebuilds group i to the canonical blank shape of t. Existing
// exercises are discarded, even when t equals the current type.
func (d Day) SetGroupType(i int, t GroupType) Day {
	if !d.HasGroup(i) {
		return d
	}
	out := d.clone()
	out.Groups[i] = NewGroup(t)
	return out
}

func (d Day) AddGroup() Day {
	if d.IsRest() {
		return d
	}
	out := d.clone()
	out.Groups = append(out.Groups, NewGroup(GroupSingle))
	return out
}

func (d Day) CanRemoveGroup(i int) bool {
	return d.HasGroup(i) && len(d.Groups) > 1
}

func (d Day) RemoveGroup(i int) Day {
	if !d.CanRemoveGroup(i) {
		return d
	}
	out := Day{Mode: d.Mode, Label: d.Label, Groups: make([]Group, 0, len(d.Groups)-1)}
	for j, g := range d.Groups {
		if j != i {
			out.Groups = append(out.Groups, g.clone())
		}
	}
	return out
}

func (d Day) CanAddExercise(group int) bool {
	return d.HasGroup(group) && d.Groups[group].CanAddExercise()
}

func (d Day) CanRemoveExercise(group, item int) bool {
	return d.HasGroup(group) && d.Groups[group].CanRemoveExercise(item)
}

func (d Day) HasExercise(group, item int) bool {
	return d.HasGroup(group) && d.Groups[group].HasExercise(item)
}

func (d Day) AddExercise(group int) Day {
	if !d.CanAddExercise(group) {
		return d
	}
	out := d.clone()
	out.Groups[group] = d.Groups[group].addExercise()
	return out
}

func (d Day) RemoveExercise(group, item int) Day {
	if !d.CanRemoveExercise(group, item) {
		return d
	}
	out := d.clone()
	out.Groups[group] = d.Groups[group].removeExercise(item)
	return out
}

func (d Day) SetExerciseField(group, item int, field ExerciseField, value string) Day {
	if !d.HasExercise(group, item) {
		return d
	}
	out := d.clone()
	out.Groups[group] = d.Groups[group].withExercise(item, field, value)
	return out
}

func (d Day) normalized() Day {
	if d.Mode != DayWorkout {
		return RestDay()
	}
	out := Day{Mode: DayWorkout, Label: d.Label}
	for _, g := range d.Groups {
		out.Groups = append(out.Groups, g.normalized())
	}
	if len(out.Groups) == 0 {
		out.Groups = []Group{NewGroup(GroupSingle)}
	}
	return out
}
