package workoutbuilder

import (
	"fmt"
	"strings"
)

type GroupType string

const (
	GroupSingle   GroupType = "Single"
	GroupSuperSet GroupType = "Super Set"
	GroupGiantSet GroupType = "Giant Set"
)

// Giant sets never shrink below this many exercises.
const giantSetFloor = 3

func ParseGroupType(s string) (GroupType, error) {
	t := GroupType(strings.TrimSpace(s))
	switch t {
	case GroupSingle, GroupSuperSet, GroupGiantSet:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroupType, s)
}

// CanonicalCount is the number of blank exercises a group of type t starts with.
func (t GroupType) CanonicalCount() int {
	switch t {
	case GroupSuperSet:
		return 2
	case GroupGiantSet:
		return giantSetFloor
	default:
		return 1
	}
}

// Group is a tagged exercise list. Single and Super Set groups keep their
// canonical size; only a Giant Set can grow.
type Group struct {
	Type      GroupType  `json:"type"`
	Exercises []Exercise `json:"exercises"`
}

func NewGroup(t GroupType) Group {
	if _, err := ParseGroupType(string(t)); err != nil {
		t = GroupSingle
	}
	return Group{Type: t, Exercises: make([]Exercise, t.CanonicalCount())}
}

func (g Group) clone() Group {
	out := Group{Type: g.Type, Exercises: make([]Exercise, len(g.Exercises))}
	copy(out.Exercises, g.Exercises)
	return out
}

func (g Group) HasExercise(i int) bool {
	return i >= 0 && i < len(g.Exercises)
}

func (g Group) CanAddExercise() bool {
	return g.Type == GroupGiantSet
}

// CanRemoveExercise reports whether exercise i may be removed: only from a
// Giant Set that is above the floor, and never one of the first three.
func (g Group) CanRemoveExercise(i int) bool {
	return g.Type == GroupGiantSet &&
		len(g.Exercises) > giantSetFloor &&
		i >= giantSetFloor &&
		i < len(g.Exercises)
}

func (g Group) withExercise(i int, field ExerciseField, value string) Group {
	if !g.HasExercise(i) {
		return g
	}
	out := g.clone()
	out.Exercises[i] = out.Exercises[i].With(field, value)
	return out
}

func (g Group) addExercise() Group {
	if !g.CanAddExercise() {
		return g
	}
	out := g.clone()
	out.Exercises = append(out.Exercises, Exercise{})
	return out
}

func (g Group) removeExercise(i int) Group {
	if !g.CanRemoveExercise(i) {
		return g
	}
	out := Group{Type: g.Type, Exercises: make([]Exercise, 0, len(g.Exercises)-1)}
	out.Exercises = append(out.Exercises, g.Exercises[:i]...)
	out.Exercises = append(out.Exercises, g.Exercises[i+1:]...)
	return out
}

// normalized repairs a group read from storage: unknown types become Single
// and the exercise list is padded or cut to the type's shape.
func (g Group) normalized() Group {
	t, err := ParseGroupType(string(g.Type))
	if err != nil {
		t = GroupSingle
	}
	n := len(g.Exercises)
	want := t.CanonicalCount()
	if t != GroupGiantSet || n < want {
		n = want
	}
	out := Group{Type: t, Exercises: make([]Exercise, n)}
	copy(out.Exercises, g.Exercises)
	return out
}
