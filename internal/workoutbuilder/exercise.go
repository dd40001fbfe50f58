package workoutbuilder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField     = errors.New("unknown exercise field")
	ErrUnknownGroupType = errors.New("unknown group type")
	ErrUnknownDayMode   = errors.New("unknown day mode")
	ErrUnknownPlanMode  = errors.New("unknown builder mode")
)

// Exercise is a single line of a group. Sets and reps are free text
// ("3", "8-10", "AMRAP"), never validated here.
type Exercise struct {
	Name      string `json:"name"`
	Sets      string `json:"sets"`
	Reps      string `json:"reps"`
	Notes     string `json:"notes,omitempty"`
	VideoFile string `json:"videoFile,omitempty"`
}

type ExerciseField string

const (
	FieldName      ExerciseField = "name"
	FieldSets      ExerciseField = "sets"
	FieldReps      ExerciseField = "reps"
	FieldNotes     ExerciseField = "notes"
	FieldVideoFile ExerciseField = "videoFile"
)

func ParseExerciseField(s string) (ExerciseField, error) {
	f := ExerciseField(strings.TrimSpace(s))
	switch f {
	case FieldName, FieldSets, FieldReps, FieldNotes, FieldVideoFile:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// With returns a copy of e with one field replaced.
func (e Exercise) With(field ExerciseField, value string) Exercise {
	switch field {
	case FieldName:
		e.Name = value
	case FieldSets:
		e.Sets = value
	case FieldReps:
		e.Reps = value
	case FieldNotes:
		e.Notes = value
	case FieldVideoFile:
		e.VideoFile = value
	}
	return e
}
