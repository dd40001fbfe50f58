package workoutbuilder

import (
	"encoding/json"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_AllRest(t *testing.T) {
	p := NewPlan()
	assert.Equal(t, ModeFixed, p.Mode)
	for i, d := range p.Week {
		assert.Equal(t, RestDay(), d, Weekdays[i])
	}
	assert.Len(t, p.Templates, p.DaysPerWeek)
}

func TestReconcile_FlexibleFill(t *testing.T) {
	for n := 1; n <= 7; n++ {
		p := NewPlan().SetMode(ModeFlexible).SetDaysPerWeek(n)
		for i := range p.Templates {
			p = p.WithSlot(i, p.Slot(i).SetLabel(gofakeit.Word()))
		}

		week := p.Reconcile()
		for i := 0; i < DaysInWeek; i++ {
			if i < n {
				assert.Equal(t, p.Templates[i], week[i], "n=%d weekday=%s", n, Weekdays[i])
			} else {
				assert.Equal(t, RestDay(), week[i], "n=%d weekday=%s", n, Weekdays[i])
			}
		}
	}
}

func TestReconcile_FixedPassThrough(t *testing.T) {
	p := NewPlan()
	p = p.WithSlot(2, WorkoutDay().SetExerciseField(0, 0, FieldName, "Deadlift"))

	week := p.Reconcile()
	assert.Equal(t, p.Week, week)
}

func TestSetDaysPerWeek_PreservesPrefix(t *testing.T) {
	for run := 0; run < 20; run++ {
		from := gofakeit.IntRange(1, 7)
		to := gofakeit.IntRange(1, 7)

		p := NewPlan().SetMode(ModeFlexible).SetDaysPerWeek(from)
		for i := range p.Templates {
			d := p.Slot(i).SetGroupType(0, GroupSuperSet)
			d = d.SetExerciseField(0, 1, FieldName, gofakeit.Name())
			p = p.WithSlot(i, d)
		}

		got := p.SetDaysPerWeek(to)
		require.Len(t, got.Templates, to)
		assert.Equal(t, to, got.DaysPerWeek)
		for i := 0; i < to; i++ {
			if i < from {
				assert.Equal(t, p.Templates[i], got.Templates[i], "from=%d to=%d i=%d", from, to, i)
			} else {
				assert.Equal(t, DefaultTemplate(i), got.Templates[i], "from=%d to=%d i=%d", from, to, i)
			}
		}
	}
}

func TestSetDaysPerWeek_Clamps(t *testing.T) {
	assert.Equal(t, 1, NewPlan().SetDaysPerWeek(0).DaysPerWeek)
	assert.Equal(t, 7, NewPlan().SetDaysPerWeek(12).DaysPerWeek)
}

func TestSetMode_KeepsBothRepresentations(t *testing.T) {
	p := NewPlan().WithSlot(0, WorkoutDay().SetLabel("Upper"))
	flex := p.SetMode(ModeFlexible)
	flex = flex.WithSlot(0, flex.Slot(0).SetLabel("A"))

	back := flex.SetMode(ModeFixed)
	assert.Equal(t, "Upper", back.Slot(0).Label)
	assert.Equal(t, "A", back.SetMode(ModeFlexible).Slot(0).Label)
}

func TestPayload_FlexibleShape(t *testing.T) {
	p := NewPlan().SetName("Split").SetMode(ModeFlexible).SetDaysPerWeek(2)
	pl := p.Payload()

	require.NotNil(t, pl.WorkoutDaysPerWeek)
	assert.Equal(t, 2, *pl.WorkoutDaysPerWeek)
	assert.Equal(t, ModeFlexible, pl.BuilderMode)
	require.Len(t, pl.Week, 7)
	assert.Equal(t, "Day 1", pl.Week["Monday"].DayLabel)
	assert.Equal(t, GroupSingle, pl.Week["Tuesday"].Type)
	assert.Equal(t, DayPayload{Mode: DayRest}, pl.Week["Wednesday"])

	raw, err := json.Marshal(NewPlan().Payload())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "workoutDaysPerWeek")
}

func TestFromPayload_RoundTrip(t *testing.T) {
	p := NewPlan().SetName("Upper/Lower").SetMode(ModeFlexible).SetDaysPerWeek(4)
	p = p.WithSlot(1, p.Slot(1).SetGroupType(0, GroupGiantSet).AddExercise(0))

	raw, err := json.Marshal(p.Payload())
	require.NoError(t, err)

	var pl Payload
	require.NoError(t, json.Unmarshal(raw, &pl))
	got := FromPayload(pl)

	assert.Equal(t, ModeFlexible, got.Mode)
	assert.Equal(t, 4, got.DaysPerWeek)
	assert.Equal(t, p.Templates, got.Templates)
	assert.Equal(t, p.Payload(), got.Payload())
}

func TestFromPayload_NormalizesUnknownValues(t *testing.T) {
	pl := Payload{
		PlanName:    "Legacy",
		BuilderMode: "month",
		Week: map[string]DayPayload{
			"Monday":  {Mode: DayWorkout, Groups: []Group{{Type: "Drop Set", Exercises: []Exercise{{Name: "Curl"}, {Name: "Curl 2"}}}}},
			"Tuesday": {Mode: "deload"},
			"Friday":  {Mode: DayWorkout},
		},
	}

	p := FromPayload(pl)
	assert.Equal(t, ModeFixed, p.Mode)
	require.Len(t, p.Week[0].Groups, 1)
	assert.Equal(t, GroupSingle, p.Week[0].Groups[0].Type)
	assert.Equal(t, []Exercise{{Name: "Curl"}}, p.Week[0].Groups[0].Exercises)
	assert.Equal(t, RestDay(), p.Week[1])
	assert.Equal(t, WorkoutDay(), p.Week[4])
}
