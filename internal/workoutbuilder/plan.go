package workoutbuilder

import (
	"fmt"
	"strings"
)

const DaysInWeek = 7

const (
	MinDaysPerWeek     = 1
	MaxDaysPerWeek     = DaysInWeek
	defaultDaysPerWeek = 3
)

// Weekdays are the keys of the submitted week, Monday first.
var Weekdays = [DaysInWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func WeekdayIndex(name string) (int, bool) {
	for i, w := range Weekdays {
		if strings.EqualFold(w, strings.TrimSpace(name)) {
			return i, true
		}
	}
	return 0, false
}

type BuilderMode string

const (
	// ModeFixed edits the seven weekdays directly.
	ModeFixed BuilderMode = "week"
	// ModeFlexible edits N day templates that are laid onto the week at submit.
	ModeFlexible BuilderMode = "day"
)

func ParseBuilderMode(s string) (BuilderMode, error) {
	m := BuilderMode(strings.TrimSpace(s))
	switch m {
	case ModeFixed, ModeFlexible:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlanMode, s)
}

// Plan is the workout plan aggregate. Both representations are kept so that
// switching modes back and forth loses nothing; only the active one is
// submitted. len(Templates) == DaysPerWeek always holds.
type Plan struct {
	Name        string          `json:"name"`
	Mode        BuilderMode     `json:"builderMode"`
	Week        [DaysInWeek]Day `json:"week"`
	Templates   []Day           `json:"templates"`
	DaysPerWeek int             `json:"workoutDaysPerWeek"`
}

// NewPlan returns the fresh-session plan: every weekday is a rest day.
func NewPlan() Plan {
	p := Plan{Mode: ModeFixed, DaysPerWeek: defaultDaysPerWeek}
	for i := range p.Week {
		p.Week[i] = RestDay()
	}
	p.Templates = make([]Day, defaultDaysPerWeek)
	for i := range p.Templates {
		p.Templates[i] = DefaultTemplate(i)
	}
	return p
}

func DefaultTemplate(i int) Day {
	d := WorkoutDay()
	d.Label = fmt.Sprintf("Day %d", i+1)
	return d
}

func (p Plan) clone() Plan {
	out := Plan{Name: p.Name, Mode: p.Mode, DaysPerWeek: p.DaysPerWeek}
	for i, d := range p.Week {
		out.Week[i] = d.clone()
	}
	out.Templates = make([]Day, len(p.Templates))
	for i, d := range p.Templates {
		out.Templates[i] = d.clone()
	}
	return out
}

func (p Plan) SetName(name string) Plan {
	out := p.clone()
	out.Name = name
	return out
}

func (p Plan) SetMode(m BuilderMode) Plan {
	if m != ModeFixed && m != ModeFlexible {
		return p
	}
	out := p.clone()
	out.Mode = m
	return out
}

func clampDays(n int) int {
	if n < MinDaysPerWeek {
		return MinDaysPerWeek
	}
	if n > MaxDaysPerWeek {
		return MaxDaysPerWeek
	}
	return n
}

// SetDaysPerWeek resizes the template list. Templates below min(old, new)
// survive untouched; new indexes get a default template.
func (p Plan) SetDaysPerWeek(n int) Plan {
	n = clampDays(n)
	out := p.clone()
	templates := make([]Day, n)
	for i := range templates {
		if i < len(out.Templates) {
			templates[i] = out.Templates[i]
		} else {
			templates[i] = DefaultTemplate(i)
		}
	}
	out.Templates = templates
	out.DaysPerWeek = n
	return out
}

// SlotCount is the number of editable days in the active mode.
func (p Plan) SlotCount() int {
	if p.Mode == ModeFlexible {
		return len(p.Templates)
	}
	return DaysInWeek
}

func (p Plan) HasSlot(i int) bool {
	return i >= 0 && i < p.SlotCount()
}

// Slot returns the day at index i of the active representation.
func (p Plan) Slot(i int) Day {
	if !p.HasSlot(i) {
		return Day{}
	}
	if p.Mode == ModeFlexible {
		return p.Templates[i]
	}
	return p.Week[i]
}

// SlotKey names a slot for bookkeeping: a weekday name or "Day N".
func (p Plan) SlotKey(i int) string {
	if p.Mode == ModeFlexible {
		return fmt.Sprintf("Day %d", i+1)
	}
	if i >= 0 && i < DaysInWeek {
		return Weekdays[i]
	}
	return ""
}

func (p Plan) WithSlot(i int, d Day) Plan {
	if !p.HasSlot(i) {
		return p
	}
	out := p.clone()
	if p.Mode == ModeFlexible {
		out.Templates[i] = d.clone()
	} else {
		out.Week[i] = d.clone()
	}
	return out
}

// Reconcile produces the seven-day week that is submitted. In fixed mode it
// is the week as edited. In flexible mode template i fills weekday i for
// i < DaysPerWeek and every remaining weekday is a rest day.
func (p Plan) Reconcile() [DaysInWeek]Day {
	var week [DaysInWeek]Day
	if p.Mode != ModeFlexible {
		for i, d := range p.Week {
			week[i] = d.clone()
		}
		return week
	}
	for i := range week {
		if i < p.DaysPerWeek && i < len(p.Templates) {
			week[i] = p.Templates[i].clone()
		} else {
			week[i] = RestDay()
		}
	}
	return week
}
