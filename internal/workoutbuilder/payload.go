package workoutbuilder

// Payload is the JSON document handed to storage on submit.
type Payload struct {
	PlanName           string                `json:"planName"`
	BuilderMode        BuilderMode           `json:"builderMode"`
	WorkoutDaysPerWeek *int                  `json:"workoutDaysPerWeek,omitempty"`
	Week               map[string]DayPayload `json:"week"`
}

type DayPayload struct {
	Mode     DayMode   `json:"mode"`
	Type     GroupType `json:"type,omitempty"`
	Groups   []Group   `json:"groups,omitempty"`
	DayLabel string    `json:"dayLabel,omitempty"`
}

func dayPayload(d Day) DayPayload {
	if d.IsRest() {
		return DayPayload{Mode: DayRest}
	}
	c := d.clone()
	return DayPayload{
		Mode:     DayWorkout,
		Type:     c.Type(),
		Groups:   c.Groups,
		DayLabel: c.Label,
	}
}

func (dp DayPayload) day() Day {
	return Day{Mode: dp.Mode, Groups: dp.Groups, Label: dp.DayLabel}.normalized()
}

// Payload reconciles the plan and renders the submit document.
func (p Plan) Payload() Payload {
	out := Payload{
		PlanName:    p.Name,
		BuilderMode: p.Mode,
		Week:        make(map[string]DayPayload, DaysInWeek),
	}
	if out.BuilderMode != ModeFlexible {
		out.BuilderMode = ModeFixed
	} else {
		n := p.DaysPerWeek
		out.WorkoutDaysPerWeek = &n
	}
	for i, d := range p.Reconcile() {
		out.Week[Weekdays[i]] = dayPayload(d)
	}
	return out
}

// FromPayload hydrates a plan from a stored document. Missing weekdays become
// rest days. A flexible plan takes its templates from the first N weekdays.
func FromPayload(pl Payload) Plan {
	p := NewPlan()
	p.Name = pl.PlanName
	for i, name := range Weekdays {
		if dp, ok := pl.Week[name]; ok {
			p.Week[i] = dp.day()
		}
	}

	mode, err := ParseBuilderMode(string(pl.BuilderMode))
	if err != nil || mode != ModeFlexible {
		return p
	}
	p.Mode = ModeFlexible

	n := 0
	if pl.WorkoutDaysPerWeek != nil {
		n = *pl.WorkoutDaysPerWeek
	} else {
		for n < DaysInWeek && !p.Week[n].IsRest() {
			n++
		}
	}
	n = clampDays(n)
	p.DaysPerWeek = n
	p.Templates = make([]Day, n)
	for i := range p.Templates {
		if p.Week[i].IsRest() {
			p.Templates[i] = DefaultTemplate(i)
		} else {
			p.Templates[i] = p.Week[i].clone()
		}
	}
	return p
}

// WorkoutDays counts the weekdays that are not rest days.
func (pl Payload) WorkoutDays() int {
	n := 0
	for _, d := range pl.Week {
		if d.Mode == DayWorkout {
			n++
		}
	}
	return n
}
