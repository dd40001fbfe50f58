package mealbuilder

import "errors"

var ErrSubmitInFlight = errors.New("submit in flight")

// Session holds one meal plan being edited and the meal the coach is
// looking at. Totals depend on ActiveMeal through the A/B rule.
type Session struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id,omitempty"`
	Plan       Plan   `json:"plan"`
	ActiveMeal int    `json:"active_meal"`
	Dirty      bool   `json:"dirty"`
	Submitting bool   `json:"submitting"`
	Revision   int    `json:"revision"`
}

func NewSession(id string) *Session {
	return &Session{ID: id, Plan: NewPlan()}
}

func HydrateSession(id, planID string, pl Payload) *Session {
	return &Session{ID: id, PlanID: planID, Plan: FromPayload(pl)}
}

func (s *Session) Fresh() bool {
	return s.PlanID == ""
}

func (s *Session) Totals() Macros {
	return s.Plan.Totals(s.ActiveMeal)
}

func (s *Session) Edit(fn func(Plan) Plan) error {
	if s.Submitting {
		return ErrSubmitInFlight
	}
	s.Plan = fn(s.Plan)
	s.Dirty = true
	s.Revision++
	s.clampActive()
	return nil
}

func (s *Session) clampActive() {
	if s.ActiveMeal >= len(s.Plan.Meals) {
		s.ActiveMeal = len(s.Plan.Meals) - 1
	}
	if s.ActiveMeal < 0 {
		s.ActiveMeal = 0
	}
}

// SelectMeal changes the viewed meal; totals follow on the next read.
func (s *Session) SelectMeal(i int) {
	if s.Plan.HasMeal(i) {
		s.ActiveMeal = i
	}
}

// AddMealOption adds a B variant to meal i and switches the view to it.
func (s *Session) AddMealOption(i int) error {
	if !s.Plan.CanAddMealOption(i) {
		return nil
	}
	if err := s.Edit(func(p Plan) Plan { return p.AddMealOption(i) }); err != nil {
		return err
	}
	s.ActiveMeal = i + 1
	return nil
}

// RemoveMeal keeps the view on the same meal when an earlier one goes away.
func (s *Session) RemoveMeal(i int) error {
	if !s.Plan.CanRemoveMeal(i) {
		return nil
	}
	active := s.ActiveMeal
	if err := s.Edit(func(p Plan) Plan { return p.RemoveMeal(i) }); err != nil {
		return err
	}
	if i < active {
		s.ActiveMeal = active - 1
	}
	s.clampActive()
	return nil
}

func (s *Session) AddMeal() error {
	if err := s.Edit(func(p Plan) Plan { return p.AddMeal() }); err != nil {
		return err
	}
	s.ActiveMeal = len(s.Plan.Meals) - 1
	return nil
}

func (s *Session) BeginSubmit() (Payload, error) {
	if s.Submitting {
		return Payload{}, ErrSubmitInFlight
	}
	s.Submitting = true
	return s.Plan.Payload(), nil
}

// CompleteSubmit resets a fresh session to a new default plan; an edit
// session keeps its tree and is clean again.
func (s *Session) CompleteSubmit(planID string) {
	s.Submitting = false
	s.Dirty = false
	if s.Fresh() {
		s.Plan = NewPlan()
		s.ActiveMeal = 0
		s.Revision++
		return
	}
	s.PlanID = planID
}

func (s *Session) FailSubmit() {
	s.Submitting = false
}
