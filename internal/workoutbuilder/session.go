package workoutbuilder

import "errors"

var ErrSubmitInFlight = errors.New("submit in flight")

// Session is the edit-session state of one workout plan. It is a plain
// struct so it can be stored between requests; the owner serializes access.
type Session struct {
	ID         string          `json:"id"`
	PlanID     string          `json:"plan_id,omitempty"`
	Plan       Plan            `json:"plan"`
	ActiveSlot int             `json:"active_slot"`
	Saved      map[string]bool `json:"saved,omitempty"`
	Dirty      bool            `json:"dirty"`
	Submitting bool            `json:"submitting"`
	Revision   int             `json:"revision"`
}

// NewSession starts a fresh plan: the week is all rest days.
func NewSession(id string) *Session {
	return &Session{ID: id, Plan: NewPlan()}
}

// HydrateSession starts an edit session for a stored plan.
func HydrateSession(id, planID string, pl Payload) *Session {
	s := &Session{ID: id, PlanID: planID, Plan: FromPayload(pl)}
	s.markAllSaved()
	return s
}

func (s *Session) Fresh() bool {
	return s.PlanID == ""
}

func (s *Session) ActiveDay() Day {
	return s.Plan.Slot(s.ActiveSlot)
}

func (s *Session) markAllSaved() {
	s.Saved = make(map[string]bool, s.Plan.SlotCount())
	for i := 0; i < s.Plan.SlotCount(); i++ {
		s.Saved[s.Plan.SlotKey(i)] = true
	}
}

func (s *Session) markSaved(slot int) {
	if !s.Plan.HasSlot(slot) {
		return
	}
	if s.Saved == nil {
		s.Saved = make(map[string]bool)
	}
	s.Saved[s.Plan.SlotKey(slot)] = true
}

// Edit applies fn to the plan. Edits are refused while a submit is running.
func (s *Session) Edit(fn func(Plan) Plan) error {
	if s.Submitting {
		return ErrSubmitInFlight
	}
	s.Plan = fn(s.Plan)
	s.Dirty = true
	s.Revision++
	return nil
}

// EditActiveDay applies fn to the active slot and marks that slot unsaved.
func (s *Session) EditActiveDay(fn func(Day) Day) error {
	slot := s.ActiveSlot
	err := s.Edit(func(p Plan) Plan {
		return p.WithSlot(slot, fn(p.Slot(slot)))
	})
	if err != nil {
		return err
	}
	if s.Saved != nil {
		delete(s.Saved, s.Plan.SlotKey(slot))
	}
	return nil
}

// SelectDay navigates to another slot. The slot being left is persisted
// into the plan as it stands, which is recorded in Saved.
func (s *Session) SelectDay(slot int) {
	if !s.Plan.HasSlot(slot) {
		return
	}
	s.markSaved(s.ActiveSlot)
	s.ActiveSlot = slot
}

func (s *Session) SetBuilderMode(m BuilderMode) error {
	if m == s.Plan.Mode {
		return nil
	}
	if err := s.Edit(func(p Plan) Plan { return p.SetMode(m) }); err != nil {
		return err
	}
	s.ActiveSlot = 0
	s.Saved = nil
	return nil
}

func (s *Session) SetDaysPerWeek(n int) error {
	if err := s.Edit(func(p Plan) Plan { return p.SetDaysPerWeek(n) }); err != nil {
		return err
	}
	if s.ActiveSlot >= s.Plan.SlotCount() {
		s.ActiveSlot = s.Plan.SlotCount() - 1
	}
	return nil
}

// BeginSubmit flags the session as submitting and returns the reconciled
// snapshot to persist.
func (s *Session) BeginSubmit() (Payload, error) {
	if s.Submitting {
		return Payload{}, ErrSubmitInFlight
	}
	s.markSaved(s.ActiveSlot)
	s.Submitting = true
	return s.Plan.Payload(), nil
}

// CompleteSubmit records a successful save. A fresh session starts over
// with a new default plan; an edit session keeps its tree.
func (s *Session) CompleteSubmit(planID string) {
	s.Submitting = false
	s.Dirty = false
	if s.Fresh() {
		s.Plan = NewPlan()
		s.ActiveSlot = 0
		s.Saved = nil
		s.Revision++
		return
	}
	s.PlanID = planID
	s.markAllSaved()
}

// FailSubmit releases the submit flag and leaves the tree untouched.
func (s *Session) FailSubmit() {
	s.Submitting = false
}
