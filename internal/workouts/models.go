package workouts

import (
	"time"

	"github.com/fdg312/coach-hub/internal/workoutbuilder"
	"github.com/google/uuid"
)

// CreateSessionRequest: тело POST /v1/workouts/sessions.
// Без plan_id создаётся новый план (все дни отдыха).
type CreateSessionRequest struct {
	PlanID   *uuid.UUID `json:"plan_id,omitempty"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
}

// Command: одна правка конструктора. Правки дня применяются к активному
// дню сессии (select_day переключает его).
type Command struct {
	Op       string `json:"op"`
	Value    string `json:"value,omitempty"`
	Slot     int    `json:"slot,omitempty"`
	Days     int    `json:"days,omitempty"`
	Group    int    `json:"group,omitempty"`
	Exercise int    `json:"exercise,omitempty"`
	Field    string `json:"field,omitempty"`
}

// SubmitRequest: необязательное тело submit; client_id переназначает план.
type SubmitRequest struct {
	ClientID *uuid.UUID `json:"client_id,omitempty"`
}

// SlotView: кнопка дня в навигации конструктора
type SlotView struct {
	Index int                      `json:"index"`
	Key   string                   `json:"key"`
	Mode  workoutbuilder.DayMode   `json:"mode"`
	Type  workoutbuilder.GroupType `json:"type,omitempty"`
	Label string                   `json:"dayLabel,omitempty"`
	Saved bool                     `json:"saved"`
}

type SessionView struct {
	ID          string                     `json:"id"`
	PlanID      *uuid.UUID                 `json:"plan_id,omitempty"`
	ClientID    *uuid.UUID                 `json:"client_id,omitempty"`
	PlanName    string                     `json:"planName"`
	BuilderMode workoutbuilder.BuilderMode `json:"builderMode"`
	DaysPerWeek int                        `json:"workoutDaysPerWeek"`
	ActiveSlot  int                        `json:"active_slot"`
	ActiveDay   workoutbuilder.Day         `json:"active_day"`
	Slots       []SlotView                 `json:"slots"`
	Dirty       bool                       `json:"dirty"`
	Submitting  bool                       `json:"submitting"`
	Revision    int                        `json:"revision"`
	// Preview is exactly what submit would save right now.
	Preview workoutbuilder.Payload `json:"preview"`
}

type PlanDTO struct {
	ID          uuid.UUID               `json:"id"`
	ClientID    *uuid.UUID              `json:"client_id,omitempty"`
	Name        string                  `json:"name"`
	BuilderMode string                  `json:"builderMode"`
	DaysPerWeek int                     `json:"workoutDaysPerWeek"`
	Payload     *workoutbuilder.Payload `json:"payload,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

type ListPlansResponse struct {
	Plans []PlanDTO `json:"plans"`
}

type SubmitResponse struct {
	Plan     PlanDTO     `json:"plan"`
	Session  SessionView `json:"session"`
	Notified bool        `json:"notified"`
}
