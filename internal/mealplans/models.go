package mealplans

import (
	"time"

	"github.com/fdg312/coach-hub/internal/mealbuilder"
	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	PlanID   *uuid.UUID `json:"plan_id,omitempty"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
}

// Command: одна правка плана питания. Meal и Food: индексы в плане.
type Command struct {
	Op    string `json:"op"`
	Value string `json:"value,omitempty"`
	Meal  int    `json:"meal,omitempty"`
	Food  int    `json:"food,omitempty"`
	Field string `json:"field,omitempty"`
}

type SubmitRequest struct {
	ClientID *uuid.UUID `json:"client_id,omitempty"`
}

type MealView struct {
	Index  int                    `json:"index"`
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Time   string                 `json:"time"`
	Option mealbuilder.MealOption `json:"mealOption"`
	Foods  []mealbuilder.Food     `json:"foods"`
	Macros mealbuilder.Macros     `json:"macros"`
	// Counted is true for the variant that contributes to the totals.
	Counted      bool `json:"counted"`
	CanAddOption bool `json:"can_add_option"`
}

type SessionView struct {
	ID          string             `json:"id"`
	PlanID      *uuid.UUID         `json:"plan_id,omitempty"`
	ClientID    *uuid.UUID         `json:"client_id,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Meals       []MealView         `json:"meals"`
	ActiveMeal  int                `json:"active_meal"`
	Totals      mealbuilder.Macros `json:"totals"`
	Dirty       bool               `json:"dirty"`
	Submitting  bool               `json:"submitting"`
	Revision    int                `json:"revision"`
}

type PlanDTO struct {
	ID          uuid.UUID            `json:"id"`
	ClientID    *uuid.UUID           `json:"client_id,omitempty"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Totals      *mealbuilder.Macros  `json:"totals,omitempty"`
	Payload     *mealbuilder.Payload `json:"payload,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type ListPlansResponse struct {
	Plans []PlanDTO `json:"plans"`
}

type SubmitResponse struct {
	Plan     PlanDTO     `json:"plan"`
	Session  SessionView `json:"session"`
	Notified bool        `json:"notified"`
}
