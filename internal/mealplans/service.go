package mealplans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/exports"
	"github.com/fdg312/coach-hub/internal/mailer"
	mb "github.com/fdg312/coach-hub/internal/mealbuilder"
	"github.com/fdg312/coach-hub/internal/sessions"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrSessionNotFound = errors.New("session not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrSaveFailed      = errors.New("save failed")
	ErrSubmitInFlight  = mb.ErrSubmitInFlight
)

const (
	sessionKind = "meal"
	builderName = "meal"
)

type record = sessions.Record[mb.Session]

// Service hosts meal builder sessions. Totals are recomputed from the whole
// tree on every read.
type Service struct {
	plans    storage.MealPlansStorage
	clients  storage.ClientsStorage
	store    sessions.Store
	locks    *sessions.KeyedMutex
	notifier *mailer.PlanNotifier
	metrics  *metrics.Manager
}

func NewService(
	plans storage.MealPlansStorage,
	clients storage.ClientsStorage,
	store sessions.Store,
	notifier *mailer.PlanNotifier,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		plans:    plans,
		clients:  clients,
		store:    store,
		locks:    sessions.NewKeyedMutex(),
		notifier: notifier,
		metrics:  metricsManager,
	}
}

func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}

	id := uuid.NewString()
	rec := &record{Owner: owner, ClientID: req.ClientID}

	if req.PlanID != nil {
		plan, pl, err := s.getPlan(ctx, owner, *req.PlanID)
		if err != nil {
			return nil, err
		}
		rec.Session = mb.HydrateSession(id, plan.ID.String(), *pl)
		if rec.ClientID == nil {
			rec.ClientID = plan.ClientID
		}
	} else {
		rec.Session = mb.NewSession(id)
	}

	if err := s.ensureClient(ctx, owner, rec.ClientID); err != nil {
		return nil, err
	}
	if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"session": id, "owner": owner, "hydrated": req.PlanID != nil}).
		Debug("mealplans: session created")

	view := toSessionView(rec)
	return &view, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*SessionView, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}
	rec, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	view := toSessionView(rec)
	return &view, nil
}

func (s *Service) ApplyCommand(ctx context.Context, id string, cmd Command) (*SessionView, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if err := apply(rec.Session, cmd); err != nil {
		s.metrics.SessionCommand(builderName, cmd.Op, commandResult(err))
		return nil, err
	}
	if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
		return nil, err
	}
	s.metrics.SessionCommand(builderName, cmd.Op, "ok")

	view := toSessionView(rec)
	return &view, nil
}

// Submit follows the same protocol as the workout builder: flag, save
// outside the lock, then complete or fail.
func (s *Service) Submit(ctx context.Context, id string, req SubmitRequest) (*SubmitResponse, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}

	payload, planID, clientID, err := s.beginSubmit(ctx, owner, id, req)
	if err != nil {
		return nil, err
	}

	// The session is flagged as submitting now; finishing the protocol
	// must not depend on the caller staying connected.
	ctx = context.WithoutCancel(ctx)

	started := time.Now()
	plan, saveErr := s.save(ctx, owner, planID, clientID, payload)
	elapsed := time.Since(started).Seconds()

	unlock := s.locks.Lock(id)
	defer unlock()

	rec, loadErr := s.load(ctx, owner, id)
	if saveErr != nil {
		s.metrics.Submit(builderName, "failed", elapsed)
		if loadErr == nil {
			rec.Session.FailSubmit()
			if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
				log.WithError(err).Warnf("mealplans: session=%s could not clear submit flag", id)
			}
		}
		log.WithError(saveErr).Warnf("mealplans: submit failed session=%s owner=%s", id, owner)
		if errors.Is(saveErr, ErrPlanNotFound) || errors.Is(saveErr, ErrClientNotFound) {
			return nil, saveErr
		}
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, saveErr)
	}
	s.metrics.Submit(builderName, "ok", elapsed)

	resp := &SubmitResponse{Plan: toPlanDTO(plan, &payload)}
	if loadErr == nil {
		rec.Session.CompleteSubmit(plan.ID.String())
		if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
			log.WithError(err).Warnf("mealplans: session=%s could not record submit", id)
		}
		resp.Session = toSessionView(rec)
	} else {
		log.WithError(loadErr).Infof("mealplans: session=%s gone after submit, plan=%s kept", id, plan.ID)
	}

	resp.Notified = s.notify(ctx, owner, plan)

	log.WithFields(log.Fields{"session": id, "plan": plan.ID, "meals": len(payload.Meals)}).
		Info("mealplans: plan submitted")
	return resp, nil
}

func (s *Service) beginSubmit(ctx context.Context, owner, id string, req SubmitRequest) (mb.Payload, string, *uuid.UUID, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.load(ctx, owner, id)
	if err != nil {
		return mb.Payload{}, "", nil, err
	}
	if req.ClientID != nil {
		if err := s.ensureClient(ctx, owner, req.ClientID); err != nil {
			return mb.Payload{}, "", nil, err
		}
		rec.ClientID = req.ClientID
	}

	payload, err := rec.Session.BeginSubmit()
	if err != nil {
		return mb.Payload{}, "", nil, err
	}
	if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
		return mb.Payload{}, "", nil, err
	}
	return payload, rec.Session.PlanID, rec.ClientID, nil
}

func (s *Service) save(ctx context.Context, owner, planID string, clientID *uuid.UUID, payload mb.Payload) (*storage.MealPlan, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode meal payload: %w", err)
	}

	plan := &storage.MealPlan{
		OwnerUserID: owner,
		ClientID:    clientID,
		Title:       payload.Title,
		Description: payload.Description,
		Payload:     raw,
	}

	if planID == "" {
		if err := s.plans.CreateMealPlan(ctx, plan); err != nil {
			return nil, notFoundOr(err, ErrClientNotFound)
		}
		return plan, nil
	}

	plan.ID, err = uuid.Parse(planID)
	if err != nil {
		return nil, fmt.Errorf("session holds bad plan id %q: %w", planID, err)
	}
	if err := s.plans.UpdateMealPlan(ctx, plan); err != nil {
		return nil, notFoundOr(err, ErrPlanNotFound)
	}
	return plan, nil
}

func (s *Service) notify(ctx context.Context, owner string, plan *storage.MealPlan) bool {
	if plan.ClientID == nil {
		return false
	}
	client, err := s.clients.GetClient(ctx, owner, *plan.ClientID)
	if err != nil {
		log.WithError(err).Warnf("mealplans: notify skipped, client=%s", plan.ClientID)
		return false
	}

	sent, err := s.notifier.Notify(mailer.PlanNotice{
		ClientName:  client.Name,
		ClientEmail: client.Email,
		Kind:        mailer.PlanKindMeal,
		PlanName:    plan.Title,
		CoachID:     owner,
	})
	switch {
	case err != nil:
		s.metrics.Email("failed")
		log.WithError(err).Warnf("mealplans: plan email failed plan=%s", plan.ID)
	case sent:
		s.metrics.Email("sent")
	}
	return sent
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return ErrUnauthorized
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, owner, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, sessionKind, id)
}

func (s *Service) ListPlans(ctx context.Context, clientID *uuid.UUID) (*ListPlansResponse, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}

	plans, err := s.plans.ListMealPlans(ctx, owner, clientID)
	if err != nil {
		return nil, err
	}

	resp := &ListPlansResponse{Plans: make([]PlanDTO, 0, len(plans))}
	for i := range plans {
		resp.Plans = append(resp.Plans, toPlanDTO(&plans[i], nil))
	}
	return resp, nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*PlanDTO, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}

	plan, pl, err := s.getPlan(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	dto := toPlanDTO(plan, pl)
	return &dto, nil
}

func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return ErrUnauthorized
	}
	if err := s.plans.DeleteMealPlan(ctx, owner, id); err != nil {
		return notFoundOr(err, ErrPlanNotFound)
	}
	return nil
}

func (s *Service) ExportPlan(ctx context.Context, id uuid.UUID, format exports.Format) ([]byte, string, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, "", ErrUnauthorized
	}

	plan, pl, err := s.getPlan(ctx, owner, id)
	if err != nil {
		return nil, "", err
	}

	data, err := exports.MealPlan(*pl, format)
	if err != nil {
		if errors.Is(err, exports.ErrUnsupportedFormat) {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, "", err
	}
	return data, format.Filename(plan.Title), nil
}

func (s *Service) getPlan(ctx context.Context, owner string, id uuid.UUID) (*storage.MealPlan, *mb.Payload, error) {
	plan, err := s.plans.GetMealPlan(ctx, owner, id)
	if err != nil {
		return nil, nil, notFoundOr(err, ErrPlanNotFound)
	}
	var pl mb.Payload
	if err := json.Unmarshal(plan.Payload, &pl); err != nil {
		return nil, nil, fmt.Errorf("decode stored meal plan %s: %w", plan.ID, err)
	}
	return plan, &pl, nil
}

func (s *Service) load(ctx context.Context, owner, id string) (*record, error) {
	rec, err := sessions.Load[record](ctx, s.store, sessionKind, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSessionNotFound)
	}
	if rec.Owner != owner || rec.Session == nil {
		return nil, ErrSessionNotFound
	}
	return rec, nil
}

func (s *Service) ensureClient(ctx context.Context, owner string, clientID *uuid.UUID) error {
	if clientID == nil {
		return nil
	}
	if _, err := s.clients.GetClient(ctx, owner, *clientID); err != nil {
		return notFoundOr(err, ErrClientNotFound)
	}
	return nil
}

// ============================================================================
// Converters
// ============================================================================

func toSessionView(rec *record) SessionView {
	sess := rec.Session
	plan := sess.Plan
	view := SessionView{
		ID:          sess.ID,
		ClientID:    rec.ClientID,
		Title:       plan.Title,
		Description: plan.Description,
		Meals:       make([]MealView, 0, len(plan.Meals)),
		ActiveMeal:  sess.ActiveMeal,
		Totals:      sess.Totals(),
		Dirty:       sess.Dirty,
		Submitting:  sess.Submitting,
		Revision:    sess.Revision,
	}
	if id, err := uuid.Parse(sess.PlanID); err == nil {
		view.PlanID = &id
	}
	for i, m := range plan.Meals {
		view.Meals = append(view.Meals, MealView{
			Index:        i,
			ID:           m.ID,
			Name:         m.Name,
			Time:         m.Time,
			Option:       m.Option,
			Foods:        m.Foods,
			Macros:       m.Macros(),
			Counted:      plan.Contributor(m.Key(), sess.ActiveMeal) == i,
			CanAddOption: plan.CanAddMealOption(i),
		})
	}
	return view
}

func toPlanDTO(plan *storage.MealPlan, pl *mb.Payload) PlanDTO {
	dto := PlanDTO{
		ID:          plan.ID,
		ClientID:    plan.ClientID,
		Title:       plan.Title,
		Description: plan.Description,
		Payload:     pl,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
	if pl != nil {
		totals := mb.FromPayload(*pl).Totals(-1)
		dto.Totals = &totals
	}
	return dto
}

func commandResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "rejected"
	case errors.Is(err, ErrSubmitInFlight):
		return "busy"
	}
	return "error"
}

func notFoundOr(err, mapped error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, sessions.ErrNotFound) {
		return mapped
	}
	return err
}

func ownerFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
