package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/exports"
	"github.com/fdg312/coach-hub/internal/mailer"
	"github.com/fdg312/coach-hub/internal/sessions"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/fdg312/coach-hub/internal/userctx"
	wb "github.com/fdg312/coach-hub/internal/workoutbuilder"
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
	ErrSubmitInFlight  = wb.ErrSubmitInFlight
)

const (
	sessionKind = "workout"
	builderName = "workout"
)

type record = sessions.Record[wb.Session]

// Service hosts workout builder sessions and hands submitted plans to storage.
type Service struct {
	plans    storage.WorkoutPlansStorage
	clients  storage.ClientsStorage
	store    sessions.Store
	locks    *sessions.KeyedMutex
	notifier *mailer.PlanNotifier
	metrics  *metrics.Manager
}

func NewService(
	plans storage.WorkoutPlansStorage,
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

// CreateSession opens a fresh session or one hydrated from a stored plan.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, ErrUnauthorized
	}

	id := uuid.NewString()
	rec := &record{Owner: owner, ClientID: req.ClientID}

	if req.PlanID != nil {
		plan, err := s.plans.GetWorkoutPlan(ctx, owner, *req.PlanID)
		if err != nil {
			return nil, notFoundOr(err, ErrPlanNotFound)
		}
		var pl wb.Payload
		if err := json.Unmarshal(plan.Payload, &pl); err != nil {
			return nil, fmt.Errorf("decode stored workout plan %s: %w", plan.ID, err)
		}
		rec.Session = wb.HydrateSession(id, plan.ID.String(), pl)
		if rec.ClientID == nil {
			rec.ClientID = plan.ClientID
		}
	} else {
		rec.Session = wb.NewSession(id)
	}

	if err := s.ensureClient(ctx, owner, rec.ClientID); err != nil {
		return nil, err
	}
	if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"session": id, "owner": owner, "hydrated": req.PlanID != nil}).
		Debug("workouts: session created")

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

// ApplyCommand runs one edit under the session lock.
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

// Submit reconciles the session and saves the plan. The session is flagged
// as submitting while storage works, outside the session lock; edits that
// arrive meanwhile get ErrSubmitInFlight. A failed save keeps the tree.
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
				log.WithError(err).Warnf("workouts: session=%s could not clear submit flag", id)
			}
		}
		log.WithError(saveErr).Warnf("workouts: submit failed session=%s owner=%s", id, owner)
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
			log.WithError(err).Warnf("workouts: session=%s could not record submit", id)
		}
		resp.Session = toSessionView(rec)
	} else {
		log.WithError(loadErr).Infof("workouts: session=%s gone after submit, plan=%s kept", id, plan.ID)
	}

	resp.Notified = s.notify(ctx, owner, plan)

	log.WithFields(log.Fields{"session": id, "plan": plan.ID, "mode": plan.BuilderMode}).
		Info("workouts: plan submitted")
	return resp, nil
}

func (s *Service) beginSubmit(ctx context.Context, owner, id string, req SubmitRequest) (wb.Payload, string, *uuid.UUID, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.load(ctx, owner, id)
	if err != nil {
		return wb.Payload{}, "", nil, err
	}
	if req.ClientID != nil {
		if err := s.ensureClient(ctx, owner, req.ClientID); err != nil {
			return wb.Payload{}, "", nil, err
		}
		rec.ClientID = req.ClientID
	}

	payload, err := rec.Session.BeginSubmit()
	if err != nil {
		return wb.Payload{}, "", nil, err
	}
	if err := sessions.Save(ctx, s.store, sessionKind, id, rec); err != nil {
		return wb.Payload{}, "", nil, err
	}
	return payload, rec.Session.PlanID, rec.ClientID, nil
}

func (s *Service) save(ctx context.Context, owner, planID string, clientID *uuid.UUID, payload wb.Payload) (*storage.WorkoutPlan, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode workout payload: %w", err)
	}

	plan := &storage.WorkoutPlan{
		OwnerUserID: owner,
		ClientID:    clientID,
		Name:        payload.PlanName,
		BuilderMode: string(payload.BuilderMode),
		DaysPerWeek: payload.WorkoutDays(),
		Payload:     raw,
	}

	if planID == "" {
		if err := s.plans.CreateWorkoutPlan(ctx, plan); err != nil {
			return nil, notFoundOr(err, ErrClientNotFound)
		}
		return plan, nil
	}

	plan.ID, err = uuid.Parse(planID)
	if err != nil {
		return nil, fmt.Errorf("session holds bad plan id %q: %w", planID, err)
	}
	if err := s.plans.UpdateWorkoutPlan(ctx, plan); err != nil {
		return nil, notFoundOr(err, ErrPlanNotFound)
	}
	return plan, nil
}

// notify emails the assigned client. Mail problems never fail a submit.
func (s *Service) notify(ctx context.Context, owner string, plan *storage.WorkoutPlan) bool {
	if plan.ClientID == nil {
		return false
	}
	client, err := s.clients.GetClient(ctx, owner, *plan.ClientID)
	if err != nil {
		log.WithError(err).Warnf("workouts: notify skipped, client=%s", plan.ClientID)
		return false
	}

	sent, err := s.notifier.Notify(mailer.PlanNotice{
		ClientName:  client.Name,
		ClientEmail: client.Email,
		Kind:        mailer.PlanKindWorkout,
		PlanName:    plan.Name,
		CoachID:     owner,
	})
	switch {
	case err != nil:
		s.metrics.Email("failed")
		log.WithError(err).Warnf("workouts: plan email failed plan=%s", plan.ID)
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

	plans, err := s.plans.ListWorkoutPlans(ctx, owner, clientID)
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
	if err := s.plans.DeleteWorkoutPlan(ctx, owner, id); err != nil {
		return notFoundOr(err, ErrPlanNotFound)
	}
	return nil
}

// ExportPlan renders a stored plan; the name is a download filename.
func (s *Service) ExportPlan(ctx context.Context, id uuid.UUID, format exports.Format) ([]byte, string, error) {
	owner := ownerFromContext(ctx)
	if owner == "" {
		return nil, "", ErrUnauthorized
	}

	plan, pl, err := s.getPlan(ctx, owner, id)
	if err != nil {
		return nil, "", err
	}

	data, err := exports.WorkoutPlan(*pl, format)
	if err != nil {
		if errors.Is(err, exports.ErrUnsupportedFormat) {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, "", err
	}
	return data, format.Filename(plan.Name), nil
}

func (s *Service) getPlan(ctx context.Context, owner string, id uuid.UUID) (*storage.WorkoutPlan, *wb.Payload, error) {
	plan, err := s.plans.GetWorkoutPlan(ctx, owner, id)
	if err != nil {
		return nil, nil, notFoundOr(err, ErrPlanNotFound)
	}
	var pl wb.Payload
	if err := json.Unmarshal(plan.Payload, &pl); err != nil {
		return nil, nil, fmt.Errorf("decode stored workout plan %s: %w", plan.ID, err)
	}
	return plan, &pl, nil
}

// load returns the session record; sessions of other coaches look missing.
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
	view := SessionView{
		ID:          sess.ID,
		ClientID:    rec.ClientID,
		PlanName:    sess.Plan.Name,
		BuilderMode: sess.Plan.Mode,
		DaysPerWeek: sess.Plan.DaysPerWeek,
		ActiveSlot:  sess.ActiveSlot,
		ActiveDay:   sess.ActiveDay(),
		Slots:       make([]SlotView, 0, sess.Plan.SlotCount()),
		Dirty:       sess.Dirty,
		Submitting:  sess.Submitting,
		Revision:    sess.Revision,
		Preview:     sess.Plan.Payload(),
	}
	if id, err := uuid.Parse(sess.PlanID); err == nil {
		view.PlanID = &id
	}
	for i := 0; i < sess.Plan.SlotCount(); i++ {
		day := sess.Plan.Slot(i)
		key := sess.Plan.SlotKey(i)
		view.Slots = append(view.Slots, SlotView{
			Index: i,
			Key:   key,
			Mode:  day.Mode,
			Type:  day.Type(),
			Label: day.Label,
			Saved: sess.Saved[key],
		})
	}
	return view
}

func toPlanDTO(plan *storage.WorkoutPlan, pl *wb.Payload) PlanDTO {
	return PlanDTO{
		ID:          plan.ID,
		ClientID:    plan.ClientID,
		Name:        plan.Name,
		BuilderMode: plan.BuilderMode,
		DaysPerWeek: plan.DaysPerWeek,
		Payload:     pl,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
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
