package mealplans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/coach-hub/internal/mailer"
	mb "github.com/fdg312/coach-hub/internal/mealbuilder"
	"github.com/fdg312/coach-hub/internal/sessions"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/fdg312/coach-hub/internal/userctx"
)

type failingMealPlans struct {
	storage.MealPlansStorage
	err error
}

func (f *failingMealPlans) CreateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	if f.err != nil {
		return f.err
	}
	return f.MealPlansStorage.CreateMealPlan(ctx, plan)
}

type captureSender struct {
	subjects []string
}

func (c *captureSender) Send(to, subject, textBody string) error {
	c.subjects = append(c.subjects, subject)
	return nil
}

type mealEnv struct {
	mux    *http.ServeMux
	mem    *memory.MemoryStorage
	sender *captureSender
}

func setupMealEnv(t *testing.T, plans storage.MealPlansStorage) *mealEnv {
	t.Helper()
	mem := memory.New()
	if plans == nil {
		plans = mem
	}
	sender := &captureSender{}
	h := NewHandlers(NewService(
		plans,
		mem,
		sessions.NewMemoryStore(16, time.Hour),
		mailer.NewPlanNotifier(sender),
		metrics.NewTestManager(),
	))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/meals/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /v1/meals/sessions/{id}", h.HandleGetSession)
	mux.HandleFunc("POST /v1/meals/sessions/{id}/commands", h.HandleCommand)
	mux.HandleFunc("POST /v1/meals/sessions/{id}/submit", h.HandleSubmit)
	mux.HandleFunc("DELETE /v1/meals/sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("GET /v1/meals/plans", h.HandleListPlans)
	mux.HandleFunc("GET /v1/meals/plans/{id}", h.HandleGetPlan)
	mux.HandleFunc("DELETE /v1/meals/plans/{id}", h.HandleDeletePlan)
	mux.HandleFunc("GET /v1/meals/plans/{id}/export", h.HandleExportPlan)

	return &mealEnv{mux: mux, mem: mem, sender: sender}
}

func (e *mealEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(userctx.WithUserID(context.Background(), "coachA"))
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func (e *mealEnv) newSession(t *testing.T, req CreateSessionRequest) SessionView {
	t.Helper()
	w := e.request(t, http.MethodPost, "/v1/meals/sessions", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var view SessionView
	json.NewDecoder(w.Body).Decode(&view)
	return view
}

func (e *mealEnv) run(t *testing.T, id string, cmd Command) SessionView {
	t.Helper()
	w := e.request(t, http.MethodPost, "/v1/meals/sessions/"+id+"/commands", cmd)
	if w.Code != http.StatusOK {
		t.Fatalf("%s: expected 200, got %d body=%s", cmd.Op, w.Code, w.Body.String())
	}
	var view SessionView
	json.NewDecoder(w.Body).Decode(&view)
	return view
}

func (e *mealEnv) submit(t *testing.T, id string) SubmitResponse {
	t.Helper()
	w := e.request(t, http.MethodPost, "/v1/meals/sessions/"+id+"/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp SubmitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func TestMealBreakfastEndToEnd(t *testing.T) {
	env := setupMealEnv(t, nil)

	view := env.newSession(t, CreateSessionRequest{})
	if len(view.Meals) != 1 || view.Meals[0].Name != "Meal 1" || len(view.Meals[0].Foods) != 1 {
		t.Fatalf("fresh plan should have one default meal, got %+v", view.Meals)
	}

	env.run(t, view.ID, Command{Op: OpSetMealField, Field: "name", Value: "Breakfast"})
	env.run(t, view.ID, Command{Op: OpSetMealField, Field: "time", Value: "7:00 AM"})
	env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "protein", Value: "20"})
	env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "carbs", Value: "30"})
	view = env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "fat", Value: "10"})

	if got := view.Meals[0].Foods[0].Calories; got != 290 {
		t.Fatalf("expected 290 kcal on the food, got %v", got)
	}
	if view.Totals.Calories != 290 || view.Totals.Protein != 20 {
		t.Fatalf("expected totals 290 kcal / 20 g protein, got %+v", view.Totals)
	}

	resp := env.submit(t, view.ID)
	meals := resp.Plan.Payload.Meals
	if len(meals) != 1 {
		t.Fatalf("expected one meal in payload, got %d", len(meals))
	}
	want := mb.FoodPayload{Calories: 290, Protein: 20, Carbs: 30, Fat: 10}
	if meals[0].Name != "Breakfast" || meals[0].Time != "7:00 AM" || meals[0].MealOption != mb.OptionA || meals[0].Foods[0] != want {
		t.Fatalf("unexpected submitted meal: %+v", meals[0])
	}
	if resp.Plan.Totals == nil || resp.Plan.Totals.Calories != 290 {
		t.Fatalf("saved plan should report totals, got %+v", resp.Plan.Totals)
	}

	if resp.Session.Dirty || resp.Session.Meals[0].Name != "Meal 1" || resp.Session.Totals.Calories != 0 {
		t.Fatalf("fresh session should reset after submit, got %+v", resp.Session)
	}
}

func TestMealOptionTotalsFollowView(t *testing.T) {
	env := setupMealEnv(t, nil)
	view := env.newSession(t, CreateSessionRequest{})

	env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "protein", Value: "20"})
	view = env.run(t, view.ID, Command{Op: OpAddMealOption, Meal: 0})
	if view.ActiveMeal != 1 || view.Meals[1].Option != mb.OptionB {
		t.Fatalf("adding option B should switch to it, got active=%d meals=%+v", view.ActiveMeal, view.Meals)
	}
	if view.Meals[0].CanAddOption {
		t.Fatal("meal with a B should not offer another option")
	}

	view = env.run(t, view.ID, Command{Op: OpSetFoodField, Meal: 1, Field: "protein", Value: "50"})
	if view.Totals.Protein != 50 || !view.Meals[1].Counted || view.Meals[0].Counted {
		t.Fatalf("viewing B should count B: totals=%+v", view.Totals)
	}

	view = env.run(t, view.ID, Command{Op: OpSelectMeal, Meal: 0})
	if view.Totals.Protein != 20 || !view.Meals[0].Counted {
		t.Fatalf("viewing A should count A: totals=%+v", view.Totals)
	}

	// rename keeps the pair together
	view = env.run(t, view.ID, Command{Op: OpSetMealField, Meal: 1, Field: "name", Value: "Lunch"})
	if view.Meals[0].Name != "Lunch" || view.Meals[1].Name != "Lunch" {
		t.Fatalf("rename should reach both variants: %+v", view.Meals)
	}
}

func TestMealRejectedCommands(t *testing.T) {
	env := setupMealEnv(t, nil)
	view := env.newSession(t, CreateSessionRequest{})
	env.run(t, view.ID, Command{Op: OpAddMealOption, Meal: 0})

	cases := []struct {
		name string
		cmd  Command
	}{
		{"calories are derived", Command{Op: OpSetFoodField, Field: "calories", Value: "500"}},
		{"unknown food field", Command{Op: OpSetFoodField, Field: "sugar", Value: "5"}},
		{"option on B", Command{Op: OpAddMealOption, Meal: 1}},
		{"second B", Command{Op: OpAddMealOption, Meal: 0}},
		{"last food", Command{Op: OpRemoveFood, Meal: 0, Food: 0}},
		{"missing meal", Command{Op: OpAddFood, Meal: 9}},
		{"select missing meal", Command{Op: OpSelectMeal, Meal: 5}},
		{"bad meal field", Command{Op: OpSetMealField, Field: "color", Value: "red"}},
		{"unknown op", Command{Op: "juggle"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.request(t, http.MethodPost, "/v1/meals/sessions/"+view.ID+"/commands", tc.cmd)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
			}
		})
	}

	env.run(t, view.ID, Command{Op: OpRemoveMeal, Meal: 1})
	w := env.request(t, http.MethodPost, "/v1/meals/sessions/"+view.ID+"/commands", Command{Op: OpRemoveMeal, Meal: 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("last meal: expected 400, got %d", w.Code)
	}
}

func TestMealBlurFillsZero(t *testing.T) {
	env := setupMealEnv(t, nil)
	view := env.newSession(t, CreateSessionRequest{})

	env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "protein", Value: "10"})
	view = env.run(t, view.ID, Command{Op: OpBlurFoodField, Field: "carbs"})
	if view.Meals[0].Foods[0].Carbs != "0" || view.Meals[0].Foods[0].Calories != 40 {
		t.Fatalf("blur should write 0 and keep calories, got %+v", view.Meals[0].Foods[0])
	}
}

func TestMealEditSessionAndExport(t *testing.T) {
	env := setupMealEnv(t, nil)
	ctx := context.Background()
	client := &storage.Client{OwnerUserID: "coachA", Name: "Boris", Email: "boris@example.com"}
	if err := env.mem.CreateClient(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}

	view := env.newSession(t, CreateSessionRequest{ClientID: &client.ID})
	env.run(t, view.ID, Command{Op: OpSetTitle, Value: "Lean Bulk"})
	env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "name", Value: "Oats"})
	env.run(t, view.ID, Command{Op: OpSetFoodField, Field: "carbs", Value: "60"})
	first := env.submit(t, view.ID)
	if !first.Notified || len(env.sender.subjects) != 1 || env.sender.subjects[0] != "New meal plan: Lean Bulk" {
		t.Fatalf("expected one plan email, got notified=%v subjects=%v", first.Notified, env.sender.subjects)
	}

	planID := first.Plan.ID
	edit := env.newSession(t, CreateSessionRequest{PlanID: &planID})
	if edit.Title != "Lean Bulk" || edit.ClientID == nil || *edit.ClientID != client.ID {
		t.Fatalf("edit session should hydrate title and client, got %+v", edit)
	}
	if edit.Totals.Calories != 240 {
		t.Fatalf("hydrated totals should come from stored calories, got %+v", edit.Totals)
	}

	env.run(t, edit.ID, Command{Op: OpSetDescription, Value: "3000 kcal target"})
	second := env.submit(t, edit.ID)
	if second.Plan.ID != planID || second.Session.Description != "3000 kcal target" {
		t.Fatalf("edit submit should update in place and stay hydrated: %+v", second)
	}

	w := env.request(t, http.MethodGet, "/v1/meals/plans/"+planID.String()+"/export?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Oats,,0,60,0,240") || !strings.Contains(w.Body.String(), "total,") {
		t.Fatalf("unexpected csv:\n%s", w.Body.String())
	}

	w = env.request(t, http.MethodGet, "/v1/meals/plans?client_id="+client.ID.String(), nil)
	var list ListPlansResponse
	json.NewDecoder(w.Body).Decode(&list)
	if len(list.Plans) != 1 || list.Plans[0].Payload != nil {
		t.Fatalf("expected one plan summary for the client, got %+v", list.Plans)
	}

	w = env.request(t, http.MethodDelete, "/v1/meals/plans/"+planID.String(), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
}

func TestMealSubmitFailureKeepsTree(t *testing.T) {
	plans := &failingMealPlans{MealPlansStorage: memory.New(), err: errors.New("connection reset")}
	env := setupMealEnv(t, plans)

	view := env.newSession(t, CreateSessionRequest{})
	env.run(t, view.ID, Command{Op: OpSetTitle, Value: "Cut"})

	w := env.request(t, http.MethodPost, "/v1/meals/sessions/"+view.ID+"/submit", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d body=%s", w.Code, w.Body.String())
	}

	w = env.request(t, http.MethodGet, "/v1/meals/sessions/"+view.ID, nil)
	var after SessionView
	json.NewDecoder(w.Body).Decode(&after)
	if after.Title != "Cut" || !after.Dirty || after.Submitting {
		t.Fatalf("failed submit should keep the tree: %+v", after)
	}

	w = env.request(t, http.MethodDelete, "/v1/meals/sessions/"+view.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete session: expected 204, got %d", w.Code)
	}
	w = env.request(t, http.MethodGet, "/v1/meals/sessions/"+view.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestMealRenameOntoOtherMealRejected(t *testing.T) {
	env := setupMealEnv(t, nil)
	view := env.newSession(t, CreateSessionRequest{})
	env.run(t, view.ID, Command{Op: OpSetMealField, Field: "name", Value: "Breakfast"})
	env.run(t, view.ID, Command{Op: OpAddMeal})

	w := env.request(t, http.MethodPost, "/v1/meals/sessions/"+view.ID+"/commands",
		Command{Op: OpSetMealField, Meal: 1, Field: "name", Value: "Breakfast"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a duplicate meal, got %d body=%s", w.Code, w.Body.String())
	}

	view = env.run(t, view.ID, Command{Op: OpSetMealField, Meal: 1, Field: "time", Value: "9:00"})
	view = env.run(t, view.ID, Command{Op: OpSetMealField, Meal: 1, Field: "name", Value: "Breakfast"})
	if view.Meals[1].Name != "Breakfast" || !view.Meals[1].Counted {
		t.Fatalf("same name at another time is a separate meal: %+v", view.Meals[1])
	}
}

type hangUpOnSave struct {
	storage.MealPlansStorage
	cancel context.CancelFunc
}

func (h *hangUpOnSave) CreateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	h.cancel()
	return h.MealPlansStorage.CreateMealPlan(ctx, plan)
}

type ctxCheckedStore struct {
	sessions.Store
}

func (s ctxCheckedStore) Get(ctx context.Context, kind, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, kind, id)
}

func (s ctxCheckedStore) Put(ctx context.Context, kind, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Put(ctx, kind, id, data)
}

func TestMealSubmitCompletesAfterCallerCancel(t *testing.T) {
	mem := memory.New()
	owner := userctx.WithUserID(context.Background(), "coachA")
	ctx, cancel := context.WithCancel(owner)
	defer cancel()

	service := NewService(
		&hangUpOnSave{MealPlansStorage: mem, cancel: cancel},
		mem,
		ctxCheckedStore{sessions.NewMemoryStore(16, time.Hour)},
		mailer.NewPlanNotifier(nil),
		metrics.NewTestManager(),
	)

	view, err := service.CreateSession(owner, CreateSessionRequest{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := service.ApplyCommand(owner, view.ID, Command{Op: OpSetTitle, Value: "Cut"}); err != nil {
		t.Fatalf("set title: %v", err)
	}

	resp, err := service.Submit(ctx, view.ID, SubmitRequest{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Session.ID != view.ID || resp.Session.Submitting {
		t.Fatalf("submit should record completion on the session: %+v", resp.Session)
	}

	after, err := service.GetSession(owner, view.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if after.Submitting || after.Dirty || after.Title != "" {
		t.Fatalf("fresh session should be reset and idle: %+v", after)
	}
	if _, err := service.ApplyCommand(owner, view.ID, Command{Op: OpSetTitle, Value: "Bulk"}); err != nil {
		t.Fatalf("edit after submit: %v", err)
	}
}
