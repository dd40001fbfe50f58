package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/config"
)

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(t.Context()) })
	return srv.Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t, &config.Config{Port: 8080})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["status"] != "ok" || resp["storage"] != "memory" || resp["sessions"] != config.SessionStoreMemory {
		t.Errorf("unexpected healthz body: %v", resp)
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	handler := newTestServer(t, &config.Config{Port: 8080})

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(t, &config.Config{Port: 8080, MetricsEnabled: true})

	// one request so the request counter has a sample
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "coachhub_api_request") {
		t.Errorf("expected request counter in metrics output")
	}
}

func TestMetricsDisabled(t *testing.T) {
	handler := newTestServer(t, &config.Config{Port: 8080})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 without metrics, got %d", w.Code)
	}
}

func TestDevAuthFlow(t *testing.T) {
	handler := newTestServer(t, &config.Config{
		Port:          8080,
		AuthMode:      config.AuthModeDev,
		AuthRequired:  true,
		JWTSecret:     "test-secret",
		JWTIssuer:     "coach-hub",
		JWTTTLMinutes: 60,
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/clients", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	body, _ := json.Marshal(auth.DevAuthRequest{CoachID: "coach-1"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("dev auth: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var tok auth.DevAuthResponse
	json.NewDecoder(w.Body).Decode(&tok)

	req := httptest.NewRequest(http.MethodPost, "/v1/clients", strings.NewReader(`{"name":"Anna"}`))
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestWorkoutSessionThroughRouter(t *testing.T) {
	handler := newTestServer(t, &config.Config{Port: 8080, AuthMode: config.AuthModeNone})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/workouts/sessions", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var session struct {
		ID string `json:"id"`
	}
	json.NewDecoder(w.Body).Decode(&session)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/workouts/sessions/"+session.ID+"/commands",
		strings.NewReader(`{"op":"set_plan_name","value":"Push Pull"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("command: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/workouts/sessions/"+session.ID+"/submit", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/workouts/plans", nil))
	var list struct {
		Plans []struct {
			Name string `json:"name"`
		} `json:"plans"`
	}
	json.NewDecoder(w.Body).Decode(&list)
	if len(list.Plans) != 1 || list.Plans[0].Name != "Push Pull" {
		t.Fatalf("expected the submitted plan, got %+v", list.Plans)
	}
}
