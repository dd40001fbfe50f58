package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 30 * time.Second}
	createdIDs = make(map[string]string) // track created resources for cleanup
)

func main() {
	fmt.Println("=== Coach Hub E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimSuffix(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Token", testDevToken},
		{"Create Client", testCreateClient},
		{"Workout Session", testWorkoutSession},
		{"Workout Commands", testWorkoutCommands},
		{"Submit Workout", testSubmitWorkout},
		{"Export Workout (CSV)", testExportWorkout},
		{"Meal Session", testMealSession},
		{"Meal Commands", testMealCommands},
		{"Submit Meal Plan", testSubmitMeal},
		{"Upload Video", testUploadVideo},
		{"Video URL", testVideoURL},
		{"Cleanup", testCleanup},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	var result map[string]string
	if err := doJSON("GET", "/healthz", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result["status"] != "ok" {
		return fmt.Errorf("status=%q", result["status"])
	}
	return nil
}

// testDevToken получает dev-токен, если SMOKE_TOKEN не задан. 404 значит,
// что сервер запущен с AUTH_MODE=none, и токен не нужен.
func testDevToken() error {
	if token != "" {
		return nil
	}

	payload := map[string]string{"coach_id": "smoke-coach"}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	err := doJSON("POST", "/v1/auth/dev", payload, http.StatusOK, &result)
	if err != nil {
		if strings.Contains(err.Error(), "status=404") {
			return nil
		}
		return err
	}
	token = result.AccessToken
	return nil
}

func testCreateClient() error {
	payload := map[string]string{"name": "Smoke Client", "email": "smoke@example.com"}
	var result struct {
		ID string `json:"id"`
	}
	if err := doJSON("POST", "/v1/clients", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	createdIDs["client"] = result.ID
	return nil
}

func testWorkoutSession() error {
	payload := map[string]string{"client_id": createdIDs["client"]}
	var result struct {
		ID    string            `json:"id"`
		Slots []json.RawMessage `json:"slots"`
	}
	if err := doJSON("POST", "/v1/workouts/sessions", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	if len(result.Slots) != 7 {
		return fmt.Errorf("expected 7 slots, got %d", len(result.Slots))
	}
	createdIDs["workout_session"] = result.ID
	return nil
}

func testWorkoutCommands() error {
	commands := []map[string]string{
		{"op": "set_plan_name", "value": "Smoke Strength"},
		{"op": "set_mode", "value": "workout"},
		{"op": "set_exercise_field", "field": "name", "value": "Bench Press"},
		{"op": "set_exercise_field", "field": "sets", "value": "3"},
		{"op": "set_exercise_field", "field": "reps", "value": "10"},
	}
	path := "/v1/workouts/sessions/" + createdIDs["workout_session"] + "/commands"
	for _, cmd := range commands {
		if err := doJSON("POST", path, cmd, http.StatusOK, nil); err != nil {
			return fmt.Errorf("%s: %w", cmd["op"], err)
		}
	}
	return nil
}

func testSubmitWorkout() error {
	var result struct {
		Plan struct {
			ID      string `json:"id"`
			Payload struct {
				Week map[string]struct {
					Mode string `json:"mode"`
				} `json:"week"`
			} `json:"payload"`
		} `json:"plan"`
		Notified bool `json:"notified"`
	}
	path := "/v1/workouts/sessions/" + createdIDs["workout_session"] + "/submit"
	if err := doJSON("POST", path, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.Plan.Payload.Week["Monday"].Mode != "workout" {
		return fmt.Errorf("monday mode=%q", result.Plan.Payload.Week["Monday"].Mode)
	}
	createdIDs["workout_plan"] = result.Plan.ID
	return nil
}

func testExportWorkout() error {
	req, err := http.NewRequest("GET", apiBase+"/v1/workouts/plans/"+createdIDs["workout_plan"]+"/export?format=csv", nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	if !strings.Contains(string(body), "Bench Press") {
		return fmt.Errorf("exercise missing from export")
	}
	return nil
}

func testMealSession() error {
	var result struct {
		ID string `json:"id"`
	}
	if err := doJSON("POST", "/v1/meals/sessions", map[string]string{}, http.StatusCreated, &result); err != nil {
		return err
	}
	createdIDs["meal_session"] = result.ID
	return nil
}

func testMealCommands() error {
	commands := []map[string]string{
		{"op": "set_title", "value": "Smoke Meals"},
		{"op": "set_meal_field", "field": "name", "value": "Breakfast"},
		{"op": "set_meal_field", "field": "time", "value": "7:00 AM"},
		{"op": "set_food_field", "field": "protein", "value": "20"},
		{"op": "set_food_field", "field": "carbs", "value": "30"},
		{"op": "set_food_field", "field": "fat", "value": "10"},
	}
	path := "/v1/meals/sessions/" + createdIDs["meal_session"] + "/commands"

	var view struct {
		Totals struct {
			Calories float64 `json:"calories"`
		} `json:"totals"`
	}
	for _, cmd := range commands {
		if err := doJSON("POST", path, cmd, http.StatusOK, &view); err != nil {
			return fmt.Errorf("%s: %w", cmd["op"], err)
		}
	}
	if view.Totals.Calories != 290 {
		return fmt.Errorf("expected 290 kcal, got %v", view.Totals.Calories)
	}
	return nil
}

func testSubmitMeal() error {
	var result struct {
		Plan struct {
			ID string `json:"id"`
		} `json:"plan"`
	}
	path := "/v1/meals/sessions/" + createdIDs["meal_session"] + "/submit"
	if err := doJSON("POST", path, nil, http.StatusOK, &result); err != nil {
		return err
	}
	createdIDs["meal_plan"] = result.Plan.ID
	return nil
}

func testUploadVideo() error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="smoke.mp4"`},
		"Content-Type":        {"video/mp4"},
	})
	if err != nil {
		return err
	}
	part.Write([]byte("smoke test video bytes"))
	writer.Close()

	req, err := http.NewRequest("POST", apiBase+"/v1/media/videos", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		ObjectKey string `json:"object_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	createdIDs["video"] = result.ObjectKey
	return nil
}

func testVideoURL() error {
	var result struct {
		URL string `json:"url"`
	}
	path := "/v1/media/videos/url?key=" + url.QueryEscape(createdIDs["video"])
	if err := doJSON("GET", path, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.URL == "" {
		return fmt.Errorf("empty video url")
	}
	return nil
}

func testCleanup() error {
	deletions := []string{
		"/v1/workouts/plans/" + createdIDs["workout_plan"],
		"/v1/meals/plans/" + createdIDs["meal_plan"],
		"/v1/workouts/sessions/" + createdIDs["workout_session"],
		"/v1/meals/sessions/" + createdIDs["meal_session"],
		"/v1/media/videos?key=" + url.QueryEscape(createdIDs["video"]),
		"/v1/clients/" + createdIDs["client"],
	}
	for _, path := range deletions {
		if err := doJSON("DELETE", path, nil, http.StatusNoContent, nil); err != nil {
			return fmt.Errorf("DELETE %s: %w", path, err)
		}
	}
	return nil
}

// Helper functions

// doJSON sends payload as JSON (when not nil), checks the status and decodes
// the response into out (when not nil).
func doJSON(method, path string, payload interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
	}
	return nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
