package media

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/fdg312/coach-hub/internal/userctx"
)

type presignStore struct {
	*blob.MemoryStore
}

func (p presignStore) PresignGet(ctx context.Context, key string, ttlSeconds int) (string, error) {
	return "https://storage.example.com/" + key + "?X-Amz-Expires=900", nil
}

func newTestMux(store blob.Store, opts Options) *http.ServeMux {
	h := NewHandlers(NewService(store, opts, metrics.NewTestManager()))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/media/videos", h.HandleUpload)
	mux.HandleFunc("GET /v1/media/videos/url", h.HandleURL)
	mux.HandleFunc("GET /v1/media/videos/download", h.HandleDownload)
	mux.HandleFunc("DELETE /v1/media/videos", h.HandleDelete)
	return mux
}

func localOptions() Options {
	return Options{LocalMode: true, MaxUploadMB: 1, AllowedMimes: "video/mp4, video/quicktime"}
}

func serve(mux *http.ServeMux, coach string, req *http.Request) *httptest.ResponseRecorder {
	req = req.WithContext(userctx.WithUserID(req.Context(), coach))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func uploadRequest(filename, contentType string, data []byte) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="` + filename + `"`},
		"Content-Type":        {contentType},
	})
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/media/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadAndDownloadLocal(t *testing.T) {
	mux := newTestMux(blob.NewMemoryStore(), localOptions())

	w := serve(mux, "coachA", uploadRequest("squat.mp4", "video/mp4", []byte("fake mp4 data")))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var dto VideoDTO
	json.NewDecoder(w.Body).Decode(&dto)
	if !strings.HasPrefix(dto.ObjectKey, "videos/coachA/") || !strings.HasSuffix(dto.ObjectKey, ".mp4") {
		t.Fatalf("unexpected object key %q", dto.ObjectKey)
	}
	if dto.SizeBytes != int64(len("fake mp4 data")) {
		t.Errorf("expected size %d, got %d", len("fake mp4 data"), dto.SizeBytes)
	}

	w = serve(mux, "coachA", httptest.NewRequest(http.MethodGet, "/v1/media/videos/url?key="+url.QueryEscape(dto.ObjectKey), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var link VideoURLResponse
	json.NewDecoder(w.Body).Decode(&link)
	if !strings.HasPrefix(link.URL, "/v1/media/videos/download?key=") || link.ExpiresIn != 0 {
		t.Fatalf("expected a local download URL, got %+v", link)
	}

	w = serve(mux, "coachA", httptest.NewRequest(http.MethodGet, link.URL, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "fake mp4 data" || w.Header().Get("Content-Type") != "video/mp4" {
		t.Errorf("unexpected download body=%q type=%q", w.Body.String(), w.Header().Get("Content-Type"))
	}

	// чужой тренер видео не получает
	w = serve(mux, "coachB", httptest.NewRequest(http.MethodGet, link.URL, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for another coach, got %d", w.Code)
	}

	w = serve(mux, "coachA", httptest.NewRequest(http.MethodDelete, "/v1/media/videos?key="+url.QueryEscape(dto.ObjectKey), nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", w.Code)
	}
	w = serve(mux, "coachA", httptest.NewRequest(http.MethodGet, link.URL, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", w.Code)
	}
}

func TestUploadRejections(t *testing.T) {
	mux := newTestMux(blob.NewMemoryStore(), localOptions())

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name:     "image instead of video",
			req:      uploadRequest("photo.png", "image/png", []byte("png")),
			wantCode: http.StatusBadRequest,
			wantErr:  "unsupported_mime",
		},
		{
			name:     "over the limit",
			req:      uploadRequest("long.mp4", "video/mp4", bytes.Repeat([]byte("x"), 1<<20+512)),
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "file_too_large",
		},
		{
			name:     "no file",
			req:      httptest.NewRequest(http.MethodPost, "/v1/media/videos", strings.NewReader("")),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(mux, "coachA", tt.req)
			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error.Code != tt.wantErr {
				t.Errorf("expected error code %q, got %q", tt.wantErr, resp.Error.Code)
			}
		})
	}
}

func TestVideoURLModes(t *testing.T) {
	store := presignStore{blob.NewMemoryStore()}
	key := "videos/coachA/abc.mp4"
	store.PutObject(context.Background(), key, []byte("data"), "video/mp4")

	t.Run("presigned", func(t *testing.T) {
		mux := newTestMux(store, Options{MaxUploadMB: 1, PresignTTLSeconds: 900})
		w := serve(mux, "coachA", httptest.NewRequest(http.MethodGet, "/v1/media/videos/url?key="+key, nil))
		var link VideoURLResponse
		json.NewDecoder(w.Body).Decode(&link)
		if !strings.HasPrefix(link.URL, "https://storage.example.com/"+key) || link.ExpiresIn != 900 {
			t.Fatalf("expected a presigned URL, got %+v", link)
		}
	})

	t.Run("public", func(t *testing.T) {
		mux := newTestMux(store, Options{MaxUploadMB: 1, PreferPublicURL: true, PublicBaseURL: "https://cdn.example.com/"})
		w := serve(mux, "coachA", httptest.NewRequest(http.MethodGet, "/v1/media/videos/url?key="+key, nil))
		var link VideoURLResponse
		json.NewDecoder(w.Body).Decode(&link)
		if link.URL != "https://cdn.example.com/"+key {
			t.Fatalf("expected a public URL, got %+v", link)
		}
	})

	t.Run("bad keys", func(t *testing.T) {
		mux := newTestMux(store, Options{MaxUploadMB: 1})
		for _, bad := range []string{"", "videos/coachA/../coachB/x.mp4", "videos/coachA//x.mp4"} {
			w := serve(mux, "coachA", httptest.NewRequest(http.MethodGet, "/v1/media/videos/url?key="+url.QueryEscape(bad), nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("key %q: expected status 400, got %d", bad, w.Code)
			}
		}
	})
}
