package blob

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	appcfg "github.com/fdg312/coach-hub/internal/config"
)

func TestNewBlobStoreLocalForced(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	store, mode, err := NewBlobStore(appcfg.BlobConfig{
		Mode: appcfg.BlobModeLocal,
		S3:   appcfg.S3Config{},
	}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local, got %s", mode)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store in local mode, got %T", store)
	}
	if !strings.Contains(buf.String(), "mode=local (forced)") {
		t.Fatalf("expected local mode log, got: %s", buf.String())
	}
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	store, mode, err := NewBlobStore(appcfg.BlobConfig{
		Mode: appcfg.BlobModeAuto,
		S3:   appcfg.S3Config{},
	}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local fallback, got %s", mode)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store on auto fallback, got %T", store)
	}

	logOut := buf.String()
	if !strings.Contains(logOut, "code=s3_not_configured") {
		t.Fatalf("expected s3_not_configured diagnostics, got: %s", logOut)
	}
	if !strings.Contains(logOut, "mode=local (auto, S3 not configured)") {
		t.Fatalf("expected auto fallback to local log, got: %s", logOut)
	}
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	store, mode, err := NewBlobStore(appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3: appcfg.S3Config{
			Endpoint: "https://storage.yandexcloud.net",
		},
	}, logger)
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode on error, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Fatalf("expected missing required config error, got: %v", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("fake mp4 bytes")
	n, err := store.PutObject(ctx, "videos/coach/squat.mp4", data, "video/mp4")
	if err != nil || n != int64(len(data)) {
		t.Fatalf("put: n=%d err=%v", n, err)
	}
	data[0] = 'X'

	got, err := store.GetObject(ctx, "videos/coach/squat.mp4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "fake mp4 bytes" {
		t.Fatalf("stored bytes changed with caller buffer: %q", got)
	}
	if ct := store.ContentType("videos/coach/squat.mp4"); ct != "video/mp4" {
		t.Fatalf("expected video/mp4, got %q", ct)
	}

	if _, err := store.PresignGet(ctx, "videos/coach/squat.mp4", 60); !errors.Is(err, ErrPresignUnsupported) {
		t.Fatalf("expected ErrPresignUnsupported, got %v", err)
	}

	if err := store.DeleteObject(ctx, "videos/coach/squat.mp4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetObject(ctx, "videos/coach/squat.mp4"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestNewBlobStoreUnknownMode(t *testing.T) {
	_, _, err := NewBlobStore(appcfg.BlobConfig{Mode: "gcs"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported BLOB_MODE") {
		t.Fatalf("expected unsupported mode error, got: %v", err)
	}
}
