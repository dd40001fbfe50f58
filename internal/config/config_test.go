package config

import "testing"

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://storage.yandexcloud.net",
		Bucket:   "bucket",
	}
	missing := cfg.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}

	cfg.PreferPublicURL = true
	if got := cfg.MissingRequired(); got[len(got)-1] != "S3_PUBLIC_BASE_URL" {
		t.Fatalf("expected S3_PUBLIC_BASE_URL when public URLs are preferred, got %v", got)
	}
}

func TestS3ConfigDiagnostics(t *testing.T) {
	cases := []struct {
		name      string
		cfg       S3Config
		wantLevel string
		wantCode  string
	}{
		{"not configured", S3Config{}, "INFO", "s3_not_configured"},
		{"partial", S3Config{Endpoint: "https://storage.yandexcloud.net"}, "WARN", "s3_partial_config"},
		{"ready", S3Config{
			Endpoint:        "https://storage.yandexcloud.net",
			Region:          "ru-central1",
			Bucket:          "videos",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}, "INFO", "s3_ready"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, code, _ := tc.cfg.Diagnostics()
			if level != tc.wantLevel || code != tc.wantCode {
				t.Fatalf("expected %s/%s, got %s/%s", tc.wantLevel, tc.wantCode, level, code)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SESSION_TTL_MINUTES", "")
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()
	if cfg.Env != "local" {
		t.Fatalf("expected env=local, got %q", cfg.Env)
	}
	if cfg.AuthMode != AuthModeNone || cfg.AuthRequired {
		t.Fatalf("expected auth none/not required, got %s/%t", cfg.AuthMode, cfg.AuthRequired)
	}
	if cfg.SessionStore != SessionStoreMemory {
		t.Fatalf("expected memory session store, got %q", cfg.SessionStore)
	}
	if cfg.SessionTTLMinutes != 720 {
		t.Fatalf("expected default session ttl 720, got %d", cfg.SessionTTLMinutes)
	}
	if !cfg.MetricsEnabled {
		t.Fatal("expected metrics enabled by default")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		t.Fatal("expected localhost CORS origins in local env")
	}
}

func TestLoad_UnknownModesFallBack(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("SESSION_STORE", "memcached")
	t.Setenv("BLOB_MODE", "gcs")

	cfg := Load()
	if cfg.AuthMode != AuthModeNone {
		t.Fatalf("expected fallback to none, got %q", cfg.AuthMode)
	}
	if cfg.SessionStore != SessionStoreMemory {
		t.Fatalf("expected fallback to memory, got %q", cfg.SessionStore)
	}
	if cfg.Blob.Mode != BlobModeLocal {
		t.Fatalf("expected fallback to local, got %q", cfg.Blob.Mode)
	}
}

func TestLoad_AuthRequiredOnlyWithMode(t *testing.T) {
	t.Setenv("AUTH_REQUIRED", "1")
	t.Setenv("AUTH_MODE", "none")
	if Load().AuthRequired {
		t.Fatal("AUTH_REQUIRED must be ignored when AUTH_MODE=none")
	}

	t.Setenv("AUTH_MODE", "DEV")
	if !Load().AuthRequired {
		t.Fatal("expected AUTH_REQUIRED with AUTH_MODE=dev")
	}
}

func TestParseCORSOrigins(t *testing.T) {
	got := parseCORSOrigins(" https://a.example , ,https://b.example", "prod")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", got)
	}
	if parseCORSOrigins("", "prod") != nil {
		t.Fatal("expected deny-by-default in prod")
	}
}
