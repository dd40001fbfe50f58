package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/dbmigrate"
	"github.com/fdg312/coach-hub/internal/httpserver"
	"github.com/fdg312/coach-hub/internal/logging"
)

func main() {
	cfg := config.Load()

	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.LogFile,
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormat == "json",
	})

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		sel, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Infof("startup migrations: command=up using=%s", sel.Source)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = dbmigrate.Run(ctx, "up", sel.URL, "")
		cancel()
		if err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Info("startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server, err := httpserver.New(cfg)
	if err != nil {
		log.Fatalf("FATAL server init: %v", err)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %s", err)
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are printed only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Info("========== Coach Hub API ==========")
	log.Infof("  env              = %s", cfg.Env)
	log.Infof("  port             = %d", cfg.Port)
	log.Infof("  log              = level=%s format=%s file=%s", cfg.LogLevel, cfg.LogFormat, nonEmptyOrDash(cfg.LogFile))

	// ---- Database ----
	log.Info("---- database ----")
	log.Infof("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Infof("  pooled           = %s", setOrNot(cfg.DatabaseURLPooled))
	log.Infof("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	log.Infof("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
	if cfg.RunMigrationsOnStartup {
		if cfg.DatabaseURLDirect != "" {
			log.Infof("  migrations_via   = DATABASE_URL_DIRECT")
		} else {
			log.Infof("  migrations_via   = (will fail, DATABASE_URL_DIRECT not set)")
		}
	}

	// ---- Auth ----
	log.Info("---- auth ----")
	log.Infof("  auth_mode        = %s", cfg.AuthMode)
	log.Infof("  auth_required    = %t", cfg.AuthRequired)
	log.Infof("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))

	// ---- Sessions ----
	log.Info("---- sessions ----")
	log.Infof("  session_store    = %s", cfg.SessionStore)
	log.Infof("  session_ttl      = %s", cfg.SessionTTL())
	if cfg.SessionStore == config.SessionStoreRedis {
		log.Infof("  redis_addr       = %s", nonEmptyOrDash(cfg.RedisAddr))
		log.Infof("  redis_password   = %s", setOrNot(cfg.RedisPassword))
	} else {
		log.Infof("  cache_mb         = %d", cfg.SessionCacheMB)
	}

	// ---- Blob / S3 ----
	log.Info("---- blob ----")
	log.Infof("  blob_mode        = %s", cfg.Blob.Mode)
	log.Infof("  upload_max_mb    = %d", cfg.UploadMaxMB)
	log.Infof("  video_mime       = %s", cfg.VideoAllowedMime)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.Infof("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	// ---- Mailer ----
	log.Info("---- mailer ----")
	log.Infof("  email_sender     = %s", cfg.EmailSenderMode)
	if cfg.EmailSenderMode == config.EmailSenderSMTP {
		log.Infof("  smtp_host        = %s", nonEmptyOrDash(cfg.SMTPHost))
		log.Infof("  smtp_port        = %d", cfg.SMTPPort)
		log.Infof("  smtp_from        = %s", nonEmptyOrDash(cfg.SMTPFrom))
		log.Infof("  smtp_username    = %s", setOrNot(cfg.SMTPUsername))
		log.Infof("  smtp_password    = %s", setOrNot(cfg.SMTPPassword))
		log.Infof("  smtp_use_tls     = %t", cfg.SMTPUseTLS)
	} else {
		log.Infof("  (plan emails will be printed to the server log)")
	}

	log.Infof("  metrics          = %t", cfg.MetricsEnabled)
	log.Info("===================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: BLOB_MODE is 's3' but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if cfg.SessionStore == config.SessionStoreRedis && cfg.RedisAddr == "" {
		log.Fatal("FATAL sessions: SESSION_STORE=redis but REDIS_ADDR is not set")
	}

	// JWT_SECRET must not be default in production
	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s with AUTH_REQUIRED=1", cfg.Env)
	}

	// DATABASE_URL must be set in production
	if isProd && cfg.DatabaseURL == "" {
		log.Fatalf("FATAL db: no DATABASE_URL configured in %s", cfg.Env)
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
