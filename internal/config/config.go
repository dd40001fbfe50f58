package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	AuthModeNone = "none"
	AuthModeDev  = "dev"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	EmailSenderLocal = "local"
	EmailSenderSMTP  = "smtp"
)

// Config содержит конфигурацию приложения
type Config struct {
	Env       string // local | staging | prod
	Port      int
	LogLevel  string
	LogFormat string // text | json
	LogFile   string // пусто = только stdout

	// Database
	DatabaseURL            string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw         string // DATABASE_URL as provided
	DatabaseURLPooled      string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect      string // for migrations / DDL (may be empty)
	RunMigrationsOnStartup bool

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Exercise videos
	Blob             BlobConfig
	UploadMaxMB      int
	VideoAllowedMime string

	// Authentication
	AuthMode      string // none | dev
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// Plan assignment emails
	EmailSenderMode string // local | smtp
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPUseTLS      bool

	// Edit sessions
	SessionStore      string // memory | redis
	SessionTTLMinutes int
	SessionCacheMB    int
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	MetricsEnabled bool
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	// APP_ENV (fallback to ENV, default: local)
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug"
	}
	logFormat := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if logFormat != "json" {
		logFormat = "text"
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}

	// ---------- Blob / S3 ----------
	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}
	blobCfg := BlobConfig{
		Mode: envEnum("BLOB_MODE", BlobModeLocal, BlobModeLocal, BlobModeS3, BlobModeAuto),
		S3: S3Config{
			Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
			PresignTTLSeconds: s3PresignTTL,
			PreferPublicURL:   parseBoolEnv("S3_PREFER_PUBLIC_URL"),
		},
	}

	// UPLOAD_MAX_MB (default: 50, videos are large)
	uploadMaxMB := envInt("UPLOAD_MAX_MB", 50)
	if uploadMaxMB <= 0 {
		uploadMaxMB = 50
	}
	videoAllowedMime := os.Getenv("VIDEO_ALLOWED_MIME")
	if videoAllowedMime == "" {
		videoAllowedMime = "video/mp4,video/quicktime,video/webm"
	}

	// ---------- Auth ----------
	authMode := envEnum("AUTH_MODE", AuthModeNone, AuthModeNone, AuthModeDev)
	authRequired := authMode != AuthModeNone && parseBoolEnv("AUTH_REQUIRED")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change_me"
	}
	if jwtSecret == "change_me" && env != "local" {
		log.Warn("JWT_SECRET is set to 'change_me' in non-local environment!")
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "coach-hub"
	}
	// JWT_TTL_MINUTES (default: 10080 = 7 days)
	jwtTTLMinutes := envInt("JWT_TTL_MINUTES", 10080)

	// ---------- Email ----------
	smtpPort := envInt("SMTP_PORT", 587)
	if smtpPort <= 0 {
		smtpPort = 587
	}
	smtpFrom := strings.TrimSpace(os.Getenv("SMTP_FROM"))
	if smtpFrom == "" {
		smtpFrom = "Coach Hub <no-reply@yourdomain.com>"
	}

	// ---------- Sessions ----------
	sessionTTL := envInt("SESSION_TTL_MINUTES", 720)
	if sessionTTL <= 0 {
		sessionTTL = 720
	}
	sessionCacheMB := envInt("SESSION_CACHE_MB", 64)
	if sessionCacheMB <= 0 {
		sessionCacheMB = 64
	}

	return &Config{
		Env:       env,
		Port:      envInt("PORT", 8080),
		LogLevel:  logLevel,
		LogFormat: logFormat,
		LogFile:   strings.TrimSpace(os.Getenv("LOG_FILE")),

		DatabaseURL:            runtimeDB,
		DatabaseURLRaw:         dbURL,
		DatabaseURLPooled:      dbPooled,
		DatabaseURLDirect:      dbDirect,
		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),

		CORSAllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env),
		CORSAllowCredentials: parseBoolEnv("CORS_ALLOW_CREDENTIALS"),

		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 0),

		Blob:             blobCfg,
		UploadMaxMB:      uploadMaxMB,
		VideoAllowedMime: videoAllowedMime,

		AuthMode:      authMode,
		AuthRequired:  authRequired,
		JWTSecret:     jwtSecret,
		JWTIssuer:     jwtIssuer,
		JWTTTLMinutes: jwtTTLMinutes,

		EmailSenderMode: envEnum("EMAIL_SENDER_MODE", EmailSenderLocal, EmailSenderLocal, EmailSenderSMTP),
		SMTPHost:        strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:        smtpPort,
		SMTPUsername:    strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		SMTPPassword:    strings.TrimSpace(os.Getenv("SMTP_PASSWORD")),
		SMTPFrom:        smtpFrom,
		SMTPUseTLS:      parseBoolEnv("SMTP_USE_TLS"),

		SessionStore:      envEnum("SESSION_STORE", SessionStoreMemory, SessionStoreMemory, SessionStoreRedis),
		SessionTTLMinutes: sessionTTL,
		SessionCacheMB:    sessionCacheMB,
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envInt("REDIS_DB", 0),

		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:5173"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// envEnum reads a lower-cased env var restricted to allowed values.
func envEnum(key, defaultVal string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	log.Warnf("unknown %s=%q, fallback to %s", key, v, defaultVal)
	return defaultVal
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func envBool(key string, defaultVal bool) bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
