package config

import (
	"fmt"
	"strings"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

// S3Config описывает бакет для видео упражнений (Yandex Object Storage / S3)
type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
	PreferPublicURL   bool
}

func (c S3Config) MissingRequired() []string {
	required := []struct {
		key, val string
	}{
		{"S3_ENDPOINT", c.Endpoint},
		{"S3_REGION", c.Region},
		{"S3_BUCKET", c.Bucket},
		{"S3_ACCESS_KEY_ID", c.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", c.SecretAccessKey},
	}
	missing := make([]string, 0, len(required))
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if c.PreferPublicURL && strings.TrimSpace(c.PublicBaseURL) == "" {
		missing = append(missing, "S3_PUBLIC_BASE_URL")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) isEmpty() bool {
	for _, v := range []string{c.Endpoint, c.Region, c.Bucket, c.AccessKeyID, c.SecretAccessKey, c.PublicBaseURL} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Diagnostics returns a log level, a stable code and a short message.
func (c S3Config) Diagnostics() (level string, code string, msg string) {
	if c.isEmpty() {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	if missing := c.MissingRequired(); len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary is safe to log: secrets are reported as set/not set.
func (c S3Config) DiagnosticsSummary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds prefer_public_url=%t access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		nonEmptyOrDash(c.PublicBaseURL),
		c.PresignTTLSeconds,
		c.PreferPublicURL,
		setOrNot(c.AccessKeyID),
		setOrNot(c.SecretAccessKey),
	)
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}
