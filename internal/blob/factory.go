package blob

import (
	"fmt"
	"strings"

	appcfg "github.com/fdg312/coach-hub/internal/config"
)

type Logger interface {
	Printf(format string, v ...any)
}

// NewBlobStore picks where exercise videos live: local keeps them in process
// memory, s3 requires a complete S3 config, auto uses S3 when it is
// configured and reachable and memory otherwise.
func NewBlobStore(cfg appcfg.BlobConfig, logger Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logf(logger, "INFO videos: store=memory mode=local (forced), uploads are lost on restart")
		return NewMemoryStore(), appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			logf(logger, "%s videos.s3: code=%s %s", level, code, msg)
			logf(logger, "INFO videos.s3: %s", cfg.S3.DiagnosticsSummary())
			logf(logger, "INFO videos: store=memory mode=local (auto, S3 not configured)")
			return NewMemoryStore(), appcfg.BlobModeLocal, nil
		}

		store, err := newS3FromConfig(cfg.S3, logger)
		if err != nil {
			logf(logger, "WARN videos.s3: init_failed=%q, uploads fall back to memory", err.Error())
			return NewMemoryStore(), appcfg.BlobModeLocal, nil
		}
		logf(logger, "INFO videos: store=s3 bucket=%s (auto, configured)", cfg.S3.Bucket)
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if missing := cfg.S3.MissingRequired(); len(missing) > 0 {
			logf(logger, "FATAL videos.s3: code=s3_config_incomplete missing=%v", missing)
			logf(logger, "FATAL videos.s3: %s", cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("video store: BLOB_MODE=s3 but S3 is missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newS3FromConfig(cfg.S3, logger)
		if err != nil {
			logf(logger, "FATAL videos.s3: init_failed=%v", err)
			return nil, "", fmt.Errorf("video store: BLOB_MODE=s3 init failed: %w", err)
		}
		logf(logger, "INFO videos: store=s3 bucket=%s (forced)", cfg.S3.Bucket)
		return store, appcfg.BlobModeS3, nil
	}

	return nil, "", fmt.Errorf("video store: unsupported BLOB_MODE %q (want local, s3 or auto)", mode)
}

func newS3FromConfig(s3cfg appcfg.S3Config, logger Logger) (*S3Store, error) {
	logf(logger, "INFO videos.s3: code=s3_ready %s", s3cfg.DiagnosticsSummary())
	return NewS3Store(s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket, s3cfg.AccessKeyID, s3cfg.SecretAccessKey)
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
