package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"strings"

	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedMime = errors.New("unsupported mime type")
	ErrVideoNotFound   = errors.New("video not found")
	ErrInvalidKey      = errors.New("invalid object key")
)

const (
	keyPrefix    = "videos"
	downloadPath = "/v1/media/videos/download"
)

var mimeExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"video/x-m4v":     ".m4v",
}

// contentTyper is implemented by stores that remember the upload type.
type contentTyper interface {
	ContentType(key string) string
}

// Options описывает выдачу ссылок на видео
type Options struct {
	LocalMode         bool   // true if no S3 configured
	PublicBaseURL     string // S3 public base URL
	PreferPublicURL   bool
	PresignTTLSeconds int
	MaxUploadMB       int
	AllowedMimes      string // comma separated
}

// Service хранит видео упражнений в blob store. Ключи имеют вид
// videos/<coach>/<uuid><ext>; чужие ключи не отдаются.
type Service struct {
	store        blob.Store
	opts         Options
	allowedMimes []string
	metrics      *metrics.Manager
}

func NewService(store blob.Store, opts Options, metricsManager *metrics.Manager) *Service {
	mimes := make([]string, 0)
	for _, m := range strings.Split(opts.AllowedMimes, ",") {
		if m = strings.TrimSpace(m); m != "" {
			mimes = append(mimes, strings.ToLower(m))
		}
	}
	if opts.PresignTTLSeconds <= 0 {
		opts.PresignTTLSeconds = 900
	}
	return &Service{
		store:        store,
		opts:         opts,
		allowedMimes: mimes,
		metrics:      metricsManager,
	}
}

func (s *Service) MaxUploadMB() int {
	return s.opts.MaxUploadMB
}

// UploadVideo проверяет размер и MIME и кладёт файл в blob store
func (s *Service) UploadVideo(ctx context.Context, fileHeader *multipart.FileHeader) (*VideoDTO, error) {
	owner := ownerFromContext(ctx)

	maxBytes := int64(s.opts.MaxUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		s.metrics.VideoUpload("rejected")
		return nil, ErrFileTooLarge
	}

	contentType := strings.ToLower(strings.TrimSpace(fileHeader.Header.Get("Content-Type")))
	if !s.isAllowedMime(contentType) {
		s.metrics.VideoUpload("rejected")
		return nil, ErrUnsupportedMime
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		s.metrics.VideoUpload("rejected")
		return nil, ErrFileTooLarge
	}

	key := fmt.Sprintf("%s/%s/%s%s", keyPrefix, owner, uuid.NewString(), extensionFor(contentType, fileHeader.Filename))
	size, err := s.store.PutObject(ctx, key, data, contentType)
	if err != nil {
		s.metrics.VideoUpload("failed")
		return nil, fmt.Errorf("failed to store video: %w", err)
	}
	s.metrics.VideoUpload("ok")

	log.WithFields(log.Fields{"key": key, "owner": owner, "bytes": size}).Info("media: video uploaded")

	return &VideoDTO{ObjectKey: key, ContentType: contentType, SizeBytes: size}, nil
}

// VideoURL возвращает ссылку для просмотра: публичную, presigned или
// локальную через API.
func (s *Service) VideoURL(ctx context.Context, key string) (*VideoURLResponse, error) {
	if err := s.checkKey(ctx, key); err != nil {
		return nil, err
	}

	if s.opts.LocalMode {
		return &VideoURLResponse{
			ObjectKey: key,
			URL:       downloadPath + "?key=" + url.QueryEscape(key),
		}, nil
	}

	if s.opts.PreferPublicURL && s.opts.PublicBaseURL != "" {
		return &VideoURLResponse{
			ObjectKey: key,
			URL:       strings.TrimSuffix(s.opts.PublicBaseURL, "/") + "/" + key,
		}, nil
	}

	presigned, err := s.store.PresignGet(ctx, key, s.opts.PresignTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return &VideoURLResponse{ObjectKey: key, URL: presigned, ExpiresIn: s.opts.PresignTTLSeconds}, nil
}

// VideoData отдаёт байты видео (для локального режима)
func (s *Service) VideoData(ctx context.Context, key string) ([]byte, string, error) {
	if err := s.checkKey(ctx, key); err != nil {
		return nil, "", err
	}

	data, err := s.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return nil, "", ErrVideoNotFound
		}
		return nil, "", fmt.Errorf("failed to get video: %w", err)
	}

	contentType := ""
	if ct, ok := s.store.(contentTyper); ok {
		contentType = ct.ContentType(key)
	}
	if contentType == "" {
		contentType = mimeForExtension(path.Ext(key))
	}
	return data, contentType, nil
}

func (s *Service) DeleteVideo(ctx context.Context, key string) error {
	if err := s.checkKey(ctx, key); err != nil {
		return err
	}
	return s.store.DeleteObject(ctx, key)
}

// checkKey пропускает только ключи текущего тренера
func (s *Service) checkKey(ctx context.Context, key string) error {
	if key == "" || strings.Contains(key, "..") || path.Clean(key) != key {
		return ErrInvalidKey
	}
	if !strings.HasPrefix(key, keyPrefix+"/"+ownerFromContext(ctx)+"/") {
		return ErrVideoNotFound
	}
	return nil
}

func (s *Service) isAllowedMime(contentType string) bool {
	for _, allowed := range s.allowedMimes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

func extensionFor(contentType, filename string) string {
	if ext, ok := mimeExtensions[contentType]; ok {
		return ext
	}
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 1 && len(ext) <= 6 {
		return ext
	}
	return ".bin"
}

func mimeForExtension(ext string) string {
	for mime, e := range mimeExtensions {
		if e == ext {
			return mime
		}
	}
	return "application/octet-stream"
}

func ownerFromContext(ctx context.Context) string {
	if userID, ok := userctx.GetUserID(ctx); ok && strings.TrimSpace(userID) != "" {
		return userID
	}
	return auth.DefaultUserID
}
