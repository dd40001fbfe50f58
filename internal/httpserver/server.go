package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/clients"
	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/logging"
	"github.com/fdg312/coach-hub/internal/mailer"
	"github.com/fdg312/coach-hub/internal/mealplans"
	"github.com/fdg312/coach-hub/internal/media"
	"github.com/fdg312/coach-hub/internal/sessions"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/storage/postgres"
	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/fdg312/coach-hub/internal/workouts"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	httpServer     *http.Server
	storage        storage.Storage
	storageKind    string
	sessions       sessions.Store
	sessionsKind   string
	redisClient    *redis.Client
	blobStore      blob.Store
	blobMode       string
	authMiddleware *auth.Middleware
	promRegistry   *prometheus.Registry
	metricsManager *metrics.Manager
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	if cfg.MetricsEnabled {
		s.promRegistry = metrics.SetupPrometheus()
		s.metricsManager = metrics.NewManager("coachhub", "api", s.promRegistry)
	}

	s.initStorage()
	s.initSessions()

	blobStore, blobMode, err := blob.NewBlobStore(cfg.Blob, logging.Printf{})
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	s.blobStore = blobStore
	s.blobMode = blobMode

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Info("storage: using in-memory storage")
		s.storage = memory.New()
		s.storageKind = "memory"
		return
	}

	log.Info("storage: connecting to PostgreSQL ...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.WithError(err).Error("storage: postgres connection failed, fallback to in-memory storage")
		s.storage = memory.New()
		s.storageKind = "memory"
		return
	}

	log.Info("storage: PostgreSQL connected")
	s.storage = pgStorage
	s.storageKind = "postgres"
}

// initSessions выбирает хранилище сессий редактирования. Redis нужен,
// когда API запущен в нескольких экземплярах.
func (s *Server) initSessions() {
	ttl := s.config.SessionTTL()
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	if s.config.SessionStore == config.SessionStoreRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     s.config.RedisAddr,
			Password: s.config.RedisPassword,
			DB:       s.config.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Errorf("sessions: redis at %s unavailable, fallback to memory", s.config.RedisAddr)
			client.Close()
		} else {
			log.Infof("sessions: redis store at %s, ttl=%s", s.config.RedisAddr, ttl)
			s.redisClient = client
			s.sessions = sessions.NewRedisStore(client, ttl)
			s.sessionsKind = config.SessionStoreRedis
			return
		}
	}

	log.Infof("sessions: in-process store, cache=%dMB ttl=%s", s.config.SessionCacheMB, ttl)
	s.sessions = sessions.NewMemoryStore(s.config.SessionCacheMB, ttl)
	s.sessionsKind = config.SessionStoreMemory
}

// routes регистрирует маршруты
func (s *Server) routes() error {
	// Ops (no auth required)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.promRegistry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	}

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Plan assignment emails
	sender, err := mailer.NewSenderFromConfig(s.config, log.StandardLogger())
	if err != nil {
		return fmt.Errorf("email sender: %w", err)
	}
	notifier := mailer.NewPlanNotifier(sender)

	// Clients API
	clientHandler := clients.NewHandler(clients.NewService(s.storage))
	s.mux.HandleFunc("GET /v1/clients", clientHandler.HandleList)
	s.mux.HandleFunc("POST /v1/clients", clientHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/clients/{id}", clientHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/clients/{id}", clientHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/clients/{id}", clientHandler.HandleDelete)

	// Workout builder API
	workoutHandler := workouts.NewHandlers(workouts.NewService(s.storage, s.storage, s.sessions, notifier, s.metricsManager))
	s.mux.HandleFunc("POST /v1/workouts/sessions", workoutHandler.HandleCreateSession)
	s.mux.HandleFunc("GET /v1/workouts/sessions/{id}", workoutHandler.HandleGetSession)
	s.mux.HandleFunc("POST /v1/workouts/sessions/{id}/commands", workoutHandler.HandleCommand)
	s.mux.HandleFunc("POST /v1/workouts/sessions/{id}/submit", workoutHandler.HandleSubmit)
	s.mux.HandleFunc("DELETE /v1/workouts/sessions/{id}", workoutHandler.HandleDeleteSession)
	s.mux.HandleFunc("GET /v1/workouts/plans", workoutHandler.HandleListPlans)
	s.mux.HandleFunc("GET /v1/workouts/plans/{id}", workoutHandler.HandleGetPlan)
	s.mux.HandleFunc("DELETE /v1/workouts/plans/{id}", workoutHandler.HandleDeletePlan)
	s.mux.HandleFunc("GET /v1/workouts/plans/{id}/export", workoutHandler.HandleExportPlan)

	// Meal builder API
	mealHandler := mealplans.NewHandlers(mealplans.NewService(s.storage, s.storage, s.sessions, notifier, s.metricsManager))
	s.mux.HandleFunc("POST /v1/meals/sessions", mealHandler.HandleCreateSession)
	s.mux.HandleFunc("GET /v1/meals/sessions/{id}", mealHandler.HandleGetSession)
	s.mux.HandleFunc("POST /v1/meals/sessions/{id}/commands", mealHandler.HandleCommand)
	s.mux.HandleFunc("POST /v1/meals/sessions/{id}/submit", mealHandler.HandleSubmit)
	s.mux.HandleFunc("DELETE /v1/meals/sessions/{id}", mealHandler.HandleDeleteSession)
	s.mux.HandleFunc("GET /v1/meals/plans", mealHandler.HandleListPlans)
	s.mux.HandleFunc("GET /v1/meals/plans/{id}", mealHandler.HandleGetPlan)
	s.mux.HandleFunc("DELETE /v1/meals/plans/{id}", mealHandler.HandleDeletePlan)
	s.mux.HandleFunc("GET /v1/meals/plans/{id}/export", mealHandler.HandleExportPlan)

	// Exercise videos
	mediaService := media.NewService(s.blobStore, media.Options{
		LocalMode:         s.blobMode == config.BlobModeLocal,
		PublicBaseURL:     s.config.Blob.S3.PublicBaseURL,
		PreferPublicURL:   s.config.Blob.S3.PreferPublicURL,
		PresignTTLSeconds: s.config.Blob.S3.PresignTTLSeconds,
		MaxUploadMB:       s.config.UploadMaxMB,
		AllowedMimes:      s.config.VideoAllowedMime,
	}, s.metricsManager)
	mediaHandler := media.NewHandlers(mediaService)
	s.mux.HandleFunc("POST /v1/media/videos", mediaHandler.HandleUpload)
	s.mux.HandleFunc("GET /v1/media/videos/url", mediaHandler.HandleURL)
	s.mux.HandleFunc("GET /v1/media/videos/download", mediaHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/media/videos", mediaHandler.HandleDelete)

	return nil
}

// handleHealthz проверяет хранилище и хранилище сессий
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := map[string]string{
		"status":   "ok",
		"storage":  s.storageKind,
		"sessions": s.sessionsKind,
		"blob":     s.blobMode,
	}

	if err := s.storage.Ping(ctx); err != nil {
		log.WithError(err).Warn("healthz: storage ping failed")
		status = http.StatusServiceUnavailable
		resp["status"] = "degraded"
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("healthz: redis ping failed")
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Handler собирает цепочку middleware (снаружи внутрь):
// CORS → Metrics → Rate Limit → Auth → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Authenticate(handler)
	handler = RateLimitMiddleware(s.config, s.metricsManager, handler)
	handler = RequestMetrics(s.metricsManager, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Minute,
	}

	log.Infof("server listening on http://localhost%s", addr)
	log.Infof("health check: http://localhost%s/healthz", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер и закрывает соединения
func (s *Server) Shutdown(ctx context.Context) error {
	log.Debug("graceful shutdown initiated ...")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil {
			log.Errorf("failed to close redis client conn: %s", cerr)
		}
	}
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
