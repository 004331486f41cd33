package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learnstack/api/internal/analytics"
	"learnstack/api/internal/config"
	"learnstack/api/internal/errs"
	"learnstack/api/internal/middleware"
	"learnstack/api/internal/models"
	"learnstack/api/internal/notify"
	"learnstack/api/internal/repository"
	"learnstack/api/internal/service"
	"learnstack/api/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *pgxpool.Pool
	cache       *redis.Client
	authService *service.AuthService
	otpService  *service.OtpService
	documents   *service.DocumentService
	sessions    *service.SessionManager
	users       *repository.UserRepository
}

// NewHandlerSet is the composition root: repositories, services, and
// side-channel emitters are wired here with their dependencies
// explicit.
func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	resetRepo := repository.NewResetTokenRepository(db)
	tutorRepo := repository.NewTutorRepository(db)

	emitter := analytics.NewEmitter(cache, cfg.Streams.Analytics, log)
	dispatcher := notify.NewDispatcher(cache, cfg.Streams.Delivery, log)

	sessionManager := service.NewSessionManager(userRepo, sessionRepo, cfg, log)
	auth := service.NewAuthService(userRepo, resetRepo, sessionManager, emitter, dispatcher, cfg, log)
	otp := service.NewOtpService(userRepo, otpRepo, dispatcher, cfg, log)
	documents := service.NewDocumentService(tutorRepo, store, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          db,
		cache:       cache,
		authService: auth,
		otpService:  otp,
		documents:   documents,
		sessions:    sessionManager,
		users:       userRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.GET("/reset-password/validate", h.ValidateResetToken)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.sessions, h.users))
		protected.GET("/me", h.Me)
		protected.POST("/logout-all", h.LogoutAll)
		protected.POST("/heartbeat", h.Heartbeat)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:id", h.RevokeSession)
		protected.POST("/otp/generate", h.GenerateOtp)
		protected.POST("/otp/verify", h.VerifyOtp)

		tutors := v1.Group("/tutors")
		tutors.Use(
			middleware.Auth(h.cfg, h.sessions, h.users),
			middleware.RequireRoles(models.UserRoleTutor, models.UserRoleAdmin),
		)
		tutors.GET("/profile", h.GetTutorProfile)
		tutors.PUT("/profile", h.SaveTutorProfile)
		tutors.GET("/documents", h.ListTutorDocuments)
		tutors.POST("/documents", h.UploadTutorDocument)
		tutors.GET("/documents/:id", h.DownloadTutorDocument)

		admin := v1.Group("/admin")
		admin.Use(
			middleware.Auth(h.cfg, h.sessions, h.users),
			middleware.RequireRoles(models.UserRoleAdmin),
		)
		admin.GET("/sessions/stats", h.SessionStats)
	}
}

// respondError maps error kinds onto HTTP statuses so the transport
// never matches on message text.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := errs.KindOf(err)
	switch kind {
	case errs.KindValidation, errs.KindInvalidCredential:
		status = http.StatusBadRequest
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindAuthentication, errs.KindInvalidToken:
		status = http.StatusUnauthorized
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindExpired:
		status = http.StatusGone
	}

	body := gin.H{"error": err.Error()}
	if kind != errs.KindUnknown {
		body["kind"] = kind.String()
	} else {
		body["error"] = "internal_server_error"
	}
	c.JSON(status, body)
}
