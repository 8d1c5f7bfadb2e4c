package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"qomex.backend/internal/config"
	"qomex.backend/internal/infrastructure/datasources/postgres"
	"qomex.backend/internal/infrastructure/repositories"
	"qomex.backend/internal/interfaces/http/handlers"
	"qomex.backend/internal/interfaces/http/middleware"
	"qomex.backend/internal/usecases"
	"qomex.backend/pkg/jwt"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/mailer"
	"qomex.backend/pkg/metrics"
	"qomex.backend/pkg/redis"
	"qomex.backend/web"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		sqlDB, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.OpenGorm(sqlDB)
	}
	migrateDB       = postgres.Migrate
	newSessionStore = redis.NewSessionStore
	runServer       = serveHTTP
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	dotenvErr := loadDotenv()

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	if dotenvErr != nil {
		logger.Info(ctx, "No .env file found, using environment variables")
	}
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Security.PostbackSecret == "" {
		logger.Warn(ctx, "POSTBACK_SECRET is empty, every postback will be rejected")
	}
	if !cfg.Mail.Enabled() {
		logger.Warn(ctx, "SMTP is not configured, password reset links will not be mailed")
	}
	if cfg.Admin.PasswordHash == "" {
		logger.Warn(ctx, "ADMIN_PASSWORD_HASH is empty, the admin API is locked")
	}

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	logger.Info(ctx, "Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := migrateDB(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info(ctx, "Database schema migrated")
	}

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	r := buildRouter(cfg, db, sessionStore, metrics.New("qomex"))

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	logger.Info(ctx, "Qomex backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("base_url", cfg.Server.BaseURL),
	)
	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// buildRouter wires repositories, usecases and handlers into the HTTP router
func buildRouter(cfg *config.Config, db *gorm.DB, sessionStore *redis.SessionStore, m *metrics.Metrics) *gin.Engine {
	tokens := jwt.NewTokenService(cfg.Security.ResetTokenSecret, cfg.Security.ResetTokenMaxAge)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	logRepo := repositories.NewPostbackLogRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	minDeposit := cfg.Affiliate.MinDeposit
	reconcileUsecase := usecases.NewReconcileUsecase(userRepo, logRepo, uow, minDeposit, m)
	postbackUsecase := usecases.NewPostbackUsecase(userRepo, logRepo, uow, cfg.Security.PostbackSecret, minDeposit, m)
	depositUsecase := usecases.NewDepositUsecase(userRepo, reconcileUsecase, minDeposit)
	authUsecase := usecases.NewAuthUsecase(userRepo, reconcileUsecase)
	resetUsecase := usecases.NewPasswordResetUsecase(userRepo, tokens, newResetMailer(cfg.Mail), cfg.Server.BaseURL)
	adminUsecase := usecases.NewAdminUsecase(userRepo, logRepo, uow, reconcileUsecase)

	// Handlers
	cookies := handlers.CookieConfig{
		Secure:      cfg.Server.SecureCookies(),
		SessionTTL:  cfg.Security.SessionTTL,
		RememberTTL: cfg.Security.RememberTTL,
		ClickIDTTL:  cfg.Affiliate.ClickIDTTL,
	}
	deps := routeDeps{
		postbackHandler: handlers.NewPostbackHandler(postbackUsecase),
		authHandler:     handlers.NewAuthHandler(authUsecase, sessionStore, cookies),
		pageHandler: handlers.NewPageHandler(authUsecase, reconcileUsecase, depositUsecase, handlers.PageConfig{
			BaseURL:    cfg.Server.BaseURL,
			BrokerURL:  cfg.Affiliate.BrokerURL,
			MinDeposit: minDeposit,
			Cookies:    cookies,
		}),
		depositHandler:      handlers.NewDepositHandler(depositUsecase, cookies),
		resetHandler:        handlers.NewPasswordResetHandler(resetUsecase, cfg.Mail.ExposeResetURL && !cfg.Server.IsProduction()),
		adminHandler:        handlers.NewAdminHandler(adminUsecase),
		sessionMiddleware:   middleware.SessionMiddleware(sessionStore),
		clickIDMiddleware:   middleware.ClickIDMiddleware(cfg.Affiliate.ClickIDTTL, cookies.Secure),
		adminAuthMiddleware: middleware.AdminAuthMiddleware(cfg.Admin.Username, cfg.Admin.PasswordHash),
		authRateLimit:       middleware.RateLimitMiddleware("auth", int64(cfg.RateLimit.AuthMaxRequests), cfg.RateLimit.AuthWindow),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.SetHTMLTemplate(web.MustTemplates())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, m.Handler())
	registerStaticRoute(r, cfg.Server.StaticDir)
	registerRoutes(r, deps)
	return r
}

// newResetMailer returns nil when SMTP is not configured.
func newResetMailer(cfg config.MailConfig) usecases.Mailer {
	if !cfg.Enabled() {
		return nil
	}
	m, err := mailer.New(mailer.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		UseTLS:   cfg.UseTLS,
		UseSSL:   cfg.UseSSL,
	})
	if err != nil {
		return nil
	}
	return m
}

// serveHTTP runs the server until SIGINT/SIGTERM, then drains in-flight requests.
func serveHTTP(h http.Handler, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
