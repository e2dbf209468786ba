package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/handler"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
	"reviewhub/internal/mailer"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	codeRepo := repository.NewConfirmationCodeRepository(db)
	categoryRepo := repository.NewCategoryRepo(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepo(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Confirmation-code delivery
	var mail mailer.Mailer
	if cfg.MailConfigured() {
		mail = mailer.NewSMTPMailer(cfg, logger)
	} else {
		logger.Warn("SMTP not configured, confirmation codes will be logged")
		mail = mailer.NewLogMailer(logger)
	}

	// Services
	authService := service.NewAuthService(userRepo, codeRepo, mail, logger, cfg)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo)
	reviewService := service.NewReviewService(reviewRepo, titleRepo)
	commentService := service.NewCommentService(commentRepo, reviewRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := middleware.AuthMiddleware(authService, userRepo)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	if cfg.RateLimitEnabled {
		authGroup.Use(newRateLimiter(cfg, logger).Handler())
	}
	handler.NewAuthHandler(authService).RegisterRoutes(authGroup)

	handler.NewCategoryHandler(categoryService).RegisterRoutes(api.Group("/categories"), authRequired)
	handler.NewGenreHandler(genreService).RegisterRoutes(api.Group("/genres"), authRequired)

	titles := api.Group("/titles")
	handler.NewTitleHandler(titleService).RegisterRoutes(titles, authRequired)
	handler.NewReviewHandler(reviewService).RegisterRoutes(titles, authRequired)
	handler.NewCommentHandler(commentService).RegisterRoutes(titles, authRequired)

	handler.NewUserHandler(userService).RegisterRoutes(api.Group("/users"), authRequired)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("starting server", "addr", addr, "env", cfg.GoEnv)
	if err := r.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func newRateLimiter(cfg *config.Config, logger *slog.Logger) *middleware.RateLimiter {
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("invalid REDIS_URL, rate limiting stays in-process", "error", err)
		} else {
			if cfg.RedisPassword != "" {
				opts.Password = cfg.RedisPassword
			}
			rdb = redis.NewClient(opts)
		}
	}
	return middleware.NewRateLimiter(rdb, cfg.AuthRatePerMin, logger)
}
