package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/database"
	custommiddleware "product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
	"product-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires the HTTP stack. db and redisClient may be nil: the memory engine has no
// database and rate limiting is off without redis.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	repos *repository.Repositories,
	db database.Service,
	redisClient *redis.Client,
) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, repos, db, redisClient),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

// NewRouter builds the router with every API route and the shared middleware stack
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	repos *repository.Repositories,
	db database.Service,
	redisClient *redis.Client,
) http.Handler {
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.Compress(5))
	router.Use(middleware.StripSlashes)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check endpoint
	router.Get("/health", healthHandler(db, redisClient))

	// Initialize services
	userService := service.NewUserService(repos.Users, repos.RefreshTokens, cfg.JWT)
	categoryService := service.NewCategoryService(repos.Categories)
	productService := service.NewProductService(repos.Products, repos.Categories, cfg.Pagination.PageSize)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	docsHandler := transport.NewDocsHandler(logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger)
	writeGuard := custommiddleware.ReadOnlyOrAuthenticated(cfg.Auth.OpenWrites, logger)

	// Register routes
	docsHandler.RegisterRoutes(router)
	router.Group(func(r chi.Router) {
		if redisClient != nil && cfg.RateLimit.Enabled {
			// Identify the caller first so limits follow users rather than addresses
			r.Use(optionalAuth)
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "rate_limit",
			}, logger))
		}

		userHandler.RegisterRoutes(r, authMiddleware)
		categoryHandler.RegisterRoutes(r, optionalAuth, writeGuard)
		productHandler.RegisterRoutes(r, optionalAuth, writeGuard)
	})

	return router
}

func healthHandler(db database.Service, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		if db != nil {
			health := db.Health()
			body["database"] = health
			if health["status"] != "up" {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				body["redis"] = "down"
			} else {
				body["redis"] = "up"
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
