package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"

	"github.com/nurlyy/contract_manager/internal/api/handlers"
	mw "github.com/nurlyy/contract_manager/internal/api/middleware"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
	"github.com/nurlyy/contract_manager/pkg/metrics"
	"github.com/nurlyy/contract_manager/pkg/validator"
)

// Server представляет HTTP сервер API
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	logger      logger.Logger
	config      *config.Config
	jwtManager  *auth.JWTManager
	metrics     *metrics.Metrics
	redisClient *redis.Client
	baseHandler handlers.BaseHandler
	services    *Services
}

// Services содержит все сервисы для обработчиков API
type Services struct {
	UserService         *service.UserService
	ContractService     *service.ContractService
	CounterpartyService *service.CounterpartyService
	NotificationService *service.NotificationService
}

// NewServer создает новый экземпляр сервера API
func NewServer(
	config *config.Config,
	logger logger.Logger,
	jwtManager *auth.JWTManager,
	validator *validator.CustomValidator,
	metrics *metrics.Metrics,
	redisClient *redis.Client,
	services *Services,
) *Server {
	baseHandler := handlers.NewBaseHandler(logger, validator)

	server := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		config:      config,
		jwtManager:  jwtManager,
		metrics:     metrics,
		redisClient: redisClient,
		baseHandler: baseHandler,
		services:    services,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты API
func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(s.baseHandler, s.services.UserService)
	userHandler := handlers.NewUserHandler(s.baseHandler, s.services.UserService, s.services.ContractService)
	contractHandler := handlers.NewContractHandler(s.baseHandler, s.services.ContractService)
	counterpartyHandler := handlers.NewCounterpartyHandler(s.baseHandler, s.services.CounterpartyService, s.services.ContractService)
	notificationHandler := handlers.NewNotificationHandler(s.baseHandler, s.services.NotificationService)

	authMiddleware := mw.NewAuthMiddleware(s.jwtManager, s.logger)
	loggingMiddleware := mw.NewLoggingMiddleware(s.logger)
	metricsMiddleware := mw.NewMetricsMiddleware(s.metrics)

	rateLimiter := mw.NewRateLimiter(mw.RateLimiterConfig{
		Limit:    100,
		Period:   60,
		Strategy: mw.RateLimitIP,
	}, s.redisClient, s.metrics, s.logger)

	cleanupCtx := s.config.App.Context
	if cleanupCtx == nil {
		cleanupCtx = context.Background()
	}
	rateLimiter.StartCleanupTask(cleanupCtx)

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	// Коллекционные пути доступны и с завершающим слэшем, и без него
	s.router.Use(middleware.StripSlashes)
	s.router.Use(loggingMiddleware.LogRequest)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(rateLimiter.Limit)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(metricsMiddleware.Measure)

	// Базовый маршрут для проверки работоспособности API
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK"}`))
	})

	// Prometheus-метрики, если включены в конфигурации
	if s.metrics != nil && s.config.Monitoring.MetricsEnabled {
		metricsPath := s.config.Monitoring.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		s.router.Handle(metricsPath, s.metrics.Handler())
	}

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		// Публичные маршруты (без аутентификации)
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/refresh", authHandler.RefreshToken)
		})

		// Защищенные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Маршруты для текущего пользователя
			r.Get("/auth/me", authHandler.GetCurrentUser)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			// Маршруты для контрактов
			r.Route("/contracts", func(r chi.Router) {
				r.Post("/", contractHandler.CreateContract)
				r.Get("/", contractHandler.ListContracts)
				r.Get("/search", contractHandler.SearchContracts)
				r.Get("/{contract_id}", contractHandler.GetContract)
				r.Put("/{contract_id}", contractHandler.UpdateContract)
				r.Put("/{contract_id}/status", contractHandler.UpdateContractStatus)
				r.Put("/{contract_id}/manager", contractHandler.UpdateContractManager)

				// Удаление доступно администраторам и юристам
				r.With(authMiddleware.RequireRole("lawyer")).
					Delete("/{contract_id}", contractHandler.DeleteContract)
			})

			// Маршруты для контрагентов
			r.Route("/counterparties", func(r chi.Router) {
				r.Post("/", counterpartyHandler.CreateCounterparty)
				r.Get("/", counterpartyHandler.ListCounterparties)
				r.Get("/{counterparty_id}", counterpartyHandler.GetCounterparty)
				r.Put("/{counterparty_id}", counterpartyHandler.UpdateCounterparty)
				r.Delete("/{counterparty_id}", counterpartyHandler.DeleteCounterparty)
				r.Get("/{counterparty_id}/contracts", counterpartyHandler.ListCounterpartyContracts)
			})

			// Маршруты для пользователей.
			// Заведение, список и удаление доступны только администраторам.
			r.Route("/users", func(r chi.Router) {
				r.With(authMiddleware.RequireRole("admin")).Post("/", userHandler.CreateUser)
				r.With(authMiddleware.RequireRole("admin")).Get("/", userHandler.ListUsers)
				r.With(authMiddleware.RequireRole("admin")).Delete("/{user_id}", userHandler.DeleteUser)

				r.Get("/{user_id}", userHandler.GetUser)
				r.Put("/{user_id}", userHandler.UpdateUser)
				r.Get("/{user_id}/contracts", userHandler.ListUserContracts)
			})

			// Маршруты для уведомлений
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.ListNotifications)
				r.Get("/count", notificationHandler.GetUnreadCount)
				r.Get("/settings", notificationHandler.GetSettings)
				r.Put("/settings", notificationHandler.UpdateSettings)
				r.Put("/read-all", notificationHandler.MarkAllAsRead)
				r.Get("/{notification_id}", notificationHandler.GetNotification)
				r.Put("/{notification_id}/read", notificationHandler.MarkAsRead)
				r.Delete("/{notification_id}", notificationHandler.DeleteNotification)
			})
		})
	})
}

// ServeHTTP реализует интерфейс http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	s.logger.Info("Starting API server", map[string]interface{}{
		"port": s.config.HTTP.Port,
	})

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.HTTP.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown корректно останавливает HTTP сервер
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
