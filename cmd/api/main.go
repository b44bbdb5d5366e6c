package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/scholaris/scholaris-api/docs" // Swagger docs
	"github.com/scholaris/scholaris-api/internal/config"
	"github.com/scholaris/scholaris-api/internal/database"
	"github.com/scholaris/scholaris-api/internal/handlers"
	"github.com/scholaris/scholaris-api/internal/jobs"
	"github.com/scholaris/scholaris-api/internal/middleware"
	"github.com/scholaris/scholaris-api/internal/repository"
	"github.com/scholaris/scholaris-api/internal/services"
	"github.com/scholaris/scholaris-api/internal/storage"
	"github.com/scholaris/scholaris-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Scholaris API
// @version 1.0
// @description REST API for school fee administration: obligation tracking, payments and collection reporting

// @contact.name API Support

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:user_id", h.User.Delete)
				admin.POST("/users/:user_id/toggle_status", h.User.ToggleStatus)

				admin.POST("/sessions", h.Schedule.CreateSession)
				admin.PUT("/fee_structures", h.Schedule.SaveFeeStructure)
				admin.PUT("/transport_fee_structures", h.Schedule.SaveTransportFeeStructure)

				admin.GET("/audits", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Staff routes: admins and accountants can mutate ledger state
			staff := protected.Group("")
			staff.Use(middleware.RequireStaff())
			{
				staff.POST("/students", h.Student.Create)
				staff.PUT("/students/:student_id", h.Student.Update)
				staff.POST("/students/:student_id/mark_left", h.Student.MarkLeft)
				staff.POST("/classes", h.Student.CreateClass)

				registerLedgerMutations(staff.Group("/fees"), h.Fees)
				registerLedgerMutations(staff.Group("/transport"), h.Transport)
			}

			// Read routes: any authenticated role, viewers included
			protected.GET("/users", h.User.Index)
			protected.GET("/users/me", h.User.Me)
			protected.GET("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Show)
			protected.PUT("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Update)
			protected.PATCH("/users/:user_id/change_password", h.User.ChangePassword)

			protected.GET("/students", h.Student.Index)
			protected.GET("/students/:student_id", h.Student.Show)
			protected.GET("/classes", h.Student.Classes)

			protected.GET("/sessions", h.Schedule.Sessions)
			protected.GET("/sessions/active", h.Schedule.ActiveSession)
			protected.GET("/fee_structures", h.Schedule.FeeStructures)
			protected.GET("/fee_structures/:class_id", h.Schedule.ShowFeeStructure)
			protected.GET("/transport_fee_structures", h.Schedule.TransportFeeStructures)

			registerLedgerReads(protected.Group("/fees"), h.Fees)
			registerLedgerReads(protected.Group("/transport"), h.Transport)

			// Reports
			reports := protected.Group("/reports")
			{
				reports.GET("/statement_pdf", h.Report.StatementPDF)
				reports.GET("/receipt_pdf", h.Report.ReceiptPDF)
				reports.GET("/defaulters_csv", h.Report.DefaultersCSV)
				reports.GET("/defaulters_xlsx", h.Report.DefaultersXLSX)
				reports.GET("/collection_xlsx", h.Report.CollectionXLSX)
			}

			// Notifications (users manage their own)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.PUT("/:notification_id", h.Notification.Update)
			}
		}
	}

	return router
}

// registerLedgerMutations mounts the write side of one ledger category.
func registerLedgerMutations(g *gin.RouterGroup, h *handlers.LedgerHandler) {
	g.POST("/enable", h.Enable)
	g.POST("/bulk_enable", h.BulkEnable)
	g.POST("/accounts/:account_id/payments", h.RecordPayment)
	g.POST("/transactions/:transaction_id/reverse", h.ReversePayment)
	g.POST("/transactions/:transaction_id/receipt", h.UploadReceipt)
}

// registerLedgerReads mounts the read side of one ledger category.
func registerLedgerReads(g *gin.RouterGroup, h *handlers.LedgerHandler) {
	g.GET("/accounts/:account_id", h.Summary)
	g.GET("/accounts/:account_id/transactions", h.Transactions)
	g.GET("/students/:student_id", h.SummaryByStudent)
	g.GET("/transactions/:transaction_id/receipt", h.DownloadReceipt)
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Scan for overdue obligations every hour
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue obligations...")
		return svcs.Ledger.CheckOverdueObligations(ctx)
	})

	// Daily collection snapshot for the active session
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		return svcs.Ledger.LogCollectionStats(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
