package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"soaforge/internal/auth"
	"soaforge/internal/catalog"
	"soaforge/internal/config"
	"soaforge/internal/handler"
	"soaforge/internal/middleware"
	"soaforge/internal/repository/postgres"
	commentsvc "soaforge/internal/service/comment"
	compliancesvc "soaforge/internal/service/compliance"
	"soaforge/internal/service/generation"
	projectsvc "soaforge/internal/service/project"
	sectionsvc "soaforge/internal/service/section"
	versionsvc "soaforge/internal/service/version"
	workflowsvc "soaforge/internal/service/workflow"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	documentRepo := postgres.NewDocumentRepository(repoConfig)
	sectionRepo := postgres.NewSectionRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	workflowRepo := postgres.NewWorkflowRepository(repoConfig)
	commentRepo := postgres.NewCommentRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Load the section template catalog
	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load section catalog: %v", err)
	}
	logger.Info("section catalog loaded", "templates", len(cat.Keys()))

	// Setup generation provider
	generator, err := generation.NewClient(cfg, cat, logger)
	if err != nil {
		log.Fatalf("Failed to setup generation client: %v", err)
	}

	// Create services
	validator := compliancesvc.NewValidator(cat)
	versionService := versionsvc.NewService(versionRepo, sectionRepo, logger)
	sectionService := sectionsvc.NewService(sectionRepo, documentRepo, versionService, generator, cat, txManager, logger)
	projectService := projectsvc.NewService(projectRepo, documentRepo, logger)
	commentService := commentsvc.NewService(commentRepo, sectionRepo, logger)
	workflowService := workflowsvc.NewEngine(
		workflowRepo,
		projectRepo,
		documentRepo,
		sectionRepo,
		sectionService,
		versionService,
		generator,
		validator,
		cat,
		logger,
	)

	// Create handlers
	projectHandler := handler.NewProjectHandler(projectService, logger)
	sectionHandler := handler.NewSectionHandler(sectionService, projectService, logger)
	versionHandler := handler.NewVersionHandler(versionService, projectService, logger)
	workflowHandler := handler.NewWorkflowHandler(workflowService, sectionService, projectService, validator, logger)
	commentHandler := handler.NewCommentHandler(commentService, projectService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", projectHandler.HealthCheck)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)

	// Source document routes
	mux.HandleFunc("POST /api/projects/{id}/documents", projectHandler.UploadDocument)
	mux.HandleFunc("GET /api/projects/{id}/documents", projectHandler.ListDocuments)

	// Workflow routes
	mux.HandleFunc("POST /api/projects/{id}/workflow", workflowHandler.StartWorkflow)
	mux.HandleFunc("GET /api/projects/{id}/workflow", workflowHandler.GetWorkflowState)
	mux.HandleFunc("POST /api/projects/{id}/workflow/reset", workflowHandler.ResetWorkflow)
	mux.HandleFunc("POST /api/projects/{id}/approve", workflowHandler.HandleApproval)
	mux.HandleFunc("GET /api/projects/{id}/compliance", workflowHandler.GetCompliance)

	// Section routes
	mux.HandleFunc("GET /api/projects/{id}/sections", sectionHandler.ListSections)
	mux.HandleFunc("POST /api/projects/{id}/sections", sectionHandler.AddSection)
	mux.HandleFunc("PATCH /api/projects/{id}/sections", sectionHandler.UpdateSection)
	mux.HandleFunc("DELETE /api/projects/{id}/sections/{key}", sectionHandler.DeleteSection)
	mux.HandleFunc("POST /api/projects/{id}/sections/{key}/regenerate", sectionHandler.RegenerateSection)

	// Version routes
	mux.HandleFunc("GET /api/projects/{id}/versions", versionHandler.GetVersions)
	mux.HandleFunc("POST /api/projects/{id}/versions", versionHandler.RollbackVersion)

	// Comment routes
	mux.HandleFunc("POST /api/projects/{id}/sections/{key}/comments", commentHandler.CreateComment)
	mux.HandleFunc("GET /api/projects/{id}/sections/{key}/comments", commentHandler.ListComments)
	mux.HandleFunc("POST /api/projects/{id}/comments/{commentID}/resolve", commentHandler.ResolveComment)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
