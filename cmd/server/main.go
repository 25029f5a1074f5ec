package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/contenttype"
	"docvault/internal/handler"
	"docvault/internal/httputil"
	"docvault/internal/middleware"
	"docvault/internal/repository/postgres"
	"docvault/internal/search"
	"docvault/internal/service/docstore"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.Environment)
	slog.SetDefault(logger)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.JWKSURL == "" {
		logger.Error("JWKS_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	repoCfg := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	folderRepo := postgres.NewFolderRepository(repoCfg)
	docRepo := postgres.NewDocumentRepository(repoCfg)
	txManager := postgres.NewTransactionManager(pool)

	verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		logger.Error("failed to initialize JWKS verifier", "error", err)
		os.Exit(1)
	}
	defer verifier.Close()

	types, err := contenttype.NewRegistry()
	if err != nil {
		logger.Error("failed to load content-type registry", "error", err)
		os.Exit(1)
	}

	storage := docstore.NewStorage(cfg.StorageRoot)
	index := search.NewLogNotifier(logger)
	remover := docstore.NewRemover(docRepo, storage, index, logger)
	jobs := docstore.NewJobRegistry(time.Duration(cfg.JobTTLMinutes) * time.Minute)

	docService := docstore.NewDocumentService(docRepo, folderRepo, storage, remover, jobs, types, logger)
	folderService := docstore.NewFolderService(folderRepo, docRepo, remover, txManager, logger)
	staticService := docstore.NewStaticService(docRepo, storage, types, logger)

	docHandler := handler.NewDocumentHandler(docService, logger)
	folderHandler := handler.NewFolderHandler(folderService, logger)
	staticHandler := handler.NewStaticHandler(staticService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/documents/upload", docHandler.Upload)
	mux.HandleFunc("GET /api/documents", docHandler.List)
	mux.HandleFunc("GET /api/documents/jobs", docHandler.Jobs)
	mux.HandleFunc("GET /api/documents/jobs/{id}", docHandler.JobStatus)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.Get)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.Delete)
	mux.HandleFunc("PUT /api/documents/{id}/status", docHandler.UpdateStatus)

	mux.HandleFunc("POST /api/folders", folderHandler.Create)
	mux.HandleFunc("GET /api/folders", folderHandler.List)
	mux.HandleFunc("GET /api/folders/tree", folderHandler.Tree)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.Get)
	mux.HandleFunc("GET /api/folders/{id}/permissions", folderHandler.Permissions)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.Update)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.Delete)

	mux.HandleFunc("GET /static/resources/folder/file/{path...}", staticHandler.Serve)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	var root http.Handler = mux
	root = middleware.Auth(verifier)(root)
	root = middleware.Recovery(logger)(root)
	root = corsMiddleware.Handler(root)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: document downloads stream for as long as
		// the client keeps reading.
	}

	go func() {
		logger.Info("server listening",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"storage_root", cfg.StorageRoot)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newLogger builds the process logger: colorized text in dev, JSON
// elsewhere.
func newLogger(environment string) *slog.Logger {
	if environment == "dev" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
