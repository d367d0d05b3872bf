package main

import (
	"context"
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

	"creditscope/internal/config"
	"creditscope/internal/handler"
	"creditscope/internal/inference/ollama"
	"creditscope/internal/pdf/fitz"
	"creditscope/internal/pdf/pdfcpu"
	"creditscope/internal/router"
	"creditscope/internal/service"
	s3storage "creditscope/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Log.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	if cfg.Server.Environment == "production" || cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize inference and document backends
	gateway := ollama.NewGateway(&cfg.Inference)
	normalizer := service.NewNormalizer(
		pdfcpu.NewCodec(),
		fitz.NewRasterizer(cfg.Processing.MaxImageDimension),
		service.NormalizerConfig{
			WorkDir:   cfg.Processing.WorkDir,
			DPI:       cfg.Processing.DPI,
			Passwords: cfg.Processing.PDFPasswords,
		},
	)

	// Initialize report archive
	archiver, err := newArchiver(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize report archive: %w", err)
	}

	// Initialize services
	cleaner := service.NewCleaner(cfg.Analysis.CleanupDelay)
	uploadSvc := service.NewUploadService(&cfg.Upload)
	analysisSvc := service.NewAnalysisService(gateway, normalizer, archiver, cleaner, cfg.Upload.Dir)

	// Initialize handlers
	uploadH := handler.NewUploadHandler(uploadSvc)
	analysisH := handler.NewAnalysisHandler(analysisSvc, cfg.Analysis.Timeout)
	reportH := handler.NewReportHandler()
	healthH := handler.NewHealthHandler(gateway)

	// Setup router
	r := router.Setup(cfg.CORS.AllowedOrigins, cfg.Upload.MaxFileSizeMB*1024*1024, uploadH, analysisH, reportH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (inference %s, model %s)", cfg.Server.Port, cfg.Inference.BaseURL, gateway.ModelName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Printf("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	log.Printf("Removing pending transient files")
	cleaner.Flush()
	return nil
}

func newArchiver(cfg *config.Config) (service.ReportArchiver, error) {
	switch cfg.Archive.Provider {
	case "", "noop":
		return service.NewNoopArchiver(), nil
	case "s3":
		s3Client, err := s3storage.NewS3Client(context.Background(), &cfg.S3)
		if err != nil {
			return nil, err
		}
		log.Printf("Archiving reports to s3://%s/%s", cfg.S3.Bucket, cfg.Archive.Prefix)
		return service.NewStorageArchiver(s3Client, cfg.S3.Bucket, cfg.Archive.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Archive.Provider)
	}
}
