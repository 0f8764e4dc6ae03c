package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipsmith/clipsmith/internal/api"
	"github.com/clipsmith/clipsmith/internal/background"
	"github.com/clipsmith/clipsmith/internal/catalog"
	"github.com/clipsmith/clipsmith/internal/compose"
	"github.com/clipsmith/clipsmith/internal/config"
	"github.com/clipsmith/clipsmith/internal/fonts"
	"github.com/clipsmith/clipsmith/internal/jobstore"
	"github.com/clipsmith/clipsmith/internal/queue"
	"github.com/clipsmith/clipsmith/internal/services"
	"github.com/clipsmith/clipsmith/internal/worker"
)

func main() {
	log.Println("Starting Clipsmith API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Job status records share the queue's connection
	jobs := jobstore.New(q.Client(), time.Duration(cfg.JobStatusTTL)*time.Hour)

	// Initialize clip catalog
	cat := catalog.New(cfg.CatalogURL, cfg.CatalogKey, cfg.CatalogBucket)
	log.Println("Initialized clip catalog")

	// Create API handler
	handler := api.NewHandler(q, jobs)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		// Initialize services
		mediaSvc := services.NewMediaService(cfg.TempDir)
		backgrounds := background.NewResolver(cat, mediaSvc)
		renderer := compose.NewFFmpegRenderer()
		fontResolver := fonts.NewResolver(cfg.FontsDir, cfg.DefaultFontFile)

		// Initialize TTS provider — ElevenLabs preferred, OpenAI as fallback
		var ttsSvc services.TTSService
		if cfg.ElevenLabsKey != "" {
			ttsSvc = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
			log.Printf("TTS provider: ElevenLabs (voice: %s, model: eleven_flash_v2_5)", cfg.ElevenLabsVoiceID)
		} else {
			ttsSvc = services.NewOpenAIService(cfg.OpenAIKey)
			log.Println("TTS provider: OpenAI")
		}

		// Transcription needs an OpenAI key — nil transcriber means
		// caption timing falls back to the heuristic
		var transcriber worker.Transcriber
		if cfg.TranscriptionEnabled {
			transcriber = services.NewOpenAIService(cfg.OpenAIKey)
			log.Println("Caption timing: Whisper transcription with heuristic fallback")
		} else {
			log.Println("Caption timing: heuristic only")
		}

		// Create worker
		w := worker.New(q, jobs, cat, ttsSvc, transcriber, mediaSvc, backgrounds, renderer, fontResolver, worker.Options{
			TranscriptionEnabled:  cfg.TranscriptionEnabled,
			MatchRatioThreshold:   cfg.MatchRatioThreshold,
			SilenceNoiseDB:        cfg.SilenceNoiseDB,
			MinSilenceSec:         cfg.MinSilenceSec,
			TrailingWindowSec:     cfg.TrailingWindowSec,
			DegradedRenderEnabled: cfg.DegradedRenderEnabled,
			BannerTopImagePath:    cfg.BannerTopImagePath,
			BannerBottomImagePath: cfg.BannerBottomImagePath,
		})

		// Start worker in background
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
