package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-call-insights/internal/config"
	"crm-call-insights/internal/domain/ports/adapter"
	"crm-call-insights/internal/domain/ports/repository"
	aiAdapters "crm-call-insights/internal/infra/adapters/ai"
	notifyAdapters "crm-call-insights/internal/infra/adapters/notify"
	sttAdapters "crm-call-insights/internal/infra/adapters/stt"
	pg "crm-call-insights/internal/infra/db/postgres"
	"crm-call-insights/internal/infra/logging"
	"crm-call-insights/internal/infra/metrics"
	red "crm-call-insights/internal/infra/redis"
	"crm-call-insights/internal/infra/sched"
	"crm-call-insights/internal/infra/web"
	"crm-call-insights/internal/infra/worker"
	"crm-call-insights/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed auth)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Repositories ----
	queueRepo := pg.NewRecordingQueueRepo(pool, tm)
	markerRepo := pg.NewProcessedMarkerRepo(pool)
	var markers repository.ProcessedMarkerRepository = markerRepo

	// ---- Redis (optional; markers work without the cache tier) ----
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		markers = pg.NewMarkerRepoCacheDecorator(markerRepo, redisClient, cfg.Redis.TTL)
	}

	// ---- AI adapter for analysis and role segmentation ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.Analysis.Provider == "gemini" && cfg.Analysis.APIKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.Analysis.APIKey, cfg.Analysis.BaseURL, cfg.Analysis.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.Analysis.Model).Msg("AI adapter: Gemini")
	case cfg.Analysis.APIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.Analysis.APIKey, cfg.Analysis.Model, cfg.Analysis.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("base", cfg.Analysis.BaseURL).Str("model", cfg.Analysis.Model).
			Msg("AI adapter: OpenAI compatible")
	default:
		ai = aiAdapters.NewNoopAIAdapter()
		logger.Warn().Msg("no analysis provider configured; heuristic scoring only")
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.Analysis.ConcurrentLimit)

	// ---- Speech-to-text (nil keeps the stage in its not-configured state) ----
	var stt adapter.SpeechToTextAdapter
	if cfg.STT.APIKey != "" {
		stt, err = sttAdapters.NewWhisperAdapter(cfg.STT.APIKey, cfg.STT.Model, cfg.STT.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("whisper adapter")
		}
	} else {
		logger.Warn().Msg("stt.api_key not set; recordings will park in error status")
	}

	// ---- Notifier ----
	var notifier adapter.Notifier
	if cfg.Notify.TelegramToken != "" && cfg.Notify.ChatID != 0 {
		notifier, err = notifyAdapters.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.ChatID)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
	} else {
		notifier = notifyAdapters.NewNoopNotifier(logger)
	}

	// ---- Pipeline ----
	scheduler := sched.NewTaskScheduler(cfg.STT.Concurrency)
	defer scheduler.Close()

	httpClient := &http.Client{Timeout: 10 * time.Minute}
	dedupUC := usecase.NewDedupUseCase(markers, logger)
	transcribeUC := usecase.NewTranscribeUseCase(stt, ai, httpClient, cfg.STT, logger)
	analyzeUC := usecase.NewAnalyzeUseCase(ai, cfg.Analysis, cfg.STT, logger)
	processUC := usecase.NewProcessUseCase(queueRepo, dedupUC, transcribeUC, analyzeUC, notifier, scheduler, logger)

	// ---- Poll worker ----
	poller := worker.NewQueuePoller(processUC, cfg.Queue, logger)
	go poller.Start(ctx)

	// ---- Ops HTTP server ----
	srv := web.NewServer(processUC, queueRepo, cfg.Ops, cfg.Queue, logger)
	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	time.Sleep(time.Second) // let in-flight handlers and the poller wind down
}
