package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collablink/collablink/internal/config"
	"github.com/collablink/collablink/internal/document"
	"github.com/collablink/collablink/internal/notification"
	"github.com/collablink/collablink/internal/pool"
	"github.com/collablink/collablink/internal/provider"
	"github.com/collablink/collablink/internal/queue"
	"github.com/collablink/collablink/internal/storage/postgres"
	"golang.org/x/time/rate"
)

// Standalone worker process. Requires the redis queue backend; the local
// in-process queue cannot reach workers outside the api process.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.QueueBackend != "redis" {
		log.Error("standalone worker requires QUEUE_BACKEND=redis")
		os.Exit(1)
	}

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Error("load database config", "error", err)
		os.Exit(1)
	}
	db, err := postgres.ConnectDB(dbCfg, log)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}

	tasks, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Stream:   cfg.RedisStream,
		Group:    cfg.RedisGroup,
		Consumer: cfg.RedisConsumer,
	}, log)
	if err != nil {
		log.Error("connect task queue", "error", err)
		os.Exit(1)
	}

	jobRepo := postgres.NewJobRepository(db)
	notifRepo := postgres.NewNotificationRepository(db)
	tplRepo := postgres.NewTemplateRepository(db)

	gateway := provider.NewGateway(log)
	gateway.Register(provider.CapabilityTextGeneration,
		provider.NewOllamaProvider(provider.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OllamaTimeout,
		}),
		rate.NewLimiter(rate.Limit(cfg.TextGenRPS), cfg.RateBurst))
	gateway.Register(provider.CapabilityEmailSend,
		provider.NewMailgunProvider(provider.MailgunConfig{
			Domain:    cfg.MailgunDomain,
			APIKey:    cfg.MailgunAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}),
		rate.NewLimiter(rate.Limit(cfg.EmailRPS), cfg.RateBurst))
	gateway.Register(provider.CapabilitySocialPost,
		provider.NewSocialProvider(provider.SocialConfig{
			BaseURL: cfg.SocialAPIBaseURL,
			Token:   cfg.SocialAPIToken,
		}),
		rate.NewLimiter(rate.Limit(cfg.SocialRPS), cfg.RateBurst))
	gateway.Register(provider.CapabilityFileRender,
		provider.NewLocalRenderProvider(cfg.DocStorageDir), nil)
	gateway.Register(provider.CapabilityWebSearch,
		provider.NewWebSearchProvider(provider.WebSearchConfig{
			BaseURL: cfg.SearchAPIBaseURL,
		}),
		rate.NewLimiter(rate.Limit(cfg.SearchRPS), cfg.RateBurst))

	docWorker := document.NewWorker(jobRepo, tplRepo, gateway,
		document.WorkerConfig{TemplateRequired: cfg.TemplateRequired}, log)
	deliveryProc := notification.NewDeliveryProcessor(notifRepo, gateway, tasks,
		notification.DeliveryConfig{
			MaxAttempts: cfg.DeliveryMaxAttempts,
			BackoffBase: cfg.DeliveryBackoffBase,
			BackoffMax:  cfg.DeliveryBackoffMax,
		}, log)

	workerPool := pool.NewWorkerPool(tasks, jobRepo, pool.Config{
		WorkerCount:     cfg.WorkerCount,
		JobStuckAfter:   cfg.JobStuckAfter,
		JanitorSchedule: cfg.JanitorSchedule,
	}, log)
	workerPool.RegisterHandler(queue.MessageKindDocumentJob, docWorker)
	workerPool.RegisterHandler(queue.MessageKindDeliveryAttempt, deliveryProc)
	if err := workerPool.AddCronFunc(cfg.StatsSchedule, func() {
		statsCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stats, err := notifRepo.Stats(statsCtx)
		if err != nil {
			log.Error("delivery stats", "error", err)
			return
		}
		for _, s := range stats {
			log.Info("delivery stats", "channel", s.Channel, "status", s.Status, "count", s.Count)
		}
	}); err != nil {
		log.Error("register stats schedule", "schedule", cfg.StatsSchedule, "error", err)
	}

	workerPool.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	workerPool.Stop()
	log.Info("shutdown complete")
}
