package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collablink/collablink/internal/config"
	"github.com/collablink/collablink/internal/document"
	"github.com/collablink/collablink/internal/job"
	"github.com/collablink/collablink/internal/notification"
	"github.com/collablink/collablink/internal/pool"
	"github.com/collablink/collablink/internal/provider"
	"github.com/collablink/collablink/internal/queue"
	"github.com/collablink/collablink/internal/realtime"
	"github.com/collablink/collablink/internal/storage/postgres"
	"github.com/collablink/collablink/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// taskQueue is the composed queue contract; both backends satisfy it.
type taskQueue interface {
	queue.Producer
	queue.Consumer
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error("load config", "error", err)
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
	if err := postgres.RunMigrations(db); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}

	jobRepo := postgres.NewJobRepository(db)
	notifRepo := postgres.NewNotificationRepository(db)
	tplRepo := postgres.NewTemplateRepository(db)

	tasks, err := buildQueue(ctx, cfg, log)
	if err != nil {
		log.Error("build task queue", "error", err)
		os.Exit(1)
	}

	gateway := buildGateway(cfg, log)
	hub := realtime.NewHub(log)

	jobService := job.NewJobService(jobRepo, tplRepo, tasks, log)
	jobHandler := job.NewJobHandler(jobService)

	dispatcher := notification.NewDispatcher(notifRepo, tasks, hub,
		notification.DispatcherConfig{MaxAttempts: cfg.DeliveryMaxAttempts}, log)
	notifHandler := notification.NewNotificationHandler(dispatcher)

	var workerPool *pool.WorkerPool
	if cfg.EmbeddedWorker {
		workerPool = buildWorkerPool(cfg, tasks, jobRepo, notifRepo, tplRepo, gateway, log)
		workerPool.Start()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.ErrorHandler())

	api := router.Group("/api/v1")
	{
		api.POST("/documents", jobHandler.Submit)
		api.GET("/jobs/:id", jobHandler.Get)
		api.GET("/jobs/:id/artifact", jobHandler.Artifact)

		api.POST("/events", notifHandler.CreateEvent)
		api.GET("/users/:id/notifications", notifHandler.Inbox)
		api.PUT("/users/:id/preferences", notifHandler.UpdatePreference)
		api.GET("/notifications/stats", notifHandler.Stats)
	}
	router.GET("/ws", hub.HandleWS)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Info("api listening", "port", cfg.Port, "embedded_worker", cfg.EmbeddedWorker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if workerPool != nil {
		workerPool.Stop()
	}
	log.Info("shutdown complete")
}

func buildQueue(ctx context.Context, cfg *config.Config, log *slog.Logger) (taskQueue, error) {
	if cfg.QueueBackend == "redis" {
		return queue.NewStreamsQueue(ctx, queue.StreamsConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		}, log)
	}
	return queue.NewLocalQueue(cfg.QueueBuffer, log), nil
}

func buildGateway(cfg *config.Config, log *slog.Logger) *provider.Gateway {
	g := provider.NewGateway(log)

	g.Register(provider.CapabilityTextGeneration,
		provider.NewOllamaProvider(provider.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OllamaTimeout,
		}),
		rate.NewLimiter(rate.Limit(cfg.TextGenRPS), cfg.RateBurst))

	g.Register(provider.CapabilityEmailSend,
		provider.NewMailgunProvider(provider.MailgunConfig{
			Domain:    cfg.MailgunDomain,
			APIKey:    cfg.MailgunAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}),
		rate.NewLimiter(rate.Limit(cfg.EmailRPS), cfg.RateBurst))

	g.Register(provider.CapabilitySocialPost,
		provider.NewSocialProvider(provider.SocialConfig{
			BaseURL: cfg.SocialAPIBaseURL,
			Token:   cfg.SocialAPIToken,
		}),
		rate.NewLimiter(rate.Limit(cfg.SocialRPS), cfg.RateBurst))

	g.Register(provider.CapabilityFileRender,
		provider.NewLocalRenderProvider(cfg.DocStorageDir), nil)

	g.Register(provider.CapabilityWebSearch,
		provider.NewWebSearchProvider(provider.WebSearchConfig{
			BaseURL: cfg.SearchAPIBaseURL,
		}),
		rate.NewLimiter(rate.Limit(cfg.SearchRPS), cfg.RateBurst))

	return g
}

func buildWorkerPool(
	cfg *config.Config,
	tasks taskQueue,
	jobRepo *postgres.JobRepository,
	notifRepo *postgres.NotificationRepository,
	tplRepo *postgres.TemplateRepository,
	gateway *provider.Gateway,
	log *slog.Logger,
) *pool.WorkerPool {
	docWorker := document.NewWorker(jobRepo, tplRepo, gateway,
		document.WorkerConfig{TemplateRequired: cfg.TemplateRequired}, log)
	deliveryProc := notification.NewDeliveryProcessor(notifRepo, gateway, tasks,
		notification.DeliveryConfig{
			MaxAttempts: cfg.DeliveryMaxAttempts,
			BackoffBase: cfg.DeliveryBackoffBase,
			BackoffMax:  cfg.DeliveryBackoffMax,
		}, log)

	p := pool.NewWorkerPool(tasks, jobRepo, pool.Config{
		WorkerCount:     cfg.WorkerCount,
		JobStuckAfter:   cfg.JobStuckAfter,
		JanitorSchedule: cfg.JanitorSchedule,
	}, log)
	p.RegisterHandler(queue.MessageKindDocumentJob, docWorker)
	p.RegisterHandler(queue.MessageKindDeliveryAttempt, deliveryProc)

	if err := p.AddCronFunc(cfg.StatsSchedule, func() {
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
	return p
}
