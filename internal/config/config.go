package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config centralizes the env-driven tunables for the API and workers.
// Retry ceilings and backoff schedules are deliberately configuration,
// not constants.
type Config struct {
	Port           string `env:"PORT,default=8080"`
	WorkerCount    int    `env:"WORKER_COUNT,default=4"`
	EmbeddedWorker bool   `env:"EMBEDDED_WORKER,default=true"`

	QueueBackend string `env:"QUEUE_BACKEND,default=local"`
	QueueBuffer  int    `env:"QUEUE_BUFFER,default=512"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	RedisStream   string `env:"REDIS_STREAM,default=collablink_tasks"`
	RedisGroup    string `env:"REDIS_GROUP,default=collablink_workers"`
	RedisConsumer string `env:"REDIS_CONSUMER,default=worker-1"`

	DeliveryMaxAttempts int           `env:"DELIVERY_MAX_ATTEMPTS,default=5"`
	DeliveryBackoffBase time.Duration `env:"DELIVERY_BACKOFF_BASE,default=2s"`
	DeliveryBackoffMax  time.Duration `env:"DELIVERY_BACKOFF_MAX,default=5m"`

	JobStuckAfter   time.Duration `env:"JOB_STUCK_AFTER,default=10m"`
	JanitorSchedule string        `env:"JANITOR_SCHEDULE,default=@every 1m"`
	StatsSchedule   string        `env:"STATS_SCHEDULE,default=@every 5m"`

	TemplateRequired bool   `env:"TEMPLATE_REQUIRED,default=false"`
	DocStorageDir    string `env:"DOC_STORAGE_DIR,default=storage/documents"`

	OllamaBaseURL string        `env:"OLLAMA_BASE_URL,default=http://localhost:11434"`
	OllamaModel   string        `env:"OLLAMA_MODEL,default=llama3"`
	OllamaTimeout time.Duration `env:"OLLAMA_TIMEOUT,default=30s"`

	MailgunDomain string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`
	EmailFrom     string `env:"EMAIL_FROM_ADDRESS,default=noreply@collablink.io"`
	EmailFromName string `env:"EMAIL_FROM_NAME,default=Collablink"`

	SocialAPIBaseURL string `env:"SOCIAL_API_BASE_URL"`
	SocialAPIToken   string `env:"SOCIAL_API_TOKEN"`
	SearchAPIBaseURL string `env:"SEARCH_API_BASE_URL"`

	TextGenRPS float64 `env:"TEXT_GEN_RPS,default=2"`
	EmailRPS   float64 `env:"EMAIL_RPS,default=10"`
	SocialRPS  float64 `env:"SOCIAL_RPS,default=1"`
	SearchRPS  float64 `env:"SEARCH_RPS,default=5"`
	RateBurst  int     `env:"RATE_BURST,default=5"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	switch cfg.QueueBackend {
	case "local", "redis":
	default:
		errs = append(errs, "QUEUE_BACKEND must be local or redis")
	}
	if cfg.QueueBackend == "redis" && strings.TrimSpace(cfg.RedisAddr) == "" {
		errs = append(errs, "REDIS_ADDR is required when QUEUE_BACKEND=redis")
	}
	if cfg.WorkerCount < 1 {
		errs = append(errs, "WORKER_COUNT must be at least 1")
	}
	if cfg.DeliveryMaxAttempts < 1 {
		errs = append(errs, "DELIVERY_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.DeliveryBackoffBase <= 0 {
		errs = append(errs, "DELIVERY_BACKOFF_BASE must be positive")
	}
	if cfg.DeliveryBackoffMax < cfg.DeliveryBackoffBase {
		errs = append(errs, "DELIVERY_BACKOFF_MAX must not be below DELIVERY_BACKOFF_BASE")
	}
	if cfg.JobStuckAfter <= 0 {
		errs = append(errs, "JOB_STUCK_AFTER must be positive")
	}
	if strings.TrimSpace(cfg.DocStorageDir) == "" {
		errs = append(errs, "DOC_STORAGE_DIR is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
