package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/collablink/collablink/internal/job"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/queue"
	"github.com/robfig/cron/v3"
)

// Handler processes one queue message. Handlers persist the outcome on
// the record the message references before returning.
type Handler interface {
	Handle(ctx context.Context, msg queue.Message) error
}

type Config struct {
	WorkerCount     int
	JobStuckAfter   time.Duration
	JanitorSchedule string
	StatsSchedule   string
}

// WorkerPool runs N consumer goroutines over the task queue, dispatching
// by message kind, plus cron jobs for stuck-job recovery and a periodic
// delivery stats line.
type WorkerPool struct {
	consumer queue.Consumer
	handlers map[queue.MessageKind]Handler
	jobs     job.JobRepoInterface
	cfg      Config
	log      *slog.Logger

	cron   *cron.Cron
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorkerPool(consumer queue.Consumer, jobs job.JobRepoInterface, cfg Config, log *slog.Logger) *WorkerPool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.JobStuckAfter <= 0 {
		cfg.JobStuckAfter = 10 * time.Minute
	}
	if cfg.JanitorSchedule == "" {
		cfg.JanitorSchedule = "@every 1m"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		consumer: consumer,
		handlers: make(map[queue.MessageKind]Handler),
		jobs:     jobs,
		cfg:      cfg,
		log:      log,
		cron:     cron.New(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler binds a message kind to its processor; call before Start.
func (p *WorkerPool) RegisterHandler(kind queue.MessageKind, h Handler) {
	p.handlers[kind] = h
}

func (p *WorkerPool) Start() {
	for i := 1; i <= p.cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	if _, err := p.cron.AddFunc(p.cfg.JanitorSchedule, p.recoverStuckJobs); err != nil {
		p.log.Error("register janitor schedule", "schedule", p.cfg.JanitorSchedule, "error", err)
	}
	p.cron.Start()
	p.log.Info("worker pool started", "workers", p.cfg.WorkerCount)
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	err := p.consumer.Consume(p.ctx, func(ctx context.Context, msg queue.Message) error {
		h, ok := p.handlers[msg.Kind]
		if !ok {
			p.log.Warn("no handler for message kind", "worker", id, "kind", msg.Kind)
			return nil
		}
		return h.Handle(ctx, msg)
	})
	if err != nil && p.ctx.Err() == nil {
		p.log.Error("consumer stopped", "worker", id, "error", err)
	}
}

// recoverStuckJobs fails processing jobs whose worker died mid-run so the
// caller sees a terminal status instead of waiting forever.
func (p *WorkerPool) recoverStuckJobs() {
	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	stuck, err := p.jobs.ListStuck(ctx, p.cfg.JobStuckAfter)
	if err != nil {
		p.log.Error("list stuck jobs", "error", err)
		return
	}
	for _, j := range stuck {
		_, err := p.jobs.Transition(ctx, j.ID, models.JobStatusProcessing, models.JobStatusFailed,
			map[string]any{"error": "abandoned after worker timeout"})
		if err != nil {
			// Lost to a worker that finished in the meantime; nothing to do.
			p.log.Debug("stuck job already transitioned", "job_id", j.ID, "error", err)
			continue
		}
		p.log.Warn("recovered stuck job", "job_id", j.ID, "stuck_after", p.cfg.JobStuckAfter)
	}
}

// AddCronFunc registers an extra periodic task on the pool's scheduler.
func (p *WorkerPool) AddCronFunc(schedule string, fn func()) error {
	_, err := p.cron.AddFunc(schedule, fn)
	return err
}

func (p *WorkerPool) Stop() {
	p.cancel()
	cronCtx := p.cron.Stop()
	<-cronCtx.Done()
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}
