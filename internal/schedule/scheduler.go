package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var ErrJobRunning = errors.New("job still running")

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	RunNow(ctx context.Context, name string) error
	Start(ctx context.Context)
	Stop()
}

var _ Scheduler = (*CronScheduler)(nil)

type scheduledJob struct {
	job     Job
	spec    string
	running atomic.Bool
}

type CronScheduler struct {
	mu   sync.Mutex
	cron *cron.Cron
	jobs map[string]*scheduledJob
	ctx  context.Context
}

// NewCronScheduler accepts five-field specs and descriptors such as "@every 10m".
func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*scheduledJob),
	}
}

// AddJob registers job under its name. An empty spec keeps the job off the cron
// schedule; it can still be started with RunNow.
func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}
	sj := &scheduledJob{job: job, spec: spec}
	c.jobs[name] = sj
	if spec == "" {
		logger.Info("job registered for manual runs only")
		return nil
	}
	if _, err := c.cron.AddFunc(spec, func() { _ = c.run(c.context(), sj) }); err != nil {
		delete(c.jobs, name)
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	logger.Info("job scheduled")
	return nil
}

// RunNow runs a registered job synchronously, outside its cron cadence.
func (c *CronScheduler) RunNow(ctx context.Context, name string) error {
	c.mu.Lock()
	sj, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	return c.run(ctx, sj)
}

// Names lists registered jobs in no particular order.
func (c *CronScheduler) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.jobs))
	for name := range c.jobs {
		names = append(names, name)
	}
	return names
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *CronScheduler) run(ctx context.Context, sj *scheduledJob) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", sj.job.Name()),
		zap.String("spec", sj.spec),
	)
	if !sj.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return ErrJobRunning
	}
	defer sj.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := sj.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return err
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return nil
}
