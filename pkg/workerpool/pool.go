// Package workerpool runs message conversions on a fixed set of
// workers. The ingester submits one task per dropped HL7 file; the
// bounded queue is the back-pressure that keeps a bulk drop of
// thousands of files from being read all at once.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of work, typically a file to convert.
type Task struct {
	ID      string
	Payload interface{}
	// Context, when set, bounds the task's processing and retries.
	Context context.Context
}

// Result is the outcome of one task.
type Result struct {
	TaskID  string
	Success bool
	Error   error
	Data    interface{}
}

// WorkerFunc processes one task.
type WorkerFunc func(ctx context.Context, task *Task) *Result

// Config holds pool sizing and retry behavior.
type Config struct {
	// Workers is the conversion concurrency.
	Workers int
	// QueueSize bounds the pending tasks; Submit fails beyond it.
	QueueSize int
	// MaxRetries is how often a failed task is re-run.
	MaxRetries int
	// RetryDelay is the base backoff between attempts.
	RetryDelay time.Duration
	// GracefulShutdownTimeout bounds Stop's wait for in-flight tasks.
	GracefulShutdownTimeout time.Duration
}

// DefaultConfig sizes the pool for file-drop conversion: a conversion
// is CPU-bound parsing plus one database round trip, so a handful of
// workers keeps up with any realistic feed.
func DefaultConfig() Config {
	return Config{
		Workers:                 8,
		QueueSize:               1024,
		MaxRetries:              2,
		RetryDelay:              250 * time.Millisecond,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// Pool distributes tasks across workers and retries transient
// failures.
type Pool struct {
	config     Config
	workerFunc WorkerFunc
	logger     *zap.Logger

	tasks   chan *Task
	results chan *Result
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	tasksSubmitted int64
	tasksCompleted int64
	tasksFailed    int64
	tasksRetried   int64
	activeWorkers  int64
	queueDepth     int64
}

// New creates a pool. The worker function is required.
func New(cfg Config, fn WorkerFunc, logger *zap.Logger) (*Pool, error) {
	if fn == nil {
		return nil, fmt.Errorf("worker function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		config:     cfg,
		workerFunc: fn,
		logger:     logger,
		tasks:      make(chan *Task, cfg.QueueSize),
		results:    make(chan *Result, cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize))
}

// Submit queues a task. It fails when the pool is shutting down or the
// queue is full; the caller decides whether to drop or resubmit later.
func (p *Pool) Submit(task *Task) error {
	select {
	case <-p.ctx.Done():
		return fmt.Errorf("pool is shutting down")
	default:
	}

	select {
	case p.tasks <- task:
		atomic.AddInt64(&p.tasksSubmitted, 1)
		atomic.AddInt64(&p.queueDepth, 1)
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Results exposes the completion stream for callers that track task
// outcomes asynchronously.
func (p *Pool) Results() <-chan *Result {
	return p.results
}

// Stop closes the queue and waits for in-flight tasks up to the
// configured timeout.
func (p *Pool) Stop() error {
	p.logger.Info("stopping worker pool")

	p.cancel()
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
	case <-time.After(p.config.GracefulShutdownTimeout):
		p.logger.Warn("worker pool shutdown timed out")
	}

	close(p.results)
	return nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	atomic.AddInt64(&p.activeWorkers, 1)
	defer atomic.AddInt64(&p.activeWorkers, -1)

	for task := range p.tasks {
		atomic.AddInt64(&p.queueDepth, -1)
		p.report(id, p.run(task))
	}
}

// run executes one task, retrying failures with linear backoff. A
// cancelled context ends the retries immediately.
func (p *Pool) run(task *Task) *Result {
	ctx := task.Context
	if ctx == nil {
		ctx = p.ctx
	}

	var last *Result
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return &Result{TaskID: task.ID, Success: false, Error: err}
		}

		last = p.workerFunc(ctx, task)
		if last.Success || attempt >= p.config.MaxRetries {
			break
		}

		atomic.AddInt64(&p.tasksRetried, 1)
		p.logger.Debug("retrying task",
			zap.String("task_id", task.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(last.Error))

		select {
		case <-ctx.Done():
			return &Result{TaskID: task.ID, Success: false, Error: ctx.Err()}
		case <-time.After(p.config.RetryDelay * time.Duration(attempt+1)):
		}
	}

	if !last.Success && last.Error != nil {
		last.Error = fmt.Errorf("task failed after %d attempts: %w",
			p.config.MaxRetries+1, last.Error)
	}
	return last
}

func (p *Pool) report(workerID int, result *Result) {
	if result.Success {
		atomic.AddInt64(&p.tasksCompleted, 1)
	} else {
		atomic.AddInt64(&p.tasksFailed, 1)
		p.logger.Error("task failed",
			zap.String("task_id", result.TaskID),
			zap.Int("worker_id", workerID),
			zap.Error(result.Error))
	}

	// Completion delivery is best-effort; counters stay accurate even
	// when no one reads the stream.
	select {
	case p.results <- result:
	default:
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	TasksSubmitted int64
	TasksCompleted int64
	TasksFailed    int64
	TasksRetried   int64
	ActiveWorkers  int64
	QueueDepth     int64
	QueueCapacity  int
	Workers        int
}

// Stats returns the current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		TasksSubmitted: atomic.LoadInt64(&p.tasksSubmitted),
		TasksCompleted: atomic.LoadInt64(&p.tasksCompleted),
		TasksFailed:    atomic.LoadInt64(&p.tasksFailed),
		TasksRetried:   atomic.LoadInt64(&p.tasksRetried),
		ActiveWorkers:  atomic.LoadInt64(&p.activeWorkers),
		QueueDepth:     atomic.LoadInt64(&p.queueDepth),
		QueueCapacity:  p.config.QueueSize,
		Workers:        p.config.Workers,
	}
}
