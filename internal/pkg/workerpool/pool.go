package workerpool

import (
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolClosed = errors.New("worker pool is closed")
)

// TaskResult holds the outcome of a submitted task
type TaskResult struct {
	Data  interface{}
	Error error
}

// Config defines the worker pool configuration
type Config struct {
	Workers   int // number of workers
	QueueSize int // task queue buffer size
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:   8,
		QueueSize: 256,
	}
}

// Pool wraps an ants goroutine pool
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// New creates a worker pool
func New(config *Config, logger *zap.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}

	antsPool, err := ants.NewPool(config.Workers,
		ants.WithMaxBlockingTasks(config.QueueSize),
	)
	if err != nil {
		return nil, err
	}

	return &Pool{
		pool:   antsPool,
		logger: logger,
	}, nil
}

// Submit submits a task for execution
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	return p.pool.Submit(task)
}

// SubmitWithResult submits a task and returns a channel for its result
func (p *Pool) SubmitWithResult(task func() (interface{}, error)) <-chan TaskResult {
	resultCh := make(chan TaskResult, 1)

	err := p.Submit(func() {
		data, err := task()
		resultCh <- TaskResult{Data: data, Error: err}
	})
	if err != nil {
		resultCh <- TaskResult{Error: err}
	}

	return resultCh
}

// Running returns the number of currently running workers
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Close shuts the pool down and waits for running tasks
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.pool.Release()

	if p.logger != nil {
		p.logger.Info("worker pool closed")
	}
}
