package queue

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// JobProcessor executes one claimed job.
type JobProcessor interface {
	Process(ctx context.Context, job *models.EnrichmentJob) error
}

// Worker repeatedly claims and runs enrichment jobs. Claiming is
// atomic at the database layer, so any number of workers across any
// number of processes can run concurrently.
type Worker struct {
	queue     *Queue
	processor JobProcessor
	interval  time.Duration
	count     int
	logger    *logger.Logger

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewWorker creates a worker group. count is the number of concurrent
// claim loops; interval is the poll period when no wake-up signal is
// pending.
func NewWorker(q *Queue, processor JobProcessor, count int, interval time.Duration, log *logger.Logger) *Worker {
	if count <= 0 {
		count = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{
		queue:     q,
		processor: processor,
		interval:  interval,
		count:     count,
		logger:    log,
		stop:      make(chan struct{}),
	}
}

// Start launches the claim loops.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop signals the loops to exit and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()

	log := w.logger.With(zap.Int("worker", id))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
		}

		// Drain any backlog before sleeping again.
		for {
			processed, err := w.ProcessOne(ctx)
			if err != nil {
				log.Error("job processing error", zap.Error(err))
				break
			}
			if !processed {
				break
			}
		}
	}
}

// ProcessOne claims and executes at most one pending job. Returns false
// when no pending job exists. A processor error is recorded on the job
// and not returned; only claim/bookkeeping failures surface as errors.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	w.queue.DrainSignal(ctx)

	job, err := w.queue.Claim(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", job.JobType),
		zap.String("version_id", job.VersionID.String()),
	)
	log.Info("processing enrichment job")

	if err := w.processor.Process(ctx, job); err != nil {
		log.Warn("enrichment job failed", zap.Error(err))
		if failErr := w.queue.Fail(ctx, job.ID, err.Error()); failErr != nil {
			return true, failErr
		}
		return true, nil
	}

	if err := w.queue.Complete(ctx, job.ID); err != nil {
		return true, err
	}

	log.Info("enrichment job completed")
	return true, nil
}
