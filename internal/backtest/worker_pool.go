package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alejom99/cycletrader/internal/logger"
	"github.com/alejom99/cycletrader/pkg/data"
)

// WorkerPool runs backtests in parallel. Every job gets its own Runner so
// the runs stay fully isolated; results for equal configs are identical no
// matter how jobs interleave.
type WorkerPool struct {
	workerCount int
	provider    data.Provider
	sink        CycleSink
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// Job is one backtest task.
type Job struct {
	ID     string
	Config Config
}

// JobResult pairs a finished job with its results or error.
type JobResult struct {
	ID       string
	Results  *Results
	Duration time.Duration
	Error    error
}

// NewWorkerPool creates a pool over a shared candle provider. A worker count
// of zero or below defaults to the number of CPUs.
func NewWorkerPool(workerCount, jobBufferSize int, provider data.Provider) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		provider:    provider,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetCycleSink attaches a shared destination for closed cycles. The sink must
// be safe for concurrent use; the SQLite store serializes its writes.
func (wp *WorkerPool) SetCycleSink(sink CycleSink) {
	wp.sink = sink
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop drains the pool gracefully: no new jobs, workers finish what they
// hold, then the result channel closes.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob queues a backtest job.
func (wp *WorkerPool) SubmitJob(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the channel of completed jobs.
func (wp *WorkerPool) GetResults() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job) JobResult {
	startTime := time.Now()

	runner := NewRunner(wp.provider, logger.NewNop())
	if wp.sink != nil {
		runner.SetCycleSink(wp.sink)
	}
	results, err := runner.Run(wp.ctx, job.Config)

	return JobResult{
		ID:       job.ID,
		Results:  results,
		Duration: time.Since(startTime),
		Error:    err,
	}
}

// RunBatch is the convenience wrapper: it starts the pool, submits every
// config and collects all results in completion order.
func (wp *WorkerPool) RunBatch(configs []Config) []JobResult {
	wp.Start()

	go func() {
		for i, cfg := range configs {
			job := Job{ID: fmt.Sprintf("%s-%s-%d", cfg.Symbol, cfg.StrategyName, i), Config: cfg}
			if err := wp.SubmitJob(job); err != nil {
				break
			}
		}
		wp.Stop()
	}()

	results := make([]JobResult, 0, len(configs))
	for result := range wp.resultQueue {
		results = append(results, result)
	}
	return results
}
