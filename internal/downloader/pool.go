package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"threadscli/pkg/logger"
	"threadscli/pkg/metadata"
	"threadscli/pkg/models"
	"threadscli/pkg/ratelimit"
)

// Job is a single media file to download
type Job struct {
	URL string
	// Name is the file name inside the output directory
	Name  string
	Post  *models.Post
	Media models.Media
}

// Result represents the result of a download job
type Result struct {
	Job      Job
	Skipped  bool
	Err      error
	Duration time.Duration
	Size     int64
}

// Fetcher opens a media URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Storage persists downloaded files
type Storage interface {
	IsSaved(name string) bool
	Save(r io.Reader, name string) (int64, error)
	Path(name string) string
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	fetcher     Fetcher
	storage     Storage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger

	// WriteMetadata saves a JSON sidecar next to every downloaded file
	WriteMetadata bool
	// OnResult is called by Run for every finished job, from a single goroutine
	OnResult func(Result)
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(numWorkers int, fetcher Fetcher, storage Storage, rateLimiter ratelimit.Limiter, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		fetcher:     fetcher,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers. They stop when ctx is cancelled or after Stop.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the queue, waits for queued jobs to finish and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// Submit adds a job to the queue
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := ctx.Err(); err != nil {
			// drain so Stop does not block on a full queue
			result = Result{Job: job, Err: err}
		} else {
			result = wp.processJob(ctx, job, id)
		}
		wp.resultQueue <- result
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(ctx context.Context, job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	fields := map[string]interface{}{
		"worker_id": workerID,
		"file":      job.Name,
	}

	if wp.storage.IsSaved(job.Name) {
		wp.logger.DebugWithFields("media already downloaded", fields)
		result.Skipped = true
		wp.ensureSidecar(job, 0)
		result.Duration = time.Since(start)
		return result
	}

	if err := wp.rateLimiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}

	body, err := wp.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		result.Err = fmt.Errorf("download %s: %w", job.Name, err)
		result.Duration = time.Since(start)
		fields["error"] = err.Error()
		wp.logger.WarnWithFields("media download failed", fields)
		return result
	}
	defer body.Close()

	size, err := wp.storage.Save(body, job.Name)
	result.Size = size
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = fmt.Errorf("save %s: %w", job.Name, err)
		fields["error"] = err.Error()
		wp.logger.WarnWithFields("failed to save media", fields)
		return result
	}

	wp.ensureSidecar(job, size)
	fields["size"] = size
	fields["duration"] = result.Duration
	wp.logger.DebugWithFields("media downloaded", fields)
	return result
}

// ensureSidecar writes the metadata file unless one already exists. Sidecar
// failures are logged, the media file itself is what counts.
func (wp *WorkerPool) ensureSidecar(job Job, size int64) {
	if !wp.WriteMetadata || job.Post == nil {
		return
	}
	path := wp.storage.Path(job.Name)
	if metadata.Exists(path) {
		return
	}
	if err := metadata.FromPost(job.Post, job.Media, job.URL, size).Save(path); err != nil {
		wp.logger.WithError(err).Warn("failed to write metadata sidecar")
	}
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// Summary totals the results of a Run
type Summary struct {
	Saved   int
	Skipped int
	Failed  int
	Bytes   int64
	Errors  []error
}

// Run downloads every job with the pool and returns the totals. The pool
// must not have been started.
func Run(ctx context.Context, wp *WorkerPool, jobs []Job) Summary {
	wp.Start(ctx)
	go func() {
		defer wp.Stop()
		for _, job := range jobs {
			if err := wp.Submit(ctx, job); err != nil {
				return
			}
		}
	}()

	var sum Summary
	for res := range wp.Results() {
		if wp.OnResult != nil {
			wp.OnResult(res)
		}
		switch {
		case res.Err != nil:
			sum.Failed++
			sum.Errors = append(sum.Errors, res.Err)
		case res.Skipped:
			sum.Skipped++
		default:
			sum.Saved++
			sum.Bytes += res.Size
		}
	}
	if submitted := sum.Saved + sum.Skipped + sum.Failed; submitted < len(jobs) && ctx.Err() != nil {
		sum.Failed += len(jobs) - submitted
		sum.Errors = append(sum.Errors, ctx.Err())
	}
	return sum
}
