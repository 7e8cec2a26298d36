package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/metadata"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ratelimit"
)

// Job represents a single media download task
type Job struct {
	URL      string
	Dir      string // post output directory name
	Filename string
	PostID   string
	Taken    time.Time // capture date stamped onto the file
}

// Result represents the outcome of a download job
type Result struct {
	Job       Job
	Success   bool
	Skipped   bool // already on disk from an earlier run
	Error     error
	Duration  time.Duration
	Size      int
	LocalPath string
}

// MediaFetcher downloads one media resource
type MediaFetcher interface {
	Download(url string) ([]byte, error)
}

// MediaStorage persists downloaded media
type MediaStorage interface {
	Exists(dir, filename string) bool
	SaveFile(r io.Reader, dir, filename string) (string, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      MediaFetcher
	storage     MediaStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(
	numWorkers int,
	client MediaFetcher,
	storage MediaStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting download workers", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool. Jobs already queued are
// finished first.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
	wp.logger.Debug("download workers stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if wp.storage.Exists(job.Dir, job.Filename) {
		wp.logger.DebugWithFields("media already downloaded", map[string]interface{}{
			"post_id": job.PostID,
			"file":    job.Filename,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if wp.rateLimiter != nil && !wp.rateLimiter.Allow() {
		wp.rateLimiter.Wait()
	}

	data, err := wp.client.Download(job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to download media", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   job.PostID,
			"url":       job.URL,
			"error":     err.Error(),
		})
		return result
	}
	result.Size = len(data)

	path, err := wp.storage.SaveFile(bytes.NewReader(data), job.Dir, job.Filename)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("worker failed to save media", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   job.PostID,
			"file":      job.Filename,
			"error":     err.Error(),
		})
		return result
	}
	result.LocalPath = path

	if !job.Taken.IsZero() {
		if err := metadata.EnsureCapturedDate(path, job.Taken); err != nil {
			// The file itself is fine; only the date stamp is degraded.
			wp.logger.WarnWithFields("could not stamp capture date", map[string]interface{}{
				"file":  job.Filename,
				"error": err.Error(),
			})
		}
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"post_id":   job.PostID,
		"file":      job.Filename,
		"size":      result.Size,
	})
	return result
}

// QueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
