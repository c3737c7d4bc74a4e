// Package queue serializes video processing through a single worker with
// bounded capacity, dedup by delivery id and file name, and a mandatory
// cooldown between consecutive jobs. Inbound deliveries are at-least-once
// and possibly duplicated; the queue turns them into at-most-once work.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/metrics"
)

// Job describes one video to process.
type Job struct {
	Bucket      string
	FileName    string
	DriveFileID string
	DeliveryID  string
}

// ProcessFunc runs the full pipeline for one job and returns the response
// payload delivered to the original caller.
type ProcessFunc func(ctx context.Context, job Job) (json.RawMessage, error)

// Admission is the outcome of an enqueue attempt.
type Admission int

const (
	Admitted Admission = iota
	DuplicateDelivery
	AlreadyProcessed
	PreviouslyFailed
	NotVideo
	QueueFull
	AlreadyQueued
)

func (a Admission) String() string {
	switch a {
	case Admitted:
		return "admitted"
	case DuplicateDelivery:
		return "duplicate delivery"
	case AlreadyProcessed:
		return "already processed"
	case PreviouslyFailed:
		return "previously failed"
	case NotVideo:
		return "not a video"
	case QueueFull:
		return "queue full"
	case AlreadyQueued:
		return "already queued"
	default:
		return "unknown"
	}
}

// ErrShutdown resolves any futures still waiting when the queue stops.
var ErrShutdown = errors.New("queue shut down")

// videoExtensions is the recognized set; anything else is acknowledged
// without processing.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

func IsVideoFile(fileName string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// Result is the terminal outcome of one job.
type Result struct {
	Payload json.RawMessage
	Err     error
}

// Future resolves exactly once when its job reaches a terminal state.
type Future struct {
	once sync.Once
	ch   chan Result
}

func newFuture() *Future {
	return &Future{ch: make(chan Result, 1)}
}

func (f *Future) complete(r Result) {
	f.once.Do(func() { f.ch <- r })
}

// Wait blocks until the job completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-f.ch:
		return r, nil
	}
}

type pending struct {
	job    Job
	future *Future
}

// Options configures a Queue. Zero-value fields fall back to production
// defaults.
type Options struct {
	Capacity int
	Cooldown time.Duration

	// Injected dedup sets; nil fields get bounded in-memory sets.
	Processed      MembershipSet
	Failed         MembershipSet
	SeenDeliveries MembershipSet

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Queue is the single-flight processing queue.
type Queue struct {
	mu           sync.Mutex
	waiting      []*pending
	waitingNames map[string]struct{}
	running      bool
	lastFinish   time.Time

	processed      MembershipSet
	failed         MembershipSet
	seenDeliveries MembershipSet

	capacity int
	cooldown time.Duration
	process  ProcessFunc
	metrics  *metrics.Metrics
	logger   *slog.Logger

	wake chan struct{}
}

func New(process ProcessFunc, opts Options) *Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 10
	}
	if opts.Processed == nil {
		opts.Processed = NewBoundedSet(0)
	}
	if opts.Failed == nil {
		opts.Failed = NewBoundedSet(0)
	}
	if opts.SeenDeliveries == nil {
		opts.SeenDeliveries = NewBoundedSet(0)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Queue{
		waitingNames:   make(map[string]struct{}),
		processed:      opts.Processed,
		failed:         opts.Failed,
		seenDeliveries: opts.SeenDeliveries,
		capacity:       capacity,
		cooldown:       opts.Cooldown,
		process:        process,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		wake:           make(chan struct{}, 1),
	}
}

// Enqueue applies the admission guards in order and either queues the job,
// returning a future for its terminal result, or short-circuits with the
// matching admission outcome and a nil future.
//
// The delivery id is marked seen at enqueue time, before the job runs, so a
// redelivered duplicate cannot race in while the first copy is still queued.
// Ids are only marked for admitted jobs: a capacity rejection must stay
// eligible for redelivery.
func (q *Queue) Enqueue(job Job) (*Future, Admission) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job.DeliveryID != "" && q.seenDeliveries.Contains(job.DeliveryID) {
		return nil, DuplicateDelivery
	}
	if q.processed.Contains(job.FileName) {
		return nil, AlreadyProcessed
	}
	if q.failed.Contains(job.FileName) {
		return nil, PreviouslyFailed
	}
	if !IsVideoFile(job.FileName) {
		return nil, NotVideo
	}
	if len(q.waiting) >= q.capacity {
		return nil, QueueFull
	}
	if _, ok := q.waitingNames[job.FileName]; ok {
		return nil, AlreadyQueued
	}

	if job.DeliveryID != "" {
		q.seenDeliveries.Add(job.DeliveryID)
	}

	p := &pending{job: job, future: newFuture()}
	q.waiting = append(q.waiting, p)
	q.waitingNames[job.FileName] = struct{}{}
	q.metrics.QueueLength.Set(float64(len(q.waiting)))

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return p.future, Admitted
}

// Length returns the number of jobs in the wait list, excluding a running
// job.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// IsRunning reports whether a job is currently executing.
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// ProcessedFiles returns file names with a successful terminal outcome.
func (q *Queue) ProcessedFiles() []string { return q.processed.Values() }

// FailedFiles returns file names with a failed terminal outcome.
func (q *Queue) FailedFiles() []string { return q.failed.Values() }

// SeenDeliveryIDs returns the delivery ids observed so far.
func (q *Queue) SeenDeliveryIDs() []string { return q.seenDeliveries.Values() }

// Start runs the worker loop until ctx is done. Jobs are dequeued in FIFO
// order; each dequeue waits out the cooldown measured from the previous
// job's completion. On shutdown, waiting futures resolve with ErrShutdown.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("queue worker started", "capacity", q.capacity, "cooldown", q.cooldown)

	for {
		select {
		case <-ctx.Done():
			q.drain()
			return
		case <-q.wake:
		}

		for {
			select {
			case <-ctx.Done():
				q.drain()
				return
			default:
			}

			p := q.dequeue()
			if p == nil {
				break
			}
			if !q.waitCooldown(ctx) {
				p.future.complete(Result{Err: ErrShutdown})
				q.drain()
				return
			}
			q.run(ctx, p)
		}
	}
}

// dequeue pops the head of the wait list, or nil when empty. The file name
// stays in waitingNames until the job reaches a terminal state so a
// redelivery during execution still short-circuits.
func (q *Queue) dequeue() *pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.waiting) == 0 {
		return nil
	}
	p := q.waiting[0]
	q.waiting = q.waiting[1:]
	q.metrics.QueueLength.Set(float64(len(q.waiting)))
	return p
}

// waitCooldown sleeps until the cooldown since the previous job's completion
// has elapsed. Returns false if ctx expired while waiting.
func (q *Queue) waitCooldown(ctx context.Context) bool {
	q.mu.Lock()
	last := q.lastFinish
	q.mu.Unlock()

	if last.IsZero() {
		return true
	}
	remaining := q.cooldown - time.Since(last)
	if remaining <= 0 {
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(remaining):
		return true
	}
}

func (q *Queue) run(ctx context.Context, p *pending) {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()

	q.logger.Info("job started", "file", p.job.FileName, "delivery_id", p.job.DeliveryID)
	start := time.Now()

	payload, err := q.process(ctx, p.job)

	q.mu.Lock()
	q.running = false
	q.lastFinish = time.Now()
	delete(q.waitingNames, p.job.FileName)
	q.mu.Unlock()

	if err != nil {
		q.failed.Add(p.job.FileName)
		q.metrics.Jobs.WithLabelValues("failed").Inc()
		q.logger.Error("job failed", "file", p.job.FileName, "duration", time.Since(start), "error", err)
		p.future.complete(Result{Err: err})
		return
	}

	q.processed.Add(p.job.FileName)
	q.metrics.Jobs.WithLabelValues("completed").Inc()
	q.logger.Info("job completed", "file", p.job.FileName, "duration", time.Since(start))
	p.future.complete(Result{Payload: payload})
}

func (q *Queue) drain() {
	q.mu.Lock()
	waiting := q.waiting
	q.waiting = nil
	q.waitingNames = make(map[string]struct{})
	q.metrics.QueueLength.Set(0)
	q.mu.Unlock()

	for _, p := range waiting {
		p.future.complete(Result{Err: ErrShutdown})
	}
	q.logger.Info("queue worker stopped", "drained", len(waiting))
}
