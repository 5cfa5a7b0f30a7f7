// Package queue holds print jobs between submission by the ordering platform
// and pull delivery to CloudPRNT printers. The queue is the source of truth
// for job state; persistence is an audit trail layered on top.
package queue

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/printer"
	"print-service/internal/registry"
)

// ErrJobNotFound means the job token matches no queued job
var ErrJobNotFound = errors.New("print job not found")

// ErrRenderFailure wraps formatter errors; the job stays Pending
var ErrRenderFailure = errors.New("receipt render failure")

// shardCount spreads per-printer FIFOs over independent locks
const shardCount = 16

// Event names published on job lifecycle changes
const (
	EventJobQueued    = "job_queued"
	EventJobPrinting  = "job_printing"
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
	EventJobSwept     = "job_swept"
)

// EventFunc receives job lifecycle notifications. Calls are synchronous;
// handlers must not block.
type EventFunc func(event string, job *model.PrintJob)

// Config tunes the queue's housekeeping windows
type Config struct {
	// ConfirmGrace keeps confirmed jobs queryable before removal
	ConfirmGrace time.Duration
	// StaleAfter is the age at which unconfirmed jobs get reclaimed
	StaleAfter time.Duration
}

// DefaultConfig mirrors the production windows
func DefaultConfig() Config {
	return Config{
		ConfirmGrace: time.Minute,
		StaleAfter:   time.Hour,
	}
}

// job wraps the public model with the render-once state. The job mutex
// covers state transitions and the cached bytes; the queue's map lock is
// never held across a render.
type job struct {
	mu       sync.Mutex
	data     model.PrintJob
	rendered []byte
}

type shard struct {
	mu      sync.Mutex
	pending map[string][]string // printer id -> job ids, FIFO
}

// Queue is a thread-safe in-memory print job queue
type Queue struct {
	registry   *registry.Registry
	formatters map[model.CommandFamily]printer.Formatter
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.RWMutex
	jobs   map[string]*job
	shards [shardCount]shard

	eventMu sync.RWMutex
	onEvent EventFunc
}

// NewQueue creates an empty queue backed by the given registry and formatters
func NewQueue(reg *registry.Registry, formatters map[model.CommandFamily]printer.Formatter, cfg Config, logger *zap.Logger) *Queue {
	q := &Queue{
		registry:   reg,
		formatters: formatters,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		jobs:       make(map[string]*job),
	}
	for i := range q.shards {
		q.shards[i].pending = make(map[string][]string)
	}
	return q
}

// SetEventHandler registers the lifecycle event callback
func (q *Queue) SetEventHandler(fn EventFunc) {
	q.eventMu.Lock()
	q.onEvent = fn
	q.eventMu.Unlock()
}

func (q *Queue) publish(event string, data model.PrintJob) {
	q.eventMu.RLock()
	fn := q.onEvent
	q.eventMu.RUnlock()
	if fn != nil {
		data.Receipt = nil
		fn(event, &data)
	}
}

func (q *Queue) shardFor(printerID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(printerID))
	return &q.shards[h.Sum32()%shardCount]
}

func newJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("job_%d_%s", now.UnixMilli(), suffix)
}

// Enqueue queues a receipt for the printer and returns the job token
func (q *Queue) Enqueue(rawMAC string, family model.CommandFamily, receipt *model.ReceiptModel) (string, error) {
	printerID, err := registry.Normalize(rawMAC)
	if err != nil {
		return "", err
	}
	if !family.IsValid() {
		family = model.FamilyStar
	}

	now := q.now()
	j := &job{data: model.PrintJob{
		ID:        newJobID(now),
		PrinterID: printerID,
		Family:    family,
		State:     model.JobStatePending,
		Receipt:   receipt,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	q.mu.Lock()
	q.jobs[j.data.ID] = j
	q.mu.Unlock()

	s := q.shardFor(printerID)
	s.mu.Lock()
	s.pending[printerID] = append(s.pending[printerID], j.data.ID)
	s.mu.Unlock()

	q.logger.Info("Print job queued",
		zap.String("job_id", j.data.ID),
		zap.String("printer_id", printerID),
		zap.String("family", string(family)))
	q.publish(EventJobQueued, j.data)
	return j.data.ID, nil
}

// Poll registers the polling printer and reports its head pending job, if
// any. Polling never mutates job state, so a printer can poll any number of
// times before fetching.
func (q *Queue) Poll(rawMAC string, info model.PrinterInfo) (*model.PollResponse, error) {
	printerID, err := q.registry.Upsert(rawMAC, info)
	if err != nil {
		return nil, err
	}

	j := q.headPending(printerID)
	if j == nil {
		return &model.PollResponse{JobReady: false}, nil
	}
	return &model.PollResponse{
		JobReady:     true,
		MediaTypes:   model.MediaTypesFor(j.data.Family),
		JobToken:     j.data.ID,
		DeleteMethod: "DELETE",
	}, nil
}

// headPending returns the oldest Pending job for the printer, pruning ids
// whose jobs were removed or already moved on.
func (q *Queue) headPending(printerID string) *job {
	s := q.shardFor(printerID)
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.pending[printerID]
	for len(ids) > 0 {
		q.mu.RLock()
		j := q.jobs[ids[0]]
		q.mu.RUnlock()
		if j != nil && j.state() == model.JobStatePending {
			s.pending[printerID] = ids
			return j
		}
		ids = ids[1:]
	}
	if len(ids) == 0 {
		delete(s.pending, printerID)
	}
	return nil
}

func (j *job) state() model.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.data.State
}

// FetchBytes renders and returns the job's printer bytes along with the
// negotiated content type. The first fetch moves the job to Printing and
// renders exactly once; later fetches re-serve the cached bytes, including
// duplicate GETs racing a confirmation. A failed render leaves the job
// Pending for the next poll cycle.
func (q *Queue) FetchBytes(jobID string, accepted []string) ([]byte, string, error) {
	q.mu.RLock()
	j := q.jobs[jobID]
	q.mu.RUnlock()
	if j == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.rendered == nil {
		f := q.formatters[j.data.Family]
		if f == nil {
			return nil, "", fmt.Errorf("%w: no formatter for family %q", ErrRenderFailure, j.data.Family)
		}
		out, err := f.Render(j.data.Receipt)
		if err != nil {
			q.logger.Error("Receipt render failed",
				zap.String("job_id", jobID),
				zap.Error(err))
			return nil, "", fmt.Errorf("%w: %v", ErrRenderFailure, err)
		}
		j.rendered = out
	}

	if j.data.State == model.JobStatePending {
		j.data.State = model.JobStatePrinting
		j.data.UpdatedAt = q.now()
		q.publish(EventJobPrinting, j.data)
	}
	return j.rendered, negotiateContentType(j.data.Family, accepted), nil
}

// negotiateContentType picks the delivery media type. StarPRNT is served
// only to Star family jobs when the printer accepts it; everything else
// falls back to the line mode type.
func negotiateContentType(family model.CommandFamily, accepted []string) string {
	if family == model.FamilyStar {
		for _, a := range accepted {
			if strings.Contains(a, model.MediaStarPRNT) {
				return model.MediaStarPRNT
			}
		}
	}
	return model.MediaStarLine
}

// Confirm records the printer's delivery result. Success completes the job,
// anything else fails it. The job stays queryable for the grace period and
// is then removed. Unknown tokens are ignored; printers retry DELETE freely.
func (q *Queue) Confirm(jobID string, success bool) {
	q.mu.RLock()
	j := q.jobs[jobID]
	q.mu.RUnlock()
	if j == nil {
		return
	}

	j.mu.Lock()
	if j.data.State.IsTerminal() {
		j.mu.Unlock()
		return
	}
	if success {
		j.data.State = model.JobStateCompleted
	} else {
		j.data.State = model.JobStateFailed
	}
	j.data.UpdatedAt = q.now()
	data := j.data
	j.mu.Unlock()

	q.logger.Info("Print job confirmed",
		zap.String("job_id", jobID),
		zap.String("state", string(data.State)))
	if data.State == model.JobStateCompleted {
		q.publish(EventJobCompleted, data)
	} else {
		q.publish(EventJobFailed, data)
	}

	time.AfterFunc(q.cfg.ConfirmGrace, func() {
		q.remove(jobID)
	})
}

func (q *Queue) remove(jobID string) {
	q.mu.Lock()
	delete(q.jobs, jobID)
	q.mu.Unlock()
}

// Sweep reclaims finished and abandoned work: terminal jobs whose grace
// removal was lost, and Printing jobs older than the stale window, meaning
// the printer fetched but never confirmed. Returns the number removed.
func (q *Queue) Sweep(now time.Time) int {
	q.mu.RLock()
	candidates := make([]*job, 0, len(q.jobs))
	for _, j := range q.jobs {
		candidates = append(candidates, j)
	}
	q.mu.RUnlock()

	removed := 0
	cutoff := now.Add(-q.cfg.StaleAfter)
	for _, j := range candidates {
		j.mu.Lock()
		old := j.data.CreatedAt.Before(cutoff)
		stale := old && (j.data.State.IsTerminal() || j.data.State == model.JobStatePrinting)
		data := j.data
		j.mu.Unlock()

		if !stale {
			continue
		}
		q.remove(data.ID)
		removed++
		q.logger.Warn("Swept abandoned print job",
			zap.String("job_id", data.ID),
			zap.String("printer_id", data.PrinterID),
			zap.String("state", string(data.State)))
		q.publish(EventJobSwept, data)
	}
	return removed
}

// Get returns a copy of the job's public state
func (q *Queue) Get(jobID string) (*model.PrintJob, bool) {
	q.mu.RLock()
	j := q.jobs[jobID]
	q.mu.RUnlock()
	if j == nil {
		return nil, false
	}
	j.mu.Lock()
	data := j.data
	j.mu.Unlock()
	data.Receipt = nil
	return &data, true
}

// PendingCount reports queued jobs for one printer
func (q *Queue) PendingCount(printerID string) int {
	count := 0
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, j := range q.jobs {
		if j.data.PrinterID == printerID && j.state() == model.JobStatePending {
			count++
		}
	}
	return count
}

// Stats summarizes the queue by job state
func (q *Queue) Stats() model.QueueStats {
	q.mu.RLock()
	jobs := make([]*job, 0, len(q.jobs))
	for _, j := range q.jobs {
		jobs = append(jobs, j)
	}
	q.mu.RUnlock()

	var s model.QueueStats
	for _, j := range jobs {
		switch j.state() {
		case model.JobStatePending:
			s.Pending++
		case model.JobStatePrinting:
			s.Printing++
		case model.JobStateCompleted:
			s.Completed++
		case model.JobStateFailed:
			s.Failed++
		}
		s.Total++
	}
	return s
}
