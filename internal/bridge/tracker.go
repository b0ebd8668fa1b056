package bridge

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// JobStore persists job records. Implementations must tolerate being
// called from multiple goroutines.
type JobStore interface {
	InsertJob(job *PrintJob) error
	UpdateJobStatus(id string, status JobStatus, errMsg string, completedAt *time.Time) error
}

// Tracker owns every PrintJob the daemon has accepted this process
// lifetime and enforces the status machine: pending is the only initial
// state, terminal states (completed/failed/canceled) absorb any late
// events without regressing.
type Tracker struct {
	mu       sync.Mutex
	jobs     map[string]*PrintJob
	store    JobStore
	observer JobObserver
}

func NewTracker(store JobStore, observer JobObserver) *Tracker {
	return &Tracker{
		jobs:     make(map[string]*PrintJob),
		store:    store,
		observer: observer,
	}
}

// Begin registers a new pending job. Re-registering an id whose job
// already reached a terminal state is ignored so duplicate late requests
// cannot resurrect finished jobs.
func (t *Tracker) Begin(id, printer string, kind JobKind) *PrintJob {
	t.mu.Lock()
	if existing, ok := t.jobs[id]; ok && existing.Status.Terminal() {
		t.mu.Unlock()
		return existing
	}

	job := &PrintJob{
		ID:        id,
		Printer:   printer,
		Kind:      kind,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
	t.jobs[id] = job
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.InsertJob(job); err != nil {
			log.Warn().Err(err).Str("job", id).Msg("failed to persist job record")
		}
	}

	t.notify(id, JobStatusPending, "")
	return job
}

// Transition moves a job to a terminal state. It returns false when the
// job is unknown or already terminal; terminal statuses never change.
func (t *Tracker) Transition(id string, status JobStatus, details string) bool {
	if !status.Terminal() {
		return false
	}

	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok || job.Status.Terminal() {
		t.mu.Unlock()
		return false
	}
	now := time.Now()
	job.Status = status
	job.Error = ""
	if status != JobStatusCompleted {
		job.Error = details
	}
	job.CompletedAt = &now
	errMsg := job.Error
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.UpdateJobStatus(id, status, errMsg, &now); err != nil {
			log.Warn().Err(err).Str("job", id).Msg("failed to persist job status")
		}
	}

	t.notify(id, status, details)
	return true
}

func (t *Tracker) Get(id string) (*PrintJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	return job, ok
}

func (t *Tracker) notify(id string, status JobStatus, details string) {
	if t.observer == nil {
		return
	}
	t.observer.NotifyJobEvent(id, status, details)
}
