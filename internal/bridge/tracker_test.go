package bridge

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) NotifyJobEvent(jobID string, status JobStatus, details string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, jobID+":"+string(status))
}

func (o *recordingObserver) all() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

type fakeStore struct {
	mu      sync.Mutex
	inserts int
	updates int
	fail    bool
}

func (s *fakeStore) InsertJob(job *PrintJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.fail {
		return assert.AnError
	}
	return nil
}

func (s *fakeStore) UpdateJobStatus(id string, status JobStatus, errMsg string, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.fail {
		return assert.AnError
	}
	return nil
}

func TestTrackerLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	tr := NewTracker(nil, obs)

	job := tr.Begin("req-1", "Zebra", JobKindCPCL)
	require.NotNil(t, job)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	ok := tr.Transition("req-1", JobStatusCompleted, "done")
	assert.True(t, ok)

	got, found := tr.Get("req-1")
	require.True(t, found)
	assert.Equal(t, JobStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	assert.Equal(t, []string{"req-1:pending", "req-1:completed"}, obs.all())
}

func TestTrackerTerminalStatesAbsorbLateEvents(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.Begin("req-1", "", JobKindPDF)

	require.True(t, tr.Transition("req-1", JobStatusFailed, "printer offline"))

	// Late events must not regress or flip the terminal state.
	assert.False(t, tr.Transition("req-1", JobStatusCompleted, ""))
	assert.False(t, tr.Transition("req-1", JobStatusCanceled, ""))

	got, _ := tr.Get("req-1")
	assert.Equal(t, JobStatusFailed, got.Status)
	assert.Equal(t, "printer offline", got.Error)
}

func TestTrackerRejectsNonTerminalTransition(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.Begin("req-1", "", JobKindPDF)

	assert.False(t, tr.Transition("req-1", JobStatusPending, ""))
	got, _ := tr.Get("req-1")
	assert.Equal(t, JobStatusPending, got.Status)
}

func TestTrackerUnknownJob(t *testing.T) {
	tr := NewTracker(nil, nil)
	assert.False(t, tr.Transition("ghost", JobStatusCompleted, ""))
}

func TestTrackerBeginIgnoresTerminalReRegister(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.Begin("req-1", "A", JobKindPDF)
	tr.Transition("req-1", JobStatusCompleted, "")

	job := tr.Begin("req-1", "B", JobKindZPL)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, "A", job.Printer)
}

func TestTrackerStoreFailureDoesNotBlockJob(t *testing.T) {
	store := &fakeStore{fail: true}
	tr := NewTracker(store, nil)

	tr.Begin("req-1", "", JobKindImage)
	assert.True(t, tr.Transition("req-1", JobStatusCompleted, ""))

	got, found := tr.Get("req-1")
	require.True(t, found)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 1, store.updates)
}
