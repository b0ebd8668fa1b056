package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnumerator struct {
	printers []Printer
	err      error
}

func (f *fakeEnumerator) EnumeratePrinters(ctx context.Context) ([]Printer, error) {
	return f.printers, f.err
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []string
	// failFor maps a printer name (or "" for the default) to an error.
	failFor map[string]error
}

func (f *fakeSubmitter) SubmitDocument(ctx context.Context, doc Document, printerName string, opts PrintOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, printerName)
	f.mu.Unlock()
	if f.failFor == nil {
		return nil
	}
	return f.failFor[printerName]
}

func boolPtr(b bool) *bool { return &b }

func newTestExecutor(enum *fakeEnumerator, sub *fakeSubmitter, fallback bool) (*Executor, *Tracker) {
	tracker := NewTracker(nil, nil)
	return NewExecutor(enum, sub, tracker, fallback), tracker
}

func TestExecuteSuccess(t *testing.T) {
	enum := &fakeEnumerator{printers: []Printer{{Name: "Zebra ZT230"}}}
	sub := &fakeSubmitter{}
	ex, tracker := newTestExecutor(enum, sub, true)

	tracker.Begin("req-1", "zebra", JobKindCPCL)
	result, err := ex.Execute(context.Background(), "req-1", Document{Format: FormatCPCL, Payload: []byte("! 0")}, PrintOptions{Printer: "zebra"})
	require.NoError(t, err)

	assert.Equal(t, "Zebra ZT230", result.Printer)
	assert.False(t, result.Fallback)
	assert.Equal(t, []string{"Zebra ZT230"}, sub.calls)

	job, _ := tracker.Get("req-1")
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestExecuteFallsBackToDefaultOnce(t *testing.T) {
	enum := &fakeEnumerator{printers: []Printer{{Name: "Zebra ZT230"}}}
	sub := &fakeSubmitter{failFor: map[string]error{"Zebra ZT230": errors.New("jam")}}
	ex, tracker := newTestExecutor(enum, sub, true)

	tracker.Begin("req-1", "zebra", JobKindZPL)
	result, err := ex.Execute(context.Background(), "req-1", Document{Format: FormatZPL, Payload: []byte("^XA")}, PrintOptions{Printer: "zebra"})
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	assert.Equal(t, []string{"Zebra ZT230", ""}, sub.calls)

	job, _ := tracker.Get("req-1")
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestExecuteFallbackDisabled(t *testing.T) {
	enum := &fakeEnumerator{printers: []Printer{{Name: "Zebra ZT230"}}}
	sub := &fakeSubmitter{failFor: map[string]error{"Zebra ZT230": errors.New("jam")}}
	ex, tracker := newTestExecutor(enum, sub, true)

	tracker.Begin("req-1", "zebra", JobKindZPL)
	_, err := ex.Execute(context.Background(), "req-1", Document{Payload: []byte("^XA")}, PrintOptions{
		Printer:           "zebra",
		FallbackToDefault: boolPtr(false),
	})
	require.Error(t, err)

	// No retry: one submission only.
	assert.Equal(t, []string{"Zebra ZT230"}, sub.calls)

	job, _ := tracker.Get("req-1")
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestExecuteBothAttemptsFail(t *testing.T) {
	enum := &fakeEnumerator{printers: []Printer{{Name: "Zebra ZT230"}}}
	sub := &fakeSubmitter{failFor: map[string]error{
		"Zebra ZT230": errors.New("jam"),
		"":            errors.New("default offline"),
	}}
	ex, tracker := newTestExecutor(enum, sub, true)

	tracker.Begin("req-1", "zebra", JobKindZPL)
	_, err := ex.Execute(context.Background(), "req-1", Document{Payload: []byte("^XA")}, PrintOptions{Printer: "zebra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default printer also failed")

	assert.Equal(t, []string{"Zebra ZT230", ""}, sub.calls)

	job, _ := tracker.Get("req-1")
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestExecuteNoFallbackForDefaultTarget(t *testing.T) {
	enum := &fakeEnumerator{}
	sub := &fakeSubmitter{failFor: map[string]error{"": errors.New("offline")}}
	ex, tracker := newTestExecutor(enum, sub, true)

	tracker.Begin("req-1", "", JobKindPDF)
	_, err := ex.Execute(context.Background(), "req-1", Document{Path: "/tmp/x.pdf"}, PrintOptions{})
	require.Error(t, err)

	// The default printer already failed; retrying it would be pointless.
	assert.Equal(t, []string{""}, sub.calls)
}

func TestExecuteUnmatchedPrinterUsesDefault(t *testing.T) {
	enum := &fakeEnumerator{printers: []Printer{{Name: "HP LaserJet"}}}
	sub := &fakeSubmitter{}
	ex, tracker := newTestExecutor(enum, sub, true)

	tracker.Begin("req-1", "Canon", JobKindPDF)
	result, err := ex.Execute(context.Background(), "req-1", Document{Path: "/tmp/x.pdf"}, PrintOptions{Printer: "Canon"})
	require.NoError(t, err)

	assert.Equal(t, "default", result.Printer)
	assert.Equal(t, []string{""}, sub.calls)
}

func TestExecuteRejectsEmptyDocument(t *testing.T) {
	ex, tracker := newTestExecutor(&fakeEnumerator{}, &fakeSubmitter{}, true)

	tracker.Begin("req-1", "", JobKindPDF)
	_, err := ex.Execute(context.Background(), "req-1", Document{}, PrintOptions{})
	assert.ErrorIs(t, err, ErrNoDocument)

	job, _ := tracker.Get("req-1")
	assert.Equal(t, JobStatusFailed, job.Status)
}
