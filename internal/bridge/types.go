package bridge

import (
	"context"
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Terminal reports whether a job status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCanceled
}

type JobKind string

const (
	JobKindPDF         JobKind = "pdf"
	JobKindImage       JobKind = "image"
	JobKindDirectImage JobKind = "direct-image"
	JobKindCPCL        JobKind = "cpcl"
	JobKindZPL         JobKind = "zpl"
	JobKindSave        JobKind = "save"
)

type PrintJob struct {
	ID          string
	Printer     string
	Kind        JobKind
	Status      JobStatus
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Printer is a snapshot of one enumerated system printer. The list is
// rebuilt on every enumeration call and never cached.
type Printer struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"isDefault"`
	Status      string `json:"status"`
}

type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatCPCL DocumentFormat = "cpcl"
	FormatZPL  DocumentFormat = "zpl"
	FormatRaw  DocumentFormat = "raw"
)

// Document is what the executor hands to the platform submitter: either a
// file path (PDF) or an in-memory command/raster payload.
type Document struct {
	Format  DocumentFormat
	Path    string
	Payload []byte
}

// PrintOptions enumerates every option the wire protocol recognizes,
// with its default. Unknown incoming fields are ignored. Width and
// Height are a page size in millimeters for document jobs and a pixel
// geometry for raster label jobs; zero means automatic.
type PrintOptions struct {
	Printer           string  `json:"printer"`
	Silent            *bool   `json:"silent"`
	Copies            int     `json:"copies"`
	Landscape         bool    `json:"landscape"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	X                 int     `json:"x"`
	Y                 int     `json:"y"`
	Invert            bool    `json:"invert"`
	Threshold         int     `json:"threshold"`
	FallbackToDefault *bool   `json:"fallbackToDefault"`
	DefaultPath       string  `json:"defaultPath"`
}

// Normalize fills unset options with their documented defaults and
// discards values no job can use. Width and Height come straight off the
// wire and later feed unsigned resize geometry, so negatives are treated
// as unset.
func (o *PrintOptions) Normalize() {
	if o.Copies <= 0 {
		o.Copies = 1
	}
	if o.Threshold <= 0 || o.Threshold > 255 {
		o.Threshold = 128
	}
	if o.Width < 0 {
		o.Width = 0
	}
	if o.Height < 0 {
		o.Height = 0
	}
}

// IsSilent reports whether the job must avoid any user interaction; it
// defaults to true when the client did not say.
func (o *PrintOptions) IsSilent() bool {
	return o.Silent == nil || *o.Silent
}

// Fallback reports whether default-printer fallback is permitted; it
// defaults to the server-wide setting when the client did not say.
func (o *PrintOptions) Fallback(serverDefault bool) bool {
	if o.FallbackToDefault == nil {
		return serverDefault
	}
	return *o.FallbackToDefault
}

type SubmitResult struct {
	Printer  string
	Message  string
	Fallback bool
}

// JobObserver receives job lifecycle notifications. Calls are
// fire-and-forget: failures must not affect the job itself.
type JobObserver interface {
	NotifyJobEvent(jobID string, status JobStatus, details string)
}

// PrinterEnumerator is supplied by the OS print-subsystem adapter.
type PrinterEnumerator interface {
	EnumeratePrinters(ctx context.Context) ([]Printer, error)
}

// Submitter performs the actual OS print call. Errors are caught by the
// executor and converted into job failures.
type Submitter interface {
	SubmitDocument(ctx context.Context, doc Document, printerName string, opts PrintOptions) error
}

// FileSaver persists a save-to-file request. A desktop shell may implement
// this with an interactive dialog, in which case canceled reports the user
// dismissing it.
type FileSaver interface {
	SavePDF(data []byte, suggestedName string) (path string, canceled bool, err error)
}
