package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var ErrNoDocument = errors.New("no document to print")

// Executor hands finished documents to the platform print subsystem and
// reports exactly one terminal job transition per Execute call.
type Executor struct {
	enumerator      PrinterEnumerator
	submitter       Submitter
	tracker         *Tracker
	fallbackDefault bool
}

func NewExecutor(enumerator PrinterEnumerator, submitter Submitter, tracker *Tracker, fallbackDefault bool) *Executor {
	return &Executor{
		enumerator:      enumerator,
		submitter:       submitter,
		tracker:         tracker,
		fallbackDefault: fallbackDefault,
	}
}

// ResolvePrinter enumerates the system printers and resolves the
// requested name against them. An empty result with a non-empty query
// means the name did not match anything; the caller decides whether that
// is fatal.
func (e *Executor) ResolvePrinter(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", nil
	}
	printers, err := e.enumerator.EnumeratePrinters(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate printers: %w", err)
	}
	return ResolvePrinterName(query, printers), nil
}

// Execute submits the document, retrying once on the system default
// printer when an explicitly-named printer fails and the caller permits
// fallback. The associated job reaches completed or failed exactly once.
func (e *Executor) Execute(ctx context.Context, jobID string, doc Document, opts PrintOptions) (SubmitResult, error) {
	if doc.Path == "" && len(doc.Payload) == 0 {
		err := ErrNoDocument
		e.tracker.Transition(jobID, JobStatusFailed, err.Error())
		return SubmitResult{}, err
	}

	printerName, err := e.ResolvePrinter(ctx, opts.Printer)
	if err != nil {
		log.Warn().Err(err).Str("job", jobID).Msg("printer enumeration failed, submitting to default")
		printerName = ""
	}
	if opts.Printer != "" && printerName == "" {
		log.Info().Str("job", jobID).Str("requested", opts.Printer).Msg("no matching printer, using system default")
	}

	err = e.submitter.SubmitDocument(ctx, doc, printerName, opts)
	if err == nil {
		result := SubmitResult{
			Printer: printerDisplayName(printerName),
			Message: fmt.Sprintf("document sent to printer: %s", printerDisplayName(printerName)),
		}
		e.tracker.Transition(jobID, JobStatusCompleted, result.Message)
		return result, nil
	}

	if printerName != "" && opts.Fallback(e.fallbackDefault) {
		log.Warn().Err(err).Str("job", jobID).Str("printer", printerName).Msg("submission failed, retrying on system default")
		if fallbackErr := e.submitter.SubmitDocument(ctx, doc, "", opts); fallbackErr == nil {
			result := SubmitResult{
				Printer:  printerDisplayName(""),
				Message:  "printed via system default printer",
				Fallback: true,
			}
			e.tracker.Transition(jobID, JobStatusCompleted, result.Message)
			return result, nil
		} else {
			err = fmt.Errorf("print failed, default printer also failed: %w", fallbackErr)
		}
	} else {
		err = fmt.Errorf("print failed: %w", err)
	}

	e.tracker.Transition(jobID, JobStatusFailed, err.Error())
	return SubmitResult{}, err
}

func printerDisplayName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
