package server

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/bridge"
	"github.com/orrn/printbridge/internal/label"
	"github.com/orrn/printbridge/internal/payload"
	"github.com/orrn/printbridge/internal/raster"
)

// TempFiles spools document payloads to disk for the OS print subsystem.
// Remove is best effort.
type TempFiles interface {
	Write(prefix, ext string, data []byte) (string, error)
	Remove(path string)
}

// Handlers binds every protocol action to the print pipeline.
type Handlers struct {
	enumerator bridge.PrinterEnumerator
	executor   *bridge.Executor
	tracker    *bridge.Tracker
	saver      bridge.FileSaver
	temp       TempFiles
}

func NewHandlers(enumerator bridge.PrinterEnumerator, executor *bridge.Executor, tracker *bridge.Tracker, saver bridge.FileSaver, temp TempFiles) *Handlers {
	return &Handlers{
		enumerator: enumerator,
		executor:   executor,
		tracker:    tracker,
		saver:      saver,
		temp:       temp,
	}
}

// Register installs the action table. Action names are matched
// case-sensitively; kebab-case aliases cover older clients.
func (h *Handlers) Register(r *Router) {
	r.Handle(h.GetPrinters, "getPrinters", "get-printers")
	r.Handle(h.PrintPDF, "printPdf", "print-pdf")
	r.Handle(h.PrintImage, "printImage", "print-image")
	r.Handle(h.DirectPrintImage, "directPrintImage", "direct-print-image")
	r.Handle(h.SavePDF, "savePdf", "save-pdf")
	r.Handle(h.PrintCPCL, "printCPCL", "print-cpcl", "printImageWithCPCL", "print-image-with-cpcl")
	r.Handle(h.PrintPngCPCL, "printPngCPCL", "print-png-cpcl")
	r.Handle(h.PrintZPL, "printZPL", "print-zpl", "printImageWithZPL", "print-image-with-zpl")
	r.Handle(h.PrintBase64ZPL, "printBase64WithZPL", "print-base64-with-zpl")
}

// GetPrinters answers with a fresh enumeration of the system printers.
func (h *Handlers) GetPrinters(ctx context.Context, s sender, req *Request, requestID string) {
	printers, err := h.enumerator.EnumeratePrinters(ctx)
	if err != nil {
		log.Error().Err(err).Str("request", requestID).Msg("printer enumeration failed")
		sendEvent(s, ErrorEvent{
			Event:     EventError,
			RequestID: requestID,
			Message:   "failed to enumerate printers: " + err.Error(),
		})
		return
	}

	if printers == nil {
		printers = []bridge.Printer{}
	}
	sendEvent(s, PrinterListEvent{
		Event:     EventPrinterList,
		RequestID: requestID,
		Printers:  printers,
	})
}

// PrintPDF spools the decoded document to a temp file and hands it to
// the executor.
func (h *Handlers) PrintPDF(ctx context.Context, s sender, req *Request, requestID string) {
	opts := req.Options
	opts.Normalize()

	buf, err := payload.DecodePDF(req.Body())
	if err != nil {
		h.failJob(s, requestID, opts.Printer, bridge.JobKindPDF, err)
		return
	}

	path, err := h.temp.Write("print-"+requestID, ".pdf", buf)
	if err != nil {
		h.failJob(s, requestID, opts.Printer, bridge.JobKindPDF, err)
		return
	}
	defer h.temp.Remove(path)

	h.tracker.Begin(requestID, opts.Printer, bridge.JobKindPDF)
	result, err := h.executor.Execute(ctx, requestID, bridge.Document{Format: bridge.FormatPDF, Path: path}, opts)
	h.sendPrintResult(s, requestID, result, err)
}

// PrintImage prints an image through the regular OS driver path.
func (h *Handlers) PrintImage(ctx context.Context, s sender, req *Request, requestID string) {
	h.printImageFile(ctx, s, req, requestID, bridge.JobKindImage)
}

// DirectPrintImage prints an image without any viewer involvement. On a
// headless daemon it shares the driver path with PrintImage but keeps
// its own job kind for history.
func (h *Handlers) DirectPrintImage(ctx context.Context, s sender, req *Request, requestID string) {
	h.printImageFile(ctx, s, req, requestID, bridge.JobKindDirectImage)
}

func (h *Handlers) printImageFile(ctx context.Context, s sender, req *Request, requestID string, kind bridge.JobKind) {
	opts := req.Options
	opts.Normalize()

	buf, err := payload.DecodeImage(req.Body())
	if err != nil {
		h.failJob(s, requestID, opts.Printer, kind, err)
		return
	}

	path, err := h.temp.Write("print-"+requestID, ".png", buf)
	if err != nil {
		h.failJob(s, requestID, opts.Printer, kind, err)
		return
	}
	defer h.temp.Remove(path)

	h.tracker.Begin(requestID, opts.Printer, kind)
	result, err := h.executor.Execute(ctx, requestID, bridge.Document{Format: bridge.FormatRaw, Path: path}, opts)
	h.sendPrintResult(s, requestID, result, err)
}

// SavePDF persists the decoded document through the FileSaver instead of
// printing it.
func (h *Handlers) SavePDF(ctx context.Context, s sender, req *Request, requestID string) {
	opts := req.Options
	opts.Normalize()

	h.tracker.Begin(requestID, "", bridge.JobKindSave)

	buf, err := payload.DecodePDF(req.Body())
	if err != nil {
		h.tracker.Transition(requestID, bridge.JobStatusFailed, err.Error())
		sendEvent(s, SaveResultEvent{
			Event:     EventSaveResult,
			RequestID: requestID,
			Error:     err.Error(),
		})
		return
	}

	suggested := opts.DefaultPath
	if suggested == "" {
		suggested = requestID + ".pdf"
	}

	path, canceled, err := h.saver.SavePDF(buf, filepath.Base(suggested))
	switch {
	case err != nil:
		h.tracker.Transition(requestID, bridge.JobStatusFailed, err.Error())
		sendEvent(s, SaveResultEvent{
			Event:     EventSaveResult,
			RequestID: requestID,
			Error:     "failed to save PDF: " + err.Error(),
		})
	case canceled:
		h.tracker.Transition(requestID, bridge.JobStatusCanceled, "save dialog dismissed")
		sendEvent(s, SaveResultEvent{
			Event:     EventSaveResult,
			RequestID: requestID,
			Canceled:  true,
		})
	default:
		h.tracker.Transition(requestID, bridge.JobStatusCompleted, path)
		sendEvent(s, SaveResultEvent{
			Event:     EventSaveResult,
			RequestID: requestID,
			Success:   true,
			Path:      path,
		})
	}
}

// PrintCPCL rasterizes an image payload and prints it as a CPCL command
// stream.
func (h *Handlers) PrintCPCL(ctx context.Context, s sender, req *Request, requestID string) {
	h.printLabel(ctx, s, req, requestID, bridge.JobKindCPCL, func(bm *raster.Bitmap, x, y int) *label.Command {
		return label.EncodeCPCL(bm, label.CPCLOptions{X: x, Y: y})
	})
}

// PrintPngCPCL is the CPCL path that embeds the bitmap bytes verbatim
// instead of hex text.
func (h *Handlers) PrintPngCPCL(ctx context.Context, s sender, req *Request, requestID string) {
	h.printLabel(ctx, s, req, requestID, bridge.JobKindCPCL, func(bm *raster.Bitmap, x, y int) *label.Command {
		return label.EncodeCPCLBinary(bm, label.CPCLOptions{X: x, Y: y})
	})
}

// PrintZPL rasterizes an image payload and prints it as a ZPL graphics
// field.
func (h *Handlers) PrintZPL(ctx context.Context, s sender, req *Request, requestID string) {
	h.printLabel(ctx, s, req, requestID, bridge.JobKindZPL, func(bm *raster.Bitmap, x, y int) *label.Command {
		return label.EncodeZPL(bm, label.ZPLOptions{X: x, Y: y})
	})
}

// PrintBase64ZPL accepts the same payload as PrintZPL under the older
// base64-specific action name.
func (h *Handlers) PrintBase64ZPL(ctx context.Context, s sender, req *Request, requestID string) {
	h.PrintZPL(ctx, s, req, requestID)
}

func (h *Handlers) printLabel(ctx context.Context, s sender, req *Request, requestID string, kind bridge.JobKind, encode func(bm *raster.Bitmap, x, y int) *label.Command) {
	opts := req.Options
	opts.Normalize()

	buf, err := payload.DecodeImage(req.Body())
	if err != nil {
		h.failJob(s, requestID, opts.Printer, kind, err)
		return
	}

	bm, err := raster.Rasterize(buf, raster.Options{
		Width:     int(opts.Width),
		Height:    int(opts.Height),
		Threshold: opts.Threshold,
		Invert:    opts.Invert,
	})
	if err != nil {
		h.failJob(s, requestID, opts.Printer, kind, err)
		return
	}

	cmd := encode(bm, opts.X, opts.Y)

	var format bridge.DocumentFormat
	switch cmd.Format {
	case label.FormatZPL:
		format = bridge.FormatZPL
	default:
		format = bridge.FormatCPCL
	}

	h.tracker.Begin(requestID, opts.Printer, kind)
	result, err := h.executor.Execute(ctx, requestID, bridge.Document{Format: format, Payload: cmd.Data}, opts)
	h.sendPrintResult(s, requestID, result, err)
}

// failJob reports a request that never reached the executor: the job is
// registered and failed in one step so history still records it.
func (h *Handlers) failJob(s sender, requestID, printer string, kind bridge.JobKind, err error) {
	log.Warn().Err(err).Str("request", requestID).Str("kind", string(kind)).Msg("rejecting print request")
	h.tracker.Begin(requestID, printer, kind)
	h.tracker.Transition(requestID, bridge.JobStatusFailed, err.Error())
	sendEvent(s, PrintResultEvent{
		Event:     EventPrintResult,
		RequestID: requestID,
		Error:     err.Error(),
	})
}

func (h *Handlers) sendPrintResult(s sender, requestID string, result bridge.SubmitResult, err error) {
	if err != nil {
		sendEvent(s, PrintResultEvent{
			Event:     EventPrintResult,
			RequestID: requestID,
			Error:     err.Error(),
		})
		return
	}
	sendEvent(s, PrintResultEvent{
		Event:     EventPrintResult,
		RequestID: requestID,
		Success:   true,
		Message:   result.Message,
		Printer:   result.Printer,
		Fallback:  result.Fallback,
	})
}
