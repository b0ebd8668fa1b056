package platform

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/bridge"
)

// Submitter hands finished documents to the OS spooler, or straight to a
// network label printer over its raw port when the target looks like a
// host address.
type Submitter struct {
	temp    *TempFiles
	rawPort int
	timeout time.Duration
}

func NewSubmitter(temp *TempFiles, rawPort int, timeout time.Duration) *Submitter {
	return &Submitter{
		temp:    temp,
		rawPort: rawPort,
		timeout: timeout,
	}
}

func (s *Submitter) SubmitDocument(ctx context.Context, doc bridge.Document, printerName string, opts bridge.PrintOptions) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch doc.Format {
	case bridge.FormatCPCL, bridge.FormatZPL:
		return s.submitRaw(ctx, doc, printerName)
	default:
		return s.submitSpooled(ctx, doc, printerName, opts)
	}
}

// submitRaw sends a label command stream. Host-like targets get a direct
// TCP connection on the raw port; named queues get a raw spool job.
func (s *Submitter) submitRaw(ctx context.Context, doc bridge.Document, printerName string) error {
	if isNetworkTarget(printerName) {
		return s.sendTCP(ctx, printerName, doc.Payload)
	}

	path := doc.Path
	if path == "" {
		var err error
		path, err = s.temp.Write("label", "."+string(doc.Format), doc.Payload)
		if err != nil {
			return err
		}
		defer s.temp.Remove(path)
	}

	if runtime.GOOS == "windows" {
		// copy /b preserves the binary stream through the share.
		return runCommand(ctx, "cmd", "/C", "copy", "/b", path, printerName)
	}

	args := []string{"-o", "raw"}
	if printerName != "" {
		args = append(args, "-d", printerName)
	}
	args = append(args, path)
	return runCommand(ctx, "lp", args...)
}

// submitSpooled prints a document file through the regular driver path.
func (s *Submitter) submitSpooled(ctx context.Context, doc bridge.Document, printerName string, opts bridge.PrintOptions) error {
	path := doc.Path
	if path == "" {
		var err error
		path, err = s.temp.Write("doc", ".bin", doc.Payload)
		if err != nil {
			return err
		}
		defer s.temp.Remove(path)
	}

	if runtime.GOOS == "windows" {
		// Silent jobs go straight to the named queue; non-silent jobs
		// hand off to the shell viewer, which may surface its own print
		// UI.
		script := fmt.Sprintf("Start-Process -FilePath %q -Verb Print -Wait", path)
		if printerName != "" && opts.IsSilent() {
			script = fmt.Sprintf("Start-Process -FilePath %q -Verb PrintTo -ArgumentList %q -Wait", path, printerName)
		}
		return runCommand(ctx, "powershell", "-NoProfile", "-Command", script)
	}

	var args []string
	if printerName != "" {
		args = append(args, "-d", printerName)
	}
	if opts.Copies > 1 {
		args = append(args, "-n", strconv.Itoa(opts.Copies))
	}
	if opts.Landscape {
		args = append(args, "-o", "landscape")
	}
	args = append(args, path)
	return runCommand(ctx, "lp", args...)
}

func (s *Submitter) sendTCP(ctx context.Context, target string, payload []byte) error {
	addr := target
	if _, _, err := net.SplitHostPort(target); err != nil {
		addr = net.JoinHostPort(target, strconv.Itoa(s.rawPort))
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to reach printer %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send to printer %s: %w", addr, err)
	}
	return nil
}

// isNetworkTarget reports whether the name addresses a printer by host
// rather than by queue name.
func isNetworkTarget(name string) bool {
	if name == "" {
		return false
	}
	if host, _, err := net.SplitHostPort(name); err == nil {
		name = host
	}
	return net.ParseIP(name) != nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s failed: %s: %w", name, msg, err)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	log.Debug().Str("cmd", name).Strs("args", args).Msg("print command completed")
	return nil
}
