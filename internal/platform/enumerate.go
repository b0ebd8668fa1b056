// Package platform adapts the daemon to the OS print subsystem: printer
// enumeration, document submission, temp spool files and saved output.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/bridge"
)

// Enumerator lists system printers with the platform's native tooling:
// lpstat on unix-likes, wmic with a PowerShell fallback on Windows. The
// list is rebuilt on every call.
type Enumerator struct{}

func NewEnumerator() *Enumerator {
	return &Enumerator{}
}

func (e *Enumerator) EnumeratePrinters(ctx context.Context) ([]bridge.Printer, error) {
	if runtime.GOOS == "windows" {
		return e.enumerateWindows(ctx)
	}
	return e.enumerateCUPS(ctx)
}

func (e *Enumerator) enumerateCUPS(ctx context.Context) ([]bridge.Printer, error) {
	out, err := exec.CommandContext(ctx, "lpstat", "-p").Output()
	if err != nil {
		return nil, fmt.Errorf("lpstat failed: %w", err)
	}

	defaultName := ""
	if dOut, dErr := exec.CommandContext(ctx, "lpstat", "-d").Output(); dErr == nil {
		// Format: "system default destination: <name>"
		if i := strings.LastIndex(string(dOut), ":"); i >= 0 {
			defaultName = strings.TrimSpace(string(dOut)[i+1:])
		}
	}

	var printers []bridge.Printer
	for _, line := range strings.Split(string(out), "\n") {
		// Format: "printer <name> is idle.  enabled since ..."
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "printer" {
			continue
		}
		name := fields[1]

		status := "idle"
		if strings.Contains(line, "disabled") {
			status = "offline"
		} else if strings.Contains(line, "printing") {
			status = "printing"
		}

		printers = append(printers, bridge.Printer{
			Name:      name,
			IsDefault: name == defaultName,
			Status:    status,
		})
	}
	return printers, nil
}

func (e *Enumerator) enumerateWindows(ctx context.Context) ([]bridge.Printer, error) {
	out, err := exec.CommandContext(ctx, "wmic", "printer", "get", "name,default,status", "/format:csv").Output()
	if err == nil {
		if printers := parseWmicCSV(string(out)); len(printers) > 0 {
			return printers, nil
		}
	}

	log.Debug().Err(err).Msg("wmic enumeration failed, falling back to PowerShell")
	psOut, psErr := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
		"Get-Printer | Select-Object Name,PrinterStatus | ConvertTo-Json").Output()
	if psErr != nil {
		return nil, fmt.Errorf("printer enumeration failed: %w", psErr)
	}
	return parsePowerShellJSON(psOut)
}

func parseWmicCSV(out string) []bridge.Printer {
	var printers []bridge.Printer
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Node") {
			continue
		}
		// Node,Default,Name,Status
		parts := strings.Split(line, ",")
		if len(parts) < 3 || strings.TrimSpace(parts[2]) == "" {
			continue
		}
		status := "idle"
		if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
			status = strings.ToLower(strings.TrimSpace(parts[3]))
		}
		printers = append(printers, bridge.Printer{
			Name:      strings.TrimSpace(parts[2]),
			IsDefault: strings.EqualFold(strings.TrimSpace(parts[1]), "true"),
			Status:    status,
		})
	}
	return printers
}

func parsePowerShellJSON(out []byte) ([]bridge.Printer, error) {
	type psPrinter struct {
		Name          string `json:"Name"`
		PrinterStatus any    `json:"PrinterStatus"`
	}

	var list []psPrinter
	if err := json.Unmarshal(out, &list); err != nil {
		// A single printer serializes as a bare object.
		var one psPrinter
		if oneErr := json.Unmarshal(out, &one); oneErr != nil {
			return nil, fmt.Errorf("failed to parse printer list: %w", err)
		}
		list = []psPrinter{one}
	}

	printers := make([]bridge.Printer, 0, len(list))
	for i, p := range list {
		if p.Name == "" {
			continue
		}
		status := "idle"
		if s, ok := p.PrinterStatus.(string); ok && s != "Normal" {
			status = "offline"
		}
		printers = append(printers, bridge.Printer{
			Name:      p.Name,
			IsDefault: i == 0,
			Status:    status,
		})
	}
	return printers, nil
}
