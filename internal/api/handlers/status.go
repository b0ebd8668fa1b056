package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printbridge/internal/bridge"
	"github.com/orrn/printbridge/internal/server"
)

// StatusHandler serves the public daemon status endpoints.
type StatusHandler struct {
	version    string
	startedAt  time.Time
	bridgePort func() int
	registry   *server.Registry
	enumerator bridge.PrinterEnumerator
}

type StatusReply struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	UptimeSec   int64  `json:"uptime_sec"`
	BridgePort  int    `json:"bridge_port"`
	Connections int    `json:"connections"`
	Printers    int    `json:"printers"`
	Time        string `json:"time"`
}

func NewStatusHandler(version string, bridgePort func() int, registry *server.Registry, enumerator bridge.PrinterEnumerator) *StatusHandler {
	return &StatusHandler{
		version:    version,
		startedAt:  time.Now(),
		bridgePort: bridgePort,
		registry:   registry,
		enumerator: enumerator,
	}
}

// Status reports version, uptime and a live printer count. Enumeration
// failures degrade to a zero count rather than failing the endpoint.
func (h *StatusHandler) Status(c *gin.Context) {
	printerCount := 0
	if printers, err := h.enumerator.EnumeratePrinters(c.Request.Context()); err == nil {
		printerCount = len(printers)
	}

	c.JSON(http.StatusOK, StatusReply{
		Status:      "running",
		Version:     h.version,
		UptimeSec:   int64(time.Since(h.startedAt).Seconds()),
		BridgePort:  h.bridgePort(),
		Connections: h.registry.Count(),
		Printers:    printerCount,
		Time:        time.Now().Format(time.RFC3339),
	})
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Connections lists the live bridge connections.
func (h *StatusHandler) Connections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connections": h.registry.All()})
}
