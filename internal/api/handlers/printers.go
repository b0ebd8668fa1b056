package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printbridge/internal/bridge"
)

type PrinterHandler struct {
	enumerator bridge.PrinterEnumerator
}

func NewPrinterHandler(enumerator bridge.PrinterEnumerator) *PrinterHandler {
	return &PrinterHandler{enumerator: enumerator}
}

// ListPrinters enumerates the system printers, annotated with the label
// heuristic the bridge uses to pick raw submission.
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := h.enumerator.EnumeratePrinters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enumerate printers"})
		return
	}

	type printerView struct {
		bridge.Printer
		IsLabel bool `json:"isLabel"`
	}

	views := make([]printerView, 0, len(printers))
	for _, p := range printers {
		views = append(views, printerView{Printer: p, IsLabel: bridge.IsLabelPrinter(p.Name)})
	}
	c.JSON(http.StatusOK, gin.H{"printers": views})
}
