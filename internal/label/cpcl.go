package label

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/orrn/printbridge/internal/raster"
)

// CPCLOptions position the bitmap on the label. Zero values print at the
// top-left corner.
type CPCLOptions struct {
	X int
	Y int
}

// EncodeCPCL wraps a binarized bitmap in the CPCL expanded-graphics
// grammar: a 200dpi preamble sized to the bitmap height, an EG directive
// carrying width, height and bytes-per-row, then FORM and PRINT. The
// bitmap bytes are embedded hex-encoded exactly as packed by the
// rasterizer; byte and bit order are part of the firmware contract.
func EncodeCPCL(bm *raster.Bitmap, opts CPCLOptions) *Command {
	var sb strings.Builder

	fmt.Fprintf(&sb, "! 0 200 200 %d 1\r\n", bm.Height)
	fmt.Fprintf(&sb, "EG %d %d %d %d %d %s\r\n",
		bm.Width, bm.Height, bm.BytesPerRow, opts.X, opts.Y, hexUpper(bm.Data))
	sb.WriteString("FORM\r\n")
	sb.WriteString("PRINT\r\n")

	return &Command{
		Format: FormatCPCL,
		Data:   []byte(sb.String()),
		Packed: bm.Data,
	}
}

// EncodeCPCLBinary is the compact EG variant: the packed bitmap bytes
// are embedded verbatim instead of hex text. Some firmware only accepts
// this form for large bitmaps.
func EncodeCPCLBinary(bm *raster.Bitmap, opts CPCLOptions) *Command {
	var buf []byte
	buf = append(buf, fmt.Sprintf("! 0 200 200 %d 1\r\n", bm.Height)...)
	buf = append(buf, fmt.Sprintf("EG %d %d %d %d %d ", bm.Width, bm.Height, bm.BytesPerRow, opts.X, opts.Y)...)
	buf = append(buf, bm.Data...)
	buf = append(buf, "\r\nFORM\r\nPRINT\r\n"...)

	return &Command{
		Format: FormatCPCL,
		Data:   buf,
		Packed: bm.Data,
	}
}

func hexUpper(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}
