package label

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/orrn/printbridge/internal/raster"
)

// ZPLOptions position the graphics field on the label.
type ZPLOptions struct {
	X int
	Y int
}

// EncodeZPL wraps a binarized bitmap in a ZPL graphics field. The packed
// bitmap is run-length compressed, base64 encoded ("Z64") and framed as
// ^XA ^FOx,y ^GFA,total,total,bytesPerRow,payload ^XZ. The header byte
// counts are the uncompressed bitmap size so the printer can validate
// that the stream decompresses completely.
func EncodeZPL(bm *raster.Bitmap, opts ZPLOptions) *Command {
	compressed := runLengthEncode(bm.Data)
	encoded := base64.StdEncoding.EncodeToString(compressed)
	payload := fmt.Sprintf(":Z64:%s:%04X", encoded, crc16(encoded))

	total := len(bm.Data)

	var sb strings.Builder
	sb.WriteString("^XA")
	fmt.Fprintf(&sb, "^FO%d,%d", opts.X, opts.Y)
	fmt.Fprintf(&sb, "^GFA,%d,%d,%d,%s", total, total, bm.BytesPerRow, payload)
	sb.WriteString("^XZ")

	return &Command{
		Format: FormatZPL,
		Data:   []byte(sb.String()),
		Packed: bm.Data,
	}
}

// runLengthEncode compresses byte runs as (count, value) pairs with a
// count range of 1..255; longer runs are split. The scheme is lossless:
// decoding always reproduces the input byte-for-byte.
func runLengthEncode(data []byte) []byte {
	out := make([]byte, 0, len(data)/2+2)
	i := 0
	for i < len(data) {
		value := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == value && run < 255 {
			run++
		}
		out = append(out, byte(run), value)
		i += run
	}
	return out
}

// runLengthDecode is the inverse of runLengthEncode.
func runLengthDecode(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i+1 < len(data); i += 2 {
		run := int(data[i])
		value := data[i+1]
		for j := 0; j < run; j++ {
			out = append(out, value)
		}
	}
	return out
}

// crc16 computes CRC-16/CCITT over the base64 text, as Z64 consumers
// expect for payload verification.
func crc16(s string) uint16 {
	var crc uint16
	for _, b := range []byte(s) {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
