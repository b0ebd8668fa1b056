package label

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/printbridge/internal/raster"
)

func testBitmap() *raster.Bitmap {
	// 10x3, single mark at (0,0).
	return &raster.Bitmap{
		Width:       10,
		Height:      3,
		BytesPerRow: 2,
		Data:        []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x00},
	}
}

func TestEncodeCPCL(t *testing.T) {
	cmd := EncodeCPCL(testBitmap(), CPCLOptions{X: 5, Y: 7})

	assert.Equal(t, FormatCPCL, cmd.Format)
	assert.Equal(t, testBitmap().Data, cmd.Packed)

	text := string(cmd.Data)
	lines := strings.Split(text, "\r\n")
	require.GreaterOrEqual(t, len(lines), 4)

	assert.Equal(t, "! 0 200 200 3 1", lines[0])
	assert.Equal(t, "EG 10 3 2 5 7 800000000000", lines[1])
	assert.Equal(t, "FORM", lines[2])
	assert.Equal(t, "PRINT", lines[3])
}

func TestEncodeCPCLHexIsUppercase(t *testing.T) {
	bm := &raster.Bitmap{
		Width:       8,
		Height:      1,
		BytesPerRow: 1,
		Data:        []byte{0xAB},
	}
	cmd := EncodeCPCL(bm, CPCLOptions{})
	assert.Contains(t, string(cmd.Data), "EG 8 1 1 0 0 AB")
}

func TestEncodeCPCLPackedLength(t *testing.T) {
	for _, width := range []int{1, 8, 10, 33} {
		bytesPerRow := (width + 7) / 8
		height := 4
		bm := &raster.Bitmap{
			Width:       width,
			Height:      height,
			BytesPerRow: bytesPerRow,
			Data:        make([]byte, bytesPerRow*height),
		}
		cmd := EncodeCPCL(bm, CPCLOptions{})
		assert.Len(t, cmd.Packed, bytesPerRow*height, "width %d", width)
	}
}

func TestEncodeCPCLBinary(t *testing.T) {
	bm := testBitmap()
	cmd := EncodeCPCLBinary(bm, CPCLOptions{X: 1, Y: 2})

	assert.Equal(t, FormatCPCL, cmd.Format)
	text := string(cmd.Data)
	assert.True(t, strings.HasPrefix(text, "! 0 200 200 3 1\r\nEG 10 3 2 1 2 "))
	assert.True(t, strings.HasSuffix(text, "\r\nFORM\r\nPRINT\r\n"))

	// The raw bitmap bytes are embedded verbatim between the directive
	// and the trailer.
	header := "! 0 200 200 3 1\r\nEG 10 3 2 1 2 "
	body := cmd.Data[len(header) : len(cmd.Data)-len("\r\nFORM\r\nPRINT\r\n")]
	assert.Equal(t, bm.Data, body)
}
