// Package label encodes monochrome bitmaps into label-printer command
// streams (CPCL and ZPL).
package label

// Format tags a finished command stream with its target language.
type Format string

const (
	FormatCPCL Format = "cpcl"
	FormatZPL  Format = "zpl"
)

// Command is an encoded label job ready for submission. Data is the full
// command stream; Packed is the raw bitmap it embeds, kept for
// validation.
type Command struct {
	Format Format
	Data   []byte
	Packed []byte
}
