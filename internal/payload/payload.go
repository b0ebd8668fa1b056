// Package payload validates and decodes the base64 / data-URL document
// payloads clients send over the wire.
package payload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyPayload   = errors.New("payload is empty")
	ErrInvalidBase64  = errors.New("payload is not valid base64")
	ErrInvalidDataURL = errors.New("payload is not a valid data URL")
)

var pdfMagic = []byte("%PDF-")

var dataURLPattern = regexp.MustCompile(`^data:[^;]+;base64,([A-Za-z0-9+/=\s]+)$`)

// StripDataURL returns the base64 body of a data URL, or the input
// unchanged when it carries no data: prefix.
func StripDataURL(data string) (string, error) {
	if !strings.HasPrefix(data, "data:") {
		return data, nil
	}
	m := dataURLPattern.FindStringSubmatch(data)
	if m == nil {
		return "", ErrInvalidDataURL
	}
	return m[1], nil
}

// DecodeBase64 strips any data-URL prefix and decodes the payload,
// tolerating embedded whitespace.
func DecodeBase64(data string) ([]byte, error) {
	if data == "" {
		return nil, ErrEmptyPayload
	}

	body, err := StripDataURL(data)
	if err != nil {
		return nil, err
	}

	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, body)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		// Some clients omit padding.
		decoded, err = base64.RawStdEncoding.DecodeString(compact)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
		}
	}

	if len(decoded) == 0 {
		return nil, ErrEmptyPayload
	}

	return decoded, nil
}

// DecodePDF decodes a PDF payload. A missing %PDF- magic number is logged
// as a warning but does not fail the decode; printing is still attempted.
func DecodePDF(data string) ([]byte, error) {
	buf, err := DecodeBase64(data)
	if err != nil {
		return nil, err
	}

	if len(buf) >= len(pdfMagic) && !bytes.HasPrefix(buf, pdfMagic) {
		log.Warn().
			Str("magic", fmt.Sprintf("%x", buf[:min(len(buf), 10)])).
			Msg("payload does not start with a PDF header")
	}

	return buf, nil
}

// DecodeImage decodes an image payload (raw base64 or data URL).
func DecodeImage(data string) ([]byte, error) {
	return DecodeBase64(data)
}
