package rtmpstat

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// MaxBodySize bounds how much of the status page is read.
const MaxBodySize = 32 << 20

// ErrBodyTooLarge is returned for a status page larger than MaxBodySize.
var ErrBodyTooLarge = errors.New("rtmp stat body too large")

// DecodeError reports a status page that could not be decoded, naming the
// element path that failed (e.g. "rtmp.server.application.live.stream.bw_in").
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode rtmp stat: %v", e.Err)
	}
	return fmt.Sprintf("decode rtmp stat at %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode reads an nginx-rtmp XML status document.
func Decode(r io.Reader) (*Snapshot, error) {
	return decodeLimited(r, MaxBodySize)
}

func decodeLimited(r io.Reader, limit int64) (*Snapshot, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read rtmp stat: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: status page exceeds %d bytes", ErrBodyTooLarge, limit)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory XML status document.
func DecodeBytes(data []byte) (*Snapshot, error) {
	dec := newDecoder(data)

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, &DecodeError{
			Path: elementPath(data, dec.InputOffset()),
			Err:  err,
		}
	}

	snap.normalize()
	return &snap, nil
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// elementPath re-scans the document and returns the dotted path of the
// element being closed when the reader reached offset.
func elementPath(data []byte, offset int64) string {
	dec := newDecoder(data)
	var stack []string

	for {
		tok, err := dec.Token()
		if err != nil {
			return strings.Join(stack, ".")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if dec.InputOffset() >= offset {
				return strings.Join(stack, ".")
			}
		case xml.EndElement:
			if dec.InputOffset() >= offset {
				return strings.Join(stack, ".")
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}
