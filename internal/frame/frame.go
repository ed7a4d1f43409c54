// Package frame implements the length-prefixed, type-tagged envelope shared
// by the lobby and node connections. The wire schema of each frame's payload
// is out of scope here; this package only carries bytes between a socket and
// the rest of the coordinator.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxPayloadSize bounds a single frame's payload to guard against a
// corrupt or hostile length header forcing an unbounded allocation.
const MaxPayloadSize = 1 << 20 // 1 MiB

// Frame is one length-prefixed, type-tagged message. TypeID identifies the
// payload's semantic meaning (e.g. GameStarting, ClientConnect); Payload is
// the raw, un-decoded body.
type Frame struct {
	TypeID  uint8
	Payload []byte
}

// WriteFrame writes f to w as: 4-byte big-endian total length (type byte +
// payload), 1-byte type id, payload.
func WriteFrame(w io.Writer, f Frame) error {
	total := 1 + len(f.Payload)
	buf := make([]byte, 4+total)
	binary.BigEndian.PutUint32(buf[:4], uint32(total))
	buf[4] = f.TypeID
	copy(buf[5:], f.Payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads one frame from r. It allocates a payload buffer sized
// exactly to the frame; callers that need to avoid per-frame allocation
// should wrap r in their own buffering layer.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, fmt.Errorf("reading frame header: %w", err)
	}

	total := int(binary.BigEndian.Uint32(header[:]))
	if total < 1 {
		return Frame{}, fmt.Errorf("invalid frame length: %d", total)
	}
	if total-1 > MaxPayloadSize {
		return Frame{}, fmt.Errorf("frame payload %d exceeds max %d", total-1, MaxPayloadSize)
	}

	body := make([]byte, total)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("reading frame body: %w", err)
	}

	return Frame{TypeID: body[0], Payload: body[1:]}, nil
}
