package wire

import (
	"github.com/luhtfiimanal/seedlink-go/internal/seq"
)

const (
	V3Signature = "SL"
	V3HeaderLen = 8
	V3PayloadLen = 512
	V3FrameLen   = 520
)

// ParseV3Frame parses a v3 frame from exactly V3FrameLen bytes: 2-byte "SL"
// signature, 6-byte hex sequence, 512-byte miniSEED payload.
func ParseV3Frame(data []byte) (Frame, error) {
	if len(data) < V3FrameLen {
		return Frame{}, &FrameTooShortError{Expected: V3FrameLen, Actual: len(data)}
	}
	if string(data[0:2]) != V3Signature {
		return Frame{}, &InvalidSignatureError{Expected: V3Signature, Actual: [2]byte{data[0], data[1]}}
	}
	n, err := seq.FromV3Hex(string(data[2:8]))
	if err != nil {
		return Frame{}, &InvalidSequenceError{Reason: err.Error()}
	}
	payload := make([]byte, V3PayloadLen)
	copy(payload, data[V3HeaderLen:V3FrameLen])
	return Frame{IsV4: false, Sequence: n, Payload: payload}, nil
}

// WriteV3Frame serializes sequence+payload into a 520-byte v3 frame.
// payload must be exactly V3PayloadLen bytes.
func WriteV3Frame(sequence seq.Number, payload []byte) ([]byte, error) {
	if len(payload) != V3PayloadLen {
		return nil, &PayloadLengthMismatchError{Expected: V3PayloadLen, Actual: len(payload)}
	}
	frame := make([]byte, 0, V3FrameLen)
	frame = append(frame, V3Signature...)
	frame = append(frame, seq.ToV3Hex(sequence)...)
	frame = append(frame, payload...)
	return frame, nil
}
