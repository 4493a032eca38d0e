package wire

import (
	"encoding/binary"

	"github.com/luhtfiimanal/seedlink-go/internal/seq"
)

const (
	V4Signature   = "SE"
	// V4MinHeaderLen = 2 (sig) + 1 (format) + 1 (subformat) + 4 (payload len)
	//               + 8 (sequence) + 1 (station id len) = 17
	V4MinHeaderLen = 17
)

// ParseV4Frame parses one v4 frame from the start of data. Because v4
// frames are variable-length, it returns the number of bytes consumed so
// the caller can advance past exactly one frame in a streamed buffer.
func ParseV4Frame(data []byte) (Frame, int, error) {
	if len(data) < V4MinHeaderLen {
		return Frame{}, 0, &FrameTooShortError{Expected: V4MinHeaderLen, Actual: len(data)}
	}
	if string(data[0:2]) != V4Signature {
		return Frame{}, 0, &InvalidSignatureError{Expected: V4Signature, Actual: [2]byte{data[0], data[1]}}
	}

	format, err := parsePayloadFormat(data[2])
	if err != nil {
		return Frame{}, 0, err
	}
	subformat, err := parsePayloadSubformat(data[3])
	if err != nil {
		return Frame{}, 0, err
	}

	payloadLen := int(binary.LittleEndian.Uint32(data[4:8]))

	sequence, err := seq.FromV4LEBytes(data[8:16])
	if err != nil {
		return Frame{}, 0, &InvalidSequenceError{Reason: err.Error()}
	}

	stationIDLen := int(data[16])
	headerLen := V4MinHeaderLen + stationIDLen
	totalLen := headerLen + payloadLen

	if len(data) < totalLen {
		return Frame{}, 0, &FrameTooShortError{Expected: totalLen, Actual: len(data)}
	}

	stationID := string(data[17 : 17+stationIDLen])
	payload := make([]byte, payloadLen)
	copy(payload, data[headerLen:totalLen])

	return Frame{
		IsV4:      true,
		Sequence:  sequence,
		Payload:   payload,
		Format:    format,
		Subformat: subformat,
		StationID: stationID,
	}, totalLen, nil
}

// WriteV4Frame serializes a v4 frame of arbitrary payload length.
func WriteV4Frame(format PayloadFormat, subformat PayloadSubformat, sequence seq.Number, stationID string, payload []byte) []byte {
	stationIDBytes := []byte(stationID)
	headerLen := V4MinHeaderLen + len(stationIDBytes)
	totalLen := headerLen + len(payload)

	frame := make([]byte, 0, totalLen)
	frame = append(frame, V4Signature...)
	frame = append(frame, byte(format), byte(subformat))

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	frame = append(frame, lenBuf[:]...)

	seqBytes := seq.ToV4LEBytes(sequence)
	frame = append(frame, seqBytes[:]...)

	frame = append(frame, byte(len(stationIDBytes)))
	frame = append(frame, stationIDBytes...)
	frame = append(frame, payload...)

	return frame
}
