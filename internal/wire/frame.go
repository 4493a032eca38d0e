package wire

import "github.com/luhtfiimanal/seedlink-go/internal/seq"

// PayloadFormat is the v4 frame's format indicator byte (§4.E).
type PayloadFormat byte

const (
	FormatMiniSeed2 PayloadFormat = '2'
	FormatMiniSeed3 PayloadFormat = '3'
	FormatJSON      PayloadFormat = 'J'
	FormatXML       PayloadFormat = 'X'
)

func parsePayloadFormat(b byte) (PayloadFormat, error) {
	switch PayloadFormat(b) {
	case FormatMiniSeed2, FormatMiniSeed3, FormatJSON, FormatXML:
		return PayloadFormat(b), nil
	default:
		return 0, &InvalidPayloadFormatError{Byte: b}
	}
}

// PayloadSubformat is the v4 frame's subformat indicator byte (§4.E).
type PayloadSubformat byte

const (
	SubformatData        PayloadSubformat = 'D'
	SubformatEvent        PayloadSubformat = 'E'
	SubformatCalibration  PayloadSubformat = 'C'
	SubformatTiming       PayloadSubformat = 'T'
	SubformatLog          PayloadSubformat = 'L'
	SubformatOpaque       PayloadSubformat = 'O'
	SubformatInfo         PayloadSubformat = 'I'
	SubformatInfoError    PayloadSubformat = 'R'
)

func parsePayloadSubformat(b byte) (PayloadSubformat, error) {
	switch PayloadSubformat(b) {
	case SubformatData, SubformatEvent, SubformatCalibration, SubformatTiming,
		SubformatLog, SubformatOpaque, SubformatInfo, SubformatInfoError:
		return PayloadSubformat(b), nil
	default:
		return 0, &InvalidPayloadSubformatError{Byte: b}
	}
}

// Frame is a decoded SeedLink binary frame, v3 or v4 (§4.D/§4.E). Go has no
// sum type, so IsV4 tags which fields apply: v3 frames only ever carry
// Sequence and Payload, v4 frames additionally carry Format/Subformat/StationID.
type Frame struct {
	IsV4      bool
	Sequence  seq.Number
	Payload   []byte
	Format    PayloadFormat    // v4 only
	Subformat PayloadSubformat // v4 only
	StationID string           // v4 only, e.g. "IU_ANMO"
}
