package bwav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-audio/riff"
)

const (
	bextDescriptionLen         = 256
	bextOriginatorLen          = 32
	bextOriginatorReferenceLen = 32
	bextOriginationDateLen     = 10
	bextOriginationTimeLen     = 8
	bextUMIDLen                = 64
	bextLoudnessLen            = 10
	bextReservedLen            = 180
	bextFixedLen               = 602
)

var errNilChunk = errors.New("can't decode a nil chunk")

// BroadcastExtension is the content of a bext chunk (EBU Tech 3285).
type BroadcastExtension struct {
	Description         string
	Originator          string
	OriginatorReference string
	// OriginationDate is formatted yyyy-mm-dd.
	OriginationDate string
	// OriginationTime is formatted hh-mm-ss.
	OriginationTime string
	// TimeReference is the first sample's offset since midnight, in frames.
	TimeReference uint64
	Version       uint16
	UMID          [64]byte
	// Loudness is only carried by version 2 and later.
	Loudness      *Loudness
	Reserved      []byte
	CodingHistory string
}

// Loudness holds the EBU R128 values of a version 2 bext chunk. Values are
// stored on disk in hundredths.
type Loudness struct {
	IntegratedLoudness   float64
	LoudnessRange        float64
	MaxTruePeakLevel     float64
	MaxMomentaryLoudness float64
	MaxShortTermLoudness float64
}

// Clone returns a deep copy.
func (b *BroadcastExtension) Clone() *BroadcastExtension {
	if b == nil {
		return nil
	}

	out := *b
	out.Reserved = append([]byte(nil), b.Reserved...)

	if b.Loudness != nil {
		l := *b.Loudness
		out.Loudness = &l
	}

	return &out
}

// DecodeBroadcastChunk decodes a bext chunk.
func DecodeBroadcastChunk(chnk *riff.Chunk) (*BroadcastExtension, error) {
	if chnk == nil {
		return nil, errNilChunk
	}

	buf, err := readChunk(chnk, CIDBext)
	if err != nil {
		return nil, err
	}

	if len(buf) < bextFixedLen {
		return nil, fmt.Errorf("%w: bext payload is %d bytes, need %d", ErrMalformedChunk, len(buf), bextFixedLen)
	}

	bext := &BroadcastExtension{}
	offset := 0

	take := func(n int) []byte {
		out := buf[offset : offset+n]
		offset += n

		return out
	}

	readFixedString := func(n int) string {
		return strings.TrimRight(decodeText(take(n)), " ")
	}

	bext.Description = readFixedString(bextDescriptionLen)
	bext.Originator = readFixedString(bextOriginatorLen)
	bext.OriginatorReference = readFixedString(bextOriginatorReferenceLen)
	bext.OriginationDate = readFixedString(bextOriginationDateLen)
	bext.OriginationTime = readFixedString(bextOriginationTimeLen)

	timeRefLow := binary.LittleEndian.Uint32(take(4))
	timeRefHigh := binary.LittleEndian.Uint32(take(4))
	bext.TimeReference = uint64(timeRefHigh)<<32 | uint64(timeRefLow)
	bext.Version = binary.LittleEndian.Uint16(take(2))

	copy(bext.UMID[:], take(bextUMIDLen))

	loudness := take(bextLoudnessLen)
	if bext.Version >= 2 {
		value := func(i int) float64 {
			return float64(int16(binary.LittleEndian.Uint16(loudness[i*2:]))) / 100
		}

		bext.Loudness = &Loudness{
			IntegratedLoudness:   value(0),
			LoudnessRange:        value(1),
			MaxTruePeakLevel:     value(2),
			MaxMomentaryLoudness: value(3),
			MaxShortTermLoudness: value(4),
		}
	}

	bext.Reserved = append([]byte(nil), take(bextReservedLen)...)

	if offset < len(buf) {
		codingHistory := bytes.TrimRight(buf[offset:], "\x00")
		bext.CodingHistory = decodeText(codingHistory)
	}

	return bext, nil
}

func encodeBroadcastChunk(bext *BroadcastExtension) []byte {
	if bext == nil {
		return nil
	}

	payload := bytes.NewBuffer(make([]byte, 0, bextFixedLen+len(bext.CodingHistory)))
	writeFixedString := func(s string, n int) {
		payload.Write(encodeFixedText(s, n))
	}

	writeFixedString(bext.Description, bextDescriptionLen)
	writeFixedString(bext.Originator, bextOriginatorLen)
	writeFixedString(bext.OriginatorReference, bextOriginatorReferenceLen)
	writeFixedString(bext.OriginationDate, bextOriginationDateLen)
	writeFixedString(bext.OriginationTime, bextOriginationTimeLen)

	timeRefLow := uint32(bext.TimeReference & 0xffffffff)
	timeRefHigh := uint32((bext.TimeReference >> 32) & 0xffffffff)

	version := bext.Version
	if bext.Loudness != nil && version < 2 {
		version = 2
	}

	_ = binary.Write(payload, binary.LittleEndian, timeRefLow)
	_ = binary.Write(payload, binary.LittleEndian, timeRefHigh)
	_ = binary.Write(payload, binary.LittleEndian, version)

	_, _ = payload.Write(bext.UMID[:])

	loudness := make([]int16, bextLoudnessLen/2)
	if l := bext.Loudness; l != nil {
		for i, v := range []float64{l.IntegratedLoudness, l.LoudnessRange, l.MaxTruePeakLevel, l.MaxMomentaryLoudness, l.MaxShortTermLoudness} {
			loudness[i] = int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v*100))))
		}
	}

	_ = binary.Write(payload, binary.LittleEndian, loudness)

	reserved := make([]byte, bextReservedLen)
	copy(reserved, bext.Reserved)
	payload.Write(reserved)

	if bext.CodingHistory != "" {
		payload.Write(encodeText(bext.CodingHistory))
	}

	return payload.Bytes()
}
