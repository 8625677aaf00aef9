package bwav

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/riff"
)

// smpl chunk is documented here:
// https://sites.google.com/site/musicgapi/technical-documents/wav-file-format#smpl

const (
	smplFixedLen = 36
	smplLoopLen  = 24
)

// SamplerInfo is the content of a smpl chunk.
type SamplerInfo struct {
	// Manufacturer is the MMA manufacturer code, zero when not specific.
	Manufacturer [4]byte
	Product      [4]byte
	// SamplePeriod is the duration of one sample in nanoseconds.
	SamplePeriod uint32
	// MIDIUnityNote is the MIDI note that plays the sample unmodified.
	MIDIUnityNote     uint32
	MIDIPitchFraction uint32
	SMPTEFormat       uint32
	SMPTEOffset       uint32
	Loops             []SampleLoop
	// SamplerData is the vendor specific tail of the chunk.
	SamplerData []byte
}

// SampleLoop is one loop of a smpl chunk.
type SampleLoop struct {
	// CuePointID references a cue point of the file.
	CuePointID uint32
	// Type is 0 for forward, 1 for alternating and 2 for backward loops.
	Type uint32
	// Start and End are inclusive frame offsets.
	Start     uint32
	End       uint32
	Fraction  uint32
	PlayCount uint32
}

// DecodeSamplerChunk decodes a smpl chunk.
func DecodeSamplerChunk(ch *riff.Chunk) (*SamplerInfo, error) {
	buf, err := readChunk(ch, CIDSmpl)
	if err != nil {
		return nil, err
	}

	return decodeSamplerChunk(buf)
}

func decodeSamplerChunk(buf []byte) (*SamplerInfo, error) {
	if len(buf) < smplFixedLen {
		return nil, fmt.Errorf("%w: smpl payload is %d bytes, need %d", ErrMalformedChunk, len(buf), smplFixedLen)
	}

	s := &SamplerInfo{
		SamplePeriod:      binary.LittleEndian.Uint32(buf[8:12]),
		MIDIUnityNote:     binary.LittleEndian.Uint32(buf[12:16]),
		MIDIPitchFraction: binary.LittleEndian.Uint32(buf[16:20]),
		SMPTEFormat:       binary.LittleEndian.Uint32(buf[20:24]),
		SMPTEOffset:       binary.LittleEndian.Uint32(buf[24:28]),
	}
	copy(s.Manufacturer[:], buf[0:4])
	copy(s.Product[:], buf[4:8])

	numLoops := uint64(binary.LittleEndian.Uint32(buf[28:32]))
	dataLen := uint64(binary.LittleEndian.Uint32(buf[32:36]))

	if smplFixedLen+numLoops*smplLoopLen > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: smpl declares %d loops in %d bytes", ErrMalformedChunk, numLoops, len(buf))
	}

	off := smplFixedLen
	for n := uint64(0); n < numLoops; n++ {
		rec := buf[off : off+smplLoopLen]
		off += smplLoopLen

		s.Loops = append(s.Loops, SampleLoop{
			CuePointID: binary.LittleEndian.Uint32(rec[0:4]),
			Type:       binary.LittleEndian.Uint32(rec[4:8]),
			Start:      binary.LittleEndian.Uint32(rec[8:12]),
			End:        binary.LittleEndian.Uint32(rec[12:16]),
			Fraction:   binary.LittleEndian.Uint32(rec[16:20]),
			PlayCount:  binary.LittleEndian.Uint32(rec[20:24]),
		})
	}

	if tail := uint64(len(buf) - off); dataLen > 0 {
		s.SamplerData = append([]byte(nil), buf[off:off+int(min(dataLen, tail))]...)
	}

	return s, nil
}

func encodeSamplerChunk(s *SamplerInfo) []byte {
	if s == nil {
		return nil
	}

	out := bytes.NewBuffer(make([]byte, 0, smplFixedLen+smplLoopLen*len(s.Loops)+len(s.SamplerData)))
	out.Write(s.Manufacturer[:])
	out.Write(s.Product[:])
	_ = binary.Write(out, binary.LittleEndian, []uint32{
		s.SamplePeriod,
		s.MIDIUnityNote,
		s.MIDIPitchFraction,
		s.SMPTEFormat,
		s.SMPTEOffset,
		uint32(len(s.Loops)),
		uint32(len(s.SamplerData)),
	})

	for _, l := range s.Loops {
		_ = binary.Write(out, binary.LittleEndian, l)
	}

	out.Write(s.SamplerData)

	return out.Bytes()
}
