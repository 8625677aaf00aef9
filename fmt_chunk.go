package bwav

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE

	fmtLegacyLen     = 16
	fmtExtensionLen  = 22
	fmtExtensibleLen = fmtLegacyLen + 2 + fmtExtensionLen
)

var (
	// SubFormatPCM is KSDATAFORMAT_SUBTYPE_PCM.
	SubFormatPCM = uuid.MustParse("00000001-0000-0010-8000-00aa00389b71")
	// SubFormatFloat is KSDATAFORMAT_SUBTYPE_IEEE_FLOAT.
	SubFormatFloat = uuid.MustParse("00000003-0000-0010-8000-00aa00389b71")
	// SubFormatAmbisonicPCM is the B-format integer sub-format.
	SubFormatAmbisonicPCM = uuid.MustParse("00000001-0721-11d3-8644-c8c1ca000000")
	// SubFormatAmbisonicFloat is the B-format float sub-format.
	SubFormatAmbisonicFloat = uuid.MustParse("00000003-0721-11d3-8644-c8c1ca000000")
)

// FmtChunk stores the parsed WAV fmt chunk, including extensible metadata.
type FmtChunk struct {
	FormatTag      uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	// ExtraData holds the extension of a non-extensible record past cbSize.
	ExtraData  []byte
	Extensible *FmtExtensible
}

// FmtExtensible stores WAVE_FORMAT_EXTENSIBLE extra fields.
type FmtExtensible struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	// SubFormat is the GUID in its on-disk (mixed endian) byte order.
	SubFormat [16]byte
	ExtraData []byte
}

// SubFormatGUID returns the sub-format as a UUID in canonical byte order.
func (e *FmtExtensible) SubFormatGUID() uuid.UUID {
	if e == nil {
		return uuid.Nil
	}

	return guidFromDisk(e.SubFormat)
}

func (f *FmtChunk) Clone() *FmtChunk {
	if f == nil {
		return nil
	}

	out := *f

	out.ExtraData = append([]byte(nil), f.ExtraData...)
	if f.Extensible != nil {
		ext := *f.Extensible
		ext.ExtraData = append([]byte(nil), f.Extensible.ExtraData...)
		out.Extensible = &ext
	}

	return &out
}

func (f *FmtChunk) EffectiveFormatTag() uint16 {
	if f == nil {
		return 0
	}

	if f.FormatTag == wavFormatExtensible && f.Extensible != nil {
		return binary.LittleEndian.Uint16(f.Extensible.SubFormat[:2])
	}

	return f.FormatTag
}

func decodeFmtChunk(buf []byte) (*FmtChunk, error) {
	if len(buf) < fmtLegacyLen {
		return nil, fmt.Errorf("%w: fmt payload is %d bytes, need %d", ErrMalformedChunk, len(buf), fmtLegacyLen)
	}

	f := &FmtChunk{
		FormatTag:      binary.LittleEndian.Uint16(buf[0:2]),
		NumChannels:    binary.LittleEndian.Uint16(buf[2:4]),
		SampleRate:     binary.LittleEndian.Uint32(buf[4:8]),
		AvgBytesPerSec: binary.LittleEndian.Uint32(buf[8:12]),
		BlockAlign:     binary.LittleEndian.Uint16(buf[12:14]),
		BitsPerSample:  binary.LittleEndian.Uint16(buf[14:16]),
	}

	var ext []byte

	if len(buf) >= fmtLegacyLen+2 {
		cbSize := int(binary.LittleEndian.Uint16(buf[16:18]))
		ext = buf[18:]

		if cbSize < len(ext) {
			ext = ext[:cbSize]
		}
	}

	if f.FormatTag != wavFormatExtensible {
		if len(ext) > 0 {
			f.ExtraData = append([]byte(nil), ext...)
		}

		return f, nil
	}

	if len(ext) < fmtExtensionLen {
		return nil, fmt.Errorf("%w: extensible fmt carries a %d byte extension, need %d", ErrMalformedChunk, len(ext), fmtExtensionLen)
	}

	f.Extensible = &FmtExtensible{
		ValidBitsPerSample: binary.LittleEndian.Uint16(ext[0:2]),
		ChannelMask:        binary.LittleEndian.Uint32(ext[2:6]),
	}
	copy(f.Extensible.SubFormat[:], ext[6:22])

	if len(ext) > fmtExtensionLen {
		f.Extensible.ExtraData = append([]byte(nil), ext[fmtExtensionLen:]...)
	}

	return f, nil
}

func (f *FmtChunk) encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, fmtExtensibleLen))

	_ = binary.Write(buf, binary.LittleEndian, f.FormatTag)
	_ = binary.Write(buf, binary.LittleEndian, f.NumChannels)
	_ = binary.Write(buf, binary.LittleEndian, f.SampleRate)
	_ = binary.Write(buf, binary.LittleEndian, f.AvgBytesPerSec)
	_ = binary.Write(buf, binary.LittleEndian, f.BlockAlign)
	_ = binary.Write(buf, binary.LittleEndian, f.BitsPerSample)

	if f.Extensible != nil {
		_ = binary.Write(buf, binary.LittleEndian, uint16(fmtExtensionLen+len(f.Extensible.ExtraData)))
		_ = binary.Write(buf, binary.LittleEndian, f.Extensible.ValidBitsPerSample)
		_ = binary.Write(buf, binary.LittleEndian, f.Extensible.ChannelMask)
		buf.Write(f.Extensible.SubFormat[:])
		buf.Write(f.Extensible.ExtraData)
	} else if len(f.ExtraData) > 0 {
		_ = binary.Write(buf, binary.LittleEndian, uint16(len(f.ExtraData)))
		buf.Write(f.ExtraData)
	}

	return buf.Bytes()
}

// Format derives the unified descriptor from the record.
func (f *FmtChunk) Format() (Format, error) {
	if f == nil {
		return Format{}, fmt.Errorf("%w: nil fmt chunk", ErrMalformedChunk)
	}

	if f.NumChannels == 0 || f.BlockAlign == 0 || f.BlockAlign%f.NumChannels != 0 {
		return Format{}, fmt.Errorf("%w: block align %d does not divide into %d channels", ErrMalformedChunk, f.BlockAlign, f.NumChannels)
	}

	if f.SampleRate == 0 {
		return Format{}, fmt.Errorf("%w: sample rate is zero", ErrMalformedChunk)
	}

	out := Format{
		SampleRate:         f.SampleRate,
		Channels:           f.NumChannels,
		BitsPerSample:      f.BlockAlign / f.NumChannels * 8,
		ValidBitsPerSample: f.BitsPerSample,
	}

	switch f.FormatTag {
	case wavFormatPCM:
		out.SampleFormat = SampleFormatPCM
	case wavFormatIEEEFloat:
		out.SampleFormat = SampleFormatFloat
	case wavFormatExtensible:
		if f.Extensible == nil {
			return Format{}, fmt.Errorf("%w: extensible fmt without extension", ErrMalformedChunk)
		}

		sf, err := sampleFormatFromGUID(f.Extensible.SubFormat)
		if err != nil {
			return Format{}, err
		}

		out.SampleFormat = sf
		out.ChannelMask = ChannelMask(f.Extensible.ChannelMask)
		out.extensible = true

		if f.Extensible.ValidBitsPerSample != 0 {
			out.ValidBitsPerSample = f.Extensible.ValidBitsPerSample
		}
	default:
		return Format{}, fmt.Errorf("%w: format tag 0x%04x", ErrUnsupportedFormat, f.FormatTag)
	}

	if out.ValidBitsPerSample == 0 || out.ValidBitsPerSample > out.BitsPerSample {
		return Format{}, fmt.Errorf("%w: %d valid bits in a %d bit container", ErrMalformedChunk, out.ValidBitsPerSample, out.BitsPerSample)
	}

	if err := out.check(); err != nil {
		return Format{}, err
	}

	return out, nil
}

// newFmtChunk renders the record a writer emits for the format.
func newFmtChunk(format Format) *FmtChunk {
	chunk := &FmtChunk{
		FormatTag:      wavFormatPCM,
		NumChannels:    format.Channels,
		SampleRate:     format.SampleRate,
		AvgBytesPerSec: format.BytesPerSecond(),
		BlockAlign:     format.BlockAlign(),
		BitsPerSample:  format.BitsPerSample,
	}

	if !format.UsesExtensible() {
		return chunk
	}

	var guid uuid.UUID

	switch format.SampleFormat {
	case SampleFormatFloat:
		guid = SubFormatFloat
	case SampleFormatAmbisonicPCM:
		guid = SubFormatAmbisonicPCM
	case SampleFormatAmbisonicFloat:
		guid = SubFormatAmbisonicFloat
	default:
		guid = SubFormatPCM
	}

	chunk.FormatTag = wavFormatExtensible
	chunk.Extensible = &FmtExtensible{
		ValidBitsPerSample: format.ValidBitsPerSample,
		ChannelMask:        uint32(format.ChannelMask),
		SubFormat:          guidToDisk(guid),
	}

	return chunk
}

func sampleFormatFromGUID(disk [16]byte) (SampleFormat, error) {
	switch guid := guidFromDisk(disk); guid {
	case SubFormatAmbisonicPCM:
		return SampleFormatAmbisonicPCM, nil
	case SubFormatAmbisonicFloat:
		return SampleFormatAmbisonicFloat, nil
	}

	tail := makeSubFormatGUID(0)
	if !bytes.Equal(disk[2:], tail[2:]) {
		return 0, fmt.Errorf("%w: sub-format %s", ErrUnsupportedFormat, guidFromDisk(disk))
	}

	switch tag := binary.LittleEndian.Uint16(disk[:2]); tag {
	case wavFormatPCM:
		return SampleFormatPCM, nil
	case wavFormatIEEEFloat:
		return SampleFormatFloat, nil
	default:
		return 0, fmt.Errorf("%w: sub-format tag 0x%04x", ErrUnsupportedFormat, tag)
	}
}

func makeSubFormatGUID(formatTag uint16) [16]byte {
	guid := guidToDisk(SubFormatPCM)
	binary.LittleEndian.PutUint32(guid[:4], uint32(formatTag))

	return guid
}

// guidToDisk reorders the first three GUID fields to little endian.
func guidToDisk(u uuid.UUID) [16]byte {
	var out [16]byte

	copy(out[:], u[:])
	out[0], out[1], out[2], out[3] = u[3], u[2], u[1], u[0]
	out[4], out[5] = u[5], u[4]
	out[6], out[7] = u[7], u[6]

	return out
}

func guidFromDisk(b [16]byte) uuid.UUID {
	var u uuid.UUID

	copy(u[:], b[:])
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]

	return u
}
