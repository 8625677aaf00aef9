package bwav

import (
	"encoding/binary"
	"math"
)

// sampleCodec packs and unpacks samples of one Format.
//
// Integer samples are MSB-justified in their container on disk and
// right-justified in memory. 8-bit containers are unsigned on disk.
type sampleCodec struct {
	width     int
	validBits int
	float     bool
}

func newSampleCodec(f Format) sampleCodec {
	return sampleCodec{
		width:     int(f.bytesPerSample()),
		validBits: int(f.validBits()),
		float:     f.SampleFormat.IsFloat(),
	}
}

func (c sampleCodec) decodeInt(b []byte) int {
	var left uint32

	switch c.width {
	case 1:
		left = uint32(b[0]^0x80) << 24
	case 2:
		left = uint32(binary.LittleEndian.Uint16(b)) << 16
	case 3:
		left = uint32(b[0])<<8 | uint32(b[1])<<16 | uint32(b[2])<<24
	default:
		left = binary.LittleEndian.Uint32(b)
	}

	return int(int32(left) >> (32 - c.validBits))
}

func (c sampleCodec) encodeInt(b []byte, v int) {
	left := uint32(int32(v) << (32 - c.validBits))

	switch c.width {
	case 1:
		b[0] = byte(left>>24) ^ 0x80
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(left>>16))
	case 3:
		b[0] = byte(left >> 8)
		b[1] = byte(left >> 16)
		b[2] = byte(left >> 24)
	default:
		binary.LittleEndian.PutUint32(b, left)
	}
}

func (c sampleCodec) decodeFloat(b []byte) float32 {
	if c.float {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}

	return normalizePCMInt(c.decodeInt(b), c.validBits)
}

func (c sampleCodec) encodeFloat(b []byte, v float32) {
	if c.float {
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		return
	}

	c.encodeInt(b, float32ToPCMInt(v, c.validBits))
}
