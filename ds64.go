package bwav

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// sizeSentinel is the 32-bit size stored in place of a value held by ds64.
	sizeSentinel = 0xFFFFFFFF
	// maxRiffSize is the largest size a writer stores in a 32-bit field.
	maxRiffSize = 0xFFFFFFFE

	ds64FixedLen      = 28
	ds64TableEntryLen = 12
	// ds64Reservation is the JUNK payload a writer leaves for a later ds64.
	ds64Reservation = 92
)

// DS64Entry is one row of the ds64 size table.
type DS64Entry struct {
	ID   FourCC
	Size uint64
}

// DS64 is the 64-bit size table of an RF64/BW64 container.
type DS64 struct {
	RiffSize    uint64
	DataSize    uint64
	SampleCount uint64
	Table       []DS64Entry
}

// Lookup returns the 64-bit size recorded for the chunk id.
func (d *DS64) Lookup(id FourCC) (uint64, bool) {
	if d == nil {
		return 0, false
	}

	if id == CIDData {
		return d.DataSize, true
	}

	for _, e := range d.Table {
		if e.ID == id {
			return e.Size, true
		}
	}

	return 0, false
}

func decodeDS64(buf []byte) (*DS64, error) {
	if len(buf) < ds64FixedLen {
		return nil, fmt.Errorf("%w: ds64 payload is %d bytes, need %d", ErrMalformedChunk, len(buf), ds64FixedLen)
	}

	d := &DS64{
		RiffSize:    binary.LittleEndian.Uint64(buf[0:8]),
		DataSize:    binary.LittleEndian.Uint64(buf[8:16]),
		SampleCount: binary.LittleEndian.Uint64(buf[16:24]),
	}

	count := binary.LittleEndian.Uint32(buf[24:28])
	if uint64(count)*ds64TableEntryLen > uint64(len(buf)-ds64FixedLen) {
		return nil, fmt.Errorf("%w: ds64 declares %d table entries in %d bytes", ErrMalformedChunk, count, len(buf))
	}

	if count > 0 {
		d.Table = make([]DS64Entry, count)
	}

	off := ds64FixedLen
	for i := range d.Table {
		copy(d.Table[i].ID[:], buf[off:off+4])
		d.Table[i].Size = binary.LittleEndian.Uint64(buf[off+4 : off+12])
		off += ds64TableEntryLen
	}

	return d, nil
}

func (d *DS64) encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, d.encodedLen()))

	_ = binary.Write(buf, binary.LittleEndian, d.RiffSize)
	_ = binary.Write(buf, binary.LittleEndian, d.DataSize)
	_ = binary.Write(buf, binary.LittleEndian, d.SampleCount)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(d.Table)))

	for _, e := range d.Table {
		buf.Write(e.ID[:])
		_ = binary.Write(buf, binary.LittleEndian, e.Size)
	}

	return buf.Bytes()
}

func (d *DS64) encodedLen() int {
	return ds64FixedLen + ds64TableEntryLen*len(d.Table)
}

// encodeDS64Reservation renders the ds64 chunk followed by a JUNK filler so
// the pair occupies exactly 8+reserved bytes, the footprint of the JUNK
// reservation it replaces.
func encodeDS64Reservation(d *DS64, reserved int) ([]byte, error) {
	payload := d.encode()
	if len(payload) > reserved {
		return nil, fmt.Errorf("%w: ds64 needs %d bytes, %d reserved", ErrSizeMismatch, len(payload), reserved)
	}

	out := bytes.NewBuffer(make([]byte, 0, reserved+8))
	out.Write(CIDDS64[:])
	_ = binary.Write(out, binary.LittleEndian, uint32(len(payload)))
	out.Write(payload)

	left := reserved - len(payload)
	if left >= 8 {
		out.Write(CIDJunk[:])
		_ = binary.Write(out, binary.LittleEndian, uint32(left-8))
		out.Write(make([]byte, left-8))
	} else {
		// too small for a filler header, so the ds64 payload absorbs the rest
		out.Reset()
		out.Write(CIDDS64[:])
		_ = binary.Write(out, binary.LittleEndian, uint32(reserved))
		out.Write(payload)
		out.Write(make([]byte, left))
	}

	return out.Bytes(), nil
}
