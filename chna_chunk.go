package bwav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	chnaHeaderLen   = 4
	chnaRecordLen   = 40
	chnaUIDLen      = 12
	chnaTrackRefLen = 14
	chnaPackRefLen  = 11
)

// ADMAudioID links a channel to ADM metadata in the axml chunk.
type ADMAudioID struct {
	// TrackIndex is the 1-based channel number.
	TrackIndex uint16
	// UID is the audioTrackUID, for example "ATU_00000001".
	UID string
	// TrackRef references an audioTrackFormat or audioChannelFormat.
	TrackRef string
	// PackRef references an audioPackFormat.
	PackRef string
}

// ChannelAssignment is the content of a chna chunk.
type ChannelAssignment struct {
	AudioIDs []ADMAudioID
}

// NumTracks returns the number of distinct tracks the assignment references.
func (c *ChannelAssignment) NumTracks() int {
	if c == nil {
		return 0
	}

	seen := make(map[uint16]struct{}, len(c.AudioIDs))
	for _, id := range c.AudioIDs {
		seen[id.TrackIndex] = struct{}{}
	}

	return len(seen)
}

func decodeChnaChunk(buf []byte) (*ChannelAssignment, error) {
	if len(buf) < chnaHeaderLen {
		return nil, fmt.Errorf("%w: chna payload is %d bytes", ErrMalformedChunk, len(buf))
	}

	count := int(binary.LittleEndian.Uint16(buf[2:4]))
	if count*chnaRecordLen > len(buf)-chnaHeaderLen {
		return nil, fmt.Errorf("%w: chna declares %d ids in %d bytes", ErrMalformedChunk, count, len(buf))
	}

	out := &ChannelAssignment{AudioIDs: make([]ADMAudioID, count)}

	off := chnaHeaderLen
	for i := range out.AudioIDs {
		rec := buf[off : off+chnaRecordLen]
		field := rec[2:]

		out.AudioIDs[i] = ADMAudioID{
			TrackIndex: binary.LittleEndian.Uint16(rec[0:2]),
			UID:        nullTermStr(field[:chnaUIDLen]),
			TrackRef:   nullTermStr(field[chnaUIDLen : chnaUIDLen+chnaTrackRefLen]),
			PackRef:    nullTermStr(field[chnaUIDLen+chnaTrackRefLen : chnaUIDLen+chnaTrackRefLen+chnaPackRefLen]),
		}

		off += chnaRecordLen
	}

	return out, nil
}

func encodeChnaChunk(c *ChannelAssignment) []byte {
	if c == nil {
		return nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, chnaHeaderLen+chnaRecordLen*len(c.AudioIDs)))

	_ = binary.Write(buf, binary.LittleEndian, uint16(c.NumTracks()))
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(c.AudioIDs)))

	writeFixed := func(s string, n int) {
		raw := make([]byte, n)
		copy(raw, strings.ToValidUTF8(s, ""))
		buf.Write(raw)
	}

	for _, id := range c.AudioIDs {
		_ = binary.Write(buf, binary.LittleEndian, id.TrackIndex)
		writeFixed(id.UID, chnaUIDLen)
		writeFixed(id.TrackRef, chnaTrackRefLen)
		writeFixed(id.PackRef, chnaPackRefLen)
		buf.WriteByte(0)
	}

	return buf.Bytes()
}
