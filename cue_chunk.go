package bwav

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	cueRecordLen     = 24
	adtlTextMinLen   = 4
	ltxtHeaderLen    = 20
	cueCountFieldLen = 4
)

// CuePoint is a marker joined from the cue chunk and the adtl list.
type CuePoint struct {
	ID uint32
	// Frame is the marker position in frames from the start of the data.
	Frame      uint32
	ChunkID    FourCC
	ChunkStart uint32
	BlockStart uint32
	Label      string
	Note       string
	// Region is set when an ltxt record references the cue.
	Region *CueRegion
}

// CueRegion is the ltxt record of a cue point.
type CueRegion struct {
	Length   uint32
	Purpose  FourCC
	Country  uint16
	Language uint16
	Dialect  uint16
	CodePage uint16
	Text     string
}

// CueList is the set of cue points of a file. Warnings lists adtl records
// that were dropped while joining.
type CueList struct {
	Points   []CuePoint
	Warnings []string
}

// Find returns the cue point with the given id.
func (c *CueList) Find(id uint32) (*CuePoint, bool) {
	if c == nil {
		return nil, false
	}

	for i := range c.Points {
		if c.Points[i].ID == id {
			return &c.Points[i], true
		}
	}

	return nil, false
}

func decodeCueList(cue []byte, adtl []listEntry) (*CueList, error) {
	if len(cue) < cueCountFieldLen {
		return nil, fmt.Errorf("%w: cue payload is %d bytes", ErrMalformedChunk, len(cue))
	}

	count := uint64(binary.LittleEndian.Uint32(cue[:4]))
	if count*cueRecordLen > uint64(len(cue)-cueCountFieldLen) {
		return nil, fmt.Errorf("%w: cue declares %d points in %d bytes", ErrMalformedChunk, count, len(cue))
	}

	list := &CueList{}
	byID := make(map[uint32]int, count)

	off := cueCountFieldLen
	for n := uint64(0); n < count; n++ {
		rec := cue[off : off+cueRecordLen]
		off += cueRecordLen

		p := CuePoint{
			ID:         binary.LittleEndian.Uint32(rec[0:4]),
			Frame:      binary.LittleEndian.Uint32(rec[20:24]),
			ChunkStart: binary.LittleEndian.Uint32(rec[12:16]),
			BlockStart: binary.LittleEndian.Uint32(rec[16:20]),
		}
		copy(p.ChunkID[:], rec[8:12])

		if p.Frame == 0 {
			p.Frame = binary.LittleEndian.Uint32(rec[4:8])
		}

		if _, dup := byID[p.ID]; dup {
			list.Warnings = append(list.Warnings, fmt.Sprintf("duplicate cue id %d dropped", p.ID))
			continue
		}

		byID[p.ID] = len(list.Points)
		list.Points = append(list.Points, p)
	}

	for _, e := range adtl {
		if e.id != CIDLabl && e.id != CIDNote && e.id != CIDLtxt {
			continue
		}

		if len(e.data) < adtlTextMinLen || (e.id == CIDLtxt && len(e.data) < ltxtHeaderLen) {
			list.Warnings = append(list.Warnings, fmt.Sprintf("short %s record of %d bytes dropped", e.id, len(e.data)))
			continue
		}

		id := binary.LittleEndian.Uint32(e.data[0:4])

		idx, ok := byID[id]
		if !ok {
			list.Warnings = append(list.Warnings, fmt.Sprintf("%s record for unknown cue id %d dropped", e.id, id))
			continue
		}

		p := &list.Points[idx]

		switch e.id {
		case CIDLabl:
			if p.Label == "" {
				p.Label = decodeText(e.data[4:])
			}
		case CIDNote:
			if p.Note == "" {
				p.Note = decodeText(e.data[4:])
			}
		case CIDLtxt:
			if p.Region != nil {
				continue
			}

			r := &CueRegion{
				Length:   binary.LittleEndian.Uint32(e.data[4:8]),
				Country:  binary.LittleEndian.Uint16(e.data[12:14]),
				Language: binary.LittleEndian.Uint16(e.data[14:16]),
				Dialect:  binary.LittleEndian.Uint16(e.data[16:18]),
				CodePage: binary.LittleEndian.Uint16(e.data[18:20]),
				Text:     decodeText(e.data[ltxtHeaderLen:]),
			}
			copy(r.Purpose[:], e.data[8:12])

			p.Region = r
		}
	}

	return list, nil
}

// encodeCueList renders the cue payload and, when any point carries text
// or a region, the adtl LIST payload.
func encodeCueList(points []CuePoint) ([]byte, []byte, error) {
	seen := make(map[uint32]struct{}, len(points))

	cue := bytes.NewBuffer(make([]byte, 0, cueCountFieldLen+cueRecordLen*len(points)))
	_ = binary.Write(cue, binary.LittleEndian, uint32(len(points)))

	var adtl []listEntry

	for _, p := range points {
		if _, dup := seen[p.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate cue id %d", ErrMalformedChunk, p.ID)
		}

		seen[p.ID] = struct{}{}

		chunkID := p.ChunkID
		if chunkID == (FourCC{}) {
			chunkID = CIDData
		}

		_ = binary.Write(cue, binary.LittleEndian, p.ID)
		_ = binary.Write(cue, binary.LittleEndian, p.Frame)
		cue.Write(chunkID[:])
		_ = binary.Write(cue, binary.LittleEndian, p.ChunkStart)
		_ = binary.Write(cue, binary.LittleEndian, p.BlockStart)
		_ = binary.Write(cue, binary.LittleEndian, p.Frame)

		if p.Label != "" {
			adtl = append(adtl, listEntry{id: CIDLabl, data: adtlText(p.ID, p.Label)})
		}

		if p.Note != "" {
			adtl = append(adtl, listEntry{id: CIDNote, data: adtlText(p.ID, p.Note)})
		}

		if r := p.Region; r != nil {
			purpose := r.Purpose
			if purpose == (FourCC{}) {
				purpose = CIDRgn
			}

			ltxt := bytes.NewBuffer(binary.LittleEndian.AppendUint32(nil, p.ID))
			_ = binary.Write(ltxt, binary.LittleEndian, r.Length)
			ltxt.Write(purpose[:])
			_ = binary.Write(ltxt, binary.LittleEndian, []uint16{r.Country, r.Language, r.Dialect, r.CodePage})

			if r.Text != "" {
				ltxt.Write(append(encodeText(r.Text), 0))
			}

			adtl = append(adtl, listEntry{id: CIDLtxt, data: ltxt.Bytes()})
		}
	}

	if len(adtl) == 0 {
		return cue.Bytes(), nil, nil
	}

	return cue.Bytes(), joinList(CIDAdtl, adtl), nil
}

func adtlText(id uint32, s string) []byte {
	out := binary.LittleEndian.AppendUint32(nil, id)
	out = append(out, encodeText(s)...)

	return append(out, 0)
}
