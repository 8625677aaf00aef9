package bwav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

var (
	// See http://bwfmetaedit.sourceforge.net/listinfo.html
	markerIART    = FourCC{'I', 'A', 'R', 'T'}
	markerISFT    = FourCC{'I', 'S', 'F', 'T'}
	markerICRD    = FourCC{'I', 'C', 'R', 'D'}
	markerICOP    = FourCC{'I', 'C', 'O', 'P'}
	markerIARL    = FourCC{'I', 'A', 'R', 'L'}
	markerINAM    = FourCC{'I', 'N', 'A', 'M'}
	markerIENG    = FourCC{'I', 'E', 'N', 'G'}
	markerIGNR    = FourCC{'I', 'G', 'N', 'R'}
	markerIPRD    = FourCC{'I', 'P', 'R', 'D'}
	markerISRC    = FourCC{'I', 'S', 'R', 'C'}
	markerISBJ    = FourCC{'I', 'S', 'B', 'J'}
	markerICMT    = FourCC{'I', 'C', 'M', 'T'}
	markerITRK    = FourCC{'I', 'T', 'R', 'K'}
	markerITRKBug = FourCC{'i', 't', 'r', 'k'}
	markerITCH    = FourCC{'I', 'T', 'C', 'H'}
	markerIKEY    = FourCC{'I', 'K', 'E', 'Y'}
	markerIMED    = FourCC{'I', 'M', 'E', 'D'}
)

// Info is the content of a LIST/INFO chunk.
type Info struct {
	Artist       string
	Title        string
	Comments     string
	Copyright    string
	CreationDate string
	Engineer     string
	Technician   string
	Genre        string
	Keywords     string
	Medium       string
	Product      string
	Subject      string
	Software     string
	Source       string
	Location     string
	TrackNbr     string
}

// listEntry is one sub-chunk of a LIST chunk.
type listEntry struct {
	id   FourCC
	data []byte
}

// splitList returns the list type and sub-chunks of a LIST payload.
// A trailing pad byte is ignored.
func splitList(buf []byte) (FourCC, []listEntry, error) {
	var listType FourCC

	if len(buf) < 4 {
		return listType, nil, fmt.Errorf("%w: LIST payload is %d bytes", ErrMalformedChunk, len(buf))
	}

	copy(listType[:], buf[:4])

	var entries []listEntry

	rest := buf[4:]
	for len(rest) >= 8 {
		var id FourCC
		copy(id[:], rest[:4])
		size := int64(binary.LittleEndian.Uint32(rest[4:8]))

		rest = rest[8:]
		if size > int64(len(rest)) {
			return listType, entries, fmt.Errorf("%w: %s sub-chunk %s declares %d bytes, %d remain", ErrMalformedChunk, listType, id, size, len(rest))
		}

		entries = append(entries, listEntry{id: id, data: rest[:size]})

		rest = rest[min(int(size+size&1), len(rest)):]
	}

	return listType, entries, nil
}

// joinList renders a LIST payload from its type and sub-chunks.
func joinList(listType FourCC, entries []listEntry) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(listType[:])

	for _, e := range entries {
		buf.Write(e.id[:])
		_ = binary.Write(buf, binary.LittleEndian, uint32(len(e.data)))
		buf.Write(e.data)

		if len(e.data)%2 == 1 {
			buf.WriteByte(0)
		}
	}

	return buf.Bytes()
}

// DecodeInfoChunk decodes a LIST chunk of type INFO.
func DecodeInfoChunk(ch *riff.Chunk) (*Info, error) {
	buf, err := readChunk(ch, CIDList)
	if err != nil {
		return nil, err
	}

	listType, entries, err := splitList(buf)
	if err != nil {
		return nil, err
	}

	if listType != CIDInfo {
		return nil, fmt.Errorf("%w: LIST type %s is not INFO", ErrChunkNotFound, listType)
	}

	info := &Info{}

	for _, e := range entries {
		val := decodeText(e.data)

		switch e.id {
		case markerIARL:
			info.Location = val
		case markerIART:
			info.Artist = val
		case markerISFT:
			info.Software = val
		case markerICRD:
			info.CreationDate = val
		case markerICOP:
			info.Copyright = val
		case markerINAM:
			info.Title = val
		case markerIENG:
			info.Engineer = val
		case markerIGNR:
			info.Genre = val
		case markerIPRD:
			info.Product = val
		case markerISRC:
			info.Source = val
		case markerISBJ:
			info.Subject = val
		case markerICMT:
			info.Comments = val
		case markerITRK, markerITRKBug:
			info.TrackNbr = val
		case markerITCH:
			info.Technician = val
		case markerIKEY:
			info.Keywords = val
		case markerIMED:
			info.Medium = val
		}
	}

	return info, nil
}

func encodeInfoChunk(info *Info) []byte {
	if info == nil {
		return nil
	}

	// Table-driven approach to reduce cyclomatic complexity
	fields := []struct {
		marker FourCC
		value  string
	}{
		{markerIART, info.Artist},
		{markerICMT, info.Comments},
		{markerICOP, info.Copyright},
		{markerICRD, info.CreationDate},
		{markerIENG, info.Engineer},
		{markerITCH, info.Technician},
		{markerIGNR, info.Genre},
		{markerIKEY, info.Keywords},
		{markerIMED, info.Medium},
		{markerINAM, info.Title},
		{markerIPRD, info.Product},
		{markerISBJ, info.Subject},
		{markerISFT, info.Software},
		{markerISRC, info.Source},
		{markerIARL, info.Location},
		{markerITRK, info.TrackNbr},
	}

	var entries []listEntry

	for _, field := range fields {
		if field.value == "" {
			continue
		}

		entries = append(entries, listEntry{id: field.marker, data: append(encodeText(field.value), 0x00)})
	}

	return joinList(CIDInfo, entries)
}

// readChunk reads the whole payload of a chunk after checking its id.
func readChunk(ch *riff.Chunk, id FourCC) ([]byte, error) {
	if ch == nil {
		return nil, errNilChunk
	}

	if FourCC(ch.ID) != id {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChunkNotFound, id, FourCC(ch.ID))
	}

	buf := make([]byte, ch.Size)

	if _, err := io.ReadFull(ch, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: failed to read the %s chunk - %w", ErrTruncated, id, err)
		}

		return nil, fmt.Errorf("failed to read the %s chunk - %w", id, err)
	}

	return buf, nil
}
