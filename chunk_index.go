package bwav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ContainerKind distinguishes 32-bit RIFF files from 64-bit RF64/BW64 files.
type ContainerKind int

const (
	KindRIFF ContainerKind = iota
	KindRF64
)

func (k ContainerKind) String() string {
	switch k {
	case KindRIFF:
		return "RIFF"
	case KindRF64:
		return "RF64"
	default:
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
}

// Chunk locates one chunk in the source.
type Chunk struct {
	ID FourCC
	// Offset is the absolute position of the first payload byte.
	Offset int64
	// Size is the payload length after ds64 resolution, without the pad byte.
	Size int64
	// Oversize is set when the 32-bit header size held the ds64 sentinel.
	Oversize bool
}

// End returns the offset just past the chunk payload and its pad byte.
func (c Chunk) End() int64 {
	return c.Offset + c.Size + c.Size&1
}

// ChunkIndex is the ordered chunk list of a container.
type ChunkIndex struct {
	Kind ContainerKind
	// Signature is the master header identifier (RIFF, RF64 or BW64).
	Signature FourCC
	// FormSize is the declared size of the master chunk, from ds64 for RF64.
	FormSize uint64
	// Length is the number of bytes the source holds.
	Length int64
	Chunks []Chunk
	DS64   *DS64
	// Err is set when the scan stopped early on a truncated chunk. The
	// chunks recorded before and including the truncated one are kept.
	Err error
}

// Find returns the first chunk with the given id.
func (x *ChunkIndex) Find(id FourCC) (Chunk, bool) {
	if x == nil {
		return Chunk{}, false
	}

	for _, c := range x.Chunks {
		if c.ID == id {
			return c, true
		}
	}

	return Chunk{}, false
}

// FindAll returns every chunk with the given id, in file order.
func (x *ChunkIndex) FindAll(id FourCC) []Chunk {
	if x == nil {
		return nil
	}

	var out []Chunk

	for _, c := range x.Chunks {
		if c.ID == id {
			out = append(out, c)
		}
	}

	return out
}

// position returns the index of the first chunk with the given id or -1.
func (x *ChunkIndex) position(id FourCC) int {
	for i, c := range x.Chunks {
		if c.ID == id {
			return i
		}
	}

	return -1
}

// ScanChunks walks the chunk headers of a WAVE container. Only the master
// header, the chunk headers and the ds64 payload are read.
//
// A chunk that runs past the end of the source is recorded and ends the scan
// with ChunkIndex.Err set to ErrTruncated. Errors returned directly mean the
// container can't be indexed at all.
func ScanChunks(r io.ReadSeeker) (*ChunkIndex, error) {
	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, ioErr("seek to end", err)
	}

	var hdr [12]byte
	if err := readAt(r, 0, hdr[:]); err != nil {
		if errors.Is(err, ErrTruncated) {
			return nil, fmt.Errorf("%w: %d bytes is too short for a master header", ErrTruncated, length)
		}

		return nil, err
	}

	index := &ChunkIndex{Length: length}
	copy(index.Signature[:], hdr[0:4])

	switch index.Signature {
	case CIDRiff:
		index.Kind = KindRIFF
	case CIDRF64, CIDBW64:
		index.Kind = KindRF64
	default:
		return nil, fmt.Errorf("%w: unknown master header %s", ErrMalformedChunk, index.Signature)
	}

	index.FormSize = uint64(binary.LittleEndian.Uint32(hdr[4:8]))

	if form := FourCC(hdr[8:12]); form != CIDWave {
		return nil, fmt.Errorf("%w: form type %s", ErrUnsupportedFormat, form)
	}

	pos := int64(12)
	for pos+8 <= length {
		var chdr [8]byte
		if err := readAt(r, pos, chdr[:]); err != nil {
			return nil, err
		}

		size32 := binary.LittleEndian.Uint32(chdr[4:8])
		ch := Chunk{
			ID:       FourCC(chdr[0:4]),
			Offset:   pos + 8,
			Size:     int64(size32),
			Oversize: size32 == sizeSentinel,
		}

		if ch.ID == CIDDS64 && index.Kind == KindRF64 && index.DS64 == nil {
			if ch.Offset+ch.Size > length {
				index.Chunks = append(index.Chunks, ch)
				index.Err = fmt.Errorf("%w: ds64 declares %d bytes, %d remain", ErrTruncated, ch.Size, length-ch.Offset)

				break
			}

			buf := make([]byte, ch.Size)
			if err := readAt(r, ch.Offset, buf); err != nil {
				return nil, err
			}

			ds64, err := decodeDS64(buf)
			if err != nil {
				return nil, err
			}

			index.DS64 = ds64
		}

		if ch.Oversize && index.Kind == KindRF64 {
			if index.DS64 == nil {
				return nil, fmt.Errorf("%w: oversize chunk %s precedes ds64", ErrMalformedChunk, ch.ID)
			}

			size, ok := index.DS64.Lookup(ch.ID)
			if !ok {
				return nil, fmt.Errorf("%w: oversize chunk %s has no ds64 entry", ErrMalformedChunk, ch.ID)
			}

			ch.Size = int64(size)
		}

		index.Chunks = append(index.Chunks, ch)

		if ch.Offset+ch.Size > length {
			index.Err = fmt.Errorf("%w: chunk %s declares %d bytes, %d remain", ErrTruncated, ch.ID, ch.Size, length-ch.Offset)
			break
		}

		pos = ch.End()
	}

	if index.Kind == KindRF64 {
		if index.DS64 == nil {
			return nil, fmt.Errorf("%w: %s container without ds64", ErrMalformedChunk, index.Signature)
		}

		index.FormSize = index.DS64.RiffSize
	}

	return index, nil
}

func readAt(r io.ReadSeeker, off int64, buf []byte) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return ioErr("seek", err)
	}

	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: reading %d bytes at %d: %w", ErrTruncated, len(buf), off, err)
		}

		return ioErr("read", err)
	}

	return nil
}
