package bwav

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/riff"
)

var errNilReader = errors.New("can't read from a nil reader")

// Reader gives access to the format, metadata and frames of a WAVE file.
// Metadata accessors are independent: a missing or broken chunk only fails
// its own accessor.
type Reader struct {
	r        io.ReadSeeker
	index    *ChunkIndex
	fmtChunk *FmtChunk
	format   Format
	data     Chunk

	// Logger receives warnings about recoverable problems in the file.
	Logger *slog.Logger
}

// NewReader indexes r and parses its format. It fails when the fmt or data
// chunk is missing, when fmt can't be parsed, or when an RF64 container has
// no usable ds64 chunk.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	if r == nil {
		return nil, errNilReader
	}

	index, err := ScanChunks(r)
	if err != nil {
		return nil, err
	}

	rd := &Reader{r: r, index: index, Logger: slog.Default()}

	fmtCh, ok := index.Find(CIDFmt)
	if !ok {
		if index.Err != nil {
			return nil, index.Err
		}

		return nil, fmt.Errorf("%w: fmt", ErrChunkNotFound)
	}

	buf, err := rd.payload(fmtCh)
	if err != nil {
		return nil, err
	}

	rd.fmtChunk, err = decodeFmtChunk(buf)
	if err != nil {
		return nil, err
	}

	rd.format, err = rd.fmtChunk.Format()
	if err != nil {
		return nil, err
	}

	rd.data, ok = index.Find(CIDData)
	if !ok {
		if index.Err != nil {
			return nil, index.Err
		}

		return nil, fmt.Errorf("%w: data", ErrChunkNotFound)
	}

	if ds, ok := index.Find(CIDDS64); ok && index.DS64 != nil && ds.Size > int64(index.DS64.encodedLen()) {
		rd.Logger.Warn("ds64 payload is longer than its table",
			"size", ds.Size, "used", index.DS64.encodedLen())
	}

	return rd, nil
}

// Kind returns the container kind.
func (r *Reader) Kind() ContainerKind {
	return r.index.Kind
}

// Index returns the chunk index of the file.
func (r *Reader) Index() *ChunkIndex {
	return r.index
}

// Format returns the parsed audio format.
func (r *Reader) Format() Format {
	return r.format
}

// FrameCount returns the number of whole frames the data chunk declares.
func (r *Reader) FrameCount() int64 {
	return r.data.Size / int64(r.format.BlockAlign())
}

// Duration returns the playing time of the data chunk.
func (r *Reader) Duration() time.Duration {
	return r.format.FrameDuration(r.FrameCount())
}

// Channels describes every channel of the file. ADM audio IDs are attached
// when a readable chna chunk is present.
func (r *Reader) Channels() []ChannelDescriptor {
	chna, err := r.ChannelAssignment()
	if err != nil {
		chna = nil
	}

	return describeChannels(r.format, chna)
}

// FrameReader returns a new reader positioned at the first frame.
func (r *Reader) FrameReader() *FrameReader {
	return newFrameReader(r.r, r.format, r.data)
}

// BroadcastExtension decodes the bext chunk.
func (r *Reader) BroadcastExtension() (*BroadcastExtension, error) {
	ch, err := r.open(CIDBext)
	if err != nil {
		return nil, err
	}

	return DecodeBroadcastChunk(ch)
}

// Cart decodes the AES46 cart chunk.
func (r *Reader) Cart() (*Cart, error) {
	ch, err := r.open(CIDCart)
	if err != nil {
		return nil, err
	}

	return DecodeCartChunk(ch)
}

// Sampler decodes the smpl chunk.
func (r *Reader) Sampler() (*SamplerInfo, error) {
	ch, err := r.open(CIDSmpl)
	if err != nil {
		return nil, err
	}

	return DecodeSamplerChunk(ch)
}

// IXML returns the iXML document.
func (r *Reader) IXML() (string, error) {
	ch, err := r.open(CIDIXML)
	if err != nil {
		return "", err
	}

	return DecodeXMLChunk(ch)
}

// AXML returns the ADM axml document.
func (r *Reader) AXML() (string, error) {
	ch, err := r.open(CIDAXML)
	if err != nil {
		return "", err
	}

	return DecodeXMLChunk(ch)
}

// ChannelAssignment decodes the chna chunk.
func (r *Reader) ChannelAssignment() (*ChannelAssignment, error) {
	c, ok := r.index.Find(CIDChna)
	if !ok {
		return nil, fmt.Errorf("%w: chna", ErrChunkNotFound)
	}

	buf, err := r.payload(c)
	if err != nil {
		return nil, err
	}

	return decodeChnaChunk(buf)
}

// Cues decodes the cue chunk and joins it with the labl, note and ltxt
// records of every adtl list. Dropped records are reported in
// CueList.Warnings and logged.
func (r *Reader) Cues() (*CueList, error) {
	c, ok := r.index.Find(CIDCue)
	if !ok {
		return nil, fmt.Errorf("%w: cue", ErrChunkNotFound)
	}

	cue, err := r.payload(c)
	if err != nil {
		return nil, err
	}

	var adtl []listEntry

	for _, l := range r.index.FindAll(CIDList) {
		buf, err := r.payload(l)
		if err != nil {
			return nil, err
		}

		listType, entries, err := splitList(buf)
		if err != nil {
			r.logger().Warn("skipping unreadable LIST chunk", "offset", l.Offset, "error", err)
			continue
		}

		if listType == CIDAdtl {
			adtl = append(adtl, entries...)
		}
	}

	list, err := decodeCueList(cue, adtl)
	if err != nil {
		return nil, err
	}

	for _, w := range list.Warnings {
		r.logger().Warn("cue list", "warning", w)
	}

	return list, nil
}

// Info decodes the first LIST chunk of type INFO.
func (r *Reader) Info() (*Info, error) {
	for _, l := range r.index.FindAll(CIDList) {
		ch, err := r.openChunk(l)
		if err != nil {
			return nil, err
		}

		listType, err := sniffListType(ch)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
		}

		if FourCC(listType) == CIDInfo {
			return DecodeInfoChunk(ch)
		}
	}

	return nil, fmt.Errorf("%w: LIST/INFO", ErrChunkNotFound)
}

// ID3 decodes an embedded id3 or ID3 chunk.
func (r *Reader) ID3() (tag.Metadata, error) {
	ch, err := r.open(CIDID3)
	if errors.Is(err, ErrChunkNotFound) {
		ch, err = r.open(CIDID3Upper)
	}

	if err != nil {
		return nil, err
	}

	return DecodeID3Chunk(ch)
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}

// open returns a payload reader for the first chunk with the given id.
func (r *Reader) open(id FourCC) (*riff.Chunk, error) {
	c, ok := r.index.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}

	return r.openChunk(c)
}

func (r *Reader) openChunk(c Chunk) (*riff.Chunk, error) {
	if _, err := r.r.Seek(c.Offset, io.SeekStart); err != nil {
		return nil, ioErr("seek to chunk", err)
	}

	return &riff.Chunk{
		ID:   [4]byte(c.ID),
		Size: int(c.Size),
		R:    io.LimitReader(r.r, c.Size),
	}, nil
}

func (r *Reader) payload(c Chunk) ([]byte, error) {
	buf := make([]byte, c.Size)
	if err := readAt(r.r, c.Offset, buf); err != nil {
		return nil, fmt.Errorf("failed to read the %s chunk - %w", c.ID, err)
	}

	return buf, nil
}

// isCoreChunk reports chunks a Writer regenerates on its own.
func isCoreChunk(id FourCC) bool {
	switch id {
	case CIDFmt, CIDData, CIDDS64, CIDFact, CIDJunk, CIDFllr:
		return true
	}

	return false
}
