package bwav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
)

// WriterState is the lifecycle stage of a Writer.
type WriterState int

const (
	// WriterBuilding accepts frames and metadata.
	WriterBuilding WriterState = iota
	// WriterFinalizing is entered by Close while sizes are patched.
	WriterFinalizing
	// WriterSealed rejects every further call.
	WriterSealed
)

func (s WriterState) String() string {
	switch s {
	case WriterBuilding:
		return "building"
	case WriterFinalizing:
		return "finalizing"
	case WriterSealed:
		return "sealed"
	default:
		return fmt.Sprintf("WriterState(%d)", int(s))
	}
}

var (
	errNilBuffer = errors.New("can't add a nil buffer")
	errNilWriter = errors.New("can't write to a nil writer")
	errCoreChunk = errors.New("core chunks are written by the Writer")
)

// Writer writes a WAVE file. The container starts out as RIFF with a JUNK
// chunk reserving room for a ds64 chunk; Close promotes it to RF64 when the
// final sizes don't fit 32 bits.
type Writer struct {
	w   io.WriteSeeker
	dst io.Writer
	mem *memWriteSeeker

	format   Format
	codec    sampleCodec
	fmtChunk *FmtChunk

	// Signature is the master header of a promoted file, RF64 or BW64.
	// It defaults to RF64.
	Signature FourCC
	// ForceRF64 promotes the file on Close whatever its size.
	ForceRF64 bool
	// DataAlignment, when non-zero, inserts an FLLR chunk so the data
	// payload starts at a multiple of it.
	DataAlignment int64

	registry ChunkRegistry
	state    WriterState
	// maxSize is the largest size kept in a 32-bit field.
	maxSize uint64

	WrittenBytes int64
	wroteHeader  bool
	dataStarted  bool
	dataSizePos  int64
	factSizePos  int64
	dataBytes    int64
	frames       int64
	scratch      []byte
}

// NewWriter creates a Writer patching sizes in place through w.
func NewWriter(w io.WriteSeeker, format Format) (*Writer, error) {
	if w == nil {
		return nil, errNilWriter
	}

	if err := format.check(); err != nil {
		return nil, err
	}

	return &Writer{
		w:         w,
		format:    format,
		codec:     newSampleCodec(format),
		fmtChunk:  newFmtChunk(format),
		Signature: CIDRF64,
		maxSize:   maxRiffSize,
	}, nil
}

// NewBufferedWriter creates a Writer for destinations that can't seek. The
// file is assembled in memory and copied to dst by Close.
func NewBufferedWriter(dst io.Writer, format Format) (*Writer, error) {
	if dst == nil {
		return nil, errNilWriter
	}

	mem := &memWriteSeeker{}

	w, err := NewWriter(mem, format)
	if err != nil {
		return nil, err
	}

	w.dst = dst
	w.mem = mem

	return w, nil
}

// NewWriterFromReader creates a Writer with the format record and the
// preserved chunks of r, for round-trip rewrites.
func NewWriterFromReader(w io.WriteSeeker, r *Reader) (*Writer, error) {
	if r == nil {
		return nil, errNilReader
	}

	wr, err := NewWriter(w, r.Format())
	if err != nil {
		return nil, err
	}

	wr.fmtChunk = r.FormatChunk()
	if r.Kind() == KindRF64 {
		wr.Signature = r.index.Signature
	}

	chunks, err := r.RawChunks()
	if err != nil {
		return nil, err
	}

	keyed := map[string]bool{}

	for _, c := range chunks {
		key := preservedChunkKey(c)
		if keyed[key] {
			key = ""
		}

		if key != "" {
			keyed[key] = true
		}

		if err := wr.queue(key, c.Clone(), c.BeforeData); err != nil {
			return nil, err
		}
	}

	return wr, nil
}

// preservedChunkKey returns the setter key of a chunk copied from a source
// file, so SetInfo and friends replace it in place. Unknown chunks get no
// key.
func preservedChunkKey(c RawChunk) string {
	switch c.ID {
	case CIDBext, CIDCart, CIDSmpl, CIDIXML, CIDAXML, CIDChna, CIDCue:
		return c.ID.String()
	case CIDID3, CIDID3Upper:
		return "id3 "
	case CIDList:
		if len(c.Data) < 4 {
			return ""
		}

		switch FourCC(c.Data[:4]) {
		case CIDInfo:
			return "LIST/INFO"
		case CIDAdtl:
			return "LIST/adtl"
		}
	}

	return ""
}

// Format returns the format the Writer was created with.
func (w *Writer) Format() Format {
	return w.format
}

// State returns the lifecycle stage of the Writer.
func (w *Writer) State() WriterState {
	return w.state
}

// FramesWritten returns the number of frames written so far.
func (w *Writer) FramesWritten() int64 {
	return w.frames
}

// addLE serializes and adds the passed value using little endian.
func (w *Writer) addLE(src any) error {
	w.WrittenBytes += int64(binary.Size(src))

	err := binary.Write(w.w, binary.LittleEndian, src)
	if err != nil {
		return ioErr("write", err)
	}

	return nil
}

func (w *Writer) addBytes(p []byte) error {
	n, err := w.w.Write(p)
	w.WrittenBytes += int64(n)

	if err != nil {
		return ioErr("write", err)
	}

	return nil
}

func (w *Writer) writeRawChunk(chunk RawChunk) error {
	size := uint32(len(chunk.Data))

	err := w.addBytes(chunk.ID[:])
	if err != nil {
		return fmt.Errorf("failed to write raw chunk id %s: %w", chunk.ID, err)
	}

	err = w.addLE(size)
	if err != nil {
		return fmt.Errorf("failed to write raw chunk size %s: %w", chunk.ID, err)
	}

	if len(chunk.Data) > 0 {
		if err := w.addBytes(chunk.Data); err != nil {
			return fmt.Errorf("failed to write raw chunk payload %s: %w", chunk.ID, err)
		}
	}

	if size%2 == 1 {
		if err := w.addBytes([]byte{0}); err != nil {
			return fmt.Errorf("failed to write raw chunk padding %s: %w", chunk.ID, err)
		}
	}

	return nil
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}

	w.wroteHeader = true

	if err := w.addBytes(CIDRiff[:]); err != nil {
		return err
	}

	// file size uint32, to update later on.
	if err := w.addLE(uint32(sizeSentinel)); err != nil {
		return err
	}

	if err := w.addBytes(CIDWave[:]); err != nil {
		return err
	}

	if err := w.writeRawChunk(RawChunk{ID: CIDJunk, Data: make([]byte, ds64Reservation)}); err != nil {
		return fmt.Errorf("failed to write the ds64 reservation - %w", err)
	}

	if err := w.writeRawChunk(RawChunk{ID: CIDFmt, Data: w.fmtChunk.encode()}); err != nil {
		return fmt.Errorf("failed to write the fmt chunk - %w", err)
	}

	if w.fmtChunk.EffectiveFormatTag() != wavFormatPCM {
		w.factSizePos = w.WrittenBytes + 8

		if err := w.writeRawChunk(RawChunk{ID: CIDFact, Data: make([]byte, 4)}); err != nil {
			return fmt.Errorf("failed to write the fact chunk - %w", err)
		}
	}

	return nil
}

// beginData writes everything that precedes the first frame.
func (w *Writer) beginData() error {
	if w.dataStarted {
		return nil
	}

	if err := w.writeHeader(); err != nil {
		return err
	}

	for _, chunk := range w.registry.pending(true) {
		if err := w.writeRawChunk(chunk); err != nil {
			return fmt.Errorf("error encoding pre-data chunks %w", err)
		}
	}

	if w.DataAlignment > 0 {
		// FLLR header, filler, then the data header
		fill := (w.DataAlignment - (w.WrittenBytes+16)%w.DataAlignment) % w.DataAlignment
		if err := w.writeRawChunk(RawChunk{ID: CIDFllr, Data: make([]byte, fill)}); err != nil {
			return fmt.Errorf("failed to write the FLLR chunk - %w", err)
		}
	}

	if err := w.addBytes(CIDData[:]); err != nil {
		return fmt.Errorf("error encoding sound header %w", err)
	}

	w.dataStarted = true

	// write a temporary chunksize
	w.dataSizePos = w.WrittenBytes

	if err := w.addLE(uint32(sizeSentinel)); err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	return nil
}

func (w *Writer) checkBuffer(f *audio.Format, samples int) (int, error) {
	if w.state != WriterBuilding {
		return 0, ErrWriterSealed
	}

	channels := int(w.format.Channels)
	if f != nil && f.NumChannels != channels {
		return 0, fmt.Errorf("%w: buffer has %d channels, writer has %d", ErrSizeMismatch, f.NumChannels, channels)
	}

	if samples%channels != 0 {
		return 0, fmt.Errorf("%w: %d samples is not a whole number of %d channel frames", ErrSizeMismatch, samples, channels)
	}

	return samples / channels, nil
}

// WriteInt appends the frames of buf. Samples are right-justified values of
// ValidBitsPerSample bits and are truncated to that width.
func (w *Writer) WriteInt(buf *audio.IntBuffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if w.format.SampleFormat.IsFloat() {
		return fmt.Errorf("%w: integer samples for a %s file", ErrUnsupportedFormat, w.format.SampleFormat)
	}

	frames, err := w.checkBuffer(buf.Format, len(buf.Data))
	if err != nil {
		return err
	}

	raw := w.frameBuffer(len(buf.Data))
	for i, v := range buf.Data {
		w.codec.encodeInt(raw[i*w.codec.width:], v)
	}

	return w.writeFrames(raw, frames)
}

// WriteFloat32 appends the frames of buf. Float files store the samples
// verbatim; integer files quantise them with clamping to [-1, 1].
func (w *Writer) WriteFloat32(buf *audio.Float32Buffer) error {
	if buf == nil {
		return errNilBuffer
	}

	frames, err := w.checkBuffer(buf.Format, len(buf.Data))
	if err != nil {
		return err
	}

	raw := w.frameBuffer(len(buf.Data))
	for i, v := range buf.Data {
		w.codec.encodeFloat(raw[i*w.codec.width:], v)
	}

	return w.writeFrames(raw, frames)
}

func (w *Writer) frameBuffer(samples int) []byte {
	size := samples * w.codec.width
	if cap(w.scratch) < size {
		w.scratch = make([]byte, size)
	}

	return w.scratch[:size]
}

func (w *Writer) writeFrames(raw []byte, frames int) error {
	if err := w.beginData(); err != nil {
		return err
	}

	if err := w.addBytes(raw); err != nil {
		return fmt.Errorf("failed to write frames: %w", err)
	}

	w.dataBytes += int64(len(raw))
	w.frames += int64(frames)

	return nil
}

func (w *Writer) queue(key string, enc ChunkEncoder, beforeData bool) error {
	if w.state != WriterBuilding {
		return ErrWriterSealed
	}

	if w.dataStarted {
		beforeData = false
	}

	return w.registry.Register(key, enc, beforeData)
}

// SetBroadcastExtension attaches a bext chunk.
func (w *Writer) SetBroadcastExtension(bext *BroadcastExtension) error {
	if bext == nil {
		return w.unset("bext")
	}

	return w.queue("bext", bextChunkHandler{bext: bext.Clone()}, true)
}

// SetCart attaches an AES46 cart chunk.
func (w *Writer) SetCart(cart *Cart) error {
	if cart == nil {
		return w.unset("cart")
	}

	cp := *cart
	cp.Reserved = append([]byte(nil), cart.Reserved...)

	return w.queue("cart", cartChunkHandler{cart: &cp}, true)
}

// SetSampler attaches a smpl chunk.
func (w *Writer) SetSampler(smpl *SamplerInfo) error {
	if smpl == nil {
		return w.unset("smpl")
	}

	cp := *smpl
	cp.Loops = append([]SampleLoop(nil), smpl.Loops...)
	cp.SamplerData = append([]byte(nil), smpl.SamplerData...)

	return w.queue("smpl", samplerChunkHandler{smpl: &cp}, true)
}

// SetIXML attaches an iXML chunk.
func (w *Writer) SetIXML(doc string) error {
	return w.queue("iXML", encodedChunk{id: CIDIXML, data: []byte(doc)}, true)
}

// SetAXML attaches an ADM axml chunk.
func (w *Writer) SetAXML(doc string) error {
	return w.queue("axml", encodedChunk{id: CIDAXML, data: []byte(doc)}, true)
}

// SetChannelAssignment attaches an ADM chna chunk. Track indexes are 1-based
// and must address a channel of the format.
func (w *Writer) SetChannelAssignment(chna *ChannelAssignment) error {
	if chna == nil {
		return w.unset("chna")
	}

	for _, id := range chna.AudioIDs {
		if id.TrackIndex == 0 || id.TrackIndex > w.format.Channels {
			return fmt.Errorf("%w: chna track index %d with %d channels", ErrMalformedChunk, id.TrackIndex, w.format.Channels)
		}
	}

	cp := &ChannelAssignment{AudioIDs: append([]ADMAudioID(nil), chna.AudioIDs...)}

	return w.queue("chna", chnaChunkHandler{chna: cp}, true)
}

// SetCues attaches a cue chunk and, for points with a label, note or region,
// an adtl LIST chunk. Cue ids must be unique.
func (w *Writer) SetCues(points []CuePoint) error {
	cue, adtl, err := encodeCueList(points)
	if err != nil {
		return err
	}

	if err := w.queue("cue ", encodedChunk{id: CIDCue, data: cue}, true); err != nil {
		return err
	}

	if adtl == nil {
		return w.unset("LIST/adtl")
	}

	return w.queue("LIST/adtl", encodedChunk{id: CIDList, data: adtl}, true)
}

// SetInfo attaches a LIST/INFO chunk.
func (w *Writer) SetInfo(info *Info) error {
	if info == nil {
		return w.unset("LIST/INFO")
	}

	return w.queue("LIST/INFO", listChunkHandler{info: info}, true)
}

// SetID3 attaches an id3 chunk.
func (w *Writer) SetID3(t *ID3Tag) error {
	if t.empty() {
		return w.unset("id3 ")
	}

	cp := *t

	return w.queue("id3 ", id3ChunkHandler{tag: &cp}, true)
}

// AddRawChunk queues a chunk verbatim. Chunks added once frames were written
// go after the data chunk.
func (w *Writer) AddRawChunk(chunk RawChunk) error {
	switch chunk.ID {
	case CIDFmt, CIDData, CIDDS64, CIDFact, CIDRiff, CIDRF64, CIDBW64:
		return fmt.Errorf("%w: %s", errCoreChunk, chunk.ID)
	}

	return w.queue("", chunk.Clone(), chunk.BeforeData)
}

// RegisterChunk queues a custom chunk under key. A later call with the same
// key replaces the chunk until it has been written.
func (w *Writer) RegisterChunk(key string, enc ChunkEncoder) error {
	if enc == nil {
		return nil
	}

	switch enc.ChunkID() {
	case CIDFmt, CIDData, CIDDS64, CIDFact:
		return fmt.Errorf("%w: %s", errCoreChunk, enc.ChunkID())
	}

	return w.queue(key, enc, true)
}

func (w *Writer) unset(key string) error {
	if w.state != WriterBuilding {
		return ErrWriterSealed
	}

	w.registry.Remove(key)

	return nil
}

// Close finishes the file: it pads the data chunk, writes metadata queued
// after the first frame, patches every size and promotes the container to
// RF64 when needed. The underlying writer is NOT closed.
func (w *Writer) Close() error {
	if w == nil || w.w == nil {
		return nil
	}

	if w.state != WriterBuilding {
		return ErrWriterSealed
	}

	w.state = WriterFinalizing
	defer func() { w.state = WriterSealed }()

	if err := w.beginData(); err != nil {
		return err
	}

	if w.dataBytes%2 == 1 {
		if err := w.addBytes([]byte{0}); err != nil {
			return fmt.Errorf("failed to pad the data chunk: %w", err)
		}
	}

	for _, chunk := range w.registry.pending(false) {
		if err := w.writeRawChunk(chunk); err != nil {
			return fmt.Errorf("failed to write post-data chunks: %w", err)
		}
	}

	if err := w.patchSizes(); err != nil {
		return err
	}

	// jump back to the end of the file.
	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return ioErr("seek to end of file", err)
	}

	if w.mem != nil {
		if _, err := w.dst.Write(w.mem.Bytes()); err != nil {
			return ioErr("copy buffered file", err)
		}
	}

	if f, ok := w.w.(*os.File); ok {
		return f.Sync()
	}

	return nil
}

func (w *Writer) patchSizes() error {
	riffSize := uint64(w.WrittenBytes - 8)
	dataSize := uint64(w.dataBytes)
	frames := uint64(w.frames)

	promote := w.ForceRF64 || riffSize > w.maxSize || dataSize > w.maxSize

	size32 := func(v uint64) uint32 {
		if promote && v > w.maxSize {
			return sizeSentinel
		}

		return uint32(v)
	}

	if promote {
		sig := w.Signature
		if sig != CIDBW64 {
			sig = CIDRF64
		}

		if err := w.patch(0, sig[:]); err != nil {
			return err
		}

		if err := w.patch(4, binary.LittleEndian.AppendUint32(nil, sizeSentinel)); err != nil {
			return err
		}

		ds64, err := encodeDS64Reservation(&DS64{RiffSize: riffSize, DataSize: dataSize, SampleCount: frames}, ds64Reservation)
		if err != nil {
			return err
		}

		if err := w.patch(12, ds64); err != nil {
			return err
		}
	} else {
		if err := w.patch(4, binary.LittleEndian.AppendUint32(nil, uint32(riffSize))); err != nil {
			return err
		}
	}

	if err := w.patch(w.dataSizePos, binary.LittleEndian.AppendUint32(nil, size32(dataSize))); err != nil {
		return err
	}

	if w.factSizePos > 0 {
		if err := w.patch(w.factSizePos, binary.LittleEndian.AppendUint32(nil, size32(frames))); err != nil {
			return err
		}
	}

	return nil
}

// patch overwrites bytes already written without moving WrittenBytes.
func (w *Writer) patch(off int64, p []byte) error {
	if _, err := w.w.Seek(off, io.SeekStart); err != nil {
		return ioErr("seek to patch", err)
	}

	if _, err := w.w.Write(p); err != nil {
		return ioErr("patch", err)
	}

	return nil
}
