package bwav

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
)

// FrameReader reads interleaved frames from the data chunk.
//
// Every read seeks to the current frame first, so other readers of the same
// source may move the cursor between calls.
type FrameReader struct {
	r      io.ReadSeeker
	format Format
	codec  sampleCodec

	start      int64
	blockAlign int64
	frames     int64
	pos        int64
	scratch    []byte
}

func newFrameReader(r io.ReadSeeker, format Format, data Chunk) *FrameReader {
	blockAlign := int64(format.BlockAlign())

	return &FrameReader{
		r:          r,
		format:     format,
		codec:      newSampleCodec(format),
		start:      data.Offset,
		blockAlign: blockAlign,
		frames:     data.Size / blockAlign,
	}
}

// Format returns the format of the frames.
func (fr *FrameReader) Format() Format {
	return fr.format
}

// FrameCount returns the number of whole frames the data chunk declares.
func (fr *FrameReader) FrameCount() int64 {
	return fr.frames
}

// Position returns the index of the next frame to read.
func (fr *FrameReader) Position() int64 {
	return fr.pos
}

// Locate moves to the given frame, clamped to the frame count, and returns
// the new position.
func (fr *FrameReader) Locate(frame int64) (int64, error) {
	if frame < 0 {
		return fr.pos, fmt.Errorf("%w: negative frame %d", ErrSizeMismatch, frame)
	}

	fr.pos = min(frame, fr.frames)

	if _, err := fr.r.Seek(fr.start+fr.pos*fr.blockAlign, io.SeekStart); err != nil {
		return fr.pos, ioErr("seek to frame", err)
	}

	return fr.pos, nil
}

// ReadInt fills buf with up to len(buf.Data)/channels frames and returns how
// many frames were read. It returns 0 and no error at the end of the data.
//
// If the source ends before the declared data size, the frames read before
// the shortfall are decoded and ErrTruncated is returned with their count.
func (fr *FrameReader) ReadInt(buf *audio.IntBuffer) (int, error) {
	if buf == nil {
		return 0, errNilBuffer
	}

	if fr.format.SampleFormat.IsFloat() {
		return 0, fmt.Errorf("%w: integer access to %s samples", ErrUnsupportedFormat, fr.format.SampleFormat)
	}

	if err := fr.checkBufferFormat(&buf.Format); err != nil {
		return 0, err
	}

	buf.SourceBitDepth = int(fr.format.validBits())

	raw, n, err := fr.readFrames(len(buf.Data) / int(fr.format.Channels))

	width := fr.codec.width
	for i := 0; i*width < len(raw); i++ {
		buf.Data[i] = fr.codec.decodeInt(raw[i*width:])
	}

	return n, err
}

// ReadFloat32 fills buf like ReadInt. Integer samples are normalised to
// [-1, 1) and float samples are copied verbatim.
func (fr *FrameReader) ReadFloat32(buf *audio.Float32Buffer) (int, error) {
	if buf == nil {
		return 0, errNilBuffer
	}

	if err := fr.checkBufferFormat(&buf.Format); err != nil {
		return 0, err
	}

	buf.SourceBitDepth = int(fr.format.validBits())

	raw, n, err := fr.readFrames(len(buf.Data) / int(fr.format.Channels))

	width := fr.codec.width
	for i := 0; i*width < len(raw); i++ {
		buf.Data[i] = fr.codec.decodeFloat(raw[i*width:])
	}

	return n, err
}

func (fr *FrameReader) checkBufferFormat(f **audio.Format) error {
	if *f == nil {
		*f = &audio.Format{NumChannels: int(fr.format.Channels), SampleRate: int(fr.format.SampleRate)}
		return nil
	}

	if (*f).NumChannels != int(fr.format.Channels) {
		return fmt.Errorf("%w: buffer has %d channels, file has %d", ErrSizeMismatch, (*f).NumChannels, fr.format.Channels)
	}

	return nil
}

func (fr *FrameReader) readFrames(want int) ([]byte, int, error) {
	want = int(min(int64(want), fr.frames-fr.pos))
	if want <= 0 {
		return nil, 0, nil
	}

	size := want * int(fr.blockAlign)
	if cap(fr.scratch) < size {
		fr.scratch = make([]byte, size)
	}

	raw := fr.scratch[:size]

	if _, err := fr.r.Seek(fr.start+fr.pos*fr.blockAlign, io.SeekStart); err != nil {
		return nil, 0, ioErr("seek to frame", err)
	}

	got, err := io.ReadFull(fr.r, raw)
	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, ioErr("read frames", err)
		}

		n := got / int(fr.blockAlign)
		fr.pos += int64(n)

		return raw[:n*int(fr.blockAlign)], n, fmt.Errorf("%w: data ends at frame %d of %d", ErrTruncated, fr.pos, fr.frames)
	}

	fr.pos += int64(want)

	return raw, want, nil
}
