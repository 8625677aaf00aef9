package bwav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ValidationWarning is one failed check of Reader.Validate.
type ValidationWarning struct {
	// Check names the check, e.g. "channel-mask".
	Check string
	// Kind is the sentinel error class of the problem.
	Kind    error
	Message string
}

func (v ValidationWarning) String() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Message)
}

// ValidateOptions enables the optional checks of Reader.Validate.
type ValidateOptions struct {
	// Broadcast requires a readable bext chunk.
	Broadcast bool
	// Cues requires a readable cue list without dropped adtl records.
	Cues bool
	// IXML requires an iXML chunk.
	IXML bool
	// ADM requires axml and chna chunks that agree with the channel count.
	ADM bool
	// Minimal requires a RIFF file holding nothing but fmt, data and filler.
	Minimal bool
	// DataAlignment, when non-zero, requires the data payload to start at a
	// multiple of it.
	DataAlignment int64
	// PreparedForAppend requires room for a ds64 chunk up front and the
	// data chunk last.
	PreparedForAppend bool
}

// Validate runs the structural checks and the enabled optional checks and
// returns every problem found. None of them keeps the file from being read.
func (r *Reader) Validate(opts ValidateOptions) []ValidationWarning {
	v := &validator{r: r}

	v.structure()
	v.format()
	v.sizes()

	if opts.Broadcast {
		v.broadcast()
	}

	if opts.Cues {
		v.cues()
	}

	if opts.IXML {
		if _, ok := r.index.Find(CIDIXML); !ok {
			v.warn("ixml", ErrChunkNotFound, "no iXML chunk")
		}
	}

	if opts.ADM {
		v.adm()
	}

	if opts.Minimal {
		v.minimal()
	}

	if opts.DataAlignment > 0 && r.data.Offset%opts.DataAlignment != 0 {
		v.warn("data-alignment", ErrSizeMismatch, "data starts at %d, not a multiple of %d", r.data.Offset, opts.DataAlignment)
	}

	if opts.PreparedForAppend {
		v.appendable()
	}

	return v.warnings
}

type validator struct {
	r        *Reader
	warnings []ValidationWarning
}

func (v *validator) warn(check string, kind error, format string, args ...any) {
	v.warnings = append(v.warnings, ValidationWarning{
		Check:   check,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) structure() {
	index := v.r.index

	if index.Err != nil {
		kind := ErrMalformedChunk
		if errors.Is(index.Err, ErrTruncated) {
			kind = ErrTruncated
		}

		v.warn("scan", kind, "%v", index.Err)
	}

	if index.position(CIDFmt) > index.position(CIDData) {
		v.warn("fmt-order", ErrMalformedChunk, "fmt chunk follows the data chunk")
	}

	for _, id := range []FourCC{CIDFmt, CIDData} {
		if n := len(index.FindAll(id)); n > 1 {
			v.warn("duplicate-chunk", ErrMalformedChunk, "%d %s chunks", n, id)
		}
	}
}

func (v *validator) format() {
	f := v.r.format
	fc := v.r.fmtChunk

	if f.ChannelMask != 0 && f.ChannelMask.Count() != int(f.Channels) {
		v.warn("channel-mask", ErrSizeMismatch, "%d channels with mask %s", f.Channels, f.ChannelMask)
	}

	if fc.Extensible != nil && fc.Extensible.ValidBitsPerSample > fc.BitsPerSample {
		v.warn("valid-bits", ErrMalformedChunk, "%d valid bits in %d bit samples", fc.Extensible.ValidBitsPerSample, fc.BitsPerSample)
	}

	blockAlign := fc.NumChannels * ((fc.BitsPerSample + 7) / 8)
	if fc.BlockAlign != blockAlign {
		v.warn("block-align", ErrSizeMismatch, "declared block align %d, computed %d", fc.BlockAlign, blockAlign)
	}

	if avg := fc.SampleRate * uint32(fc.BlockAlign); fc.AvgBytesPerSec != avg {
		v.warn("avg-bytes-per-sec", ErrSizeMismatch, "declared %d bytes per second, computed %d", fc.AvgBytesPerSec, avg)
	}
}

func (v *validator) sizes() {
	r := v.r
	index := r.index

	if r.data.Size%int64(r.format.BlockAlign()) != 0 {
		v.warn("data-size", ErrSizeMismatch, "data size %d is not a multiple of block align %d", r.data.Size, r.format.BlockAlign())
	}

	if actual := uint64(index.Length - 8); index.FormSize != actual {
		check := "riff-size"
		if index.Kind == KindRF64 {
			check = "ds64-riff-size"
		}

		v.warn(check, ErrSizeMismatch, "declared form size %d, file holds %d", index.FormSize, actual)
	}

	frames := uint64(r.FrameCount())

	if ds := index.DS64; ds != nil {
		if !r.data.Oversize && ds.DataSize != uint64(r.data.Size) {
			v.warn("ds64-data-size", ErrSizeMismatch, "ds64 data size %d, data chunk declares %d", ds.DataSize, r.data.Size)
		}

		if ds.SampleCount != 0 && ds.SampleCount != frames {
			v.warn("ds64-sample-count", ErrSizeMismatch, "ds64 sample count %d, data holds %d frames", ds.SampleCount, frames)
		}
	}

	fact, ok := index.Find(CIDFact)
	if !ok {
		return
	}

	buf, err := r.payload(fact)
	if err != nil || len(buf) < 4 {
		v.warn("fact", ErrMalformedChunk, "unreadable fact chunk")
		return
	}

	count := uint64(binary.LittleEndian.Uint32(buf))
	if count == sizeSentinel && index.DS64 != nil {
		return
	}

	if count != frames {
		v.warn("fact", ErrSizeMismatch, "fact sample count %d, data holds %d frames", count, frames)
	}
}

func (v *validator) broadcast() {
	if _, err := v.r.BroadcastExtension(); err != nil {
		v.warn("broadcast", kindOf(err), "%v", err)
	}
}

func (v *validator) cues() {
	list, err := v.r.Cues()
	if err != nil {
		v.warn("cues", kindOf(err), "%v", err)
		return
	}

	for _, w := range list.Warnings {
		v.warn("cues", ErrMalformedChunk, "%s", w)
	}

	frames := v.r.FrameCount()

	for _, p := range list.Points {
		if int64(p.Frame) > frames {
			v.warn("cues", ErrSizeMismatch, "cue %d at frame %d past the last frame %d", p.ID, p.Frame, frames)
		}
	}
}

func (v *validator) adm() {
	if _, ok := v.r.index.Find(CIDAXML); !ok {
		v.warn("adm", ErrChunkNotFound, "no axml chunk")
	}

	chna, err := v.r.ChannelAssignment()
	if err != nil {
		v.warn("adm", kindOf(err), "%v", err)
		return
	}

	for _, id := range chna.AudioIDs {
		if id.TrackIndex == 0 || id.TrackIndex > v.r.format.Channels {
			v.warn("adm", ErrSizeMismatch, "chna track %d with %d channels", id.TrackIndex, v.r.format.Channels)
		}
	}
}

func (v *validator) minimal() {
	if v.r.index.Kind != KindRIFF {
		v.warn("minimal", ErrUnsupportedFormat, "%s container", v.r.index.Signature)
	}

	for _, c := range v.r.index.Chunks {
		switch c.ID {
		case CIDFmt, CIDData, CIDJunk, CIDFllr:
		case CIDFact:
			if v.r.fmtChunk.EffectiveFormatTag() == wavFormatPCM {
				v.warn("minimal", ErrMalformedChunk, "fact chunk in a PCM file")
			}
		default:
			v.warn("minimal", ErrMalformedChunk, "extra %s chunk", c.ID)
		}
	}
}

func (v *validator) appendable() {
	chunks := v.r.index.Chunks

	var reserved int64

	for _, c := range chunks {
		if c.ID != CIDJunk && c.ID != CIDFllr && c.ID != CIDDS64 {
			break
		}

		reserved += c.End() - c.Offset + 8
	}

	if reserved < ds64Reservation+8 {
		v.warn("append", ErrSizeMismatch, "%d bytes reserved ahead of fmt, need %d", reserved, ds64Reservation+8)
	}

	if len(chunks) == 0 || chunks[len(chunks)-1].ID != CIDData {
		v.warn("append", ErrMalformedChunk, "data is not the last chunk")
	}
}

func kindOf(err error) error {
	for _, kind := range []error{ErrChunkNotFound, ErrTruncated, ErrMalformedChunk, ErrUnsupportedFormat, ErrSizeMismatch} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return err
}
