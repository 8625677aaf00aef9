package bwav

import "fmt"

// SampleFormat is the interpretation of the samples in the data chunk.
type SampleFormat int

const (
	SampleFormatPCM SampleFormat = iota
	SampleFormatFloat
	SampleFormatAmbisonicPCM
	SampleFormatAmbisonicFloat
)

func (s SampleFormat) String() string {
	switch s {
	case SampleFormatPCM:
		return "PCM"
	case SampleFormatFloat:
		return "IEEE float"
	case SampleFormatAmbisonicPCM:
		return "B-format PCM"
	case SampleFormatAmbisonicFloat:
		return "B-format IEEE float"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(s))
	}
}

// IsFloat reports whether samples are IEEE floating point.
func (s SampleFormat) IsFloat() bool {
	return s == SampleFormatFloat || s == SampleFormatAmbisonicFloat
}

// IsAmbisonic reports whether the channels carry B-format components.
func (s SampleFormat) IsAmbisonic() bool {
	return s == SampleFormatAmbisonicPCM || s == SampleFormatAmbisonicFloat
}

// Format is the audio format of a container, whichever fmt record it came
// from.
type Format struct {
	SampleRate uint32
	Channels   uint16
	// BitsPerSample is the width of the sample container.
	BitsPerSample uint16
	// ValidBitsPerSample is the number of significant bits, at most
	// BitsPerSample.
	ValidBitsPerSample uint16
	SampleFormat       SampleFormat
	// ChannelMask is zero when the file carries no speaker mask.
	ChannelMask ChannelMask

	// extensible is set for formats read from an extensible record.
	extensible bool
}

// NewPCMFormat returns an integer format with all container bits valid.
func NewPCMFormat(sampleRate uint32, channels, bitsPerSample uint16) Format {
	return Format{
		SampleRate:         sampleRate,
		Channels:           channels,
		BitsPerSample:      bitsPerSample,
		ValidBitsPerSample: bitsPerSample,
		SampleFormat:       SampleFormatPCM,
	}
}

// NewFloatFormat returns a 32-bit IEEE float format.
func NewFloatFormat(sampleRate uint32, channels uint16) Format {
	return Format{
		SampleRate:         sampleRate,
		Channels:           channels,
		BitsPerSample:      32,
		ValidBitsPerSample: 32,
		SampleFormat:       SampleFormatFloat,
	}
}

// BlockAlign returns the size in bytes of one frame.
func (f Format) BlockAlign() uint16 {
	return f.Channels * f.bytesPerSample()
}

// BytesPerSecond returns the data rate of the format.
func (f Format) BytesPerSecond() uint32 {
	return f.SampleRate * uint32(f.BlockAlign())
}

// UsesExtensible reports whether a writer emits an extensible fmt record for
// the format.
func (f Format) UsesExtensible() bool {
	if f.extensible {
		return true
	}

	return f.SampleFormat != SampleFormatPCM ||
		f.BitsPerSample > 16 ||
		f.Channels > 2 ||
		f.ChannelMask != 0 ||
		f.validBits() != f.BitsPerSample
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz @ %d bits (%d valid), %d channel(s), %s",
		f.SampleRate, f.BitsPerSample, f.validBits(), f.Channels, f.SampleFormat)
}

func (f Format) bytesPerSample() uint16 {
	return (f.BitsPerSample + 7) / 8
}

func (f Format) validBits() uint16 {
	if f.ValidBitsPerSample == 0 {
		return f.BitsPerSample
	}

	return f.ValidBitsPerSample
}

// check rejects formats the frame codec can't carry.
func (f Format) check() error {
	if f.SampleRate == 0 || f.Channels == 0 {
		return fmt.Errorf("%w: %d Hz with %d channels", ErrUnsupportedFormat, f.SampleRate, f.Channels)
	}

	if f.BitsPerSample%8 != 0 {
		return fmt.Errorf("%w: %d bit sample container", ErrUnsupportedFormat, f.BitsPerSample)
	}

	if f.validBits() > f.BitsPerSample {
		return fmt.Errorf("%w: %d valid bits in a %d bit container", ErrUnsupportedFormat, f.validBits(), f.BitsPerSample)
	}

	if f.SampleFormat.IsFloat() {
		if f.BitsPerSample != 32 {
			return fmt.Errorf("%w: %d bit float", ErrUnsupportedFormat, f.BitsPerSample)
		}

		return nil
	}

	switch f.BitsPerSample {
	case 8, 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: %d bit integer samples", ErrUnsupportedFormat, f.BitsPerSample)
	}
}
