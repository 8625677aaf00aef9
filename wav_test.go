package bwav

import (
	"testing"
	"time"
)

func TestNullTermStr(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"with null", []byte{'h', 'e', 'l', 'l', 'o', 0, 'x'}, "hello"},
		{"no null", []byte{'h', 'e', 'l', 'l', 'o'}, "hello"},
		{"empty", []byte{}, ""},
		{"only null", []byte{0}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nullTermStr(tt.in)
			if got != tt.want {
				t.Fatalf("nullTermStr(%v)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClen(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"with null at 3", []byte{'a', 'b', 'c', 0, 'd'}, 3},
		{"no null", []byte{'a', 'b', 'c'}, 3},
		{"empty", []byte{}, 0},
		{"null first", []byte{0, 'a'}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clen(tt.in)
			if got != tt.want {
				t.Fatalf("clen(%v)=%d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		frames int64
		want   time.Duration
	}{
		{"one second", NewPCMFormat(48000, 2, 16), 48000, time.Second},
		{"half second", NewPCMFormat(44100, 1, 16), 22050, 500 * time.Millisecond},
		{"no frames", NewPCMFormat(44100, 1, 16), 0, 0},
		{"zero rate", Format{}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.format.FrameDuration(tt.frames)
			if got != tt.want {
				t.Fatalf("FrameDuration(%d)=%v, want %v", tt.frames, got, tt.want)
			}
		})
	}
}

func TestFramesIn(t *testing.T) {
	f := NewPCMFormat(48000, 2, 24)

	if got := f.FramesIn(time.Second); got != 48000 {
		t.Fatalf("FramesIn(1s)=%d, want 48000", got)
	}

	if got := f.FramesIn(10 * time.Millisecond); got != 480 {
		t.Fatalf("FramesIn(10ms)=%d, want 480", got)
	}

	if got := (Format{}).FramesIn(time.Second); got != 0 {
		t.Fatalf("zero rate FramesIn=%d", got)
	}
}

func TestFormatLayout(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		blockAlign uint16
		rate       uint32
	}{
		{"cd", NewPCMFormat(44100, 2, 16), 4, 176400},
		{"5.1 24 bit", NewPCMFormat(48000, 6, 24), 18, 864000},
		{"mono float", NewFloatFormat(96000, 1), 4, 384000},
		{"8 bit", NewPCMFormat(8000, 1, 8), 1, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.BlockAlign(); got != tt.blockAlign {
				t.Fatalf("BlockAlign()=%d, want %d", got, tt.blockAlign)
			}

			if got := tt.format.BytesPerSecond(); got != tt.rate {
				t.Fatalf("BytesPerSecond()=%d, want %d", got, tt.rate)
			}
		})
	}

	if got := NewPCMFormat(48000, 2, 24).String(); got != "48000 Hz @ 24 bits (24 valid), 2 channel(s), PCM" {
		t.Fatalf("String()=%q", got)
	}
}

func TestFormatCheck(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		ok     bool
	}{
		{"16 bit", NewPCMFormat(44100, 2, 16), true},
		{"32 bit", NewPCMFormat(44100, 2, 32), true},
		{"float", NewFloatFormat(44100, 2), true},
		{"12 bit container", NewPCMFormat(44100, 2, 12), false},
		{"40 bit", NewPCMFormat(44100, 2, 40), false},
		{"64 bit float", Format{SampleRate: 44100, Channels: 1, BitsPerSample: 64, SampleFormat: SampleFormatFloat}, false},
		{"no channels", NewPCMFormat(44100, 0, 16), false},
		{"no rate", NewPCMFormat(0, 2, 16), false},
		{"valid bits too wide", Format{SampleRate: 44100, Channels: 1, BitsPerSample: 16, ValidBitsPerSample: 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.check()
			if (err == nil) != tt.ok {
				t.Fatalf("check()=%v, want ok=%t", err, tt.ok)
			}
		})
	}
}
