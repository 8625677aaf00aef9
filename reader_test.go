package bwav

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
)

func TestReaderLocate(t *testing.T) {
	samples := make([]int, 100)
	for i := range samples {
		samples[i] = i
	}

	r := openTestReader(t, writeTestFile(t, NewPCMFormat(8000, 2, 16), samples, nil))
	fr := r.FrameReader()

	if fr.FrameCount() != 50 || r.FrameCount() != 50 {
		t.Fatalf("frame count = %d", fr.FrameCount())
	}

	pos, err := fr.Locate(25)
	if err != nil || pos != 25 {
		t.Fatalf("locate = %d, %v", pos, err)
	}

	buf := intBuffer(make([]int, 4), 2)

	n, err := fr.ReadInt(buf)
	if err != nil || n != 2 {
		t.Fatalf("read %d frames, %v", n, err)
	}

	if !intsEqual(buf.Data, []int{50, 51, 52, 53}) {
		t.Fatalf("frames = %v", buf.Data)
	}

	if fr.Position() != 27 {
		t.Fatalf("position = %d", fr.Position())
	}

	// past the end clamps
	if pos, _ := fr.Locate(1000); pos != 50 {
		t.Fatalf("clamped position = %d", pos)
	}

	if n, err := fr.ReadInt(buf); n != 0 || err != nil {
		t.Fatalf("read at end = %d, %v", n, err)
	}

	if _, err := fr.Locate(-1); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("negative frame: %v", err)
	}

	// rewind
	if _, err := fr.Locate(0); err != nil {
		t.Fatal(err)
	}

	if got := readAllInt(t, r); !intsEqual(got, samples) {
		t.Fatal("rewound read differs")
	}
}

func TestReaderDuration(t *testing.T) {
	r := openTestReader(t, writeTestFile(t, NewPCMFormat(22050, 1, 16), make([]int, 4502), nil))

	if got := r.Duration(); got != 204172335*time.Nanosecond {
		t.Fatalf("duration = %s", got)
	}
}

func TestReaderFloatAccess(t *testing.T) {
	r := openTestReader(t, writeTestFile(t, NewPCMFormat(48000, 1, 16), []int{-32768, 0, 16384}, nil))

	buf := &audio.Float32Buffer{Data: make([]float32, 3)}

	n, err := r.FrameReader().ReadFloat32(buf)
	if err != nil || n != 3 {
		t.Fatalf("read %d frames, %v", n, err)
	}

	if buf.Data[0] != -1 || buf.Data[1] != 0 || buf.Data[2] != 0.5 {
		t.Fatalf("samples = %v", buf.Data)
	}

	if buf.SourceBitDepth != 16 || buf.Format.NumChannels != 1 || buf.Format.SampleRate != 48000 {
		t.Fatalf("buffer = %d bits %+v", buf.SourceBitDepth, buf.Format)
	}
}

func TestReaderBufferErrors(t *testing.T) {
	r := openTestReader(t, writeTestFile(t, NewPCMFormat(48000, 2, 16), []int{1, 2}, nil))
	fr := r.FrameReader()

	if _, err := fr.ReadInt(nil); !errors.Is(err, errNilBuffer) {
		t.Fatalf("nil buffer: %v", err)
	}

	if _, err := fr.ReadFloat32(nil); !errors.Is(err, errNilBuffer) {
		t.Fatalf("nil float buffer: %v", err)
	}

	if _, err := fr.ReadInt(intBuffer(make([]int, 4), 1)); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("channel mismatch: %v", err)
	}

	fl := openTestReader(t, writeTestFile(t, NewFloatFormat(48000, 1), nil, nil))
	if _, err := fl.FrameReader().ReadInt(intBuffer(make([]int, 4), 1)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("int access to float data: %v", err)
	}

	if _, err := NewReader(nil); err == nil {
		t.Fatal("nil source accepted")
	}
}

func TestReaderLogsCueWarnings(t *testing.T) {
	cue := cuePayload(cueRecord(1, 0, "data", 0))
	adtl := joinList(CIDAdtl, []listEntry{{id: CIDLabl, data: adtlText(5, "orphan")}})

	data := makeTestWav(t,
		testChunk{id: "fmt ", data: legacyFmt(wavFormatPCM, 1, 8000, 16)},
		testChunk{id: "cue ", data: cue},
		testChunk{id: "LIST", data: adtl},
		testChunk{id: "data", data: make([]byte, 4)},
	)

	r := openTestReader(t, data)

	var logs bytes.Buffer
	r.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	list, err := r.Cues()
	if err != nil {
		t.Fatal(err)
	}

	if len(list.Points) != 1 || len(list.Warnings) != 1 {
		t.Fatalf("cue list = %+v", list)
	}

	if !strings.Contains(logs.String(), "unknown cue id 5") || !strings.Contains(logs.String(), "level=WARN") {
		t.Fatalf("log output = %q", logs.String())
	}
}

func TestReaderEmptyData(t *testing.T) {
	r := openTestReader(t, writeTestFile(t, NewPCMFormat(44100, 2, 16), nil, nil))

	if r.FrameCount() != 0 || r.Duration() != 0 {
		t.Fatalf("frames %d duration %s", r.FrameCount(), r.Duration())
	}

	if got := readAllInt(t, r); len(got) != 0 {
		t.Fatalf("read %v", got)
	}
}
