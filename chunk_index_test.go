package bwav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestScanChunksSkipsPadBytes(t *testing.T) {
	data := makeTestWav(t,
		testChunk{id: "fmt ", data: legacyFmt(wavFormatPCM, 1, 8000, 8)},
		testChunk{id: "odd1", data: []byte{1, 2, 3}},
		testChunk{id: "data", data: []byte{0x80, 0x81, 0x82}},
		testChunk{id: "tail", data: []byte{9}},
	)

	index, err := ScanChunks(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if index.Err != nil {
		t.Fatalf("scan error: %v", index.Err)
	}

	want := []struct {
		id     string
		offset int64
		size   int64
	}{
		{"fmt ", 20, 16},
		{"odd1", 44, 3},
		{"data", 56, 3},
		{"tail", 68, 1},
	}

	if len(index.Chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(index.Chunks), len(want))
	}

	for i, w := range want {
		c := index.Chunks[i]
		if c.ID.String() != w.id || c.Offset != w.offset || c.Size != w.size {
			t.Fatalf("chunk %d = %s@%d+%d, want %s@%d+%d", i, c.ID, c.Offset, c.Size, w.id, w.offset, w.size)
		}
	}

	if index.Kind != KindRIFF || index.FormSize != uint64(len(data)-8) {
		t.Fatalf("kind %s form size %d", index.Kind, index.FormSize)
	}
}

func TestScanChunksTruncated(t *testing.T) {
	data := makeTestWav(t,
		testChunk{id: "fmt ", data: legacyFmt(wavFormatPCM, 1, 8000, 16)},
		testChunk{id: "data", data: []byte{1, 0, 2, 0, 3, 0, 4, 0}},
	)

	// drop the last two frames
	data = data[:len(data)-4]

	index, err := ScanChunks(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if !errors.Is(index.Err, ErrTruncated) {
		t.Fatalf("index error = %v, want truncated", index.Err)
	}

	if _, ok := index.Find(CIDData); !ok {
		t.Fatal("truncated chunk missing from the index")
	}

	r := openTestReader(t, data)

	buf := make([]int, 8)
	n, err := r.FrameReader().ReadInt(intBuffer(buf, 1))

	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("read error = %v, want truncated", err)
	}

	if n != 2 || buf[0] != 1 || buf[1] != 2 {
		t.Fatalf("read %d frames %v", n, buf[:n])
	}

	ws := r.Validate(ValidateOptions{})
	if len(ws) == 0 || ws[0].Check != "scan" || !errors.Is(ws[0].Kind, ErrTruncated) {
		t.Fatalf("warnings = %v", ws)
	}
}

func TestScanChunksErrors(t *testing.T) {
	valid := makeTestWav(t, testChunk{id: "fmt ", data: legacyFmt(wavFormatPCM, 1, 8000, 16)})

	withHeader := func(sig, form string) []byte {
		out := append([]byte(nil), valid...)
		copy(out[0:4], sig)
		copy(out[8:12], form)

		return out
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("RIFF\x00\x00"), ErrTruncated},
		{"unknown master", withHeader("FORM", "WAVE"), ErrMalformedChunk},
		{"not wave", withHeader("RIFF", "AVI "), ErrUnsupportedFormat},
		{"rf64 without ds64", withHeader("RF64", "WAVE"), ErrMalformedChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanChunks(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// makeRF64 builds an RF64 file by hand with the data size held by ds64.
func makeRF64(t *testing.T, ds64 []byte, beforeDS64 bool) []byte {
	t.Helper()

	pcm := []byte{1, 0, 2, 0, 3, 0}

	var b bytes.Buffer
	b.WriteString("RF64")
	_ = binary.Write(&b, binary.LittleEndian, uint32(sizeSentinel))
	b.WriteString("WAVE")

	dataChunk := func() {
		b.WriteString("data")
		_ = binary.Write(&b, binary.LittleEndian, uint32(sizeSentinel))
		b.Write(pcm)
	}

	if beforeDS64 {
		dataChunk()
	}

	writeTestChunk(t, &b, "ds64", ds64)
	writeTestChunk(t, &b, "fmt ", legacyFmt(wavFormatPCM, 1, 8000, 16))

	if !beforeDS64 {
		dataChunk()
	}

	return b.Bytes()
}

func ds64Payload(riffSize, dataSize, samples uint64, extra int) []byte {
	out := binary.LittleEndian.AppendUint64(nil, riffSize)
	out = binary.LittleEndian.AppendUint64(out, dataSize)
	out = binary.LittleEndian.AppendUint64(out, samples)
	out = binary.LittleEndian.AppendUint32(out, 0)

	return append(out, make([]byte, extra)...)
}

func TestScanChunksRF64(t *testing.T) {
	// master header, ds64 header and payload, fmt chunk, data header, pcm
	length := uint64(12 + 8 + 28 + 8 + 16 + 8 + 6)
	data := makeRF64(t, ds64Payload(length-8, 6, 3, 0), false)

	r := openTestReader(t, data)

	if r.Kind() != KindRF64 || r.FrameCount() != 3 {
		t.Fatalf("kind %s, %d frames", r.Kind(), r.FrameCount())
	}

	dc, _ := r.Index().Find(CIDData)
	if !dc.Oversize || dc.Size != 6 {
		t.Fatalf("data chunk = %+v", dc)
	}

	if got := readAllInt(t, r); !intsEqual(got, []int{1, 2, 3}) {
		t.Fatalf("samples = %v", got)
	}

	if ws := r.Validate(ValidateOptions{}); len(ws) != 0 {
		t.Fatalf("unexpected warnings: %v", ws)
	}
}

func TestScanChunksRF64Errors(t *testing.T) {
	tests := []struct {
		name       string
		ds64       []byte
		beforeDS64 bool
	}{
		{"short ds64", make([]byte, 20), false},
		{"table past payload", append(ds64Payload(0, 6, 3, 0)[:24], 5, 0, 0, 0), false},
		{"oversize before ds64", ds64Payload(0, 6, 3, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanChunks(bytes.NewReader(makeRF64(t, tt.ds64, tt.beforeDS64)))
			if !errors.Is(err, ErrMalformedChunk) {
				t.Fatalf("err = %v, want malformed", err)
			}
		})
	}
}

func TestScanChunksToleratesLongDS64(t *testing.T) {
	length := uint64(12 + 8 + 36 + 8 + 16 + 8 + 6)
	data := makeRF64(t, ds64Payload(length-8, 6, 3, 8), false)

	r := openTestReader(t, data)
	if r.FrameCount() != 3 {
		t.Fatalf("frame count = %d", r.FrameCount())
	}
}

func TestNewReaderErrors(t *testing.T) {
	fmtChunk := testChunk{id: "fmt ", data: legacyFmt(wavFormatPCM, 1, 8000, 16)}
	dataChunk := testChunk{id: "data", data: []byte{0, 0}}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"no fmt", makeTestWav(t, dataChunk), ErrChunkNotFound},
		{"no data", makeTestWav(t, fmtChunk), ErrChunkNotFound},
		{"a-law", makeTestWav(t, testChunk{id: "fmt ", data: legacyFmt(6, 1, 8000, 8)}, dataChunk), ErrUnsupportedFormat},
		{"short fmt", makeTestWav(t, testChunk{id: "fmt ", data: make([]byte, 14)}, dataChunk), ErrMalformedChunk},
		{"64 bit float", makeTestWav(t, testChunk{id: "fmt ", data: legacyFmt(wavFormatIEEEFloat, 1, 8000, 64)}, dataChunk), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReaderMissingMetadata(t *testing.T) {
	r := openTestReader(t, makeWavWithUnknownChunks(t))

	if _, err := r.BroadcastExtension(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("bext: %v", err)
	}

	if _, err := r.IXML(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("iXML: %v", err)
	}

	if _, err := r.Cues(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("cues: %v", err)
	}

	if _, err := r.Info(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("info: %v", err)
	}

	if _, err := r.ID3(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("id3: %v", err)
	}

	if _, err := r.ChannelAssignment(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("chna: %v", err)
	}

	if _, err := r.Cart(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("cart: %v", err)
	}

	if _, err := r.Sampler(); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("smpl: %v", err)
	}
}
