package bwav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/go-audio/audio"
)

type testChunk struct {
	id   string
	size uint32
	data []byte
}

type chunkInventoryEntry struct {
	id   string
	size uint32
}

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidRiffWaveHdr   = errors.New("invalid riff/wave header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// parseWavChunks splits a RIFF, RF64 or BW64 file into its chunks. The size
// of an RF64 data chunk holding the sentinel comes from ds64.
func parseWavChunks(data []byte) ([]testChunk, error) {
	if len(data) < 12 {
		return nil, errFileTooSmall
	}

	switch string(data[0:4]) {
	case "RIFF", "RF64", "BW64":
	default:
		return nil, errInvalidRiffWaveHdr
	}

	if string(data[8:12]) != "WAVE" {
		return nil, errInvalidRiffWaveHdr
	}

	chunks := make([]testChunk, 0)

	var ds64DataSize uint64

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		length := uint64(size)
		if id == "data" && size == sizeSentinel && ds64DataSize > 0 {
			length = ds64DataSize
		}

		end := offset + int(length)
		if end > len(data) {
			return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
		}

		payload := append([]byte(nil), data[offset:end]...)
		chunks = append(chunks, testChunk{id: id, size: size, data: payload})

		if id == "ds64" && len(payload) >= 16 {
			ds64DataSize = binary.LittleEndian.Uint64(payload[8:16])
		}

		offset = end
		if length%2 == 1 {
			offset++
		}
	}

	return chunks, nil
}

func parseWavChunksFromFile(path string) ([]testChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseWavChunks(data)
}

func findChunk(chunks []testChunk, id string) (*testChunk, int) {
	for i := range chunks {
		if chunks[i].id == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}

func buildChunkInventory(chunks []testChunk) []chunkInventoryEntry {
	out := make([]chunkInventoryEntry, 0, len(chunks))
	for _, ch := range chunks {
		out = append(out, chunkInventoryEntry{id: ch.id, size: ch.size})
	}

	return out
}

func writeTestChunk(t *testing.T, b *bytes.Buffer, id string, payload []byte) {
	t.Helper()

	if len(id) != 4 {
		t.Fatalf("chunk id must be 4 bytes, got %q", id)
	}

	b.WriteString(id)

	err := binary.Write(b, binary.LittleEndian, uint32(len(payload)))
	if err != nil {
		t.Fatalf("write chunk size for %q: %v", id, err)
	}

	if _, err := b.Write(payload); err != nil {
		t.Fatalf("write chunk payload for %q: %v", id, err)
	}

	if len(payload)%2 == 1 {
		err := b.WriteByte(0)
		if err != nil {
			t.Fatalf("write chunk pad for %q: %v", id, err)
		}
	}
}

// legacyFmt renders a 16 byte PCM fmt payload.
func legacyFmt(tag, channels uint16, rate uint32, bits uint16) []byte {
	blockAlign := channels * ((bits + 7) / 8)

	out := make([]byte, 16)
	binary.LittleEndian.PutUint16(out[0:2], tag)
	binary.LittleEndian.PutUint16(out[2:4], channels)
	binary.LittleEndian.PutUint32(out[4:8], rate)
	binary.LittleEndian.PutUint32(out[8:12], rate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(out[12:14], blockAlign)
	binary.LittleEndian.PutUint16(out[14:16], bits)

	return out
}

// makeTestWav assembles a RIFF file from the given chunks and patches the
// form size.
func makeTestWav(t *testing.T, chunks ...testChunk) []byte {
	t.Helper()

	var b bytes.Buffer
	b.WriteString("RIFF")

	if err := binary.Write(&b, binary.LittleEndian, uint32(0)); err != nil {
		t.Fatalf("write riff size placeholder: %v", err)
	}

	b.WriteString("WAVE")

	for _, c := range chunks {
		writeTestChunk(t, &b, c.id, c.data)
	}

	out := b.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return out
}

func makeWavWithUnknownChunks(t *testing.T) []byte {
	t.Helper()

	return makeTestWav(t,
		testChunk{id: "fmt ", data: legacyFmt(wavFormatPCM, 1, 8000, 16)},
		testChunk{id: "tst1", data: []byte{0x01, 0x02, 0x03, 0x04}},
		testChunk{id: "data", data: []byte{0x01, 0x00, 0x02, 0x00}},
		testChunk{id: "xtra", data: []byte{0x09, 0x08, 0x07, 0x06}},
	)
}

// writeTestFile writes samples through a Writer into memory. setup runs
// before the first frame. A nil samples slice writes no frames.
func writeTestFile(t *testing.T, format Format, samples []int, setup func(w *Writer)) []byte {
	t.Helper()

	out := &memWriteSeeker{}

	w, err := NewWriter(out, format)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if setup != nil {
		setup(w)
	}

	if samples != nil {
		buf := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: int(format.Channels), SampleRate: int(format.SampleRate)},
			Data:   samples,
		}

		if err := w.WriteInt(buf); err != nil {
			t.Fatalf("write frames: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return out.Bytes()
}

func openTestReader(t *testing.T, data []byte) *Reader {
	t.Helper()

	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}

	return r
}

func readAllInt(t *testing.T, r *Reader) []int {
	t.Helper()

	fr := r.FrameReader()
	channels := int(r.Format().Channels)
	buf := &audio.IntBuffer{Data: make([]int, 7*channels)}

	var out []int

	for {
		n, err := fr.ReadInt(buf)
		if err != nil {
			t.Fatalf("read frames: %v", err)
		}

		if n == 0 {
			return out
		}

		out = append(out, buf.Data[:n*channels]...)
	}
}

func intBuffer(data []int, channels int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels},
		Data:   data,
	}
}
