package bwav

// RawChunk stores a non-core RIFF/WAV chunk for round-trip preservation.
type RawChunk struct {
	ID FourCC
	// Size mirrors len(Data) for preserved chunks.
	Size uint32
	Data []byte
	// Order is the original chunk order index encountered during decode.
	Order int
	// BeforeData indicates if this chunk appeared before the data chunk.
	BeforeData bool
}

func (c RawChunk) Clone() RawChunk {
	out := c
	out.Data = append([]byte(nil), c.Data...)

	return out
}

// ChunkID implements ChunkEncoder.
func (c RawChunk) ChunkID() FourCC {
	return c.ID
}

// EncodeChunk implements ChunkEncoder.
func (c RawChunk) EncodeChunk() ([]byte, error) {
	return append([]byte(nil), c.Data...), nil
}

func cloneRawChunks(chunks []RawChunk) []RawChunk {
	if len(chunks) == 0 {
		return nil
	}

	out := make([]RawChunk, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].Clone()
	}

	return out
}
