package bwav

// FormatChunk returns a copy of the parsed fmt chunk, if available.
func (r *Reader) FormatChunk() *FmtChunk {
	if r == nil || r.fmtChunk == nil {
		return nil
	}

	return r.fmtChunk.Clone()
}

// RawChunks returns a copy of every non-core chunk in file order, for
// round-trip writing. Core chunks (fmt, data, ds64, fact) and JUNK/FLLR
// filler are left out.
func (r *Reader) RawChunks() ([]RawChunk, error) {
	if r == nil {
		return nil, errNilReader
	}

	dataPos := r.index.position(CIDData)

	var out []RawChunk

	for i, c := range r.index.Chunks {
		if isCoreChunk(c.ID) {
			continue
		}

		buf, err := r.payload(c)
		if err != nil {
			return nil, err
		}

		out = append(out, RawChunk{
			ID:         c.ID,
			Size:       uint32(len(buf)),
			Data:       buf,
			Order:      i,
			BeforeData: i < dataPos,
		})
	}

	return out, nil
}

// FormatChunk returns a copy of the fmt chunk the Writer emits.
func (w *Writer) FormatChunk() *FmtChunk {
	if w == nil || w.fmtChunk == nil {
		return nil
	}

	return w.fmtChunk.Clone()
}

// RawChunks returns a copy of the metadata chunks queued so far, including
// those already written.
func (w *Writer) RawChunks() []RawChunk {
	if w == nil {
		return nil
	}

	return w.registry.Chunks()
}
