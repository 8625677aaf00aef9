// Package bwav reads and writes WAVE files in the 32-bit RIFF container and
// its 64-bit RF64/BW64 extension.
//
// The package supports PCM integer (8/16/24/32-bit, with fewer valid bits
// than the container) and 32-bit IEEE float samples, legacy and extensible
// fmt records, and ambisonic B-format sub-formats. It also parses and
// encodes the production metadata chunks bext, cart, smpl, iXML, axml,
// chna, cue with its adtl list, LIST/INFO and id3.
//
// Reading starts with NewReader, which indexes the chunks without touching
// the audio data:
//
//	r, err := bwav.NewReader(f)
//	fr := r.FrameReader()
//	n, err := fr.ReadFloat32(buf)
//
// Writing goes through a Writer. The file starts out as RIFF and Close
// turns it into RF64 when the final sizes need 64 bits:
//
//	w, err := bwav.NewWriter(f, bwav.NewPCMFormat(48000, 2, 24))
//	err = w.WriteInt(buf)
//	err = w.Close()
//
// For chunk-preserving round-trip workflows, Reader and Writer expose:
//
//   - FormatChunk() *FmtChunk
//   - RawChunks()
//   - NewWriterFromReader
//
// A Writer created by NewWriterFromReader replaces the copied bext, INFO,
// cue and similar chunks in place when their setter is called.
//
// Reader.Validate reports structural problems and, on request, checks for
// broadcast, ADM, minimal and append-ready layouts.
package bwav
