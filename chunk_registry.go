package bwav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

var errChunkAlreadyWritten = errors.New("chunk already written")

// ChunkEncoder renders one chunk payload for a Writer.
type ChunkEncoder interface {
	ChunkID() FourCC
	EncodeChunk() ([]byte, error)
}

// ChunkRegistry orders the metadata chunks queued on a Writer. Chunks with
// the same key replace each other until they are written.
type ChunkRegistry struct {
	entries []registryEntry
}

type registryEntry struct {
	key     string
	chunk   RawChunk
	written bool
}

// Register encodes the chunk and queues it under key. An empty key always
// appends.
func (r *ChunkRegistry) Register(key string, enc ChunkEncoder, beforeData bool) error {
	if r == nil || enc == nil {
		return nil
	}

	data, err := enc.EncodeChunk()
	if err != nil {
		return fmt.Errorf("failed to encode the %s chunk: %w", enc.ChunkID(), err)
	}

	if uint64(len(data)) > maxRiffSize {
		return fmt.Errorf("%w: %s chunk of %d bytes does not fit a 32-bit size", ErrSizeMismatch, enc.ChunkID(), len(data))
	}

	chunk := RawChunk{ID: enc.ChunkID(), Size: uint32(len(data)), Data: data, BeforeData: beforeData}

	if key != "" {
		for i := range r.entries {
			if r.entries[i].key != key {
				continue
			}

			if r.entries[i].written {
				return fmt.Errorf("%w: %s", errChunkAlreadyWritten, key)
			}

			chunk.Order = r.entries[i].chunk.Order
			r.entries[i].chunk = chunk

			return nil
		}
	}

	chunk.Order = len(r.entries)
	r.entries = append(r.entries, registryEntry{key: key, chunk: chunk})

	return nil
}

// Remove drops a queued chunk that has not been written yet.
func (r *ChunkRegistry) Remove(key string) {
	if r == nil {
		return
	}

	for i := range r.entries {
		if r.entries[i].key == key && !r.entries[i].written {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// pending returns the chunks not yet written and marks them written. With
// beforeDataOnly set, chunks queued for after the data chunk are held back.
func (r *ChunkRegistry) pending(beforeDataOnly bool) []RawChunk {
	var out []RawChunk

	for i := range r.entries {
		if r.entries[i].written || (beforeDataOnly && !r.entries[i].chunk.BeforeData) {
			continue
		}

		r.entries[i].written = true
		out = append(out, r.entries[i].chunk)
	}

	return out
}

// Chunks returns a copy of every queued chunk in order.
func (r *ChunkRegistry) Chunks() []RawChunk {
	if r == nil {
		return nil
	}

	out := make([]RawChunk, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.chunk)
	}

	return cloneRawChunks(out)
}

// sniffListType peeks at the list type of a LIST chunk without consuming it.
func sniffListType(chnk *riff.Chunk) ([4]byte, error) {
	var listType [4]byte

	if chnk == nil || FourCC(chnk.ID) != CIDList || chnk.Size < 4 {
		return listType, nil
	}

	var head [4]byte

	n, err := io.ReadFull(chnk.R, head[:])
	if err != nil {
		return listType, fmt.Errorf("failed to read LIST type: %w", err)
	}

	copy(listType[:], head[:])

	remaining := io.LimitReader(chnk.R, int64(chnk.Size-n))
	chnk.R = io.MultiReader(bytes.NewReader(head[:]), remaining)

	return listType, nil
}

type encodedChunk struct {
	id   FourCC
	data []byte
	err  error
}

func (c encodedChunk) ChunkID() FourCC {
	return c.id
}

func (c encodedChunk) EncodeChunk() ([]byte, error) {
	return c.data, c.err
}

type bextChunkHandler struct {
	bext *BroadcastExtension
}

func (h bextChunkHandler) ChunkID() FourCC {
	return CIDBext
}

func (h bextChunkHandler) EncodeChunk() ([]byte, error) {
	return encodeBroadcastChunk(h.bext), nil
}

type listChunkHandler struct {
	info *Info
}

func (h listChunkHandler) ChunkID() FourCC {
	return CIDList
}

func (h listChunkHandler) EncodeChunk() ([]byte, error) {
	return encodeInfoChunk(h.info), nil
}

type chnaChunkHandler struct {
	chna *ChannelAssignment
}

func (h chnaChunkHandler) ChunkID() FourCC {
	return CIDChna
}

func (h chnaChunkHandler) EncodeChunk() ([]byte, error) {
	return encodeChnaChunk(h.chna), nil
}

type id3ChunkHandler struct {
	tag *ID3Tag
}

func (h id3ChunkHandler) ChunkID() FourCC {
	return CIDID3
}

func (h id3ChunkHandler) EncodeChunk() ([]byte, error) {
	return encodeID3Chunk(h.tag)
}

type cartChunkHandler struct {
	cart *Cart
}

func (h cartChunkHandler) ChunkID() FourCC {
	return CIDCart
}

func (h cartChunkHandler) EncodeChunk() ([]byte, error) {
	return encodeCartChunk(h.cart), nil
}

type samplerChunkHandler struct {
	smpl *SamplerInfo
}

func (h samplerChunkHandler) ChunkID() FourCC {
	return CIDSmpl
}

func (h samplerChunkHandler) EncodeChunk() ([]byte, error) {
	return encodeSamplerChunk(h.smpl), nil
}
