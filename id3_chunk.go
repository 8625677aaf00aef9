package bwav

import (
	"bytes"
	"fmt"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-audio/riff"
)

// ID3Tag holds the ID3v2 text frames a Writer can embed in an id3 chunk.
type ID3Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Genre   string
	Comment string
}

func (t *ID3Tag) empty() bool {
	return t == nil || *t == ID3Tag{}
}

// DecodeID3Chunk parses an embedded ID3 tag.
func DecodeID3Chunk(ch *riff.Chunk) (tag.Metadata, error) {
	if ch == nil {
		return nil, errNilChunk
	}

	buf, err := readChunk(ch, FourCC(ch.ID))
	if err != nil {
		return nil, err
	}

	m, err := tag.ReadFrom(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %s chunk: %w", ErrMalformedChunk, FourCC(ch.ID), err)
	}

	return m, nil
}

func encodeID3Chunk(t *ID3Tag) ([]byte, error) {
	out := id3v2.NewEmptyTag()
	out.SetDefaultEncoding(id3v2.EncodingUTF8)

	if t.Title != "" {
		out.SetTitle(t.Title)
	}

	if t.Artist != "" {
		out.SetArtist(t.Artist)
	}

	if t.Album != "" {
		out.SetAlbum(t.Album)
	}

	if t.Year != "" {
		out.SetYear(t.Year)
	}

	if t.Genre != "" {
		out.SetGenre(t.Genre)
	}

	if t.Comment != "" {
		out.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     t.Comment,
		})
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render the id3 tag - %w", err)
	}

	return buf.Bytes(), nil
}
