package bwav

import (
	"bytes"

	"github.com/go-audio/riff"
)

// DecodeXMLChunk returns the text of an iXML or axml chunk verbatim, minus
// trailing NUL padding some writers add.
func DecodeXMLChunk(ch *riff.Chunk) (string, error) {
	if ch == nil {
		return "", errNilChunk
	}

	buf, err := readChunk(ch, FourCC(ch.ID))
	if err != nil {
		return "", err
	}

	return string(bytes.TrimRight(buf, "\x00")), nil
}
