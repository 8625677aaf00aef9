package bwav

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/go-audio/riff"
)

const (
	cartVersionLen            = 4
	cartTitleLen              = 64
	cartArtistLen             = 64
	cartCutIDLen              = 64
	cartClientIDLen           = 64
	cartCategoryLen           = 64
	cartClassificationLen     = 64
	cartOutCueLen             = 64
	cartStartDateLen          = 10
	cartStartTimeLen          = 8
	cartEndDateLen            = 10
	cartEndTimeLen            = 8
	cartProducerAppIDLen      = 64
	cartProducerAppVersionLen = 64
	cartUserDefLen            = 64
	cartPostTimerCount        = 8
	cartReservedLen           = 276
	cartFixedLen              = 2048 - cartURLLen
	cartURLLen                = 1024
)

// Cart is the AES46 cart chunk used by radio automation systems.
type Cart struct {
	Version            string
	Title              string
	Artist             string
	CutID              string
	ClientID           string
	Category           string
	Classification     string
	OutCue             string
	StartDate          string
	StartTime          string
	EndDate            string
	EndTime            string
	ProducerAppID      string
	ProducerAppVersion string
	UserDef            string
	LevelReference     int32
	PostTimer          [cartPostTimerCount]CartTimer
	Reserved           []byte
	URL                string
	TagText            string
}

// CartTimer is a named frame position, e.g. "SEGs" for the segue start.
type CartTimer struct {
	Usage FourCC
	Value uint32
}

// DecodeCartChunk decodes a cart chunk. Short payloads are read as if padded
// with zeros.
func DecodeCartChunk(ch *riff.Chunk) (*Cart, error) {
	buf, err := readChunk(ch, CIDCart)
	if err != nil {
		return nil, err
	}

	cart := &Cart{}
	offset := 0

	take := func(n int) []byte {
		out := make([]byte, n)
		if offset < len(buf) {
			end := min(offset+n, len(buf))
			copy(out, buf[offset:end])
		}

		offset += n

		return out
	}

	readFixedString := func(n int) string {
		return strings.TrimRight(decodeText(take(n)), " ")
	}

	cart.Version = readFixedString(cartVersionLen)
	cart.Title = readFixedString(cartTitleLen)
	cart.Artist = readFixedString(cartArtistLen)
	cart.CutID = readFixedString(cartCutIDLen)
	cart.ClientID = readFixedString(cartClientIDLen)
	cart.Category = readFixedString(cartCategoryLen)
	cart.Classification = readFixedString(cartClassificationLen)
	cart.OutCue = readFixedString(cartOutCueLen)
	cart.StartDate = readFixedString(cartStartDateLen)
	cart.StartTime = readFixedString(cartStartTimeLen)
	cart.EndDate = readFixedString(cartEndDateLen)
	cart.EndTime = readFixedString(cartEndTimeLen)
	cart.ProducerAppID = readFixedString(cartProducerAppIDLen)
	cart.ProducerAppVersion = readFixedString(cartProducerAppVersionLen)
	cart.UserDef = readFixedString(cartUserDefLen)
	cart.LevelReference = int32(binary.LittleEndian.Uint32(take(4)))

	for i := range cart.PostTimer {
		copy(cart.PostTimer[i].Usage[:], take(4))
		cart.PostTimer[i].Value = binary.LittleEndian.Uint32(take(4))
	}

	cart.Reserved = bytes.TrimRight(take(cartReservedLen), "\x00")
	if len(cart.Reserved) == 0 {
		cart.Reserved = nil
	}

	cart.URL = decodeText(take(cartURLLen))

	if offset < len(buf) {
		cart.TagText = decodeText(bytes.TrimRight(buf[offset:], "\x00"))
	}

	return cart, nil
}

func encodeCartChunk(cart *Cart) []byte {
	if cart == nil {
		return nil
	}

	payload := bytes.NewBuffer(make([]byte, 0, cartFixedLen+cartURLLen+len(cart.TagText)+1))

	version := cart.Version
	if version == "" {
		version = "0101"
	}

	fields := []struct {
		value string
		n     int
	}{
		{version, cartVersionLen},
		{cart.Title, cartTitleLen},
		{cart.Artist, cartArtistLen},
		{cart.CutID, cartCutIDLen},
		{cart.ClientID, cartClientIDLen},
		{cart.Category, cartCategoryLen},
		{cart.Classification, cartClassificationLen},
		{cart.OutCue, cartOutCueLen},
		{cart.StartDate, cartStartDateLen},
		{cart.StartTime, cartStartTimeLen},
		{cart.EndDate, cartEndDateLen},
		{cart.EndTime, cartEndTimeLen},
		{cart.ProducerAppID, cartProducerAppIDLen},
		{cart.ProducerAppVersion, cartProducerAppVersionLen},
		{cart.UserDef, cartUserDefLen},
	}

	for _, f := range fields {
		payload.Write(encodeFixedText(f.value, f.n))
	}

	_ = binary.Write(payload, binary.LittleEndian, cart.LevelReference)

	for _, timer := range cart.PostTimer {
		payload.Write(timer.Usage[:])
		_ = binary.Write(payload, binary.LittleEndian, timer.Value)
	}

	reserved := make([]byte, cartReservedLen)
	copy(reserved, cart.Reserved)
	payload.Write(reserved)
	payload.Write(encodeFixedText(cart.URL, cartURLLen))

	if cart.TagText != "" {
		payload.Write(encodeText(cart.TagText))
		payload.WriteByte(0)
	}

	return payload.Bytes()
}
