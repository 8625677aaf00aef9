package bwav

import (
	"strconv"

	"github.com/go-audio/riff"
)

// FourCC is a four character chunk or form identifier as stored on disk.
type FourCC [4]byte

// String returns the identifier as text, quoting it when it holds
// non-printable bytes.
func (f FourCC) String() string {
	for _, b := range f {
		if b < 0x20 || b > 0x7e {
			return strconv.Quote(string(f[:]))
		}
	}

	return string(f[:])
}

var (
	// CIDRiff is the master header of a 32-bit container.
	CIDRiff = FourCC(riff.RiffID)
	// CIDRF64 is the master header of a 64-bit EBU Tech 3306 container.
	CIDRF64 = FourCC{'R', 'F', '6', '4'}
	// CIDBW64 is the master header of a 64-bit ITU-R BS.2088 container.
	CIDBW64 = FourCC{'B', 'W', '6', '4'}
	// CIDWave is the form type of every supported container.
	CIDWave = FourCC(riff.WavFormatID)

	// CIDFmt is the chunk ID for the format record.
	CIDFmt = FourCC(riff.FmtID)
	// CIDData is the chunk ID for the audio payload.
	CIDData = FourCC(riff.DataFormatID)
	// CIDDS64 is the chunk ID for the 64-bit size table.
	CIDDS64 = FourCC{'d', 's', '6', '4'}
	// CIDFact is the chunk ID for the fact chunk.
	CIDFact = FourCC{'f', 'a', 'c', 't'}
	// CIDBext is the chunk ID for the broadcast extension chunk.
	CIDBext = FourCC{'b', 'e', 'x', 't'}
	// CIDIXML is the chunk ID for the iXML production metadata chunk.
	CIDIXML = FourCC{'i', 'X', 'M', 'L'}
	// CIDAXML is the chunk ID for the ADM XML chunk.
	CIDAXML = FourCC{'a', 'x', 'm', 'l'}
	// CIDChna is the chunk ID for the ADM channel assignment chunk.
	CIDChna = FourCC{'c', 'h', 'n', 'a'}
	// CIDCue is the chunk ID for the cue chunk.
	CIDCue = FourCC{'c', 'u', 'e', 0x20}
	// CIDList is the chunk ID for a LIST chunk.
	CIDList = FourCC{'L', 'I', 'S', 'T'}
	// CIDJunk is the chunk ID for filler chunks.
	CIDJunk = FourCC{'J', 'U', 'N', 'K'}
	// CIDFllr is the chunk ID for the data alignment filler.
	CIDFllr = FourCC{'F', 'L', 'L', 'R'}
	// CIDCart is the chunk ID for the AES46 cart chunk.
	CIDCart = FourCC{'c', 'a', 'r', 't'}
	// CIDSmpl is the chunk ID for the sampler chunk.
	CIDSmpl = FourCC{'s', 'm', 'p', 'l'}
	// CIDID3 is the chunk ID written for embedded ID3 tags.
	CIDID3 = FourCC{'i', 'd', '3', ' '}
	// CIDID3Upper is the alternative spelling of CIDID3 found in the wild.
	CIDID3Upper = FourCC{'I', 'D', '3', ' '}

	// CIDInfo is the list type of an INFO LIST chunk.
	CIDInfo = FourCC{'I', 'N', 'F', 'O'}
	// CIDAdtl is the list type of an associated data LIST chunk.
	CIDAdtl = FourCC{'a', 'd', 't', 'l'}
	// CIDLabl is the adtl sub-chunk carrying a cue label.
	CIDLabl = FourCC{'l', 'a', 'b', 'l'}
	// CIDNote is the adtl sub-chunk carrying a cue note.
	CIDNote = FourCC{'n', 'o', 't', 'e'}
	// CIDLtxt is the adtl sub-chunk carrying a cue region.
	CIDLtxt = FourCC{'l', 't', 'x', 't'}
	// CIDRgn is the default purpose of a region.
	CIDRgn = FourCC{'r', 'g', 'n', ' '}
)
