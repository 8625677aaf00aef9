package bwav

import (
	"fmt"
	"math/bits"
	"strings"
)

// Speaker is one standard speaker position of an extensible channel mask.
type Speaker uint32

const (
	// DirectOut marks a channel with no speaker assignment.
	DirectOut        Speaker = 0x0
	FrontLeft        Speaker = 0x1
	FrontRight       Speaker = 0x2
	FrontCenter      Speaker = 0x4
	LowFrequency     Speaker = 0x8
	BackLeft         Speaker = 0x10
	BackRight        Speaker = 0x20
	FrontLeftCenter  Speaker = 0x40
	FrontRightCenter Speaker = 0x80
	BackCenter       Speaker = 0x100
	SideLeft         Speaker = 0x200
	SideRight        Speaker = 0x400
	TopCenter        Speaker = 0x800
	TopFrontLeft     Speaker = 0x1000
	TopFrontCenter   Speaker = 0x2000
	TopFrontRight    Speaker = 0x4000
	TopBackLeft      Speaker = 0x8000
	TopBackCenter    Speaker = 0x10000
	TopBackRight     Speaker = 0x20000
)

var speakerNames = map[Speaker]string{
	DirectOut:        "DirectOut",
	FrontLeft:        "FL",
	FrontRight:       "FR",
	FrontCenter:      "FC",
	LowFrequency:     "LFE",
	BackLeft:         "BL",
	BackRight:        "BR",
	FrontLeftCenter:  "FLC",
	FrontRightCenter: "FRC",
	BackCenter:       "BC",
	SideLeft:         "SL",
	SideRight:        "SR",
	TopCenter:        "TC",
	TopFrontLeft:     "TFL",
	TopFrontCenter:   "TFC",
	TopFrontRight:    "TFR",
	TopBackLeft:      "TBL",
	TopBackCenter:    "TBC",
	TopBackRight:     "TBR",
}

func (s Speaker) String() string {
	if name, ok := speakerNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Speaker(0x%x)", uint32(s))
}

// ChannelMask is the dwChannelMask bitset of an extensible fmt record.
type ChannelMask uint32

// Common masks.
const (
	MaskMono     = ChannelMask(FrontCenter)
	MaskStereo   = ChannelMask(FrontLeft | FrontRight)
	MaskQuad     = ChannelMask(FrontLeft | FrontRight | BackLeft | BackRight)
	Mask5Point1  = ChannelMask(FrontLeft | FrontRight | FrontCenter | LowFrequency | BackLeft | BackRight)
	Mask7Point1  = Mask5Point1 | ChannelMask(SideLeft|SideRight)
	maskReserved = ChannelMask(0x80000000)
)

// Count returns the number of speakers in the mask.
func (m ChannelMask) Count() int {
	return bits.OnesCount32(uint32(m &^ maskReserved))
}

// Speakers returns the speakers of the mask in channel order, which is
// ascending bit order.
func (m ChannelMask) Speakers() []Speaker {
	out := make([]Speaker, 0, m.Count())

	rest := uint32(m &^ maskReserved)
	for rest != 0 {
		bit := rest & -rest
		out = append(out, Speaker(bit))
		rest &^= bit
	}

	return out
}

func (m ChannelMask) String() string {
	if m == 0 {
		return "none"
	}

	names := make([]string, 0, m.Count())
	for _, s := range m.Speakers() {
		names = append(names, s.String())
	}

	return strings.Join(names, " ")
}

// ChannelDescriptor describes one channel of a frame.
type ChannelDescriptor struct {
	// Index is the position of the channel's sample in a frame.
	Index   int
	Speaker Speaker
	// ADMAudioIDs lists the chna entries that reference this channel.
	ADMAudioIDs []ADMAudioID
}

// describeChannels assigns a speaker to every channel of the format.
//
// With a mask, channels take the mask speakers in ascending bit order and any
// channel past the mask is DirectOut. Without a mask, a mono file is
// FrontCenter and other files follow the positional convention of channel i
// on bit i. Ambisonic channels are always DirectOut.
func describeChannels(format Format, chna *ChannelAssignment) []ChannelDescriptor {
	out := make([]ChannelDescriptor, format.Channels)

	var speakers []Speaker

	switch {
	case format.SampleFormat.IsAmbisonic():
	case format.ChannelMask != 0:
		speakers = format.ChannelMask.Speakers()
	case format.Channels == 1:
		speakers = []Speaker{FrontCenter}
	default:
		for i := 0; i < int(format.Channels) && i < 18; i++ {
			speakers = append(speakers, Speaker(1<<i))
		}
	}

	for i := range out {
		out[i].Index = i
		out[i].Speaker = DirectOut

		if i < len(speakers) {
			out[i].Speaker = speakers[i]
		}
	}

	if chna != nil {
		for _, id := range chna.AudioIDs {
			idx := int(id.TrackIndex) - 1
			if idx < 0 || idx >= len(out) {
				continue
			}

			out[idx].ADMAudioIDs = append(out[idx].ADMAudioIDs, id)
		}
	}

	return out
}
