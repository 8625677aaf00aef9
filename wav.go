package bwav

import (
	"math"
	"time"
)

func nullTermStr(b []byte) string {
	return string(b[:clen(b)])
}

func clen(num []byte) int {
	for i := range num {
		if num[i] == 0 {
			return i
		}
	}

	return len(num)
}

// FrameDuration returns the playback time of n frames.
func (f Format) FrameDuration(n int64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}

	return time.Duration(float64(n) * float64(time.Second) / float64(f.SampleRate))
}

// FramesIn returns the number of whole frames played in dur.
func (f Format) FramesIn(dur time.Duration) int64 {
	return int64(samplesNumFromDuration(dur, int(f.SampleRate)))
}

func samplesNumFromDuration(dur time.Duration, sampleRate int) int {
	if sampleRate == 0 {
		return 0
	}

	return int(math.Floor(dur.Seconds() * float64(sampleRate)))
}
