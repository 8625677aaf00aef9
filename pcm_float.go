package bwav

import "math"

func clampFloat32(value, min, max float32) float32 {
	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// pcmScale is the magnitude of the most negative sample of the given width.
func pcmScale(validBits int) float64 {
	return math.Ldexp(1, validBits-1)
}

// normalizePCMInt maps a right-justified signed sample to [-1, 1).
func normalizePCMInt(sample int, validBits int) float32 {
	if validBits <= 0 {
		return 0
	}

	return float32(float64(sample) / pcmScale(validBits))
}

// float32ToPCMInt quantises a sample in [-1, 1] to a signed integer of
// validBits, clamping values out of range. NaN maps to silence.
func float32ToPCMInt(value float32, validBits int) int {
	if validBits <= 0 || math.IsNaN(float64(value)) {
		return 0
	}

	value = clampFloat32(value, -1, 1)

	scale := pcmScale(validBits)
	maxSample := int64(scale) - 1
	minSample := -int64(scale)

	sample := min(int64(math.Round(float64(value)*scale)), maxSample)
	if sample < minSample {
		sample = minSample
	}

	return int(sample)
}
