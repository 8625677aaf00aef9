// This tool converts a wav file into an identical aiff file and stores
// it in the same folder as the source. Float sources are quantised to 24 bits.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/cwbudde/bwav"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

var flagPath = flag.String("path", "", "The path to the wav file to convert to aiff")

const (
	bufferFrames = 65536
	floatDepth   = 24
)

func main() {
	flag.Parse()

	if *flagPath == "" {
		fmt.Println("You must set the -path flag")
		os.Exit(1)
	}

	sourcePath := *flagPath
	if strings.HasPrefix(sourcePath, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatal("Failed to get the user home directory")
		}

		sourcePath = strings.Replace(sourcePath, "~", usr.HomeDir, 1)
	}

	outPath, err := convert(sourcePath)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Wav file converted to %s\n", outPath)
}

func convert(sourcePath string) (outPath string, err error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", sourcePath, err)
	}
	defer file.Close()

	r, err := bwav.NewReader(file)
	if err != nil {
		return "", fmt.Errorf("invalid WAV file: %w", err)
	}

	format := r.Format()

	bitDepth := int(format.BitsPerSample)
	if format.SampleFormat.IsFloat() {
		bitDepth = floatDepth
	}

	outPath = sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))] + ".aif"

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	defer func() {
		cerr := outFile.Close()
		if cerr != nil && err == nil {
			err = cerr
		}
	}()

	channels := int(format.Channels)
	encoder := aiff.NewEncoder(outFile, int(format.SampleRate), bitDepth, channels)
	audioFormat := &audio.Format{NumChannels: channels, SampleRate: int(format.SampleRate)}

	fr := r.FrameReader()
	intBuf := &audio.IntBuffer{Format: audioFormat, SourceBitDepth: bitDepth, Data: make([]int, bufferFrames*channels)}
	floatBuf := &audio.Float32Buffer{Format: audioFormat, Data: make([]float32, bufferFrames*channels)}
	// samples with padding bits are scaled back to the full container
	shift := uint(format.BitsPerSample - format.ValidBitsPerSample)

	for {
		var n int

		if format.SampleFormat.IsFloat() {
			n, err = fr.ReadFloat32(floatBuf)
			quantize(intBuf.Data, floatBuf.Data[:n*channels], bitDepth)
		} else {
			n, err = fr.ReadInt(intBuf)
			for i := range intBuf.Data[:n*channels] {
				intBuf.Data[i] <<= shift
			}
		}

		if n > 0 {
			werr := encoder.Write(&audio.IntBuffer{Format: audioFormat, SourceBitDepth: bitDepth, Data: intBuf.Data[:n*channels]})
			if werr != nil {
				return "", werr
			}
		}

		if err != nil {
			return "", err
		}

		if n == 0 {
			break
		}
	}

	if err := encoder.Close(); err != nil {
		return "", err
	}

	return outPath, nil
}

// quantize scales float samples to signed integers of bitDepth bits,
// clamping to [-1, 1].
func quantize(dst []int, src []float32, bitDepth int) {
	scale := math.Ldexp(1, bitDepth-1)

	for i, v := range src {
		s := math.Round(float64(clampFloat32(v, -1, 1)) * scale)
		dst[i] = int(max(-scale, min(s, scale-1)))
	}
}

func clampFloat32(value, min, max float32) float32 {
	switch {
	case math.IsNaN(float64(value)):
		return 0
	case value < min:
		return min
	case value > max:
		return max
	}

	return value
}
