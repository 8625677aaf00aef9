package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/cwbudde/bwav"
	"github.com/go-audio/audio"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

const blockFrames = 4096

func run(args []string) error {
	flagSet := flag.NewFlagSet("gen-sine", flag.ContinueOnError)

	output := flagSet.String("output", "output.wav", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	sampleRate := flagSet.Uint("rate", 48000, "sample rate in hertz")
	bits := flagSet.Uint("bits", 16, "bits per sample, 32 with -float")
	channels := flagSet.Uint("channels", 1, "number of channels")
	float := flagSet.Bool("float", false, "write 32-bit IEEE float samples")
	rf64 := flagSet.Bool("rf64", false, "write an RF64 container")
	bw64 := flagSet.Bool("bw64", false, "write a BW64 container")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	format := bwav.NewPCMFormat(uint32(*sampleRate), uint16(*channels), uint16(*bits))
	if *float {
		format = bwav.NewFloatFormat(uint32(*sampleRate), uint16(*channels))
	}

	log.Printf("generating a %f sec sine wav at %f hz, %s", *length, *frequency, format)

	file, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}
	defer file.Close()

	wavOut, err := bwav.NewWriter(file, format)
	if err != nil {
		return err
	}

	wavOut.ForceRF64 = *rf64 || *bw64
	if *bw64 {
		wavOut.Signature = bwav.CIDBW64
	}

	numFrames := int(float64(*sampleRate) * *length)
	numChannels := int(*channels)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: numChannels, SampleRate: int(*sampleRate)},
		Data:   make([]float32, 0, blockFrames*numChannels),
	}

	for start := 0; start < numFrames; start += blockFrames {
		buf.Data = buf.Data[:0]

		for i := start; i < min(start+blockFrames, numFrames); i++ {
			v := float32(math.Sin(float64(i) / float64(*sampleRate) * *frequency * 2 * math.Pi))

			for c := 0; c < numChannels; c++ {
				buf.Data = append(buf.Data, v)
			}
		}

		err := wavOut.WriteFloat32(buf)
		if err != nil {
			return err
		}
	}

	return wavOut.Close()
}
