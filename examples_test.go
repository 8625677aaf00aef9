package bwav

import (
	"bytes"
	"fmt"
	"log"

	"github.com/go-audio/audio"
)

func ExampleNewWriter() {
	out := &memWriteSeeker{}

	w, err := NewWriter(out, NewPCMFormat(48000, 2, 24))
	if err != nil {
		log.Fatal(err)
	}

	if err := w.SetBroadcastExtension(&BroadcastExtension{Description: "take 1", OriginationDate: "2026-02-06"}); err != nil {
		log.Fatal(err)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:   make([]int, 2*4800),
	}

	if err := w.WriteInt(buf); err != nil {
		log.Fatal(err)
	}

	// Close patches the sizes; the destination stays open.
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(r.Kind(), r.Format())
	fmt.Println(r.FrameCount(), "frames,", r.Duration())
	// Output:
	// RIFF 48000 Hz @ 24 bits (24 valid), 2 channel(s), PCM
	// 4800 frames, 100ms
}

func ExampleReader_Channels() {
	format := NewPCMFormat(48000, 6, 16)
	format.ChannelMask = Mask5Point1

	var out bytes.Buffer

	w, err := NewBufferedWriter(&out, format)
	if err != nil {
		log.Fatal(err)
	}

	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		log.Fatal(err)
	}

	for _, ch := range r.Channels() {
		fmt.Println(ch.Index, ch.Speaker)
	}
	// Output:
	// 0 FL
	// 1 FR
	// 2 FC
	// 3 LFE
	// 4 BL
	// 5 BR
}

func ExampleReader_Cues() {
	var out bytes.Buffer

	w, err := NewBufferedWriter(&out, NewPCMFormat(48000, 1, 16))
	if err != nil {
		log.Fatal(err)
	}

	if err := w.SetCues([]CuePoint{{ID: 1, Frame: 4800, Label: "Marker A"}}); err != nil {
		log.Fatal(err)
	}

	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		log.Fatal(err)
	}

	cues, err := r.Cues()
	if err != nil {
		log.Fatal(err)
	}

	for _, p := range cues.Points {
		fmt.Printf("cue %d at frame %d: %s\n", p.ID, p.Frame, p.Label)
	}
	// Output: cue 1 at frame 4800: Marker A
}

func ExampleReader_Validate() {
	var out bytes.Buffer

	w, err := NewBufferedWriter(&out, NewPCMFormat(44100, 2, 16))
	if err != nil {
		log.Fatal(err)
	}

	w.ForceRF64 = true

	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(r.Index().Signature, r.Kind())

	for _, warning := range r.Validate(ValidateOptions{Minimal: true, PreparedForAppend: true}) {
		fmt.Println(warning)
	}
	// Output:
	// RF64 RF64
	// minimal: RF64 container
	// minimal: extra ds64 chunk
}
