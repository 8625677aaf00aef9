// This tool prints the format, chunk layout, metadata and validation
// warnings of a wav file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cwbudde/bwav"
)

const missingPathMessage = "You must pass the path of the file to inspect"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("wavinfo", flag.ContinueOnError)

	broadcast := flagSet.Bool("broadcast", false, "require a bext chunk")
	adm := flagSet.Bool("adm", false, "require axml and chna chunks")
	minimal := flagSet.Bool("minimal", false, "require a plain fmt + data file")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if flagSet.NArg() < 1 {
		return errMissingPath
	}

	file, err := os.Open(flagSet.Arg(0))
	if err != nil {
		return err
	}
	defer file.Close()

	r, err := bwav.NewReader(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Container: %s\n", r.Index().Signature)
	fmt.Fprintf(out, "Format: %s\n", r.Format())
	fmt.Fprintf(out, "Frames: %d (%s)\n", r.FrameCount(), r.Duration())

	fmt.Fprintln(out, "Chunks:")

	for _, c := range r.Index().Chunks {
		fmt.Fprintf(out, "\t%s\t@%d\t%d bytes\n", c.ID, c.Offset, c.Size)
	}

	fmt.Fprint(out, "Channels:")

	for _, ch := range r.Channels() {
		fmt.Fprintf(out, " %s", ch.Speaker)
	}

	fmt.Fprintln(out)

	if bext, err := r.BroadcastExtension(); err == nil {
		fmt.Fprintf(out, "Description: %s\n", bext.Description)
		fmt.Fprintf(out, "Originator: %s\n", bext.Originator)
		fmt.Fprintf(out, "OriginationDate: %s %s\n", bext.OriginationDate, bext.OriginationTime)
		fmt.Fprintf(out, "TimeReference: %d\n", bext.TimeReference)

		if bext.CodingHistory != "" {
			fmt.Fprintf(out, "CodingHistory: %s\n", bext.CodingHistory)
		}
	}

	if info, err := r.Info(); err == nil {
		fmt.Fprintf(out, "Artist: %s\n", info.Artist)
		fmt.Fprintf(out, "Title: %s\n", info.Title)
		fmt.Fprintf(out, "Comments: %s\n", info.Comments)
		fmt.Fprintf(out, "Copyright: %s\n", info.Copyright)
		fmt.Fprintf(out, "CreationDate: %s\n", info.CreationDate)
		fmt.Fprintf(out, "Software: %s\n", info.Software)
		fmt.Fprintf(out, "TrackNbr: %s\n", info.TrackNbr)
	}

	if smpl, err := r.Sampler(); err == nil {
		fmt.Fprintln(out, "Sample Info:")
		fmt.Fprintf(out, "\tunity note %d, %d loop(s)\n", smpl.MIDIUnityNote, len(smpl.Loops))

		for i, l := range smpl.Loops {
			fmt.Fprintf(out, "\tloop [%d]:\t%+v\n", i, l)
		}
	}

	if cues, err := r.Cues(); err == nil {
		for _, c := range cues.Points {
			fmt.Fprintf(out, "\tcue point [%d]:\tframe %d %q\n", c.ID, c.Frame, c.Label)
		}
	}

	warnings := r.Validate(bwav.ValidateOptions{Broadcast: *broadcast, ADM: *adm, Minimal: *minimal})
	if len(warnings) == 0 {
		fmt.Fprintln(out, "No warnings")
		return nil
	}

	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	return nil
}
