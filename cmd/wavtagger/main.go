// This command line tool helps the user tag wav files by injecting metadata in
// the file in a safe way.
// All files are copied and stored in the wavtagger folder by the original files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cwbudde/bwav"
	"github.com/go-audio/audio"
)

var (
	flagFileToTag   = flag.String("file", "", "Path to the wave file to tag")
	flagDirToTag    = flag.String("dir", "", "Directory containing all the wav files to tag")
	flagTitleRegexp = flag.String("regexp", "", `submatch regexp to use to set the title dynamically by extracting it from the filename (ignoring the extension), example: 'my_files_\d\d_(.*)'`)
	//
	flagTitle     = flag.String("title", "", "File's title")
	flagArtist    = flag.String("artist", "", "File's artist")
	flagComments  = flag.String("comments", "", "File's comments")
	flagCopyright = flag.String("copyright", "", "File's copyright")
	flagGenre     = flag.String("genre", "", "File's genre")
	// broadcast extension
	flagDescription = flag.String("description", "", "bext description")
	flagOriginator  = flag.String("originator", "", "bext originator")
	flagDate        = flag.String("date", "", "bext origination date, yyyy-mm-dd")
)

const copyFrames = 8192

func main() {
	flag.Parse()

	if *flagFileToTag == "" && *flagDirToTag == "" {
		fmt.Println("You need to pass -file or -dir to indicate what file or folder content to tag.")
		os.Exit(1)
	}

	if *flagFileToTag != "" {
		err := tagFile(*flagFileToTag)
		if err != nil {
			fmt.Printf("Something went wrong when tagging %s - error: %v\n", *flagFileToTag, err)
			os.Exit(1)
		}
	}

	if *flagDirToTag != "" {
		var filePath string

		fileInfos, _ := os.ReadDir(*flagDirToTag)
		for _, fi := range fileInfos {
			if strings.HasPrefix(
				strings.ToLower(filepath.Ext(fi.Name())),
				".wav") {
				filePath = filepath.Join(*flagDirToTag, fi.Name())

				err := tagFile(filePath)
				if err != nil {
					fmt.Printf("Something went wrong tagging %s - %v\n", filePath, err)
				}
			}
		}
	}
}

func tagFile(path string) (err error) {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s - %w", path, err)
	}
	defer in.Close()

	r, err := bwav.NewReader(in)
	if err != nil {
		return fmt.Errorf("couldn't read %s %w", path, err)
	}

	outputDir := filepath.Join(filepath.Dir(path), "wavtagger")

	outPath := filepath.Join(outputDir, filepath.Base(path))
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("couldn't create %s %w", outPath, err)
	}

	defer func() {
		cerr := out.Close()
		if cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w, err := bwav.NewWriterFromReader(out, r)
	if err != nil {
		return fmt.Errorf("failed to set up the writer - %w", err)
	}

	if err := w.SetInfo(mergeInfo(r, path)); err != nil {
		return err
	}

	if bext := mergeBroadcastExtension(r); bext != nil {
		if err := w.SetBroadcastExtension(bext); err != nil {
			return err
		}
	}

	if err := copyAudio(r.FrameReader(), w); err != nil {
		return fmt.Errorf("failed to copy audio - %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s - %w", outPath, err)
	}

	fmt.Println("Tagged file available at", outPath)

	return nil
}

// mergeInfo starts from the INFO chunk of the source, if any, and applies
// the flags on top of it.
func mergeInfo(r *bwav.Reader, path string) *bwav.Info {
	info, err := r.Info()
	if err != nil {
		info = &bwav.Info{}
	}

	if *flagArtist != "" {
		info.Artist = *flagArtist
	}

	if *flagTitleRegexp != "" {
		filename := filepath.Base(path)
		filename = filename[:len(filename)-len(filepath.Ext(path))]
		re := regexp.MustCompile(*flagTitleRegexp)

		matches := re.FindStringSubmatch(filename)
		if len(matches) > 1 {
			info.Title = matches[1]
		} else {
			fmt.Printf("No matches for title regexp %s in %s\n", *flagTitleRegexp, filename)
		}
	}

	if *flagTitle != "" {
		info.Title = *flagTitle
	}

	if *flagComments != "" {
		info.Comments = *flagComments
	}

	if *flagCopyright != "" {
		info.Copyright = *flagCopyright
	}

	if *flagGenre != "" {
		info.Genre = *flagGenre
	}

	return info
}

// mergeBroadcastExtension returns nil when no bext flag is set, keeping the
// source chunk untouched.
func mergeBroadcastExtension(r *bwav.Reader) *bwav.BroadcastExtension {
	if *flagDescription == "" && *flagOriginator == "" && *flagDate == "" {
		return nil
	}

	bext, err := r.BroadcastExtension()
	if err != nil {
		bext = &bwav.BroadcastExtension{}
	}

	if *flagDescription != "" {
		bext.Description = *flagDescription
	}

	if *flagOriginator != "" {
		bext.Originator = *flagOriginator
	}

	if *flagDate != "" {
		bext.OriginationDate = *flagDate
	}

	return bext
}

func copyAudio(fr *bwav.FrameReader, w *bwav.Writer) error {
	channels := int(fr.Format().Channels)

	if fr.Format().SampleFormat.IsFloat() {
		buf := &audio.Float32Buffer{Data: make([]float32, copyFrames*channels)}

		for {
			n, err := fr.ReadFloat32(buf)
			if n > 0 {
				if werr := w.WriteFloat32(&audio.Float32Buffer{Format: buf.Format, Data: buf.Data[:n*channels]}); werr != nil {
					return werr
				}
			}

			if err != nil || n == 0 {
				return err
			}
		}
	}

	buf := &audio.IntBuffer{Data: make([]int, copyFrames*channels)}

	for {
		n, err := fr.ReadInt(buf)
		if n > 0 {
			if werr := w.WriteInt(&audio.IntBuffer{Format: buf.Format, Data: buf.Data[:n*channels]}); werr != nil {
				return werr
			}
		}

		if err != nil || n == 0 {
			return err
		}
	}
}
