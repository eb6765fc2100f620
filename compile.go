package flictool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bodgit/flictool/bmp"
	"github.com/bodgit/flictool/flh"
)

var frameFilter = regexp.MustCompile(`^frame[0-9]{4}\.bmp$`)

// ErrNoFramesFound is returned by Compile when the input directory
// contains no frameNNNN.bmp files.
var ErrNoFramesFound = errors.New("flictool: no frames found in input directory")

func loadFrame(file string) (*flh.Frame, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return bmp.Decode(f)
}

// Compile encodes the bitmap frames found in the input directory into
// a single FLH animation. Frames are picked up by their frameNNNN.bmp
// name and ordered by it.
func (t *Tool) Compile(input, output string) error {
	entries, err := os.ReadDir(input)
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !frameFilter.MatchString(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(input, entry.Name()))
	}
	if len(files) == 0 {
		return ErrNoFramesFound
	}
	t.logger.Printf("Found %d frames in \"%s\"\n", len(files), input)

	frames := make([]*flh.Frame, 0, len(files))
	for _, file := range files {
		frame, err := loadFrame(file)
		if err != nil {
			return fmt.Errorf("flictool: loading \"%s\": %w", file, err)
		}
		frames = append(frames, frame)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}

	if err := flh.Encode(f, frames); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	t.logger.Printf("Wrote %d frames to \"%s\"\n", len(frames), output)
	return nil
}
