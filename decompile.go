package flictool

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/flictool/bmp"
	"github.com/bodgit/flictool/flh"
)

func saveFrame(file string, frame *flh.Frame) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := bmp.Encode(f, frame); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decompile decodes an FLH animation into one frameNNNN.bmp bitmap
// per frame in the output directory, numbered from frame0001.bmp in
// playback order.
func (t *Tool) Decompile(input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := flh.NewDecoder(bufio.NewReader(f))
	if err != nil {
		return err
	}

	config := d.Config()
	t.logger.Printf("\"%s\": %d frames of %dx%d\n", input, config.Frames, config.Width, config.Height)

	for i := 0; ; i++ {
		frame, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := saveFrame(filepath.Join(output, fmt.Sprintf("frame%04d.bmp", i+1)), frame); err != nil {
			return err
		}
	}

	for _, chunk := range d.Skipped() {
		t.logger.Printf("Warning: skipped unknown chunk type %d in \"%s\"\n", chunk, input)
	}

	return nil
}
