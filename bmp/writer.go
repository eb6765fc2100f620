package bmp

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/bodgit/flictool/flh"
)

var errBadFrame = errors.New("bmp: frame pixel buffer does not match its geometry")

// Encode writes the frame to w as an uncompressed 16 bpp bitmap.
func Encode(w io.Writer, f *flh.Frame) error {
	if len(f.Pix) != f.Width*f.Height*2 {
		return errBadFrame
	}

	pitch := f.Width * 2
	padding := 0
	if pitch%rowAlign != 0 {
		padding = rowAlign - pitch%rowAlign
	}

	if err := binary.Write(w, binary.LittleEndian, &fileHeader{
		Magic:       [2]byte{'B', 'M'},
		FileSize:    uint32(pixelOffset + (pitch+padding)*f.Height),
		PixelOffset: pixelOffset,
	}); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, &infoHeader{
		Size:      infoHeaderSize,
		Width:     uint32(f.Width),
		Height:    uint32(f.Height),
		Planes:    1,
		BPP:       16,
		ImageSize: uint32(f.Width * f.Height),
		PpmX:      96,
		PpmY:      96,
	}); err != nil {
		return err
	}

	// Rows go out bottom up with each one padded to four bytes.
	pad := make([]byte, padding)
	for y := f.Height - 1; y >= 0; y-- {
		if _, err := w.Write(f.Pix[y*pitch : (y+1)*pitch]); err != nil {
			return err
		}
		if padding > 0 {
			if _, err := w.Write(pad); err != nil {
				return err
			}
		}
	}

	return nil
}
