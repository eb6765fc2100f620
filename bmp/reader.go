package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/bodgit/flictool/flh"
)

var (
	errNotBitmap      = errors.New("bmp: not a bitmap")
	errDepth          = errors.New("bmp: unsupported bit depth")
	errCompression    = errors.New("bmp: unrecognized compression method")
	errHeader         = errors.New("bmp: unrecognized header type")
	errColorSpace     = errors.New("bmp: unsupported color space")
	errNotEnough      = errors.New("bmp: not enough pixel data")
	errBadPixelOffset = errors.New("bmp: pixel data offset out of range")
)

type decoder struct {
	file fileHeader
	info infoHeader
	mask [4]uint32
	data []byte
}

func (d *decoder) readHeaders(r *bytes.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &d.file); err != nil {
		return errNotBitmap
	}
	if d.file.Magic[0] != 'B' || d.file.Magic[1] != 'M' {
		return errNotBitmap
	}
	if err := binary.Read(r, binary.LittleEndian, &d.info); err != nil {
		return errNotBitmap
	}

	switch d.info.BPP {
	case 16:
		for i := 0; i < 3; i++ {
			d.mask[i] = 0x1f << (i * 5)
		}
	case 24:
		for i := 0; i < 3; i++ {
			d.mask[i] = 0xff << (i * 8)
		}
	case 32:
		for i := 0; i < 4; i++ {
			d.mask[i] = 0xff << (i * 8)
		}
	default:
		return errDepth
	}

	// Bitfields are stored red first in the file but kept blue first
	// here so the channel index lines up with its 5 bit slot.
	switch d.info.Compression {
	case biRGB:
	case biBitfields:
		for i := 0; i < 3; i++ {
			if err := binary.Read(r, binary.LittleEndian, &d.mask[2-i]); err != nil {
				return errNotBitmap
			}
		}
	case biAlphaBitfields:
		// Red, green and blue as above, then alpha in the last slot.
		for _, slot := range [4]int{2, 1, 0, 3} {
			if err := binary.Read(r, binary.LittleEndian, &d.mask[slot]); err != nil {
				return errNotBitmap
			}
		}
	default:
		return errCompression
	}

	switch d.info.Size {
	case 40, 52, 56:
	case 108, 124:
		var signature [4]byte
		if err := binary.Read(r, binary.LittleEndian, &signature); err != nil {
			return errNotBitmap
		}
		if string(signature[:]) != "BGRs" {
			return errColorSpace
		}
	default:
		return errHeader
	}

	return nil
}

// rows copies the pixel rows out of the file. Bitmap rows are stored
// bottom up and padded to four bytes; the returned buffer is top row
// first and unpadded.
func (d *decoder) rows() ([]byte, error) {
	width, height := int(d.info.Width), int(d.info.Height)
	pitch := width * int(d.info.BPP) / 8
	padding := 0
	if pitch%rowAlign != 0 {
		padding = rowAlign - pitch%rowAlign
	}

	if int(d.file.PixelOffset) > len(d.data) {
		return nil, errBadPixelOffset
	}
	src := d.data[d.file.PixelOffset:]
	if len(src) < (pitch+padding)*height-padding {
		return nil, errNotEnough
	}

	out := make([]byte, pitch*height)
	for y := 0; y < height; y++ {
		copy(out[(height-y-1)*pitch:], src[y*(pitch+padding):y*(pitch+padding)+pitch])
	}
	return out, nil
}

// downsample converts 24 or 32 bpp pixels to 5-5-5, scaling each
// channel through its bitfield mask. Alpha is dropped.
func (d *decoder) downsample(src []byte) []byte {
	width, height := int(d.info.Width), int(d.info.Height)
	stride := int(d.info.BPP) / 8

	var shift [4]uint32
	for i := range d.mask {
		if d.mask[i] == 0 {
			continue
		}
		var n uint32
		for p := d.mask[i]; p&1 == 0; p >>= 1 {
			n++
		}
		shift[i] = n
	}

	out := make([]byte, width*height*2)
	for i := 0; i < width*height; i++ {
		var pixel uint32
		for j := 0; j < stride && j < 4; j++ {
			pixel |= uint32(src[i*stride+j]) << (j * 8)
		}
		var packed uint16
		for j := 0; j < 3; j++ {
			c := float64((pixel & d.mask[j]) >> shift[j])
			scaled := int(math.Round(c / float64(d.mask[j]>>shift[j]) * 31))
			packed |= uint16(scaled&0x1f) << (j * 5)
		}
		binary.LittleEndian.PutUint16(out[i*2:], packed)
	}
	return out
}

// Decode reads a bitmap from r and returns it as a single FLH frame.
func Decode(r io.Reader) (*flh.Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	d := decoder{data: data}
	if err := d.readHeaders(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	pix, err := d.rows()
	if err != nil {
		return nil, err
	}
	if d.info.BPP != 16 {
		pix = d.downsample(pix)
	}

	return &flh.Frame{
		Width:  int(d.info.Width),
		Height: int(d.info.Height),
		Pix:    pix,
	}, nil
}
