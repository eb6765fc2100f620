/*
Package flh implements a decoder and encoder for the FLH animation
format used by Rock Raiders, a 16 bpp dialect of the Autodesk FLIC
family.

A file is a 128 byte header followed by one compressed frame per
animation frame. The first frame is self-contained and run length
encoded per row (DTA_BRUN); every later frame stores only the pixels
that differ from its predecessor (DTA_LC). All multi-byte fields and
pixels are little-endian. Pixels are opaque two byte values; the
bitmap layer reads them as 5-5-5 RGB but the codec never looks inside
them, it only compares them for equality.

The two chunk types use opposite sign conventions for the packet count
byte: in DTA_BRUN a non-negative count is a repeat and a negative
count a literal copy, in DTA_LC it is the other way around.
*/
package flh

import "errors"

const (
	// Magic identifies a Rock Raiders FLH file.
	Magic = 0xaf43

	frameMagic = 0xf1fa

	headerSize      = 128
	frameHeaderSize = 16
	chunkHeaderSize = 6

	// Offset within the file header padding where the Rock Raiders
	// reader expects the offsets to the start and end of the first
	// frame.
	firstFrameOffset = 0x50

	bytesPerPixel = 2
	depth         = 16

	maxRun  = 127
	maxSkip = 255
)

// Chunk types defined by the FLIC family. Only DTA_BRUN and DTA_LC are
// ever produced; the remainder are recognised on read and skipped.
const (
	chunkColor   = 11
	chunkLC      = 12
	chunkBlack   = 13
	chunkBrun    = 15
	chunkCopy    = 16
	chunkDtaBrun = 25
	chunkDtaCopy = 26
	chunkDtaLC   = 27
)

var (
	// ErrInvalidMagic is returned when the input does not start with
	// the FLH magic number.
	ErrInvalidMagic = errors.New("flh: invalid magic")

	// ErrNoFrames is returned when encoding an empty frame sequence.
	ErrNoFrames = errors.New("flh: no frames")

	// ErrGeometry is returned when the frames passed to the encoder
	// disagree on width or height.
	ErrGeometry = errors.New("flh: frames must share geometry")

	// ErrDepth is returned when the file header declares a pixel
	// depth other than 16 bpp.
	ErrDepth = errors.New("flh: unsupported depth")

	errOverrun     = errors.New("flh: packet overruns row")
	errNoReference = errors.New("flh: delta frame without reference")
)

type fileHeader struct {
	Size   uint32
	Magic  uint16
	Frames uint16
	Width  uint16
	Height uint16
	Depth  uint16
	Flags  uint16
	Speed  uint16
	Next   uint32
	Frit   uint32
	_      [102]byte
}

type frameHeader struct {
	Size   uint32
	Magic  uint16
	Chunks uint16
	_      [8]byte
}

type chunkHeader struct {
	Size uint32
	Type uint16
}

// Frame is a single uncompressed animation frame: Width by Height
// pixels of two bytes each, stored top row first.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrame returns a zeroed frame of the given dimensions.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*bytesPerPixel),
	}
}

func (f *Frame) row(y int) []byte {
	pitch := f.Width * bytesPerPixel
	return f.Pix[y*pitch : (y+1)*pitch]
}

// Config holds the dimensions and frame count of an animation without
// any pixel data.
type Config struct {
	Width  int
	Height int
	Depth  int
	Frames int
}
