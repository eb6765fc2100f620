package flh

import (
	"encoding/binary"
	"io"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Decoder reads an FLH animation one frame at a time. The most
// recently decoded frame is kept as the reference for the next delta
// frame; that reference is the same Frame that Next returned, not a
// copy of it.
type Decoder struct {
	r       io.Reader
	config  Config
	decoded int
	last    *Frame
	skipped []uint16

	tmp [bytesPerPixel]byte
}

// NewDecoder reads and validates the file header from r, leaving the
// stream positioned at the first frame.
func NewDecoder(r io.Reader) (*Decoder, error) {
	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if h.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	if h.Depth != depth {
		return nil, ErrDepth
	}
	return &Decoder{
		r: r,
		config: Config{
			Width:  int(h.Width),
			Height: int(h.Height),
			Depth:  int(h.Depth),
			Frames: int(h.Frames),
		},
	}, nil
}

// Config returns the animation dimensions and frame count.
func (d *Decoder) Config() Config {
	return d.config
}

// Skipped returns the types of any chunks that were not understood
// and skipped over so far.
func (d *Decoder) Skipped() []uint16 {
	return d.skipped
}

// Next decodes and returns the next frame, or io.EOF once the number
// of frames declared by the header have been decoded.
func (d *Decoder) Next() (*Frame, error) {
	if d.decoded == d.config.Frames {
		return nil, io.EOF
	}

	var fh frameHeader
	if err := binary.Read(d.r, binary.LittleEndian, &fh); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	frame := NewFrame(d.config.Width, d.config.Height)
	for c := 0; c < int(fh.Chunks); c++ {
		var ch chunkHeader
		if err := binary.Read(d.r, binary.LittleEndian, &ch); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch ch.Type {
		case chunkDtaBrun:
			if err := d.readBrun(frame); err != nil {
				return nil, err
			}
		case chunkDtaLC:
			if err := d.readLc(frame); err != nil {
				return nil, err
			}
		default:
			d.skipped = append(d.skipped, ch.Type)
			if _, err := io.CopyN(io.Discard, d.r, int64(ch.Size)-chunkHeaderSize); err != nil {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return nil, err
			}
		}
	}

	d.last = frame
	d.decoded++
	return frame, nil
}

// readBrun renders a DTA_BRUN chunk. Rows appear in the file bottom
// up, so file row y lands on buffer row height-1-y. The per-row packet
// count byte is read but not trusted; the row is full once width
// pixels have been rendered.
func (d *Decoder) readBrun(frame *Frame) error {
	width := d.config.Width
	for y := d.config.Height - 1; y >= 0; y-- {
		if err := readFull(d.r, d.tmp[:1]); err != nil {
			return err
		}
		row := frame.row(y)
		for x := 0; x < width; {
			if err := readFull(d.r, d.tmp[:1]); err != nil {
				return err
			}
			count := int(int8(d.tmp[0]))
			if count >= 0 {
				if x+count > width {
					return errOverrun
				}
				if err := readFull(d.r, d.tmp[:]); err != nil {
					return err
				}
				for j := 0; j < count; j++ {
					copy(row[(x+j)*bytesPerPixel:], d.tmp[:])
				}
				x += count
			} else {
				count = -count
				if x+count > width {
					return errOverrun
				}
				if err := readFull(d.r, row[x*bytesPerPixel:(x+count)*bytesPerPixel]); err != nil {
					return err
				}
				x += count
			}
		}
	}
	return nil
}

// readLc renders a DTA_LC chunk on top of a copy of the previous
// frame. Negative line skip words advance over unchanged rows and do
// not count toward the modified line total.
func (d *Decoder) readLc(frame *Frame) error {
	if d.last == nil {
		return errNoReference
	}
	copy(frame.Pix, d.last.Pix)

	var lines uint16
	if err := binary.Read(d.r, binary.LittleEndian, &lines); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}

	width, height := d.config.Width, d.config.Height
	for j, y := 0, 0; j < int(lines); {
		var v int16
		if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if v < 0 {
			y += int(-v)
			continue
		}
		if y >= height {
			return errOverrun
		}
		row := frame.row(height - y - 1)
		x := 0
		for k := 0; k < int(v); k++ {
			if err := readFull(d.r, d.tmp[:]); err != nil {
				return err
			}
			x += int(d.tmp[0])
			count := int(int8(d.tmp[1]))
			if count < 0 {
				count = -count
				if x+count > width {
					return errOverrun
				}
				if err := readFull(d.r, d.tmp[:]); err != nil {
					return err
				}
				for i := 0; i < count; i++ {
					copy(row[(x+i)*bytesPerPixel:], d.tmp[:])
				}
				x += count
			} else {
				if x+count > width {
					return errOverrun
				}
				if count > 0 {
					if err := readFull(d.r, row[x*bytesPerPixel:(x+count)*bytesPerPixel]); err != nil {
						return err
					}
					x += count
				}
			}
		}
		y++
		j++
	}
	return nil
}

// Decode reads a complete FLH animation from r and returns its
// frames.
func Decode(r io.Reader) ([]*Frame, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	frames := make([]*Frame, 0, d.config.Frames)
	for {
		frame, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// DecodeConfig returns the dimensions and frame count of an FLH
// animation without decoding any frames.
func DecodeConfig(r io.Reader) (Config, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return Config{}, err
	}
	return d.config, nil
}
