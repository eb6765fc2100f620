package flh

import (
	"encoding/binary"
	"io"
)

// The size fields of the file, frame and chunk headers are only known
// once their payload has been written, so the encoder writes
// placeholder headers, streams the payload and then seeks back to
// patch the sizes. The sink therefore has to be seekable.
type encoder struct {
	w io.WriteSeeker
}

func (e *encoder) write(v interface{}) error {
	return binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) tell() (int64, error) {
	return e.w.Seek(0, io.SeekCurrent)
}

// patch overwrites a previously written 32-bit size field at off and
// returns to the end of the stream.
func (e *encoder) patch(off int64, v uint32) error {
	end, err := e.tell()
	if err != nil {
		return err
	}
	if _, err := e.w.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if err := e.write(v); err != nil {
		return err
	}
	_, err = e.w.Seek(end, io.SeekStart)
	return err
}

func (e *encoder) beginFrame(chunkType uint16) (frameOffset, chunkOffset int64, err error) {
	if frameOffset, err = e.tell(); err != nil {
		return
	}
	if err = e.write(&frameHeader{Magic: frameMagic, Chunks: 1}); err != nil {
		return
	}
	if chunkOffset, err = e.tell(); err != nil {
		return
	}
	err = e.write(&chunkHeader{Type: chunkType})
	return
}

func (e *encoder) endFrame(frameOffset, chunkOffset int64) (int64, error) {
	end, err := e.tell()
	if err != nil {
		return 0, err
	}
	if err := e.patch(chunkOffset, uint32(end-chunkOffset)); err != nil {
		return 0, err
	}
	if err := e.patch(frameOffset, uint32(end-frameOffset)); err != nil {
		return 0, err
	}
	return end - frameOffset, nil
}

func (e *encoder) writePacket(p packet, delta bool) error {
	var hdr []byte
	if delta {
		// DTA_LC: negative count repeats, non-negative count copies.
		count := int8(p.count)
		if p.repeat {
			count = int8(-p.count)
		}
		hdr = []byte{byte(p.skip), byte(count)}
	} else {
		// DTA_BRUN: non-negative count repeats, negative count copies.
		count := int8(-p.count)
		if p.repeat {
			count = int8(p.count)
		}
		hdr = []byte{byte(count)}
	}
	if _, err := e.w.Write(hdr); err != nil {
		return err
	}
	if len(p.pix) == 0 {
		return nil
	}
	_, err := e.w.Write(p.pix)
	return err
}

// writeBrun emits one self-contained frame. Rows are written bottom
// up: each one as a packet count byte followed by its run length
// packets. The count byte truncates to eight bits; readers bound on
// the row width rather than trust it.
func (e *encoder) writeBrun(f *Frame) (int64, error) {
	frameOffset, chunkOffset, err := e.beginFrame(chunkDtaBrun)
	if err != nil {
		return 0, err
	}
	for y := f.Height - 1; y >= 0; y-- {
		packets := encodeLine(f.row(y))
		if _, err := e.w.Write([]byte{byte(len(packets))}); err != nil {
			return 0, err
		}
		for _, p := range packets {
			if err := e.writePacket(p, false); err != nil {
				return 0, err
			}
		}
	}
	return e.endFrame(frameOffset, chunkOffset)
}

// writeLc emits one delta frame against its immediate predecessor.
// The modified line count is back-patched once the rows have been
// walked; unchanged rows in front of a modified one are folded into a
// negative line skip word, trailing unchanged rows are simply not
// represented.
func (e *encoder) writeLc(last, f *Frame) (int64, error) {
	frameOffset, chunkOffset, err := e.beginFrame(chunkDtaLC)
	if err != nil {
		return 0, err
	}
	lineOffset, err := e.tell()
	if err != nil {
		return 0, err
	}
	if err := e.write(uint16(0)); err != nil {
		return 0, err
	}
	var lines uint16
	lineSkip := 0
	for y := f.Height - 1; y >= 0; y-- {
		line, lastLine := f.row(y), last.row(y)
		if lineEqual(line, lastLine) {
			lineSkip++
			continue
		}
		if lineSkip > 0 {
			if err := e.write(int16(-lineSkip)); err != nil {
				return 0, err
			}
			lineSkip = 0
		}
		packets := encodeDeltaLine(line, lastLine)
		if err := e.write(uint16(len(packets))); err != nil {
			return 0, err
		}
		for _, p := range packets {
			if err := e.writePacket(p, true); err != nil {
				return 0, err
			}
		}
		lines++
	}
	end, err := e.tell()
	if err != nil {
		return 0, err
	}
	if _, err := e.w.Seek(lineOffset, io.SeekStart); err != nil {
		return 0, err
	}
	if err := e.write(lines); err != nil {
		return 0, err
	}
	if _, err := e.w.Seek(end, io.SeekStart); err != nil {
		return 0, err
	}
	return e.endFrame(frameOffset, chunkOffset)
}

// Encode writes the frames to w as an FLH animation. The first frame
// becomes a DTA_BRUN chunk, every following frame a DTA_LC chunk
// against its predecessor. All frames must share the same geometry.
func Encode(w io.WriteSeeker, frames []*Frame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	width, height := frames[0].Width, frames[0].Height
	for _, f := range frames {
		if f.Width != width || f.Height != height || len(f.Pix) != width*height*bytesPerPixel {
			return ErrGeometry
		}
	}

	e := &encoder{w: w}

	if err := e.write(&fileHeader{
		Magic:  Magic,
		Frames: uint16(len(frames)),
		Width:  uint16(width),
		Height: uint16(height),
		Depth:  depth,
	}); err != nil {
		return err
	}

	first, err := e.writeBrun(frames[0])
	if err != nil {
		return err
	}

	// The Rock Raiders reader wants the offsets to the start and end
	// of the first frame inside the header padding.
	if err := e.patch(firstFrameOffset, headerSize); err != nil {
		return err
	}
	if err := e.patch(firstFrameOffset+4, uint32(first)+headerSize); err != nil {
		return err
	}

	for i := 1; i < len(frames); i++ {
		if _, err := e.writeLc(frames[i-1], frames[i]); err != nil {
			return err
		}
	}

	size, err := e.tell()
	if err != nil {
		return err
	}
	return e.patch(0, uint32(size))
}
