package flh

import (
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(width, height int, vals ...uint16) *Frame {
	if len(vals) != width*height {
		panic("bad test fixture")
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    pixels(vals...),
	}
}

func encodeToBytes(t *testing.T, frames []*Frame) []byte {
	t.Helper()

	name := filepath.Join(t.TempDir(), "out.flh")
	f, err := os.Create(name)
	require.NoError(t, err)

	require.NoError(t, Encode(f, frames))
	require.NoError(t, f.Close())

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	return b
}

func TestEncodeSolidFrame(t *testing.T) {
	vals := make([]uint16, 8)
	for i := range vals {
		vals[i] = 0x001f
	}
	b := encodeToBytes(t, []*Frame{frameOf(4, 2, vals...)})

	// 128 header + 16 frame header + 6 chunk header + 2 rows of
	// (count byte + repeat packet).
	require.Len(t, b, 158)

	assert.Equal(t, uint32(158), binary.LittleEndian.Uint32(b[0x00:]))
	assert.Equal(t, uint16(Magic), binary.LittleEndian.Uint16(b[0x04:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[0x06:]))
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(b[0x08:]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(b[0x0a:]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(b[0x0c:]))

	// First frame offsets expected by the game.
	assert.Equal(t, uint32(0x80), binary.LittleEndian.Uint32(b[0x50:]))
	assert.Equal(t, uint32(0x80+30), binary.LittleEndian.Uint32(b[0x54:]))

	assert.Equal(t, uint32(30), binary.LittleEndian.Uint32(b[128:]))
	assert.Equal(t, uint16(frameMagic), binary.LittleEndian.Uint16(b[132:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[134:]))

	assert.Equal(t, uint32(14), binary.LittleEndian.Uint32(b[144:]))
	assert.Equal(t, uint16(chunkDtaBrun), binary.LittleEndian.Uint16(b[148:]))

	assert.Equal(t, []byte{0x01, 0x04, 0x1f, 0x00, 0x01, 0x04, 0x1f, 0x00}, b[150:])
}

func TestEncodeLiteralFrame(t *testing.T) {
	b := encodeToBytes(t, []*Frame{frameOf(4, 1, 0x00aa, 0x00bb, 0x00cc, 0x00dd)})

	// A literal run writes its negated length as the count byte.
	assert.Equal(t, []byte{0x01, 0xfc, 0xaa, 0x00, 0xbb, 0x00, 0xcc, 0x00, 0xdd, 0x00}, b[150:])
}

func TestEncodeUnchangedDelta(t *testing.T) {
	frame := frameOf(2, 2, 1, 2, 3, 4)
	second := frameOf(2, 2, 1, 2, 3, 4)
	b := encodeToBytes(t, []*Frame{frame, second})

	// The delta frame degenerates to a zero modified line count.
	delta := b[len(b)-24:]
	assert.Equal(t, uint32(24), binary.LittleEndian.Uint32(delta[0:]))
	assert.Equal(t, uint16(frameMagic), binary.LittleEndian.Uint16(delta[4:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(delta[6:]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(delta[16:]))
	assert.Equal(t, uint16(chunkDtaLC), binary.LittleEndian.Uint16(delta[20:]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(delta[22:]))
}

func TestEncodeSinglePixelDelta(t *testing.T) {
	first := frameOf(4, 1, 0x00aa, 0x00bb, 0x00cc, 0x00dd)
	second := frameOf(4, 1, 0x00aa, 0x00bb, 0x0077, 0x00dd)
	b := encodeToBytes(t, []*Frame{first, second})

	delta := b[len(b)-30:]
	assert.Equal(t, uint32(30), binary.LittleEndian.Uint32(delta[0:]))
	assert.Equal(t, uint32(14), binary.LittleEndian.Uint32(delta[16:]))
	assert.Equal(t, uint16(chunkDtaLC), binary.LittleEndian.Uint16(delta[20:]))

	// One modified line, one packet: skip two pixels, copy one.
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(delta[22:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(delta[24:]))
	assert.Equal(t, []byte{0x02, 0x01, 0x77, 0x00}, delta[26:])
}

func TestEncodeSizeConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	width, height := 17, 9

	frames := make([]*Frame, 6)
	for i := range frames {
		vals := make([]uint16, width*height)
		for j := range vals {
			vals[j] = uint16(r.Intn(5))
		}
		frames[i] = frameOf(width, height, vals...)
	}

	b := encodeToBytes(t, frames)

	require.Equal(t, uint32(len(b)), binary.LittleEndian.Uint32(b[0x00:]))
	require.Equal(t, uint16(len(frames)), binary.LittleEndian.Uint16(b[0x06:]))

	offset := uint32(headerSize)
	for i := 0; i < len(frames); i++ {
		size := binary.LittleEndian.Uint32(b[offset:])
		require.Equal(t, uint16(frameMagic), binary.LittleEndian.Uint16(b[offset+4:]))
		require.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[offset+6:]))

		chunkSize := binary.LittleEndian.Uint32(b[offset+frameHeaderSize:])
		require.Equal(t, size-frameHeaderSize, chunkSize)

		if i == 0 {
			require.Equal(t, uint32(0x80), binary.LittleEndian.Uint32(b[0x50:]))
			require.Equal(t, size+0x80, binary.LittleEndian.Uint32(b[0x54:]))
			require.Equal(t, uint16(chunkDtaBrun), binary.LittleEndian.Uint16(b[offset+frameHeaderSize+4:]))
		} else {
			require.Equal(t, uint16(chunkDtaLC), binary.LittleEndian.Uint16(b[offset+frameHeaderSize+4:]))
		}

		offset += size
	}
	require.Equal(t, uint32(len(b)), offset)
}

func TestEncodeNoFrames(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.flh"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, ErrNoFrames, Encode(f, nil))
}

func TestEncodeGeometryMismatch(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.flh"))
	require.NoError(t, err)
	defer f.Close()

	frames := []*Frame{
		frameOf(2, 1, 1, 2),
		frameOf(1, 2, 1, 2),
	}
	assert.Equal(t, ErrGeometry, Encode(f, frames))
}
