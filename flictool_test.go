package flictool

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/flictool/flh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTool(t *testing.T) *Tool {
	t.Helper()

	tool, err := New(filepath.Join(t.TempDir(), "catalog.db"), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { tool.Close() })

	return tool
}

func writeFrames(t *testing.T, dir string, frames []*flh.Frame) {
	t.Helper()

	for i, frame := range frames {
		require.NoError(t, saveFrame(filepath.Join(dir, fmt.Sprintf("frame%04d.bmp", i+1)), frame))
	}
}

func testFrames(seed int64, count, width, height int) []*flh.Frame {
	r := rand.New(rand.NewSource(seed))
	frames := make([]*flh.Frame, count)
	for i := range frames {
		frame := flh.NewFrame(width, height)
		if i > 0 {
			copy(frame.Pix, frames[i-1].Pix)
		}
		for j := 0; j < len(frame.Pix); j += 2 {
			if i == 0 || r.Intn(4) == 0 {
				frame.Pix[j] = byte(r.Intn(4))
				frame.Pix[j+1] = byte(r.Intn(2))
			}
		}
		frames[i] = frame
	}
	return frames
}

func TestCompileDecompileRoundTrip(t *testing.T) {
	tool := newTestTool(t)

	frames := testFrames(8, 4, 12, 9)

	input := t.TempDir()
	writeFrames(t, input, frames)

	output := filepath.Join(t.TempDir(), "out.flh")
	require.NoError(t, tool.Compile(input, output))

	decompiled := t.TempDir()
	require.NoError(t, tool.Decompile(output, decompiled))

	for i, frame := range frames {
		decoded, err := loadFrame(filepath.Join(decompiled, fmt.Sprintf("frame%04d.bmp", i+1)))
		require.NoError(t, err)
		assert.Equal(t, frame.Pix, decoded.Pix, "frame %d", i)
	}
}

func TestCompileNoFrames(t *testing.T) {
	tool := newTestTool(t)

	input := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(input, "frame1.bmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(input, "notes.txt"), []byte("x"), 0644))

	err := tool.Compile(input, filepath.Join(t.TempDir(), "out.flh"))
	assert.Equal(t, ErrNoFramesFound, err)
}

func TestScanAndInfo(t *testing.T) {
	tool := newTestTool(t)

	frames := testFrames(9, 3, 8, 8)
	input := t.TempDir()
	writeFrames(t, input, frames)

	tree := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "anims"), 0755))
	output := filepath.Join(tree, "anims", "test.flh")
	require.NoError(t, tool.Compile(input, output))

	// A decoy that must be skipped without failing the scan.
	require.NoError(t, os.WriteFile(filepath.Join(tree, "anims", "bogus.flh"), []byte("not an animation"), 0644))

	require.NoError(t, tool.Scan(tree))

	config, hash, err := tool.Info(output)
	require.NoError(t, err)
	assert.Equal(t, flh.Config{Width: 8, Height: 8, Depth: 16, Frames: 3}, config)

	entry, err := tool.db.FindByHash(hash)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, output, entry.Path)
	assert.Equal(t, 3, entry.Frames)

	preview, err := tool.db.Preview(hash)
	require.NoError(t, err)
	require.NotNil(t, preview)
	assert.Equal(t, frames[0].Pix, preview.Pix)
}

func TestScanRefreshesPath(t *testing.T) {
	tool := newTestTool(t)

	frames := testFrames(10, 2, 4, 4)
	input := t.TempDir()
	writeFrames(t, input, frames)

	tree := t.TempDir()
	first := filepath.Join(tree, "a.flh")
	require.NoError(t, tool.Compile(input, first))
	require.NoError(t, tool.Scan(tree))

	// The same content under a new name keeps a single catalog row.
	second := filepath.Join(tree, "b.flh")
	b, err := os.ReadFile(first)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(second, b, 0644))
	require.NoError(t, os.Remove(first))
	require.NoError(t, tool.Scan(tree))

	_, hash, err := tool.Info(second)
	require.NoError(t, err)

	entry, err := tool.db.FindByHash(hash)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, second, entry.Path)
}

func TestFrameFilter(t *testing.T) {
	assert.True(t, frameFilter.MatchString("frame0001.bmp"))
	assert.True(t, frameFilter.MatchString("frame9999.bmp"))
	assert.False(t, frameFilter.MatchString("frame1.bmp"))
	assert.False(t, frameFilter.MatchString("frame00001.bmp"))
	assert.False(t, frameFilter.MatchString("frame0001.png"))
	assert.False(t, frameFilter.MatchString("xframe0001.bmp"))
}
