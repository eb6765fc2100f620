package flh

import "bytes"

// packet is one primitive of a compressed row: a single pixel
// replicated count times, or count literal pixels. In delta rows skip
// carries the number of unchanged pixels preceding the packet; a
// zero-count copy packet is a pure skip.
type packet struct {
	skip   int
	repeat bool
	count  int
	pix    []byte
}

// subChunk is a maximal run of differing pixels within a row, preceded
// by skip unchanged pixels. start and length are in pixels.
type subChunk struct {
	skip   int
	start  int
	length int
}

func pixelEqual(a, b []byte) bool {
	return a[0] == b[0] && a[1] == b[1]
}

func appendPacket(packets []packet, run []byte, start, count int, repeat bool, skip int) []packet {
	off := start * bytesPerPixel
	n := count * bytesPerPixel
	if repeat {
		n = bytesPerPixel
	}
	return append(packets, packet{
		skip:   skip,
		repeat: repeat,
		count:  count,
		pix:    run[off : off+n],
	})
}

// encodeRun run length encodes one contiguous run of pixels, either a
// whole row or a delta sub-chunk. The encoder stays in copy mode until
// the current pixel matches its predecessor, at which point the
// pending copy is flushed short of its last pixel and a repeat begins
// there; a repeat flushes as soon as the run breaks. Runs are split at
// 127 pixels so every count fits the signed count byte. skip is
// carried by the first packet emitted, any further packets from the
// same run carry zero.
func encodeRun(packets []packet, run []byte, skip int) []packet {
	width := len(run) / bytesPerPixel
	var repeat bool
	encoded, count := 0, 0
	for i := 0; ; i++ {
		if i == width {
			if count > 0 {
				packets = appendPacket(packets, run, encoded, count, repeat, skip)
				skip = 0
			}
			break
		}
		p := run[i*bytesPerPixel:]
		if i > 0 {
			prev := run[(i-1)*bytesPerPixel:]
			if !repeat && pixelEqual(p, prev) {
				repeat = true
				if count > 1 {
					count--
					packets = appendPacket(packets, run, encoded, count, false, skip)
					skip = 0
					encoded += count
					count = 1
				}
			} else if repeat && count > 0 && !pixelEqual(p, prev) {
				packets = appendPacket(packets, run, encoded, count, true, skip)
				skip = 0
				encoded += count
				count = 0
				repeat = false
			}
		}
		if count == maxRun {
			packets = appendPacket(packets, run, encoded, count, repeat, skip)
			skip = 0
			encoded += count
			count = 0
		}
		count++
	}
	return packets
}

// encodeLine encodes one full row as DTA_BRUN packets.
func encodeLine(line []byte) []packet {
	return encodeRun(nil, line, 0)
}

// diffLine compares a row against the same row of the previous frame
// and returns the runs of pixels that changed, each tagged with the
// number of unchanged pixels before it. The sub-chunks partition the
// changed pixels left to right.
func diffLine(line, prev []byte) []subChunk {
	width := len(line) / bytesPerPixel
	var chunks []subChunk
	skip, start, length := 0, 0, 0
	for i := 0; i < width; i++ {
		off := i * bytesPerPixel
		if pixelEqual(line[off:], prev[off:]) {
			if length > 0 {
				chunks = append(chunks, subChunk{skip: skip, start: start, length: length})
				skip, length = 0, 0
			}
			skip++
		} else {
			if length == 0 {
				start = i
			}
			length++
		}
	}
	if length > 0 {
		chunks = append(chunks, subChunk{skip: skip, start: start, length: length})
	}
	return chunks
}

// encodeDeltaLine encodes the changed pixels of one row as DTA_LC
// packets. The pixel skip of a sub-chunk travels on its first packet;
// skips beyond 255 are split off as zero-count copy packets.
func encodeDeltaLine(line, prev []byte) []packet {
	var packets []packet
	for _, sc := range diffLine(line, prev) {
		skip := sc.skip
		for skip > maxSkip {
			packets = append(packets, packet{skip: maxSkip})
			skip -= maxSkip
		}
		run := line[sc.start*bytesPerPixel : (sc.start+sc.length)*bytesPerPixel]
		packets = encodeRun(packets, run, skip)
	}
	return packets
}

func lineEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
