// Package imagedata decodes PSD channel image data and assembles the decoded
// planes into the per-layer output buffers.
//
// A channel plane is one channel's full byte array, width × height at 8 bits
// per sample. The format stores each plane under one of four compression
// methods; the decoded plane must match the expected size exactly, never
// clamped or padded.
package imagedata

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/errors"
)

// MaxPlaneBytes caps a single decoded plane at the format's dimension limit.
// Header dimensions are validated to [1,30000] before any plane is sized, so
// a larger expected size can only come from a corrupt layer rectangle.
const MaxPlaneBytes = rawpsd.MaxDimension * rawpsd.MaxDimension

// Decode decompresses one channel's payload into exactly width*height bytes.
// The payload excludes the 2-byte method field; for RLE it begins with the
// per-row byte-count table. channelID only feeds error context.
func Decode(method rawpsd.CompressionMethod, channelID int16, payload []byte, width, height int) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
			Detail("channel %d has negative plane dimensions %dx%d", channelID, width, height).
			Build()
	}
	want := width * height
	if want > MaxPlaneBytes {
		return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
			Detail("channel %d plane %dx%d exceeds the format limit", channelID, width, height).
			Build()
	}
	if want == 0 {
		return nil, nil
	}
	return decode(method, channelID, payload, width, height, want)
}

// DecodeMerged decodes the composite image section: every channel's plane
// under one compression method, stored as channels consecutive planes of
// height rows each (for RLE, one row table covering channels*height rows).
// The per-plane size is capped like Decode; the combined output scales with
// the channel count.
func DecodeMerged(method rawpsd.CompressionMethod, payload []byte, width, height, channels int) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
			Detail("merged image has negative plane dimensions %dx%d", width, height).
			Build()
	}
	if channels < 1 || channels > rawpsd.MaxChannels {
		return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
			Detail("merged image channel count %d outside [1,%d]", channels, rawpsd.MaxChannels).
			Build()
	}
	plane := width * height
	if plane > MaxPlaneBytes {
		return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
			Detail("merged image plane %dx%d exceeds the format limit", width, height).
			Build()
	}
	want := plane * channels
	if want == 0 {
		return nil, nil
	}
	return decode(method, 0, payload, width, height*channels, want)
}

// decode dispatches on the compression method. rows is the number of
// width-byte scanlines and want the exact output size, width*rows.
func decode(method rawpsd.CompressionMethod, channelID int16, payload []byte, width, rows, want int) ([]byte, error) {
	switch method {
	case rawpsd.CompressionRaw:
		return decodeRaw(channelID, payload, want)
	case rawpsd.CompressionRLE:
		return decodeRLE(channelID, payload, width, rows)
	case rawpsd.CompressionZip:
		return inflate(channelID, payload, want)
	case rawpsd.CompressionZipPrediction:
		plane, err := inflate(channelID, payload, want)
		if err != nil {
			return nil, err
		}
		undoPrediction(plane, width)
		return plane, nil
	default:
		return nil, errors.New(errors.PhaseChannel, errors.KindUnknownCompression).
			Detail("channel %d declares compression method %d", channelID, uint16(method)).
			Build()
	}
}

func decodeRaw(channelID int16, payload []byte, want int) ([]byte, error) {
	if len(payload) != want {
		return nil, errors.CorruptChannel(errors.PhaseChannel, channelID, len(payload), want)
	}
	out := make([]byte, want)
	copy(out, payload)
	return out, nil
}

// decodeRLE decodes the PackBits form: height big-endian uint16 row byte
// counts, then each row's control-byte-prefixed runs. A row must produce
// exactly width bytes from exactly its declared byte budget.
func decodeRLE(channelID int16, payload []byte, width, height int) ([]byte, error) {
	table := height * 2
	if len(payload) < table {
		return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
			Detail("channel %d RLE data too short for %d-row table", channelID, height).
			Build()
	}

	out := make([]byte, 0, width*height)
	pos := table
	for row := 0; row < height; row++ {
		rowLen := int(payload[row*2])<<8 | int(payload[row*2+1])
		if rowLen > len(payload)-pos {
			return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
				Detail("channel %d row %d declares %d bytes with %d remaining", channelID, row, rowLen, len(payload)-pos).
				Build()
		}
		decoded, err := unpackRow(payload[pos:pos+rowLen], width)
		if err != nil {
			return nil, errors.New(errors.PhaseChannel, errors.KindCorruptChannel).
				Detail("channel %d row %d: %v", channelID, row, err).
				Build()
		}
		out = append(out, decoded...)
		pos += rowLen
	}
	return out, nil
}

// unpackRow decodes one PackBits scanline. Control byte n as signed int8:
// 0..127 copies the next n+1 bytes literally, -127..-1 repeats the next byte
// 1-n times, -128 emits nothing.
func unpackRow(row []byte, width int) ([]byte, error) {
	out := make([]byte, 0, width)
	i := 0
	for i < len(row) {
		n := int(int8(row[i]))
		i++
		switch {
		case n >= 0:
			count := n + 1
			if i+count > len(row) {
				return nil, errLiteralOverrun
			}
			out = append(out, row[i:i+count]...)
			i += count
		case n == -128:
			// no-op
		default:
			if i >= len(row) {
				return nil, errRepeatOverrun
			}
			count := 1 - n
			b := row[i]
			i++
			for j := 0; j < count; j++ {
				out = append(out, b)
			}
		}
		if len(out) > width {
			return nil, errRowTooLong
		}
	}
	if len(out) != width {
		return nil, errRowTooShort
	}
	return out, nil
}

var (
	errLiteralOverrun = rowError("literal run past row data")
	errRepeatOverrun  = rowError("repeat run past row data")
	errRowTooLong     = rowError("row produced more bytes than the row width")
	errRowTooShort    = rowError("row produced fewer bytes than the row width")
)

type rowError string

func (e rowError) Error() string { return string(e) }

// inflate decompresses a zlib stream to exactly want bytes. Short or long
// output is corruption, never padded or truncated.
func inflate(channelID int16, payload []byte, want int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseChannel, errors.KindCorruptChannel, err,
			"zlib stream rejected")
	}
	defer r.Close()

	out := make([]byte, want)
	n, err := io.ReadFull(r, out)
	if err != nil {
		return nil, errors.CorruptChannel(errors.PhaseChannel, channelID, n, want)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, errors.CorruptChannel(errors.PhaseChannel, channelID, want+n, want)
	}
	return out, nil
}

// undoPrediction reverses the per-row horizontal delta filter in place: byte
// 0 of each row is kept, every later byte accumulates its left neighbor mod
// 256. Rows are independent; no carry crosses row boundaries.
func undoPrediction(plane []byte, width int) {
	if width < 2 {
		return
	}
	for row := 0; row+width <= len(plane); row += width {
		for i := 1; i < width; i++ {
			plane[row+i] += plane[row+i-1]
		}
	}
}
