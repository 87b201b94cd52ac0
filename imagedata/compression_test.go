package imagedata

import (
	"bytes"
	stderrors "errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/errors"
)

func TestDecode_Raw(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6}
	plane, err := Decode(rawpsd.CompressionRaw, 0, payload, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, payload) {
		t.Errorf("plane = %v, want %v", plane, payload)
	}
	// Must be a copy
	plane[0] = 0xEE
	if payload[0] != 1 {
		t.Error("raw decode must copy the payload")
	}
}

func TestDecode_RawSizeMismatch(t *testing.T) {
	_, err := Decode(rawpsd.CompressionRaw, 2, []byte{1, 2, 3}, 2, 2)
	if err == nil {
		t.Fatal("short raw payload should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCorruptChannel {
		t.Errorf("error = %v, want corrupt_channel", err)
	}
}

// rlePayload builds the on-disk RLE form: per-row big-endian byte counts
// followed by the packed rows.
func rlePayload(rows ...[]byte) []byte {
	var table, data []byte
	for _, r := range rows {
		table = append(table, byte(len(r)>>8), byte(len(r)))
		data = append(data, r...)
	}
	return append(table, data...)
}

func TestDecode_RLELiteral(t *testing.T) {
	// Control byte 0x02 copies the next 3 bytes literally
	plane, err := Decode(rawpsd.CompressionRLE, 0, rlePayload([]byte{0x02, 0xAA, 0xBB, 0xCC}), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("plane = %v", plane)
	}
}

func TestDecode_RLERepeat(t *testing.T) {
	// Control byte 0xFE (signed -2) repeats the next byte 3 times
	plane, err := Decode(rawpsd.CompressionRLE, 0, rlePayload([]byte{0xFE, 0x7F}), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{0x7F, 0x7F, 0x7F}) {
		t.Errorf("plane = %v", plane)
	}
}

func TestDecode_RLENoOp(t *testing.T) {
	// Control byte 0x80 (signed -128) emits nothing
	plane, err := Decode(rawpsd.CompressionRLE, 0, rlePayload([]byte{0x80, 0x01, 0xBB, 0xBB}), 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{0xBB, 0xBB}) {
		t.Errorf("plane = %v", plane)
	}
}

func TestDecode_RLEMultiRow(t *testing.T) {
	plane, err := Decode(rawpsd.CompressionRLE, 0, rlePayload(
		[]byte{0xFF, 0x11, 0x00, 0x22}, // repeat 0x11 twice, one literal
		[]byte{0x02, 0x01, 0x02, 0x03}, // three literals
	), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{0x11, 0x11, 0x22, 0x01, 0x02, 0x03}) {
		t.Errorf("plane = %v", plane)
	}
}

func TestDecode_RLERowOverflow(t *testing.T) {
	// Run of 3 into a row of width 2
	_, err := Decode(rawpsd.CompressionRLE, 1, rlePayload([]byte{0xFE, 0x10}), 2, 1)
	if err == nil {
		t.Fatal("row overflow should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCorruptChannel {
		t.Errorf("error = %v, want corrupt_channel", err)
	}
}

func TestDecode_RLERowUnderflow(t *testing.T) {
	// Row budget exhausted after 2 of 3 bytes
	_, err := Decode(rawpsd.CompressionRLE, 1, rlePayload([]byte{0x01, 0x10, 0x20}), 3, 1)
	if err == nil {
		t.Fatal("row underflow should fail")
	}
}

func TestDecode_RLETruncatedTable(t *testing.T) {
	_, err := Decode(rawpsd.CompressionRLE, 1, []byte{0x00}, 4, 2)
	if err == nil {
		t.Fatal("truncated row table should fail")
	}
}

// packBits is a reference encoder used to check that encode-then-decode is
// the identity on arbitrary rows.
func packBits(row []byte) []byte {
	var out []byte
	i := 0
	for i < len(row) {
		// Find run length at i
		run := 1
		for i+run < len(row) && run < 128 && row[i+run] == row[i] {
			run++
		}
		if run > 1 {
			out = append(out, byte(1-run), row[i])
			i += run
			continue
		}
		// Literal stretch until the next run of 3+
		start := i
		for i < len(row) && i-start < 128 {
			if i+2 < len(row) && row[i] == row[i+1] && row[i] == row[i+2] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, row[start:i]...)
	}
	return out
}

func TestDecode_RLERoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	widths := []int{1, 2, 7, 64, 300}
	for _, w := range widths {
		rows := make([][]byte, 5)
		var want []byte
		for r := range rows {
			row := make([]byte, w)
			for i := range row {
				// Mix of runs and noise
				if rng.Intn(2) == 0 {
					row[i] = 0x42
				} else {
					row[i] = byte(rng.Intn(256))
				}
			}
			rows[r] = packBits(row)
			want = append(want, row...)
		}
		plane, err := Decode(rawpsd.CompressionRLE, 0, rlePayload(rows...), w, len(rows))
		if err != nil {
			t.Fatalf("width %d: %v", w, err)
		}
		if !bytes.Equal(plane, want) {
			t.Fatalf("width %d: round trip mismatch", w)
		}
	}
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode_Zip(t *testing.T) {
	want := []byte{10, 20, 30, 40, 50, 60}
	plane, err := Decode(rawpsd.CompressionZip, 0, deflate(t, want), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, want) {
		t.Errorf("plane = %v, want %v", plane, want)
	}
}

func TestDecode_ZipShortOutput(t *testing.T) {
	_, err := Decode(rawpsd.CompressionZip, 1, deflate(t, []byte{1, 2, 3}), 2, 2)
	if err == nil {
		t.Fatal("short inflated output should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCorruptChannel {
		t.Errorf("error = %v, want corrupt_channel", err)
	}
}

func TestDecode_ZipLongOutput(t *testing.T) {
	_, err := Decode(rawpsd.CompressionZip, 1, deflate(t, []byte{1, 2, 3, 4, 5}), 2, 2)
	if err == nil {
		t.Fatal("oversized inflated output should fail")
	}
}

func TestDecode_ZipGarbage(t *testing.T) {
	_, err := Decode(rawpsd.CompressionZip, 1, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 2, 2)
	if err == nil {
		t.Fatal("non-zlib payload should fail")
	}
}

func TestDecode_ZipPrediction(t *testing.T) {
	// Deltas [10, 10, 251, 246] reconstruct to [10, 20, 15, 5]
	deltas := []byte{10, 10, 251, 246}
	plane, err := Decode(rawpsd.CompressionZipPrediction, 0, deflate(t, deltas), 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{10, 20, 15, 5}) {
		t.Errorf("plane = %v, want [10 20 15 5]", plane)
	}
}

func TestDecode_ZipPredictionRowIndependent(t *testing.T) {
	// Two rows; the second row's first byte must not accumulate the first
	// row's last byte.
	deltas := []byte{
		100, 100, // row 0: 100, 200
		3, 1, // row 1: 3, 4
	}
	plane, err := Decode(rawpsd.CompressionZipPrediction, 0, deflate(t, deltas), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{100, 200, 3, 4}) {
		t.Errorf("plane = %v, want [100 200 3 4]", plane)
	}
}

func TestDecode_PredictionRoundTrip(t *testing.T) {
	// Forward-difference then decode must be the identity
	rng := rand.New(rand.NewSource(7))
	const w, h = 17, 9
	orig := make([]byte, w*h)
	for i := range orig {
		orig[i] = byte(rng.Intn(256))
	}
	deltas := make([]byte, len(orig))
	for row := 0; row < h; row++ {
		base := row * w
		deltas[base] = orig[base]
		for i := 1; i < w; i++ {
			deltas[base+i] = orig[base+i] - orig[base+i-1]
		}
	}
	plane, err := Decode(rawpsd.CompressionZipPrediction, 0, deflate(t, deltas), w, h)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, orig) {
		t.Error("prediction round trip mismatch")
	}
}

func TestDecode_UnknownMethod(t *testing.T) {
	_, err := Decode(rawpsd.CompressionMethod(4), -1, []byte{0}, 1, 1)
	if err == nil {
		t.Fatal("method 4 should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnknownCompression {
		t.Errorf("error = %v, want unknown_compression", err)
	}
}

func TestDecode_EmptyPlane(t *testing.T) {
	plane, err := Decode(rawpsd.CompressionRaw, 0, nil, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(plane) != 0 {
		t.Errorf("plane = %v, want empty", plane)
	}
}

func TestDecodeMerged_Raw(t *testing.T) {
	plane, err := DecodeMerged(rawpsd.CompressionRaw, []byte{1, 2, 3, 4}, 2, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{1, 2, 3, 4}) {
		t.Errorf("plane = %v", plane)
	}
}

func TestDecodeMerged_RLE(t *testing.T) {
	// Two channels of one 2-byte row each; the row table covers both
	payload := rlePayload(
		[]byte{0x01, 0xAA, 0xBB}, // two literals
		[]byte{0xFF, 0x07},       // repeat 0x07 twice
	)
	plane, err := DecodeMerged(rawpsd.CompressionRLE, payload, 2, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plane, []byte{0xAA, 0xBB, 0x07, 0x07}) {
		t.Errorf("plane = %v", plane)
	}
}

func TestDecodeMerged_MaxDimensionsAccepted(t *testing.T) {
	// A 30000x30000 2-channel merged image is within every format bound;
	// the per-plane cap must not reject it. The short payload fails on the
	// combined size, proving the cap check was passed.
	_, err := DecodeMerged(rawpsd.CompressionRaw, []byte{1, 2, 3, 4}, 30000, 30000, 2)
	if err == nil {
		t.Fatal("short payload should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCorruptChannel {
		t.Fatalf("error = %v, want corrupt_channel", err)
	}
	if !strings.Contains(e.Detail, "1800000000") {
		t.Errorf("Detail = %q, want the combined 1800000000-byte size, not a limit rejection", e.Detail)
	}
}

func TestDecodeMerged_PlaneOverLimit(t *testing.T) {
	_, err := DecodeMerged(rawpsd.CompressionRaw, nil, 30001, 30001, 1)
	if err == nil {
		t.Fatal("oversized plane should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCorruptChannel {
		t.Errorf("error = %v, want corrupt_channel", err)
	}
}

func TestDecodeMerged_BadChannelCount(t *testing.T) {
	for _, ch := range []int{0, -1, 57} {
		if _, err := DecodeMerged(rawpsd.CompressionRaw, nil, 1, 1, ch); err == nil {
			t.Errorf("channel count %d should fail", ch)
		}
	}
}

func TestDecodeAll_OrderAndErrors(t *testing.T) {
	jobs := []Job{
		{Method: rawpsd.CompressionRaw, ChannelID: 0, Payload: []byte{1, 2}, Width: 2, Height: 1},
		{Method: rawpsd.CompressionMethod(9), ChannelID: 1, Payload: []byte{0}, Width: 1, Height: 1},
		{Method: rawpsd.CompressionRaw, ChannelID: 2, Payload: []byte{9}, Width: 3, Height: 1}, // also bad
	}

	_, err := DecodeAll(jobs)
	if err == nil {
		t.Fatal("expected an error")
	}
	// First error in job order wins: the unknown method on channel 1
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnknownCompression {
		t.Errorf("error = %v, want the channel 1 unknown_compression error", err)
	}

	planes, err := DecodeAll(jobs[:1])
	if err != nil {
		t.Fatal(err)
	}
	if len(planes) != 1 || !bytes.Equal(planes[0], []byte{1, 2}) {
		t.Errorf("planes = %v", planes)
	}
}

func TestDecodeAll_ManyJobs(t *testing.T) {
	const n = 100
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{
			Method:    rawpsd.CompressionRaw,
			ChannelID: int16(i % 4),
			Payload:   []byte{byte(i), byte(i + 1)},
			Width:     2,
			Height:    1,
		}
	}
	planes, err := DecodeAll(jobs)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range planes {
		if !bytes.Equal(p, []byte{byte(i), byte(i + 1)}) {
			t.Fatalf("plane %d = %v", i, p)
		}
	}
}
