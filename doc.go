// Package rawpsd decodes Adobe PSD layered-image files into faithful,
// minimally-interpreted in-memory records.
//
// The library has no opinions about what the data means: blend modes stay
// 4-character strings, color mode payloads stay bytes, section dividers stay
// raw codes. Compressed channel data is decompressed, and a few redundantly
// encoded values (a layer name stored both as a legacy Pascal string and as
// a Unicode block, alpha channel names stored in two resources) are resolved
// to a single value, but everything else is returned as the file encodes it.
// Building a layer group tree, interpreting blend modes, or compositing an
// image is the caller's concern.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	rawpsd/              Root package with the shared data model and format constants
//	├── decoder/         Sequential structural parser and the public entry points
//	├── imagedata/       Channel compression engine and plane assembly
//	├── cursor/          Bounds-checked big-endian reads over the input buffer
//	├── errors/          Structured decode errors for debugging
//	└── cmd/psdinfo/     Inspector CLI with an interactive layer browser
//
// # Quick Start
//
// Decode the layers of a file already read into memory:
//
//	layers, err := decoder.ParseLayerRecords(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, layer := range layers {
//	    fmt.Println(layer.Name, layer.BlendModeKey, len(layer.Color))
//	}
//
// When only header and resource metadata is needed, ParseMetadata is the
// cheap path: it never touches compressed channel data.
//
//	meta, err := decoder.ParseMetadata(data)
//
// # Supported Files
//
// rawpsd reads the standard PSD variant (version 1) at 8 bits per channel.
// The large-document PSB variant and other bit depths are rejected with an
// explicit unsupported error rather than a parse failure. Indexed and
// duotone palette data is preserved as opaque bytes, not decoded.
//
// # Safety Over Untrusted Input
//
// All parsing is bounds-checked: every length taken from the file is
// validated against the remaining input before any allocation, truncated
// files fail with the offending byte offset, and decoded channel planes must
// match their expected size exactly. Unrecognized additional-info blocks are
// the one graceful-degradation path; they are retained opaquely instead of
// failing the parse.
//
// # Concurrency
//
// Decoding is a pure, synchronous computation over one caller-owned buffer.
// Channel planes are decoded concurrently internally; the returned layer
// order always matches file order.
package rawpsd
