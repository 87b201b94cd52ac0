// Package decoder implements the structural parser for the PSD container:
// header, color mode section, image resources, layer and mask information,
// and the flattened composite image. It exposes three entry points over an
// in-memory buffer, from cheapest to fullest:
//
//   - ParseMetadata: header, color-mode payload, and resources only; never
//     touches channel-compressed bytes.
//   - ParseLayerRecords: full structural and pixel decode of every layer.
//   - ParseDocument: everything, including the decoded composite image.
//
// The decoder is a pure single-pass computation over the caller's buffer. No
// partial results are returned on error.
package decoder

import (
	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/cursor"
	"github.com/wippyai/rawpsd/errors"
)

// ParseMetadata decodes the header, the opaque color mode payload, and the
// image resources. Channel data is never read, so this stays cheap even for
// files with large or corrupt pixel sections.
func ParseMetadata(data []byte) (*rawpsd.Metadata, error) {
	c := cursor.New(data, errors.PhaseHeader)
	meta, err := parsePrelude(c)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// ParseLayerRecords decodes the full file up to and including every layer's
// pixel planes. The composite image section is not decoded; use
// ParseDocument for that.
func ParseLayerRecords(data []byte) ([]rawpsd.LayerRecord, error) {
	c := cursor.New(data, errors.PhaseHeader)
	meta, err := parsePrelude(c)
	if err != nil {
		return nil, err
	}
	sec, err := parseLayerSection(c, meta.ColorMode)
	if err != nil {
		return nil, err
	}
	return sec.Layers, nil
}

// ParseDocument decodes the entire container: metadata, all layers with
// pixel planes, the global mask and trailing blocks, and the composite image
// at document dimensions.
func ParseDocument(data []byte) (*rawpsd.Document, error) {
	c := cursor.New(data, errors.PhaseHeader)
	meta, err := parsePrelude(c)
	if err != nil {
		return nil, err
	}
	sec, err := parseLayerSection(c, meta.ColorMode)
	if err != nil {
		return nil, err
	}
	composite, err := parseComposite(c, meta)
	if err != nil {
		return nil, err
	}

	return &rawpsd.Document{
		Metadata:                *meta,
		Layers:                  sec.Layers,
		TransparencyMergedAlpha: sec.TransparencyMergedAlpha,
		GlobalMaskInfo:          sec.GlobalMaskInfo,
		GlobalExtraBlocks:       sec.GlobalExtraBlocks,
		CompositeColor:          composite.Color,
		CompositeK:              composite.K,
	}, nil
}

// parsePrelude reads the three sections preceding layer data.
func parsePrelude(c *cursor.Cursor) (*rawpsd.Metadata, error) {
	meta := &rawpsd.Metadata{}
	if err := parseHeader(c, meta); err != nil {
		return nil, err
	}
	if err := parseColorModeSection(c, meta); err != nil {
		return nil, err
	}
	if err := parseResourceSection(c, meta); err != nil {
		return nil, err
	}
	return meta, nil
}
