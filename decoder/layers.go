package decoder

import (
	"go.uber.org/zap"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/cursor"
	"github.com/wippyai/rawpsd/errors"
	"github.com/wippyai/rawpsd/imagedata"
)

// globalBlockSignature64 is the alternate tag some writers use for global
// additional-info blocks in place of "8BIM".
const globalBlockSignature64 = "8B64"

// layerSection is the decoded layer and mask information section.
type layerSection struct {
	Layers                  []rawpsd.LayerRecord
	TransparencyMergedAlpha bool
	GlobalMaskInfo          []byte
	GlobalExtraBlocks       map[string][]byte
}

// parseLayerSection reads the layer and mask information section: layer
// records first, then every layer's channel data in matching order, then the
// global mask info and trailing tagged blocks.
func parseLayerSection(c *cursor.Cursor, mode uint16) (*layerSection, error) {
	c.SetPhase(errors.PhaseLayers)
	out := &layerSection{}

	total, err := c.U32()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		// No layers; the composite image follows directly
		return out, nil
	}
	sec, err := c.Sub(int(total))
	if err != nil {
		return nil, err
	}

	infoLen, err := sec.U32()
	if err != nil {
		return nil, err
	}
	if infoLen > 0 {
		info, err := sec.Sub(int(infoLen))
		if err != nil {
			return nil, err
		}
		rawCount, err := info.I16()
		if err != nil {
			return nil, err
		}
		// Negate in int width: -32768 has no int16 counterpart
		count := int(rawCount)
		if count < 0 {
			// Documented signal: the merged image's first alpha channel
			// represents transparency
			out.TransparencyMergedAlpha = true
			count = -count
		}
		if count*minLayerRecordSize > info.Remaining() {
			return nil, errors.CorruptLayer(info.Position(),
				"layer count %d cannot fit in %d remaining bytes", count, info.Remaining())
		}

		out.Layers = make([]rawpsd.LayerRecord, 0, count)
		for i := 0; i < count; i++ {
			layer, err := parseLayerRecord(info)
			if err != nil {
				return nil, err
			}
			out.Layers = append(out.Layers, layer)
		}

		// Channel data follows all records, layer by layer in record order
		if err := readChannelData(info, out.Layers, mode); err != nil {
			return nil, err
		}
		// Whatever remains in the layer info region is padding
	}

	if err := parseGlobalBlocks(sec, out); err != nil {
		return nil, err
	}

	Logger().Debug("parsed layer section",
		zap.Int("layers", len(out.Layers)),
		zap.Bool("transparency_alpha", out.TransparencyMergedAlpha))
	return out, nil
}

// parseGlobalBlocks reads the global layer mask info block and the trailing
// tagged blocks filling the rest of the section.
func parseGlobalBlocks(sec *cursor.Cursor, out *layerSection) error {
	if sec.Remaining() >= 4 {
		gmLen, err := sec.U32()
		if err != nil {
			return err
		}
		if int(gmLen) > sec.Remaining() {
			return errors.CorruptLayer(sec.Position(),
				"global mask info declares %d bytes with %d remaining", gmLen, sec.Remaining())
		}
		if gmLen > 0 {
			if out.GlobalMaskInfo, err = sec.Bytes(int(gmLen)); err != nil {
				return err
			}
		}
	}

	for sec.Remaining() >= 12 {
		pos := sec.Position()
		sig, err := sec.Signature()
		if err != nil {
			return err
		}
		if sig != rawpsd.BlockSignature && sig != globalBlockSignature64 {
			return errors.CorruptLayer(pos, "global block signature %q", sig)
		}
		key, err := sec.Signature()
		if err != nil {
			return err
		}
		length, err := sec.U32()
		if err != nil {
			return err
		}
		payload, err := readPaddedBlock(sec, int(length))
		if err != nil {
			return err
		}
		if out.GlobalExtraBlocks == nil {
			out.GlobalExtraBlocks = make(map[string][]byte)
		}
		out.GlobalExtraBlocks[key] = payload
	}
	return nil
}

// minLayerRecordSize is the smallest on-disk layer record: rectangle,
// channel count, blend signature and key, four attribute bytes, and the
// extra-data length, with every variable part empty.
const minLayerRecordSize = 34

// parseLayerRecord decodes one layer's fixed fields, mask data, blending
// ranges, names, and additional-info sub-blocks. Channel pixel data is not
// read here; it follows all records.
func parseLayerRecord(info *cursor.Cursor) (rawpsd.LayerRecord, error) {
	var layer rawpsd.LayerRecord

	pos := info.Position()
	var err error
	if layer.Rect, err = readRect(info); err != nil {
		return layer, err
	}
	// The rectangle sizes the layer's plane allocations; bound it before
	// anything downstream allocates from it
	if layer.Rect.Area() > imagedata.MaxPlaneBytes {
		return layer, errors.CorruptLayer(pos,
			"layer rectangle %dx%d exceeds the format limit",
			layer.Rect.Width(), layer.Rect.Height())
	}

	count, err := info.U16()
	if err != nil {
		return layer, err
	}
	if count > rawpsd.MaxChannels {
		return layer, errors.CorruptLayer(info.Position(),
			"layer declares %d channels, limit is %d", count, rawpsd.MaxChannels)
	}
	layer.Channels = make([]rawpsd.ChannelInfo, count)
	for i := range layer.Channels {
		if layer.Channels[i].ID, err = info.I16(); err != nil {
			return layer, err
		}
		if layer.Channels[i].Length, err = info.U32(); err != nil {
			return layer, err
		}
	}

	pos = info.Position()
	sig, err := info.Signature()
	if err != nil {
		return layer, err
	}
	if sig != rawpsd.BlockSignature {
		return layer, errors.CorruptLayer(pos, "blend mode signature %q, expected %q",
			sig, rawpsd.BlockSignature)
	}
	layer.BlendModeSignature = sig
	if layer.BlendModeKey, err = info.Signature(); err != nil {
		return layer, err
	}

	if layer.Opacity, err = info.U8(); err != nil {
		return layer, err
	}
	if layer.Clipping, err = info.U8(); err != nil {
		return layer, err
	}
	if layer.Flags, err = info.U8(); err != nil {
		return layer, err
	}
	// Filler byte
	if err := info.Skip(1); err != nil {
		return layer, err
	}

	extraLen, err := info.U32()
	if err != nil {
		return layer, err
	}
	extra, err := info.Sub(int(extraLen))
	if err != nil {
		return layer, err
	}

	if layer.Mask, err = parseMaskData(extra); err != nil {
		return layer, err
	}

	brLen, err := extra.U32()
	if err != nil {
		return layer, err
	}
	if layer.BlendingRanges, err = extra.Bytes(int(brLen)); err != nil {
		return layer, err
	}

	if layer.LegacyName, err = extra.PascalString(4); err != nil {
		return layer, err
	}
	layer.Name = layer.LegacyName

	if err := parseAdditionalInfo(extra, &layer); err != nil {
		return layer, err
	}
	return layer, nil
}

func readRect(c *cursor.Cursor) (rawpsd.Rect, error) {
	var r rawpsd.Rect
	var err error
	if r.Top, err = c.I32(); err != nil {
		return r, err
	}
	if r.Left, err = c.I32(); err != nil {
		return r, err
	}
	if r.Bottom, err = c.I32(); err != nil {
		return r, err
	}
	if r.Right, err = c.I32(); err != nil {
		return r, err
	}
	return r, nil
}

// parseMaskData reads the length-prefixed layer mask block. Length zero means
// no mask. The 20-byte core carries the mask rectangle, default color, and
// flag bits; larger blocks carry extra fields this library does not
// interpret, skipped to the declared length.
func parseMaskData(extra *cursor.Cursor) (*rawpsd.MaskInfo, error) {
	length, err := extra.U32()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	mc, err := extra.Sub(int(length))
	if err != nil {
		return nil, err
	}
	if length < 20 {
		// Too short for the fixed fields; treated as opaque
		return nil, nil
	}

	mask := &rawpsd.MaskInfo{}
	if mask.Rect, err = readRect(mc); err != nil {
		return nil, err
	}
	if mask.DefaultColor, err = mc.U8(); err != nil {
		return nil, err
	}
	if mask.Flags, err = mc.U8(); err != nil {
		return nil, err
	}
	mask.Relative = mask.Flags&0x01 != 0
	mask.Disabled = mask.Flags&0x02 != 0
	mask.Invert = mask.Flags&0x04 != 0

	// 36-byte blocks carry a second descriptor for the combined (-3) mask
	if length >= 36 {
		if mask.RealFlags, err = mc.U8(); err != nil {
			return nil, err
		}
		if mask.RealDefaultColor, err = mc.U8(); err != nil {
			return nil, err
		}
		if mask.RealRect, err = readRect(mc); err != nil {
			return nil, err
		}
		mask.HasReal = true
	}
	return mask, nil
}

// parseAdditionalInfo reads the self-describing sub-blocks filling the rest
// of the extra-data region. Every block lands in ExtraBlocks under its key;
// the "luni" and "lsct" keys are additionally interpreted. Unknown keys are
// never an error.
func parseAdditionalInfo(extra *cursor.Cursor, layer *rawpsd.LayerRecord) error {
	for extra.Remaining() >= 12 {
		pos := extra.Position()
		sig, err := extra.Signature()
		if err != nil {
			return err
		}
		if sig != rawpsd.BlockSignature && sig != globalBlockSignature64 {
			return errors.CorruptLayer(pos, "additional-info signature %q", sig)
		}
		key, err := extra.Signature()
		if err != nil {
			return err
		}
		length, err := extra.U32()
		if err != nil {
			return err
		}
		payload, err := readPaddedBlock(extra, int(length))
		if err != nil {
			return err
		}

		if layer.ExtraBlocks == nil {
			layer.ExtraBlocks = make(map[string][]byte)
		}
		layer.ExtraBlocks[key] = payload

		switch key {
		case rawpsd.KeyUnicodeName:
			bc := cursor.New(payload, errors.PhaseLayers)
			name, err := bc.UnicodeString()
			if err != nil {
				return err
			}
			// The Unicode name supersedes the legacy Pascal name
			layer.Name = name
		case rawpsd.KeySectionDivider:
			bc := cursor.New(payload, errors.PhaseLayers)
			divType, err := bc.U32()
			if err != nil {
				return err
			}
			layer.IsDivider = true
			layer.DividerType = divType
			if bc.Remaining() >= 8 {
				if _, err := bc.Signature(); err != nil {
					return err
				}
				if layer.DividerBlendKey, err = bc.Signature(); err != nil {
					return err
				}
			}
		}
	}
	// Fewer than 12 bytes left cannot hold another block: padding
	return extra.Skip(extra.Remaining())
}

// readPaddedBlock reads a declared-length payload whose on-disk size rounds
// up to an even boundary. The returned slice excludes the pad byte.
func readPaddedBlock(c *cursor.Cursor, length int) ([]byte, error) {
	padded := length + length%2
	if padded > c.Remaining() {
		return nil, errors.CorruptLayer(c.Position(),
			"block declares %d bytes with %d remaining", length, c.Remaining())
	}
	payload, err := c.Bytes(length)
	if err != nil {
		return nil, err
	}
	if padded > length {
		if err := c.Skip(1); err != nil {
			return nil, err
		}
	}
	return payload, nil
}
