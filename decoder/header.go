package decoder

import (
	"go.uber.org/zap"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/cursor"
	"github.com/wippyai/rawpsd/errors"
)

// parseHeader validates and extracts the 26-byte file header into meta.
func parseHeader(c *cursor.Cursor, meta *rawpsd.Metadata) error {
	pos := c.Position()
	sig, err := c.Signature()
	if err != nil {
		return err
	}
	if sig != rawpsd.FileSignature {
		return errors.BadSignature(errors.PhaseHeader, pos, rawpsd.FileSignature, sig)
	}

	version, err := c.U16()
	if err != nil {
		return err
	}
	switch version {
	case rawpsd.VersionPSD:
	case rawpsd.VersionPSB:
		return errors.UnsupportedVariant(errors.PhaseHeader,
			"version 2 is the large-document variant")
	default:
		return errors.UnsupportedVariant(errors.PhaseHeader,
			"unknown file version %d", version)
	}

	// Reserved bytes, read and discarded
	if err := c.Skip(6); err != nil {
		return err
	}

	channels, err := c.U16()
	if err != nil {
		return err
	}
	if channels < 1 || channels > rawpsd.MaxChannels {
		return errors.UnsupportedVariant(errors.PhaseHeader,
			"channel count %d outside [1,%d]", channels, rawpsd.MaxChannels)
	}

	height, err := c.U32()
	if err != nil {
		return err
	}
	width, err := c.U32()
	if err != nil {
		return err
	}
	if height < 1 || height > rawpsd.MaxDimension || width < 1 || width > rawpsd.MaxDimension {
		return errors.UnsupportedVariant(errors.PhaseHeader,
			"dimensions %dx%d outside [1,%d]; larger sizes belong to the large-document variant",
			width, height, rawpsd.MaxDimension)
	}

	depth, err := c.U16()
	if err != nil {
		return err
	}
	if depth != 8 {
		return errors.UnsupportedDepth(depth)
	}

	mode, err := c.U16()
	if err != nil {
		return err
	}
	switch mode {
	case rawpsd.ModeBitmap, rawpsd.ModeGrayscale, rawpsd.ModeIndexed,
		rawpsd.ModeRGB, rawpsd.ModeCMYK, rawpsd.ModeMultichannel,
		rawpsd.ModeDuotone, rawpsd.ModeLab:
	default:
		return errors.UnsupportedVariant(errors.PhaseHeader,
			"unrecognized color mode code %d", mode)
	}

	meta.ChannelCount = channels
	meta.Height = height
	meta.Width = width
	meta.Depth = depth
	meta.ColorMode = mode

	Logger().Debug("parsed header",
		zap.Uint32("width", width),
		zap.Uint32("height", height),
		zap.Uint16("channels", channels),
		zap.String("mode", rawpsd.ColorModeName(mode)))
	return nil
}

// parseColorModeSection reads the length-prefixed opaque color mode payload:
// the palette for indexed mode, the duotone table for duotone mode, usually
// empty otherwise.
func parseColorModeSection(c *cursor.Cursor, meta *rawpsd.Metadata) error {
	c.SetPhase(errors.PhaseColorMode)
	length, err := c.U32()
	if err != nil {
		return err
	}
	data, err := c.Bytes(int(length))
	if err != nil {
		return err
	}
	if len(data) > 0 {
		meta.ColorModeData = data
	}
	return nil
}
