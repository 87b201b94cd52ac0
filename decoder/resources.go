package decoder

import (
	"go.uber.org/zap"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/cursor"
	"github.com/wippyai/rawpsd/errors"
)

// parseResourceSection reads the length-prefixed image resources section:
// "8BIM"-tagged blocks of (id, Pascal name, payload) iterated until the
// declared section length is consumed. When both alpha-name encodings are
// present only the Unicode one (1045) is kept.
func parseResourceSection(c *cursor.Cursor, meta *rawpsd.Metadata) error {
	c.SetPhase(errors.PhaseResources)
	total, err := c.U32()
	if err != nil {
		return err
	}
	sec, err := c.Sub(int(total))
	if err != nil {
		return err
	}

	legacyNames := -1 // index of the 1006 resource, for dedup
	haveUnicode := false
	for sec.Remaining() >= 4 {
		res, err := parseResourceBlock(sec)
		if err != nil {
			return err
		}
		switch res.ID {
		case rawpsd.ResourceAlphaNames:
			legacyNames = len(meta.Resources)
		case rawpsd.ResourceUnicodeAlphaNames:
			names, err := decodeUnicodeNameList(res.Data)
			if err != nil {
				return err
			}
			res.AlphaNames = names
			haveUnicode = true
		}
		meta.Resources = append(meta.Resources, res)
	}

	// Both encodings of the alpha channel name list collapse to the
	// Unicode one; the legacy Pascal resource is never exposed alongside it.
	if haveUnicode && legacyNames >= 0 {
		meta.Resources = append(meta.Resources[:legacyNames], meta.Resources[legacyNames+1:]...)
	}

	Logger().Debug("parsed image resources",
		zap.Int("count", len(meta.Resources)),
		zap.Uint32("bytes", total))
	return nil
}

func parseResourceBlock(sec *cursor.Cursor) (rawpsd.ImageResource, error) {
	var res rawpsd.ImageResource

	pos := sec.Position()
	sig, err := sec.Signature()
	if err != nil {
		return res, err
	}
	if sig != rawpsd.BlockSignature {
		return res, errors.CorruptResource(pos, "block signature %q, expected %q",
			sig, rawpsd.BlockSignature)
	}

	if res.ID, err = sec.U16(); err != nil {
		return res, err
	}
	if res.Name, err = sec.PascalString(2); err != nil {
		return res, err
	}

	length, err := sec.U32()
	if err != nil {
		return res, err
	}
	if int(length) > sec.Remaining() {
		return res, errors.CorruptResource(sec.Position(),
			"resource %d declares %d payload bytes with %d remaining in section",
			res.ID, length, sec.Remaining())
	}
	if res.Data, err = sec.Bytes(int(length)); err != nil {
		return res, err
	}
	// Payloads pad to an even boundary; the pad byte is not part of Data
	if length%2 == 1 && sec.Remaining() > 0 {
		if err := sec.Skip(1); err != nil {
			return res, err
		}
	}
	return res, nil
}

// decodeUnicodeNameList decodes the 1045 payload: a packed sequence of
// Unicode strings, one per alpha channel.
func decodeUnicodeNameList(data []byte) ([]string, error) {
	c := cursor.New(data, errors.PhaseResources)
	var names []string
	for c.Remaining() >= 4 {
		name, err := c.UnicodeString()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
