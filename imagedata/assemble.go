package imagedata

import "github.com/wippyai/rawpsd"

// ChannelPlane pairs a decoded plane with the raw channel id it came from.
// Color planes are sized to the layer rectangle, mask planes to the mask's
// own rectangle.
type ChannelPlane struct {
	ID    int16
	Plane []byte
}

// Planes is the assembled output for one layer (or the composite image).
type Planes struct {
	// Color is interleaved color+alpha: InterleavedComponents(mode) color
	// bytes per pixel followed by one alpha byte. Alpha is 0xFF everywhere
	// the file carries no alpha channel.
	Color []byte
	// K is the separate black plane, populated for CMYK only.
	K []byte
	// Mask is the user mask plane at the mask rectangle's size.
	Mask []byte
}

// Assemble maps decoded channel planes to the color-mode-appropriate output
// buffers. Color channel ids scatter into the interleaved buffer by index,
// -1 lands in the alpha slot, and the first mask channel (-2, or -3 when no
// -2 exists) becomes the mask plane. CMYK's channel 3 is the K plane.
// Channels with no slot for the given mode are ignored, matching the
// minimally-interpreted contract.
func Assemble(mode uint16, rect rawpsd.Rect, channels []ChannelPlane) Planes {
	comps := rawpsd.InterleavedComponents(mode)
	stride := comps + 1
	pixels := int(rect.Area())

	var out Planes
	if pixels > 0 {
		out.Color = make([]byte, pixels*stride)
		for i := range out.Color {
			out.Color[i] = 0xFF
		}
	}

	for _, ch := range channels {
		switch {
		case ch.ID >= 0 && int(ch.ID) < comps:
			scatter(out.Color, ch.Plane, int(ch.ID), stride)
		case ch.ID == 3 && mode == rawpsd.ModeCMYK:
			out.K = ch.Plane
		case ch.ID == rawpsd.ChannelAlpha:
			scatter(out.Color, ch.Plane, comps, stride)
		case ch.ID == rawpsd.ChannelUserMask:
			out.Mask = ch.Plane
		case ch.ID == rawpsd.ChannelRealMask:
			if out.Mask == nil {
				out.Mask = ch.Plane
			}
		}
	}
	return out
}

func scatter(dst, plane []byte, pos, stride int) {
	for i, b := range plane {
		at := i*stride + pos
		if at >= len(dst) {
			break
		}
		dst[at] = b
	}
}
