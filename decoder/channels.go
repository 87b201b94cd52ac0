package decoder

import (
	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/cursor"
	"github.com/wippyai/rawpsd/errors"
	"github.com/wippyai/rawpsd/imagedata"
)

// readChannelData consumes every layer's channel image data in record order,
// decompresses the planes concurrently, and assembles each layer's output
// buffers. Each channel entry is a 2-byte compression method followed by the
// payload filling the rest of the declared channel length.
func readChannelData(info *cursor.Cursor, layers []rawpsd.LayerRecord, mode uint16) error {
	info.SetPhase(errors.PhaseChannel)

	var jobs []imagedata.Job
	// slot[i][j] is the job index of layer i's channel j
	slot := make([][]int, len(layers))

	for i := range layers {
		layer := &layers[i]
		slot[i] = make([]int, len(layer.Channels))
		for j, ch := range layer.Channels {
			if ch.Length < 2 {
				return errors.CorruptLayer(info.Position(),
					"channel %d declares length %d, too short for the method field",
					ch.ID, ch.Length)
			}
			pos := info.Position()
			method, err := info.U16()
			if err != nil {
				return err
			}
			payload, err := info.Bytes(int(ch.Length) - 2)
			if err != nil {
				return err
			}
			m := rawpsd.CompressionMethod(method)
			if !m.Known() {
				return errors.UnknownCompression(errors.PhaseChannel, pos, ch.ID, method)
			}

			rect := layer.Rect
			if layer.Mask != nil {
				switch ch.ID {
				case rawpsd.ChannelUserMask:
					rect = layer.Mask.Rect
				case rawpsd.ChannelRealMask:
					// The combined mask has its own rectangle in 36-byte
					// mask blocks
					if layer.Mask.HasReal {
						rect = layer.Mask.RealRect
					} else {
						rect = layer.Mask.Rect
					}
				}
			}
			slot[i][j] = len(jobs)
			jobs = append(jobs, imagedata.Job{
				Method:    m,
				ChannelID: ch.ID,
				Payload:   payload,
				Width:     int(rect.Width()),
				Height:    int(rect.Height()),
			})
		}
	}

	planes, err := imagedata.DecodeAll(jobs)
	if err != nil {
		return err
	}

	for i := range layers {
		layer := &layers[i]
		channels := make([]imagedata.ChannelPlane, len(layer.Channels))
		for j, ch := range layer.Channels {
			channels[j] = imagedata.ChannelPlane{ID: ch.ID, Plane: planes[slot[i][j]]}
		}
		assembled := imagedata.Assemble(mode, layer.Rect, channels)
		layer.Color = assembled.Color
		layer.K = assembled.K
		layer.MaskPlane = assembled.Mask
	}

	info.SetPhase(errors.PhaseLayers)
	return nil
}

// parseComposite decodes the flattened merged image that ends the file: one
// compression method for the whole section, then every channel's plane in
// planar order at document dimensions. For RLE the row-count table covers
// all channels' rows, so the section decodes as one tall plane and splits.
func parseComposite(c *cursor.Cursor, meta *rawpsd.Metadata) (imagedata.Planes, error) {
	c.SetPhase(errors.PhaseComposite)

	pos := c.Position()
	method, err := c.U16()
	if err != nil {
		return imagedata.Planes{}, err
	}
	m := rawpsd.CompressionMethod(method)
	if !m.Known() {
		return imagedata.Planes{}, errors.UnknownCompression(errors.PhaseComposite, pos, 0, method)
	}
	payload, err := c.Bytes(c.Remaining())
	if err != nil {
		return imagedata.Planes{}, err
	}

	width := int(meta.Width)
	height := int(meta.Height)
	count := int(meta.ChannelCount)

	all, err := imagedata.DecodeMerged(m, payload, width, height, count)
	if err != nil {
		return imagedata.Planes{}, errors.Rephase(errors.PhaseComposite, err)
	}

	planeSize := width * height
	channels := make([]imagedata.ChannelPlane, count)
	for i := 0; i < count; i++ {
		channels[i] = imagedata.ChannelPlane{
			ID:    compositeChannelID(meta.ColorMode, i),
			Plane: all[i*planeSize : (i+1)*planeSize],
		}
	}
	rect := rawpsd.Rect{Bottom: int32(height), Right: int32(width)}
	return imagedata.Assemble(meta.ColorMode, rect, channels), nil
}

// compositeChannelID maps a planar channel index in the merged image to the
// layer-record channel id space: color channels by index, then alpha.
func compositeChannelID(mode uint16, index int) int16 {
	colors := rawpsd.InterleavedComponents(mode)
	if mode == rawpsd.ModeCMYK {
		colors = 4 // K decodes as channel 3 into its own plane
	}
	if index < colors {
		return int16(index)
	}
	if index == colors {
		return rawpsd.ChannelAlpha
	}
	// Extra channels beyond the first alpha have no assembly slot
	return int16(index)
}
