package rawpsd

import "strconv"

// File-level magic constants. Every multi-byte integer in the format is
// big-endian.
const (
	// FileSignature opens every PSD file.
	FileSignature = "8BPS"
	// BlockSignature tags image resource blocks, the blend mode field, and
	// additional layer information blocks.
	BlockSignature = "8BIM"

	// VersionPSD is the only supported file version. Version 2 is the
	// large-document PSB variant, which this library rejects explicitly.
	VersionPSD = 1
	VersionPSB = 2

	// MaxChannels and MaxDimension are the format's hard limits for the
	// supported (non-PSB) variant. Dimensions beyond MaxDimension belong to
	// the PSB variant.
	MaxChannels  = 56
	MaxDimension = 30000
)

// Color mode codes as stored in the file header. The decoder carries the raw
// code; these names exist for dispatch and diagnostics only.
const (
	ModeBitmap       uint16 = 0
	ModeGrayscale    uint16 = 1
	ModeIndexed      uint16 = 2
	ModeRGB          uint16 = 3
	ModeCMYK         uint16 = 4
	ModeMultichannel uint16 = 7
	ModeDuotone      uint16 = 8
	ModeLab          uint16 = 9
)

// ColorModeName returns a human-readable label for a color mode code, for
// diagnostics. Unknown codes render as "mode(N)".
func ColorModeName(mode uint16) string {
	switch mode {
	case ModeBitmap:
		return "bitmap"
	case ModeGrayscale:
		return "grayscale"
	case ModeIndexed:
		return "indexed"
	case ModeRGB:
		return "rgb"
	case ModeCMYK:
		return "cmyk"
	case ModeMultichannel:
		return "multichannel"
	case ModeDuotone:
		return "duotone"
	case ModeLab:
		return "lab"
	default:
		return "mode(" + strconv.Itoa(int(mode)) + ")"
	}
}

// Channel identifiers as stored in layer records. Non-negative values index
// color channels; the negative values are fixed roles.
const (
	ChannelAlpha    int16 = -1
	ChannelUserMask int16 = -2
	ChannelRealMask int16 = -3
)

// Image resource ids the decoder interprets. All other resources pass
// through opaque.
const (
	// ResourceAlphaNames is the legacy Pascal-string alpha channel name
	// list.
	ResourceAlphaNames uint16 = 1006
	// ResourceUnicodeAlphaNames is the Unicode encoding of the same list.
	// When both resources are present only this one is emitted.
	ResourceUnicodeAlphaNames uint16 = 1045
)

// Additional layer information keys the decoder interprets. Unrecognized
// keys are retained opaquely in LayerRecord.ExtraBlocks.
const (
	// KeyUnicodeName carries the modern layer name, superseding the legacy
	// Pascal name in the fixed record.
	KeyUnicodeName = "luni"
	// KeySectionDivider marks group start/end/bounding entries.
	KeySectionDivider = "lsct"
)

// CompressionMethod selects how a channel's byte plane is encoded. The set
// is closed: any other value in a file is a decode error, never a fallback.
type CompressionMethod uint16

const (
	CompressionRaw           CompressionMethod = 0
	CompressionRLE           CompressionMethod = 1
	CompressionZip           CompressionMethod = 2
	CompressionZipPrediction CompressionMethod = 3
)

// Known reports whether m is one of the four defined methods.
func (m CompressionMethod) Known() bool {
	return m <= CompressionZipPrediction
}

func (m CompressionMethod) String() string {
	switch m {
	case CompressionRaw:
		return "raw"
	case CompressionRLE:
		return "rle"
	case CompressionZip:
		return "zip"
	case CompressionZipPrediction:
		return "zip+prediction"
	default:
		return "compression(" + strconv.Itoa(int(m)) + ")"
	}
}

// Metadata is the cheap, channel-data-free view of a file: header fields,
// the opaque color mode payload, and the image resources.
type Metadata struct {
	Width        uint32
	Height       uint32
	ChannelCount uint16
	Depth        uint16
	ColorMode    uint16

	// ColorModeData is the verbatim color mode section payload: the palette
	// for indexed mode, the duotone specification for duotone mode, empty
	// otherwise.
	ColorModeData []byte

	// Resources holds the image resource blocks in file order, after
	// alpha-name deduplication.
	Resources []ImageResource
}

// ImageResource is one tagged block from the image resources section.
type ImageResource struct {
	ID   uint16
	Name string
	// Data is the payload exactly as declared in the file, without the
	// trailing pad byte.
	Data []byte
	// AlphaNames is populated only on the Unicode alpha-names resource; the
	// decoded list replaces the legacy Pascal-string resource when both are
	// present.
	AlphaNames []string
}

// Rect is a layer or mask bounding rectangle. The raw file values are kept:
// Left may exceed Right (and Top exceed Bottom) for a fully clipped layer,
// and no normalization is applied.
type Rect struct {
	Top    int32
	Left   int32
	Bottom int32
	Right  int32
}

// Width returns the pixel width, clamped to zero for inverted rectangles.
func (r Rect) Width() uint32 {
	if r.Right <= r.Left {
		return 0
	}
	return uint32(r.Right - r.Left)
}

// Height returns the pixel height, clamped to zero for inverted rectangles.
func (r Rect) Height() uint32 {
	if r.Bottom <= r.Top {
		return 0
	}
	return uint32(r.Bottom - r.Top)
}

// Area returns Width()*Height() as a 64-bit count of samples.
func (r Rect) Area() uint64 {
	return uint64(r.Width()) * uint64(r.Height())
}

// MaskInfo describes a layer's user mask. The mask has its own rectangle,
// usually smaller than the layer's.
type MaskInfo struct {
	Rect         Rect
	DefaultColor byte
	// Flags is the raw bitfield; the three decoded bits follow.
	Flags    byte
	Relative bool
	Disabled bool
	Invert   bool

	// HasReal reports whether the mask block carried the second descriptor
	// (36-byte form). The combined mask channel (-3) is sized to RealRect
	// when present.
	HasReal          bool
	RealFlags        byte
	RealDefaultColor byte
	RealRect         Rect
}

// ChannelInfo is one (id, compressed length) entry from a layer record. The
// id is kept as the raw signed value.
type ChannelInfo struct {
	ID     int16
	Length uint32
}

// LayerRecord is one decoded layer: geometry, blend attributes, names, mask,
// opaque extension blocks, and the decompressed pixel planes.
//
// Group hierarchy is deliberately not assembled: section divider entries are
// exposed raw (DividerType, DividerBlendKey) and building a tree from them
// is the caller's concern.
type LayerRecord struct {
	Rect Rect

	// Channels lists the per-channel entries in file order. Its length
	// always equals the channel count declared by the record.
	Channels []ChannelInfo

	// BlendModeSignature is the raw 4-character block signature preceding
	// the blend mode key, validated to equal BlockSignature but kept as
	// stored.
	BlendModeSignature string
	// BlendModeKey is the raw 4-character code, e.g. "norm" or "mul ". No
	// enum translation is applied.
	BlendModeKey string
	Opacity      byte
	Clipping     byte
	// Flags is the raw behavior bitfield.
	Flags byte

	// Name is the resolved layer name: the Unicode name from the "luni"
	// block when present, otherwise the legacy Pascal name.
	Name string
	// LegacyName is the fixed-record Pascal name, kept for callers that
	// need the pre-Unicode value.
	LegacyName string

	// Mask is nil when the record carries no mask data.
	Mask *MaskInfo

	// BlendingRanges is the opaque layer blending ranges payload.
	BlendingRanges []byte

	// ExtraBlocks maps every additional-info key to its raw payload,
	// including the keys the decoder also interprets. Unrecognized keys
	// land here instead of failing the parse.
	ExtraBlocks map[string][]byte

	// IsDivider is set when an "lsct" block is present; DividerType and
	// DividerBlendKey carry its raw values.
	IsDivider       bool
	DividerType     uint32
	DividerBlendKey string

	// Color is the interleaved color+alpha plane sized to Rect: one byte
	// per component, components-per-pixel fixed by the document color mode,
	// alpha last and filled 0xFF when the file carries none.
	Color []byte
	// K is the separate black plane for CMYK documents, empty otherwise.
	K []byte
	// MaskPlane is the decoded user mask, sized to the mask's own
	// rectangle.
	MaskPlane []byte
}

// Document is the fully decoded container.
type Document struct {
	Metadata Metadata

	// Layers in file order (bottom to top).
	Layers []LayerRecord

	// TransparencyMergedAlpha is the documented meaning of a negative layer
	// count: the first alpha channel of the merged image represents
	// transparency.
	TransparencyMergedAlpha bool

	// GlobalMaskInfo is the opaque global layer mask block.
	GlobalMaskInfo []byte
	// GlobalExtraBlocks holds trailing tagged blocks after the layer info.
	GlobalExtraBlocks map[string][]byte

	// CompositeColor and CompositeK are the flattened image planes,
	// assembled exactly like a layer's but at document dimensions.
	CompositeColor []byte
	CompositeK     []byte
}

// InterleavedComponents returns the number of color components stored in the
// interleaved color+alpha plane for a color mode, excluding alpha. CMYK
// reports 3: its K channel is decoded into a separate plane.
func InterleavedComponents(mode uint16) int {
	switch mode {
	case ModeRGB, ModeLab, ModeCMYK, ModeMultichannel:
		return 3
	default:
		return 1
	}
}
