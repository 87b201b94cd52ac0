package rawpsd

import "testing"

func TestRect_Dimensions(t *testing.T) {
	tests := []struct {
		name   string
		rect   Rect
		width  uint32
		height uint32
	}{
		{"normal", Rect{Top: 0, Left: 0, Bottom: 3, Right: 5}, 5, 3},
		{"negative origin", Rect{Top: -10, Left: -4, Bottom: -8, Right: 1}, 5, 2},
		{"inverted clamps to zero", Rect{Top: 5, Left: 7, Bottom: 2, Right: 3}, 0, 0},
		{"empty", Rect{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := tt.rect.Width(); w != tt.width {
				t.Errorf("Width = %d, want %d", w, tt.width)
			}
			if h := tt.rect.Height(); h != tt.height {
				t.Errorf("Height = %d, want %d", h, tt.height)
			}
			if a := tt.rect.Area(); a != uint64(tt.width)*uint64(tt.height) {
				t.Errorf("Area = %d", a)
			}
		})
	}
}

func TestCompressionMethod(t *testing.T) {
	for m := CompressionRaw; m <= CompressionZipPrediction; m++ {
		if !m.Known() {
			t.Errorf("method %d should be known", m)
		}
	}
	if CompressionMethod(4).Known() {
		t.Error("method 4 should be unknown")
	}
	if got := CompressionRLE.String(); got != "rle" {
		t.Errorf("String = %q", got)
	}
	if got := CompressionMethod(9).String(); got != "compression(9)" {
		t.Errorf("String = %q", got)
	}
}

func TestColorModeName(t *testing.T) {
	if got := ColorModeName(ModeCMYK); got != "cmyk" {
		t.Errorf("ColorModeName(CMYK) = %q", got)
	}
	if got := ColorModeName(42); got != "mode(42)" {
		t.Errorf("ColorModeName(42) = %q", got)
	}
}

func TestInterleavedComponents(t *testing.T) {
	three := []uint16{ModeRGB, ModeCMYK, ModeLab, ModeMultichannel}
	for _, m := range three {
		if got := InterleavedComponents(m); got != 3 {
			t.Errorf("InterleavedComponents(%s) = %d, want 3", ColorModeName(m), got)
		}
	}
	one := []uint16{ModeBitmap, ModeGrayscale, ModeIndexed, ModeDuotone}
	for _, m := range one {
		if got := InterleavedComponents(m); got != 1 {
			t.Errorf("InterleavedComponents(%s) = %d, want 1", ColorModeName(m), got)
		}
	}
}
