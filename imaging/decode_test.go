package imaging

import (
	"encoding/binary"
	"image"
	"math"
	"testing"

	"github.com/wippyai/bfbridge/errors"
)

func TestPixelType(t *testing.T) {
	tests := []struct {
		p      PixelType
		name   string
		bytes  int
		signed bool
		thumb  PixelType
	}{
		{Int8, "int8", 1, true, Uint8},
		{Uint8, "uint8", 1, false, Uint8},
		{Int16, "int16", 2, true, Uint16},
		{Uint16, "uint16", 2, false, Uint16},
		{Int32, "int32", 4, true, Uint32},
		{Uint32, "uint32", 4, false, Uint32},
		{Float, "float", 4, false, Float},
		{Double, "double", 8, false, Double},
		{Bit, "bit", 1, false, Bit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.p.BytesPerSample(); got != tt.bytes {
				t.Errorf("BytesPerSample() = %d, want %d", got, tt.bytes)
			}
			if got := tt.p.Signed(); got != tt.signed {
				t.Errorf("Signed() = %v, want %v", got, tt.signed)
			}
			if got := ThumbnailPixelType(tt.p); got != tt.thumb {
				t.Errorf("ThumbnailPixelType() = %v, want %v", got, tt.thumb)
			}
		})
	}

	if PixelType(9).Valid() || PixelType(-1).Valid() {
		t.Error("out of range pixel types reported valid")
	}
	if got := PixelType(12).String(); got != "pixeltype(12)" {
		t.Errorf("String() = %q", got)
	}
}

func TestDecode_Uint8Interleaved(t *testing.T) {
	raw := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	img, err := Decode(raw, Layout{Width: 2, Height: 2, Channels: 3, Interleaved: true, PixelType: Uint8})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	rgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("Decode returned %T, want *image.NRGBA", img)
	}
	if rgba.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v", rgba.Bounds())
	}
	c := rgba.NRGBAAt(1, 1)
	if c.R != 10 || c.G != 11 || c.B != 12 || c.A != 0xff {
		t.Errorf("pixel (1,1) = %v", c)
	}
}

func TestDecode_Planar(t *testing.T) {
	// two pixels, channel planes one after another
	raw := []byte{10, 20, 30, 40, 50, 60}
	img, err := Decode(raw, Layout{Width: 2, Height: 1, Channels: 3, PixelType: Uint8})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	c := img.(*image.NRGBA).NRGBAAt(1, 0)
	if c.R != 20 || c.G != 40 || c.B != 60 {
		t.Errorf("pixel (1,0) = %v, want {20 40 60}", c)
	}
}

func TestDecode_FourChannels(t *testing.T) {
	raw := []byte{1, 2, 3, 128}
	img, err := Decode(raw, Layout{Width: 1, Height: 1, Channels: 4, Interleaved: true, PixelType: Uint8})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if a := img.(*image.NRGBA).NRGBAAt(0, 0).A; a != 128 {
		t.Errorf("alpha = %d, want 128", a)
	}
}

func TestDecode_SignedAndWide(t *testing.T) {
	le := binary.LittleEndian
	be := binary.BigEndian

	tests := []struct {
		name string
		typ  PixelType
		le   bool
		raw  []byte
		want uint8
	}{
		{"int8 min", Int8, true, []byte{0x80}, 0},
		{"int8 zero", Int8, true, []byte{0x00}, 128},
		{"int8 max", Int8, true, []byte{0x7f}, 255},
		{"uint16 le", Uint16, true, le.AppendUint16(nil, 0x1280), 18},
		{"uint16 be", Uint16, false, be.AppendUint16(nil, 0x1280), 18},
		{"uint16 saturates", Uint16, true, le.AppendUint16(nil, 0xffff), 255},
		{"int16 min", Int16, true, le.AppendUint16(nil, 0x8000), 0},
		{"int16 zero", Int16, true, le.AppendUint16(nil, 0), 128},
		{"uint32", Uint32, true, le.AppendUint32(nil, 0x20000000), 32},
		{"int32 zero", Int32, false, be.AppendUint32(nil, 0), 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.raw, Layout{Width: 1, Height: 1, Channels: 1, PixelType: tt.typ, LittleEndian: tt.le})
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := img.(*image.Gray).Pix[0]; got != tt.want {
				t.Errorf("sample = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecode_FloatNormalisation(t *testing.T) {
	le := binary.LittleEndian
	t.Run("already normalised", func(t *testing.T) {
		var raw []byte
		for _, v := range []float32{0, 0.5, 1} {
			raw = le.AppendUint32(raw, math.Float32bits(v))
		}
		img, err := Decode(raw, Layout{Width: 3, Height: 1, Channels: 1, PixelType: Float, LittleEndian: true})
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		got := img.(*image.Gray).Pix
		if got[0] != 0 || got[1] != 128 || got[2] != 255 {
			t.Errorf("samples = %v, want [0 128 255]", got)
		}
	})
	t.Run("stretched", func(t *testing.T) {
		var raw []byte
		for _, v := range []float64{-10, 10} {
			raw = binary.BigEndian.AppendUint64(raw, math.Float64bits(v))
		}
		img, err := Decode(raw, Layout{Width: 2, Height: 1, Channels: 1, PixelType: Double})
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		got := img.(*image.Gray).Pix
		if got[0] != 0 || got[1] != 255 {
			t.Errorf("samples = %v, want [0 255]", got)
		}
	})
	t.Run("constant out of range", func(t *testing.T) {
		raw := le.AppendUint32(nil, math.Float32bits(7))
		img, err := Decode(raw, Layout{Width: 1, Height: 1, Channels: 1, PixelType: Float, LittleEndian: true})
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got := img.(*image.Gray).Pix[0]; got != 0 {
			t.Errorf("sample = %d, want 0", got)
		}
	})
}

func TestDecode_Bit(t *testing.T) {
	img, err := Decode([]byte{0, 1, 1, 0}, Layout{Width: 2, Height: 2, Channels: 1, PixelType: Bit})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got := img.(*image.Gray).Pix
	want := []uint8{0, 255, 255, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Pix = %v, want %v", got, want)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		layout Layout
	}{
		{"bad pixel type", []byte{0}, Layout{Width: 1, Height: 1, Channels: 1, PixelType: 9}},
		{"zero extent", nil, Layout{Width: 0, Height: 1, Channels: 1, PixelType: Uint8}},
		{"bit with colour", []byte{0, 0, 0}, Layout{Width: 1, Height: 1, Channels: 3, PixelType: Bit}},
		{"two channels", []byte{0, 0}, Layout{Width: 1, Height: 1, Channels: 2, PixelType: Uint8}},
		{"short buffer", []byte{0, 0}, Layout{Width: 1, Height: 1, Channels: 3, PixelType: Uint8}},
		{"long buffer", []byte{0, 0, 0, 0}, Layout{Width: 1, Height: 1, Channels: 1, PixelType: Uint16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw, tt.layout)
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidData}) {
				t.Errorf("Decode error = %v, want decode invalid_data", err)
			}
		})
	}
}

func TestLayout_Size(t *testing.T) {
	if got := (Layout{Width: 4, Height: 2, Channels: 3, PixelType: Uint16}).Size(); got != 48 {
		t.Errorf("Size() = %d, want 48", got)
	}
	if got := (Layout{Width: 4, Height: 2, Channels: 1, PixelType: Bit}).Size(); got != 8 {
		t.Errorf("Size() = %d, want 8", got)
	}
}
