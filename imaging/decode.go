package imaging

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/wippyai/bfbridge/errors"
)

// Layout describes how raw samples are arranged.
type Layout struct {
	Width        int
	Height       int
	Channels     int
	Interleaved  bool
	PixelType    PixelType
	LittleEndian bool
}

// Size returns the byte length of a buffer holding l.
func (l Layout) Size() int {
	if l.PixelType == Bit {
		return l.Width * l.Height
	}
	return l.Width * l.Height * l.Channels * l.PixelType.BytesPerSample()
}

func (l Layout) validate(n int) error {
	if !l.PixelType.Valid() {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("pixel type %d out of range", int(l.PixelType)).
			Build()
	}
	if l.Width <= 0 || l.Height <= 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("invalid extent %dx%d", l.Width, l.Height).
			Build()
	}
	switch {
	case l.PixelType == Bit && l.Channels != 1:
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("bit pixels need 1 channel, got %d", l.Channels).
			Build()
	case l.Channels != 1 && l.Channels != 3 && l.Channels != 4:
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("%d channels not supported, want 1, 3 or 4", l.Channels).
			Build()
	}
	if n != l.Size() {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("expected %d * %d * %d * %d bytes, got %d",
				l.Width, l.Height, l.Channels, l.PixelType.BytesPerSample(), n).
			Build()
	}
	return nil
}

// Decode builds an 8-bit image from raw. One channel yields *image.Gray,
// three or four yield *image.NRGBA.
func Decode(raw []byte, l Layout) (image.Image, error) {
	if err := l.validate(len(raw)); err != nil {
		return nil, err
	}
	if l.PixelType == Bit {
		img := image.NewGray(image.Rect(0, 0, l.Width, l.Height))
		for i, v := range raw {
			if v != 0 {
				img.Pix[i] = 0xff
			}
		}
		return img, nil
	}

	samples := reduce(raw, l)
	pixels := l.Width * l.Height
	at := func(i, c int) uint8 {
		if l.Interleaved {
			return samples[i*l.Channels+c]
		}
		return samples[c*pixels+i]
	}

	if l.Channels == 1 {
		img := image.NewGray(image.Rect(0, 0, l.Width, l.Height))
		for i := 0; i < pixels; i++ {
			img.Pix[i] = at(i, 0)
		}
		return img, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, l.Width, l.Height))
	for i := 0; i < pixels; i++ {
		c := color.NRGBA{R: at(i, 0), G: at(i, 1), B: at(i, 2), A: 0xff}
		if l.Channels == 4 {
			c.A = at(i, 3)
		}
		img.Pix[4*i] = c.R
		img.Pix[4*i+1] = c.G
		img.Pix[4*i+2] = c.B
		img.Pix[4*i+3] = c.A
	}
	return img, nil
}

// reduce converts every sample of raw to 8 bits, preserving sample order.
func reduce(raw []byte, l Layout) []uint8 {
	size := l.PixelType.BytesPerSample()
	n := len(raw) / size
	out := make([]uint8, n)
	var order binary.ByteOrder = binary.BigEndian
	if l.LittleEndian {
		order = binary.LittleEndian
	}

	switch l.PixelType {
	case Int8:
		for i := range out {
			out[i] = raw[i] ^ 0x80
		}
	case Uint8:
		copy(out, raw)
	case Int16, Uint16:
		for i := range out {
			v := order.Uint16(raw[2*i:])
			if l.PixelType == Int16 {
				v ^= 0x8000
			}
			out[i] = scale(float64(v) / 256)
		}
	case Int32, Uint32:
		for i := range out {
			v := order.Uint32(raw[4*i:])
			if l.PixelType == Int32 {
				v ^= 0x80000000
			}
			out[i] = scale(float64(v) / 65536 / 256)
		}
	case Float, Double:
		values := make([]float64, n)
		for i := range values {
			if l.PixelType == Float {
				values[i] = float64(math.Float32frombits(order.Uint32(raw[4*i:])))
			} else {
				values[i] = math.Float64frombits(order.Uint64(raw[8*i:]))
			}
		}
		normalize(values)
		for i, v := range values {
			out[i] = scale(v * 255.4999)
		}
	}
	return out
}

// normalize maps values onto [0, 1] unless they already lie there.
func normalize(values []float64) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo >= 0 && hi <= 1 {
		return
	}
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			values[i] = 0
			continue
		}
		values[i] = (v - lo) / span
	}
}

// scale rounds half to even and saturates at 255.
func scale(v float64) uint8 {
	r := math.RoundToEven(v)
	switch {
	case r <= 0 || math.IsNaN(r):
		return 0
	case r >= 255:
		return 255
	}
	return uint8(r)
}
