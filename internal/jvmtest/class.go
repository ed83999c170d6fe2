package jvmtest

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/bfbridge/jvm"
)

// ClassName is the bridging class the fake exposes.
const ClassName = "org/camicroscope/BFBridge"

type method struct {
	call func(o *object, args []jvm.Value) float64
	name string
	sig  string
}

// object is one instance of the bridging class.
type object struct {
	images map[string]*Image
	open   *Image
	buf    []byte
	errLen int
	series int
	res    int
}

type directBuffer struct {
	data []byte
}

type class struct {
	name string
}

func arg(args []jvm.Value, i int) int {
	if i >= len(args) {
		return 0
	}
	return int(args[i].Int)
}

func (o *object) fail(format string, args ...any) float64 {
	o.saveError(fmt.Sprintf(format, args...))
	return -1
}

func (o *object) saveError(s string) {
	n := len(s)
	if limit := max(len(o.buf)-1, 0); n > limit {
		n = limit
	}
	copy(o.buf, s[:n])
	o.errLen = n
}

func (o *object) input(n int) (string, bool) {
	if n < 0 || n > len(o.buf) {
		return "", false
	}
	return string(o.buf[:n]), true
}

func (o *object) put(p []byte) float64 {
	if len(p) > len(o.buf) {
		o.saveError("java.nio.BufferOverflowException")
		return -1
	}
	return float64(copy(o.buf, p))
}

func (o *object) current() (*Series, *Size, bool) {
	if o.open == nil {
		return nil, nil, false
	}
	s := &o.open.Series[o.series]
	return s, &s.Resolutions[o.res], true
}

func (o *object) closeFile() {
	o.open = nil
	o.series = 0
	o.res = 0
}

func boolInt(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// query wraps an accessor that needs an open file.
func query(fn func(s *Series, size *Size) float64) func(o *object, args []jvm.Value) float64 {
	return func(o *object, args []jvm.Value) float64 {
		s, size, ok := o.current()
		if !ok {
			return o.fail("java.lang.IllegalStateException: no file open")
		}
		return fn(s, size)
	}
}

var classMethods = []method{
	{name: "<init>", sig: "()V", call: func(o *object, args []jvm.Value) float64 { return 0 }},
	{name: "BFSetCommunicationBuffer", sig: "(Ljava/nio/ByteBuffer;)V"},
	{name: "BFGetErrorLength", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		return float64(o.errLen)
	}},
	{name: "BFIsCompatible", sig: "(I)I", call: func(o *object, args []jvm.Value) float64 {
		path, ok := o.input(arg(args, 0))
		if !ok {
			return o.fail("java.lang.IndexOutOfBoundsException")
		}
		o.closeFile()
		_, found := o.images[path]
		return boolInt(found)
	}},
	{name: "BFIsAnyFileOpen", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		return boolInt(o.open != nil)
	}},
	{name: "BFOpen", sig: "(I)I", call: func(o *object, args []jvm.Value) float64 {
		path, ok := o.input(arg(args, 0))
		if !ok {
			return o.fail("java.lang.IndexOutOfBoundsException")
		}
		o.closeFile()
		img, found := o.images[path]
		if !found {
			return o.fail("loci.common.enumeration.FormatException: %s: Unknown file format", path)
		}
		o.open = img
		return 1
	}},
	{name: "BFGetFormat", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil {
			return o.fail("java.lang.NullPointerException")
		}
		return o.put([]byte(o.open.Format))
	}},
	{name: "BFIsSingleFile", sig: "(I)I", call: func(o *object, args []jvm.Value) float64 {
		path, ok := o.input(arg(args, 0))
		if !ok {
			return o.fail("java.lang.IndexOutOfBoundsException")
		}
		o.closeFile()
		img, found := o.images[path]
		if !found {
			return o.fail("loci.common.enumeration.FormatException: %s: Unknown file format", path)
		}
		return boolInt(!img.Grouped)
	}},
	{name: "BFGetCurrentFile", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil {
			return 0
		}
		return o.put([]byte(o.open.Path))
	}},
	{name: "BFGetUsedFiles", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil {
			return o.fail("java.lang.NullPointerException")
		}
		n := 0
		for _, f := range o.open.UsedFiles {
			if n+len(f)+2 > len(o.buf) {
				o.saveError("Too long")
				return -2
			}
			n += copy(o.buf[n:], f)
			o.buf[n] = 0
			n++
		}
		return float64(n)
	}},
	{name: "BFClose", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		o.closeFile()
		return 1
	}},
	{name: "BFGetSeriesCount", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil {
			return o.fail("java.lang.IllegalStateException: no file open")
		}
		return float64(len(o.open.Series))
	}},
	{name: "BFSetCurrentSeries", sig: "(I)I", call: func(o *object, args []jvm.Value) float64 {
		n := arg(args, 0)
		if o.open == nil || n < 0 || n >= len(o.open.Series) {
			return o.fail("java.lang.IllegalArgumentException: Invalid series: %d", n)
		}
		o.series = n
		o.res = 0
		return 1
	}},
	{name: "BFGetResolutionCount", sig: "()I", call: query(func(s *Series, _ *Size) float64 {
		return float64(len(s.Resolutions))
	})},
	{name: "BFSetCurrentResolution", sig: "(I)I", call: func(o *object, args []jvm.Value) float64 {
		s, _, ok := o.current()
		n := arg(args, 0)
		if !ok || n < 0 || n >= len(s.Resolutions) {
			return o.fail("java.lang.IllegalArgumentException: Invalid resolution: %d", n)
		}
		o.res = n
		return 1
	}},
	{name: "BFGetSizeX", sig: "()I", call: query(func(_ *Series, size *Size) float64 { return float64(size.X) })},
	{name: "BFGetSizeY", sig: "()I", call: query(func(_ *Series, size *Size) float64 { return float64(size.Y) })},
	{name: "BFGetSizeC", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.SizeC) })},
	{name: "BFGetSizeZ", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.SizeZ) })},
	{name: "BFGetSizeT", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.SizeT) })},
	{name: "BFGetEffectiveSizeC", sig: "()I", call: query(func(s *Series, _ *Size) float64 {
		return float64(s.SizeC / max(s.RGBChannelCount, 1))
	})},
	{name: "BFGetImageCount", sig: "()I", call: query(func(s *Series, _ *Size) float64 {
		return float64(s.SizeZ * s.SizeT * (s.SizeC / max(s.RGBChannelCount, 1)))
	})},
	{name: "BFGetDimensionOrder", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		s, _, ok := o.current()
		if !ok {
			return o.fail("java.lang.IllegalStateException: no file open")
		}
		return o.put([]byte(s.DimensionOrder))
	}},
	{name: "BFIsOrderCertain", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return boolInt(s.OrderCertain) })},
	{name: "BFGetOptimalTileWidth", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.TileWidth) })},
	{name: "BFGetOptimalTileHeight", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.TileHeight) })},
	{name: "BFGetPixelType", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.PixelType) })},
	{name: "BFGetBitsPerPixel", sig: "()I", call: query(func(s *Series, _ *Size) float64 {
		if s.PixelType == Bit {
			return 1
		}
		return float64(8 * BytesPerPixel(s.PixelType))
	})},
	{name: "BFGetBytesPerPixel", sig: "()I", call: query(func(s *Series, _ *Size) float64 {
		return float64(BytesPerPixel(s.PixelType))
	})},
	{name: "BFGetRGBChannelCount", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return float64(s.RGBChannelCount) })},
	{name: "BFIsRGB", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return boolInt(s.RGBChannelCount > 1) })},
	{name: "BFIsInterleaved", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return boolInt(s.Interleaved) })},
	{name: "BFIsLittleEndian", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return boolInt(s.LittleEndian) })},
	{name: "BFIsIndexedColor", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return boolInt(s.Indexed) })},
	{name: "BFIsFalseColor", sig: "()I", call: query(func(s *Series, _ *Size) float64 { return boolInt(s.FalseColor) })},
	{name: "BFGet8BitLookupTable", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil || len(o.open.LUT8) == 0 {
			return o.fail("java.lang.NullPointerException")
		}
		var flat []byte
		for _, row := range o.open.LUT8 {
			if len(row) != 256 {
				o.saveError("BFGet8BitLookupTable expected 256 rowlength")
				return -2
			}
			flat = append(flat, row...)
		}
		return o.put(flat)
	}},
	{name: "BFGet16BitLookupTable", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil || len(o.open.LUT16) == 0 {
			return o.fail("java.lang.NullPointerException")
		}
		var flat []byte
		for _, row := range o.open.LUT16 {
			if len(row) != 65536 {
				o.saveError("BFGet16BitLookupTable expected 65536 rowlength")
				return -2
			}
			for _, v := range row {
				flat = binary.LittleEndian.AppendUint16(flat, v)
			}
		}
		return o.put(flat)
	}},
	{name: "BFOpenBytes", sig: "(IIIII)I", call: func(o *object, args []jvm.Value) float64 {
		s, size, ok := o.current()
		if !ok {
			return o.fail("java.lang.IllegalStateException: no file open")
		}
		x, y, w, h := arg(args, 1), arg(args, 2), arg(args, 3), arg(args, 4)
		if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > size.X || y+h > size.Y {
			return o.fail("java.lang.IllegalArgumentException: Invalid tile size: x=%d, y=%d, w=%d, h=%d", x, y, w, h)
		}
		need := w * h * BytesPerPixel(s.PixelType) * s.RGBChannelCount
		if need > len(o.buf) {
			o.saveError(fmt.Sprintf("Requested tile too big; must be at most %d bytes but wanted %d", len(o.buf), need))
			return -2
		}
		return float64(render(o.buf, s, x, y, w, h, 1))
	}},
	{name: "BFOpenThumbBytes", sig: "(III)I", call: func(o *object, args []jvm.Value) float64 {
		s, _, ok := o.current()
		if !ok {
			return o.fail("java.lang.IllegalStateException: no file open")
		}
		w, h := arg(args, 1), arg(args, 2)
		if w <= 0 || h <= 0 {
			return o.fail("java.lang.IllegalArgumentException: thumbnail %dx%d", w, h)
		}
		o.res = len(s.Resolutions) - 1
		lowest := s.Resolutions[o.res]
		scale := max((lowest.X+w-1)/w, (lowest.Y+h-1)/h, 1)
		need := w * h * BytesPerPixel(s.PixelType) * s.RGBChannelCount
		if need > len(o.buf) {
			return o.fail("java.nio.BufferOverflowException")
		}
		return float64(render(o.buf, s, 0, 0, w, h, scale))
	}},
	{name: "BFGetMPPX", sig: "(I)D", call: mpp(0)},
	{name: "BFGetMPPY", sig: "(I)D", call: mpp(1)},
	{name: "BFGetMPPZ", sig: "(I)D", call: mpp(2)},
	{name: "BFDumpOMEXMLMetadata", sig: "()I", call: func(o *object, args []jvm.Value) float64 {
		if o.open == nil {
			return o.put([]byte(`<?xml version="1.0"?><OME/>`))
		}
		if len(o.open.OMEXML) > len(o.buf) {
			o.saveError(fmt.Sprintf("BFDumpOMEXMLMetadata: needed buffer of length at least %d but current buffer is of length %d",
				len(o.open.OMEXML), len(o.buf)))
			return -2
		}
		return o.put([]byte(o.open.OMEXML))
	}},
}

func mpp(axis int) func(o *object, args []jvm.Value) float64 {
	return func(o *object, args []jvm.Value) float64 {
		n := arg(args, 0)
		if o.open == nil || n < 0 || n >= len(o.open.Series) {
			o.saveError(fmt.Sprintf("java.lang.IndexOutOfBoundsException: series %d", n))
			return -1
		}
		v := o.open.Series[n].MPP[axis]
		if math.IsNaN(v) {
			return 0
		}
		return v
	}
}

// render writes interleaved samples for the tile. Multi-byte samples repeat
// the 8-bit pattern value in the low byte.
func render(dst []byte, s *Series, x, y, w, h, scale int) int {
	bpp := BytesPerPixel(s.PixelType)
	channels := max(s.RGBChannelCount, 1)
	n := 0
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			for c := 0; c < channels; c++ {
				v := Pixel((x+col)*scale, (y+row)*scale, c)
				clear(dst[n : n+bpp])
				if s.LittleEndian {
					dst[n] = v
				} else {
					dst[n+bpp-1] = v
				}
				n += bpp
			}
		}
	}
	return n
}
