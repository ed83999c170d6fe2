package reader

import (
	"bytes"
	"encoding/binary"
	"image"
	"math"
	"strings"

	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/imaging"
)

const (
	lut8Row  = 256
	lut16Row = 65536
)

// Reader wraps a bridge.Bridge and tracks the series and resolution it
// selected.
type Reader struct {
	b          bridge.Bridge
	series     int
	resolution int
}

// New returns a Reader over b.
func New(b bridge.Bridge) *Reader {
	return &Reader{b: b}
}

// Bridge returns the underlying bridge.
func (r *Reader) Bridge() bridge.Bridge {
	return r.b
}

// Series returns the series selected through this Reader.
func (r *Reader) Series() int { return r.series }

// Resolution returns the resolution level selected through this Reader.
func (r *Reader) Resolution() int { return r.resolution }

// fail reads the error text the failing call left in the buffer.
func (r *Reader) fail(m bridge.Method, rc int32) error {
	text := r.b.ErrorString()
	if rc == -2 {
		return errors.TooLarge(m.Name(), text)
	}
	return errors.Remote(m.Name(), text)
}

func (r *Reader) count(m bridge.Method, rc int32) (int, error) {
	if rc < 0 {
		return 0, r.fail(m, rc)
	}
	return int(rc), nil
}

func (r *Reader) boolean(m bridge.Method, rc int32) (bool, error) {
	switch {
	case rc == 1:
		return true, nil
	case rc == 0:
		return false, nil
	case rc < 0:
		return false, r.fail(m, rc)
	}
	return false, errors.New(errors.PhaseCall, errors.KindInvalidData).
		Name(m.Name()).
		Detail("expected 0 or 1, got %d", rc).
		Build()
}

// window returns the first rc bytes of the buffer without copying.
func (r *Reader) window(m bridge.Method, rc int32) ([]byte, error) {
	n, err := r.count(m, rc)
	if err != nil {
		return nil, err
	}
	data := r.b.Buffer().Bytes()
	if n > len(data) {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidData).
			Name(m.Name()).
			Detail("reported %d bytes but the buffer holds %d", n, len(data)).
			Build()
	}
	return data[:n], nil
}

func (r *Reader) text(m bridge.Method, rc int32) (string, error) {
	data, err := r.window(m, rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Reader) bytes(m bridge.Method, rc int32) ([]byte, error) {
	data, err := r.window(m, rc)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func (r *Reader) withInput(m bridge.Method, rc int32, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	return r.boolean(m, rc)
}

// IsCompatible reports whether a reader exists for path. Any open file is
// closed.
func (r *Reader) IsCompatible(path string) (bool, error) {
	rc, err := r.b.IsCompatible(path)
	if err == nil {
		r.reset()
	}
	return r.withInput(bridge.BFIsCompatible, rc, err)
}

// IsSingleFile reports whether path is the only file of its dataset. Any
// open file is closed.
func (r *Reader) IsSingleFile(path string) (bool, error) {
	rc, err := r.b.IsSingleFile(path)
	if err == nil {
		r.reset()
	}
	return r.withInput(bridge.BFIsSingleFile, rc, err)
}

func (r *Reader) IsAnyFileOpen() (bool, error) {
	return r.boolean(bridge.BFIsAnyFileOpen, r.b.IsAnyFileOpen())
}

// Open opens path at series 0, resolution 0.
func (r *Reader) Open(path string) error {
	rc, err := r.b.Open(path)
	if err == nil {
		r.reset()
	}
	ok, err := r.withInput(bridge.BFOpen, rc, err)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.PhaseCall, errors.KindRemote).
			Name(bridge.BFOpen.Name()).
			Detail("%s was not opened", path).
			Build()
	}
	return nil
}

// Close closes the open file. Closing with nothing open succeeds.
func (r *Reader) Close() error {
	_, err := r.count(bridge.BFClose, r.b.CloseImage())
	r.reset()
	return err
}

func (r *Reader) reset() {
	r.series = 0
	r.resolution = 0
}

// Format returns the name of the format of the open file.
func (r *Reader) Format() (string, error) {
	return r.text(bridge.BFGetFormat, r.b.Format())
}

// CurrentFile returns the open path, or "" when nothing is open.
func (r *Reader) CurrentFile() (string, error) {
	return r.text(bridge.BFGetCurrentFile, r.b.CurrentFile())
}

// UsedFiles lists every file that makes up the open dataset.
func (r *Reader) UsedFiles() ([]string, error) {
	s, err := r.text(bridge.BFGetUsedFiles, r.b.UsedFiles())
	if err != nil || s == "" {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(s, "\x00"), "\x00"), nil
}

func (r *Reader) SeriesCount() (int, error) {
	return r.count(bridge.BFGetSeriesCount, r.b.SeriesCount())
}

// SetSeries selects a series and resets the resolution to 0.
func (r *Reader) SetSeries(series int) error {
	if _, err := r.count(bridge.BFSetCurrentSeries, r.b.SetCurrentSeries(int32(series))); err != nil {
		return err
	}
	r.series = series
	r.resolution = 0
	return nil
}

func (r *Reader) ResolutionCount() (int, error) {
	return r.count(bridge.BFGetResolutionCount, r.b.ResolutionCount())
}

// SetResolution selects a resolution level of the current series, 0 being
// the largest.
func (r *Reader) SetResolution(level int) error {
	if _, err := r.count(bridge.BFSetCurrentResolution, r.b.SetCurrentResolution(int32(level))); err != nil {
		return err
	}
	r.resolution = level
	return nil
}

func (r *Reader) SizeX() (int, error) { return r.count(bridge.BFGetSizeX, r.b.SizeX()) }
func (r *Reader) SizeY() (int, error) { return r.count(bridge.BFGetSizeY, r.b.SizeY()) }
func (r *Reader) SizeC() (int, error) { return r.count(bridge.BFGetSizeC, r.b.SizeC()) }
func (r *Reader) SizeZ() (int, error) { return r.count(bridge.BFGetSizeZ, r.b.SizeZ()) }
func (r *Reader) SizeT() (int, error) { return r.count(bridge.BFGetSizeT, r.b.SizeT()) }

// Size returns the width and height of the current resolution.
func (r *Reader) Size() (w, h int, err error) {
	if w, err = r.SizeX(); err != nil {
		return 0, 0, err
	}
	if h, err = r.SizeY(); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func (r *Reader) EffectiveSizeC() (int, error) {
	return r.count(bridge.BFGetEffectiveSizeC, r.b.EffectiveSizeC())
}

func (r *Reader) ImageCount() (int, error) {
	return r.count(bridge.BFGetImageCount, r.b.ImageCount())
}

// DimensionOrder returns the plane order, such as "XYCZT".
func (r *Reader) DimensionOrder() (string, error) {
	return r.text(bridge.BFGetDimensionOrder, r.b.DimensionOrder())
}

func (r *Reader) IsOrderCertain() (bool, error) {
	return r.boolean(bridge.BFIsOrderCertain, r.b.IsOrderCertain())
}

// OptimalTileSize returns the tile extent the format reads most efficiently.
func (r *Reader) OptimalTileSize() (w, h int, err error) {
	if w, err = r.count(bridge.BFGetOptimalTileWidth, r.b.OptimalTileWidth()); err != nil {
		return 0, 0, err
	}
	if h, err = r.count(bridge.BFGetOptimalTileHeight, r.b.OptimalTileHeight()); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func (r *Reader) PixelType() (imaging.PixelType, error) {
	n, err := r.count(bridge.BFGetPixelType, r.b.PixelType())
	return imaging.PixelType(n), err
}

func (r *Reader) BitsPerPixel() (int, error) {
	return r.count(bridge.BFGetBitsPerPixel, r.b.BitsPerPixel())
}

func (r *Reader) BytesPerPixel() (int, error) {
	return r.count(bridge.BFGetBytesPerPixel, r.b.BytesPerPixel())
}

// RGBChannelCount returns the samples stored per pixel.
func (r *Reader) RGBChannelCount() (int, error) {
	return r.count(bridge.BFGetRGBChannelCount, r.b.RGBChannelCount())
}

func (r *Reader) IsRGB() (bool, error) {
	return r.boolean(bridge.BFIsRGB, r.b.IsRGB())
}

func (r *Reader) IsInterleaved() (bool, error) {
	return r.boolean(bridge.BFIsInterleaved, r.b.IsInterleaved())
}

func (r *Reader) IsLittleEndian() (bool, error) {
	return r.boolean(bridge.BFIsLittleEndian, r.b.IsLittleEndian())
}

func (r *Reader) IsIndexedColor() (bool, error) {
	return r.boolean(bridge.BFIsIndexedColor, r.b.IsIndexedColor())
}

func (r *Reader) IsFalseColor() (bool, error) {
	return r.boolean(bridge.BFIsFalseColor, r.b.IsFalseColor())
}

// LookupTable8 returns the 8-bit lookup table, one row per channel.
func (r *Reader) LookupTable8() ([][lut8Row]byte, error) {
	m := bridge.BFGet8BitLookupTable
	data, err := r.window(m, r.b.LookupTable8())
	if err != nil {
		return nil, err
	}
	if len(data)%lut8Row != 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Name(m.Name()).
			Detail("%d bytes is not a whole number of %d byte rows", len(data), lut8Row).
			Build()
	}
	table := make([][lut8Row]byte, len(data)/lut8Row)
	for i := range table {
		copy(table[i][:], data[i*lut8Row:])
	}
	return table, nil
}

// LookupTable16 returns the 16-bit lookup table, one row of 65536 values
// per channel.
func (r *Reader) LookupTable16() ([][]uint16, error) {
	m := bridge.BFGet16BitLookupTable
	data, err := r.window(m, r.b.LookupTable16())
	if err != nil {
		return nil, err
	}
	const rowBytes = 2 * lut16Row
	if len(data)%rowBytes != 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Name(m.Name()).
			Detail("%d bytes is not a whole number of %d byte rows", len(data), rowBytes).
			Build()
	}
	table := make([][]uint16, len(data)/rowBytes)
	for i := range table {
		row := make([]uint16, lut16Row)
		src := data[i*rowBytes:]
		for j := range row {
			row[j] = binary.LittleEndian.Uint16(src[2*j:])
		}
		table[i] = row
	}
	return table, nil
}

// OpenBytes returns a copy of the raw pixels of a region of the current
// resolution.
func (r *Reader) OpenBytes(plane, x, y, w, h int) ([]byte, error) {
	rc := r.b.OpenBytes(int32(plane), int32(x), int32(y), int32(w), int32(h))
	return r.bytes(bridge.BFOpenBytes, rc)
}

// OpenThumbBytes returns a copy of a w by h thumbnail. The bridging class
// switches to the lowest resolution while producing it.
func (r *Reader) OpenThumbBytes(plane, w, h int) ([]byte, error) {
	data, err := r.bytes(bridge.BFOpenThumbBytes, r.b.OpenThumbBytes(int32(plane), int32(w), int32(h)))
	if err != nil {
		return nil, err
	}
	if n, err := r.ResolutionCount(); err == nil && n > 0 {
		r.resolution = n - 1
	}
	return data, nil
}

// ThumbnailSize fits the current resolution's aspect ratio into maxW by
// maxH. The result never exceeds the image itself.
func (r *Reader) ThumbnailSize(maxW, maxH int) (w, h int, err error) {
	imgW, imgH, err := r.Size()
	if err != nil {
		return 0, 0, err
	}
	w, h = FitThumbnail(imgW, imgH, maxW, maxH)
	return w, h, nil
}

// FitThumbnail returns the largest extent within maxW by maxH that keeps
// the imgW:imgH ratio, clamped to the image extent.
func FitThumbnail(imgW, imgH, maxW, maxH int) (w, h int) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0
	}
	ratio := float64(imgH) / float64(imgW)
	w = min(maxW, int(math.RoundToEven(float64(maxH)/ratio)))
	h = min(maxH, int(math.RoundToEven(float64(maxW)*ratio)))
	if w > imgW || h > imgH {
		return imgW, imgH
	}
	return max(w, 1), max(h, 1)
}

// Layout describes a w by h region of the current series.
func (r *Reader) Layout(w, h int) (imaging.Layout, error) {
	l := imaging.Layout{Width: w, Height: h}
	var err error
	if l.Channels, err = r.RGBChannelCount(); err != nil {
		return l, err
	}
	if l.Interleaved, err = r.IsInterleaved(); err != nil {
		return l, err
	}
	if l.PixelType, err = r.PixelType(); err != nil {
		return l, err
	}
	if l.LittleEndian, err = r.IsLittleEndian(); err != nil {
		return l, err
	}
	return l, nil
}

// Tile reads a region of the current resolution and decodes it.
func (r *Reader) Tile(plane, x, y, w, h int) (image.Image, error) {
	layout, err := r.Layout(w, h)
	if err != nil {
		return nil, err
	}
	raw, err := r.OpenBytes(plane, x, y, w, h)
	if err != nil {
		return nil, err
	}
	return imaging.Decode(raw, layout)
}

// Thumbnail reads a thumbnail fitting maxW by maxH and decodes it.
func (r *Reader) Thumbnail(plane, maxW, maxH int) (image.Image, error) {
	w, h, err := r.ThumbnailSize(maxW, maxH)
	if err != nil {
		return nil, err
	}
	layout, err := r.Layout(w, h)
	if err != nil {
		return nil, err
	}
	layout.PixelType = imaging.ThumbnailPixelType(layout.PixelType)
	raw, err := r.OpenThumbBytes(plane, w, h)
	if err != nil {
		return nil, err
	}
	return imaging.Decode(raw, layout)
}

func (r *Reader) mpp(m bridge.Method, v float64) (float64, error) {
	if v < 0 {
		return 0, r.fail(m, -1)
	}
	return v, nil
}

// MPPX returns micrometers per pixel along X for series, 0 when unknown.
func (r *Reader) MPPX(series int) (float64, error) {
	return r.mpp(bridge.BFGetMPPX, r.b.MPPX(int32(series)))
}

func (r *Reader) MPPY(series int) (float64, error) {
	return r.mpp(bridge.BFGetMPPY, r.b.MPPY(int32(series)))
}

func (r *Reader) MPPZ(series int) (float64, error) {
	return r.mpp(bridge.BFGetMPPZ, r.b.MPPZ(int32(series)))
}

// OMEXMLMetadata returns the OME-XML document describing the open file.
func (r *Reader) OMEXMLMetadata() (string, error) {
	return r.text(bridge.BFDumpOMEXMLMetadata, r.b.DumpOMEXMLMetadata())
}
