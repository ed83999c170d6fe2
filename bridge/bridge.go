package bridge

import "github.com/wippyai/bfbridge"

// Bridge is the call surface of one bridging object. *Instance implements it;
// higher layers depend on Bridge so they can run over any implementation.
type Bridge interface {
	Buffer() *bfbridge.Buffer
	ErrorLength() int32
	ErrorString() string

	IsCompatible(path string) (int32, error)
	IsAnyFileOpen() int32
	Open(path string) (int32, error)
	Format() int32
	IsSingleFile(path string) (int32, error)
	CurrentFile() int32
	UsedFiles() int32
	CloseImage() int32

	SeriesCount() int32
	SetCurrentSeries(series int32) int32
	ResolutionCount() int32
	SetCurrentResolution(level int32) int32

	SizeX() int32
	SizeY() int32
	SizeC() int32
	SizeZ() int32
	SizeT() int32
	EffectiveSizeC() int32
	ImageCount() int32
	DimensionOrder() int32
	IsOrderCertain() int32
	OptimalTileWidth() int32
	OptimalTileHeight() int32

	PixelType() int32
	BitsPerPixel() int32
	BytesPerPixel() int32
	RGBChannelCount() int32
	IsRGB() int32
	IsInterleaved() int32
	IsLittleEndian() int32
	IsIndexedColor() int32
	IsFalseColor() int32
	LookupTable8() int32
	LookupTable16() int32

	OpenBytes(plane, x, y, w, h int32) int32
	OpenThumbBytes(plane, w, h int32) int32

	MPPX(series int32) float64
	MPPY(series int32) float64
	MPPZ(series int32) float64

	DumpOMEXMLMetadata() int32
}

var _ Bridge = (*Instance)(nil)
