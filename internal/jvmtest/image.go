package jvmtest

// Pixel type codes as reported by the bridging class.
const (
	Int8 = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float
	Double
	Bit
)

// Size is a resolution level extent.
type Size struct {
	X, Y int
}

// Series is one independent image inside a file.
type Series struct {
	DimensionOrder  string
	Resolutions     []Size
	MPP             [3]float64
	SizeC           int
	SizeZ           int
	SizeT           int
	PixelType       int
	RGBChannelCount int
	TileWidth       int
	TileHeight      int
	Interleaved     bool
	LittleEndian    bool
	Indexed         bool
	FalseColor      bool
	OrderCertain    bool
}

// Image is a fake file the bridging class can open.
type Image struct {
	Path      string
	Format    string
	OMEXML    string
	UsedFiles []string
	Series    []Series
	LUT8      [][]byte
	LUT16     [][]uint16
	// Grouped marks multi-file formats, which are not single-file.
	Grouped bool
}

// NewImage returns an 8-bit RGB image with three resolution levels.
func NewImage(path string) *Image {
	return &Image{
		Path:      path,
		Format:    "Tagged Image File Format",
		OMEXML:    `<?xml version="1.0"?><OME><Image ID="Image:0"/></OME>`,
		UsedFiles: []string{path},
		Series: []Series{{
			DimensionOrder:  "XYCZT",
			Resolutions:     []Size{{1024, 768}, {512, 384}, {256, 192}},
			MPP:             [3]float64{0.25, 0.25, 0},
			SizeC:           3,
			SizeZ:           1,
			SizeT:           1,
			PixelType:       Uint8,
			RGBChannelCount: 3,
			TileWidth:       256,
			TileHeight:      256,
			Interleaved:     true,
			LittleEndian:    true,
			OrderCertain:    true,
		}},
	}
}

// Pixel returns the sample the fake produces at (x, y) for channel c.
func Pixel(x, y, c int) byte {
	return byte(x + 2*y + 3*c)
}

// BytesPerPixel returns the sample size of a pixel type.
func BytesPerPixel(pixelType int) int {
	switch pixelType {
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Double:
		return 8
	}
	return 1
}
