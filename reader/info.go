package reader

import "github.com/wippyai/bfbridge/imaging"

// Info is a snapshot of the open file at the selected series and resolution.
type Info struct {
	File            string            `json:"file"`
	Format          string            `json:"format"`
	UsedFiles       []string          `json:"usedFiles"`
	SeriesCount     int               `json:"seriesCount"`
	Series          int               `json:"series"`
	ResolutionCount int               `json:"resolutionCount"`
	Resolution      int               `json:"resolution"`
	SizeX           int               `json:"sizeX"`
	SizeY           int               `json:"sizeY"`
	SizeC           int               `json:"sizeC"`
	SizeZ           int               `json:"sizeZ"`
	SizeT           int               `json:"sizeT"`
	EffectiveSizeC  int               `json:"effectiveSizeC"`
	ImageCount      int               `json:"imageCount"`
	DimensionOrder  string            `json:"dimensionOrder"`
	OrderCertain    bool              `json:"orderCertain"`
	TileWidth       int               `json:"tileWidth"`
	TileHeight      int               `json:"tileHeight"`
	PixelType       imaging.PixelType `json:"pixelType"`
	BitsPerPixel    int               `json:"bitsPerPixel"`
	BytesPerPixel   int               `json:"bytesPerPixel"`
	RGBChannelCount int               `json:"rgbChannelCount"`
	RGB             bool              `json:"rgb"`
	Interleaved     bool              `json:"interleaved"`
	LittleEndian    bool              `json:"littleEndian"`
	IndexedColor    bool              `json:"indexedColor"`
	FalseColor      bool              `json:"falseColor"`
	MPP             [3]float64        `json:"mpp"`
}

// collector keeps the first error of a sequence of calls.
type collector struct {
	err error
}

func (c *collector) keep(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

func (c *collector) num(v int, err error) int {
	c.keep(err)
	return v
}

func (c *collector) flag(v bool, err error) bool {
	c.keep(err)
	return v
}

func (c *collector) text(v string, err error) string {
	c.keep(err)
	return v
}

func (c *collector) real(v float64, err error) float64 {
	c.keep(err)
	return v
}

// Info gathers every property of the open file and returns the first error
// any of the calls reported.
func (r *Reader) Info() (*Info, error) {
	var c collector
	info := &Info{
		File:       c.text(r.CurrentFile()),
		Format:     c.text(r.Format()),
		Series:     r.series,
		Resolution: r.resolution,
	}
	files, err := r.UsedFiles()
	c.keep(err)
	info.UsedFiles = files
	info.SeriesCount = c.num(r.SeriesCount())
	info.ResolutionCount = c.num(r.ResolutionCount())
	info.SizeX = c.num(r.SizeX())
	info.SizeY = c.num(r.SizeY())
	info.SizeC = c.num(r.SizeC())
	info.SizeZ = c.num(r.SizeZ())
	info.SizeT = c.num(r.SizeT())
	info.EffectiveSizeC = c.num(r.EffectiveSizeC())
	info.ImageCount = c.num(r.ImageCount())
	info.DimensionOrder = c.text(r.DimensionOrder())
	info.OrderCertain = c.flag(r.IsOrderCertain())
	w, h, err := r.OptimalTileSize()
	c.keep(err)
	info.TileWidth, info.TileHeight = w, h
	pt, err := r.PixelType()
	c.keep(err)
	info.PixelType = pt
	info.BitsPerPixel = c.num(r.BitsPerPixel())
	info.BytesPerPixel = c.num(r.BytesPerPixel())
	info.RGBChannelCount = c.num(r.RGBChannelCount())
	info.RGB = c.flag(r.IsRGB())
	info.Interleaved = c.flag(r.IsInterleaved())
	info.LittleEndian = c.flag(r.IsLittleEndian())
	info.IndexedColor = c.flag(r.IsIndexedColor())
	info.FalseColor = c.flag(r.IsFalseColor())
	info.MPP = [3]float64{
		c.real(r.MPPX(r.series)),
		c.real(r.MPPY(r.series)),
		c.real(r.MPPZ(r.series)),
	}
	if c.err != nil {
		return nil, c.err
	}
	return info, nil
}
