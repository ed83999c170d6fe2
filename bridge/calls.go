package bridge

import (
	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/jvm"
)

// Calls on a null or closed Instance return -1 without reaching the runtime.

func (i *Instance) usable() bool {
	return i != nil && i.obj != 0 && !i.att.st.closed.Load()
}

func (i *Instance) callInt(m Method, args ...jvm.Value) int32 {
	if !i.usable() {
		return -1
	}
	env := i.att.env
	v := env.CallIntMethod(i.obj, i.table.ID(m), args...)
	describeException(env, m.Name())
	return v
}

func (i *Instance) callDouble(m Method, args ...jvm.Value) float64 {
	if !i.usable() {
		return -1
	}
	env := i.att.env
	v := env.CallDoubleMethod(i.obj, i.table.ID(m), args...)
	describeException(env, m.Name())
	return v
}

// callWithInput copies input to the start of the buffer and passes its length.
func (i *Instance) callWithInput(m Method, input string) (int32, error) {
	if !i.usable() {
		return -1, errors.NotInitialized(errors.PhaseCall, "Instance")
	}
	if len(input) > i.buf.Len() {
		return -1, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Name(m.Name()).
			Detail("input of %d bytes does not fit the %d byte communication buffer", len(input), i.buf.Len()).
			Build()
	}
	copy(i.buf.Bytes(), input)
	return i.callInt(m, jvm.Int(int32(len(input)))), nil
}

// ErrorLength returns the number of bytes of error text the last failing
// call left in the buffer.
func (i *Instance) ErrorLength() int32 {
	return i.callInt(BFGetErrorLength)
}

// ErrorString terminates the buffer after the pending error text and returns
// it. Only meaningful right after a call reported failure.
func (i *Instance) ErrorString() string {
	n := i.ErrorLength()
	if n < 0 || i.buf == nil {
		return ""
	}
	return i.buf.CString(int(n))
}

// IsCompatible reports 1 when a reader exists for path, 0 when not. It
// closes any open file.
func (i *Instance) IsCompatible(path string) (int32, error) {
	return i.callWithInput(BFIsCompatible, path)
}

// IsAnyFileOpen returns 1 when a file is open.
func (i *Instance) IsAnyFileOpen() int32 {
	return i.callInt(BFIsAnyFileOpen)
}

// Open opens path, closing any open file. It returns 1 on success.
func (i *Instance) Open(path string) (int32, error) {
	return i.callWithInput(BFOpen, path)
}

// Format writes the format name to the buffer and returns its length.
func (i *Instance) Format() int32 {
	return i.callInt(BFGetFormat)
}

// IsSingleFile returns 1 when path is expected to be the only file of its
// dataset. It closes any open file.
func (i *Instance) IsSingleFile(path string) (int32, error) {
	return i.callWithInput(BFIsSingleFile, path)
}

// CurrentFile writes the open file path to the buffer and returns its
// length, or 0 when nothing is open.
func (i *Instance) CurrentFile() int32 {
	return i.callInt(BFGetCurrentFile)
}

// UsedFiles writes the NUL-terminated paths of every file of the dataset
// and returns the total byte count including terminators.
func (i *Instance) UsedFiles() int32 {
	return i.callInt(BFGetUsedFiles)
}

// CloseImage closes the open file. It returns 1 on success.
func (i *Instance) CloseImage() int32 {
	return i.callInt(BFClose)
}

// SeriesCount returns the number of independent images in the file.
func (i *Instance) SeriesCount() int32 {
	return i.callInt(BFGetSeriesCount)
}

// SetCurrentSeries selects a series and resets the resolution to 0.
func (i *Instance) SetCurrentSeries(series int32) int32 {
	return i.callInt(BFSetCurrentSeries, jvm.Int(series))
}

// ResolutionCount returns the resolution levels of the current series.
func (i *Instance) ResolutionCount() int32 {
	return i.callInt(BFGetResolutionCount)
}

// SetCurrentResolution selects a resolution level, 0 being the largest.
func (i *Instance) SetCurrentResolution(level int32) int32 {
	return i.callInt(BFSetCurrentResolution, jvm.Int(level))
}

func (i *Instance) SizeX() int32          { return i.callInt(BFGetSizeX) }
func (i *Instance) SizeY() int32          { return i.callInt(BFGetSizeY) }
func (i *Instance) SizeC() int32          { return i.callInt(BFGetSizeC) }
func (i *Instance) SizeZ() int32          { return i.callInt(BFGetSizeZ) }
func (i *Instance) SizeT() int32          { return i.callInt(BFGetSizeT) }
func (i *Instance) EffectiveSizeC() int32 { return i.callInt(BFGetEffectiveSizeC) }
func (i *Instance) ImageCount() int32     { return i.callInt(BFGetImageCount) }

// DimensionOrder writes the dimension order, such as "XYCZT", to the buffer
// and returns its length.
func (i *Instance) DimensionOrder() int32 {
	return i.callInt(BFGetDimensionOrder)
}

func (i *Instance) IsOrderCertain() int32    { return i.callInt(BFIsOrderCertain) }
func (i *Instance) OptimalTileWidth() int32  { return i.callInt(BFGetOptimalTileWidth) }
func (i *Instance) OptimalTileHeight() int32 { return i.callInt(BFGetOptimalTileHeight) }
func (i *Instance) PixelType() int32         { return i.callInt(BFGetPixelType) }
func (i *Instance) BitsPerPixel() int32      { return i.callInt(BFGetBitsPerPixel) }
func (i *Instance) BytesPerPixel() int32     { return i.callInt(BFGetBytesPerPixel) }
func (i *Instance) RGBChannelCount() int32   { return i.callInt(BFGetRGBChannelCount) }
func (i *Instance) IsRGB() int32             { return i.callInt(BFIsRGB) }
func (i *Instance) IsInterleaved() int32     { return i.callInt(BFIsInterleaved) }
func (i *Instance) IsLittleEndian() int32    { return i.callInt(BFIsLittleEndian) }
func (i *Instance) IsIndexedColor() int32    { return i.callInt(BFIsIndexedColor) }
func (i *Instance) IsFalseColor() int32      { return i.callInt(BFIsFalseColor) }

// LookupTable8 writes the 8-bit lookup table rows of 256 bytes each and
// returns the byte count.
func (i *Instance) LookupTable8() int32 {
	return i.callInt(BFGet8BitLookupTable)
}

// LookupTable16 writes the 16-bit lookup table rows of 65536 little-endian
// values each and returns the byte count.
func (i *Instance) LookupTable16() int32 {
	return i.callInt(BFGet16BitLookupTable)
}

// OpenBytes writes the pixels of a region of the current resolution and
// returns the byte count. It returns -2 when the region cannot fit the
// buffer.
func (i *Instance) OpenBytes(plane, x, y, w, h int32) int32 {
	return i.callInt(BFOpenBytes, jvm.Int(plane), jvm.Int(x), jvm.Int(y), jvm.Int(w), jvm.Int(h))
}

// OpenThumbBytes writes a w by h thumbnail and returns the byte count. It
// switches to the lowest resolution.
func (i *Instance) OpenThumbBytes(plane, w, h int32) int32 {
	return i.callInt(BFOpenThumbBytes, jvm.Int(plane), jvm.Int(w), jvm.Int(h))
}

// MPPX returns micrometers per pixel along X for series, 0 when unknown and
// negative on failure.
func (i *Instance) MPPX(series int32) float64 { return i.callDouble(BFGetMPPX, jvm.Int(series)) }
func (i *Instance) MPPY(series int32) float64 { return i.callDouble(BFGetMPPY, jvm.Int(series)) }
func (i *Instance) MPPZ(series int32) float64 { return i.callDouble(BFGetMPPZ, jvm.Int(series)) }

// DumpOMEXMLMetadata writes the OME-XML metadata to the buffer and returns
// its length.
func (i *Instance) DumpOMEXMLMetadata() int32 {
	return i.callInt(BFDumpOMEXMLMetadata)
}
