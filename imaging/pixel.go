package imaging

import "strconv"

// PixelType is the sample type code reported by the bridging class.
type PixelType int

const (
	Int8 PixelType = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float
	Double
	Bit
)

var pixelTypeNames = [...]string{
	Int8:   "int8",
	Uint8:  "uint8",
	Int16:  "int16",
	Uint16: "uint16",
	Int32:  "int32",
	Uint32: "uint32",
	Float:  "float",
	Double: "double",
	Bit:    "bit",
}

func (p PixelType) String() string {
	if p.Valid() {
		return pixelTypeNames[p]
	}
	return "pixeltype(" + strconv.Itoa(int(p)) + ")"
}

// MarshalText encodes p by name.
func (p PixelType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Valid reports whether p is a known pixel type.
func (p PixelType) Valid() bool {
	return p >= Int8 && p <= Bit
}

// Signed reports whether p is a signed integer type.
func (p PixelType) Signed() bool {
	return p == Int8 || p == Int16 || p == Int32
}

// BytesPerSample returns the storage size of one sample. Bit samples occupy
// a whole byte each.
func (p PixelType) BytesPerSample() int {
	switch p {
	case Int8, Uint8, Bit:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Double:
		return 8
	}
	return 0
}

// ThumbnailPixelType returns the type thumbnails are delivered in. The
// reader library never produces signed thumbnails, so signed integer types
// map to their unsigned counterpart.
func ThumbnailPixelType(p PixelType) PixelType {
	if p.Signed() {
		return p + 1
	}
	return p
}
