package wasmtest

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/bfbridge/bridge"
)

// Results of the methods that take no argument.
var bridgeResults = map[string]int32{
	"BFGetErrorLength":       0,
	"BFIsAnyFileOpen":        1,
	"BFGetCurrentFile":       0,
	"BFGetUsedFiles":         0,
	"BFClose":                0,
	"BFGetSeriesCount":       1,
	"BFGetResolutionCount":   1,
	"BFGetSizeX":             1024,
	"BFGetSizeY":             768,
	"BFGetSizeC":             3,
	"BFGetSizeZ":             1,
	"BFGetSizeT":             1,
	"BFGetEffectiveSizeC":    1,
	"BFGetImageCount":        1,
	"BFGetDimensionOrder":    0,
	"BFIsOrderCertain":       1,
	"BFGetOptimalTileWidth":  256,
	"BFGetOptimalTileHeight": 256,
	"BFGetPixelType":         1,
	"BFGetBitsPerPixel":      8,
	"BFGetBytesPerPixel":     1,
	"BFGetRGBChannelCount":   3,
	"BFIsRGB":                1,
	"BFIsInterleaved":        1,
	"BFIsLittleEndian":       1,
	"BFIsIndexedColor":       0,
	"BFIsFalseColor":         0,
	"BFGet8BitLookupTable":   -1,
	"BFGet16BitLookupTable":  -1,
	"BFDumpOMEXMLMetadata":   0,
}

// Bridge builds a bridging class over a fixed 1024x768 8-bit RGB image
// with 0.25 micrometers per pixel. BFGetFormat writes "WASM" to the buffer,
// and pixel reads report w*h bytes without writing them. Without memory
// the class cannot take a communication buffer and BFGetFormat returns 0.
func Bridge(memory bool) []byte {
	format := binary.LittleEndian.Uint32([]byte("WASM"))
	mpp := binary.LittleEndian.AppendUint64([]byte{0x44}, math.Float64bits(0.25))

	var funcs []Func
	for _, m := range bridge.Methods() {
		name := m.Name()
		switch name {
		case "BFSetCommunicationBuffer":
			funcs = append(funcs, Func{name, TypeI32I32ToVoid, BodySetBuffer})
		case "BFIsCompatible", "BFIsSingleFile":
			// length > 0
			funcs = append(funcs, Func{name, TypeI32ToI32, []byte{0x20, 0x00, 0x41, 0x00, 0x4a, 0x0b}})
		case "BFOpen", "BFSetCurrentSeries", "BFSetCurrentResolution":
			funcs = append(funcs, Func{name, TypeI32ToI32, ReturnI32(1)})
		case "BFGetFormat":
			if !memory {
				funcs = append(funcs, Func{name, TypeVoidToI32, ReturnI32(0)})
				continue
			}
			body := []byte{0x23, 0x00, 0x41}
			body = append(body, SLEB128(int32(format))...)
			body = append(body, 0x36, 0x02, 0x00)
			funcs = append(funcs, Func{name, TypeVoidToI32, append(body, ReturnI32(4)...)})
		case "BFOpenBytes":
			// w * h
			funcs = append(funcs, Func{name, TypeI32x5ToI32, []byte{0x20, 0x03, 0x20, 0x04, 0x6c, 0x0b}})
		case "BFOpenThumbBytes":
			funcs = append(funcs, Func{name, TypeI32x3ToI32, []byte{0x20, 0x01, 0x20, 0x02, 0x6c, 0x0b}})
		case "BFGetMPPX", "BFGetMPPY", "BFGetMPPZ":
			funcs = append(funcs, Func{name, TypeI32ToF64, append(mpp, 0x0b)})
		default:
			funcs = append(funcs, Func{name, TypeVoidToI32, ReturnI32(bridgeResults[name])})
		}
	}
	return Assemble(memory, funcs)
}
