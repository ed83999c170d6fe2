package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/bfbridge/bridge"
)

// maxShown bounds how much buffer text a result displays.
const maxShown = 2048

// operation is one bridge method callable from the interactive mode.
type operation struct {
	method bridge.Method
	params []string
	run    func(b bridge.Bridge, args []string) (string, error)
}

// textResults leave that many bytes of text in the buffer on success.
var textResults = map[bridge.Method]bool{
	bridge.BFGetFormat:          true,
	bridge.BFGetCurrentFile:     true,
	bridge.BFGetUsedFiles:       true,
	bridge.BFGetDimensionOrder:  true,
	bridge.BFDumpOMEXMLMetadata: true,
}

func describe(b bridge.Bridge, m bridge.Method, rc int32) string {
	switch {
	case rc < 0:
		return fmt.Sprintf("%d: %s", rc, b.ErrorString())
	case textResults[m]:
		text := b.Buffer().CString(int(rc))
		if len(text) > maxShown {
			text = text[:maxShown] + "..."
		}
		return fmt.Sprintf("%d %q", rc, text)
	}
	return strconv.Itoa(int(rc))
}

func parseArgs(names, args []string) ([]int32, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(names), len(args))
	}
	vals := make([]int32, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(strings.TrimSpace(a), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a 32-bit integer", names[i], a)
		}
		vals[i] = int32(v)
	}
	return vals, nil
}

func noArgs(m bridge.Method, fn func(bridge.Bridge) int32) operation {
	return operation{method: m, run: func(b bridge.Bridge, _ []string) (string, error) {
		return describe(b, m, fn(b)), nil
	}}
}

func intArgs(m bridge.Method, names []string, fn func(bridge.Bridge, []int32) int32) operation {
	return operation{method: m, params: names, run: func(b bridge.Bridge, args []string) (string, error) {
		vals, err := parseArgs(names, args)
		if err != nil {
			return "", err
		}
		return describe(b, m, fn(b, vals)), nil
	}}
}

func oneInt(m bridge.Method, name string, fn func(bridge.Bridge, int32) int32) operation {
	return intArgs(m, []string{name}, func(b bridge.Bridge, v []int32) int32 { return fn(b, v[0]) })
}

func pathArg(m bridge.Method, fn func(bridge.Bridge, string) (int32, error)) operation {
	return operation{method: m, params: []string{"path"}, run: func(b bridge.Bridge, args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected a path")
		}
		rc, err := fn(b, args[0])
		if err != nil {
			return "", err
		}
		return describe(b, m, rc), nil
	}}
}

func realArg(m bridge.Method, fn func(bridge.Bridge, int32) float64) operation {
	names := []string{"series"}
	return operation{method: m, params: names, run: func(b bridge.Bridge, args []string) (string, error) {
		vals, err := parseArgs(names, args)
		if err != nil {
			return "", err
		}
		v := fn(b, vals[0])
		if v < 0 {
			return fmt.Sprintf("%g: %s", v, b.ErrorString()), nil
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}}
}

// operations lists every method except the buffer setter, which runs when
// an instance is created.
func operations() []operation {
	return []operation{
		noArgs(bridge.BFGetErrorLength, bridge.Bridge.ErrorLength),
		pathArg(bridge.BFIsCompatible, bridge.Bridge.IsCompatible),
		noArgs(bridge.BFIsAnyFileOpen, bridge.Bridge.IsAnyFileOpen),
		pathArg(bridge.BFOpen, bridge.Bridge.Open),
		noArgs(bridge.BFGetFormat, bridge.Bridge.Format),
		pathArg(bridge.BFIsSingleFile, bridge.Bridge.IsSingleFile),
		noArgs(bridge.BFGetCurrentFile, bridge.Bridge.CurrentFile),
		noArgs(bridge.BFGetUsedFiles, bridge.Bridge.UsedFiles),
		noArgs(bridge.BFClose, bridge.Bridge.CloseImage),
		noArgs(bridge.BFGetSeriesCount, bridge.Bridge.SeriesCount),
		oneInt(bridge.BFSetCurrentSeries, "series", bridge.Bridge.SetCurrentSeries),
		noArgs(bridge.BFGetResolutionCount, bridge.Bridge.ResolutionCount),
		oneInt(bridge.BFSetCurrentResolution, "level", bridge.Bridge.SetCurrentResolution),
		noArgs(bridge.BFGetSizeX, bridge.Bridge.SizeX),
		noArgs(bridge.BFGetSizeY, bridge.Bridge.SizeY),
		noArgs(bridge.BFGetSizeC, bridge.Bridge.SizeC),
		noArgs(bridge.BFGetSizeZ, bridge.Bridge.SizeZ),
		noArgs(bridge.BFGetSizeT, bridge.Bridge.SizeT),
		noArgs(bridge.BFGetEffectiveSizeC, bridge.Bridge.EffectiveSizeC),
		noArgs(bridge.BFGetImageCount, bridge.Bridge.ImageCount),
		noArgs(bridge.BFGetDimensionOrder, bridge.Bridge.DimensionOrder),
		noArgs(bridge.BFIsOrderCertain, bridge.Bridge.IsOrderCertain),
		noArgs(bridge.BFGetOptimalTileWidth, bridge.Bridge.OptimalTileWidth),
		noArgs(bridge.BFGetOptimalTileHeight, bridge.Bridge.OptimalTileHeight),
		noArgs(bridge.BFGetPixelType, bridge.Bridge.PixelType),
		noArgs(bridge.BFGetBitsPerPixel, bridge.Bridge.BitsPerPixel),
		noArgs(bridge.BFGetBytesPerPixel, bridge.Bridge.BytesPerPixel),
		noArgs(bridge.BFGetRGBChannelCount, bridge.Bridge.RGBChannelCount),
		noArgs(bridge.BFIsRGB, bridge.Bridge.IsRGB),
		noArgs(bridge.BFIsInterleaved, bridge.Bridge.IsInterleaved),
		noArgs(bridge.BFIsLittleEndian, bridge.Bridge.IsLittleEndian),
		noArgs(bridge.BFIsIndexedColor, bridge.Bridge.IsIndexedColor),
		noArgs(bridge.BFIsFalseColor, bridge.Bridge.IsFalseColor),
		noArgs(bridge.BFGet8BitLookupTable, bridge.Bridge.LookupTable8),
		noArgs(bridge.BFGet16BitLookupTable, bridge.Bridge.LookupTable16),
		intArgs(bridge.BFOpenBytes, []string{"plane", "x", "y", "w", "h"}, func(b bridge.Bridge, v []int32) int32 {
			return b.OpenBytes(v[0], v[1], v[2], v[3], v[4])
		}),
		intArgs(bridge.BFOpenThumbBytes, []string{"plane", "w", "h"}, func(b bridge.Bridge, v []int32) int32 {
			return b.OpenThumbBytes(v[0], v[1], v[2])
		}),
		realArg(bridge.BFGetMPPX, bridge.Bridge.MPPX),
		realArg(bridge.BFGetMPPY, bridge.Bridge.MPPY),
		realArg(bridge.BFGetMPPZ, bridge.Bridge.MPPZ),
		noArgs(bridge.BFDumpOMEXMLMetadata, bridge.Bridge.DumpOMEXMLMetadata),
	}
}
