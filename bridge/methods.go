package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/jvm"
)

// ClassName is the JNI name of the bridging class.
const ClassName = "org/camicroscope/BFBridge"

const (
	constructorName = "<init>"
	constructorSig  = "()V"
)

// Method identifies one remote method of the bridging class.
type Method int

const (
	BFSetCommunicationBuffer Method = iota
	BFGetErrorLength
	BFIsCompatible
	BFIsAnyFileOpen
	BFOpen
	BFGetFormat
	BFIsSingleFile
	BFGetCurrentFile
	BFGetUsedFiles
	BFClose
	BFGetSeriesCount
	BFSetCurrentSeries
	BFGetResolutionCount
	BFSetCurrentResolution
	BFGetSizeX
	BFGetSizeY
	BFGetSizeC
	BFGetSizeZ
	BFGetSizeT
	BFGetEffectiveSizeC
	BFGetImageCount
	BFGetDimensionOrder
	BFIsOrderCertain
	BFGetOptimalTileWidth
	BFGetOptimalTileHeight
	BFGetPixelType
	BFGetBitsPerPixel
	BFGetBytesPerPixel
	BFGetRGBChannelCount
	BFIsRGB
	BFIsInterleaved
	BFIsLittleEndian
	BFIsIndexedColor
	BFIsFalseColor
	BFGet8BitLookupTable
	BFGet16BitLookupTable
	BFOpenBytes
	BFOpenThumbBytes
	BFGetMPPX
	BFGetMPPY
	BFGetMPPZ
	BFDumpOMEXMLMetadata

	// MethodCount is the number of remote methods resolved per Thread.
	MethodCount = int(BFDumpOMEXMLMetadata) + 1
)

// descriptors is in resolution order.
var descriptors = [MethodCount]struct {
	name string
	sig  string
}{
	{"BFSetCommunicationBuffer", "(Ljava/nio/ByteBuffer;)V"},
	{"BFGetErrorLength", "()I"},
	{"BFIsCompatible", "(I)I"},
	{"BFIsAnyFileOpen", "()I"},
	{"BFOpen", "(I)I"},
	{"BFGetFormat", "()I"},
	{"BFIsSingleFile", "(I)I"},
	{"BFGetCurrentFile", "()I"},
	{"BFGetUsedFiles", "()I"},
	{"BFClose", "()I"},
	{"BFGetSeriesCount", "()I"},
	{"BFSetCurrentSeries", "(I)I"},
	{"BFGetResolutionCount", "()I"},
	{"BFSetCurrentResolution", "(I)I"},
	{"BFGetSizeX", "()I"},
	{"BFGetSizeY", "()I"},
	{"BFGetSizeC", "()I"},
	{"BFGetSizeZ", "()I"},
	{"BFGetSizeT", "()I"},
	{"BFGetEffectiveSizeC", "()I"},
	{"BFGetImageCount", "()I"},
	{"BFGetDimensionOrder", "()I"},
	{"BFIsOrderCertain", "()I"},
	{"BFGetOptimalTileWidth", "()I"},
	{"BFGetOptimalTileHeight", "()I"},
	{"BFGetPixelType", "()I"},
	{"BFGetBitsPerPixel", "()I"},
	{"BFGetBytesPerPixel", "()I"},
	{"BFGetRGBChannelCount", "()I"},
	{"BFIsRGB", "()I"},
	{"BFIsInterleaved", "()I"},
	{"BFIsLittleEndian", "()I"},
	{"BFIsIndexedColor", "()I"},
	{"BFIsFalseColor", "()I"},
	{"BFGet8BitLookupTable", "()I"},
	{"BFGet16BitLookupTable", "()I"},
	{"BFOpenBytes", "(IIIII)I"},
	{"BFOpenThumbBytes", "(III)I"},
	{"BFGetMPPX", "(I)D"},
	{"BFGetMPPY", "(I)D"},
	{"BFGetMPPZ", "(I)D"},
	{"BFDumpOMEXMLMetadata", "()I"},
}

// Name returns the remote method name.
func (m Method) Name() string {
	if m < 0 || int(m) >= MethodCount {
		return ""
	}
	return descriptors[m].name
}

// Descriptor returns the JVM method descriptor.
func (m Method) Descriptor() string {
	if m < 0 || int(m) >= MethodCount {
		return ""
	}
	return descriptors[m].sig
}

func (m Method) String() string {
	return m.Name()
}

// Methods returns every remote method in resolution order.
func Methods() []Method {
	all := make([]Method, MethodCount)
	for i := range all {
		all[i] = Method(i)
	}
	return all
}

// MethodTable holds the resolved constructor and method IDs of one Thread.
// It is either fully populated or not returned at all.
type MethodTable struct {
	constructor jvm.MethodID
	ids         [MethodCount]jvm.MethodID
}

// Constructor returns the no-argument constructor.
func (t *MethodTable) Constructor() jvm.MethodID {
	return t.constructor
}

// ID returns the resolved ID of m.
func (t *MethodTable) ID(m Method) jvm.MethodID {
	return t.ids[m]
}

// Len returns the number of resolved methods, not counting the constructor.
func (t *MethodTable) Len() int {
	n := 0
	for _, id := range t.ids {
		if id != 0 {
			n++
		}
	}
	return n
}

// resolveMethods looks up the constructor and then every method in order,
// stopping at the first that cannot be found.
func resolveMethods(env jvm.Env, class jvm.Ref) (*MethodTable, error) {
	t := &MethodTable{}

	t.constructor = env.GetMethodID(class, constructorName, constructorSig)
	if t.constructor == 0 {
		describeException(env, constructorName)
		return nil, errors.New(errors.PhaseResolve, errors.KindMethodNotFound).
			Name(constructorName).
			Detail("could not find the %s constructor", ClassName).
			Build()
	}

	for i, d := range descriptors {
		id := env.GetMethodID(class, d.name, d.sig)
		if id == 0 {
			describeException(env, d.name)
			Logger().Debug("method resolution failed",
				zap.String("method", d.name), zap.String("descriptor", d.sig))
			return nil, errors.MethodNotFound(d.name, d.sig)
		}
		t.ids[i] = id
	}
	return t, nil
}

// describeException reports and clears a pending exception.
func describeException(env jvm.Env, during string) bool {
	if !env.ExceptionCheck() {
		return false
	}
	if t, ok := env.(jvm.ExceptionTexter); ok {
		Logger().Warn("exception pending",
			zap.String("during", during), zap.String("exception", t.ExceptionText()))
		return true
	}
	env.ExceptionDescribe()
	Logger().Warn("exception pending, described on stderr", zap.String("during", during))
	return true
}
