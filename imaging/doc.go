// Package imaging converts raw pixel buffers returned by the bridging class
// into Go images.
//
// Samples of any supported pixel type are reduced to 8 bits: signed
// integers are shifted into the unsigned range, 16 and 32 bit integers are
// scaled down, and floating point samples are normalised to [0, 1] unless
// they already are. Planar buffers are interleaved on the way.
//
//	layout := imaging.Layout{Width: 256, Height: 256, Channels: 3,
//		Interleaved: true, PixelType: imaging.Uint8, LittleEndian: true}
//	img, err := imaging.Decode(raw, layout)
package imaging
