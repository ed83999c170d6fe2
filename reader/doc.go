// Package reader is the idiomatic Go face of a bridging object.
//
// The bridge layer reports results the way the remote class does: integers
// where negative values mean failure and the error text sits in the shared
// buffer. A Reader turns those conventions into Go values and errors:
//
//	r := reader.New(instance)
//	if err := r.Open("/data/slide.svs"); err != nil {
//		return err
//	}
//	defer r.Close()
//	w, h, err := r.Size()
//	tile, err := r.OpenBytes(0, 0, 0, 256, 256)
//
// Failures carry the remote text in an *errors.Error of kind KindRemote, or
// KindTooLarge when the result could not fit the communication buffer.
// Byte results are copied out of the buffer, so they stay valid across
// later calls.
//
// A Reader is bound to the OS thread its bridge was attached on, like the
// bridge itself.
package reader
