// Package refs provides the reference table used by emulated runtimes.
//
// Object references handed across the jvm contract are small integers. A
// Table maps them to Go values and records whether each one is a local or a
// global reference, so a backend can enforce JNI rules (a deleted reference
// stops resolving, a local reference is not a global one) and tests can count
// what leaked.
//
//	table := refs.NewTable()
//	h := table.Insert(refs.Local, obj)
//	g := table.Insert(refs.Global, obj)
//	table.Delete(h)
//
// Handle 0 is reserved and never issued, matching the null reference.
//
// # Observers
//
// Subscribe an Observer to receive creation and deletion events. Counter is
// a ready-made observer that keeps live totals per scope.
//
// # Drop
//
// Values implementing Dropper are told when a reference to them is deleted.
// A value referenced from several handles receives one Drop per handle.
package refs
