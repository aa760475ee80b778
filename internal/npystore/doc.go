// Package npystore persists pipeline arrays in NumPy .npy format.
//
// Every write is atomic (temporary file plus rename) and reports the size and
// SHA-256 digest of the bytes written, which the run ledger uses to show that
// reruns over the same recording reproduce identical artifacts. The naming
// helpers fix the on-disk contract consumed by training code.
package npystore
