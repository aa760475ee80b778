// Package pipeline runs the action data assembly pipeline end to end.
//
// Run reads the recording descriptor, memory-maps the four raw channel files,
// derives sign-changes and normalized channels once, writes the per-channel
// arrays, and then fans out per-frame vector assembly across workers for the
// raw and normalized flavors. An exclusive lock on the output directory keeps
// two runs from interleaving writes. When a ledger is supplied every run and
// artifact digest is recorded, and the result reports whether the output
// matched the previous run over the same recording and options.
package pipeline
