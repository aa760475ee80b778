// Package ledger keeps a SQLite history of pipeline runs.
//
// Each run row records the recording, the assembly options, the outcome, and a
// fingerprint over every artifact digest, so two runs over the same recording
// with the same options can be compared for byte-identical output. The store
// uses WAL mode and retries briefly on SQLITE_BUSY so the CLI can read history
// while a run is writing.
package ledger
