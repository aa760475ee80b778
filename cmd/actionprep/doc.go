// Command actionprep converts a teleoperation recording into per-frame action
// vectors and drives the downstream generation/evaluation scripts.
//
// Subcommands:
//   - run: decode the recording and write every artifact
//   - inspect: describe a recording without writing anything
//   - history: list past runs from the ledger
//   - generate: run the external generation and evaluation loop
//   - config: create, validate, or print configuration
//
// Exit codes distinguish configuration (2), metadata (3), decode (4),
// output (5), external tool (6), and lock (7) failures.
package main
