// Package faults defines the error markers shared by the action data pipeline.
//
// Components wrap failures with Wrap so callers can classify them with
// errors.Is: metadata and decode errors abort a run before any output is
// written, output errors abort mid-run, and external tool errors come from the
// generation loop. RunStatus and ExitCode translate those markers for the run
// ledger and the CLI respectively.
package faults
