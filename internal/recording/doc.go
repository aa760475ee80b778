// Package recording describes a teleoperation recording: its frame-count
// descriptor and the fixed set of raw telemetry channels it provides.
//
// The channel-order contract used by every assembled frame vector also lives
// here: 21 joint slots in increasing joint order, then left hand closure,
// right hand closure, velocity and angular velocity.
package recording
