// Package assemble builds the fixed-order per-frame action vectors.
//
// Each vector has 25 slots: 21 joint sign-changes in joint order, left and
// right hand closure, velocity and angular velocity. The raw flavor carries
// the decoded velocity command (or its sign-change), the normalized flavor
// carries normalized velocity sign-changes. Frames are independent, so
// WriteFrames fans them out over a worker pool reading shared resident
// channels.
package assemble
