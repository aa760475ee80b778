package recording

import "fmt"

const (
	// Joints is the number of joint position sub-channels per frame.
	Joints = 21
	// ElementSize is the byte width of every stored telemetry value (float32).
	ElementSize = 4
	// VectorLen is the length of an assembled per-frame vector.
	VectorLen = Joints + 4
)

// Slot offsets inside an assembled per-frame vector. Joint slots occupy
// [0, Joints) in increasing joint order.
const (
	SlotLeftHand = Joints + iota
	SlotRightHand
	SlotVelocity
	SlotAngularVelocity
)

// Columns of the driving command channel.
const (
	VelocityColumn        = 0
	AngularVelocityColumn = 1
)

// ChannelSpec names one raw telemetry file and its per-frame width.
type ChannelSpec struct {
	Name  string
	Width int
}

var (
	JointPositions = ChannelSpec{Name: "joint_pos", Width: Joints}
	LeftHand       = ChannelSpec{Name: "l_hand_closure", Width: 1}
	RightHand      = ChannelSpec{Name: "r_hand_closure", Width: 1}
	DrivingCommand = ChannelSpec{Name: "driving_command", Width: 2}
)

// RawChannels lists every channel a recording must provide, in decode order.
func RawChannels() []ChannelSpec {
	return []ChannelSpec{JointPositions, LeftHand, RightHand, DrivingCommand}
}

// FileName returns the on-disk name of the channel's binary file.
func (c ChannelSpec) FileName() string {
	return c.Name + ".bin"
}

// ByteSize is the exact file size expected for the given frame count.
func (c ChannelSpec) ByteSize(frames int) int64 {
	return int64(frames) * int64(c.Width) * ElementSize
}

// JointName returns the artifact stem for a joint index, e.g. joint_07.
func JointName(joint int) string {
	return fmt.Sprintf("joint_%02d", joint)
}

// Derived channel stems used for the driving command columns.
const (
	VelocityName        = "velocity"
	AngularVelocityName = "angular_velocity"
)

// SlotNames returns a label for every vector slot in layout order.
func SlotNames() []string {
	names := make([]string, 0, VectorLen)
	for j := 0; j < Joints; j++ {
		names = append(names, JointName(j))
	}
	return append(names, LeftHand.Name, RightHand.Name, VelocityName, AngularVelocityName)
}
