// ABOUTME: Sealed command variants produced by the schema registry
// ABOUTME: One struct per method; optional fields are nil pointers when unset

package schema

import "encoding/json"

// Domain is a disjoint capability area with its own command vocabulary.
type Domain string

// Domains.
const (
	DomainCore Domain = "core"
	DomainBase Domain = "base"
	DomainHead Domain = "head"
	DomainArm  Domain = "arm"
)

// Command is a validated command envelope. The set of implementations is
// closed: only this package can add variants.
type Command interface {
	// Method is the discriminator literal, e.g. "drive".
	Method() string
	Domain() Domain
	command()
}

// Ping checks the main controller is responsive.
type Ping struct{}

// Settings changes controller settings. At least one field is set.
type Settings struct {
	JSONResponses *bool
	TOFsEnabled   *bool
}

// Initialize initializes the base.
type Initialize struct{}

// SetMode switches the base operating mode.
type SetMode struct {
	ModeID int
}

// Start starts base operations.
type Start struct{}

// Quickmap starts a quick mapping run.
type Quickmap struct{}

// Dock sends the base to its dock.
type Dock struct{}

// Kill stops all base operations.
type Kill struct{}

// TriggerBump simulates the bump sensors.
type TriggerBump struct {
	Left  bool
	Right bool
}

// Speak synthesizes text with the given voice model.
type Speak struct {
	ModelSrc  string
	Text      string
	SpeakerID *int
}

// Drive sets linear and angular velocity.
type Drive struct {
	LinearVelocity float64
	AngleVelocity  float64
}

// Goto navigates to a position on the current map.
type Goto struct {
	X     float64
	Y     float64
	Angle *float64
	Speed *float64
}

// Look turns the head.
type Look struct {
	Pan   float64
	Tilt  float64
	Speed float64
}

// Gaze moves the eyes.
type Gaze struct {
	X float64
	Y float64
}

// SetIdleMode toggles the head idle animation. It is sent with PUT /head and
// has no method discriminator on the wire.
type SetIdleMode struct {
	IdleMode bool
}

// MoveJoint moves a single arm joint.
type MoveJoint struct {
	Joint int
	Angle float64
	Speed float64
}

// MoveJoints moves every arm joint at once.
type MoveJoints struct {
	Angles []float64
	Speed  float64
}

// GripperCalibrate calibrates the gripper.
type GripperCalibrate struct{}

// GripperOpen opens the gripper.
type GripperOpen struct{}

// GripperClose closes the gripper.
type GripperClose struct{}

func (Ping) Method() string             { return "ping" }
func (Settings) Method() string         { return "settings" }
func (Initialize) Method() string       { return "initialize" }
func (SetMode) Method() string          { return "mode" }
func (Start) Method() string            { return "start" }
func (Quickmap) Method() string         { return "quickmap" }
func (Dock) Method() string             { return "dock" }
func (Kill) Method() string             { return "kill" }
func (TriggerBump) Method() string      { return "trigger-bump" }
func (Speak) Method() string            { return "speak" }
func (Drive) Method() string            { return "drive" }
func (Goto) Method() string             { return "goto" }
func (Look) Method() string             { return "look" }
func (Gaze) Method() string             { return "gaze" }
func (SetIdleMode) Method() string      { return "idle-mode" }
func (MoveJoint) Method() string        { return "move-joint" }
func (MoveJoints) Method() string       { return "move-joints" }
func (GripperCalibrate) Method() string { return "calibrate" }
func (GripperOpen) Method() string      { return "open" }
func (GripperClose) Method() string     { return "close" }

func (Ping) Domain() Domain             { return DomainCore }
func (Settings) Domain() Domain         { return DomainCore }
func (Initialize) Domain() Domain       { return DomainBase }
func (SetMode) Domain() Domain          { return DomainBase }
func (Start) Domain() Domain            { return DomainBase }
func (Quickmap) Domain() Domain         { return DomainBase }
func (Dock) Domain() Domain             { return DomainBase }
func (Kill) Domain() Domain             { return DomainBase }
func (TriggerBump) Domain() Domain      { return DomainBase }
func (Speak) Domain() Domain            { return DomainBase }
func (Drive) Domain() Domain            { return DomainBase }
func (Goto) Domain() Domain             { return DomainBase }
func (Look) Domain() Domain             { return DomainHead }
func (Gaze) Domain() Domain             { return DomainHead }
func (SetIdleMode) Domain() Domain      { return DomainHead }
func (MoveJoint) Domain() Domain        { return DomainArm }
func (MoveJoints) Domain() Domain       { return DomainArm }
func (GripperCalibrate) Domain() Domain { return DomainArm }
func (GripperOpen) Domain() Domain      { return DomainArm }
func (GripperClose) Domain() Domain     { return DomainArm }

func (Ping) command()             {}
func (Settings) command()         {}
func (Initialize) command()       {}
func (SetMode) command()          {}
func (Start) command()            {}
func (Quickmap) command()         {}
func (Dock) command()             {}
func (Kill) command()             {}
func (TriggerBump) command()      {}
func (Speak) command()            {}
func (Drive) command()            {}
func (Goto) command()             {}
func (Look) command()             {}
func (Gaze) command()             {}
func (SetIdleMode) command()      {}
func (MoveJoint) command()        {}
func (MoveJoints) command()       {}
func (GripperCalibrate) command() {}
func (GripperOpen) command()      {}
func (GripperClose) command()     {}

// MarkerSet is the body of POST /save-markers. It is not a robot command.
// Markers keep the exact bytes the client sent.
type MarkerSet struct {
	MapID   int
	Markers []json.RawMessage
}
