// ABOUTME: Stable operation names for every capability call
// ABOUTME: Used for logging, metrics labels, the fake robot and the gRPC wire format

package capability

// Op names a single capability operation, e.g. "base.drive".
type Op string

// Operation names. The dotted prefix is the owning subsystem.
const (
	OpPing    Op = "core.ping"
	OpVersion Op = "core.version"

	OpSetJSONMode   Op = "robot.set_json_mode"
	OpSetTOFs       Op = "robot.set_tofs"
	OpCurrentAction Op = "robot.current_action"
	OpLastError     Op = "robot.last_error"

	OpInitialize  Op = "base.initialize"
	OpSetMode     Op = "base.set_mode"
	OpStart       Op = "base.start"
	OpQuickmap    Op = "base.quickmap"
	OpDock        Op = "base.dock"
	OpKill        Op = "base.kill"
	OpTriggerBump Op = "base.trigger_bump"
	OpSpeak       Op = "base.speak"
	OpDrive       Op = "base.drive"
	OpBaseStatus  Op = "base.status"

	OpGoto        Op = "base.maps.goto"
	OpListMaps    Op = "base.maps.list"
	OpPosition    Op = "base.maps.position"
	OpFetchMap    Op = "base.maps.fetch"
	OpSetIdleMode Op = "head.set_idle_mode"
	OpLook        Op = "head.look"
	OpGaze        Op = "head.eyes.gaze"

	OpMoveJoint  Op = "arm.move_joint"
	OpMoveJoints Op = "arm.move_joints"
	OpCalibrate  Op = "arm.gripper.calibrate"
	OpOpen       Op = "arm.gripper.open"
	OpClose      Op = "arm.gripper.close"
)

// AllOps lists every operation of the Client contract.
var AllOps = []Op{
	OpPing, OpVersion,
	OpSetJSONMode, OpSetTOFs, OpCurrentAction, OpLastError,
	OpInitialize, OpSetMode, OpStart, OpQuickmap, OpDock, OpKill,
	OpTriggerBump, OpSpeak, OpDrive, OpBaseStatus,
	OpGoto, OpListMaps, OpPosition, OpFetchMap,
	OpSetIdleMode, OpLook, OpGaze,
	OpMoveJoint, OpMoveJoints, OpCalibrate, OpOpen, OpClose,
}

// Known reports whether op is part of the Client contract.
func Known(op Op) bool {
	for _, o := range AllOps {
		if o == op {
			return true
		}
	}
	return false
}
