// ABOUTME: Command schema registry mapping endpoints to their declared method variants
// ABOUTME: Decodes raw JSON envelopes into sealed Command values under a validation profile

package schema

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Endpoint identifies a command vocabulary bound to a POST route.
type Endpoint string

// Endpoints.
const (
	EndpointCore    Endpoint = "core"
	EndpointBase    Endpoint = "base"
	EndpointMaps    Endpoint = "base/maps"
	EndpointHead    Endpoint = "head"
	EndpointArm     Endpoint = "arm"
	EndpointGripper Endpoint = "arm/gripper"
)

// Endpoints lists every command endpoint in route order.
var Endpoints = []Endpoint{
	EndpointCore, EndpointBase, EndpointMaps, EndpointHead, EndpointArm, EndpointGripper,
}

// Profile selects how strictly envelopes are validated.
type Profile string

// Profiles.
const (
	// ProfileLoose accepts legacy field aliases and ignores unknown fields.
	ProfileLoose Profile = "loose"
	// ProfileStrict accepts canonical names only and rejects unknown fields.
	ProfileStrict Profile = "strict"
)

// Valid reports whether p names a known profile.
func (p Profile) Valid() bool {
	return p == ProfileLoose || p == ProfileStrict
}

type variant struct {
	zero   Command
	decode func(f *fields) (Command, error)
}

func bare(c Command) variant {
	return variant{zero: c, decode: func(*fields) (Command, error) { return c, nil }}
}

// vocabularies declares every variant per endpoint, in declaration order.
var vocabularies = map[Endpoint][]variant{
	EndpointCore: {
		bare(Ping{}),
		{zero: Settings{}, decode: decodeSettings},
	},
	EndpointBase: {
		bare(Initialize{}),
		{zero: SetMode{}, decode: func(f *fields) (Command, error) {
			id, err := f.integer("mode_id")
			return SetMode{ModeID: id}, err
		}},
		bare(Start{}),
		bare(Quickmap{}),
		bare(Dock{}),
		bare(Kill{}),
		{zero: TriggerBump{}, decode: decodeTriggerBump},
		{zero: Speak{}, decode: decodeSpeak},
		{zero: Drive{}, decode: decodeDrive},
	},
	EndpointMaps: {
		{zero: Goto{}, decode: decodeGoto},
	},
	EndpointHead: {
		{zero: Look{}, decode: decodeLook},
		{zero: Gaze{}, decode: decodeGaze},
	},
	EndpointArm: {
		{zero: MoveJoint{}, decode: decodeMoveJoint},
		{zero: MoveJoints{}, decode: decodeMoveJoints},
	},
	EndpointGripper: {
		bare(GripperCalibrate{}),
		bare(GripperOpen{}),
		bare(GripperClose{}),
	},
}

// Registry validates envelopes for one profile. It is immutable and safe
// for concurrent use.
type Registry struct {
	profile Profile
}

// New creates a registry for profile. An unknown profile falls back to strict.
func New(profile Profile) *Registry {
	if !profile.Valid() {
		profile = ProfileStrict
	}
	return &Registry{profile: profile}
}

// Profile returns the validation profile.
func (r *Registry) Profile() Profile { return r.profile }

// Methods lists the method literals declared for endpoint.
func (r *Registry) Methods(endpoint Endpoint) []string {
	vs := vocabularies[endpoint]
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.zero.Method()
	}
	return out
}

// Variants returns the zero value of every variant declared for endpoint.
func Variants(endpoint Endpoint) []Command {
	vs := vocabularies[endpoint]
	out := make([]Command, len(vs))
	for i, v := range vs {
		out[i] = v.zero
	}
	return out
}

// Decode validates raw against the vocabulary of endpoint and returns the
// matching variant. Errors wrap ErrMalformed or ErrUnsupportedMethod.
func (r *Registry) Decode(endpoint Endpoint, raw []byte) (Command, error) {
	vs, ok := vocabularies[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: unknown endpoint %q", ErrUnsupportedMethod, endpoint)
	}
	obj, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	m := obj.Get("method")
	if !m.Exists() || m.Type == gjson.Null {
		return nil, &UnsupportedError{Endpoint: endpoint}
	}
	if m.Type != gjson.String {
		return nil, &UnsupportedError{Endpoint: endpoint, Method: m.Raw}
	}

	for _, v := range vs {
		if v.zero.Method() != m.Str {
			continue
		}
		f := newFields(obj, r.strict())
		cmd, err := v.decode(f)
		if err != nil {
			return nil, err
		}
		if err := f.finish(); err != nil {
			return nil, err
		}
		return cmd, nil
	}
	return nil, &UnsupportedError{Endpoint: endpoint, Method: m.Str}
}

// DecodeIdleMode validates the PUT /head body.
func (r *Registry) DecodeIdleMode(raw []byte) (SetIdleMode, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return SetIdleMode{}, err
	}
	f := newFields(obj, r.strict())
	on, err := f.boolean("idle_mode", "idle-mode")
	if err != nil {
		return SetIdleMode{}, err
	}
	if err := f.finish(); err != nil {
		return SetIdleMode{}, err
	}
	return SetIdleMode{IdleMode: on}, nil
}

// DecodeMarkers validates the POST /save-markers body.
func (r *Registry) DecodeMarkers(raw []byte) (MarkerSet, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return MarkerSet{}, err
	}
	f := newFields(obj, r.strict())
	id, err := f.integer("map_id")
	if err != nil {
		return MarkerSet{}, err
	}
	markers, err := f.records("markers")
	if err != nil {
		return MarkerSet{}, err
	}
	if err := f.finish(); err != nil {
		return MarkerSet{}, err
	}
	return MarkerSet{MapID: id, Markers: markers}, nil
}

func (r *Registry) strict() bool { return r.profile == ProfileStrict }

func parseObject(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &ValidationError{Reason: "body must be valid JSON"}
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return gjson.Result{}, &ValidationError{Reason: "body must be a JSON object"}
	}
	return obj, nil
}

func decodeSettings(f *fields) (Command, error) {
	jsonMode, err := f.optBoolean("json_responses", "json-responses")
	if err != nil {
		return nil, err
	}
	tofs, err := f.optBoolean("tofs_enabled", "tofs-enabled")
	if err != nil {
		return nil, err
	}
	if jsonMode == nil && tofs == nil {
		return nil, &ValidationError{
			Field:  "json_responses",
			Reason: "at least one of json_responses or tofs_enabled is required",
		}
	}
	return Settings{JSONResponses: jsonMode, TOFsEnabled: tofs}, nil
}

func decodeTriggerBump(f *fields) (Command, error) {
	left, err := f.boolean("left")
	if err != nil {
		return nil, err
	}
	right, err := f.boolean("right")
	if err != nil {
		return nil, err
	}
	return TriggerBump{Left: left, Right: right}, nil
}

func decodeSpeak(f *fields) (Command, error) {
	model, err := f.str("model_src")
	if err != nil {
		return nil, err
	}
	text, err := f.str("text")
	if err != nil {
		return nil, err
	}
	speaker, err := f.optInteger("speaker_id")
	if err != nil {
		return nil, err
	}
	return Speak{ModelSrc: model, Text: text, SpeakerID: speaker}, nil
}

func decodeDrive(f *fields) (Command, error) {
	lin, err := f.number("linear_velocity")
	if err != nil {
		return nil, err
	}
	ang, err := f.number("angle_velocity")
	if err != nil {
		return nil, err
	}
	return Drive{LinearVelocity: lin, AngleVelocity: ang}, nil
}

func decodeGoto(f *fields) (Command, error) {
	x, err := f.number("x")
	if err != nil {
		return nil, err
	}
	y, err := f.number("y")
	if err != nil {
		return nil, err
	}
	angle, err := f.optNumber("angle")
	if err != nil {
		return nil, err
	}
	speed, err := f.optNumber("speed")
	if err != nil {
		return nil, err
	}
	return Goto{X: x, Y: y, Angle: angle, Speed: speed}, nil
}

func decodeLook(f *fields) (Command, error) {
	pan, err := f.number("pan", "yaw")
	if err != nil {
		return nil, err
	}
	tilt, err := f.number("tilt", "pitch")
	if err != nil {
		return nil, err
	}
	speed, err := f.number("speed")
	if err != nil {
		return nil, err
	}
	return Look{Pan: pan, Tilt: tilt, Speed: speed}, nil
}

func decodeGaze(f *fields) (Command, error) {
	x, err := f.number("x")
	if err != nil {
		return nil, err
	}
	y, err := f.number("y")
	if err != nil {
		return nil, err
	}
	return Gaze{X: x, Y: y}, nil
}

func decodeMoveJoint(f *fields) (Command, error) {
	joint, err := f.integer("joint")
	if err != nil {
		return nil, err
	}
	angle, err := f.number("angle")
	if err != nil {
		return nil, err
	}
	speed, err := f.number("speed")
	if err != nil {
		return nil, err
	}
	return MoveJoint{Joint: joint, Angle: angle, Speed: speed}, nil
}

func decodeMoveJoints(f *fields) (Command, error) {
	angles, err := f.numbers("angles")
	if err != nil {
		return nil, err
	}
	speed, err := f.number("speed")
	if err != nil {
		return nil, err
	}
	return MoveJoints{Angles: angles, Speed: speed}, nil
}
