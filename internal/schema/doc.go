// Package schema validates inbound command envelopes.
//
// # Envelopes
//
// Every POST command body is a JSON object with a "method" discriminator and
// method specific fields:
//
//	{"method": "drive", "linear_velocity": 0.5, "angle_velocity": 0.1}
//
// Decode returns exactly one sealed Command variant or an error. A missing or
// unknown method wraps ErrUnsupportedMethod. A body that is not an object, or
// a missing or mistyped field, is a *ValidationError wrapping ErrMalformed.
// Optional fields decode to nil pointers.
//
// # Profiles
//
// ProfileLoose accepts the legacy hyphenated aliases (json-responses,
// tofs-enabled, idle-mode) and yaw/pitch for look, and ignores fields it does
// not know. ProfileStrict accepts canonical names only and rejects unknown
// fields and non-object marker records.
package schema
