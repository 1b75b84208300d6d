// Package dispatch routes validated commands to the robot.
//
// # Routing
//
// Router.Dispatch switches over the sealed schema.Command variants and makes
// exactly one capability call per command. The one exception is settings,
// which applies each provided setting in order and stops at the first
// failure. There are no retries.
//
// # Failures
//
// A capability error becomes a *BackendError with the message
// "<op> failed: <err>". A falsy result becomes a *BackendError carrying the
// robot's last error text. Both wrap ErrBackend. A router without a client
// returns ErrUnavailable.
//
// Whether a result is falsy depends on the Policy. PolicyLoose follows the
// truthiness of the robot SDK, so an empty list or a zero reading fails.
// PolicyStrict only rejects nil and false.
//
// # Serialization
//
// The last error is a single slot on the robot. Every call and its
// LastError read hold one call slot so a concurrent request cannot
// overwrite the text in between. Routers derived with WithPolicy share it.
// Waiting for the slot stops when the caller's context ends.
package dispatch
