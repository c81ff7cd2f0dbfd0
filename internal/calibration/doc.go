// Package calibration holds the state a user builds up while matching a
// virtual layout to a photographed slit drum.
//
// A detection run produces candidate regions; the user then picks the
// ones that really are tongues and puts them in playing order. Selection
// records that choice as an immutable value: every transition returns a
// new Selection and leaves the receiver untouched, so callers decide when
// to publish or render the new state.
//
// Session ties one detection run to its Selection, and SessionTable keeps
// the sessions of a running server. A new detection always starts a new
// session; a selection never carries over to a different candidate list.
package calibration
