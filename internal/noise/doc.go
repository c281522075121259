// Package noise turns a declarative hardware noise model into a qubit
// connectivity graph and per-qubit, per-edge and per-readout error tables.
//
// Raw events are first classified by target arity (Classify) into
// single-qubit gate errors, two-qubit gate errors, or readout errors. The
// characteriser then accumulates infidelities (1 - leading probability) per
// operation kind, derives the coupling list from the two-qubit errors, and
// grants every qubit without a link error full connectivity ("free qubit"
// completion).
//
// Two-qubit errors are recorded in both directions. The measured direction
// carries 1-f; the reverse carries 1-f². The reverse value is a fixed
// modelling policy kept for compatibility with existing calibrations.
//
// A model with no events, or whose events all declare empty distributions,
// characterises to an empty architecture. Callers treat that as "no noise"
// and substitute FullyConnected of their default size.
package noise
