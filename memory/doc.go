// Package memory implements the tiered memory store for companion
// conversations. Records enter at SHORT_TERM and age through
// MEDIUM_TERM into LONG_TERM based on a configurable
// age-and-significance policy; unprotected records decay and are
// eventually removed. Maintenance passes are serialized per owner so
// concurrent passes never double-apply thresholds, while reads take
// snapshot copies and never observe partial maintenance state.
package memory
