// Package types provides the shared data contracts for the reverie
// memory retrieval subsystem: memory records and tiers, tool call and
// tool result shapes, complexity assessments, and the structured error
// taxonomy used across package boundaries.
package types
