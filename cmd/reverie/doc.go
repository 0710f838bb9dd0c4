// Package main is the reverie service entry point: config loading,
// logging, backend wiring, the background tier maintenance loop, and
// the operational HTTP endpoints.
package main
