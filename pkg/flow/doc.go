// Package flow runs flow instances: it resolves where each property's value
// lives, initializes properties from their surrounding namespaces, drives
// the lifecycle state machine across activity transitions, gates
// transitions on property validation, and completes or morphs flows
//
// An Instance is not safe for concurrent use. Callers serialize every
// operation on one instance; the session registry is the shared structure
package flow
