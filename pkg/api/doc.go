// Package api defines the core data types and interfaces for the flow engine
//
// This package contains the declarative property model shared by flow
// definitions and running flow instances: descriptors with their scope,
// usage and data shape, schema containers and their merge rules, validation
// results, lifecycle states, and the narrow collaborator interfaces (codec,
// persister, value provider, page resolver, definition source) the engine
// consumes
package api
