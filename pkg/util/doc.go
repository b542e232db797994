// Package util provides common utility functions and data structures
//
// This package includes generic set implementations and the state
// transition tables used throughout the flow engine
package util
