// Package builder assembles property descriptors and flow definitions
//
// Builders are immutable: every With method returns a new builder, so a
// partially configured builder can be shared and specialized. Flow.Build
// merges the properties contributed by each activity into one flow-wide
// schema and freezes every schema it produces
package builder
