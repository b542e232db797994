// Package events delivers flow lifecycle events to consumers outside the
// flow's own call stack. Instances publish through a Listener; a single
// goroutine hands queued events to the handler in bounded batches
package events
