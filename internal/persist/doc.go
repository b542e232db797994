// Package persist writes flow property changes to Redis when a flow saves
// its changes
package persist
