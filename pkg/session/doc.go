// Package session keeps the ordered set of flow instances active for one
// user session. It owns the value store those instances share, so values a
// flow copies back to the global namespace are visible to the flows that
// follow it, and it decides where control goes when an instance completes
package session
