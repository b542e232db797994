// Package definition loads flow definitions from YAML documents. Flows are
// parsed up front and built into frozen definitions on first use
package definition
