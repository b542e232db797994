// Package cli implements the wizard command line: validating YAML flow
// declarations and driving a declared flow from start to completion
package cli
