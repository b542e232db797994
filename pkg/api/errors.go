package api

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the parent of every fatal misconfiguration
	ErrConfiguration = errors.New("configuration error")

	ErrUnknownScope = fmt.Errorf("%w: unknown property scope",
		ErrConfiguration)
	ErrUnknownUsage = fmt.Errorf("%w: unknown property usage",
		ErrConfiguration)
	ErrUsageNotAllowed = fmt.Errorf("%w: usage not allowed for scope",
		ErrConfiguration)
	ErrReadOnlyPersister = fmt.Errorf(
		"%w: persister requires a usage that propagates changes",
		ErrConfiguration)
	ErrTemplateMutation = fmt.Errorf("%w: definition is read-only",
		ErrConfiguration)
	ErrIncompatibleProperty = fmt.Errorf(
		"%w: incompatible property declarations", ErrConfiguration)
	ErrInvalidShape = fmt.Errorf("%w: invalid data shape", ErrConfiguration)
	ErrInvalidDefinition = fmt.Errorf("%w: invalid flow definition",
		ErrConfiguration)
	ErrMorphIncompatible = fmt.Errorf(
		"%w: activity sequences cross between flow types", ErrConfiguration)
	ErrNoActivity = fmt.Errorf(
		"%w: activity local property resolved without an activity",
		ErrConfiguration)

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrMergeConflict reports a contained collision between an activity's
	// property and the flow-wide property of the same name
	ErrMergeConflict = errors.New("property merge conflict")

	ErrFlowNotFound      = errors.New("flow definition not found")
	ErrLookupKeyNotFound = errors.New("flow lookup key not found")
	ErrNoSuchElement     = errors.New("no such element")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrFlowCompleted     = errors.New("flow already completed")
	ErrAccessDenied      = errors.New("property access denied")
	ErrPropertyNotFound  = errors.New("property not defined")
	ErrNotDeserializable = errors.New("value cannot be deserialized")
)
