package api

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kode4food/argyll/wizard/pkg/util"
)

type (
	// Failure records one property missing a value at a required phase
	Failure struct {
		Activity string
		Property Name
		Phase    RequiredPhase
	}

	// ValidationResult accumulates failures without short-circuiting. The
	// zero value and nil are both valid, empty results
	ValidationResult struct {
		failures util.Set[Failure]
	}

	// ValidationError carries the full aggregated result of a failed gate
	ValidationError struct {
		Result *ValidationResult
	}
)

// NewValidationResult returns a result holding the given failures
func NewValidationResult(fs ...Failure) *ValidationResult {
	return &ValidationResult{failures: util.SetOf(fs...)}
}

// With returns a new result that also holds f
func (r *ValidationResult) With(f Failure) *ValidationResult {
	return r.Merge(NewValidationResult(f))
}

// Merge returns the union of both results. Merging is associative and
// commutative
func (r *ValidationResult) Merge(other *ValidationResult) *ValidationResult {
	return &ValidationResult{failures: r.set().Union(other.set())}
}

// IsValid reports whether the result holds no failures
func (r *ValidationResult) IsValid() bool {
	return r.set().IsEmpty()
}

// Failures returns the failures ordered by activity, property and phase
func (r *ValidationResult) Failures() []Failure {
	res := make([]Failure, 0, r.set().Len())
	for f := range r.set() {
		res = append(res, f)
	}
	slices.SortFunc(res, func(a, b Failure) int {
		return cmp.Or(
			cmp.Compare(a.Activity, b.Activity),
			cmp.Compare(a.Property, b.Property),
			cmp.Compare(a.Phase, b.Phase),
		)
	})
	return res
}

// Properties returns the sorted names of the failing properties
func (r *ValidationResult) Properties() []Name {
	names := util.Set[Name]{}
	for f := range r.set() {
		names.Add(f.Property)
	}
	return util.Sorted(names)
}

// Err returns nil for a valid result, otherwise a *ValidationError
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	return &ValidationError{Result: r}
}

func (r *ValidationResult) set() util.Set[Failure] {
	if r == nil {
		return nil
	}
	return r.failures
}

func (e *ValidationError) Error() string {
	fs := e.Result.Failures()
	parts := make([]string, len(fs))
	for i, f := range fs {
		if f.Activity == "" {
			parts[i] = fmt.Sprintf("%s (%s)", f.Property, f.Phase)
			continue
		}
		parts[i] = fmt.Sprintf("%s.%s (%s)", f.Activity, f.Property, f.Phase)
	}
	return fmt.Sprintf("%s: missing %s", ErrValidation,
		strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
