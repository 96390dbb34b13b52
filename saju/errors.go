/*
errors.go - Centralized error types for the saju engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on these with errors.Is / errors.As; the engine never
  panics on expected input problems.

ERROR CATEGORIES:
  1. Input errors - Out-of-range birth moment fields (rejected before lookup)
  2. Lookup errors - No almanac row for the requested date
  3. Data errors - Almanac ganzhi strings that do not decode into a valid pillar
  4. Wiring errors - Operation needs an almanac and none is configured

USAGE:
  if errors.Is(err, saju.ErrNotFound) {
      // surface 404, do not retry
  }

SEE ALSO:
  - pillar.go: ParsePillar returns MalformedDataError / PillarCombinationError
  - time.go: BirthMoment.Validate returns InputError
  - almanac.go: AlmanacCalculator returns NotFoundError / ErrUnconfigured
*/
package saju

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when a birth moment field is out of range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the almanac has no row for a date.
	ErrNotFound = errors.New("not found")

	// ErrMalformedUpstreamData is returned when an almanac ganzhi string
	// cannot be decoded into a stem and a branch.
	ErrMalformedUpstreamData = errors.New("malformed upstream data")

	// ErrUnconfigured is returned when an operation requires an almanac
	// but the calculator was built without one.
	ErrUnconfigured = errors.New("calendar data source not configured")

	// ErrInvalidPillarCombination is returned for a stem/branch pair whose
	// parities differ. Only 60 of the 120 pairs exist in the cycle.
	ErrInvalidPillarCombination = errors.New("invalid pillar combination")

	// ErrUnknownSolarTerm is returned when a solar term name is not one of the 24.
	ErrUnknownSolarTerm = errors.New("unknown solar term")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InputError describes an out-of-range field.
type InputError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %d (must be %d-%d)", e.Field, e.Value, e.Min, e.Max)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError describes a failed almanac lookup.
type NotFoundError struct {
	Kind string // "solar date", "lunar date", "solar term", "location"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// MalformedDataError describes an upstream value that could not be decoded.
type MalformedDataError struct {
	Field string
	Raw   string
	Err   error
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Raw, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Field, e.Raw)
}

func (e *MalformedDataError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedUpstreamData, e.Err}
	}
	return []error{ErrMalformedUpstreamData}
}

// PillarCombinationError names the offending stem/branch pair.
type PillarCombinationError struct {
	Stem   Stem
	Branch Branch
}

func (e *PillarCombinationError) Error() string {
	if !e.Stem.Valid() || !e.Branch.Valid() {
		return fmt.Sprintf("invalid pillar combination: stem %d, branch %d out of range", int(e.Stem), int(e.Branch))
	}
	return fmt.Sprintf("invalid pillar combination: %s%s (stem parity %d, branch parity %d)",
		e.Stem.Hanja(), e.Branch.Hanja(), int(e.Stem)%2, int(e.Branch)%2)
}

func (e *PillarCombinationError) Unwrap() error {
	return ErrInvalidPillarCombination
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnknownSolarTerm)
}

// IsNotFound returns true if the error indicates a missing almanac row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDataFault returns true if upstream almanac data is corrupt.
func IsDataFault(err error) bool {
	return errors.Is(err, ErrMalformedUpstreamData) ||
		errors.Is(err, ErrInvalidPillarCombination)
}
