package block

import (
	"errors"
	"fmt"
)

var (
	// ErrFinalised is returned when a state is registered with a Builder that was already finalised.
	ErrFinalised = errors.New("block table already finalised")
	// ErrDuplicateState is returned when a state with the same name and properties is registered twice.
	ErrDuplicateState = errors.New("block state already registered")
	// ErrInvalidState is returned for states with an empty name or property values of unsupported types.
	ErrInvalidState = errors.New("invalid block state")
	// ErrAmbiguousPermutation is returned by RegisterPermutation for enums without possible values or with
	// repeated property names.
	ErrAmbiguousPermutation = errors.New("ambiguous permutation")
	// ErrHashCollision is returned by Finalise when two states produce the same network hash.
	ErrHashCollision = errors.New("network hash collision")
)

// RegistrationError is returned by the registration methods of a Builder. The registration it was returned
// for had no effect on the Builder.
type RegistrationError struct {
	// Op is the registration method that failed.
	Op string
	// Name is the name of the block that was being registered.
	Name string
	// Err is the underlying error, one of the Err... values of this package, possibly wrapped.
	Err error
}

// Error returns the operation, the block name and the underlying error.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
