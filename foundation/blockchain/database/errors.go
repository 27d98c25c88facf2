package database

import (
	"errors"
	"fmt"
)

// Set of errors returned by the database.
var (
	ErrNotFound           = errors.New("block not found")
	ErrEmptyChain         = errors.New("chain has no blocks")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// =============================================================================

// IntegrityError is returned when the chain fails verification. Number is
// the first block found to be inconsistent with its predecessor or with its
// stored record.
type IntegrityError struct {
	Number   uint64
	Reason   string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (ie *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation at block %d: %s, got %s, exp %s", ie.Number, ie.Reason, ie.Actual, ie.Expected)
}

// IsIntegrityError checks if an error of type IntegrityError exists.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// GetIntegrityError returns a copy of the IntegrityError pointer.
func GetIntegrityError(err error) *IntegrityError {
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		return nil
	}
	return ie
}
