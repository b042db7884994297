package domain

import "errors"

// Validation errors. They are reported back to the visitor and never logged as failures.
var (
	ErrNoFile           = errors.New("no background image selected")
	ErrInvalidExtension = errors.New("invalid file type for background image")
	ErrFileTooLarge     = errors.New("background image is too large")
	ErrInvalidName      = errors.New("invalid timer name")
	ErrMissingTime      = errors.New("no target date/time provided")
	ErrInvalidTime      = errors.New("invalid date/time format")
)

var (
	ErrLimitExceeded  = errors.New("custom timer limit reached")
	ErrTimerNotFound  = errors.New("timer not found")
	ErrStorageFailure = errors.New("storage failure")
)

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{ErrNoFile, ErrInvalidExtension, ErrFileTooLarge, ErrInvalidName, ErrMissingTime, ErrInvalidTime} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
