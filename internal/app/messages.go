package app

import (
	"errors"
	"fmt"

	"github.com/pscheid92/countdown/internal/customtimer"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/pscheid92/countdown/internal/upload"
)

const genericFailureMessage = "Error processing custom timer. Please try again."

// UserMessage turns a use case error into the text shown to the visitor.
// Unknown errors, including storage failures, get a generic message.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrLimitExceeded):
		return fmt.Sprintf("You can only save a maximum of %d custom timers.", customtimer.MaxPerSession)
	case errors.Is(err, domain.ErrNoFile):
		return "No background image selected."
	case errors.Is(err, domain.ErrInvalidName):
		return fmt.Sprintf("Timer name must be between 1 and %d characters.", MaxNameLength)
	case errors.Is(err, domain.ErrMissingTime):
		return "No target date/time provided."
	case errors.Is(err, domain.ErrInvalidTime):
		return "Invalid date/time format submitted."
	case errors.Is(err, domain.ErrInvalidExtension):
		return "Invalid file type for background image. Allowed types: " + upload.AllowedExtensions
	case errors.Is(err, domain.ErrFileTooLarge):
		return fmt.Sprintf("Background image is too large (max %d MB).", upload.MaxBytes/(1024*1024))
	case errors.Is(err, domain.ErrTimerNotFound):
		return "Custom timer not found."
	default:
		return genericFailureMessage
	}
}
