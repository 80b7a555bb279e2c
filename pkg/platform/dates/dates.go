// Package dates holds the shared date-string rule for create-with-date
// payloads.
package dates

import (
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// maxAhead bounds how far in the future a date may be scheduled.
const maxAhead = 365 * 24 * time.Hour

// ValidateFuture parses a date string and enforces the scheduling window:
// not before today, not more than one year ahead. "Today" comes from the
// real wall clock, not the request's logical time, so callers cannot widen
// the window by supplying their own clock. Field names the payload field in
// every message.
func ValidateFuture(field, value string) (time.Time, error) {
	return validateFuture(field, value, time.Now())
}

func validateFuture(field, value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	d, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation,
			"%s must be a valid date in YYYY-MM-DD format", field)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s must be in the future", field)
	}
	if d.After(today.Add(maxAhead)) {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation,
			"%s must be within one year from today", field)
	}
	return d, nil
}
