package scheduling

import "errors"

var (
	// ErrBadDate is returned when the date is not a valid YYYY-MM-DD value
	ErrBadDate = errors.New("date must be in YYYY-MM-DD format")

	// ErrPastDate is returned when slots are requested for a past date
	ErrPastDate = errors.New("date must be today or later")
)
