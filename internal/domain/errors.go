package domain

import "errors"

var (
	// ErrInvalidInput marks out-of-range numeric inputs. The engine never
	// clamps silently; the bad value is surfaced to the immediate caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedYear is returned when the market calendar is asked
	// about a date whose year has no loaded holiday table. Distinct from
	// "not a holiday" so callers know the calendar's coverage.
	ErrUnsupportedYear = errors.New("unsupported year")
)
