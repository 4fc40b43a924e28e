package domain

import "time"

type HolidayKind string

const (
	HolidayFullClose  HolidayKind = "FULL_CLOSE"
	HolidayEarlyClose HolidayKind = "EARLY_CLOSE"
)

// HolidayEntry is one market-closure entry in a yearly holiday table.
// Early-close days are still trading days with a shortened session.
type HolidayEntry struct {
	Date time.Time
	Name string
	Kind HolidayKind
	// CloseTime is the local session close for early-close days, e.g. "13:00".
	CloseTime string
}
