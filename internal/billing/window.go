package billing

import (
	"fmt"
	"time"

	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

// DefaultTimezone is the civil zone all day boundaries are evaluated in unless configured otherwise.
const DefaultTimezone = "Asia/Seoul"

// DefaultLocation resolves DefaultTimezone, falling back to a fixed +09:00 zone
// when the tz database is unavailable.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Window is one calendar month in a fixed zone: [first day 00:00:00.000, last day 23:59:59.999].
type Window struct {
	Year     int
	Month    time.Month
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// NewWindow builds the billing window for a 1-indexed month.
func NewWindow(year, month int, loc *time.Location) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < 1000 || year > 9999 {
		return Window{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("year must have 4 digits, got %d", year))
	}
	if loc == nil {
		loc = DefaultLocation()
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.Month(month), daysIn(year, time.Month(month), loc), 23, 59, 59, int(999*time.Millisecond), loc)
	return Window{Year: year, Month: time.Month(month), Start: start, End: end, Location: loc}, nil
}

// Days returns the number of calendar days in the window.
func (w Window) Days() int {
	return daysIn(w.Year, w.Month, w.Location)
}

// DayEnd returns 23:59:59.999 of the given day of the month (1-indexed).
func (w Window) DayEnd(day int) time.Time {
	return time.Date(w.Year, w.Month, day, 23, 59, 59, int(999*time.Millisecond), w.Location)
}

// FirstDayFrom returns the day of the month on which replay starts for an
// account created at createdAt, or 0 when the account does not exist inside the window.
func (w Window) FirstDayFrom(createdAt time.Time) int {
	if createdAt.After(w.End) {
		return 0
	}
	if !createdAt.After(w.Start) {
		return 1
	}
	return createdAt.In(w.Location).Day()
}

// Key renders the window as YYYY-MM.
func (w Window) Key() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
