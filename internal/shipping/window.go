package shipping

import (
	"fmt"
	"time"
)

// Dates in this package are ISO YYYY-MM-DD strings compared lexicographically,
// which matches chronological order for that format. Callers must guarantee
// the format; malformed strings are a contract violation, not a handled error.

const dateLayout = "2006-01-02"

// DefaultWindowDays is the length of the fallback window offered for items
// that carry no collection constraint.
const DefaultWindowDays = 14

// Window is a [Start, End] ship-date interval. An empty string means the
// bound is unset on that side.
type Window struct {
	Start string
	End   string
}

// IsZero reports whether neither bound is set.
func (w Window) IsZero() bool {
	return w.Start == "" && w.End == ""
}

// CollectionWindow is the validation unit: a named collection and the date
// interval during which its items may ship.
type CollectionWindow struct {
	ID              int64
	Name            string
	ShipWindowStart string
	ShipWindowEnd   string
}

func (c CollectionWindow) window() Window {
	return Window{Start: c.ShipWindowStart, End: c.ShipWindowEnd}
}

// DefaultWindow returns the fallback window for unconstrained items: today
// through today plus days (DefaultWindowDays when days is not positive).
func DefaultWindow(today string, days int) Window {
	if days <= 0 {
		days = DefaultWindowDays
	}
	t, err := time.Parse(dateLayout, today)
	if err != nil {
		return Window{Start: today, End: today}
	}
	return Window{
		Start: today,
		End:   t.AddDate(0, 0, days).Format(dateLayout),
	}
}

// Overlap returns the intersection of the given windows, or nil when the
// windows share no common date. Unset bounds do not constrain their side.
func Overlap(windows []CollectionWindow) *Window {
	var out Window
	for _, w := range windows {
		if w.ShipWindowStart != "" && w.ShipWindowStart > out.Start {
			out.Start = w.ShipWindowStart
		}
		if w.ShipWindowEnd != "" && (out.End == "" || w.ShipWindowEnd < out.End) {
			out.End = w.ShipWindowEnd
		}
	}
	if out.Start != "" && out.End != "" && out.Start > out.End {
		return nil
	}
	return &out
}

// MinimumAllowedDates returns the most restrictive lower bound across the
// given windows: the latest start and the latest end, ignoring unset bounds.
// Unlike Overlap it always yields a value when at least one window has
// bounds, even if the windows themselves do not intersect.
func MinimumAllowedDates(windows []CollectionWindow) Window {
	var out Window
	for _, w := range windows {
		if w.ShipWindowStart != "" && w.ShipWindowStart > out.Start {
			out.Start = w.ShipWindowStart
		}
		if w.ShipWindowEnd != "" && w.ShipWindowEnd > out.End {
			out.End = w.ShipWindowEnd
		}
	}
	return out
}

// Field tags a validation error to the date input it concerns.
type Field string

const (
	FieldStart Field = "start"
	FieldEnd   Field = "end"
)

// FieldError describes one date-constraint violation.
type FieldError struct {
	Field   Field
	Message string
}

// Result is the outcome of validating one shipment's proposed dates.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// Validate checks the proposed start and end against every constraining
// collection window. The start must not precede any window's opening date and
// the end must not exceed any window's closing date; start must never follow
// end. A shipment with zero constraints is valid whenever start <= end.
func Validate(start, end string, constraints []CollectionWindow) Result {
	var errs []FieldError
	if start != "" && end != "" && start > end {
		errs = append(errs, FieldError{
			Field:   FieldEnd,
			Message: "end date is before start date",
		})
	}
	for _, c := range constraints {
		if c.ShipWindowStart != "" && start < c.ShipWindowStart {
			errs = append(errs, FieldError{
				Field:   FieldStart,
				Message: fmt.Sprintf("start date is before %s opens (%s)", constraintName(c), c.ShipWindowStart),
			})
		}
		if c.ShipWindowEnd != "" && end > c.ShipWindowEnd {
			errs = append(errs, FieldError{
				Field:   FieldEnd,
				Message: fmt.Sprintf("end date is after %s closes (%s)", constraintName(c), c.ShipWindowEnd),
			})
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func constraintName(c CollectionWindow) string {
	if c.Name != "" {
		return fmt.Sprintf("the %s window", c.Name)
	}
	return "the ship window"
}
