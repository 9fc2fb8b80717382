package clock

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"
)

// Holiday is either a single date or, when RRule is set, a recurrence
// starting at Date (e.g. "FREQ=YEARLY;BYMONTH=8;BYMONTHDAY=17").
type Holiday struct {
	Name  string
	Date  DateKey
	RRule string
}

// HolidayCalendar answers holiday lookups for one tenant.
type HolidayCalendar struct {
	fixed     map[DateKey]string
	recurring []recurringHoliday
}

type recurringHoliday struct {
	name string
	rule *rrule.RRule
}

func NewHolidayCalendar(holidays []Holiday) *HolidayCalendar {
	cal := &HolidayCalendar{fixed: make(map[DateKey]string)}

	for _, h := range holidays {
		if h.RRule == "" {
			cal.fixed[h.Date] = h.Name
			continue
		}

		opt, err := rrule.StrToROption(h.RRule)
		if err != nil {
			slog.Warn("Skipping holiday with invalid recurrence rule", "name", h.Name, "rrule", h.RRule, "error", err)
			continue
		}
		opt.Dtstart = h.Date.Start(time.UTC)

		rule, err := rrule.NewRRule(*opt)
		if err != nil {
			slog.Warn("Skipping holiday with invalid recurrence rule", "name", h.Name, "rrule", h.RRule, "error", err)
			continue
		}
		cal.recurring = append(cal.recurring, recurringHoliday{name: h.Name, rule: rule})
	}

	return cal
}

// Lookup returns the holiday name for d, if any.
func (c *HolidayCalendar) Lookup(d DateKey) (string, bool) {
	if c == nil {
		return "", false
	}
	if name, ok := c.fixed[d]; ok {
		return name, true
	}

	start := d.Start(time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)
	for _, r := range c.recurring {
		if len(r.rule.Between(start, end, true)) > 0 {
			return r.name, true
		}
	}
	return "", false
}

// IsHoliday reports whether d is a holiday in cal. A nil calendar has none.
func IsHoliday(d DateKey, cal *HolidayCalendar) bool {
	_, ok := cal.Lookup(d)
	return ok
}
