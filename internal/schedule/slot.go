// Package schedule resolves conversational slot expressions ("9-10",
// "sabah 9-10") and week/day offsets into absolute half-open time ranges.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosuda/randevu/internal/domain"
)

// Bare hours 6-11 mean evening by default: reservations peak after work, so
// "9-10" reads as 21:00-22:00 unless a morning qualifier is present.
const (
	eveningShiftLow  = 6
	eveningShiftHigh = 11
)

var hourTokenRe = regexp.MustCompile(`\d{1,2}`)

// Slot is a resolved pair of hour offsets from midnight of the target day.
// EndHour may exceed 24 when the slot crosses midnight.
type Slot struct {
	StartHour int
	EndHour   int
}

// ParseSlot extracts two hour tokens from expr. With an explicit "sabah"
// (morning) qualifier the hours are taken literally; otherwise hours in
// [6,11] shift +12. Hours >= 12 or <= 5 are never shifted: bare 1-5 are
// assumed to already mean past midnight.
func ParseSlot(expr string) (Slot, error) {
	tokens := hourTokenRe.FindAllString(expr, 3)
	if len(tokens) < 2 {
		return Slot{}, fmt.Errorf("schedule.ParseSlot: %q has no hour range: %w", expr, domain.ErrValidation)
	}

	start, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Slot{}, fmt.Errorf("schedule.ParseSlot: %q: %w", expr, domain.ErrValidation)
	}
	end, err := strconv.Atoi(tokens[1])
	if err != nil {
		return Slot{}, fmt.Errorf("schedule.ParseSlot: %q: %w", expr, domain.ErrValidation)
	}
	if start < 0 || start > 24 || end < 0 || end > 24 {
		return Slot{}, fmt.Errorf("schedule.ParseSlot: hours in %q out of range: %w", expr, domain.ErrValidation)
	}

	if !hasMorningQualifier(expr) {
		start = shiftEvening(start)
		end = shiftEvening(end)
	}

	// A slot never runs backwards; an end at or before the start crosses
	// into the evening or past midnight ("23-1" -> 23:00-01:00).
	for end <= start {
		end += 12
	}

	return Slot{StartHour: start, EndHour: end}, nil
}

func hasMorningQualifier(expr string) bool {
	for _, f := range strings.Fields(strings.ToLower(expr)) {
		if strings.HasPrefix(f, "sabah") {
			return true
		}
	}
	return false
}

func shiftEvening(hour int) int {
	if hour >= eveningShiftLow && hour <= eveningShiftHigh {
		return hour + 12
	}
	return hour
}

// WeekStart returns midnight of the Monday of the week containing now,
// in now's location.
func WeekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) - int(time.Monday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// ResolveDay returns midnight of the target day: week offset 0 is the week
// containing now, weekday is the zero-based index from Monday.
func ResolveDay(now time.Time, weekOffset, weekday int) (time.Time, error) {
	if weekday < 0 || weekday > 6 {
		return time.Time{}, fmt.Errorf("schedule.ResolveDay: weekday %d out of range: %w", weekday, domain.ErrValidation)
	}
	return WeekStart(now).AddDate(0, 0, 7*weekOffset+weekday), nil
}

// Resolve combines ResolveDay and ParseSlot into an absolute half-open range.
func Resolve(now time.Time, weekOffset, weekday int, slotExpr string) (start, end time.Time, err error) {
	day, err := ResolveDay(now, weekOffset, weekday)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	slot, err := ParseSlot(slotExpr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = day.Add(time.Duration(slot.StartHour) * time.Hour)
	end = day.Add(time.Duration(slot.EndHour) * time.Hour)
	return start, end, nil
}
