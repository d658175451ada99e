package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a same-day delivery window in store-local wall-clock time.
// Windows never span midnight.
type Window struct {
	StartTime string `json:"startTime"` // "HH:mm"
	EndTime   string `json:"endTime"`
}

// WeekSchedule maps English weekday names ("Monday") to delivery windows.
// A missing weekday means no delivery that day.
type WeekSchedule map[string]Window

type TimeOption struct {
	Value   string `json:"value"`   // "HH:mm"
	Display string `json:"display"` // "2:30 PM"
}

// TimeSlots is the selectable slot list for a delivery date. When the
// requested date had no remaining slots the resolver advances to the next
// open day; Date carries the date actually used and DateAdvanced signals the
// substitution to the caller.
type TimeSlots struct {
	Date         string       `json:"date"`
	DateAdvanced bool         `json:"dateAdvanced"`
	Options      []TimeOption `json:"options"`
	Selected     string       `json:"selected"`
}

const dateLayout = "2006-01-02"

// AvailableDeliveryDates returns the dates within the horizon whose weekday
// has a delivery window, ascending from today.
func AvailableDeliveryDates(sched WeekSchedule, now time.Time, horizonDays int) []string {
	dates := make([]string, 0, horizonDays)
	for i := 0; i < horizonDays; i++ {
		candidate := now.AddDate(0, 0, i)
		if _, ok := sched[candidate.Weekday().String()]; ok {
			dates = append(dates, candidate.Format(dateLayout))
		}
	}
	return dates
}

// TimeOptionsForDate enumerates the 30-minute slots for a delivery date.
// For today, slots strictly before the current time are dropped and a
// synthetic "Now" option is prepended while the window is still open. A date
// whose window has fully passed advances to the next open day.
func TimeOptionsForDate(sched WeekSchedule, date string, now time.Time) TimeSlots {
	// Eight attempts cover the wrap back to the same weekday next week,
	// for schedules with a single open day whose window already passed.
	for attempt := 0; attempt < 8; attempt++ {
		day, err := time.ParseInLocation(dateLayout, date, now.Location())
		if err != nil {
			return TimeSlots{Date: date}
		}

		slots := slotsForDay(sched, day, now)
		if len(slots.Options) > 0 {
			slots.Date = date
			slots.DateAdvanced = attempt > 0
			slots.Selected = slots.Options[0].Value
			return slots
		}

		date = day.AddDate(0, 0, 1).Format(dateLayout)
	}
	return TimeSlots{Date: date}
}

func slotsForDay(sched WeekSchedule, day time.Time, now time.Time) TimeSlots {
	window, ok := sched[day.Weekday().String()]
	if !ok {
		return TimeSlots{}
	}

	startHour, startMin, err := parseClock(window.StartTime)
	if err != nil {
		return TimeSlots{}
	}
	endHour, endMin, err := parseClock(window.EndTime)
	if err != nil {
		return TimeSlots{}
	}

	start := startHour*60 + startMin
	end := endHour*60 + endMin

	isToday := sameDate(day, now)
	nowMinutes := now.Hour()*60 + now.Minute()

	var options []TimeOption
	if isToday && nowMinutes >= start && nowMinutes <= end {
		options = append(options, TimeOption{
			Value:   fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute()),
			Display: fmt.Sprintf("Now (%s)", displayClock(now.Hour(), now.Minute())),
		})
	}

	for hour := startHour; hour <= endHour; hour++ {
		for _, min := range []int{0, 30} {
			slot := hour*60 + min
			if slot < start || slot > end {
				continue
			}
			if isToday && slot < nowMinutes {
				continue
			}
			options = append(options, TimeOption{
				Value:   fmt.Sprintf("%02d:%02d", hour, min),
				Display: displayClock(hour, min),
			})
		}
	}

	return TimeSlots{Options: options}
}

// OpenNow reports whether delivery is currently open for the store, resolving
// "now" in the store's IANA timezone. This feeds availability badges only;
// slot generation stays in naive store-local time and must not reuse it.
func OpenNow(sched WeekSchedule, timezone string, now time.Time) bool {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc, _ = time.LoadLocation("America/New_York")
	}
	local := now.In(loc)

	window, ok := sched[local.Weekday().String()]
	if !ok {
		return false
	}

	startHour, startMin, err := parseClock(window.StartTime)
	if err != nil {
		return false
	}
	endHour, endMin, err := parseClock(window.EndTime)
	if err != nil {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	return minutes >= startHour*60+startMin && minutes < endHour*60+endMin
}

func parseClock(hhmm string) (hour, min int, err error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q", hhmm)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time out of range %q", hhmm)
	}
	return hour, min, nil
}

func displayClock(hour, min int) string {
	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}
	amPm := "AM"
	if hour >= 12 {
		amPm = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, min, amPm)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
