package schedule

import (
	"testing"
	"time"
)

// 2026-03-04 is a Wednesday.
var wednesday = time.Date(2026, 3, 4, 14, 5, 0, 0, time.UTC)

func TestAvailableDeliveryDatesFiltersByWeekday(t *testing.T) {
	sched := WeekSchedule{
		"Monday": {StartTime: "09:00", EndTime: "22:00"},
		"Friday": {StartTime: "09:00", EndTime: "22:00"},
	}

	dates := AvailableDeliveryDates(sched, wednesday, 30)
	if len(dates) != 8 {
		t.Fatalf("got %d dates, want 8: %v", len(dates), dates)
	}
	if dates[0] != "2026-03-06" {
		t.Errorf("first date = %s, want 2026-03-06 (first Friday)", dates[0])
	}

	seen := map[string]bool{}
	prev := ""
	for _, d := range dates {
		if seen[d] {
			t.Errorf("duplicate date %s", d)
		}
		seen[d] = true
		if d <= prev {
			t.Errorf("dates not ascending: %s after %s", d, prev)
		}
		prev = d

		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatalf("bad date %s: %v", d, err)
		}
		if wd := day.Weekday(); wd != time.Monday && wd != time.Friday {
			t.Errorf("date %s is a %s", d, wd)
		}
	}
}

func TestAvailableDeliveryDatesEmptySchedule(t *testing.T) {
	if dates := AvailableDeliveryDates(WeekSchedule{}, wednesday, 30); len(dates) != 0 {
		t.Errorf("got %v, want no dates", dates)
	}
}

func TestTimeOptionsForTodayTruncatesPastSlots(t *testing.T) {
	sched := WeekSchedule{"Wednesday": {StartTime: "09:00", EndTime: "22:00"}}

	slots := TimeOptionsForDate(sched, "2026-03-04", wednesday)
	if slots.DateAdvanced {
		t.Fatal("date should not have advanced")
	}
	if len(slots.Options) == 0 {
		t.Fatal("expected options")
	}

	if slots.Options[0].Display != "Now (2:05 PM)" {
		t.Errorf("first option = %q, want the synthetic Now entry", slots.Options[0].Display)
	}
	if slots.Options[0].Value != "14:05" {
		t.Errorf("Now value = %q, want 14:05", slots.Options[0].Value)
	}
	if slots.Selected != "14:05" {
		t.Errorf("Selected = %q, want the Now option", slots.Selected)
	}

	if slots.Options[1].Value != "14:30" {
		t.Errorf("first regular slot = %q, want 14:30", slots.Options[1].Value)
	}
	for _, opt := range slots.Options[1:] {
		if opt.Value < "14:30" {
			t.Errorf("slot %q precedes the current half-hour boundary", opt.Value)
		}
	}

	last := slots.Options[len(slots.Options)-1]
	if last.Value != "22:00" {
		t.Errorf("last slot = %q, want 22:00 (end time inclusive)", last.Value)
	}
}

func TestTimeOptionsForFutureDateFullWindow(t *testing.T) {
	sched := WeekSchedule{"Friday": {StartTime: "10:00", EndTime: "12:00"}}

	slots := TimeOptionsForDate(sched, "2026-03-06", wednesday)
	want := []string{"10:00", "10:30", "11:00", "11:30", "12:00"}
	if len(slots.Options) != len(want) {
		t.Fatalf("got %d options, want %d: %+v", len(slots.Options), len(want), slots.Options)
	}
	for i, w := range want {
		if slots.Options[i].Value != w {
			t.Errorf("option[%d] = %q, want %q", i, slots.Options[i].Value, w)
		}
	}
	if slots.Options[0].Display != "10:00 AM" {
		t.Errorf("display = %q, want 10:00 AM", slots.Options[0].Display)
	}
	if slots.Options[4].Display != "12:00 PM" {
		t.Errorf("display = %q, want 12:00 PM", slots.Options[4].Display)
	}
	if slots.Selected != "10:00" {
		t.Errorf("Selected = %q, want first slot", slots.Selected)
	}
}

func TestTimeOptionsAdvancesWhenWindowClosed(t *testing.T) {
	sched := WeekSchedule{
		"Wednesday": {StartTime: "09:00", EndTime: "12:00"},
		"Thursday":  {StartTime: "10:00", EndTime: "20:00"},
	}

	// 14:05 is past Wednesday's window; expect Thursday's slots.
	slots := TimeOptionsForDate(sched, "2026-03-04", wednesday)
	if !slots.DateAdvanced {
		t.Fatal("expected the date to advance")
	}
	if slots.Date != "2026-03-05" {
		t.Errorf("Date = %s, want 2026-03-05", slots.Date)
	}
	if slots.Options[0].Value != "10:00" {
		t.Errorf("first slot = %q, want 10:00", slots.Options[0].Value)
	}
}

func TestTimeOptionsWrapsToSameWeekdayNextWeek(t *testing.T) {
	sched := WeekSchedule{"Wednesday": {StartTime: "09:00", EndTime: "12:00"}}

	slots := TimeOptionsForDate(sched, "2026-03-04", wednesday)
	if !slots.DateAdvanced {
		t.Fatal("expected the date to advance")
	}
	if slots.Date != "2026-03-11" {
		t.Errorf("Date = %s, want next Wednesday 2026-03-11", slots.Date)
	}
}

func TestTimeOptionsUnknownWeekdayEmpty(t *testing.T) {
	sched := WeekSchedule{"Monday": {StartTime: "09:00", EndTime: "12:00"}}
	slots := TimeOptionsForDate(WeekSchedule{}, "2026-03-04", wednesday)
	if len(slots.Options) != 0 {
		t.Errorf("empty schedule produced options: %+v", slots.Options)
	}

	slots = TimeOptionsForDate(sched, "2026-03-04", wednesday)
	if slots.Date != "2026-03-09" {
		t.Errorf("Date = %s, want the following Monday", slots.Date)
	}
}

func TestNowOptionAtExactCloseTime(t *testing.T) {
	sched := WeekSchedule{"Wednesday": {StartTime: "09:00", EndTime: "22:00"}}
	atClose := time.Date(2026, 3, 4, 22, 0, 0, 0, time.UTC)

	slots := TimeOptionsForDate(sched, "2026-03-04", atClose)
	if len(slots.Options) == 0 {
		t.Fatal("expected the window end to remain orderable")
	}
	if slots.Options[0].Display != "Now (10:00 PM)" {
		t.Errorf("first option = %q, want Now at close", slots.Options[0].Display)
	}
}

func TestOpenNowUsesStoreTimezone(t *testing.T) {
	sched := WeekSchedule{"Wednesday": {StartTime: "09:00", EndTime: "22:00"}}

	// 18:00 UTC is 13:00 in New York (EST) on 2026-03-04.
	open := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	if !OpenNow(sched, "America/New_York", open) {
		t.Error("expected open at 13:00 store time")
	}

	// 03:30 UTC Thursday is 22:30 Wednesday in New York: closed.
	closed := time.Date(2026, 3, 5, 3, 30, 0, 0, time.UTC)
	if OpenNow(sched, "America/New_York", closed) {
		t.Error("expected closed at 22:30 store time")
	}
}

func TestOpenNowClosedWeekday(t *testing.T) {
	sched := WeekSchedule{"Monday": {StartTime: "09:00", EndTime: "22:00"}}
	now := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	if OpenNow(sched, "America/New_York", now) {
		t.Error("expected closed on a day without a window")
	}
}
