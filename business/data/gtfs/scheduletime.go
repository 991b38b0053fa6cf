package gtfs

import (
	"time"
)

// getDLSTransitionSeconds provides the number of seconds offset for a 12am date later in the day after day light saving time is done
func getDLSTransitionSeconds(timeAt12 time.Time) int {
	before := time.Date(timeAt12.Year(), timeAt12.Month(), timeAt12.Day(), 0, 0, 0, 0, timeAt12.Location())
	after := time.Date(timeAt12.Year(), timeAt12.Month(), timeAt12.Day(), 5, 0, 0, 0, timeAt12.Location())
	_, beforeOffset := before.Zone()
	_, afterOffset := after.Zone()
	return afterOffset - beforeOffset
}

// MakeScheduleTime produces a time from by adding seconds to a 12am date. Takes into account day light saving time
func MakeScheduleTime(timeAt12 time.Time, scheduleSeconds int) time.Time {
	offset := getDLSTransitionSeconds(timeAt12)
	scheduleSeconds = scheduleSeconds + (0 - offset)
	return timeAt12.Add(time.Duration(scheduleSeconds) * time.Second)
}

// SecondsIntoDay is the inverse of MakeScheduleTime, producing the schedule seconds of an instant on its
// service day. Takes into account day light saving time
func SecondsIntoDay(at time.Time) int {
	twelveAm := Get12AmTime(at)
	return int(at.Sub(twelveAm).Seconds()) + getDLSTransitionSeconds(twelveAm)
}

func Get12AmTime(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// DayWindow is a single service day's portion of an absolute observation query window
type DayWindow struct {
	//ServiceDate is 12am on the first service day covered by the window
	ServiceDate time.Time
	Start       time.Time
	End         time.Time
}

// SplitIntoDayWindows cuts the window [start, end) on local midnight boundaries, chunkDays days at a time.
// Keeps observation queries small enough that offset paging inside each window stays cheap
func SplitIntoDayWindows(start time.Time, end time.Time, chunkDays int) []DayWindow {
	if chunkDays < 1 {
		chunkDays = 1
	}
	var result []DayWindow
	dayStart := Get12AmTime(start)
	for dayStart.Before(end) {
		next := dayStart.AddDate(0, 0, chunkDays)
		window := DayWindow{
			ServiceDate: dayStart,
			Start:       dayStart,
			End:         next,
		}
		if window.Start.Before(start) {
			window.Start = start
		}
		if window.End.After(end) {
			window.End = end
		}
		result = append(result, window)
		dayStart = next
	}
	return result
}

// AgencyCalendar places instants into a transit agency's local service calendar
type AgencyCalendar struct {
	Location *time.Location
}

// SecondsIntoDay converts an absolute instant to schedule seconds on its local service day
func (c AgencyCalendar) SecondsIntoDay(at time.Time) int {
	return SecondsIntoDay(at.In(c.Location))
}

// DayOfYear identifies the local service day an instant falls on
func (c AgencyCalendar) DayOfYear(at time.Time) int {
	return at.In(c.Location).YearDay()
}

// DayWindows slices an absolute query window into local service day windows
func (c AgencyCalendar) DayWindows(start time.Time, end time.Time, chunkDays int) []DayWindow {
	return SplitIntoDayWindows(start.In(c.Location), end.In(c.Location), chunkDays)
}
