package refiner

import (
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"time"
)

//agencyHolidayCalendar holds the holidays observed by a transit agency. Holiday service days run
//reduced schedules whose observations would skew a weekday refinement
type agencyHolidayCalendar struct {
	calendar *cal.BusinessCalendar
}

//makeAgencyHolidayCalendar builds agencyHolidayCalendar
//TODO:: should be customizable by transit agency rather than being hardcoded as it is now.
func makeAgencyHolidayCalendar() *agencyHolidayCalendar {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
		us.Juneteenth,
	)
	return &agencyHolidayCalendar{calendar: calendar}
}

//isHoliday returns true if at is on a holiday observed by the transit agency, currently hard coded
func (a *agencyHolidayCalendar) isHoliday(at time.Time) bool {
	_, observed, _ := a.calendar.IsHoliday(at)
	return observed
}
