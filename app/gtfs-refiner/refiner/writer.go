package refiner

import (
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
)

// buildRevisedStopTimes walks the schedule in output order choosing each row's emitted times.
// A slot with fitted statistics emits its best value, a slot without falls through to its
// original time. The first stop of a trip keeps both original times when
// doNotUpdateFirstStopOfTrip is set, passengers and drivers rely on a stable line up time
func buildRevisedStopTimes(schedule *gtfs.StopTimeCollection,
	arrivalStats map[gtfs.TripStopKey]*stopTimeStats,
	departureStats map[gtfs.TripStopKey]*stopTimeStats,
	doNotUpdateFirstStopOfTrip bool) []*gtfs.RevisedStopTime {

	revised := make([]*gtfs.RevisedStopTime, 0, schedule.Len())
	previousTripId := ""
	for _, row := range schedule.Rows() {
		firstStopOfTrip := row.TripId != previousTripId
		previousTripId = row.TripId

		arrival := arrivalStats[row.Key()]
		departure := departureStats[row.Key()]
		arrivalTime := row.ArrivalTime
		departureTime := row.DepartureTime
		if !(doNotUpdateFirstStopOfTrip && firstStopOfTrip) {
			if arrival != nil {
				arrivalTime = arrival.bestValue
			}
			if departure != nil {
				departureTime = departure.bestValue
			}
		}
		revised = append(revised, &gtfs.RevisedStopTime{
			StopTime:      row,
			ArrivalTime:   arrivalTime,
			DepartureTime: departureTime,
			Arrival:       diagnostics(arrival),
			Departure:     diagnostics(departure),
		})
	}
	return revised
}

// diagnostics converts fitted statistics into their file emission form, nil stays nil
func diagnostics(stats *stopTimeStats) *gtfs.StopTimeDiagnostics {
	if stats == nil {
		return nil
	}
	return &gtfs.StopTimeDiagnostics{
		Mean:            stats.mean,
		StdDev:          stats.stdDev,
		Min:             stats.min,
		Max:             stats.max,
		FilteredCount:   len(stats.filtered),
		UnfilteredCount: len(stats.unfiltered),
	}
}
