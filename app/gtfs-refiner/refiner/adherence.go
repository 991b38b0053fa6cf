package refiner

import (
	"fmt"
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
)

// AdherenceSummary counts how raw observations score against one schedule's times
type AdherenceSummary struct {
	Early  int `json:"early"`
	OnTime int `json:"on_time"`
	Late   int `json:"late"`
	Total  int `json:"total"`
}

// OnTimeFraction is the fraction of scored observations inside the adherence bands
func (s AdherenceSummary) OnTimeFraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.OnTime) / float64(s.Total)
}

func (s AdherenceSummary) String() string {
	return fmt.Sprintf("early: %d, on time: %d, late: %d, on time fraction %.3f of %d observations",
		s.Early, s.OnTime, s.Late, s.OnTimeFraction(), s.Total)
}

// scoreAdherence scores every unfiltered observation against the original and the revised
// schedule time. Departure statistics score each row except the last stop of a trip, where
// riders care about the arrival
func scoreAdherence(schedule *gtfs.StopTimeCollection,
	arrivalStats map[gtfs.TripStopKey]*stopTimeStats,
	departureStats map[gtfs.TripStopKey]*stopTimeStats,
	conf *Conf) (AdherenceSummary, AdherenceSummary) {

	var original AdherenceSummary
	var revised AdherenceSummary
	rows := schedule.Rows()
	for i, row := range rows {
		lastStopOfTrip := i+1 >= len(rows) || rows[i+1].TripId != row.TripId
		stats := departureStats[row.Key()]
		originalTime := row.DepartureTime
		if lastStopOfTrip {
			stats = arrivalStats[row.Key()]
			originalTime = row.ArrivalTime
		}
		if stats == nil {
			continue
		}
		for _, observed := range stats.unfiltered {
			original.score(observed, originalTime, conf)
			revised.score(observed, stats.bestValue, conf)
		}
	}
	return original, revised
}

// score files one observation against a schedule time. Strict inequality on both bands, and the
// bands are asymmetric by configuration, a bus leaving early strands riders while a late one
// only delays them
func (s *AdherenceSummary) score(observed int, scheduleTime int, conf *Conf) {
	s.Total++
	switch {
	case observed < scheduleTime-conf.AllowableEarlySec:
		s.Early++
	case observed > scheduleTime+conf.AllowableLateSec:
		s.Late++
	default:
		s.OnTime++
	}
}
