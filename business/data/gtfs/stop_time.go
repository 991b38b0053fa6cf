package gtfs

import (
	"sort"
)

// StopTime contains a record from a gtfs stop_times.txt file
// represents a scheduled arrival and departure at a stop.
type StopTime struct {
	TripId        string
	StopId        string
	StopSequence  int
	ArrivalTime   int
	DepartureTime int

	//record holds the complete source row so columns the refiner does not model pass through to output unchanged
	record []string
}

// Key identifies the schedule slot this row fills
func (s *StopTime) Key() TripStopKey {
	return TripStopKey{TripId: s.TripId, StopId: s.StopId}
}

// TripStopKey is the identity of a schedule slot, a (trip, stop) pair
type TripStopKey struct {
	TripId string
	StopId string
}

// StopTimeCollection holds the rows of a stop_times.txt file in output order along with
// a lookup index by TripStopKey. The first row wins the index when a trip visits a stop twice
type StopTimeCollection struct {
	headers        []string
	arrivalIndex   int
	departureIndex int
	rows           []*StopTime
	byKey          map[TripStopKey]*StopTime
	repaired       bool
}

// Rows returns the stop time rows in the order output files should emit them
func (c *StopTimeCollection) Rows() []*StopTime {
	return c.rows
}

// Lookup finds the first stop time row filed under key, nil if the schedule has no such slot
func (c *StopTimeCollection) Lookup(key TripStopKey) *StopTime {
	return c.byKey[key]
}

// Len returns the number of stop time rows loaded
func (c *StopTimeCollection) Len() int {
	return len(c.rows)
}

// Repaired reports whether the source row order violated trip grouping and was re-sorted
func (c *StopTimeCollection) Repaired() bool {
	return c.repaired
}

// makeStopTimeCollection indexes rows and repairs their order if the source violated trip grouping.
// A violation is a trip id reappearing after its rows ended, or a stop_sequence decreasing inside a trip.
// Source order is kept whenever it is already valid so emitted files diff cleanly against the input
func makeStopTimeCollection(headers []string, arrivalIndex int, departureIndex int, rows []*StopTime) *StopTimeCollection {
	repaired := false
	if hasOrderViolation(rows) {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].TripId != rows[j].TripId {
				return rows[i].TripId < rows[j].TripId
			}
			return rows[i].StopSequence < rows[j].StopSequence
		})
		repaired = true
	}
	byKey := make(map[TripStopKey]*StopTime, len(rows))
	for _, row := range rows {
		key := row.Key()
		if _, present := byKey[key]; !present {
			byKey[key] = row
		}
	}
	return &StopTimeCollection{
		headers:        headers,
		arrivalIndex:   arrivalIndex,
		departureIndex: departureIndex,
		rows:           rows,
		byKey:          byKey,
		repaired:       repaired,
	}
}

// hasOrderViolation scans for a completed trip reappearing or stop_sequence moving backwards within a trip
func hasOrderViolation(rows []*StopTime) bool {
	completedTrips := make(map[string]bool)
	currentTrip := ""
	lastSequence := 0
	for _, row := range rows {
		if row.TripId != currentTrip {
			if completedTrips[row.TripId] {
				return true
			}
			if currentTrip != "" {
				completedTrips[currentTrip] = true
			}
			currentTrip = row.TripId
			lastSequence = row.StopSequence
			continue
		}
		if row.StopSequence < lastSequence {
			return true
		}
		lastSequence = row.StopSequence
	}
	return false
}
