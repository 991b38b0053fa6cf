package refiner

import (
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	"math"
)

// stopTimeStats holds the fitted observation statistics for one schedule slot
type stopTimeStats struct {
	unfiltered []int
	filtered   []int
	mean       float64
	//stdDev is the sample standard deviation, NaN when fewer than two observations survived filtering
	stdDev float64
	min    int
	max    int
	//bestValue is the mean minus the route's fitted multiplier times stdDev, rounded.
	//Populated by the fitter after every route's observations are in
	bestValue int
}

// makeStopTimeStats filters outliers out of times and computes statistics over the retained set.
// An observation survives when it is within maxDeviationFromMeanSec of the unfiltered mean and,
// when an original schedule time is known, within maxDeviationFromOriginalSec of it. The second
// band keeps a systematic labeling error in the data from drifting the schedule arbitrarily far
// from its prior value.
// Returns nil when nothing survives, the slot then falls through to its original schedule time
func makeStopTimeStats(times []int,
	original *int,
	maxDeviationFromMeanSec int,
	maxDeviationFromOriginalSec int) *stopTimeStats {

	if len(times) == 0 {
		return nil
	}
	unfilteredMean := mean(times)
	filtered := make([]int, 0, len(times))
	for _, t := range times {
		if math.Abs(float64(t)-unfilteredMean) > float64(maxDeviationFromMeanSec) {
			continue
		}
		if original != nil && abs(t-*original) > maxDeviationFromOriginalSec {
			continue
		}
		filtered = append(filtered, t)
	}
	if len(filtered) == 0 {
		return nil
	}
	filteredMean := mean(filtered)
	smallest, largest := minMax(filtered)
	return &stopTimeStats{
		unfiltered: times,
		filtered:   filtered,
		mean:       filteredMean,
		stdDev:     sampleStdDev(filtered, filteredMean),
		min:        smallest,
		max:        largest,
	}
}

// buildRouteStats runs the estimator over every accumulated schedule slot for one observation kind,
// dropping slots where every observation was rejected
func buildRouteStats(timesByRoute map[string]map[gtfs.TripStopKey][]int,
	schedule *gtfs.StopTimeCollection,
	conf *Conf,
	isArrival bool) map[string]map[gtfs.TripStopKey]*stopTimeStats {

	result := make(map[string]map[gtfs.TripStopKey]*stopTimeStats, len(timesByRoute))
	for routeId, byKey := range timesByRoute {
		statsByKey := make(map[gtfs.TripStopKey]*stopTimeStats, len(byKey))
		for key, times := range byKey {
			var original *int
			if row := schedule.Lookup(key); row != nil {
				value := row.DepartureTime
				if isArrival {
					value = row.ArrivalTime
				}
				original = &value
			}
			stats := makeStopTimeStats(times, original,
				conf.AllowableDeviationFromMeanSec, conf.AllowableDeviationFromOriginalSec)
			if stats != nil {
				statsByKey[key] = stats
			}
		}
		if len(statsByKey) > 0 {
			result[routeId] = statsByKey
		}
	}
	return result
}
