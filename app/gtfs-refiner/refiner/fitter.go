package refiner

import (
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	logger "log"
	"math"
	"os"
	"sort"
)

// RouteFit captures the fitted multiplier diagnostics for one route
type RouteFit struct {
	RouteId             string  `json:"route_id"`
	ArrivalMultiplier   float64 `json:"arrival_multiplier"`
	ArrivalStopCount    int     `json:"arrival_stop_count"`
	DepartureMultiplier float64 `json:"departure_multiplier"`
	DepartureStopCount  int     `json:"departure_stop_count"`
}

// fitRoutes fits a standard deviation multiplier per route and observation kind, then fills every
// slot's best value. Routes fit independently because their time distributions differ, an express
// route does not spread like a local one.
// Returns true in the second value when a shutdown signal interrupted fitting
func fitRoutes(log *logger.Logger,
	conf *Conf,
	arrivalStats map[string]map[gtfs.TripStopKey]*stopTimeStats,
	departureStats map[string]map[gtfs.TripStopKey]*stopTimeStats,
	shutdownSignal chan os.Signal) ([]RouteFit, bool) {

	routeIds := sortedRouteIds(arrivalStats, departureStats)
	fits := make([]RouteFit, 0, len(routeIds))
	for _, routeId := range routeIds {
		if canceled(shutdownSignal) {
			return nil, true
		}
		fit := RouteFit{RouteId: routeId}
		if statsByKey, present := arrivalStats[routeId]; present {
			fit.ArrivalMultiplier = fitKind(log, conf, routeId, "arrival", statsByKey)
			fit.ArrivalStopCount = len(statsByKey)
		}
		if statsByKey, present := departureStats[routeId]; present {
			fit.DepartureMultiplier = fitKind(log, conf, routeId, "departure", statsByKey)
			fit.DepartureStopCount = len(statsByKey)
		}
		fits = append(fits, fit)
	}
	return fits, false
}

func fitKind(log *logger.Logger,
	conf *Conf,
	routeId string,
	kind string,
	statsByKey map[gtfs.TripStopKey]*stopTimeStats) float64 {

	stats := make([]*stopTimeStats, 0, len(statsByKey))
	for _, s := range statsByKey {
		stats = append(stats, s)
	}
	multiplier := fitStdDevMultiplier(stats, conf.DesiredFractionEarly, conf.FitIterations)
	setBestValues(stats, multiplier)
	log.Printf("route %s %s multiplier %.4f reaches %.3f early over %d stops",
		routeId, kind, multiplier, fractionEarly(stats, multiplier), len(stats))
	return multiplier
}

// fitStdDevMultiplier bisects the multiplier k in [0, 2] starting from 1 so the fraction of
// observations earlier than mean minus k standard deviations approaches desiredFractionEarly.
// Each stop is roughly gaussian and the route wide fit absorbs what is not, a fixed iteration
// count halves the bracket each step so five iterations land within about 2^-5
func fitStdDevMultiplier(stats []*stopTimeStats, desiredFractionEarly float64, iterations int) float64 {
	low := 0.0
	high := 2.0
	multiplier := 1.0
	for i := 0; i < iterations; i++ {
		if fractionEarly(stats, multiplier) < desiredFractionEarly {
			high = multiplier
		} else {
			low = multiplier
		}
		multiplier = (low + high) / 2
	}
	return multiplier
}

// fractionEarly is the fraction of filtered observations strictly earlier than their slot's
// mean minus multiplier standard deviations. Slots with fewer than two observations carry no
// spread information and contribute nothing. Zero eligible observations yields zero so the
// bisection walks the multiplier down
func fractionEarly(stats []*stopTimeStats, multiplier float64) float64 {
	early := 0
	total := 0
	for _, s := range stats {
		if len(s.filtered) < 2 {
			continue
		}
		early += countEarlierThan(s.filtered, s.mean-multiplier*s.stdDev)
		total += len(s.filtered)
	}
	if total == 0 {
		return 0
	}
	return float64(early) / float64(total)
}

// setBestValues fills each slot's revised schedule time from the fitted multiplier, falling back
// to the plain mean when a slot has no standard deviation
func setBestValues(stats []*stopTimeStats, multiplier float64) {
	for _, s := range stats {
		if math.IsNaN(s.stdDev) {
			s.bestValue = int(math.Round(s.mean))
			continue
		}
		s.bestValue = int(math.Round(s.mean - multiplier*s.stdDev))
	}
}

func sortedRouteIds(arrivalStats map[string]map[gtfs.TripStopKey]*stopTimeStats,
	departureStats map[string]map[gtfs.TripStopKey]*stopTimeStats) []string {
	routes := make(map[string]bool, len(departureStats))
	for routeId := range arrivalStats {
		routes[routeId] = true
	}
	for routeId := range departureStats {
		routes[routeId] = true
	}
	routeIds := make([]string, 0, len(routes))
	for routeId := range routes {
		routeIds = append(routeIds, routeId)
	}
	sort.Strings(routeIds)
	return routeIds
}
