package refiner

import (
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	logger "log"
)

// terminalKey identifies a single physical run of a block on one service day.
// VehicleId is part of the key because multiple vehicles may cover the same block
type terminalKey struct {
	vehicleId string
	blockId   string
	dayOfYear int
}

// expectedTimesPerKey sizes each schedule slot's time series for the usual five to fourteen
// service day observation window
const expectedTimesPerKey = 16

// observationAccumulator collects observed schedule seconds by route and schedule slot.
// Frequency based trips store seconds since their run's measured terminal departure instead of
// seconds into the service day. Lives for one refinement run and is then discarded
type observationAccumulator struct {
	calendar         ServiceCalendar
	schedule         *gtfs.StopTimeCollection
	frequencyTripIds map[string]bool

	//terminalDepartures holds at most one measured first stop departure per run,
	//a later departure observation for the same run overwrites the earlier one
	terminalDepartures map[terminalKey]int

	arrivalsByRoute   map[string]map[gtfs.TripStopKey][]int
	departuresByRoute map[string]map[gtfs.TripStopKey][]int

	droppedMissingTerminal int
	droppedBeforeTerminal  int
	droppedUnknownSlot     int
}

func makeObservationAccumulator(calendar ServiceCalendar,
	schedule *gtfs.StopTimeCollection,
	frequencyTripIds map[string]bool) *observationAccumulator {
	return &observationAccumulator{
		calendar:           calendar,
		schedule:           schedule,
		frequencyTripIds:   frequencyTripIds,
		terminalDepartures: make(map[terminalKey]int),
		arrivalsByRoute:    make(map[string]map[gtfs.TripStopKey][]int),
		departuresByRoute:  make(map[string]map[gtfs.TripStopKey][]int),
	}
}

func (a *observationAccumulator) terminalKeyFor(observation *gtfs.ArrivalDeparture) terminalKey {
	return terminalKey{
		vehicleId: observation.VehicleId,
		blockId:   observation.BlockId,
		dayOfYear: a.calendar.DayOfYear(observation.Time),
	}
}

// recordTerminalDeparture remembers the measured trip start for a frequency trip run
func (a *observationAccumulator) recordTerminalDeparture(observation *gtfs.ArrivalDeparture) {
	a.terminalDepartures[a.terminalKeyFor(observation)] = a.calendar.SecondsIntoDay(observation.Time)
}

// add extracts one observation's schedule seconds and files them under its route and schedule slot.
// Frequency trip observations without a recorded terminal, or from before it, are skipped, as are
// observations for slots the schedule does not know
func (a *observationAccumulator) add(log *logger.Logger, observation *gtfs.ArrivalDeparture) {
	key := gtfs.TripStopKey{TripId: observation.TripId, StopId: observation.StopId}
	if a.schedule.Lookup(key) == nil {
		a.droppedUnknownSlot++
		return
	}
	seconds := a.calendar.SecondsIntoDay(observation.Time)
	if a.frequencyTripIds[observation.TripId] {
		terminal, present := a.terminalDepartures[a.terminalKeyFor(observation)]
		if !present {
			a.droppedMissingTerminal++
			return
		}
		if terminal > seconds {
			log.Printf("skipping observation of vehicle %s trip %s stop %s at %v, before its terminal departure",
				observation.VehicleId, observation.TripId, observation.StopId, observation.Time)
			a.droppedBeforeTerminal++
			return
		}
		seconds = seconds - terminal
	}

	byRoute := a.departuresByRoute
	if observation.IsArrival {
		byRoute = a.arrivalsByRoute
	}
	byKey := byRoute[observation.RouteId]
	if byKey == nil {
		byKey = make(map[gtfs.TripStopKey][]int)
		byRoute[observation.RouteId] = byKey
	}
	times := byKey[key]
	if times == nil {
		times = make([]int, 0, expectedTimesPerKey)
	}
	byKey[key] = append(times, seconds)
}

// routeCount counts the distinct routes observations were accumulated for
func (a *observationAccumulator) routeCount() int {
	routes := make(map[string]bool, len(a.departuresByRoute))
	for routeId := range a.departuresByRoute {
		routes[routeId] = true
	}
	for routeId := range a.arrivalsByRoute {
		routes[routeId] = true
	}
	return len(routes)
}

func (a *observationAccumulator) logAnomalySummary(log *logger.Logger) {
	if a.droppedMissingTerminal > 0 {
		log.Printf("dropped %d frequency trip observations with no recorded terminal departure", a.droppedMissingTerminal)
	}
	if a.droppedBeforeTerminal > 0 {
		log.Printf("dropped %d frequency trip observations from before their terminal departure", a.droppedBeforeTerminal)
	}
	if a.droppedUnknownSlot > 0 {
		log.Printf("dropped %d observations for trip and stop pairs missing from stop_times", a.droppedUnknownSlot)
	}
}
