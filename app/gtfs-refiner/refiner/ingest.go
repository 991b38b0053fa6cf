package refiner

import (
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	logger "log"
	"os"
)

// observationIngestor drives the windowed, paged retrieval of observations into the accumulator.
// Two level batching keeps the source queries cheap, one offset scan over the whole window
// degrades as the offset grows and per row retrieval pays a round trip per observation
type observationIngestor struct {
	log            *logger.Logger
	conf           *Conf
	source         ObservationSource
	calendar       ServiceCalendar
	accumulator    *observationAccumulator
	holidays       *agencyHolidayCalendar
	shutdownSignal chan os.Signal
}

func makeObservationIngestor(log *logger.Logger,
	conf *Conf,
	source ObservationSource,
	calendar ServiceCalendar,
	accumulator *observationAccumulator,
	shutdownSignal chan os.Signal) *observationIngestor {
	return &observationIngestor{
		log:            log,
		conf:           conf,
		source:         source,
		calendar:       calendar,
		accumulator:    accumulator,
		holidays:       makeAgencyHolidayCalendar(),
		shutdownSignal: shutdownSignal,
	}
}

// ingestKind runs one full pass over the observation window for arrivals or departures.
// Returns true when a shutdown signal cut the pass short
func (i *observationIngestor) ingestKind(isArrival bool) bool {
	kind := "departure"
	if isArrival {
		kind = "arrival"
	}
	windows := i.calendar.DayWindows(i.conf.BeginTime, i.conf.EndTime, i.conf.WindowChunkDays)
	for _, window := range windows {
		if canceled(i.shutdownSignal) {
			return true
		}
		if i.conf.SkipHolidays && i.holidays.isHoliday(window.ServiceDate) {
			i.log.Printf("skipping %s observations on holiday service day %s",
				kind, window.ServiceDate.Format("2006-01-02"))
			continue
		}
		if i.ingestWindow(kind, isArrival, window) {
			return true
		}
	}
	return false
}

// ingestWindow pages through one day window. A failed page abandons the window while the job
// continues, a partial report beats no report in a batch analytics run
func (i *observationIngestor) ingestWindow(kind string, isArrival bool, window gtfs.DayWindow) bool {
	offset := 0
	pages := 0
	for {
		if canceled(i.shutdownSignal) {
			return true
		}
		observations, err := i.source.Fetch(window.Start, window.End, isArrival, offset, i.conf.PageSize)
		if err != nil {
			i.log.Printf("abandoning %s window starting %s after failed page at offset %d, error: %v",
				kind, window.Start.Format("2006-01-02"), offset, err)
			return false
		}
		i.processPage(observations, isArrival)
		pages++
		offset += len(observations)
		if len(observations) < i.conf.PageSize {
			break
		}
	}
	i.log.Printf("ingested %d %s observations in %d pages for window starting %s",
		offset, kind, pages, window.Start.Format("2006-01-02"))
	return false
}

// processPage records the page's terminal departures before filing any observation so a run's
// first stop departure can reframe later stops on the same page
func (i *observationIngestor) processPage(observations []*gtfs.ArrivalDeparture, isArrival bool) {
	if !isArrival {
		for _, observation := range observations {
			if observation.StopPathIndex == 0 && i.accumulator.frequencyTripIds[observation.TripId] {
				i.accumulator.recordTerminalDeparture(observation)
			}
		}
	}
	for _, observation := range observations {
		i.accumulator.add(i.log, observation)
	}
}
