// Package refiner generates a revised stop time table from historical arrival and departure observations
package refiner

import (
	"fmt"
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	"github.com/nats-io/nats.go"
	logger "log"
	"os"
	"time"
)

// Conf contains all configurable parameters in refiner
type Conf struct {
	BeginTime                         time.Time
	EndTime                           time.Time
	DesiredFractionEarly              float64
	AllowableDeviationFromMeanSec     int
	AllowableDeviationFromOriginalSec int
	DoNotUpdateFirstStopOfTrip        bool
	AllowableEarlySec                 int
	AllowableLateSec                  int
	PageSize                          int
	WindowChunkDays                   int
	FitIterations                     int
	SkipHolidays                      bool
	PublishOverNats                   bool
}

// ConfigError indicates refinement was started with unusable options
type ConfigError struct {
	message string
}

func (e *ConfigError) Error() string {
	return e.message
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{message: fmt.Sprintf(format, args...)}
}

// validate rejects option combinations the engine cannot run with before any I/O happens
func (c *Conf) validate() error {
	if !c.EndTime.After(c.BeginTime) {
		return configErrorf("end time %v must be after begin time %v", c.EndTime, c.BeginTime)
	}
	if c.DesiredFractionEarly < 0 || c.DesiredFractionEarly > 1 {
		return configErrorf("desired fraction early %v must be between 0 and 1", c.DesiredFractionEarly)
	}
	if c.AllowableDeviationFromMeanSec <= 0 {
		return configErrorf("allowable deviation from mean must be positive, have %d", c.AllowableDeviationFromMeanSec)
	}
	if c.AllowableDeviationFromOriginalSec <= 0 {
		return configErrorf("allowable deviation from original must be positive, have %d", c.AllowableDeviationFromOriginalSec)
	}
	if c.AllowableEarlySec <= 0 || c.AllowableLateSec <= 0 {
		return configErrorf("adherence bands must be positive, have early %d late %d", c.AllowableEarlySec, c.AllowableLateSec)
	}
	if c.PageSize <= 0 {
		return configErrorf("page size must be positive, have %d", c.PageSize)
	}
	if c.WindowChunkDays <= 0 {
		return configErrorf("window chunk days must be positive, have %d", c.WindowChunkDays)
	}
	if c.FitIterations <= 0 {
		return configErrorf("fit iterations must be positive, have %d", c.FitIterations)
	}
	return nil
}

// ScheduleReader loads the current gtfs schedule the refiner revises
type ScheduleReader interface {
	StopTimes() (*gtfs.StopTimeCollection, error)
	FrequencyTripIds() (map[string]bool, error)
}

// ScheduleWriter emits the revised stop time table
type ScheduleWriter interface {
	WriteRevisedStopTimes(collection *gtfs.StopTimeCollection, revised []*gtfs.RevisedStopTime) error
}

// ObservationSource provides paged access to historical arrival and departure observations.
// A page shorter than limit ends the window
type ObservationSource interface {
	Fetch(start time.Time, end time.Time, isArrival bool, offset int, limit int) ([]*gtfs.ArrivalDeparture, error)
}

// ServiceCalendar places observation instants into the agency's local service calendar
type ServiceCalendar interface {
	SecondsIntoDay(at time.Time) int
	DayOfYear(at time.Time) int
	DayWindows(start time.Time, end time.Time, chunkDays int) []gtfs.DayWindow
}

// RunScheduleRefinement fits per stop statistics over the observation window and writes the
// revised stop time files, then scores both schedules against the raw observations.
// Receiving on shutdownSignal between pages or routes stops the run before any output file is written
func RunScheduleRefinement(log *logger.Logger,
	conf Conf,
	reader ScheduleReader,
	source ObservationSource,
	writer ScheduleWriter,
	calendar ServiceCalendar,
	natsConnection *nats.Conn,
	shutdownSignal chan os.Signal) error {

	if err := conf.validate(); err != nil {
		return err
	}

	schedule, err := reader.StopTimes()
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}
	frequencyTripIds, err := reader.FrequencyTripIds()
	if err != nil {
		return fmt.Errorf("loading frequency trips: %w", err)
	}

	accumulator := makeObservationAccumulator(calendar, schedule, frequencyTripIds)
	ingestor := makeObservationIngestor(log, &conf, source, calendar, accumulator, shutdownSignal)

	//departures run first so the terminal departure index is complete before arrivals on
	//frequency trips are reframed against their measured trip starts
	start := time.Now()
	if ingestor.ingestKind(false) || ingestor.ingestKind(true) {
		log.Printf("Exiting on shutdown signal")
		return nil
	}
	log.Printf("ingested observations for %d routes in %s", accumulator.routeCount(), fmtDuration(time.Now().Sub(start)))
	accumulator.logAnomalySummary(log)

	arrivalStats := buildRouteStats(accumulator.arrivalsByRoute, schedule, &conf, true)
	departureStats := buildRouteStats(accumulator.departuresByRoute, schedule, &conf, false)

	routeFits, interrupted := fitRoutes(log, &conf, arrivalStats, departureStats, shutdownSignal)
	if interrupted {
		log.Printf("Exiting on shutdown signal")
		return nil
	}

	flatArrivals := flattenRouteStats(arrivalStats)
	flatDepartures := flattenRouteStats(departureStats)

	revised := buildRevisedStopTimes(schedule, flatArrivals, flatDepartures, conf.DoNotUpdateFirstStopOfTrip)
	if err = writer.WriteRevisedStopTimes(schedule, revised); err != nil {
		return fmt.Errorf("writing revised schedule: %w", err)
	}

	originalAdherence, revisedAdherence := scoreAdherence(schedule, flatArrivals, flatDepartures, &conf)
	log.Printf("adherence against original schedule, %s", originalAdherence)
	log.Printf("adherence against revised schedule, %s", revisedAdherence)

	publisher := makeRefinementResultsPublisher(log, natsConnection, conf.PublishOverNats)
	publisher.publish(&RefinementResults{
		RouteFits:         routeFits,
		OriginalAdherence: originalAdherence,
		RevisedAdherence:  revisedAdherence,
	})
	return nil
}

// flattenRouteStats collapses per route statistics into one lookup by schedule slot for emission
func flattenRouteStats(byRoute map[string]map[gtfs.TripStopKey]*stopTimeStats) map[gtfs.TripStopKey]*stopTimeStats {
	flat := make(map[gtfs.TripStopKey]*stopTimeStats)
	for _, statsByKey := range byRoute {
		for key, stats := range statsByKey {
			if _, present := flat[key]; !present {
				flat[key] = stats
			}
		}
	}
	return flat
}

// canceled reports whether a shutdown signal has arrived, without blocking
func canceled(shutdownSignal chan os.Signal) bool {
	if shutdownSignal == nil {
		return false
	}
	select {
	case <-shutdownSignal:
		return true
	default:
		return false
	}
}

//fmtDuration returns a string presentation of time.Duration for logging
func fmtDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	mill := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d.%d", h, m, mill)
}
