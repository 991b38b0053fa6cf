package refiner

import (
	logger "log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	"github.com/matryer/is"
)

func testLogger() *logger.Logger {
	return logger.New(os.Stdout, "TEST : ", 0)
}

func testSchedule(t *testing.T) *gtfs.StopTimeCollection {
	csvContent := "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"t1,07:00:00,07:00:00,A,1\n" +
		"t1,07:04:00,07:04:30,B,2\n" +
		"t1,07:09:00,07:09:00,C,3\n" +
		"f1,00:00:00,00:00:00,A,1\n" +
		"f1,00:08:00,00:08:00,B,2\n"
	collection, err := gtfs.ParseStopTimes(strings.NewReader(csvContent))
	if err != nil {
		t.Fatalf("unable to parse test stop times: %v", err)
	}
	return collection
}

func testFrequencyTripIds() map[string]bool {
	return map[string]bool{"f1": true}
}

func testObservation(tripId string, stopId string, stopPathIndex int, at time.Time, isArrival bool) *gtfs.ArrivalDeparture {
	return &gtfs.ArrivalDeparture{
		RouteId:       "r1",
		TripId:        tripId,
		StopId:        stopId,
		StopPathIndex: stopPathIndex,
		VehicleId:     "v1",
		BlockId:       "b1",
		Time:          at,
		IsArrival:     isArrival,
	}
}

func TestObservationAccumulator_regularTripUsesSecondsIntoDay(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	accumulator.add(testLogger(), testObservation("t1", "B", 1,
		time.Date(2022, 3, 8, 7, 4, 10, 0, time.UTC), true))

	times := accumulator.arrivalsByRoute["r1"][gtfs.TripStopKey{TripId: "t1", StopId: "B"}]
	is.Equal([]int{(7 * 60 * 60) + (4 * 60) + 10}, times)
}

func TestObservationAccumulator_frequencyTripReframesAgainstTerminal(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	//terminal departure measured at 07:03:00, a stop reached at 07:11:30 is 510 seconds into the run
	accumulator.recordTerminalDeparture(testObservation("f1", "A", 0,
		time.Date(2022, 3, 8, 7, 3, 0, 0, time.UTC), false))
	accumulator.add(testLogger(), testObservation("f1", "B", 1,
		time.Date(2022, 3, 8, 7, 11, 30, 0, time.UTC), true))

	times := accumulator.arrivalsByRoute["r1"][gtfs.TripStopKey{TripId: "f1", StopId: "B"}]
	is.Equal([]int{510}, times)
}

func TestObservationAccumulator_skipsObservationBeforeTerminal(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	accumulator.recordTerminalDeparture(testObservation("f1", "A", 0,
		time.Date(2022, 3, 8, 7, 3, 0, 0, time.UTC), false))
	accumulator.add(testLogger(), testObservation("f1", "B", 1,
		time.Date(2022, 3, 8, 6, 55, 0, 0, time.UTC), true))

	is.Equal(0, len(accumulator.arrivalsByRoute))
	is.Equal(1, accumulator.droppedBeforeTerminal)
}

func TestObservationAccumulator_skipsFrequencyObservationWithoutTerminal(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	accumulator.add(testLogger(), testObservation("f1", "B", 1,
		time.Date(2022, 3, 8, 7, 11, 30, 0, time.UTC), true))

	is.Equal(0, len(accumulator.arrivalsByRoute))
	is.Equal(1, accumulator.droppedMissingTerminal)
}

// a later first stop departure for the same run replaces the earlier one
func TestObservationAccumulator_laterTerminalDepartureOverwrites(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	accumulator.recordTerminalDeparture(testObservation("f1", "A", 0,
		time.Date(2022, 3, 8, 7, 0, 0, 0, time.UTC), false))
	accumulator.recordTerminalDeparture(testObservation("f1", "A", 0,
		time.Date(2022, 3, 8, 7, 3, 0, 0, time.UTC), false))
	accumulator.add(testLogger(), testObservation("f1", "B", 1,
		time.Date(2022, 3, 8, 7, 11, 30, 0, time.UTC), true))

	times := accumulator.arrivalsByRoute["r1"][gtfs.TripStopKey{TripId: "f1", StopId: "B"}]
	is.Equal([]int{510}, times)
}

// the same block covered by another vehicle on the same day is a different run
func TestObservationAccumulator_terminalKeyedByVehicle(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	accumulator.recordTerminalDeparture(testObservation("f1", "A", 0,
		time.Date(2022, 3, 8, 7, 3, 0, 0, time.UTC), false))
	otherVehicle := testObservation("f1", "B", 1, time.Date(2022, 3, 8, 7, 11, 30, 0, time.UTC), true)
	otherVehicle.VehicleId = "v2"
	accumulator.add(testLogger(), otherVehicle)

	is.Equal(0, len(accumulator.arrivalsByRoute))
	is.Equal(1, accumulator.droppedMissingTerminal)
}

func TestObservationAccumulator_dropsUnknownScheduleSlot(t *testing.T) {
	is := is.New(t)
	accumulator := makeObservationAccumulator(gtfs.AgencyCalendar{Location: time.UTC}, testSchedule(t), testFrequencyTripIds())

	accumulator.add(testLogger(), testObservation("unknown-trip", "B", 1,
		time.Date(2022, 3, 8, 7, 4, 10, 0, time.UTC), true))

	is.Equal(0, len(accumulator.arrivalsByRoute))
	is.Equal(1, accumulator.droppedUnknownSlot)
}
