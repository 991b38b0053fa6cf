package gtfs

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const stopTimesFileName = "stop_times.txt"
const frequenciesFileName = "frequencies.txt"

// ScheduleFileReader loads the schedule files the refiner revises from a gtfs directory
type ScheduleFileReader struct {
	Log       *log.Logger
	Directory string
}

// StopTimes loads the stop_times.txt file in source order, repairing row order only when the
// source violates trip grouping
func (r ScheduleFileReader) StopTimes() (*StopTimeCollection, error) {
	path := filepath.Join(r.Directory, stopTimesFileName)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			r.Log.Printf("unable to close %s, error: %v", path, closeErr)
		}
	}()

	collection, err := ParseStopTimes(file)
	if err != nil {
		return nil, err
	}
	if collection.Repaired() {
		r.Log.Printf("%s rows were out of trip order, sorted by trip_id and stop_sequence", stopTimesFileName)
	}
	r.Log.Printf("loaded %d stop time rows from %s", collection.Len(), path)
	return collection, nil
}

// ParseStopTimes reads a stop_times.txt formatted stream into a StopTimeCollection
func ParseStopTimes(r io.Reader) (*StopTimeCollection, error) {
	parser, err := makeGTFSFileParser(r, stopTimesFileName)
	if err != nil {
		return nil, err
	}

	arrivalIndex := parser.headerIndex("arrival_time")
	departureIndex := parser.headerIndex("departure_time")
	if arrivalIndex < 0 || departureIndex < 0 {
		return nil, fmt.Errorf("%s is missing arrival_time or departure_time columns", stopTimesFileName)
	}

	var rows []*StopTime
	for {
		err = parser.nextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", stopTimesFileName, err)
		}
		stopTime, err := buildStopTime(parser)
		if err != nil {
			return nil, err
		}
		rows = append(rows, stopTime)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s contains no stop time rows", stopTimesFileName)
	}
	return makeStopTimeCollection(parser.headers, arrivalIndex, departureIndex, rows), nil
}

// FrequencyTripIds loads the set of frequency based trip ids from frequencies.txt.
// A schedule without a frequencies.txt file has no frequency based trips
func (r ScheduleFileReader) FrequencyTripIds() (map[string]bool, error) {
	path := filepath.Join(r.Directory, frequenciesFileName)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.Log.Printf("no %s file present, schedule has no frequency based trips", frequenciesFileName)
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			r.Log.Printf("unable to close %s, error: %v", path, closeErr)
		}
	}()

	tripIds, err := ParseFrequencyTripIds(file)
	if err != nil {
		return nil, err
	}
	r.Log.Printf("loaded %d frequency based trips from %s", len(tripIds), path)
	return tripIds, nil
}

// ParseFrequencyTripIds reads a frequencies.txt formatted stream into the set of trip ids it names
func ParseFrequencyTripIds(r io.Reader) (map[string]bool, error) {
	parser, err := makeGTFSFileParser(r, frequenciesFileName)
	if err != nil {
		return nil, err
	}
	tripIds := make(map[string]bool)
	for {
		err = parser.nextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", frequenciesFileName, err)
		}
		frequency, err := buildFrequency(parser)
		if err != nil {
			return nil, err
		}
		tripIds[frequency.TripId] = true
	}
	return tripIds, nil
}

func buildStopTime(parser *gtfsFileParser) (*StopTime, error) {
	stopTime := StopTime{}
	stopTime.TripId = parser.getString("trip_id", false)
	stopTime.StopId = parser.getString("stop_id", false)
	stopTime.StopSequence = parser.getInt("stop_sequence", false)
	stopTime.ArrivalTime = parser.getGTFSTime("arrival_time", false)
	stopTime.DepartureTime = parser.getGTFSTime("departure_time", false)
	stopTime.record = parser.currentRecord()
	return &stopTime, parser.getError()
}
