package gtfs

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// StopTimeDiagnostics carries the observation statistics behind one emitted schedule time
type StopTimeDiagnostics struct {
	Mean float64
	//StdDev is NaN when fewer than two observations survived filtering
	StdDev          float64
	Min             int
	Max             int
	FilteredCount   int
	UnfilteredCount int
}

// RevisedStopTime pairs a source stop time row with the times chosen for emission and the
// statistics that produced them. Arrival and Departure diagnostics are nil when no
// observations survived for that side of the stop
type RevisedStopTime struct {
	StopTime      *StopTime
	ArrivalTime   int
	DepartureTime int
	Arrival       *StopTimeDiagnostics
	Departure     *StopTimeDiagnostics
}

// ScheduleFileWriter emits revised stop time files next to the source schedule.
// The source stop_times.txt is never touched
type ScheduleFileWriter struct {
	Log       *log.Logger
	Directory string
}

const revisedFileSuffix = "_new"
const extendedFileSuffix = "_extended"

// WriteRevisedStopTimes writes stop_times.txt_new in strict gtfs format with the same header and
// row count as the source, and stop_times.txt_extended with diagnostic columns appended.
// Both files are staged as temporary files before either is renamed into place, a failed run
// leaves no partial output
func (w ScheduleFileWriter) WriteRevisedStopTimes(collection *StopTimeCollection, revised []*RevisedStopTime) error {
	if len(revised) != collection.Len() {
		return fmt.Errorf("have %d revised rows for %d source rows", len(revised), collection.Len())
	}

	revisedPath := filepath.Join(w.Directory, stopTimesFileName+revisedFileSuffix)
	revisedTemporary, err := writeTemporary(revisedPath, func(csvWriter *csv.Writer) error {
		if err := csvWriter.Write(collection.headers); err != nil {
			return err
		}
		for _, row := range revised {
			if err := csvWriter.Write(revisedRecord(collection, row)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", revisedPath, err)
	}

	extendedPath := filepath.Join(w.Directory, stopTimesFileName+extendedFileSuffix)
	extendedTemporary, err := writeTemporary(extendedPath, func(csvWriter *csv.Writer) error {
		if err := csvWriter.Write(extendedHeaders(collection.headers)); err != nil {
			return err
		}
		for _, row := range revised {
			if err := csvWriter.Write(extendedRecord(collection, row)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = os.Remove(revisedTemporary)
		return fmt.Errorf("writing %s: %w", extendedPath, err)
	}

	if err = os.Rename(revisedTemporary, revisedPath); err != nil {
		_ = os.Remove(revisedTemporary)
		_ = os.Remove(extendedTemporary)
		return fmt.Errorf("placing %s: %w", revisedPath, err)
	}
	if err = os.Rename(extendedTemporary, extendedPath); err != nil {
		_ = os.Remove(extendedTemporary)
		_ = os.Remove(revisedPath)
		return fmt.Errorf("placing %s: %w", extendedPath, err)
	}
	w.Log.Printf("wrote %d rows to %s", len(revised), revisedPath)
	w.Log.Printf("wrote %d rows to %s", len(revised), extendedPath)
	return nil
}

// writeTemporary streams csv content into path's temporary sibling and returns its name
func writeTemporary(path string, write func(csvWriter *csv.Writer) error) (string, error) {
	temporaryPath := path + ".tmp"
	file, err := os.Create(temporaryPath)
	if err != nil {
		return "", err
	}
	csvWriter := csv.NewWriter(file)
	if err = write(csvWriter); err != nil {
		_ = file.Close()
		_ = os.Remove(temporaryPath)
		return "", err
	}
	csvWriter.Flush()
	if err = csvWriter.Error(); err != nil {
		_ = file.Close()
		_ = os.Remove(temporaryPath)
		return "", err
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(temporaryPath)
		return "", err
	}
	return temporaryPath, nil
}

// revisedRecord copies a source row and replaces its arrival and departure cells with the emitted times
func revisedRecord(collection *StopTimeCollection, row *RevisedStopTime) []string {
	record := make([]string, len(row.StopTime.record))
	copy(record, row.StopTime.record)
	record[collection.arrivalIndex] = FormatGTFSTime(row.ArrivalTime)
	record[collection.departureIndex] = FormatGTFSTime(row.DepartureTime)
	return record
}

func extendedHeaders(headers []string) []string {
	extended := make([]string, 0, len(headers)+14)
	extended = append(extended, headers...)
	for _, prefix := range []string{"arrival", "departure"} {
		extended = append(extended,
			prefix+"_original_time",
			prefix+"_min",
			prefix+"_max",
			prefix+"_mean",
			prefix+"_std_dev",
			prefix+"_n_filtered",
			prefix+"_n_unfiltered")
	}
	return extended
}

func extendedRecord(collection *StopTimeCollection, row *RevisedStopTime) []string {
	record := revisedRecord(collection, row)
	record = append(record, diagnosticCells(row.StopTime.ArrivalTime, row.Arrival)...)
	record = append(record, diagnosticCells(row.StopTime.DepartureTime, row.Departure)...)
	return record
}

// diagnosticCells renders one side's diagnostic columns, empty cells when no statistics exist
func diagnosticCells(originalTime int, diagnostics *StopTimeDiagnostics) []string {
	if diagnostics == nil {
		return []string{FormatGTFSTime(originalTime), "", "", "", "", "", ""}
	}
	stdDev := ""
	if !math.IsNaN(diagnostics.StdDev) {
		stdDev = strconv.FormatFloat(diagnostics.StdDev, 'f', 1, 64)
	}
	return []string{
		FormatGTFSTime(originalTime),
		strconv.Itoa(diagnostics.Min),
		strconv.Itoa(diagnostics.Max),
		strconv.FormatFloat(diagnostics.Mean, 'f', 1, 64),
		stdDev,
		strconv.Itoa(diagnostics.FilteredCount),
		strconv.Itoa(diagnostics.UnfilteredCount),
	}
}
