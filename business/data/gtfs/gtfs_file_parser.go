package gtfs

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// gtfsFileParser holds information about a cvs file. Methods to read columns for records. Errors while extracting data types
// are stored in errors array which record the line number the error happened.
type gtfsFileParser struct {
	Filename       string
	line           int
	cvsReader      *csv.Reader
	headers        []string
	currentRecords []string
	errors         []error
}

// makeGTFSFileParser creates new gtfsFileParser from io.Reader
func makeGTFSFileParser(r io.Reader, filename string) (*gtfsFileParser, error) {
	csvReader := csv.NewReader(r)

	headers, err := csvReader.Read()
	removeBOMIfPresent(headers)

	if err != nil {
		return nil, fmt.Errorf("unable to load header in %s file: %v", filename, err)
	}
	return &gtfsFileParser{
		Filename:       filename,
		line:           1,
		cvsReader:      csvReader,
		headers:        headers,
		currentRecords: headers,
	}, nil
}

func removeBOMIfPresent(headers []string) {
	if len(headers) < 1 {
		return
	}
	firstHeader := headers[0]
	if len(firstHeader) < 1 {
		return
	}
	runes := []rune(firstHeader) // convert string to runes
	if runes[0] == '\uFEFF' {    //check for BOM
		headers[0] = string(runes[1:])
	}
}

// getString retrieves string
// returns empty string if missing
func (C *gtfsFileParser) getString(name string, optional bool) string {
	result, err := findValue(name, C.currentRecords, C.headers, optional)
	if err != nil {
		C.errors = append(C.errors, err)
	}
	if result == nil {
		return ""
	}
	return *result
}

// getInt retrieves int
// returns 0 if missing.
func (C *gtfsFileParser) getInt(name string, optional bool) int {
	result, err := getInt(name, C.currentRecords, C.headers, optional)
	if err != nil {
		C.errors = append(C.errors, err)
	}
	if result == nil {
		return 0
	}
	return *result
}

// getGTFSTime retrieves seconds since midnight in gtfs format from current row
// returns 0 if missing
func (C *gtfsFileParser) getGTFSTime(name string, optional bool) int {
	result, err := getGTFSTime(name, C.currentRecords, C.headers, optional)
	if err != nil {
		C.errors = append(C.errors, err)
	}
	if result == nil {
		return 0
	}
	return *result
}

// getError retrieve last error encountered while parsing csv file
func (C *gtfsFileParser) getError() error {
	if len(C.errors) > 0 {
		return fmt.Errorf("in file %v, line %v: %v", C.Filename, C.line, C.errors)
	}
	return nil
}

// headerIndex finds the column position of a header in the current file, -1 if the file lacks it
func (C *gtfsFileParser) headerIndex(name string) int {
	return indexOf(name, C.headers)
}

// currentRecord returns a copy of the current row's raw fields
func (C *gtfsFileParser) currentRecord() []string {
	record := make([]string, len(C.currentRecords))
	copy(record, C.currentRecords)
	return record
}

// nextLine moves csvReader one line forward
func (C *gtfsFileParser) nextLine() error {
	var err error
	C.currentRecords, err = C.cvsReader.Read()
	C.line += 1
	return err
}

// find index of elements that matches name string. returns -1 if not found
func indexOf(name string, elements []string) int {
	for i, value := range elements {
		if name == value {
			return i
		}
	}
	return -1
}

// findValue retrieves string value from csv records
// returns nil if record isn't present and optional is true
func findValue(name string, records []string, headers []string, optional bool) (*string, error) {
	index := indexOf(name, headers)
	if index < 0 {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to find header: %s", name)
	}
	if len(records) <= index {
		return nil, fmt.Errorf("records are too short to find header at %v named %s", index, name)
	}
	value := records[index]
	if len(value) == 0 && !optional {
		return nil, fmt.Errorf("missing required value in column %v", name)
	}
	return &value, nil
}

// getInt retrieves int from csv records
// returns nil if record isn't present and optional is true
func getInt(name string, records []string, headers []string, optional bool) (*int, error) {
	value, err := findValue(name, records, headers, optional)
	if err != nil || value == nil {
		return nil, err
	}
	if len(*value) == 0 {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("missing required value in column %v", name)
	}
	result, err := strconv.Atoi(*value)
	if err != nil {
		return nil, csvError(name, err)
	}
	return &result, nil
}

// csvError convenience method for formatting a column parse error in csv file.
func csvError(name string, err error) error {
	return fmt.Errorf("unable to parse column %s, error: %v ", name, err)
}

// getGTFSTime retrieves gtfs seconds since midnight from records
func getGTFSTime(name string, records []string, headers []string, optional bool) (*int, error) {
	value, err := findValue(name, records, headers, optional)
	if err != nil || value == nil {
		return nil, err
	}
	//check for empty string
	str := strings.TrimSpace(*value)
	if len(str) == 0 { //empty string
		if optional {
			// it's ok that its empty
			return nil, nil
		}
		// it's not ok its empty
		return nil, fmt.Errorf("missing required value in column %v", name)

	}
	result, err := secondsFromGTFSTime(str)
	if err != nil {
		return result, csvError(name, err)
	}
	return result, nil
}

// secondsFromGTFSTime parses seconds of the schedule day from string defined in gtfs as :
// Time in the HH:MM:SS format (H:MM:SS is also accepted). The time is measured from "noon minus 12h" of the service day (effectively midnight except for days on which daylight savings time changes occur). For times occurring after midnight, enter the time as a value greater than 24:00:00 in HH:MM:SS local time for the day on which the trip schedule begins.
// Example: 14:30:00 for 2:30PM or 25:35:00 for 1:35AM on the next day.
func secondsFromGTFSTime(gtfsTime string) (*int, error) {
	parts := strings.Split(gtfsTime, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected three colon separated parts in Time format: %s", gtfsTime)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, err
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, err
	}
	result := (hours * 60 * 60) + (minutes * 60) + seconds
	return &result, nil
}

// FormatGTFSTime renders schedule seconds in the gtfs HH:MM:SS format, hours running past 24 for
// after midnight service
func FormatGTFSTime(scheduleSeconds int) string {
	hours := scheduleSeconds / 3600
	minutes := (scheduleSeconds % 3600) / 60
	seconds := scheduleSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
