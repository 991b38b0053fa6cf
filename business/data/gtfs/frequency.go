package gtfs

// Frequency contains a record from a gtfs frequencies.txt file.
// A trip appearing here runs on a headway inside a service window instead of at the fixed
// times in stop_times.txt, so each physical run has its own measured start
type Frequency struct {
	TripId      string
	StartTime   int
	EndTime     int
	HeadwaySecs int
	ExactTimes  int
}

func buildFrequency(parser *gtfsFileParser) (*Frequency, error) {
	frequency := Frequency{}
	frequency.TripId = parser.getString("trip_id", false)
	frequency.StartTime = parser.getGTFSTime("start_time", false)
	frequency.EndTime = parser.getGTFSTime("end_time", false)
	frequency.HeadwaySecs = parser.getInt("headway_secs", false)
	frequency.ExactTimes = parser.getInt("exact_times", true)
	return &frequency, parser.getError()
}
