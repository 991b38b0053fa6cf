package gtfs

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenTransitTools/transitrefine/foundation/database"
	"github.com/jmoiron/sqlx"
)

// ArrivalDeparture contains one historical avl observation of a vehicle arriving at or
// departing a scheduled stop
type ArrivalDeparture struct {
	RouteId string `db:"route_id" json:"route_id"`
	TripId  string `db:"trip_id" json:"trip_id"`
	StopId  string `db:"stop_id" json:"stop_id"`
	//StopPathIndex is the position of StopId on the trip, zero at the terminal
	StopPathIndex int    `db:"stop_path_index" json:"stop_path_index"`
	VehicleId     string `db:"vehicle_id" json:"vehicle_id"`
	BlockId       string `db:"block_id" json:"block_id"`
	//Time is the absolute wall clock instant the vehicle was observed
	Time time.Time `db:"time" json:"time"`
	//IsArrival is true for an arrival observation, false for a departure
	IsArrival bool `db:"is_arrival" json:"is_arrival"`
}

// ArrivalDepartureRepository provides paged access to recorded arrival_departure rows
type ArrivalDepartureRepository struct {
	Db *sqlx.DB
	//QueryTimeout bounds each page query, a timeout abandons the window not the job
	QueryTimeout time.Duration
}

// Fetch retrieves one page of arrival or departure observations inside [start, end) ordered by
// observation time. A page shorter than limit signals the end of the window
func (r ArrivalDepartureRepository) Fetch(start time.Time,
	end time.Time,
	isArrival bool,
	offset int,
	limit int) ([]*ArrivalDeparture, error) {

	statementString := "select route_id, trip_id, stop_id, stop_path_index, vehicle_id, block_id, time, is_arrival " +
		"from arrival_departure " +
		"where time >= :start and time < :end " +
		"and is_arrival = :is_arrival " +
		"order by time, vehicle_id, trip_id, stop_id " +
		"limit :limit offset :offset"
	query, args, err := database.PrepareNamedQueryFromMap(statementString, r.Db, map[string]interface{}{
		"start":      start,
		"end":        end,
		"is_arrival": isArrival,
		"limit":      limit,
		"offset":     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to prepare arrival_departure query, error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.QueryTimeout)
	defer cancel()

	rows, err := r.Db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve arrival_departure rows, error: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]*ArrivalDeparture, 0, limit)
	for rows.Next() {
		observation := ArrivalDeparture{}
		if err = rows.StructScan(&observation); err != nil {
			return nil, fmt.Errorf("unable to scan arrival_departure row, error: %w", err)
		}
		results = append(results, &observation)
	}
	return results, rows.Err()
}
