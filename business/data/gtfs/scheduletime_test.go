package gtfs

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestMakeScheduleTime(t *testing.T) {
	location, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Errorf("Unable to get testing time zone location")
		return
	}
	type args struct {
		timeAt12        time.Time
		scheduleSeconds int
	}
	tests := []struct {
		name string
		args args
		want time.Time
	}{
		{
			name: "12am",
			args: args{
				timeAt12:        time.Date(2020, 1, 9, 0, 0, 0, 0, location),
				scheduleSeconds: 0,
			},
			want: time.Date(2020, 1, 9, 0, 0, 0, 0, location),
		},
		{
			name: "12pm",
			args: args{
				timeAt12:        time.Date(2020, 1, 9, 0, 0, 0, 0, location),
				scheduleSeconds: 43200,
			},
			want: time.Date(2020, 1, 9, 12, 0, 0, 0, location),
		},
		{
			name: "12:30pm, on fall back day",
			args: args{
				timeAt12:        time.Date(2018, 11, 4, 0, 0, 0, 0, location),
				scheduleSeconds: 45000,
			},
			want: time.Date(2018, 11, 4, 12, 30, 0, 0, location),
		},
		{
			name: "12:30pm, on spring forward day",
			args: args{
				timeAt12:        time.Date(2019, 3, 10, 0, 0, 0, 0, location),
				scheduleSeconds: 45000,
			},
			want: time.Date(2019, 3, 10, 12, 30, 0, 0, location),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeScheduleTime(tt.args.timeAt12, tt.args.scheduleSeconds); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MakeScheduleTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSecondsIntoDay(t *testing.T) {
	location, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Errorf("Unable to get testing time zone location")
		return
	}
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{
			name: "midnight",
			at:   time.Date(2020, 1, 9, 0, 0, 0, 0, location),
			want: 0,
		},
		{
			name: "noon",
			at:   time.Date(2020, 1, 9, 12, 0, 0, 0, location),
			want: 43200,
		},
		{
			name: "12:30pm on spring forward day",
			at:   time.Date(2019, 3, 10, 12, 30, 0, 0, location),
			want: 45000,
		},
		{
			name: "12:30pm on fall back day",
			at:   time.Date(2018, 11, 4, 12, 30, 0, 0, location),
			want: 45000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecondsIntoDay(tt.at); got != tt.want {
				t.Errorf("SecondsIntoDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitIntoDayWindows(t *testing.T) {
	tests := []struct {
		name      string
		giveStart time.Time
		giveEnd   time.Time
		chunkDays int
		want      []DayWindow
	}{
		{
			name:      "single partial day",
			giveStart: time.Date(2022, 6, 1, 9, 45, 0, 0, time.UTC),
			giveEnd:   time.Date(2022, 6, 1, 12, 45, 0, 0, time.UTC),
			chunkDays: 1,
			want: []DayWindow{
				{
					ServiceDate: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
					Start:       time.Date(2022, 6, 1, 9, 45, 0, 0, time.UTC),
					End:         time.Date(2022, 6, 1, 12, 45, 0, 0, time.UTC),
				},
			},
		},
		{
			name:      "three day span clamps first and last window",
			giveStart: time.Date(2022, 6, 1, 9, 45, 0, 0, time.UTC),
			giveEnd:   time.Date(2022, 6, 3, 1, 0, 0, 0, time.UTC),
			chunkDays: 1,
			want: []DayWindow{
				{
					ServiceDate: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
					Start:       time.Date(2022, 6, 1, 9, 45, 0, 0, time.UTC),
					End:         time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC),
				},
				{
					ServiceDate: time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC),
					Start:       time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC),
					End:         time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
				},
				{
					ServiceDate: time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
					Start:       time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
					End:         time.Date(2022, 6, 3, 1, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			name:      "two day chunks",
			giveStart: time.Date(2022, 6, 1, 9, 45, 0, 0, time.UTC),
			giveEnd:   time.Date(2022, 6, 3, 1, 0, 0, 0, time.UTC),
			chunkDays: 2,
			want: []DayWindow{
				{
					ServiceDate: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
					Start:       time.Date(2022, 6, 1, 9, 45, 0, 0, time.UTC),
					End:         time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
				},
				{
					ServiceDate: time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
					Start:       time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
					End:         time.Date(2022, 6, 3, 1, 0, 0, 0, time.UTC),
				},
			},
		},
	}
	for row, tt := range tests {
		t.Run("row: "+strconv.Itoa(row), func(t *testing.T) {
			is := is.New(t)
			result := SplitIntoDayWindows(tt.giveStart, tt.giveEnd, tt.chunkDays)
			is.Equal(len(tt.want), len(result))
			if len(tt.want) == len(result) {
				for i, wanted := range tt.want {
					got := result[i]
					is.Equal(wanted.ServiceDate, got.ServiceDate)
					is.Equal(wanted.Start, got.Start)
					is.Equal(wanted.End, got.End)
				}
			}
		})
	}
}

func TestAgencyCalendar_DayOfYear(t *testing.T) {
	location, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Errorf("Unable to get testing time zone location")
		return
	}
	calendar := AgencyCalendar{Location: location}
	//8:30pm UTC on feb 1 is still feb 1 in los angeles
	got := calendar.DayOfYear(time.Date(2022, 2, 1, 20, 30, 0, 0, time.UTC))
	if got != 32 {
		t.Errorf("DayOfYear() = %v, want 32", got)
	}
	//3am UTC on feb 2 is still feb 1 in los angeles
	got = calendar.DayOfYear(time.Date(2022, 2, 2, 3, 0, 0, 0, time.UTC))
	if got != 32 {
		t.Errorf("DayOfYear() = %v, want 32", got)
	}
}
