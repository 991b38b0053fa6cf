package main

import (
	"fmt"
	"github.com/OpenTransitTools/transitrefine/app/gtfs-refiner/refiner"
	"github.com/OpenTransitTools/transitrefine/business/data/gtfs"
	"github.com/OpenTransitTools/transitrefine/foundation/database"
	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "GTFS_REFINER : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		DB   struct {
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		NATS struct {
			URL string `conf:"default:localhost"`
		}
		GTFS struct {
			Directory string `conf:"default:./gtfs"`
			Timezone  string `conf:"default:America/Los_Angeles"`
		}
		BeginTime                         string  `conf:"required"`
		EndTime                           string  `conf:"required"`
		DesiredFractionEarly              float64 `conf:"default:0.2"`
		AllowableDeviationFromMeanSec     int     `conf:"default:1200"`
		AllowableDeviationFromOriginalSec int     `conf:"default:1800"`
		DoNotUpdateFirstStopOfTrip        bool    `conf:"default:true"`
		AllowableEarlySec                 int     `conf:"default:60"`
		AllowableLateSec                  int     `conf:"default:300"`
		PageSize                          int     `conf:"default:500000"`
		WindowChunkDays                   int     `conf:"default:1"`
		FitIterations                     int     `conf:"default:5"`
		SkipHolidays                      bool    `conf:"default:false"`
		PageTimeoutSeconds                int     `conf:"default:120"`
		PublishOverNats                   bool    `conf:"default:false"`
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Fits per stop statistics over historical arrival and departure observations " +
		"and writes a revised stop_times table with a schedule adherence comparison"
	const prefix = "REFINER"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			printUsage(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	location, err := time.LoadLocation(cfg.GTFS.Timezone)
	if err != nil {
		return fmt.Errorf("loading agency timezone %s: %w", cfg.GTFS.Timezone, err)
	}
	beginTime, err := time.ParseInLocation("2006-01-02", cfg.BeginTime, location)
	if err != nil {
		return fmt.Errorf("parsing begin time %s: %w", cfg.BeginTime, err)
	}
	endTime, err := time.ParseInLocation("2006-01-02", cfg.EndTime, location)
	if err != nil {
		return fmt.Errorf("parsing end time %s: %w", cfg.EndTime, err)
	}
	if _, err = os.Stat(cfg.GTFS.Directory); err != nil {
		return fmt.Errorf("gtfs directory %s is not usable: %w", cfg.GTFS.Directory, err)
	}

	// =========================================================================
	// Start Database

	log.Println("main: Initializing database support")

	db, err := database.Open(database.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Printf("main: Database Stopping : %s", cfg.DB.Host)
		err = db.Close()
		if err != nil {
			log.Printf("main: error closing database: %v", err)
		}
	}()

	// =========================================================================
	// Start nats when results should be published

	var natsConnection *nats.Conn
	if cfg.PublishOverNats {
		log.Printf("main: Connecting to NATS\n")
		natsConnection, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("unable to establish connection to nats server: %w", err)
		}
		defer func() {
			log.Printf("main: closing connection to NATS")
			natsConnection.Close()
		}()
	}

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return refiner.RunScheduleRefinement(log,
		refiner.Conf{
			BeginTime:                         beginTime,
			EndTime:                           endTime,
			DesiredFractionEarly:              cfg.DesiredFractionEarly,
			AllowableDeviationFromMeanSec:     cfg.AllowableDeviationFromMeanSec,
			AllowableDeviationFromOriginalSec: cfg.AllowableDeviationFromOriginalSec,
			DoNotUpdateFirstStopOfTrip:        cfg.DoNotUpdateFirstStopOfTrip,
			AllowableEarlySec:                 cfg.AllowableEarlySec,
			AllowableLateSec:                  cfg.AllowableLateSec,
			PageSize:                          cfg.PageSize,
			WindowChunkDays:                   cfg.WindowChunkDays,
			FitIterations:                     cfg.FitIterations,
			SkipHolidays:                      cfg.SkipHolidays,
			PublishOverNats:                   cfg.PublishOverNats,
		},
		gtfs.ScheduleFileReader{Log: log, Directory: cfg.GTFS.Directory},
		gtfs.ArrivalDepartureRepository{
			Db:           db,
			QueryTimeout: time.Duration(cfg.PageTimeoutSeconds) * time.Second,
		},
		gtfs.ScheduleFileWriter{Log: log, Directory: cfg.GTFS.Directory},
		gtfs.AgencyCalendar{Location: location},
		natsConnection,
		shutdown)
}

func printUsage(confUsage string) {
	fmt.Println(confUsage)
}
