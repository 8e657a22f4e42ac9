package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

const prefix = "FRONTDESK"

type config struct {
	conf.Version
	Log struct {
		Level string `conf:"default:info,help:debug, info, warn or error"`
	}
	Http struct {
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		Host            string        `conf:"default:0.0.0.0:3000"`
	}
	DB struct {
		Driver       string `conf:"default:postgres,help:postgres or sqlite"`
		User         string `conf:"default:frontdesk"`
		Password     string `conf:"default:frontdesk,mask"`
		Host         string `conf:"default:localhost"`
		Name         string `conf:"default:frontdesk"`
		MaxIdleConns int    `conf:"default:2"`
		MaxOpenConns int    `conf:"default:0"`
		DisableTLS   bool   `conf:"default:true"`
		Path         string `conf:"default:frontdesk.db"`
	}
	Desk struct {
		Rooms     []string `conf:"default:Torch Lake;Lake Skegemog;Lake Bellaire;Elk Lake;Clam Lake"`
		TimeZone  string   `conf:"default:Local"`
		WeekStart string   `conf:"default:sunday"`
		PageSize  int      `conf:"default:10"`
		Locale    string   `conf:"default:en"`
	}
	Jaeger struct {
		ReporterURI string  `conf:"default:http://localhost:14268/api/traces"`
		ServiceName string  `conf:"default:frontdesk-api"`
		Probability float64 `conf:"default:0.5"`
	}
}

// parseConfig reads an optional .env file, then the environment and flags.
// On --help it prints the usage and returns conf.ErrHelpWanted.
func parseConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := config{
		Version: conf.Version{
			Build: "develop",
			Desc:  "front desk reservation service",
		},
	}

	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
		}
		return config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
