package server

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/railyard/interlocking-sim/simulation"
)

// Config is the process-level configuration for one server instance: where
// to listen, which layout/schedule to load, and the Options a freshly
// loaded Simulation should start with.
type Config struct {
	Addr string
	Port string

	LayoutFile   string
	ScheduleFile string

	Options simulation.Options
}

// ParseFlags builds a Config from command-line flags. The listen address,
// port, layout path and schedule path fall back to environment variables
// (RAILYARD_*) when not passed explicitly; the other flags have no
// environment fallback.
func ParseFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("railyard-sim", flag.ContinueOnError)

	cfg := &Config{Options: simulation.DefaultOptions()}
	fs.StringVar(&cfg.Addr, "addr", envOr("RAILYARD_ADDR", DefaultAddr), "address to listen on")
	fs.StringVar(&cfg.Port, "port", envOr("RAILYARD_PORT", DefaultPort), "port to listen on")
	fs.StringVar(&cfg.LayoutFile, "layout", envOr("RAILYARD_LAYOUT", ""), "path to a layout JSON file")
	fs.StringVar(&cfg.ScheduleFile, "schedule", envOr("RAILYARD_SCHEDULE", ""), "path to a schedule CSV file")
	fs.StringVar(&cfg.Options.Title, "title", cfg.Options.Title, "section title shown on the home page")
	fs.StringVar(&cfg.Options.Description, "description", cfg.Options.Description, "section description")
	fs.IntVar(&cfg.Options.SimSpeed, "sim-speed", cfg.Options.SimSpeed, "ticks per wall-clock second")
	fs.BoolVar(&cfg.Options.AIControl, "ai-control", cfg.Options.AIControl, "start with the AI signal controller enabled")
	fs.BoolVar(&cfg.Options.SuggestionsEnabled, "suggestions", cfg.Options.SuggestionsEnabled, "compute operator suggestions")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadSimulation reads the Config's layout and schedule files and builds a
// ready-to-run Simulation.
func LoadSimulation(cfg *Config) (*simulation.Simulation, error) {
	layout, err := simulation.LoadLayoutFile(cfg.LayoutFile)
	if err != nil {
		return nil, err
	}
	sched, err := loadSchedule(cfg.ScheduleFile)
	if err != nil {
		return nil, err
	}
	return simulation.NewSimulation(layout, sched, cfg.Options), nil
}

func loadSchedule(path string) (simulation.ScheduleSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if json.Valid(b) {
		return simulation.LoadScheduleFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return simulation.LoadScheduleCSV(f)
}
