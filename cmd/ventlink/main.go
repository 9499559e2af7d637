// Command ventlink runs the remote-control pairing and control engine
// against a real nRF905 transceiver, grounded on the pack's kong-based
// CLI structure.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/foxcroft/ventlink/internal/appconfig"
	"github.com/foxcroft/ventlink/internal/engine"
	"github.com/foxcroft/ventlink/internal/hwbus"
	"github.com/foxcroft/ventlink/internal/nrf905"
	"github.com/foxcroft/ventlink/internal/scheduler"
	"github.com/foxcroft/ventlink/internal/storage"
)

var cli struct {
	Verbose bool `help:"Prints debug output."`

	Run struct {
	} `cmd:"" help:"Pair with (or reconnect to) a main unit and serve control requests."`

	Pair struct {
		Force bool `help:"Discard any persisted pairing and rediscover."`
	} `cmd:"" help:"Force (re)discovery, then exit once paired."`

	DumpConfig struct {
	} `cmd:"" help:"Print the resolved startup configuration and exit."`
}

func main() {
	flags := kong.Parse(&cli)

	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatal("loading configuration", "err", err)
	}
	setLogLevel(cfg.Log.Level)

	switch flags.Command() {
	case "dump-config":
		fmt.Printf("%+v\n", cfg)

	case "run":
		if err := runEngine(cfg, false, false); err != nil {
			log.Fatal("engine exited", "err", err)
		}

	case "pair":
		if err := runEngine(cfg, cli.Pair.Force, true); err != nil {
			log.Fatal("pairing failed", "err", err)
		}

	default:
		log.Error("unrecognized command", "command", flags.Command())
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// runEngine wires the real hardware bus, driver, scheduler, storage,
// and engine together, then drives the engine's Loop on a fixed-period
// ticker on the main goroutine, per the single-threaded cooperative
// scheduling model. With exitWhenPaired it returns as soon as the
// engine reaches Idle with a pairing in place.
func runEngine(cfg appconfig.Config, forceDiscovery, exitWhenPaired bool) error {
	bus, err := hwbus.OpenSPIBus(cfg.Bus.SPIPort)
	if err != nil {
		return fmt.Errorf("opening SPI bus: %w", err)
	}

	pins, err := openPins(cfg)
	if err != nil {
		return fmt.Errorf("opening GPIO pins: %w", err)
	}

	clock := nrf905.SystemClock{}
	driver := nrf905.New(bus, pins, clock)
	sched := scheduler.New(driver, clock)

	storeDir := cfg.Storage.Dir
	if forceDiscovery {
		log.Info("forcing rediscovery, discarding any persisted pairing")
		storeDir += "-discard"
	}
	store := storage.NewFileStore(storeDir)

	eng := engine.New(driver, sched, clock, store, engine.CryptoEntropy{})
	eng.SetStateObserver(func(s engine.FanState) {
		log.Info("fan state", "on", s.On, "speed", s.Speed)
	})

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := eng.Loop(); err != nil {
			log.Error("engine loop error", "err", err)
		}
		if exitWhenPaired && eng.State() == engine.StateIdle {
			log.Info("paired, exiting")
			return nil
		}
	}
	return nil
}

func openPins(cfg appconfig.Config) (nrf905.Pins, error) {
	var pins nrf905.Pins
	var err error

	if pins.PWR, err = hwbus.OpenLine(cfg.Pins.PWR); err != nil {
		return pins, err
	}
	if pins.CE, err = hwbus.OpenLine(cfg.Pins.CE); err != nil {
		return pins, err
	}
	if pins.TXEN, err = hwbus.OpenLine(cfg.Pins.TXEN); err != nil {
		return pins, err
	}
	if pins.DR, err = hwbus.OpenInputLine(cfg.Pins.DR); err != nil {
		return pins, err
	}
	if pins.AM, err = hwbus.OpenInputLine(cfg.Pins.AM); err != nil {
		return pins, err
	}
	if cfg.Pins.CD != "" {
		if pins.CD, err = hwbus.OpenInputLine(cfg.Pins.CD); err != nil {
			return pins, err
		}
	}
	return pins, nil
}
