// Package appconfig loads the CLI's typed startup configuration via
// koanf, grounded on the pack's config.hcl + koanf/HCL wiring, adapted
// from audio-tuner settings to hardware bus/GPIO addressing and the
// engine's query interval.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/hcl"
	env "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the engine process's typed startup configuration.
type Config struct {
	Bus struct {
		SPIPort string `koanf:"spi_port"`
	} `koanf:"bus"`
	Pins struct {
		PWR  string `koanf:"pwr"`
		CE   string `koanf:"ce"`
		TXEN string `koanf:"txen"`
		DR   string `koanf:"dr"`
		AM   string `koanf:"am"`
		CD   string `koanf:"cd"`
	} `koanf:"pins"`
	Storage struct {
		Dir string `koanf:"dir"`
	} `koanf:"storage"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	QueryInterval time.Duration `koanf:"query_interval"`
	TickInterval  time.Duration `koanf:"tick_interval"`
}

// Default returns the configuration used when no config file and no
// environment overrides are present.
func Default() Config {
	var c Config
	c.Bus.SPIPort = ""
	c.Pins.PWR = "GPIO17"
	c.Pins.CE = "GPIO27"
	c.Pins.TXEN = "GPIO22"
	c.Pins.DR = "GPIO23"
	c.Pins.AM = "GPIO24"
	c.Storage.Dir = "/var/lib/ventlink"
	c.Log.Level = "info"
	c.QueryInterval = 10 * time.Second
	c.TickInterval = 10 * time.Millisecond
	return c
}

// candidatePaths are searched in order for a config.hcl file, mirroring
// the teacher's fixed three-location search.
var candidatePaths = []string{
	"/etc/ventlink/config.hcl",
	"~/.config/ventlink/config.hcl",
	"./config.hcl",
}

func findConfigFile() string {
	for _, path := range candidatePaths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			return path
		}
	}
	return ""
}

// Load builds a Config starting from Default, then layering a found
// HCL config file, then VENTLINK_-prefixed environment variables, each
// overriding the last.
func Load() (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if err := k.Load(structProvider(cfg), nil); err != nil {
		return cfg, err
	}

	if path := findConfigFile(); path != "" {
		log.Info("loading config file", "path", path)
		if err := k.Load(file.Provider(path), hcl.Parser(true)); err != nil {
			log.Error("failed to parse config file", "path", path, "err", err)
		}
	} else {
		log.Debug("no config file found, using defaults and environment")
	}

	if err := k.Load(env.ProviderWithValue("VENTLINK_", "", func(k, v string) (string, any) {
		key := strings.ToLower(strings.TrimPrefix(k, "VENTLINK_"))
		if section, rest, ok := strings.Cut(key, "_"); ok {
			switch section {
			case "bus", "pins", "storage", "log":
				key = section + "." + rest
			}
		}
		return key, v
	}), nil); err != nil {
		return cfg, err
	}

	var out Config
	if err := k.Unmarshal("", &out); err != nil {
		return cfg, fmt.Errorf("appconfig: unmarshal: %w", err)
	}
	return out, nil
}

// structProvider seeds koanf with the zero-layer defaults so a partial
// config file or partial environment override only replaces the keys
// it actually sets.
func structProvider(cfg Config) koanf.Provider {
	return structKoanfProvider{cfg}
}

type structKoanfProvider struct{ cfg Config }

func (p structKoanfProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("appconfig: ReadBytes unsupported")
}

func (p structKoanfProvider) Read() (map[string]interface{}, error) {
	return map[string]interface{}{
		"bus.spi_port":   p.cfg.Bus.SPIPort,
		"pins.pwr":       p.cfg.Pins.PWR,
		"pins.ce":        p.cfg.Pins.CE,
		"pins.txen":      p.cfg.Pins.TXEN,
		"pins.dr":        p.cfg.Pins.DR,
		"pins.am":        p.cfg.Pins.AM,
		"pins.cd":        p.cfg.Pins.CD,
		"storage.dir":    p.cfg.Storage.Dir,
		"log.level":      p.cfg.Log.Level,
		"query_interval": p.cfg.QueryInterval,
		"tick_interval":  p.cfg.TickInterval,
	}, nil
}
