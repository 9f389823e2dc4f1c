package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/indicator"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/marker"
)

// #region types
// Config is the controller configuration. Durations use Go syntax ("1s").
type Config struct {
	Source      Source      `yaml:"source"`
	Channels    Channels    `yaml:"channels"`
	Session     Session     `yaml:"session"`
	Calibration Calibration `yaml:"calibration"`
	Faults      Faults      `yaml:"faults"`
	Record      Record      `yaml:"record"`
	Indicators  Indicators  `yaml:"indicators"`
	Marker      Marker      `yaml:"marker"`
	Log         Log         `yaml:"log"`
}

// Source selects where windows come from.
type Source struct {
	Kind         string                         `yaml:"kind"` // synthetic or grpc
	Addr         string                         `yaml:"addr"`
	SamplingRate int                            `yaml:"sampling_rate"`
	Seed         int64                          `yaml:"seed"`
	Profiles     map[string]acquisition.Profile `yaml:"profiles"`
}

// Channels names the two recording channels.
type Channels struct {
	Left  string `yaml:"left"`  // C4
	Right string `yaml:"right"` // C3
}

type Session struct {
	Interval   time.Duration `yaml:"interval"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	MinDwell   int           `yaml:"min_dwell"`
}

type Calibration struct {
	LeadIn   time.Duration      `yaml:"lead_in"`
	Samples  int                `yaml:"samples"`
	Interval time.Duration      `yaml:"interval"`
	Policy   calibration.Policy `yaml:"policy"`
}

type Faults struct {
	NoiseFloor float64 `yaml:"noise_floor"`
	Ceiling    float64 `yaml:"ceiling"`
}

type Record struct {
	CSVDir   string `yaml:"csv_dir"`
	DBPath   string `yaml:"db_path"`
	FeedAddr string `yaml:"feed_addr"`
}

type Indicators struct {
	Log      bool           `yaml:"log"`
	GPIO     bool           `yaml:"gpio"`
	GPIORoot string         `yaml:"gpio_root"`
	Pins     indicator.Pins `yaml:"pins"`
	MQTT     MQTT           `yaml:"mqtt"`
}

type MQTT struct {
	Broker   string `yaml:"broker"` // host:port, empty disables
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
}

type Marker struct {
	Keyboard bool          `yaml:"keyboard"`
	Debounce time.Duration `yaml:"debounce"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// #endregion types

// #region defaults
// Default returns a complete configuration for a bench run on the
// synthetic board.
func Default() Config {
	cal := calibration.DefaultConfig()
	limits := classify.DefaultFaultLimits()
	return Config{
		Source: Source{
			Kind:         "synthetic",
			Addr:         "localhost:50061",
			SamplingRate: 250,
			Seed:         1,
			Profiles: map[string]acquisition.Profile{
				"C3": acquisition.RestProfile(),
				"C4": acquisition.RestProfile(),
			},
		},
		Channels: Channels{Left: "C4", Right: "C3"},
		Session: Session{
			Interval:   time.Second,
			RetryDelay: cal.RetryDelay,
			MinDwell:   1,
		},
		Calibration: Calibration{
			LeadIn:   cal.LeadIn,
			Samples:  cal.Samples,
			Interval: cal.Interval,
			Policy:   cal.Policy,
		},
		Faults: Faults{NoiseFloor: limits.NoiseFloor, Ceiling: limits.Ceiling},
		Record: Record{CSVDir: "logs"},
		Indicators: Indicators{
			Log:      true,
			GPIORoot: indicator.DefaultGPIORoot,
			Pins:     indicator.DefaultPins(),
			MQTT:     MQTT{ClientID: "eeg-controller", Prefix: "eeg"},
		},
		Marker: Marker{Debounce: marker.DefaultDebounce},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// #endregion defaults

// #region load
// Load reads a YAML file over the defaults, then applies environment
// overrides and validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(raw, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode unmarshals YAML into cfg, rejecting unknown keys. Fields missing
// from raw keep their current values.
func Decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from EEG_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	envOr := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	c.Source.Kind = envOr("EEG_SOURCE", c.Source.Kind)
	c.Source.Addr = envOr("EEG_SOURCE_ADDR", c.Source.Addr)
	c.Record.DBPath = envOr("EEG_DB", c.Record.DBPath)
	c.Record.CSVDir = envOr("EEG_CSV_DIR", c.Record.CSVDir)
	c.Record.FeedAddr = envOr("EEG_FEED_ADDR", c.Record.FeedAddr)
	c.Indicators.GPIORoot = envOr("EEG_GPIO_ROOT", c.Indicators.GPIORoot)
	c.Indicators.MQTT.Broker = envOr("EEG_MQTT_BROKER", c.Indicators.MQTT.Broker)
	c.Log.Level = envOr("EEG_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("EEG_LOG_FORMAT", c.Log.Format)

	if v := getenv("EEG_POLICY"); v != "" {
		c.Calibration.Policy = calibration.Policy(v)
	}
	if v := getenv("EEG_CALIBRATION_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EEG_CALIBRATION_SAMPLES: %w", err)
		}
		c.Calibration.Samples = n
	}
	if v := getenv("EEG_LEAD_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EEG_LEAD_IN: %w", err)
		}
		c.Calibration.LeadIn = d
	}
	return nil
}

// #endregion load

// #region validate
// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Source.Kind {
	case "synthetic":
		if c.Source.SamplingRate < 2 {
			errs = append(errs, fmt.Errorf("source.sampling_rate must be >= 2, got %d", c.Source.SamplingRate))
		}
	case "grpc":
		if c.Source.Addr == "" {
			errs = append(errs, errors.New("source.addr is required for grpc"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source.Kind))
	}
	if c.Channels.Left == "" || c.Channels.Right == "" {
		errs = append(errs, errors.New("channels.left and channels.right are required"))
	} else if c.Channels.Left == c.Channels.Right {
		errs = append(errs, errors.New("channels.left and channels.right must differ"))
	}
	if c.Session.Interval <= 0 {
		errs = append(errs, errors.New("session.interval must be positive"))
	}
	if c.Session.RetryDelay <= 0 {
		errs = append(errs, errors.New("session.retry_delay must be positive"))
	}
	if c.Session.MinDwell < 1 {
		errs = append(errs, errors.New("session.min_dwell must be >= 1"))
	}
	if c.Calibration.Samples < 1 {
		errs = append(errs, errors.New("calibration.samples must be >= 1"))
	}
	if c.Calibration.LeadIn < 0 || c.Calibration.Interval < 0 {
		errs = append(errs, errors.New("calibration durations must not be negative"))
	}
	switch c.Calibration.Policy {
	case calibration.PolicyShared, calibration.PolicyPerSide:
	default:
		errs = append(errs, fmt.Errorf("unknown calibration.policy %q", c.Calibration.Policy))
	}
	if c.Faults.NoiseFloor <= 0 || c.Faults.Ceiling <= c.Faults.NoiseFloor {
		errs = append(errs, errors.New("faults require 0 < noise_floor < ceiling"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// CalibrationConfig converts to the calibrator's settings.
func (c Config) CalibrationConfig() calibration.Config {
	return calibration.Config{
		LeadIn:     c.Calibration.LeadIn,
		Samples:    c.Calibration.Samples,
		Interval:   c.Calibration.Interval,
		RetryDelay: c.Session.RetryDelay,
		Policy:     c.Calibration.Policy,
	}
}

// FaultLimits converts to the classifier's limits.
func (c Config) FaultLimits() classify.FaultLimits {
	return classify.FaultLimits{NoiseFloor: c.Faults.NoiseFloor, Ceiling: c.Faults.Ceiling}
}

// #endregion validate
