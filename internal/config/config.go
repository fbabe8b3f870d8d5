package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/realdom/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "realdom.json"

	// YAMLConfigFileName is the name of the YAML configuration file. It is
	// used when no JSON file exists.
	YAMLConfigFileName = "realdom.yaml"

	// DefaultSettleCycles bounds Settle when nothing else is configured.
	DefaultSettleCycles = 16

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "realdom"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "realdom"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"
)

// Config represents the complete realdom.json configuration.
type Config struct {
	// Engine contains update cycle settings.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Log contains logging settings.
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// Inspect contains inspector server settings.
	Inspect InspectConfig `json:"inspect" yaml:"inspect"`

	// Scene is the path to the scene file the CLI mounts, relative to the
	// config file.
	Scene string `json:"scene,omitempty" yaml:"scene,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// EngineConfig contains update cycle settings.
type EngineConfig struct {
	// Workers is the number of states computed at once (0 = no limit).
	Workers int `json:"workers" yaml:"workers"`

	// SettleCycles is the most cycles a Settle call runs.
	SettleCycles int `json:"settleCycles" yaml:"settleCycles"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	TracerName string `json:"tracerName" yaml:"tracerName"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Addr is the address the inspector listens on.
	Addr string `json:"addr" yaml:"addr"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for realdom.json, then realdom.yaml, in the directory.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E121").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
		WithSuggestion("Create " + ConfigFileName + " or pass --config")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	name := filepath.Base(path)
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + name + ": " + err.Error()).
			WithSuggestion("Check that " + name + " is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Engine.SettleCycles == 0 {
		c.Engine.SettleCycles = DefaultSettleCycles
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.Engine.Workers < 0:
		return errors.New("E122").
			WithSubjects("engine.workers").
			WithDetail("engine.workers must not be negative")
	case c.Engine.SettleCycles < 1:
		return errors.New("E122").
			WithSubjects("engine.settleCycles").
			WithDetail("engine.settleCycles must be at least 1")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E122").
			WithSubjects("log.format").
			WithDetailf("log.format is %q", c.Log.Format).
			WithSuggestion("Use text or json")
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E122").
			WithSubjects("log.level").
			WithDetailf("log.level is %q", c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}
	return l, nil
}

// ScenePath returns the scene file path, resolved against the config
// directory. It is empty if no scene is configured.
func (c *Config) ScenePath() string {
	if c.Scene == "" || filepath.IsAbs(c.Scene) {
		return c.Scene
	}
	return filepath.Join(c.Dir(), c.Scene)
}

// Exists checks if a configuration file exists in the directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
