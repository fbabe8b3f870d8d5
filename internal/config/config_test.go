package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/realdom/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	want := &Config{
		Engine:  EngineConfig{SettleCycles: DefaultSettleCycles},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Namespace: DefaultNamespace},
		Tracing: TracingConfig{TracerName: DefaultTracerName},
		Inspect: InspectConfig{Addr: DefaultInspectAddr},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("New() mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "json",
			file: ConfigFileName,
			body: `{
  "engine": {"workers": 4},
  "log": {"level": "debug", "format": "json"},
  "metrics": {"namespace": "editor"},
  "scene": "scenes/demo.yaml"
}`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Engine.Workers != 4 {
					t.Errorf("Engine.Workers = %d, want 4", cfg.Engine.Workers)
				}
				if cfg.Engine.SettleCycles != DefaultSettleCycles {
					t.Errorf("Engine.SettleCycles = %d, want default", cfg.Engine.SettleCycles)
				}
				if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "editor" {
					t.Errorf("Metrics = %+v", cfg.Metrics)
				}
				if got, want := cfg.ScenePath(), filepath.Join(cfg.Dir(), "scenes", "demo.yaml"); got != want {
					t.Errorf("ScenePath() = %q, want %q", got, want)
				}
			},
		},
		{
			name: "yaml",
			file: YAMLConfigFileName,
			body: `engine:
  settleCycles: 3
tracing:
  enabled: true
  tracerName: editor
inspect:
  addr: ":9000"
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Engine.SettleCycles != 3 {
					t.Errorf("Engine.SettleCycles = %d, want 3", cfg.Engine.SettleCycles)
				}
				if !cfg.Tracing.Enabled || cfg.Tracing.TracerName != "editor" {
					t.Errorf("Tracing = %+v", cfg.Tracing)
				}
				if cfg.Inspect.Addr != ":9000" {
					t.Errorf("Inspect.Addr = %q", cfg.Inspect.Addr)
				}
				if cfg.Log.Format != "text" {
					t.Errorf("Log.Format = %q, want text", cfg.Log.Format)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if Exists(dir) {
				t.Fatal("Exists() on an empty dir")
			}
			if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if !Exists(dir) {
				t.Fatal("Exists() = false after writing the file")
			}
			cfg, err := Load(dir)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.Path() != filepath.Join(dir, tt.file) {
				t.Errorf("Path() = %q", cfg.Path())
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		code string
	}{
		{"missing", "", "", "E121"},
		{"bad json", ConfigFileName, `{"engine": `, "E120"},
		{"bad yaml", YAMLConfigFileName, "engine: [", "E120"},
		{"wrong type", ConfigFileName, `{"engine": {"workers": "many"}}`, "E120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.body), 0644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := Load(dir)
			if got := errors.Code(err); got != tt.code {
				t.Errorf("Code() = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); errors.Code(err) != "E121" {
		t.Errorf("LoadFile(missing) = %v, want E121", err)
	}
}

func TestJSONWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"engine": {"workers": 1}}`), 0644)
	os.WriteFile(filepath.Join(dir, YAMLConfigFileName), []byte("engine:\n  workers: 2\n"), 0644)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 1 {
		t.Errorf("Engine.Workers = %d, want 1 from %s", cfg.Engine.Workers, ConfigFileName)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		subject string
	}{
		{"valid", func(*Config) {}, ""},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }, "engine.workers"},
		{"zero settle cycles", func(c *Config) { c.Engine.SettleCycles = 0 }, "engine.settleCycles"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.subject == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("Validate() = %v, want *errors.Error", err)
			}
			if e.Code != "E122" || len(e.Subjects) != 1 || e.Subjects[0] != tt.subject {
				t.Errorf("Validate() = %s %v, want E122 %s", e.Code, e.Subjects, tt.subject)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		cfg := New()
		cfg.Log.Level = tt.level
		got, err := cfg.SlogLevel()
		if err != nil || got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, %v; want %v", tt.level, got, err, tt.want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Engine.Workers = 3
			cfg.Scene = "scene.json"
			path := filepath.Join(t.TempDir(), name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error: %v", err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error: %v", err)
			}
			if diff := cmp.Diff(cfg, loaded, cmp.AllowUnexported(Config{})); diff != "" {
				t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
			}
		})
	}
}
