// Package config loads the branchobs configuration. Files are layered over
// DefaultConfig in order: user config, project config, then an explicit file.
// BRANCHOBS_* environment variables are applied last.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/adalundhe/branchobs/core/observation"
	"github.com/adalundhe/branchobs/core/storage"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Extract ExtractConfig `yaml:"extract"`
	Dataset DatasetConfig `yaml:"dataset"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ExtractConfig selects the feature extractors and how they are built.
// Extractors holds glob patterns over the registered extractor names.
type ExtractConfig struct {
	Extractors       []string `yaml:"extractors" validate:"required,min=1,dive,required,extractorglob"`
	Target           string   `yaml:"target" validate:"omitempty,target"`
	Cache            bool     `yaml:"cache"`
	Normalize        bool     `yaml:"normalize"`
	PseudoCandidates bool     `yaml:"pseudo_candidates"`
	StructureCheck   bool     `yaml:"structure_check"`
}

type DatasetConfig struct {
	Path       string `yaml:"path" validate:"required"`
	BufferSize int    `yaml:"buffer_size" validate:"gt=0"`
	HotCache   int64  `yaml:"hot_cache" validate:"gte=0"`
}

// NewLogger builds a slog logger writing to w at the configured level.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("target", validateTarget)
	_ = validate.RegisterValidation("extractorglob", validateExtractorGlob)
}

// validateTarget accepts extractors producing one value per variable.
func validateTarget(fl validator.FieldLevel) bool {
	return observation.IsVector(fl.Field().String())
}

// validateExtractorGlob accepts a pattern that compiles and matches at least
// one registered extractor.
func validateExtractorGlob(fl validator.FieldLevel) bool {
	g, err := glob.Compile(fl.Field().String())
	if err != nil {
		return false
	}
	for _, name := range observation.Extractors() {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Extract: ExtractConfig{
			Extractors: []string{"node_bipartite", "structural", "focus_node"},
			Target:     "strong_branching_scores",
			Cache:      true,
		},
		Dataset: DatasetConfig{
			Path:       storage.ResolveDirs().DatasetPath(),
			BufferSize: 4096,
			HotCache:   64 << 20,
		},
	}
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Selected expands the extractor patterns into registered names, sorted and
// without duplicates. only, when non-empty, further restricts the result.
func (c *Config) Selected(only string) ([]string, error) {
	var patterns []glob.Glob
	for _, p := range c.Extract.Extractors {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("extractor pattern %q: %w", p, err)
		}
		patterns = append(patterns, g)
	}
	var filter glob.Glob
	if only != "" {
		g, err := glob.Compile(only)
		if err != nil {
			return nil, fmt.Errorf("extractor pattern %q: %w", only, err)
		}
		filter = g
	}

	var names []string
	for _, name := range observation.Extractors() {
		if filter != nil && !filter.Match(name) {
			continue
		}
		for _, g := range patterns {
			if g.Match(name) {
				names = append(names, name)
				break
			}
		}
	}
	if len(names) == 0 {
		return nil, errors.New("no extractor selected")
	}
	return names, nil
}

// Settings returns the observation settings of the extract section.
func (c *Config) Settings() observation.Settings {
	return observation.Settings{
		Cache:            c.Extract.Cache,
		Normalize:        c.Extract.Normalize,
		PseudoCandidates: c.Extract.PseudoCandidates,
	}
}

// Manager holds the active configuration.
type Manager struct {
	cfg  atomic.Pointer[Config]
	dirs *storage.Dirs
	root string
}

// NewManager returns a Manager serving DefaultConfig until Load is called.
// root is the project directory searched for a project config.
func NewManager(dirs *storage.Dirs, root string) *Manager {
	m := &Manager{dirs: dirs, root: root}
	m.cfg.Store(DefaultConfig())
	return m
}

func (m *Manager) Get() *Config {
	return m.cfg.Load()
}

// Load rebuilds the configuration from defaults, the user and project config
// files, path (when non-empty) and the environment. The active configuration
// is replaced only if the result is valid.
func (m *Manager) Load(path string) error {
	cfg := DefaultConfig()

	if err := loadYAMLFile(m.dirs.ConfigFile(), cfg, true); err != nil {
		return fmt.Errorf("user config: %w", err)
	}
	if err := loadYAMLFile(storage.ProjectConfig(m.root), cfg, true); err != nil {
		return fmt.Errorf("project config: %w", err)
	}
	if path != "" {
		if err := loadYAMLFile(path, cfg, false); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}

	applyEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	m.cfg.Store(cfg)
	return nil
}

func loadYAMLFile(path string, cfg *Config, optional bool) error {
	data, err := os.ReadFile(path)
	if optional && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("BRANCHOBS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("BRANCHOBS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("BRANCHOBS_EXTRACTORS"); v != "" {
		cfg.Extract.Extractors = strings.Split(v, ",")
	}
	if v := os.Getenv("BRANCHOBS_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("BRANCHOBS_STRUCTURE_CHECK"); v != "" {
		cfg.Extract.StructureCheck = strings.ToLower(v) == "true"
	}
}
