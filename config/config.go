package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/espressobar/brewsched/core/dispatch"
	"github.com/espressobar/brewsched/core/metrics"
	"github.com/espressobar/brewsched/simulator"
)

type Config struct {
	Dispatch   dispatch.Config  `json:"dispatch"`
	Metrics    metrics.Config   `json:"metrics"`
	Complaints ComplaintsConfig `json:"complaints"`
	API        APIConfig        `json:"api"`
	Simulator  simulator.Config `json:"simulator"`
}

// ComplaintsConfig selects the complaint store backend.
type ComplaintsConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the sqlite database location.
	Path string `json:"path"`
}

func (c *ComplaintsConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		c.Path = "complaints.db"
	}
}

func (c ComplaintsConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown complaints backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("complaints path is required")
	}
	return nil
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a Bearer token on every request.
	Token string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("BREW_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "brew_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Dispatch.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Complaints.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Simulator.SetDefaults()
	if err := cfg.Complaints.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Simulator.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
