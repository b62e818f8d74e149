package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Config holds everything an App instance needs to run. Precedence when
// assembling one: defaults, then the HCL file, then environment
// variables; CLI flags are applied last by the caller.
type Config struct {
	// ListenAddr is the address the HTTP server binds.
	ListenAddr string `env:"WEFT_LISTEN_ADDR"`

	// HealthcheckPort serves /health on a separate listener. 0 disables it.
	HealthcheckPort int `env:"WEFT_HEALTHCHECK_PORT"`

	LogFormat string `env:"WEFT_LOG_FORMAT"`
	LogLevel  string `env:"WEFT_LOG_LEVEL"`
}

// fileConfig is the HCL shape of a config file:
//
//	server {
//	  listen_addr      = ":8090"
//	  healthcheck_port = 8091
//	  log_format       = "text"
//	  log_level        = "debug"
//	}
type fileConfig struct {
	Server *serverBlock `hcl:"server,block"`
}

type serverBlock struct {
	ListenAddr      *string `hcl:"listen_addr,optional"`
	HealthcheckPort *int    `hcl:"healthcheck_port,optional"`
	LogFormat       *string `hcl:"log_format,optional"`
	LogLevel        *string `hcl:"log_level,optional"`
}

// DefaultConfig returns the baseline settings.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8090",
		LogFormat:  "json",
		LogLevel:   "info",
	}
}

// LoadConfig assembles a Config from defaults, an optional HCL file, and
// the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}
	// Level and format are matched case-insensitively everywhere, so store
	// the canonical form.
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing config file %s: %s", path, diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &fc); diags.HasErrors() {
		return fmt.Errorf("decoding config file %s: %s", path, diags.Error())
	}
	if fc.Server == nil {
		return nil
	}

	if fc.Server.ListenAddr != nil {
		c.ListenAddr = *fc.Server.ListenAddr
	}
	if fc.Server.HealthcheckPort != nil {
		c.HealthcheckPort = *fc.Server.HealthcheckPort
	}
	if fc.Server.LogFormat != nil {
		c.LogFormat = *fc.Server.LogFormat
	}
	if fc.Server.LogLevel != nil {
		c.LogLevel = *fc.Server.LogLevel
	}
	return nil
}

// evalContext exposes the process environment to config expressions as
// the `env` object, e.g. listen_addr = env.PORT.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel)
	}
	return nil
}
