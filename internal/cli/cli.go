package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/weft/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flags win over environment variables and the config file.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("weft", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Weft - a server-resident reactive UI engine.

Usage:
  weft [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL config file.")
	cFlag := flagSet.String("c", "", "Path to an HCL config file (shorthand).")
	listenFlag := flagSet.String("listen", "", "Address for the HTTP server, e.g. ':8090'.")
	healthPortFlag := flagSet.Int("healthcheck-port", -1, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	configPath := *configFlag
	if configPath == "" {
		configPath = *cFlag
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if *listenFlag != "" {
		config.ListenAddr = *listenFlag
	}
	if *healthPortFlag >= 0 {
		config.HealthcheckPort = *healthPortFlag
	}
	if *logFormatFlag != "" {
		logFormat := strings.ToLower(*logFormatFlag)
		if logFormat != "text" && logFormat != "json" {
			return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
		}
		config.LogFormat = logFormat
	}
	if *logLevelFlag != "" {
		logLevel := strings.ToLower(*logLevelFlag)
		switch logLevel {
		case "debug", "info", "warn", "error":
			// valid
		default:
			return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
		}
		config.LogLevel = logLevel
	}
	slog.Debug("CLI parameter validation complete.")

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
