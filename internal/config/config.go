// Package config parses cmd/engine's command-line flags and environment
// overrides per SPEC_FULL.md §6.3.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/signalnine/evogen/internal/obs"
)

// Config is the fully resolved engine configuration.
type Config struct {
	Port           int
	FitnessURL     string
	FitnessTimeout time.Duration
	LogLevel       string
}

const (
	defaultPort           = 8080
	defaultFitnessURL     = "http://127.0.0.1:8090"
	defaultFitnessTimeout = 30 * time.Second
	defaultLogLevel       = "info"
)

// Parse builds a Config from args (os.Args[1:] in production). ENGINE_PORT
// and FITNESS_URL environment values override the built-in defaults
// before flags are parsed, so an explicit flag still wins over the
// environment. env is typically os.Getenv; tests pass a stub.
func Parse(args []string, env func(string) string) (Config, error) {
	fs := flag.NewFlagSet("engine", flag.ContinueOnError)

	port := defaultPort
	if v := env("ENGINE_PORT"); v != "" {
		parsed, err := fmt.Sscanf(v, "%d", &port)
		if err != nil || parsed != 1 {
			return Config{}, fmt.Errorf("config: invalid ENGINE_PORT %q", v)
		}
	}
	fitnessURL := defaultFitnessURL
	if v := env("FITNESS_URL"); v != "" {
		fitnessURL = v
	}

	fs.IntVar(&port, "port", port, "HTTP port to listen on")
	fs.StringVar(&fitnessURL, "fitness-url", fitnessURL, "base URL of the fitness evaluator")
	fitnessTimeout := fs.Duration("fitness-timeout", defaultFitnessTimeout, "timeout for fitness evaluator calls")
	logLevel := fs.String("log-level", defaultLogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("config: port out of range: %d", port)
	}
	if *fitnessTimeout <= 0 {
		return Config{}, fmt.Errorf("config: fitness-timeout must be positive, got %v", *fitnessTimeout)
	}
	if err := obs.ValidateLevel(*logLevel); err != nil {
		return Config{}, err
	}

	return Config{
		Port:           port,
		FitnessURL:     fitnessURL,
		FitnessTimeout: *fitnessTimeout,
		LogLevel:       *logLevel,
	}, nil
}
