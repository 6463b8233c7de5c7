// Package run owns the process-wide registry of evolution runs and the
// operations clients drive them with: create, get, step, advance, and
// history. Every operation on one run is serialized by that run's own
// mutex; operations on different runs proceed independently.
package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/signalnine/evogen/internal/evolution"
	"github.com/signalnine/evogen/internal/genome"
)

// Sentinel errors, matched with errors.Is at the API boundary and never by
// string comparison.
var (
	ErrInvalidConfig      = errors.New("run: invalid config")
	ErrUnknownRun         = errors.New("run: unknown run id")
	ErrBadArgument        = errors.New("run: bad argument")
	ErrFitnessUnavailable = errors.New("run: fitness evaluator unavailable")
)

// Config is the client-supplied, immutable configuration for a new run.
type Config struct {
	Seed              uint64
	Population        int
	GenerationsTarget int
	MutationRate      float64
	Task              string
}

// Validate enforces §7's InvalidConfig rules.
func (c Config) Validate() error {
	if c.Population < 2 {
		return fmt.Errorf("%w: population must be >= 2, got %d", ErrInvalidConfig, c.Population)
	}
	if c.GenerationsTarget < 1 {
		return fmt.Errorf("%w: generations must be >= 1, got %d", ErrInvalidConfig, c.GenerationsTarget)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation_rate must be in [0,1], got %v", ErrInvalidConfig, c.MutationRate)
	}
	if c.Task == "" {
		return fmt.Errorf("%w: task must not be empty", ErrInvalidConfig)
	}
	return nil
}

func (c Config) toEvolutionConfig() evolution.Config {
	return evolution.Config{
		Seed:              c.Seed,
		Population:        c.Population,
		GenerationsTarget: c.GenerationsTarget,
		MutationRate:      c.MutationRate,
		Task:              c.Task,
	}
}

// Status mirrors spec.md's run.status.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Snapshot is the public, read-only view of a run returned by Get, Step,
// and Advance.
type Snapshot struct {
	RunID       string
	Generation  int
	BestFitness float64
	BestGenome  genome.Genome
	Config      Config
	Status      Status
}

// HistoryResponse is the public view returned by History.
type HistoryResponse struct {
	RunID  string
	Task   string
	Points []evolution.HistoryPoint
}

// newRunID generates an opaque unique run identifier.
func newRunID() string {
	return uuid.NewString()
}
