package run

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/signalnine/evogen/internal/evolution"
	"github.com/signalnine/evogen/internal/obs"
)

// entry pairs a run's mutable state with the mutex that serializes every
// operation on it. The mutex is held for the duration of one operation;
// there is no finer granularity because a step must be atomic with respect
// to concurrent Get calls (SPEC_FULL.md §5).
type entry struct {
	mu    sync.Mutex
	state *evolution.State
}

// Manager is the process-wide registry of runs, keyed by run id. Manager
// itself is safe for concurrent use: the registry map is guarded by regMu
// for inserts and lookups, while per-run mutation is guarded by each
// entry's own mutex so independent runs never block each other.
type Manager struct {
	regMu sync.RWMutex
	runs  map[string]*entry

	scorer  evolution.Scorer
	logger  *slog.Logger
	metrics *obs.Metrics
}

// NewManager builds an empty registry backed by scorer for fitness calls.
func NewManager(scorer evolution.Scorer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runs:   make(map[string]*entry),
		scorer: scorer,
		logger: logger,
	}
}

// WithMetrics attaches metrics so Create/Step/Advance record run and generation
// counts. Returns the receiver for chaining after NewManager.
func (m *Manager) WithMetrics(metrics *obs.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Create validates cfg, builds generation 0, and registers the run. No run
// is stored if validation or initial scoring fails.
func (m *Manager) Create(ctx context.Context, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	st, err := evolution.Initialize(ctx, cfg.toEvolutionConfig(), m.scorer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFitnessUnavailable, err)
	}

	id := newRunID()
	m.regMu.Lock()
	m.runs[id] = &entry{state: st}
	m.regMu.Unlock()

	if m.metrics != nil {
		m.metrics.RunsCreated.Inc()
	}
	m.logger.Info("run created", "run_id", id, "task", cfg.Task, "population", cfg.Population)
	return id, nil
}

func (m *Manager) lookup(runID string) (*entry, error) {
	m.regMu.RLock()
	e, ok := m.runs[runID]
	m.regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return e, nil
}

// Get returns a snapshot of the run's current state.
func (m *Manager) Get(runID string) (Snapshot, error) {
	e, err := m.lookup(runID)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotOf(runID, e.state), nil
}

// Step performs one generation. It is a no-op returning the current state
// if the run is already completed. A FitnessUnavailable error leaves the
// run's stored state untouched.
func (m *Manager) Step(ctx context.Context, runID string) (Snapshot, error) {
	e, err := m.lookup(runID)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := evolution.Step(ctx, e.state, m.scorer)
	if err != nil {
		m.logger.Warn("fitness evaluation failed", "run_id", runID, "error", err)
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFitnessUnavailable, err)
	}
	advanced := next != e.state
	e.state = next
	if m.metrics != nil && advanced {
		m.metrics.StepsProcessed.Inc()
	}
	return snapshotOf(runID, e.state), nil
}

// Advance performs up to steps generations, stopping early if the run
// completes. steps must be >= 1.
func (m *Manager) Advance(ctx context.Context, runID string, steps int) (Snapshot, error) {
	if steps < 1 {
		return Snapshot{}, fmt.Errorf("%w: steps must be >= 1, got %d", ErrBadArgument, steps)
	}

	e, err := m.lookup(runID)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// Commit each successful generation as it completes, so a failure
	// partway through a multi-step Advance only aborts the one failing
	// step rather than discarding generations that already scored cleanly.
	for i := 0; i < steps; i++ {
		if e.state.Completed {
			break
		}
		next, err := evolution.Step(ctx, e.state, m.scorer)
		if err != nil {
			m.logger.Warn("fitness evaluation failed", "run_id", runID, "error", err)
			return Snapshot{}, fmt.Errorf("%w: %v", ErrFitnessUnavailable, err)
		}
		e.state = next
		if m.metrics != nil {
			m.metrics.StepsProcessed.Inc()
		}
	}
	return snapshotOf(runID, e.state), nil
}

// History returns the full ordered history for a run.
func (m *Manager) History(runID string) (HistoryResponse, error) {
	e, err := m.lookup(runID)
	if err != nil {
		return HistoryResponse{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	points := make([]evolution.HistoryPoint, len(e.state.History))
	copy(points, e.state.History)
	return HistoryResponse{
		RunID:  runID,
		Task:   e.state.Config.Task,
		Points: points,
	}, nil
}

func snapshotOf(runID string, st *evolution.State) Snapshot {
	status := StatusRunning
	if st.Completed {
		status = StatusCompleted
	}
	return Snapshot{
		RunID:       runID,
		Generation:  st.Generation,
		BestFitness: st.BestFitness,
		BestGenome:  st.BestGenome,
		Status:      status,
		Config: Config{
			Seed:              st.Config.Seed,
			Population:        st.Config.Population,
			GenerationsTarget: st.Config.GenerationsTarget,
			MutationRate:      st.Config.MutationRate,
			Task:              st.Config.Task,
		},
	}
}
