// Package evolution implements the generational loop that drives a single
// run: population initialization, tournament selection with elitism,
// mutation-only reproduction, and history recording. It never touches the
// run registry or HTTP surface — those live in internal/run and
// internal/api.
package evolution

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/evogen/internal/genome"
	"github.com/signalnine/evogen/internal/rng"
)

// probeInput is the fixed scalar fed to the local diagnostic VM pass.
const probeInput = 1.0

// TournamentSize is the number of candidates sampled per tournament slot.
const TournamentSize = 3

// Scorer is the fitness client contract the engine depends on. It is
// satisfied by *fitness.Client; defined here as a narrow interface so the
// engine can be tested without a live evaluator.
type Scorer interface {
	Score(ctx context.Context, task string, genomes []genome.Genome) ([]float64, error)
}

// Config holds the immutable parameters of one run.
type Config struct {
	Seed              uint64
	Population        int
	GenerationsTarget int
	MutationRate      float64
	Task              string
}

// HistoryPoint records the best fitness observed as of one completed
// generation.
type HistoryPoint struct {
	Generation  int
	BestFitness float64
}

// State is the evolvable state of a single run: everything Step mutates.
type State struct {
	Config      Config
	Stream      *rng.Stream
	Generation  int
	Pop         Population
	BestGenome  genome.Genome
	BestFitness float64
	History     []HistoryPoint
	Completed   bool
}

// Initialize builds generation 0: a random population scored by scorer,
// with BestGenome/BestFitness set to the argmax and a single history point
// appended. It is the only place a State's population starts empty.
func Initialize(ctx context.Context, cfg Config, scorer Scorer) (*State, error) {
	stream := rng.NewStream(cfg.Seed)

	pop := make(Population, cfg.Population)
	for i := range pop {
		pop[i].Genome = genome.Random(stream, genome.MinGenomeLen, 16)
	}
	probeDiagnostics(ctx, pop)

	fitnesses, err := scorer.Score(ctx, cfg.Task, pop.Genomes())
	if err != nil {
		return nil, err
	}
	for i := range pop {
		pop[i].Fitness = fitnesses[i]
	}

	best := pop.Best()
	st := &State{
		Config:      cfg,
		Stream:      stream,
		Generation:  0,
		Pop:         pop,
		BestGenome:  pop[best].Genome,
		BestFitness: pop[best].Fitness,
		History:     []HistoryPoint{{Generation: 0, BestFitness: pop[best].Fitness}},
	}
	st.Completed = st.Generation >= cfg.GenerationsTarget
	return st, nil
}

// probeDiagnostics runs the non-authoritative local VM probe over a freshly
// built population, concurrently and bounded by CPU count. It never
// returns an error: a probe failure is recorded as Diagnostics{Valid:
// false} rather than aborting the generation, since this pass is purely
// observational (SPEC_FULL.md §4.5.1).
func probeDiagnostics(ctx context.Context, pop Population) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range pop {
		i := i
		g.Go(func() error {
			res := pop[i].Genome.Run(probeInput)
			pop[i].Diagnostics = Diagnostics{Valid: res.Valid, Steps: res.Steps}
			return nil
		})
	}
	_ = g.Wait()
}

// Step performs one generation: tournament selection to fill
// population-1 parent slots, mutation-only reproduction, elitism (the
// incumbent best copied unconditionally as offspring 0), scoring the
// offspring, and a best-fitness update using strict '>' so ties keep the
// incumbent. It is a no-op returning st unchanged if st is already
// Completed.
func Step(ctx context.Context, st *State, scorer Scorer) (*State, error) {
	if st.Completed {
		return st, nil
	}

	n := len(st.Pop)
	offspring := make(Population, n)
	offspring[0].Genome = st.BestGenome

	// Draw from a copy of the stream so a failed scoring call leaves
	// st.Stream where it was.
	stream := *st.Stream

	// All selection draws come first, then each offspring's mutation draws
	// in population order.
	parents := make([]int, n)
	for i := 1; i < n; i++ {
		parents[i] = TournamentSelect(st.Pop, TournamentSize, &stream)
	}
	for i := 1; i < n; i++ {
		offspring[i].Genome = genome.Mutate(st.Pop[parents[i]].Genome, st.Config.MutationRate, &stream)
	}

	probeDiagnostics(ctx, offspring)

	fitnesses, err := scorer.Score(ctx, st.Config.Task, offspring.Genomes())
	if err != nil {
		// Per SPEC_FULL.md §4.4/§7, a failed fitness call leaves the run's
		// state exactly as it was before the step.
		return nil, err
	}
	for i := range offspring {
		offspring[i].Fitness = fitnesses[i]
	}

	next := &State{
		Config:      st.Config,
		Stream:      &stream,
		Generation:  st.Generation + 1,
		Pop:         offspring,
		BestGenome:  st.BestGenome,
		BestFitness: st.BestFitness,
		History:     st.History,
	}

	best := offspring.Best()
	if offspring[best].Fitness > next.BestFitness {
		next.BestGenome = offspring[best].Genome
		next.BestFitness = offspring[best].Fitness
	}

	next.History = append(append([]HistoryPoint{}, st.History...), HistoryPoint{
		Generation:  next.Generation,
		BestFitness: next.BestFitness,
	})
	next.Completed = next.Generation >= next.Config.GenerationsTarget

	return next, nil
}

// Advance performs up to n generations, stopping early once Completed.
// n must be >= 1.
func Advance(ctx context.Context, st *State, n int, scorer Scorer) (*State, error) {
	if n < 1 {
		return nil, fmt.Errorf("evolution: Advance requires n >= 1, got %d", n)
	}
	cur := st
	for i := 0; i < n; i++ {
		if cur.Completed {
			break
		}
		next, err := Step(ctx, cur, scorer)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
