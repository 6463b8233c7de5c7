package evolution

import "github.com/signalnine/evogen/internal/genome"

// Individual pairs a genome with its fitness, plus an optional diagnostic
// probe result populated by the local VM pass described in SPEC_FULL.md
// §4.5.1. Diagnostics are informational only; nothing in the engine reads
// them to make a selection or scoring decision.
type Individual struct {
	Genome      genome.Genome
	Fitness     float64
	Diagnostics Diagnostics
}

// Diagnostics is the non-authoritative local VM probe result for an
// individual, exposed for observability only.
type Diagnostics struct {
	Valid bool
	Steps int
}

// Population is an ordered, fixed-size collection of individuals.
type Population []Individual

// Genomes extracts the genome of every individual, preserving order.
func (p Population) Genomes() []genome.Genome {
	out := make([]genome.Genome, len(p))
	for i, ind := range p {
		out[i] = ind.Genome
	}
	return out
}

// Best returns the index of the highest-fitness individual. Ties are
// broken by lowest index, matching the tournament-selection tie rule.
func (p Population) Best() int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i].Fitness > p[best].Fitness {
			best = i
		}
	}
	return best
}
