package evolution

import "github.com/signalnine/evogen/internal/rng"

// TournamentSelect samples k distinct indices uniformly from pop and
// returns the index of the fittest among them, ties broken by lowest
// index. k is clamped to [1, len(pop)].
func TournamentSelect(pop Population, k int, s *rng.Stream) int {
	n := len(pop)
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	candidates := sampleDistinct(n, k, s)

	best := candidates[0]
	for _, idx := range candidates[1:] {
		switch {
		case pop[idx].Fitness > pop[best].Fitness:
			best = idx
		case pop[idx].Fitness == pop[best].Fitness && idx < best:
			best = idx
		}
	}
	return best
}

// sampleDistinct draws k distinct indices uniformly from [0, n) using
// partial Fisher-Yates over an index pool, consuming exactly k GenIndex
// draws (plus the pool's implicit rejection-free bookkeeping).
func sampleDistinct(n, k int, s *rng.Stream) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.GenIndex(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
