// Command fitnessd is a reference fitness evaluator implementing the
// /evaluate contract described in SPEC_FULL.md §6.2. It scores the
// built-in "poly2" task by sampling each genome's vm output against
// x*x + 2*x + 1 over a fixed grid and reducing to negative mean squared
// error; vm-invalid genomes get the sentinel score -1e9 rather than a
// non-finite value.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"

	"github.com/signalnine/evogen/internal/vm"
	"github.com/signalnine/evogen/internal/wire"
)

// sentinelScore substitutes for any genome whose vm execution is invalid
// anywhere in the sample grid, so callers never have to special-case a
// non-finite fitness (SPEC_FULL.md §4.4).
const sentinelScore = -1e9

// sampleGrid is the fixed set of inputs "poly2" is scored against.
var sampleGrid = []float64{-2, -1, -0.5, 0, 0.5, 1, 2, 3}

func target(x float64) float64 { return x*x + 2*x + 1 }

func scorePoly2(g []vm.Instruction) float64 {
	var sumSq float64
	for _, x := range sampleGrid {
		res := vm.Run(g, x)
		if !res.Valid {
			return sentinelScore
		}
		diff := res.Output - target(x)
		sumSq += diff * diff
	}
	return -sumSq / float64(len(sampleGrid))
}

var tasks = map[string]func([]vm.Instruction) float64{
	"poly2": scorePoly2,
}

type evaluateRequest struct {
	Task    string        `json:"task"`
	Genomes []wire.Genome `json:"genomes"`
}

type evaluateResponse struct {
	Fitnesses []float64 `json:"fitnesses"`
}

func handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
		return
	}

	scorer, ok := tasks[req.Task]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown task %q", req.Task), http.StatusBadRequest)
		return
	}

	fitnesses := make([]float64, len(req.Genomes))
	for i, wg := range req.Genomes {
		g, err := wire.ToGenome(wg)
		if err != nil {
			http.Error(w, fmt.Sprintf("genome %d: %v", i, err), http.StatusBadRequest)
			return
		}
		score := scorer(g.Instructions())
		if math.IsNaN(score) || math.IsInf(score, 0) {
			score = sentinelScore
		}
		fitnesses[i] = score
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(evaluateResponse{Fitnesses: fitnesses}); err != nil {
		fmt.Fprintln(os.Stderr, "fitnessd: encoding response:", err)
	}
}

func main() {
	port := flag.Int("port", 8090, "HTTP port to listen on")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /evaluate", handleEvaluate)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	addr := fmt.Sprintf(":%d", *port)
	fmt.Fprintln(os.Stderr, "fitnessd listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, "fitnessd:", err)
		os.Exit(1)
	}
}
