package api

import (
	"github.com/signalnine/evogen/internal/evolution"
	"github.com/signalnine/evogen/internal/run"
	"github.com/signalnine/evogen/internal/wire"
)

// runConfigDTO mirrors SPEC_FULL.md §6.1's RunConfig request body.
type runConfigDTO struct {
	Seed         uint64  `json:"seed"`
	Population   uint32  `json:"population"`
	Generations  uint32  `json:"generations"`
	MutationRate float64 `json:"mutation_rate"`
	Task         string  `json:"task"`
}

func (d runConfigDTO) toRunConfig() run.Config {
	return run.Config{
		Seed:              d.Seed,
		Population:        int(d.Population),
		GenerationsTarget: int(d.Generations),
		MutationRate:      d.MutationRate,
		Task:              d.Task,
	}
}

// runStateDTO mirrors SPEC_FULL.md §6.1's RunState response body.
type runStateDTO struct {
	RunID        string      `json:"run_id"`
	Generation   int         `json:"generation"`
	BestFitness  float64     `json:"best_fitness"`
	BestGenome   wire.Genome `json:"best_genome"`
	Seed         uint64      `json:"seed"`
	Population   int         `json:"population"`
	Generations  int         `json:"generations"`
	MutationRate float64     `json:"mutation_rate"`
	Task         string      `json:"task"`
}

func toRunStateDTO(s run.Snapshot) runStateDTO {
	return runStateDTO{
		RunID:        s.RunID,
		Generation:   s.Generation,
		BestFitness:  s.BestFitness,
		BestGenome:   wire.FromGenome(s.BestGenome),
		Seed:         s.Config.Seed,
		Population:   s.Config.Population,
		Generations:  s.Config.GenerationsTarget,
		MutationRate: s.Config.MutationRate,
		Task:         s.Config.Task,
	}
}

type historyPointDTO struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
}

type runHistoryDTO struct {
	RunID  string            `json:"run_id"`
	Task   string            `json:"task"`
	Points []historyPointDTO `json:"points"`
}

func toHistoryDTO(h run.HistoryResponse) runHistoryDTO {
	points := make([]historyPointDTO, len(h.Points))
	for i, p := range h.Points {
		points[i] = historyPointDTO{Generation: p.Generation, BestFitness: p.BestFitness}
	}
	return runHistoryDTO{RunID: h.RunID, Task: h.Task, Points: points}
}

type createRunResponseDTO struct {
	RunID string `json:"run_id"`
}

type advanceRequestDTO struct {
	Steps int `json:"steps"`
}

type errorResponseDTO struct {
	Error string `json:"error"`
}

type healthResponseDTO struct {
	Status string `json:"status"`
}

// watchFrameDTO is one frame of the /runs/{id}/watch stream.
type watchFrameDTO struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
}

func toWatchFrame(p evolution.HistoryPoint) watchFrameDTO {
	return watchFrameDTO{Generation: p.Generation, BestFitness: p.BestFitness}
}
