package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/signalnine/evogen/internal/genome"
	"github.com/signalnine/evogen/internal/run"
)

type fakeScorer struct {
	mu   sync.Mutex
	fail bool
}

func (f *fakeScorer) Score(ctx context.Context, task string, genomes []genome.Genome) ([]float64, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, context.DeadlineExceeded
	}
	out := make([]float64, len(genomes))
	for i, g := range genomes {
		res := g.Run(1.0)
		if res.Valid {
			out[i] = res.Output
		} else {
			out[i] = -1e9
		}
	}
	return out, nil
}

func newTestServer() (*Server, *fakeScorer) {
	scorer := &fakeScorer{}
	return NewServer(run.NewManager(scorer, nil), nil), scorer
}

func testRunConfigBody() []byte {
	b, _ := json.Marshal(runConfigDTO{Seed: 1, Population: 10, Generations: 5, MutationRate: 0.25, Task: "t"})
	return b
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s, _ := newTestServer()

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(testRunConfigBody())))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var created createRunResponseDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.RunID == "" {
		t.Fatal("expected a non-empty run id")
	}

	rr2 := httptest.NewRecorder()
	s.ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/runs/"+created.RunID, nil))
	if rr2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr2.Code, rr2.Body.String())
	}
	var state runStateDTO
	if err := json.Unmarshal(rr2.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if state.RunID != created.RunID {
		t.Fatalf("run id mismatch: %s vs %s", state.RunID, created.RunID)
	}
	if state.Generation != 0 {
		t.Fatalf("expected generation 0, got %d", state.Generation)
	}
}

func TestGetUnknownRunReturns404(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body errorResponseDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Error != "unknown run" {
		t.Fatalf(`expected {"error":"unknown run"}, got %q`, body.Error)
	}
}

func TestCreateRunRejectsInvalidConfig(t *testing.T) {
	s, _ := newTestServer()
	body, _ := json.Marshal(runConfigDTO{Seed: 1, Population: 1, Generations: 5, MutationRate: 0.25, Task: "t"})
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestStepRun(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(testRunConfigBody())))
	var created createRunResponseDTO
	json.Unmarshal(rr.Body.Bytes(), &created)

	rr2 := httptest.NewRecorder()
	s.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, "/runs/"+created.RunID+"/step", nil))
	if rr2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr2.Code, rr2.Body.String())
	}
	var state runStateDTO
	json.Unmarshal(rr2.Body.Bytes(), &state)
	if state.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", state.Generation)
	}
}

func TestAdvanceRunRejectsZeroSteps(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(testRunConfigBody())))
	var created createRunResponseDTO
	json.Unmarshal(rr.Body.Bytes(), &created)

	body, _ := json.Marshal(advanceRequestDTO{Steps: 0})
	rr2 := httptest.NewRecorder()
	s.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, "/runs/"+created.RunID+"/advance", bytes.NewReader(body)))
	if rr2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr2.Code, rr2.Body.String())
	}
}

func TestFitnessOutageReturns502(t *testing.T) {
	s, scorer := newTestServer()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(testRunConfigBody())))
	var created createRunResponseDTO
	json.Unmarshal(rr.Body.Bytes(), &created)

	scorer.mu.Lock()
	scorer.fail = true
	scorer.mu.Unlock()

	rr2 := httptest.NewRecorder()
	s.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, "/runs/"+created.RunID+"/step", nil))
	if rr2.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rr2.Code, rr2.Body.String())
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(testRunConfigBody())))
	var created createRunResponseDTO
	json.Unmarshal(rr.Body.Bytes(), &created)

	body, _ := json.Marshal(advanceRequestDTO{Steps: 3})
	rr2 := httptest.NewRecorder()
	s.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, "/runs/"+created.RunID+"/advance", bytes.NewReader(body)))
	if rr2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr2.Code, rr2.Body.String())
	}

	rr3 := httptest.NewRecorder()
	s.ServeHTTP(rr3, httptest.NewRequest(http.MethodGet, "/runs/"+created.RunID+"/history", nil))
	if rr3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr3.Code, rr3.Body.String())
	}
	var hist runHistoryDTO
	json.Unmarshal(rr3.Body.Bytes(), &hist)
	if len(hist.Points) != 4 {
		t.Fatalf("expected 4 history points (gen 0..3), got %d", len(hist.Points))
	}
}
