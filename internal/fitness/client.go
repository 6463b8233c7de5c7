// Package fitness implements the blocking client to the external fitness
// evaluator described in the API contract: given a task name and a batch of
// genomes, it returns one finite fitness per genome, higher-is-better. The
// evaluator's own scoring logic is out of scope for this engine; this
// package only owns the request/response contract and its failure modes.
package fitness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/signalnine/evogen/internal/genome"
	"github.com/signalnine/evogen/internal/obs"
	"github.com/signalnine/evogen/internal/wire"
)

// ErrUnavailable is the sentinel wrapped by every failure mode this client
// can produce: transport errors, timeouts, an open circuit breaker,
// non-2xx responses, malformed JSON, a response of the wrong length, or a
// non-finite fitness value. Callers should use errors.Is(err,
// ErrUnavailable) rather than inspecting the wrapped detail.
var ErrUnavailable = errors.New("fitness: evaluator unavailable")

// Client scores genomes against a task by calling an external evaluator's
// HTTP endpoint. A Client is safe for concurrent use across runs: each call
// to Score is an independent, stateless request through the shared breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *obs.Metrics
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Metrics receives latency, failure, and breaker-state observations.
	// Nil is valid; the client simply records nothing.
	Metrics *obs.Metrics
}

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// New builds a Client wrapping baseURL's /evaluate endpoint in a circuit
// breaker: after 5 consecutive failures the breaker opens for 10 seconds,
// failing calls immediately rather than letting a downed evaluator stall
// every in-flight generation.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	breakerSettings := gobreaker.Settings{
		Name:        "fitness-evaluator",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if cfg.Metrics == nil {
				return
			}
			if to == gobreaker.StateOpen {
				cfg.Metrics.BreakerOpen.Set(1)
			} else {
				cfg.Metrics.BreakerOpen.Set(0)
			}
		},
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(breakerSettings),
		metrics:    cfg.Metrics,
	}
}

type evaluateResponse struct {
	Fitnesses []float64 `json:"fitnesses"`
}

// Score calls the evaluator once with the full batch and returns one
// fitness per genome, in the same order. It blocks until the response
// arrives, ctx is canceled, or the configured timeout elapses.
func (c *Client) Score(ctx context.Context, task string, genomes []genome.Genome) ([]float64, error) {
	if len(genomes) == 0 {
		return nil, nil
	}

	wireGenomes := make([]wire.Genome, len(genomes))
	for i, g := range genomes {
		wireGenomes[i] = wire.FromGenome(g)
	}

	reqBody, err := json.Marshal(struct {
		Task    string        `json:"task"`
		Genomes []wire.Genome `json:"genomes"`
	}{Task: task, Genomes: wireGenomes})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, reqBody)
	})
	if c.metrics != nil {
		c.metrics.FitnessLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.FitnessFailures.Inc()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	fitnesses := result.([]float64)
	if len(fitnesses) != len(genomes) {
		return nil, fmt.Errorf("%w: evaluator returned %d fitnesses for %d genomes",
			ErrUnavailable, len(fitnesses), len(genomes))
	}
	for _, f := range fitnesses {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: evaluator returned a non-finite fitness", ErrUnavailable)
		}
	}
	return fitnesses, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("evaluator returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded evaluateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return decoded.Fitnesses, nil
}
