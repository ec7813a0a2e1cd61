// Package health serves liveness/readiness HTTP endpoints for the demo
// application. It checks whatever the caller registers (typically one
// "can I Checkout and Release" probe per named pool, plus Redis) — it
// knows nothing about pool internals, keeping it decoupled from pkg/pool.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Status is the outcome of one component check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth is the result of checking a single registered probe.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

// Report is the aggregate result of a Check call.
type Report struct {
	Status     Status            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	InstanceID string            `json:"instance_id"`
	Components []ComponentHealth `json:"components"`
}

// Probe is a named health check. It should be cheap and bounded by the
// context it receives.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Checker runs a registered set of Probes and serves the result as
// JSON over HTTP.
type Checker struct {
	instanceID string

	mu     sync.Mutex
	probes []Probe
}

// NewChecker returns a Checker reporting under the given instance ID.
func NewChecker(instanceID string) *Checker {
	return &Checker{instanceID: instanceID}
}

// Register adds a probe. Probes run concurrently in Check.
func (c *Checker) Register(p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, p)
}

// Check runs every registered probe concurrently and aggregates the
// result. Overall status is unhealthy if any probe fails.
func (c *Checker) Check(ctx context.Context) *Report {
	c.mu.Lock()
	probes := make([]Probe, len(c.probes))
	copy(probes, c.probes)
	c.mu.Unlock()

	report := &Report{
		Status:     StatusHealthy,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		InstanceID: c.instanceID,
	}

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		components = make([]ComponentHealth, 0, len(probes))
	)

	for _, p := range probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			start := time.Now()
			ch := ComponentHealth{Name: p.Name, Status: StatusHealthy, Latency: time.Since(start).String()}
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := p.Check(checkCtx); err != nil {
				ch.Status = StatusUnhealthy
				ch.Message = err.Error()
			}
			ch.Latency = time.Since(start).String()
			mu.Lock()
			components = append(components, ch)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	report.Components = components
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

// ServeHTTP starts the health HTTP server in the background and returns
// it so the caller can shut it down gracefully.
func (c *Checker) ServeHTTP(port int) *http.Server {
	mux := http.NewServeMux()

	writeReport := func(w http.ResponseWriter, r *http.Request) {
		report := c.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	}

	mux.HandleFunc("/health", writeReport)
	mux.HandleFunc("/health/ready", writeReport)
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("[health] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[health] server error: %v", err)
		}
	}()

	return server
}
