// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     health
// Description: Health probes behind the language server's /healthz
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status is the outcome of a probe or of a whole report
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout bounds a single probe
const DefaultTimeout = 2 * time.Second

// Probe returns nil when the component it looks at works
type Probe func(ctx context.Context) error

// CheckResult is the outcome of one probe
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the outcome of all probes
type Report struct {
	Service string        `json:"service"`
	Version string        `json:"version"`
	Status  Status        `json:"status"`
	Uptime  time.Duration `json:"uptime"`
	Checks  []CheckResult `json:"checks"`
}

// HTTPStatus maps the report to 200, or 503 when any required probe failed
func (r *Report) HTTPStatus() int {
	if r.Status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

type check struct {
	name     string
	optional bool
	probe    Probe
}

// Registry holds the probes of one service
type Registry struct {
	service string
	version string
	timeout time.Duration
	startAt time.Time

	mu     sync.RWMutex
	checks map[string]check
}

// NewRegistry creates a registry; timeout <= 0 uses DefaultTimeout
func NewRegistry(service, version string, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		service: service,
		version: version,
		timeout: timeout,
		startAt: time.Now(),
		checks:  make(map[string]check),
	}
}

// Add registers a probe under name, replacing an earlier one. A failing
// optional probe degrades the report instead of making it unhealthy.
func (r *Registry) Add(name string, optional bool, probe Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check{name: name, optional: optional, probe: probe}
}

// Check runs all probes concurrently, each bounded by the registry timeout
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checks := make([]check, 0, len(r.checks))
	for _, c := range r.checks {
		checks = append(checks, c)
	}
	r.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c check) {
			defer wg.Done()
			results[i] = r.run(ctx, c)
		}(i, c)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	status := StatusHealthy
	for _, res := range results {
		switch {
		case res.Status == StatusUnhealthy:
			status = StatusUnhealthy
		case res.Status == StatusDegraded && status == StatusHealthy:
			status = StatusDegraded
		}
	}
	return &Report{
		Service: r.service,
		Version: r.version,
		Status:  status,
		Uptime:  time.Since(r.startAt),
		Checks:  results,
	}
}

func (r *Registry) run(ctx context.Context, c check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := c.probe(ctx)
	res := CheckResult{Name: c.name, Status: StatusHealthy, Duration: time.Since(start)}
	if err != nil {
		res.Status = StatusUnhealthy
		if c.optional {
			res.Status = StatusDegraded
		}
		res.Message = err.Error()
	}
	return res
}
