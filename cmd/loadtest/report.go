package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeTransport = "transport_error"
)

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Rejected  int64            `json:"rejected"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Outcomes  map[string]int64 `json:"outcomes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	RejectedScenarios int64                   `json:"rejected_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
}

type methodStats struct {
	calls     int64
	success   int64
	rejected  int64
	failed    int64
	outcomes  map[string]int64
	latencies []float64
}

type collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

func newCollector() *collector {
	return &collector{methods: make(map[string]*methodStats)}
}

func (c *collector) record(method string, latency time.Duration, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.methods[method]
	if !ok {
		stats = &methodStats{outcomes: make(map[string]int64)}
		c.methods[method] = stats
	}

	stats.calls++
	switch outcome {
	case outcomeOK:
		stats.success++
	case outcomeRejected:
		stats.rejected++
	default:
		stats.failed++
	}
	stats.outcomes[outcome]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (s *methodStats) report() methodReport {
	outcomes := make(map[string]int64, len(s.outcomes))
	for k, v := range s.outcomes {
		outcomes[k] = v
	}
	return methodReport{
		Calls:     s.calls,
		Success:   s.success,
		Rejected:  s.rejected,
		Failed:    s.failed,
		ErrorRate: ratio(s.failed, s.calls),
		Outcomes:  outcomes,
		LatencyMs: buildLatencySummary(s.latencies),
	}
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport, len(c.methods)),
	}

	if s := c.methods["scenario"]; s != nil {
		result.TotalScenarios = s.calls
		result.SuccessScenarios = s.success
		result.RejectedScenarios = s.rejected
		result.FailedScenarios = s.failed
		result.ErrorRate = ratio(s.failed, s.calls)
		result.ScenarioLatencyMs = buildLatencySummary(s.latencies)
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}

	for name, s := range c.methods {
		result.Methods[name] = s.report()
	}
	return result
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local load-test reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(w io.Writer, result report, cfg config) {
	_, _ = fmt.Fprintln(w, "Load test summary")
	_, _ = fmt.Fprintf(w, "mode=%s run=%s total=%d success=%d rejected=%d failed=%d error_rate=%.4f\n",
		cfg.mode,
		runTarget(cfg),
		result.TotalScenarios,
		result.SuccessScenarios,
		result.RejectedScenarios,
		result.FailedScenarios,
		result.ErrorRate,
	)
	_, _ = fmt.Fprintf(w, "duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)
	_, _ = fmt.Fprintf(w, "scenario latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		result.ScenarioLatencyMs.Min,
		result.ScenarioLatencyMs.Avg,
		result.ScenarioLatencyMs.P50,
		result.ScenarioLatencyMs.P95,
		result.ScenarioLatencyMs.P99,
		result.ScenarioLatencyMs.Max,
	)

	names := make([]string, 0, len(result.Methods))
	for name := range result.Methods {
		if name != "scenario" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		s := result.Methods[name]
		_, _ = fmt.Fprintf(w, "%s: calls=%d success=%d rejected=%d failed=%d p95=%.2fms\n",
			name, s.Calls, s.Success, s.Rejected, s.Failed, s.LatencyMs.P95)
	}
}

func runTarget(cfg config) string {
	if cfg.duration <= 0 {
		return fmt.Sprintf("count:%d", cfg.total)
	}
	if cfg.totalSet {
		return fmt.Sprintf("duration:%s,max-total:%d", cfg.duration, cfg.total)
	}
	return fmt.Sprintf("duration:%s", cfg.duration)
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}
