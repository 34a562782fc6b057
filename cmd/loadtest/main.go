package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const idempotencyHeader = "Idempotency-Key"

type loadMode string

const (
	modeBrowse   loadMode = "browse"
	modeCart     loadMode = "cart"
	modeCheckout loadMode = "checkout"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	productID   string
	query       string
	outputPath  string
}

func parseConfig() (config, error) {
	var cfg config
	var modeValue, timeoutValue, durationValue string

	flag.StringVar(&cfg.baseURL, "url", "http://localhost:8080", "storefront API base URL")
	flag.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	flag.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 1m)")
	flag.IntVar(&cfg.concurrency, "concurrency", 20, "number of concurrent workers")
	flag.StringVar(&timeoutValue, "timeout", "5s", "per-request timeout")
	flag.StringVar(&modeValue, "mode", string(modeBrowse), "load mode: browse | cart | checkout")
	flag.StringVar(&cfg.productID, "product", "P1", "product id used by cart and checkout scenarios")
	flag.StringVar(&cfg.query, "q", "", "search query for browse scenarios")
	flag.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	flag.Parse()

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	flag.CommandLine.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case strings.TrimSpace(cfg.productID) == "":
		return cfg, errors.New("product is required")
	}
	if _, err := url.ParseRequestURI(cfg.baseURL); err != nil {
		return cfg, fmt.Errorf("invalid url: %w", err)
	}
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch loadMode(strings.TrimSpace(value)) {
	case modeBrowse:
		return modeBrowse, nil
	case modeCart:
		return modeCart, nil
	case modeCheckout:
		return modeCheckout, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	result := run(cfg, &http.Client{Timeout: cfg.timeout})

	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// run прогоняет сценарии пулом воркеров и собирает отчёт.
func run(cfg config, client *http.Client) report {
	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()
	lt := &loadClient{http: client, baseURL: cfg.baseURL, timeout: cfg.timeout, col: col}

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				runScenario(lt, cfg, id, runID)
			}
		}()
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	return col.buildReport(startedAt, time.Since(startedAt))
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

// runScenario выполняет один сценарий. Конфликты остатков при оформлении
// ожидаемы при конкурентной нагрузке и считаются отказом, а не сбоем.
func runScenario(lt *loadClient, cfg config, index int, runID string) {
	start := time.Now()
	outcome := outcomeOK
	defer func() { lt.col.record("scenario", time.Since(start), outcome) }()

	switch cfg.mode {
	case modeBrowse:
		path := "/api/products"
		if cfg.query != "" {
			path += "?q=" + url.QueryEscape(cfg.query)
		}
		outcome = lt.call("ListProducts", http.MethodGet, path, nil, "")

	case modeCart:
		if outcome = lt.call("AddItem", http.MethodPost, "/api/cart/items", map[string]any{"productId": cfg.productID, "qty": 1}, ""); outcome != outcomeOK {
			return
		}
		outcome = lt.call("RemoveItem", http.MethodDelete, "/api/cart/items/"+url.PathEscape(cfg.productID), nil, "")
		if outcome == outcomeRejected {
			// Товар мог убрать параллельный воркер.
			outcome = outcomeOK
		}

	case modeCheckout:
		if outcome = lt.call("AddItem", http.MethodPost, "/api/cart/items", map[string]any{"productId": cfg.productID, "qty": 1}, ""); outcome != outcomeOK {
			return
		}
		body := map[string]any{"customer": map[string]string{
			"name":    fmt.Sprintf("load-%d", index),
			"email":   fmt.Sprintf("load-%d@example.com", index),
			"address": "1 Load Street",
		}}
		outcome = lt.call("Checkout", http.MethodPost, "/api/checkout", body, fmt.Sprintf("lt-%s-%d", runID, index))
	}
}

// loadClient выполняет запросы к API и пишет их исходы в collector.
type loadClient struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	col     *collector
}

func (l *loadClient) call(method, httpMethod, path string, body any, idempotencyKey string) string {
	start := time.Now()
	outcome := l.do(httpMethod, path, body, idempotencyKey)
	l.col.record(method, time.Since(start), outcome)
	return outcome
}

func (l *loadClient) do(httpMethod, path string, body any, idempotencyKey string) string {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return outcomeTransport
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, l.baseURL+path, reader)
	if err != nil {
		return outcomeTransport
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return outcomeTransport
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return classifyStatus(resp.StatusCode)
}

// classifyStatus делит ответы на успех, бизнес-отказ (409/404/422) и сбой.
func classifyStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return outcomeOK
	case code == http.StatusConflict, code == http.StatusNotFound, code == http.StatusUnprocessableEntity:
		return outcomeRejected
	default:
		return fmt.Sprintf("http_%d", code)
	}
}
