package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"loadtest"}, args...)
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flag.CommandLine = fs

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestParseMode(t *testing.T) {
	for _, mode := range []loadMode{modeBrowse, modeCart, modeCheckout} {
		got, err := parseMode(" " + string(mode) + " ")
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}

	_, err := parseMode("create-pay")
	require.ErrorContains(t, err, "unsupported mode")
}

func TestParseConfig(t *testing.T) {
	withCLIArgs(t, []string{"-url", "http://127.0.0.1:8080/", "-mode", "checkout", "-total", "10", "-concurrency", "3"}, func() {
		cfg, err := parseConfig()
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:8080", cfg.baseURL)
		require.Equal(t, modeCheckout, cfg.mode)
		require.Equal(t, 10, cfg.total)
		require.True(t, cfg.totalSet)
		require.Equal(t, 3, cfg.concurrency)
		require.Equal(t, 5*time.Second, cfg.timeout)
	})

	invalid := [][]string{
		{"-concurrency", "0"},
		{"-timeout", "0s"},
		{"-timeout", "bad"},
		{"-duration", "-1s"},
		{"-total", "0"},
		{"-mode", "bad"},
		{"-product", " "},
		{"-url", "not a url"},
	}
	for _, args := range invalid {
		withCLIArgs(t, args, func() {
			_, err := parseConfig()
			require.Error(t, err, "args %v", args)
		})
	}
}

func TestDispatchJobs(t *testing.T) {
	jobs := make(chan int, 10)
	dispatchJobs(jobs, config{total: 3})

	var got []int
	for id := range jobs {
		got = append(got, id)
	}
	require.Equal(t, []int{0, 1, 2}, got)

	jobs = make(chan int, 10)
	dispatchJobs(jobs, config{duration: time.Second, total: 2, totalSet: true})
	got = nil
	for id := range jobs {
		got = append(got, id)
	}
	require.Equal(t, []int{0, 1}, got)
}

func TestClassifyStatus(t *testing.T) {
	require.Equal(t, outcomeOK, classifyStatus(http.StatusCreated))
	require.Equal(t, outcomeRejected, classifyStatus(http.StatusConflict))
	require.Equal(t, outcomeRejected, classifyStatus(http.StatusUnprocessableEntity))
	require.Equal(t, "http_500", classifyStatus(http.StatusInternalServerError))
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record("scenario", 10*time.Millisecond, outcomeOK)
	col.record("scenario", 20*time.Millisecond, outcomeRejected)
	col.record("scenario", 30*time.Millisecond, "http_500")
	col.record("Checkout", 5*time.Millisecond, outcomeOK)

	result := col.buildReport(time.Now(), time.Second)
	require.EqualValues(t, 3, result.TotalScenarios)
	require.EqualValues(t, 1, result.SuccessScenarios)
	require.EqualValues(t, 1, result.RejectedScenarios)
	require.EqualValues(t, 1, result.FailedScenarios)
	require.InDelta(t, 1.0/3.0, result.ErrorRate, 1e-9)
	require.InDelta(t, 3.0, result.RPS, 1e-9)
	require.InDelta(t, 20.0, result.ScenarioLatencyMs.P50, 1e-9)
	require.EqualValues(t, 1, result.Methods["Checkout"].Outcomes[outcomeOK])
}

func TestPercentileAndRatio(t *testing.T) {
	require.Zero(t, percentile(nil, 50))
	require.Equal(t, 7.0, percentile([]float64{7}, 99))
	require.InDelta(t, 1.5, percentile([]float64{1, 2}, 50), 1e-9)
	require.Zero(t, ratio(1, 0))
	require.Equal(t, latencySummary{}, buildLatencySummary(nil))
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, writeJSONReport("report.json", report{TotalScenarios: 2}))
	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	var decoded report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.EqualValues(t, 2, decoded.TotalScenarios)

	require.Error(t, writeJSONReport(".", report{}))
	require.Error(t, writeJSONReport("../escape.json", report{}))
}

func TestRun_Modes(t *testing.T) {
	var checkouts int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/api/cart/items", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/cart/items/P1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/checkout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(idempotencyHeader) == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Каждое второе оформление упирается в остатки.
		if atomic.AddInt64(&checkouts, 1)%2 == 0 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	base := config{baseURL: srv.URL, total: 6, concurrency: 2, timeout: time.Second, productID: "P1"}

	for _, mode := range []loadMode{modeBrowse, modeCart, modeCheckout} {
		cfg := base
		cfg.mode = mode
		result := run(cfg, srv.Client())
		require.EqualValues(t, 6, result.TotalScenarios, "mode %s", mode)
		require.Zero(t, result.FailedScenarios, "mode %s", mode)
	}

	cfg := base
	cfg.mode = modeCheckout
	result := run(cfg, srv.Client())
	require.EqualValues(t, 3, result.RejectedScenarios)
	require.EqualValues(t, 6, result.Methods["AddItem"].Success)
}

func TestRun_TransportErrorsFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result := run(config{baseURL: url, total: 2, concurrency: 1, timeout: time.Second, mode: modeBrowse, productID: "P1"}, http.DefaultClient)
	require.EqualValues(t, 2, result.FailedScenarios)
	require.EqualValues(t, 2, result.Methods["ListProducts"].Outcomes[outcomeTransport])
}

func TestPrintReport(t *testing.T) {
	col := newCollector()
	col.record("scenario", time.Millisecond, outcomeOK)
	col.record("ListProducts", time.Millisecond, outcomeOK)

	var buf bytes.Buffer
	printReport(&buf, col.buildReport(time.Now(), time.Second), config{mode: modeBrowse, total: 1})

	out := buf.String()
	require.Contains(t, out, "mode=browse run=count:1 total=1 success=1")
	require.Contains(t, out, "ListProducts: calls=1")
	require.NotContains(t, out, "scenario: calls")

	require.Equal(t, "duration:1m0s,max-total:5", runTarget(config{duration: time.Minute, total: 5, totalSet: true}))
	require.Equal(t, "duration:1m0s", runTarget(config{duration: time.Minute}))
}
