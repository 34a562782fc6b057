package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// register регистрирует коллектор; при повторной регистрации возвращает уже существующий.
func register[T prometheus.Collector](registerer prometheus.Registerer, name string, collector T) T {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector %q: %v", name, err))
}

func counterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	return register(registerer, opts.Name, prometheus.NewCounterVec(opts, labels))
}

func counter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	return register(registerer, opts.Name, prometheus.NewCounter(opts))
}

func gauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	return register(registerer, opts.Name, prometheus.NewGauge(opts))
}

func histogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	return register(registerer, opts.Name, prometheus.NewHistogram(opts))
}

func histogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels ...string) *prometheus.HistogramVec {
	return register(registerer, opts.Name, prometheus.NewHistogramVec(opts, labels))
}
