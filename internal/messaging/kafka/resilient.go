package kafka

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ErrCircuitOpen публикация пропущена: брокер недавно отказывал подряд.
var ErrCircuitOpen = errors.New("kafka circuit breaker is open")

// RetryConfig параметры повторной отправки события.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ResilientPublisher повторяет отправку с экспоненциальной задержкой и
// перестаёт обращаться к брокеру, пока открыт circuit breaker.
type ResilientPublisher struct {
	next    domain.EventPublisher
	config  RetryConfig
	breaker *CircuitBreaker
	logger  *log.Entry
	sleep   func(time.Duration)
}

// NewResilientPublisher оборачивает publisher. breaker может быть nil.
func NewResilientPublisher(next domain.EventPublisher, config RetryConfig, breaker *CircuitBreaker, logger *log.Entry) *ResilientPublisher {
	if logger == nil {
		logger = log.WithField("component", "kafka-resilient-publisher")
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}
	return &ResilientPublisher{
		next:    next,
		config:  config,
		breaker: breaker,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// PublishEvent отправляет событие. Ошибки сериализации не повторяются.
func (p *ResilientPublisher) PublishEvent(topic string, key string, event interface{}) error {
	var lastErr error
	delay := p.config.InitialDelay

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		err := p.send(topic, key, event)
		if err == nil {
			if attempt > 1 {
				p.logger.WithFields(log.Fields{
					"topic":   topic,
					"key":     key,
					"attempt": attempt,
				}).Info("event published after retry")
			}
			return nil
		}
		lastErr = err

		if errors.Is(err, ErrEncodeEvent) || errors.Is(err, ErrCircuitOpen) {
			return err
		}

		if attempt < p.config.MaxAttempts {
			p.logger.WithError(err).WithFields(log.Fields{
				"topic":   topic,
				"key":     key,
				"attempt": attempt,
				"delay":   delay,
			}).Warn("event publish failed, retrying")

			p.sleep(delay)
			delay = time.Duration(float64(delay) * p.config.BackoffFactor)
			if delay > p.config.MaxDelay {
				delay = p.config.MaxDelay
			}
		}
	}

	p.logger.WithError(lastErr).WithFields(log.Fields{
		"topic":        topic,
		"key":          key,
		"max_attempts": p.config.MaxAttempts,
	}).Error("event publish failed after all retry attempts")
	return lastErr
}

func (p *ResilientPublisher) send(topic, key string, event interface{}) error {
	if p.breaker == nil {
		return p.next.PublishEvent(topic, key, event)
	}
	return p.breaker.Execute(topic, func() error {
		return p.next.PublishEvent(topic, key, event)
	})
}

// CircuitState состояние circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker размыкается после maxFailures ошибок подряд и пропускает
// пробный вызов через resetTimeout.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time
	logger       *log.Entry

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       CircuitState
}

// NewCircuitBreaker создаёт circuit breaker в замкнутом состоянии.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitBreaker {
	if logger == nil {
		logger = log.WithField("component", "kafka-circuit-breaker")
	}
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		logger:       logger,
		state:        CircuitClosed,
	}
}

// State возвращает текущее состояние.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute выполняет fn, если цепь не разомкнута.
func (cb *CircuitBreaker) Execute(operation string, fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.lastFailure) <= cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
		cb.logger.WithField("operation", operation).Info("circuit breaker half-open")
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrEncodeEvent) {
			return err
		}
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
			if cb.state != CircuitOpen {
				cb.logger.WithFields(log.Fields{
					"operation": operation,
					"failures":  cb.failures,
				}).Warn("circuit breaker opened")
			}
			cb.state = CircuitOpen
		}
		return err
	}

	if cb.state == CircuitHalfOpen {
		cb.logger.WithField("operation", operation).Info("circuit breaker closed")
	}
	cb.state = CircuitClosed
	cb.failures = 0
	return nil
}

var _ domain.EventPublisher = (*ResilientPublisher)(nil)
