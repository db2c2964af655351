package httpclient

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// CircuitBreakerManager hands out shared circuit breakers by name.
type CircuitBreakerManager struct {
	mu          sync.RWMutex
	breakers    map[string]*CircuitBreaker
	threshold   int
	timeout     time.Duration
	halfOpenMax int
	logger      *slog.Logger
}

// DefaultManager is the process-wide breaker registry.
var DefaultManager = NewCircuitBreakerManager(DefaultCircuitThreshold, DefaultCircuitTimeout, DefaultCircuitHalfOpenMax)

// NewCircuitBreakerManager creates a manager whose breakers use the given settings.
func NewCircuitBreakerManager(threshold int, timeout time.Duration, halfOpenMax int) *CircuitBreakerManager {
	return &CircuitBreakerManager{
		breakers:    make(map[string]*CircuitBreaker),
		threshold:   threshold,
		timeout:     timeout,
		halfOpenMax: halfOpenMax,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the manager.
func (m *CircuitBreakerManager) WithLogger(logger *slog.Logger) *CircuitBreakerManager {
	m.logger = logger
	return m
}

// GetOrCreate returns the breaker registered under name, creating it on first use.
func (m *CircuitBreakerManager) GetOrCreate(name string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, ok := m.breakers[name]; ok {
		return breaker
	}

	breaker := NewCircuitBreaker(m.threshold, m.timeout, m.halfOpenMax)
	m.breakers[name] = breaker

	m.logger.Debug("created circuit breaker",
		slog.String("service", name),
		slog.Int("failure_threshold", breaker.threshold),
		slog.Duration("reset_timeout", breaker.timeout),
	)
	return breaker
}

// Names returns the registered breaker names in sorted order.
func (m *CircuitBreakerManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAllStats returns a snapshot of every breaker.
func (m *CircuitBreakerManager) GetAllStats() map[string]CircuitBreakerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]CircuitBreakerStats, len(m.breakers))
	for name, breaker := range m.breakers {
		stats[name] = breaker.Stats()
	}
	return stats
}

// ResetAll closes every breaker and returns how many were reset.
func (m *CircuitBreakerManager) ResetAll() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, breaker := range m.breakers {
		breaker.Reset()
	}
	return len(m.breakers)
}
