package httpclient

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerManager_GetOrCreate(t *testing.T) {
	m := NewCircuitBreakerManager(2, time.Minute, 1)

	a := m.GetOrCreate("hls-probe")
	b := m.GetOrCreate("hls-probe")
	c := m.GetOrCreate("other")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, []string{"hls-probe", "other"}, m.Names())
}

func TestCircuitBreakerManager_Concurrent(t *testing.T) {
	m := NewCircuitBreakerManager(2, time.Minute, 1)

	var wg sync.WaitGroup
	breakers := make([]*CircuitBreaker, 20)
	for i := range breakers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			breakers[i] = m.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, b := range breakers {
		assert.Same(t, breakers[0], b)
	}
}

func TestCircuitBreakerManager_StatsAndReset(t *testing.T) {
	m := NewCircuitBreakerManager(2, time.Minute, 1)

	probe := m.GetOrCreate("hls-probe")
	probe.RecordFailure()
	probe.RecordFailure()
	m.GetOrCreate("idle")

	stats := m.GetAllStats()
	require.Len(t, stats, 2)
	assert.Equal(t, CircuitOpen.String(), stats["hls-probe"].State)
	assert.Equal(t, 2, stats["hls-probe"].Failures)
	assert.Equal(t, CircuitClosed.String(), stats["idle"].State)

	assert.Equal(t, 2, m.ResetAll())
	assert.Equal(t, CircuitClosed, probe.State())
	assert.True(t, probe.Allow())
}
