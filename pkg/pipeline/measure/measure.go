package measure

import (
	"sync"
	"time"
)

type DefaultMeasure struct {
	mu      sync.Mutex
	stages  map[string]Metric
	runs    int64
	elapsed time.Duration
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		stages: make(map[string]Metric),
	}
}

// AddMetric registers a metric for a stage. Registering the same stage twice
// returns the existing metric, so measures survive pipeline reuse.
func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.stages[name]; ok {
		return mt
	}

	mt := &DefaultMetric{
		mu: &sync.Mutex{},
	}
	m.stages[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stages[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make(map[string]Metric, len(m.stages))
	for name, mt := range m.stages {
		all[name] = mt
	}

	return all
}

// AddRun records the wall time of one full pipeline run.
func (m *DefaultMeasure) AddRun(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs++
	m.elapsed += elapsed
}

func (m *DefaultMeasure) Runs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.runs
}

func (m *DefaultMeasure) TotalDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.elapsed
}

var _ Measure = (*DefaultMeasure)(nil)
