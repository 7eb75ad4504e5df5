package measure

import "time"

type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
	AddRun(elapsed time.Duration)
	Runs() int64
	TotalDuration() time.Duration
}

type Metric interface {
	AddDuration(elapsed time.Duration)
	Runs() int64
	TotalDuration() time.Duration
	AVGDuration() time.Duration
}
