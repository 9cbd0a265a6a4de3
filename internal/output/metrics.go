package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cicompare/internal/classify"
)

const metricsNamespace = "cicompare"

// MetricsSink records the run as Prometheus gauges and writes them in the
// node_exporter textfile format on Close.
type MetricsSink struct {
	path     string
	registry *prometheus.Registry
	mu       sync.Mutex
	caseName string

	artifactSeverity *prometheus.GaugeVec
	outcomeFlag      *prometheus.GaugeVec
	publishFiles     *prometheus.GaugeVec
	publishSuccess   *prometheus.GaugeVec
	exitCode         *prometheus.GaugeVec
	finishedAt       *prometheus.GaugeVec
}

func NewMetricsSink(path string) (*MetricsSink, error) {
	if path == "" {
		return nil, fmt.Errorf("metrics textfile path required")
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsSink{
		path:     path,
		registry: reg,
		artifactSeverity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "artifact",
			Name:      "severity",
			Help:      "Artifact severity: 0 not compared, 1 equal, 2 small diffs, 3 big diffs",
		}, []string{"case", "artifact"}),
		outcomeFlag: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "outcome",
			Name:      "flag",
			Help:      "Outcome flags (has_diffs, has_small_diffs, success) as 0 or 1",
		}, []string{"case", "flag"}),
		publishFiles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "publish",
			Name:      "files",
			Help:      "Diff artifacts by publication status",
		}, []string{"case", "status"}),
		publishSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "publish",
			Name:      "success",
			Help:      "1 if publication completed without errors",
		}, []string{"case", "backend"}),
		exitCode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "run",
			Name:      "exit_code",
			Help:      "Process exit code of the run",
		}, []string{"case"}),
		finishedAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "run",
			Name:      "finished_timestamp_seconds",
			Help:      "Unix time the run finished",
		}, []string{"case"}),
	}, nil
}

func (s *MetricsSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t := v.(type) {
	case classify.Result:
		s.artifactSeverity.WithLabelValues(s.caseName, string(t.Artifact)).Set(float64(t.Severity))
	case Event:
		if t.Case != "" {
			s.caseName = t.Case
		}
		switch t.Type {
		case EventOutcome:
			if t.Outcome == nil {
				return nil
			}
			s.outcomeFlag.WithLabelValues(s.caseName, "has_diffs").Set(boolGauge(t.Outcome.HasDiffs))
			s.outcomeFlag.WithLabelValues(s.caseName, "has_small_diffs").Set(boolGauge(t.Outcome.HasSmallDiffs))
			s.outcomeFlag.WithLabelValues(s.caseName, "success").Set(boolGauge(t.Outcome.Success))
		case EventPublishFinished:
			if t.Publish == nil {
				return nil
			}
			published := len(t.Publish.Published())
			s.publishFiles.WithLabelValues(s.caseName, "published").Set(float64(published))
			s.publishFiles.WithLabelValues(s.caseName, "failed").Set(float64(len(t.Publish.Files) - published))
			s.publishFiles.WithLabelValues(s.caseName, "empty").Set(float64(len(t.Publish.Empty)))
			s.publishSuccess.WithLabelValues(s.caseName, t.Publish.Backend).Set(boolGauge(t.Publish.Success))
		case EventRunFinished:
			s.exitCode.WithLabelValues(s.caseName).Set(float64(t.ExitCode))
			s.finishedAt.WithLabelValues(s.caseName).Set(float64(time.Now().Unix()))
		}
	}
	return nil
}

func (s *MetricsSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
