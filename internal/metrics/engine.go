package metrics

// EngineMetrics holds all engine-specific metrics.
type EngineMetrics struct {
	registry *Registry

	// Counters
	EvaluationsTotal        *Counter
	VerdictKeepTotal        *Counter
	VerdictDemoteTotal      *Counter
	VerdictCutTotal         *Counter
	CollectionFailuresTotal *Counter
	SamplesCollectedTotal   *Counter

	// Gauges
	LastAuditSources *Gauge
	LastAuditKept    *Gauge

	// Histograms
	EvaluationDuration *Histogram
}

// NewEngineMetrics creates and registers all engine metrics.
func NewEngineMetrics(registry *Registry) *EngineMetrics {
	if registry == nil {
		registry = Default()
	}
	return &EngineMetrics{
		registry: registry,
		EvaluationsTotal: registry.RegisterCounter(
			"entrospect_evaluations_total",
			"Total number of source evaluations performed"),
		VerdictKeepTotal: registry.RegisterCounter(
			"entrospect_verdict_keep_total",
			"Total number of keep verdicts"),
		VerdictDemoteTotal: registry.RegisterCounter(
			"entrospect_verdict_demote_total",
			"Total number of demote verdicts"),
		VerdictCutTotal: registry.RegisterCounter(
			"entrospect_verdict_cut_total",
			"Total number of cut verdicts"),
		CollectionFailuresTotal: registry.RegisterCounter(
			"entrospect_collection_failures_total",
			"Total number of failed sample collections"),
		SamplesCollectedTotal: registry.RegisterCounter(
			"entrospect_samples_collected_total",
			"Total number of timing samples collected"),
		LastAuditSources: registry.RegisterGauge(
			"entrospect_last_audit_sources",
			"Number of sources in the most recent audit"),
		LastAuditKept: registry.RegisterGauge(
			"entrospect_last_audit_kept",
			"Number of sources kept in the most recent audit"),
		EvaluationDuration: registry.RegisterHistogram(
			"entrospect_evaluation_duration_seconds",
			"Wall-clock duration of single-source evaluations",
			[]float64{0.1, 0.5, 1, 5, 15, 60, 300}),
	}
}

// RecordVerdict increments the counter matching the verdict label.
func (m *EngineMetrics) RecordVerdict(label string) {
	switch label {
	case "keep":
		m.VerdictKeepTotal.Inc()
	case "demote":
		m.VerdictDemoteTotal.Inc()
	case "cut":
		m.VerdictCutTotal.Inc()
	}
}
