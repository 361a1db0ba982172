package prometheus

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Classification
	ClassifyTotal    CounterVec
	ClassifyDuration HistogramVec
	ScorerFailures   CounterVec
	CandidateCount   HistogramVec

	// Penalty estimation
	PenaltyEstimatesTotal CounterVec

	// Triage pipeline
	TriageTotal    CounterVec
	TriageDuration HistogramVec

	// Retrieval
	RetrievalTotal    CounterVec
	RetrievalDuration HistogramVec
	IndexSize         GaugeVec

	// Providers
	ProviderRequestsTotal   CounterVec
	ProviderRequestDuration HistogramVec

	// Embedding cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Messaging
	EventsPublishedTotal CounterVec
	IngestTotal          CounterVec
}

// Default histogram buckets.
var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultInferenceDurationBuckets = []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30}
	DefaultCandidateCountBuckets    = []float64{0, 1, 2, 3, 5, 8, 13, 21}
)

// NewAppMetrics registers all metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	m.ClassifyTotal = collector.RegisterCounter("classify_total", "Total classification requests", "status")
	m.ClassifyDuration = collector.RegisterHistogram("classify_duration_seconds", "Classification duration", DefaultInferenceDurationBuckets)
	m.ScorerFailures = collector.RegisterCounter("classify_scorer_failures_total", "Scorer failures absorbed by the ensemble", "method")
	m.CandidateCount = collector.RegisterHistogram("classify_candidate_count", "Candidates returned per classification", DefaultCandidateCountBuckets)

	m.PenaltyEstimatesTotal = collector.RegisterCounter("penalty_estimates_total", "Total penalty estimates", "status")

	m.TriageTotal = collector.RegisterCounter("triage_total", "Total triage pipeline runs", "status")
	m.TriageDuration = collector.RegisterHistogram("triage_duration_seconds", "Full triage pipeline duration", DefaultInferenceDurationBuckets)

	m.RetrievalTotal = collector.RegisterCounter("retrieval_total", "Total case retrieval requests", "status")
	m.RetrievalDuration = collector.RegisterHistogram("retrieval_duration_seconds", "Case retrieval duration", DefaultInferenceDurationBuckets)
	m.IndexSize = collector.RegisterGauge("retrieval_index_size", "Vectors in the case index", "backend")

	m.ProviderRequestsTotal = collector.RegisterCounter("provider_requests_total", "Model provider requests", "provider", "status")
	m.ProviderRequestDuration = collector.RegisterHistogram("provider_request_duration_seconds", "Model provider request duration", DefaultInferenceDurationBuckets, "provider")

	m.CacheHitsTotal = collector.RegisterCounter("embedding_cache_hits_total", "Embedding cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("embedding_cache_misses_total", "Embedding cache misses", "cache")

	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Triage events published", "topic", "status")
	m.IngestTotal = collector.RegisterCounter("case_ingest_total", "Ingested corpus cases", "status")

	return m
}
