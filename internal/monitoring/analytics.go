package monitoring

// AnalyticsReport breaks down recent usage by user, intent, and outcome.
type AnalyticsReport struct {
	Requests           int              `json:"requests"`
	UniqueUsers        int              `json:"unique_users"`
	RequestsPerUser    map[string]int   `json:"requests_per_user"`
	IntentDistribution map[string]int   `json:"intent_distribution"`
	BlocksByReason     map[string]int   `json:"blocks_by_reason"`
	ErrorRate          float64          `json:"error_rate"`
	AverageLatencyMS   float64          `json:"average_latency_ms"`
}

// Analytics derives usage breakdowns from completed request records.
type Analytics struct {
	collector *Collector
}

// NewAnalytics creates an analytics view over a collector.
func NewAnalytics(collector *Collector) *Analytics {
	return &Analytics{collector: collector}
}

// Report summarizes the most recent n completed requests (all retained
// history when n <= 0).
func (a *Analytics) Report(n int) AnalyticsReport {
	records := a.collector.Recent(n)

	report := AnalyticsReport{
		Requests:           len(records),
		RequestsPerUser:    make(map[string]int),
		IntentDistribution: make(map[string]int),
		BlocksByReason:     make(map[string]int),
	}

	var failed int
	var totalLatency float64
	for _, rec := range records {
		report.RequestsPerUser[rec.UserID]++
		if rec.Intent != "" {
			report.IntentDistribution[rec.Intent]++
		}
		if rec.BlockReason != "" {
			report.BlocksByReason[rec.BlockReason]++
		}
		if !rec.Success {
			failed++
		}
		totalLatency += rec.LatencyMS
	}

	report.UniqueUsers = len(report.RequestsPerUser)
	if len(records) > 0 {
		report.ErrorRate = float64(failed) / float64(len(records))
		report.AverageLatencyMS = totalLatency / float64(len(records))
	}
	return report
}
