package metrics

import "sync/atomic"

// Outcome labels for vendor_import_watch_outcomes_total.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
	OutcomeStopped   = "stopped"
)

// WatchMetrics keeps process-local counters next to the prometheus series so the
// CLI can print a summary without scraping itself.
type WatchMetrics struct {
	Polls           atomic.Int32
	TransientErrors atomic.Int32
	Completed       atomic.Int32
	Failed          atomic.Int32
	Abandoned       atomic.Int32
}

func (m *WatchMetrics) Poll() {
	m.Polls.Add(1)
	importPollsTotal.Inc()
}

func (m *WatchMetrics) TransientError() {
	m.TransientErrors.Add(1)
	importPollErrorsTotal.Inc()
}

func (m *WatchMetrics) Started() {
	importWatchActive.Set(1)
}

// Finished records how a loop ended; outcome is one of the Outcome* constants.
func (m *WatchMetrics) Finished(outcome string) {
	importWatchActive.Set(0)
	importWatchOutcomes.WithLabelValues(outcome).Inc()
	switch outcome {
	case OutcomeCompleted:
		m.Completed.Add(1)
	case OutcomeFailed:
		m.Failed.Add(1)
	case OutcomeAbandoned:
		m.Abandoned.Add(1)
	}
}
