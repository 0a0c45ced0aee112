package metrics

import (
	"time"
)

func (m *HTTPServerMetrics) RecordReload(service string, duration time.Duration, segments int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.reloadTotal.WithLabelValues(service, status).Inc()
	m.reloadDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil {
		m.indexSegments.WithLabelValues(service).Set(float64(segments))
	}
}

// ObserveIndexAge records how long after its build an index was picked up.
func (m *HTTPServerMetrics) ObserveIndexAge(service string, builtAt time.Time) {
	if builtAt.IsZero() {
		return
	}
	age := time.Since(builtAt)
	if age < 0 {
		return
	}
	m.indexAge.WithLabelValues(service).Observe(age.Seconds())
}
