package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessReporter is implemented by the ingest consumer.
type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

// Readiness is ready once the consumer holds at least one partition.
func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ok, parts := rr.Readiness()
		body := struct {
			Status     string  `json:"status"`
			Partitions []int32 `json:"partitions,omitempty"`
		}{Status: status(ok)}
		if ok {
			body.Partitions = parts
		}
		writeStatus(w, ok, body)
	}
}

func status(ready bool) string {
	if ready {
		return "ready"
	}
	return "not_ready"
}

func writeStatus(w http.ResponseWriter, ready bool, body any) {
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}
