package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "sessions_created_total", Help: "Attendance sessions created",
	})
	Scans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "scans_total", Help: "QR scan attempts by outcome",
	}, []string{"outcome"})
	Exports = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "exports_total", Help: "Attendance spreadsheets exported",
	})
)

// Scan outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeExpired   = "expired"
	OutcomeDuplicate = "duplicate"
	OutcomeForbidden = "not_enrolled"
	OutcomeError     = "error"
)

func init() {
	prometheus.MustRegister(SessionsCreated, Scans, Exports)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
