package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/indieinfra/cloudshelf/media"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudshelf",
			Name:      "uploads_total",
			Help:      "Uploads by media kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	deletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudshelf",
			Name:      "deletes_total",
			Help:      "Deletes by media kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudshelf",
			Name:      "compensations_total",
			Help:      "Compensating media deletes issued after a failed record insert",
		},
		[]string{"kind", "outcome"},
	)
)

func ObserveUpload(kind media.Kind, outcome string) {
	uploadsTotal.WithLabelValues(kind.String(), outcome).Inc()
}

func ObserveDelete(kind media.Kind, outcome string) {
	deletesTotal.WithLabelValues(kind.String(), outcome).Inc()
}

func ObserveCompensation(kind media.Kind, outcome string) {
	compensationsTotal.WithLabelValues(kind.String(), outcome).Inc()
}
