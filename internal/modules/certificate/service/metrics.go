package service

import (
	"anoa.com/gemcert/internal/modules/certificate/dto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultValid    = "valid"
	resultInvalid  = "invalid"
	resultTampered = "tampered"
)

// Metrics counts certificate writes and verification outcomes. A nil
// *Metrics records nothing.
type Metrics struct {
	createdTotal       *prometheus.CounterVec
	verificationsTotal *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}
	factory := promauto.With(registry)
	return &Metrics{
		createdTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemcert_certificates_created_total",
			Help: "Certificates created, by the payload contract that accepted them.",
		}, []string{"contract"}),
		verificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemcert_verifications_total",
			Help: "Public verification requests, by outcome.",
		}, []string{"result"}),
	}
}

func (m *Metrics) incCreated(contract dto.Contract) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(string(contract)).Inc()
}

func (m *Metrics) incVerified(result string) {
	if m == nil {
		return
	}
	m.verificationsTotal.WithLabelValues(result).Inc()
}
