package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeserve_booking_transitions_total",
		Help: "Booking state transitions by kind",
	}, []string{"transition"})

	bookingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeserve_booking_rejections_total",
		Help: "Refused booking operations by error code",
	}, []string{"code"})

	paymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homeserve_payments_total",
		Help: "Jobs marked paid",
	})

	reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeserve_reviews_total",
		Help: "Reviews submitted by reviewer role",
	}, []string{"reviewer_role"})

	messagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homeserve_messages_total",
		Help: "Chat messages stored",
	})
)

// observeRefusal counts a structured refusal; store failures are not counted.
func observeRefusal(err error) {
	var se *Error
	if errors.As(err, &se) {
		bookingRejections.WithLabelValues(se.Code).Inc()
	}
}
