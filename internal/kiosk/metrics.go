package kiosk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kiosk_taps_total",
	Help: "Tap events by outcome.",
}, []string{"result"})

const (
	resultLogin    = "login"
	resultLogout   = "logout"
	resultRejected = "rejected"
	resultNotFound = "not_found"
	resultFailed   = "failed"
)
