package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiKeyAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quoteapi_api_key_auth_total",
		Help: "API key authentication attempts by outcome",
	},
	[]string{"result"},
)

const (
	authResultOK         = "ok"
	authResultMissingKey = "missing_key"
	authResultInvalidKey = "invalid_key"
	authResultError      = "error"
)
