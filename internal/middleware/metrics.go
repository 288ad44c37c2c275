package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// VoteSubmissions counts poll vote submissions by outcome.
	VoteSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_vote_submissions_total",
		Help: "Total number of poll vote submissions",
	}, []string{"outcome"})

	// LikeConflicts counts like requests rejected as duplicates.
	LikeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_like_conflicts_total",
		Help: "Total number of duplicate like attempts",
	}, []string{"target"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the fiber handler that records HTTP metrics.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
