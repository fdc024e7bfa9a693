package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// connectTimeout bounds the initial connection to a remote database.
	connectTimeout = 10 * time.Second

	// rateLimiterIdleTTL is how long an idle client keeps its token bucket.
	rateLimiterIdleTTL = 10 * time.Minute
)
