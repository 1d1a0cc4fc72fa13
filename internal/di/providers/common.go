package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// reindexTimeout bounds the initial search rebuild started at boot.
	reindexTimeout = 10 * time.Minute
)
