package providers

import "time"

// shutdownTimeout is how long graceful shutdown operations are given.
const shutdownTimeout = 30 * time.Second
