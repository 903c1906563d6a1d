// Package lifecycle holds shared start/stop limits for long-lived components.
package lifecycle

import "time"

// DefaultTimeout bounds start probes and graceful shutdown of servers, pools and clients.
const DefaultTimeout = 10 * time.Second
