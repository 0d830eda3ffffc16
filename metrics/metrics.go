package metrics

import "time"

// Recorder receives route resolution and tracking measurements.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Counter and latency names emitted by the library.
const (
	CapabilityQueryFailed = "capability_query_failed"
	RoutesResolved        = "routes_resolved"
	FindRoutes            = "find_routes"
	TrackerPoll           = "tracker_poll"
	TrackerPollFailed     = "tracker_poll_failed"
	StateAdvanced         = "state_advanced"
)
