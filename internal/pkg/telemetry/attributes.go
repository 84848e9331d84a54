package telemetry

// Span attribute keys shared by the instrumented components.
const (
	// Map controller
	AttrMapGeneration = "map.generation"
	AttrMapState      = "map.state"
	AttrMapStale      = "map.stale"

	// Backend REST calls
	AttrHTTPMethod     = "http.method"
	AttrHTTPPath       = "http.path"
	AttrHTTPStatusCode = "http.status_code"
)
