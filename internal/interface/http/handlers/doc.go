// Package handlers contains the reusable pieces of the HTTP API: health
// checks and middleware.
//
// # Health Checks
//
// Checks are registered by name and run in parallel. A failing critical check
// makes the service unhealthy; a failing non-critical one only marks it
// degraded, since pages are still served from the local cache:
//
//	checker := handlers.NewCompositeHealthChecker("v1")
//	checker.AddCheck("postgres", handlers.NewPingCheck(conn))
//	checker.AddNonCriticalCheck("redis", handlers.NewPingCheck(cache))
//	checker.AddNonCriticalCheck("sheets", handlers.NewBreakerCheck(func() string {
//	    return client.Status().Breaker
//	}))
//
// # Middleware
//
// Middleware are plain func(http.Handler) http.Handler values composed with
// Chain. RequestID must run before Logging and Recovery so that both find the
// request-scoped logger in the context:
//
//	h := handlers.Chain(
//	    handlers.RequestID(log),
//	    handlers.Logging,
//	    handlers.Recovery,
//	)(mux)
package handlers
