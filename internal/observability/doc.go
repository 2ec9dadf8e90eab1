// Package observability provides production-grade observability infrastructure
// including structured logging and OpenTelemetry tracing. Prometheus metrics
// live in internal/handler/http, next to the middleware that records them.
//
// This package centralizes observability concerns to enable:
//   - Request tracing across service boundaries
//   - Structured logging with context propagation
//   - Performance profiling and debugging
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - tracing: OpenTelemetry tracing integration
//
// Example usage:
//
//	import "feedhistd/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//	}
package observability
