// Package tracing provides OpenTelemetry tracing integration: a server-span
// HTTP middleware wired at the top of cmd/api/main.go's middleware chain,
// and a shared tracer any component can start child spans from.
//
// Example usage:
//
//	handler := tracing.Middleware(mux)
//
//	func (f *Fetcher) Fetch(ctx context.Context, url string, ...) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "fetcher.Fetch")
//	    defer span.End()
//	    // ...
//	}
package tracing
