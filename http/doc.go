// Package http dispatches batches of HTTP requests concurrently and hands
// back one Outcome per request.
//
// This package is designed for programmatic use and provides:
//   - Endpoints that fix scheme, host, base path and authentication
//   - Immutable request specs built from an Endpoint with functional options
//   - An Engine that runs a whole batch at once, isolates failures per
//     request and decodes JSON responses into value.Value
//   - Detailed timing information (DNS, TCP, TLS, TTFB) per exchange
//   - Percent-encoding helpers for path segments
//
// Basic Usage:
//
//	engine, err := http.NewEngine(http.WithTimeout(30 * time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	ep, err := http.NewEndpoint(http.EndpointConfig{
//	    Scheme:   "http",
//	    Host:     "localhost:8081",
//	    BasePath: "/data",
//	    Auth:     http.Basic("Supervisor", "Supervisor"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	firms, _ := ep.Get("/firms")
//	users, _ := ep.Get("/users/" + http.URLEncode("jane doe"))
//
//	outcomes, err := engine.Submit(context.Background(), firms, users)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, o := range outcomes {
//	    if o.Failed() {
//	        fmt.Printf("%s failed: %v\n", o.URL, o.Err)
//	        continue
//	    }
//	    fmt.Printf("%s -> %d in %v\n", o.URL, o.Status, o.Elapsed)
//	}
//
// Hooks:
//
// EndpointConfig.OnResponse and WithOnResponse register callbacks that run
// as each exchange finishes, in completion order, on the goroutine that
// called Submit. The endpoint hook runs before the request hook.
//
// Every request carries "Accept: application/json". Requests with a JSON
// body also carry "Content-Type: application/json". Endpoint auth headers
// are added last; see AuthPolicy for how they combine with a request's own
// Authorization header. Redirects are returned as-is and not followed.
package http
