// Package resilience provides per-host circuit breakers for outbound downloads.
//
// A Breakers set lazily creates one sony/gobreaker circuit per key. After
// ConsecutiveFailures counted failures a circuit opens and rejects calls with
// ErrCircuitOpen until Timeout passes; then a single probe decides whether it
// closes again.
//
// Example Usage:
//
//	breakers := resilience.New(resilience.Settings{ConsecutiveFailures: 5})
//	err := breakers.Execute(u.Host, func() error {
//		return fetcher.Fetch(ctx, req)
//	})
package resilience
