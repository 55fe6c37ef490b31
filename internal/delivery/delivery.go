// Package delivery defines the contract every transport-level server
// (HTTP API, Pub/Sub push worker) satisfies so main can start them
// uniformly.
package delivery

import "context"

// Delivery is a runnable server. Serve blocks until the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
