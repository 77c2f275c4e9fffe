// Package id provides ULID generation for request identifiers.
//
// ULIDs are lexicographically sortable by creation time, so request IDs in
// logs line up with wall-clock order. Request IDs carry a "req_" prefix.
package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies an API request
type RequestID string

// RequestPrefix marks request IDs in logs and headers
const RequestPrefix = "req"

// Generator generates ULIDs that stay strictly increasing within a millisecond
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var defaultGenerator = NewGenerator()

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// RequestID creates a prefixed request ID
func (g *Generator) RequestID() RequestID {
	return RequestID(RequestPrefix + "_" + g.Generate().String())
}

// NewRequestID generates a request ID from the shared generator
func NewRequestID() RequestID {
	return defaultGenerator.RequestID()
}

func (id RequestID) String() string { return string(id) }

// ParseRequestID accepts a client-supplied request ID of the form
// "req_<ulid>". Anything else is rejected so arbitrary header values never
// reach the logs.
func ParseRequestID(s string) (RequestID, bool) {
	rest, ok := strings.CutPrefix(s, RequestPrefix+"_")
	if !ok {
		return "", false
	}
	if _, err := ulid.ParseStrict(rest); err != nil {
		return "", false
	}
	return RequestID(s), true
}
