package testfixtures

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// idNamespace seeds the UUIDs handed out by UUIDs so runs are reproducible.
var idNamespace = uuid.MustParse("6f1c2a8e-4b1d-4c55-9f0e-2d7a3b9c1e42")

// IDGenerator hands out predictable identifiers for users, reservations and
// sessions. Production code uses uuid.NewString and random tokens instead.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	uuids   bool
}

// NewIDGenerator yields "<prefix>-1", "<prefix>-2", and so on. An empty prefix means "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// UUIDs yields name-based UUIDs derived from the prefix and a counter. Use it
// where an identifier must look like the production ones.
func UUIDs(prefix string) *IDGenerator {
	g := NewIDGenerator(prefix)
	g.uuids = true
	return g
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	id := fmt.Sprintf("%s-%d", g.prefix, g.counter)
	if g.uuids {
		return uuid.NewSHA1(idNamespace, []byte(id)).String()
	}
	return id
}

// NextFunc returns Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many identifiers have been handed out.
func (g *IDGenerator) Issued() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
