package testutil

import (
	"fmt"
	"sync"

	"sip-go/internal/sip"
)

// StubIDGenerator hands out "id-1", "id-2", ... so guest IDs are predictable.
type StubIDGenerator struct {
	mu   sync.Mutex
	next int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

var _ sip.IDGenerator = (*StubIDGenerator)(nil)
