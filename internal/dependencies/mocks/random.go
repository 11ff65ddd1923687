package mocks

import (
	"fmt"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing. Queued results
// are returned in order; when the queue is exhausted, Token falls back to a
// deterministic counter so id generation in tests never collides.
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// StringResults is a queue of results to return from String and Token
	StringResults []string
	stringIndex   int

	tokenCounter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// String returns the next queued result, or a counter-based value if none
// remaining
func (r *MockRandom) String(length int, alphabet string) string {
	return r.nextString()
}

// Token returns the next queued result, or a counter-based value if none
// remaining
func (r *MockRandom) Token(length int) string {
	return r.nextString()
}

func (r *MockRandom) nextString() string {
	if r.stringIndex < len(r.StringResults) {
		result := r.StringResults[r.stringIndex]
		r.stringIndex++
		return result
	}
	r.tokenCounter++
	return fmt.Sprintf("mock-token-%d", r.tokenCounter)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueString adds values to the String/Token result queue
func (r *MockRandom) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}
