package classifier

import (
	"fmt"
	"sync"

	"github.com/abhisek/atrisk/internal/encoder"
)

// Mock is a deterministic Classifier for testing. It returns the same
// output for every call and records the vectors it receives.
type Mock struct {
	mu      sync.Mutex
	variant Variant
	out     Output
	err     error
	Calls   []encoder.Vector
}

// NewMock creates a Mock for variant returning out, or err when non-nil.
func NewMock(variant Variant, out Output, err error) *Mock {
	return &Mock{variant: variant, out: out, err: err}
}

func (m *Mock) Variant() Variant { return m.variant }

func (m *Mock) Predict(v encoder.Vector) (Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, v)
	if m.err != nil {
		return Output{}, m.err
	}
	return m.out, nil
}

// Fingerprint is unique per Mock instance so tests sharing a cache never
// see each other's results.
func (m *Mock) Fingerprint() string {
	return fmt.Sprintf("mock:%s:%p", m.variant, m)
}

// CallCount returns the number of Predict calls made.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
