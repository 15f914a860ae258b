package insight

import (
	"context"

	"github.com/trace-spatial/trace-app/internal/behavior"
)

// MockExplainer is a test double for the Explainer interface.
type MockExplainer struct {
	Recap *Recap
	Err   error
	Calls []behavior.LossQuery // records the queries explained
}

// Explain records the call and returns the mock recap.
func (m *MockExplainer) Explain(_ context.Context, q behavior.LossQuery, _ behavior.Scores) (*Recap, error) {
	m.Calls = append(m.Calls, q)
	return m.Recap, m.Err
}
