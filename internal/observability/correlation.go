package observability

import (
	"github.com/google/uuid"
)

// NewRunID returns a unique identifier tying together every log line,
// report, and history row of one invocation.
func NewRunID() string {
	return "run_" + uuid.NewString()
}
