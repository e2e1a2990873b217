package prebuilt

import (
	"errors"

	"github.com/salaryse/assistant/upstream"
)

var (
	// ErrRoutingAmbiguous is returned when the router output names no known datasource.
	ErrRoutingAmbiguous = errors.New("routing ambiguous")

	// ErrGradingFailed is returned when a grader verdict cannot be parsed.
	ErrGradingFailed = errors.New("grading failed")

	// ErrRetryBudgetExhausted is returned under FallbackRefuse when generation
	// checks keep failing past the retry budget.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)

// IsRetryable reports whether asking again may succeed: upstream timeouts and
// outages, and unparsable grader verdicts.
func IsRetryable(err error) bool {
	return upstream.IsRetryable(err) || errors.Is(err, ErrGradingFailed)
}
