package assistant

import (
	"context"
	"errors"

	"github.com/salaryse/assistant/graph"
	"github.com/salaryse/assistant/prebuilt"
	"github.com/salaryse/assistant/upstream"
)

// ErrInvalidRequest is returned when a request fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// Messages shown to users in place of raw errors.
const (
	MessageInvalidRequest  = "Please send a question along with a conversation id."
	MessageNotUnderstood   = "Sorry, I could not work out how to answer that. Could you rephrase your question?"
	MessageNoConfidence    = "Sorry, I could not find a reliable answer to that. Please try asking in a different way."
	MessageTimeout         = "Sorry, that took too long. Please try again in a moment."
	MessageUnavailable     = "Sorry, I am having trouble reaching my services right now. Please try again later."
	MessageCancelled       = "The request was cancelled."
	MessageInternalFailure = "Sorry, something went wrong while answering. Please try again."
)

// UserMessage maps an error from Ask to a message suitable for end users.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return MessageInvalidRequest
	case errors.Is(err, prebuilt.ErrRoutingAmbiguous), errors.Is(err, prebuilt.ErrGradingFailed):
		return MessageNotUnderstood
	case errors.Is(err, prebuilt.ErrRetryBudgetExhausted), errors.Is(err, graph.ErrStepLimitExceeded):
		return MessageNoConfidence
	case errors.Is(err, upstream.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return MessageTimeout
	case errors.Is(err, upstream.ErrUpstreamUnavailable):
		return MessageUnavailable
	case errors.Is(err, context.Canceled):
		return MessageCancelled
	default:
		return MessageInternalFailure
	}
}
