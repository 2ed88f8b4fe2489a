package platform

import (
	"context"
	"time"

	"github.com/dialdirect/backend/internal/types"
)

// Client is the subset of the remote call-center platform the dispatcher
// needs: the agent roster, the recent-call feed, and call placement.
type Client interface {
	ListAgents(ctx context.Context) ([]types.PlatformAgent, error)
	ListRecentCalls(ctx context.Context, window time.Duration) ([]types.CallEntry, error)
	PlaceCall(ctx context.Context, agentID, phoneNumber string) error
}

// CRMClient upserts contacts in the CRM ahead of a dispatch.
type CRMClient interface {
	EnsureContact(ctx context.Context, lead types.Lead) (contactID string, err error)
}

// CallErrorKind classifies a failed placeCall operation.
type CallErrorKind string

const (
	ErrKindBusy          CallErrorKind = "busy"
	ErrKindUnavailable   CallErrorKind = "unavailable"
	ErrKindInvalidTarget CallErrorKind = "invalid_target"
	ErrKindTransport     CallErrorKind = "transport"
)

// CallError is a typed placement failure. Kind drives the fallback
// cascade's retry decision; Message is kept for the audit trail.
type CallError struct {
	Kind    CallErrorKind
	Message string
}

func (e *CallError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ResultOf maps a placement error to an attempt result. A nil error is a
// success; untyped errors (timeouts, transport failures) are non-retryable.
func ResultOf(err error) types.AttemptResult {
	if err == nil {
		return types.AttemptSuccess
	}
	callErr, ok := err.(*CallError)
	if !ok {
		return types.AttemptError
	}
	switch callErr.Kind {
	case ErrKindBusy:
		return types.AttemptBusy
	case ErrKindUnavailable:
		return types.AttemptUnavailable
	case ErrKindInvalidTarget:
		return types.AttemptInvalidTarget
	default:
		return types.AttemptError
	}
}
