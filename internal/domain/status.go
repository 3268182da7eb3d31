package domain

import "fmt"

type Status string

const (
	StatusPending Status = "PENDING"
	// StatusProcessing marks a reminder claimed by a dispatch batch.
	StatusProcessing Status = "PROCESSING"
	StatusSent       Status = "SENT"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

func NewStatus(s string) (Status, error) {
	switch s {
	case string(StatusPending), string(StatusProcessing), string(StatusSent),
		string(StatusFailed), string(StatusCancelled):
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// PROCESSING may fall back to PENDING only through stale claim recovery.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}

	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusSent || next == StatusFailed || next == StatusPending
	default:
		return false
	}
}
