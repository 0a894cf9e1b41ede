package definitions

import (
	"fmt"
)

// StaleThresholdDays is the cache age, in days, at which a source is reported stale
const StaleThresholdDays int64 = 7

// FeedbackLevel is the severity of a Feedback item
type FeedbackLevel int

// Feedback levels
const (
	FeedbackInfo FeedbackLevel = iota
	FeedbackWarning
	FeedbackError
)

// Feedback is a message produced by an operation that keeps going after
// something noteworthy happens, e.g. a file skipped during sync.
type Feedback struct {
	Level   FeedbackLevel
	Message string
}

// InfoFeedback creates an informational feedback item
func InfoFeedback(msg string) Feedback { return Feedback{Level: FeedbackInfo, Message: msg} }

// WarningFeedback creates a warning feedback item
func WarningFeedback(msg string) Feedback { return Feedback{Level: FeedbackWarning, Message: msg} }

// ErrorFeedback creates an error feedback item
func ErrorFeedback(msg string) Feedback { return Feedback{Level: FeedbackError, Message: msg} }

// IsInfo reports whether the feedback is informational
func (f Feedback) IsInfo() bool { return f.Level == FeedbackInfo }

// IsWarning reports whether the feedback is a warning
func (f Feedback) IsWarning() bool { return f.Level == FeedbackWarning }

// IsError reports whether the feedback is an error
func (f Feedback) IsError() bool { return f.Level == FeedbackError }

func (f Feedback) String() string {
	switch f.Level {
	case FeedbackWarning:
		return "warning: " + f.Message
	case FeedbackError:
		return "error: " + f.Message
	default:
		return f.Message
	}
}

// SyncReport summarizes one sync pass
type SyncReport struct {
	Synced   int
	Skipped  int
	Feedback []Feedback
}

// SyncState describes how fresh a source's local cache is
type SyncState int

// Sync states
const (
	NeverSynced SyncState = iota
	Stale
	Fresh
)

// SyncStatus is the freshness of a source's cache. DaysOld is meaningful only
// for Stale and Fresh.
type SyncStatus struct {
	State   SyncState
	DaysOld int64
}

// NewSyncStatus classifies a cache age against StaleThresholdDays
func NewSyncStatus(daysOld int64) SyncStatus {
	if daysOld >= StaleThresholdDays {
		return SyncStatus{State: Stale, DaysOld: daysOld}
	}
	return SyncStatus{State: Fresh, DaysOld: daysOld}
}

func (s SyncStatus) String() string {
	switch s.State {
	case Stale:
		return fmt.Sprintf("stale (%d days old)", s.DaysOld)
	case Fresh:
		return fmt.Sprintf("fresh (%d days old)", s.DaysOld)
	default:
		return "never synced"
	}
}
