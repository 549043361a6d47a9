// Package syncer moves rows between the device store and the remote store.
//
// Every synchronised table gets one Adapter. The Orchestrator runs the
// adapters in dependency order for backup (push only), restore (pull only)
// and full sync (push then pull, table by table).
package syncer

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInProgress is returned when another sync operation is running
	// on the same Orchestrator.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrFatalPush wraps a row failure on a table whose push must stop at
	// the first error.
	ErrFatalPush = errors.New("fatal push failure")
)

// Policy says what a push does after a row fails.
type Policy int

const (
	// ContinueOnError leaves the row pending and goes on with the next one.
	ContinueOnError Policy = iota
	// FailFast stops the push and returns ErrFatalPush.
	FailFast
)

func (p Policy) String() string {
	switch p {
	case ContinueOnError:
		return "continue"
	case FailFast:
		return "fail-fast"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Stats aggregates one invocation over all tables.
type Stats struct {
	Pushed  int `json:"pushed"`
	Pulled  int `json:"pulled"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *Stats) add(o Stats) {
	s.Pushed += o.Pushed
	s.Pulled += o.Pulled
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// IsZero reports whether nothing happened.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

func (s Stats) String() string {
	return fmt.Sprintf("↑%d ↓%d skipped %d failed %d", s.Pushed, s.Pulled, s.Skipped, s.Failed)
}
