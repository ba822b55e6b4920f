// Package identity tracks the currently-authenticated user id for the
// synchronization engine. It is the single source of truth for "who is the
// current user" and the transition point that must not lose data.
package identity

import "sync"

// Transition classifies the outcome of a SetUserID call.
type Transition int

const (
	// TransitionNone: the id did not change.
	TransitionNone Transition = iota

	// TransitionFirstAuth: unknown → known. Queued items created before
	// the session existed must be preserved and retried immediately.
	TransitionFirstAuth

	// TransitionSwitch: a different user signed in, directly or after a
	// sign-out. Per-user state and queued operations for the previous
	// user must be discarded.
	TransitionSwitch

	// TransitionSignOut: known → unknown. Queued items are retained but
	// not drained until a new identity is bound.
	TransitionSignOut
)

func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionFirstAuth:
		return "first-auth"
	case TransitionSwitch:
		return "switch"
	case TransitionSignOut:
		return "sign-out"
	default:
		return "unknown"
	}
}

// Binder holds the current user id. The empty string means "not yet
// authenticated". Safe for concurrent use.
type Binder struct {
	mu     sync.Mutex
	userID string

	// lastUserID survives a sign-out so the next sign-in can be told
	// apart: the same account returning resumes its session (first-auth
	// semantics), anyone else is a user switch and must not inherit the
	// previous account's state.
	lastUserID string
}

func NewBinder() *Binder {
	return &Binder{}
}

// UserID returns the bound user id, or "" when authentication has not
// happened yet.
func (b *Binder) UserID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userID
}

// SetUserID records the new identity and reports which transition took
// place. The caller acts on the result; the binder itself keeps no queue or
// store state.
func (b *Binder) SetUserID(newID string) Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case newID == b.userID:
		return TransitionNone
	case newID == "":
		b.userID = ""
		return TransitionSignOut
	case b.userID == "" && (b.lastUserID == "" || b.lastUserID == newID):
		b.userID = newID
		b.lastUserID = newID
		return TransitionFirstAuth
	default:
		b.userID = newID
		b.lastUserID = newID
		return TransitionSwitch
	}
}
