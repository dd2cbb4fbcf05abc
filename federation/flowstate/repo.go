package flowstate

import "time"

// AuthFlowState is what the server remembers between sending a browser to an
// identity provider and receiving it back on the callback.
type AuthFlowState struct {
	Provider     string
	CodeVerifier string
	Nonce        string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	// Take returns the state and removes it, so each state value can complete one flow
	Take(state string) (*AuthFlowState, error)
	// Purge drops states older than the repo's time to live and returns how many were removed
	Purge() int
}
