package match

import (
	"errors"
	"time"
)

// #region errors
var (
	// ErrSelfMatch is returned when both sides of a match name the same agent.
	ErrSelfMatch = errors.New("agent cannot match itself")
	// ErrProfileNotFound is returned when no profile row exists for an agent id.
	ErrProfileNotFound = errors.New("profile not found")
)

// #endregion errors

// #region match
// Match is a confirmed mutual like between two agents.
// A is always the lexicographically smaller id.
type Match struct {
	ID        string
	A         string
	B         string
	CreatedAt time.Time
}

// NormalizePair orders an unordered agent pair so that a <= b.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// #endregion match

// #region profile
// Profile is the slice of an agent profile the scorer reads and writes.
type Profile struct {
	ID             string
	BotName        string
	ResonanceScore float64
	UpdatedAt      time.Time
}

// #endregion profile
