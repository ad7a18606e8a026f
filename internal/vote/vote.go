// Package vote holds the vote domain shared by the server handlers and the
// optimistic client: vote types, tallies, upsert outcomes and the client-side
// state machine.
package vote

import "fmt"

// Type is a vote direction. The zero value None means "no vote".
type Type string

const (
	None Type = ""
	Up   Type = "UP"
	Down Type = "DOWN"
)

// ParseType accepts exactly "UP" or "DOWN".
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Up, Down:
		return Type(s), nil
	}
	return None, fmt.Errorf("invalid vote type %q", s)
}

func (t Type) Valid() bool {
	return t == Up || t == Down
}

// Delta is the contribution of a single vote of this type to a tally.
func (t Type) Delta() int {
	switch t {
	case Up:
		return 1
	case Down:
		return -1
	}
	return 0
}

func (t Type) Opposite() Type {
	switch t {
	case Up:
		return Down
	case Down:
		return Up
	}
	return None
}

// Tally is count(UP) - count(DOWN).
func Tally(types []Type) int {
	n := 0
	for _, t := range types {
		n += t.Delta()
	}
	return n
}

// Outcome is the branch taken by a server-side vote upsert.
type Outcome int

const (
	// Created: there was no vote, one was inserted.
	Created Outcome = iota + 1
	// Removed: the same type was requested again, the vote was deleted.
	Removed
	// Changed: the opposite type was requested, the vote was flipped.
	Changed
)

// Message is the plain-text acknowledgement returned to clients.
func (o Outcome) Message() string {
	switch o {
	case Created:
		return "No existing vote: OK"
	case Removed:
		return "Same vote type: OK"
	case Changed:
		return "Different vote type: OK"
	}
	return "OK"
}

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	}
	return "unknown"
}

// Resolve decides the upsert branch for an existing vote (None if absent)
// and a requested type. It returns the outcome and the type stored afterwards.
func Resolve(existing, requested Type) (Outcome, Type) {
	switch existing {
	case None:
		return Created, requested
	case requested:
		return Removed, None
	default:
		return Changed, requested
	}
}
