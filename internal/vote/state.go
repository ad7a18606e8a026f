package vote

// State is the client's view of one target.
type State struct {
	VotesAmount int
	CurrentVote Type
}

// Transition records what an optimistic update changed so it can be undone.
type Transition struct {
	Previous Type
	Delta    int
}

// ApplyOptimistic applies a vote click locally, before the server confirms it.
//
// Clicking the current direction clears the vote. Otherwise the vote is set
// and the tally moves by 1, or by 2 when switching from the opposite vote.
func ApplyOptimistic(s State, t Type) (State, Transition) {
	tr := Transition{Previous: s.CurrentVote}

	if s.CurrentVote == t {
		tr.Delta = -t.Delta()
		return State{VotesAmount: s.VotesAmount + tr.Delta, CurrentVote: None}, tr
	}

	tr.Delta = t.Delta()
	if s.CurrentVote != None {
		tr.Delta *= 2
	}
	return State{VotesAmount: s.VotesAmount + tr.Delta, CurrentVote: t}, tr
}

// Rollback undoes exactly the delta tr applied and restores the previous vote.
func Rollback(s State, tr Transition) State {
	return State{VotesAmount: s.VotesAmount - tr.Delta, CurrentVote: tr.Previous}
}
