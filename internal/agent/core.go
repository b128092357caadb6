// Package agent implements the two conversants: a belief-tracking system agent
// driven by a threshold policy, and a goal-driven user agent that reacts to
// the system acts it hears. Both keep a shared-shape turn history.
package agent

import (
	"simdial/internal/action"
)

// Speaker identifies a side of the conversation.
type Speaker string

const (
	SpeakerUser   Speaker = "usr"
	SpeakerSystem Speaker = "sys"
)

// Floor states for an agent's turn-taking machine.
type floorState int

const (
	floorListen floorState = iota
	floorSpeak
	floorExit
)

// Turn is one history entry: who spoke and what they said.
type Turn struct {
	Speaker Speaker
	Actions []*action.Action
}

// History is the ordered list of turns an agent has seen.
type History []Turn

// Append records a turn with a deep copy of the actions, so later channel
// corruption cannot rewrite the record.
func (h *History) Append(speaker Speaker, actions []*action.Action) {
	*h = append(*h, Turn{Speaker: speaker, Actions: action.CloneAll(actions)})
}

// LastActions returns the most recent turn by the given speaker, or nil.
func (h History) LastActions(speaker Speaker) []*action.Action {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Speaker == speaker {
			return h[i].Actions
		}
	}
	return nil
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
