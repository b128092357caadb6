// Package action defines the symbolic dialog acts exchanged between the user
// and system agents, plus the reserved meta slots. Acts carry heterogeneous
// parameters; the Action struct is a tagged variant where only the fields an
// act needs are populated.
package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Act is a dialog act tag.
type Act string

// System acts.
const (
	Greet           Act = "greet"
	Goodbye         Act = "goodbye"
	ImplicitConfirm Act = "implicit_confirm"
	ExplicitConfirm Act = "explicit_confirm"
	Inform          Act = "inform"
	Request         Act = "request"
	Clarify         Act = "clarify"
	AskRephrase     Act = "ask_rephrase"
	AskRepeat       Act = "ask_repeat"
	Query           Act = "query"
)

// User acts. Greet, Goodbye, Inform and Request are shared with the system.
const (
	YNQuestion  Act = "yn_question"
	Confirm     Act = "confirm"
	Disconfirm  Act = "disconfirm"
	NewSearch   Act = "new_search"
	Chat        Act = "chat"
	Satisfy     Act = "satisfy"
	MoreRequest Act = "more_request"
	KBReturn    Act = "kb_return"
)

// Reserved meta slots.
const (
	DefaultSlot     = "#default"      // the DB entry identifier
	NeedSlot        = "#need"         // open-ended "what do you want" request
	HappySlot       = "#happy"        // "is that all" request
	AgainMarker     = "#again"        // rephrase marker
	SelfCorrectSlot = "#self_correct" // self-correction marker
)

// SlotValue pairs a slot name with an optional value index. A nil Value means
// don't-care for informs and query constraints, and "no value" everywhere else.
type SlotValue struct {
	Slot  string
	Value *int
}

// GoalValue is one informed system goal: the retrieved value and, when the
// user probed it with a yes/no question, the value they expected.
type GoalValue struct {
	Slot     string
	Value    int
	Expected *int
}

// Action is a single discourse unit. Params serves the simple acts (and the
// goal lists of SATISFY/MORE_REQUEST, plus trailing markers); Constraints,
// Goals and Results serve QUERY, KB_RETURN and the system INFORM.
type Action struct {
	Act         Act
	Params      []SlotValue
	Constraints []SlotValue
	Goals       []string
	Results     []GoalValue
}

// New returns an action with no parameters.
func New(act Act) *Action {
	return &Action{Act: act}
}

// NewWithSlot returns an action with a single (slot, value) parameter.
func NewWithSlot(act Act, slot string, value *int) *Action {
	return &Action{Act: act, Params: []SlotValue{{Slot: slot, Value: value}}}
}

// Int returns a pointer to v, for building optional value parameters.
func Int(v int) *int {
	c := v
	return &c
}

// Slot returns the primary slot name, or "" for acts without one.
func (a *Action) Slot() string {
	if len(a.Params) == 0 {
		return ""
	}
	return a.Params[0].Slot
}

// Value returns the primary value, or nil.
func (a *Action) Value() *int {
	if len(a.Params) == 0 {
		return nil
	}
	return a.Params[0].Value
}

// AddMarker appends a boolean marker parameter such as #again or #self_correct.
func (a *Action) AddMarker(name string) {
	a.Params = append(a.Params, SlotValue{Slot: name})
}

// HasMarker reports whether a marker parameter is present.
func (a *Action) HasMarker(name string) bool {
	for _, p := range a.Params {
		if p.Slot == name {
			return true
		}
	}
	return false
}

// Clone deep-copies the action; the channel corrupts copies so the user's own
// state keeps the clean acts.
func (a *Action) Clone() *Action {
	c := &Action{Act: a.Act}
	c.Params = cloneSlotValues(a.Params)
	c.Constraints = cloneSlotValues(a.Constraints)
	if a.Goals != nil {
		c.Goals = append([]string(nil), a.Goals...)
	}
	if a.Results != nil {
		c.Results = make([]GoalValue, len(a.Results))
		for i, r := range a.Results {
			c.Results[i] = GoalValue{Slot: r.Slot, Value: r.Value, Expected: cloneInt(r.Expected)}
		}
	}
	return c
}

func cloneSlotValues(in []SlotValue) []SlotValue {
	if in == nil {
		return nil
	}
	out := make([]SlotValue, len(in))
	for i, p := range in {
		out[i] = SlotValue{Slot: p.Slot, Value: cloneInt(p.Value)}
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// CloneAll deep-copies a whole turn.
func CloneAll(actions []*Action) []*Action {
	out := make([]*Action, len(actions))
	for i, a := range actions {
		out[i] = a.Clone()
	}
	return out
}

func slotValueArray(in []SlotValue) []any {
	out := make([]any, 0, len(in))
	for _, p := range in {
		out = append(out, []any{p.Slot, p.Value})
	}
	return out
}

// parameters renders the heterogeneous parameter list the way the corpus
// format expects it.
func (a *Action) parameters() []any {
	switch a.Act {
	case Query:
		return []any{slotValueArray(a.Constraints), a.Goals}
	case KBReturn:
		results := map[string]int{}
		for _, r := range a.Results {
			results[r.Slot] = r.Value
		}
		return []any{slotValueArray(a.Constraints), results}
	case Inform:
		if len(a.Results) > 0 { // system-side inform
			constraints := map[string]*int{}
			for _, c := range a.Constraints {
				constraints[c.Slot] = c.Value
			}
			goals := map[string][]*int{}
			for _, r := range a.Results {
				goals[r.Slot] = []*int{Int(r.Value), r.Expected}
			}
			return []any{constraints, goals}
		}
	}
	out := make([]any, 0, len(a.Params))
	for _, p := range a.Params {
		if p.Value == nil && (p.Slot == AgainMarker || p.Slot == SelfCorrectSlot) {
			out = append(out, []any{p.Slot, true})
			continue
		}
		out = append(out, []any{p.Slot, p.Value})
	}
	return out
}

// MarshalJSON serializes to {"act": ..., "parameters": [...]}.
func (a *Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"act":        a.Act,
		"parameters": a.parameters(),
	})
}

// DumpString renders "<act>:<p0>-<p1>-..." for the plain-text corpus format.
func (a *Action) DumpString() string {
	parts := make([]string, 0, len(a.Params))
	for _, p := range a.parameters() {
		parts = append(parts, dumpParam(p))
	}
	return fmt.Sprintf("%s:%s", a.Act, strings.Join(parts, "-"))
}

func dumpParam(p any) string {
	switch v := p.(type) {
	case []any:
		inner := make([]string, len(v))
		for i, e := range v {
			inner[i] = dumpParam(e)
		}
		return "(" + strings.Join(inner, ", ") + ")"
	case *int:
		if v == nil {
			return "none"
		}
		return fmt.Sprintf("%d", *v)
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// LexAction is the lexicalized form of an action: value indices replaced by
// vocabulary words. This is what system turns carry in the transcript.
type LexAction struct {
	Act        Act   `json:"act"`
	Parameters []any `json:"parameters"`
}

// DumpString renders the plain-text form of a lexicalized action.
func (a LexAction) DumpString() string {
	parts := make([]string, len(a.Parameters))
	for i, p := range a.Parameters {
		parts[i] = dumpParam(p)
	}
	return fmt.Sprintf("%s:%s", a.Act, strings.Join(parts, "-"))
}
