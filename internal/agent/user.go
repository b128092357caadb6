package agent

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"simdial/internal/action"
	"simdial/internal/complexity"
	"simdial/internal/domain"
	"simdial/internal/randutil"
)

// A session is cut off once the user's view of the history passes this many
// turns, whatever state the dialog is in.
const maxUserTurns = 100

// goalFlag tracks whether the system has answered one of the user's goals.
type goalFlag struct {
	name string
	met  bool
}

type usrState struct {
	history     History
	floor       floorState
	inputBuffer []*action.Action
	goalsMet    []goalFlag
}

func newUsrState(sysGoals []string) *usrState {
	st := &usrState{floor: floorListen}
	st.resetGoals(sysGoals)
	return st
}

func (st *usrState) resetGoals(sysGoals []string) {
	st.goalsMet = st.goalsMet[:0]
	for _, g := range sysGoals {
		st.goalsMet = append(st.goalsMet, goalFlag{name: g})
	}
}

// unmetGoal returns the first goal still owed, or "".
func (st *usrState) unmetGoal() string {
	for _, g := range st.goalsMet {
		if !g.met {
			return g.name
		}
	}
	return ""
}

// markGoalsMet flags every goal the inform covered and returns the covered
// names in goal order.
func (st *usrState) markGoalsMet(inform *action.Action) []string {
	proposed := map[string]bool{}
	for _, r := range inform.Results {
		proposed[r.Slot] = true
	}
	var completed []string
	for i := range st.goalsMet {
		if proposed[st.goalsMet[i].name] {
			st.goalsMet[i].met = true
			completed = append(completed, st.goalsMet[i].name)
		}
	}
	return completed
}

// User is the goal-driven user agent. It owns the session's RNG; every
// stochastic choice a session makes on the user side draws from it.
type User struct {
	domain  *domain.Domain
	profile *complexity.Profile
	rng     *rand.Rand
	logger  *zap.Logger

	// constraints is aligned with domain.UserSlots; nil means don't-care.
	constraints []*int
	sysGoals    []string
	goalCnt     int
	goalPtr     int

	state *usrState
}

// NewUser samples the user's hidden goal and returns an agent ready to listen.
func NewUser(d *domain.Domain, profile *complexity.Profile, rng *rand.Rand, logger *zap.Logger) *User {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := &User{domain: d, profile: profile, rng: rng, logger: logger}
	u.goalCnt = randutil.ChooseInt(rng, profile.Proposition.MultiGoals)
	u.constraints = u.sampleConstraints()
	u.sysGoals = u.sampleSysGoals()
	u.state = newUsrState(u.sysGoals)
	return u
}

// sampleConstraints draws a reachable user-side row, then forgets each slot
// independently with the don't-care probability.
func (u *User) sampleConstraints() []*int {
	row := u.domain.DB.SampleUniqueRow(u.rng)
	out := make([]*int, len(row))
	for i, v := range row {
		if u.rng.Float64() < u.profile.Proposition.DontCare {
			out[i] = nil
		} else {
			out[i] = action.Int(v)
		}
	}
	return out
}

// sampleSysGoals picks which system slots the user wants answered. #default
// is always first; the rest is a shuffled subset of the remaining slots.
func (u *User) sampleSysGoals() []string {
	var candidates []string
	for _, s := range u.domain.SystemSlots {
		if s.Name != action.DefaultSlot {
			candidates = append(candidates, s.Name)
		}
	}
	numInterest := u.rng.Intn(len(u.domain.SystemSlots) - 1)
	selected := randutil.SampleWithoutReplacement(u.rng, candidates, numInterest)
	return append([]string{action.DefaultSlot}, selected...)
}

func (u *User) constraintFor(slot string) (*int, bool) {
	_, i := u.domain.GetUserSlotIndex(slot)
	if i < 0 {
		return nil, false
	}
	return u.constraints[i], true
}

// constraintsEqual checks a proposed constraint set against the user's. On a
// mismatch it returns the first offending slot, in slot order.
func (u *User) constraintsEqual(proposed []action.SlotValue) (bool, string) {
	byName := map[string]*int{}
	present := map[string]bool{}
	for _, c := range proposed {
		byName[c.Slot] = c.Value
		present[c.Slot] = true
	}
	for i, s := range u.domain.UserSlots {
		if !present[s.Name] {
			return false, s.Name
		}
		if !intPtrEqual(u.constraints[i], byName[s.Name]) {
			return false, s.Name
		}
	}
	return true, ""
}

// incrementGoal moves to the next search when the user wants more than one.
// It resamples the system goals and flips one constraint, returning the
// flipped slot, or ("", false) when the user is done.
func (u *User) incrementGoal() (string, bool) {
	if u.goalPtr >= u.goalCnt-1 {
		return "", false
	}
	u.goalPtr++
	u.sysGoals = u.sampleSysGoals()

	i := u.rng.Intn(len(u.constraints))
	slot := u.domain.UserSlots[i]
	newValue := u.rng.Intn(slot.Dim - 1)
	u.logger.Debug("user flips constraint",
		zap.String("slot", slot.Name),
		zap.Int("new_value", newValue))
	u.constraints[i] = action.Int(newValue)
	u.state.resetGoals(u.sysGoals)
	return slot.Name, true
}

func (u *User) policy() ([]*action.Action, error) {
	st := u.state
	if st.floor == floorExit {
		return nil, nil
	}
	if len(st.inputBuffer) == 0 {
		st.floor = floorListen
		return nil, nil
	}
	if len(st.history) > maxUserTurns {
		st.inputBuffer = nil
		return []*action.Action{action.New(action.Goodbye)}, nil
	}

	top := st.inputBuffer[0]
	st.inputBuffer = st.inputBuffer[1:]

	switch top.Act {
	case action.Greet:
		return []*action.Action{action.New(action.Greet)}, nil

	case action.Goodbye:
		return []*action.Action{action.New(action.Goodbye)}, nil

	case action.ImplicitConfirm:
		slot, val := top.Slot(), top.Value()
		want, ok := u.constraintFor(slot)
		if !ok {
			return nil, fmt.Errorf("user policy: implicit confirm on non-user slot %s", slot)
		}
		if want == nil || intPtrEqual(val, want) {
			return nil, nil
		}
		style := randutil.ChooseString(u.rng, u.profile.Proposition.RejectStyle)
		switch style {
		case complexity.RejectOnly:
			return []*action.Action{action.NewWithSlot(action.Disconfirm, slot, val)}, nil
		case complexity.RejectInform:
			return []*action.Action{
				action.NewWithSlot(action.Disconfirm, slot, val),
				action.NewWithSlot(action.Inform, slot, want),
			}, nil
		default:
			return nil, fmt.Errorf("user policy: unknown reject style %q", style)
		}

	case action.ExplicitConfirm:
		slot, val := top.Slot(), top.Value()
		want, ok := u.constraintFor(slot)
		if !ok {
			return nil, fmt.Errorf("user policy: explicit confirm on non-user slot %s", slot)
		}
		if intPtrEqual(val, want) {
			return []*action.Action{action.NewWithSlot(action.Confirm, slot, val)}, nil
		}
		return []*action.Action{action.NewWithSlot(action.Disconfirm, slot, val)}, nil

	case action.Inform:
		return u.reactToInform(top)

	case action.Request:
		return u.reactToRequest(top)

	case action.AskRepeat:
		last := st.history.LastActions(SpeakerUser)
		if last == nil {
			return nil, fmt.Errorf("user policy: ask_repeat before any user turn")
		}
		return action.CloneAll(last), nil

	case action.AskRephrase:
		last := st.history.LastActions(SpeakerUser)
		if last == nil {
			return nil, fmt.Errorf("user policy: ask_rephrase before any user turn")
		}
		repeated := action.CloneAll(last)
		for _, a := range repeated {
			a.AddMarker(action.AgainMarker)
		}
		return repeated, nil

	case action.Query:
		return u.runQuery(top)

	default:
		return nil, fmt.Errorf("user policy: cannot handle system act %s", top.Act)
	}
}

func (u *User) reactToInform(top *action.Action) ([]*action.Action, error) {
	ok, wrongSlot := u.constraintsEqual(top.Constraints)
	if !ok {
		want, _ := u.constraintFor(wrongSlot)
		return []*action.Action{action.NewWithSlot(action.Inform, wrongSlot, want)}, nil
	}

	completed := u.state.markGoalsMet(top)
	next := u.state.unmetGoal()

	if next == "" {
		if flipped, more := u.incrementGoal(); more {
			want, _ := u.constraintFor(flipped)
			return []*action.Action{
				action.NewWithSlot(action.NewSearch, action.DefaultSlot, nil),
				action.NewWithSlot(action.Inform, flipped, want),
			}, nil
		}
		satisfy := &action.Action{Act: action.Satisfy}
		for _, g := range completed {
			satisfy.Params = append(satisfy.Params, action.SlotValue{Slot: g})
		}
		return []*action.Action{satisfy, action.New(action.Goodbye)}, nil
	}

	ack := &action.Action{Act: action.MoreRequest}
	for _, g := range completed {
		ack.Params = append(ack.Params, action.SlotValue{Slot: g})
	}

	if u.rng.Float64() < u.profile.Proposition.YNQuestion {
		slot := u.domain.GetSystemSlot(next)
		expected := u.rng.Intn(slot.Dim)
		if len(slot.YNQuestions[slot.Vocabulary[expected]]) > 0 {
			return []*action.Action{
				ack,
				action.NewWithSlot(action.YNQuestion, slot.Name, action.Int(expected)),
			}, nil
		}
	}
	return []*action.Action{ack, action.NewWithSlot(action.Request, next, nil)}, nil
}

func (u *User) reactToRequest(top *action.Action) ([]*action.Action, error) {
	slot := top.Slot()
	switch {
	case slot == action.NeedSlot:
		next := u.state.unmetGoal()
		return []*action.Action{action.NewWithSlot(action.Request, next, nil)}, nil

	case slot == action.HappySlot:
		return nil, nil

	case u.domain.IsUserSlot(slot):
		want, _ := u.constraintFor(slot)
		inform := action.NewWithSlot(action.Inform, slot, want)
		if len(u.domain.UserSlots) > 1 {
			numInforms := randutil.ChooseInt(u.rng, u.profile.Proposition.MultiSlots)
			if numInforms > 1 {
				var candidates []string
				for i, s := range u.domain.UserSlots {
					if s.Name != slot && u.constraints[i] != nil {
						candidates = append(candidates, s.Name)
					}
				}
				extra := randutil.SampleWithoutReplacement(u.rng, candidates, numInforms-1)
				if len(extra) > 0 {
					actions := []*action.Action{inform}
					for _, key := range extra {
						v, _ := u.constraintFor(key)
						actions = append(actions, action.NewWithSlot(action.Inform, key, v))
					}
					return actions, nil
				}
			}
		}
		return []*action.Action{inform}, nil

	default:
		return nil, fmt.Errorf("user policy: cannot handle request for %s", slot)
	}
}

// runQuery plays the knowledge base's part: resolve the system's query against
// the database and hand the goal values back. A query whose constraints match
// nothing falls back to an unconstrained row, so the dialog can keep moving.
func (u *User) runQuery(top *action.Action) ([]*action.Action, error) {
	query := make([]*int, 0, len(top.Constraints))
	for _, c := range top.Constraints {
		query = append(query, c.Value)
	}
	rows := u.domain.DB.Select(query)
	var entry []int
	if len(rows) > 0 {
		entry = rows[u.rng.Intn(len(rows))]
	} else {
		entry = u.domain.DB.SysRow(u.rng.Intn(u.domain.DB.NumRows()))
	}

	ret := &action.Action{
		Act:         action.KBReturn,
		Constraints: append([]action.SlotValue(nil), top.Constraints...),
	}
	for _, goal := range top.Goals {
		_, idx := u.domain.GetSystemSlotIndex(goal)
		if idx < 0 {
			return nil, fmt.Errorf("user policy: query goal %s is not a system slot", goal)
		}
		ret.Results = append(ret.Results, action.GoalValue{Slot: goal, Value: entry[idx]})
	}
	return []*action.Action{ret}, nil
}

// Step consumes one system turn and produces the user turn.
func (u *User) Step(inputs []*action.Action) (bool, []*action.Action, error) {
	u.state.history.Append(SpeakerSystem, inputs)
	u.state.floor = floorSpeak
	u.state.inputBuffer = action.CloneAll(inputs)

	var turnActions []*action.Action
	for {
		acts, err := u.policy()
		if err != nil {
			return false, nil, err
		}
		turnActions = append(turnActions, acts...)

		if u.state.floor == floorExit {
			u.state.history.Append(SpeakerUser, turnActions)
			return true, turnActions, nil
		}
		if u.state.floor == floorListen {
			u.state.history.Append(SpeakerUser, turnActions)
			return false, turnActions, nil
		}
	}
}

// Reward scores the finished session from the user's point of view.
func (u *User) Reward() float64 {
	if u.state.unmetGoal() == "" {
		return 1.0
	}
	return -1.0
}
