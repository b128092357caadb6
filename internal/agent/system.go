package agent

import (
	"fmt"

	"go.uber.org/zap"

	"simdial/internal/action"
	"simdial/internal/complexity"
	"simdial/internal/domain"
)

// Confidence thresholds driving the system policy.
const (
	ExplicitThreshold = 0.2
	ImplicitThreshold = 0.6
	GroundThreshold   = 0.95
	GoalThreshold     = 0.7

	// Scores saturate here so one noisy disconfirm cannot unground a slot
	// that was confirmed repeatedly.
	maxSlotConf = 1.5
)

// valueScore is one tracked hypothesis for a slot value. A nil value is the
// don't-care hypothesis. Entries keep insertion order so max-confidence ties
// resolve to the earliest observation.
type valueScore struct {
	value *int
	score float64
}

// BeliefSlot accumulates scored value hypotheses for one user slot.
type BeliefSlot struct {
	Name           string
	entries        []valueScore
	LastUpdateTurn int
}

// NewBeliefSlot returns an empty belief for the named slot.
func NewBeliefSlot(name string) *BeliefSlot {
	return &BeliefSlot{Name: name, LastUpdateTurn: -1}
}

// AddObservation folds in a new inform. A repeated value gets a 0.2 bonus on
// top of its best score so far; a new value halves all competitors first.
func (b *BeliefSlot) AddObservation(value *int, conf float64, turnID int) {
	b.LastUpdateTurn = turnID
	for i := range b.entries {
		if intPtrEqual(b.entries[i].value, value) {
			if conf > b.entries[i].score {
				b.entries[i].score = conf
			}
			b.entries[i].score += 0.2
			return
		}
	}
	for i := range b.entries {
		b.entries[i].score /= 2
	}
	b.entries = append(b.entries, valueScore{value: value, score: conf})
}

// AddGrounding shifts the top hypothesis up by the confirm evidence and down
// by the disconfirm evidence, scaled to leave room below the explicit
// threshold. A grounding on an empty belief is a no-op.
func (b *BeliefSlot) AddGrounding(confirmConf, disconfirmConf float64, turnID int) {
	i := b.maxConfIndex()
	if i < 0 {
		return
	}
	b.LastUpdateTurn = turnID
	scale := 1.0 - ExplicitThreshold
	next := b.entries[i].score + confirmConf*scale - disconfirmConf*scale
	if next < 0 {
		next = 0
	}
	if next > maxSlotConf {
		next = maxSlotConf
	}
	b.entries[i].score = next
}

func (b *BeliefSlot) maxConfIndex() int {
	best := -1
	for i, e := range b.entries {
		if best < 0 || e.score > b.entries[best].score {
			best = i
		}
	}
	return best
}

// MaxConfValue returns the top hypothesis, or (nil, false) when empty. A
// (nil, true) return is the don't-care hypothesis.
func (b *BeliefSlot) MaxConfValue() (*int, bool) {
	i := b.maxConfIndex()
	if i < 0 {
		return nil, false
	}
	return b.entries[i].value, true
}

// MaxConf returns the top score, or 0 when empty.
func (b *BeliefSlot) MaxConf() float64 {
	i := b.maxConfIndex()
	if i < 0 {
		return 0
	}
	return b.entries[i].score
}

// Clear flattens every hypothesis to the midpoint between the explicit and
// implicit thresholds, so a new search re-confirms instead of re-asking.
func (b *BeliefSlot) Clear() {
	middle := (ImplicitThreshold + ExplicitThreshold) / 2
	for i := range b.entries {
		b.entries[i].score = middle
	}
}

// BeliefGoal tracks one system slot the user may be owed an answer about.
type BeliefGoal struct {
	Name      string
	Conf      float64
	Delivered bool
	Value     *int
	Expected  *int
}

// AddObservation registers a request or yes/no probe of this goal. Expected
// is the probed value, nil for a plain request.
func (g *BeliefGoal) AddObservation(conf float64, expected *int) {
	if conf > g.Conf {
		g.Conf = conf
	}
	g.Conf += 0.2
	g.Expected = expected
}

// Deliver marks the goal as answered.
func (g *BeliefGoal) Deliver() { g.Delivered = true }

// Clear resets the goal for a new search. The stale value is kept; it is only
// readable again after a fresh KB return overwrites it.
func (g *BeliefGoal) Clear() {
	g.Conf = 0
	g.Delivered = false
	g.Expected = nil
}

// sysState is the system's full dialog state.
type sysState struct {
	history       History
	floor         floorState
	usrBeliefs    []*BeliefSlot
	sysGoals      []*BeliefGoal
	pendingReturn []action.SlotValue
	domain        *domain.Domain
}

func newSysState(d *domain.Domain) *sysState {
	st := &sysState{floor: floorSpeak, domain: d}
	for _, s := range d.UserSlots {
		st.usrBeliefs = append(st.usrBeliefs, NewBeliefSlot(s.Name))
	}
	for _, s := range d.SystemSlots {
		g := &BeliefGoal{Name: s.Name}
		if s.Name == action.DefaultSlot {
			g.Conf = 1.0
		}
		st.sysGoals = append(st.sysGoals, g)
	}
	return st
}

func (st *sysState) turnID() int { return len(st.history) }

func (st *sysState) belief(name string) *BeliefSlot {
	for _, b := range st.usrBeliefs {
		if b.Name == name {
			return b
		}
	}
	return nil
}

func (st *sysState) goal(name string) *BeliefGoal {
	for _, g := range st.sysGoals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (st *sysState) resetForNewSearch() {
	for _, g := range st.sysGoals {
		g.Clear()
		if g.Name == action.DefaultSlot {
			g.Conf = 1.0
		}
	}
	for _, b := range st.usrBeliefs {
		b.Clear()
	}
}

// readyToInform holds when every user slot is grounded and no goal sits in
// the ambiguous band below the goal threshold.
func (st *sysState) readyToInform() bool {
	for _, b := range st.usrBeliefs {
		if b.MaxConf() < GroundThreshold {
			return false
		}
	}
	for _, g := range st.sysGoals {
		if g.Conf > 0 && g.Conf < GoalThreshold {
			return false
		}
	}
	return true
}

func yieldFloor(actions []*action.Action) bool {
	if len(actions) == 0 {
		return false
	}
	switch actions[len(actions)-1].Act {
	case action.Request, action.ExplicitConfirm, action.Query:
		return true
	}
	return false
}

// SlotSummary is the tracked state of one user slot at a turn boundary.
type SlotSummary struct {
	Name    string  `json:"name"`
	MaxConf float64 `json:"max_conf"`
	MaxVal  *string `json:"max_val"`
}

// GoalSummary is the tracked state of one system goal at a turn boundary.
type GoalSummary struct {
	Name      string  `json:"name"`
	Delivered bool    `json:"delivered"`
	Value     *string `json:"value"`
	Expected  *string `json:"expected"`
	Conf      float64 `json:"conf"`
}

// TurnState is the system's belief snapshot attached to every system turn.
type TurnState struct {
	UsrSlots []SlotSummary `json:"usr_slots"`
	SysGoals []GoalSummary `json:"sys_goals"`
	KBUpdate bool          `json:"kb_update"`
}

func (st *sysState) summary() *TurnState {
	out := &TurnState{KBUpdate: st.pendingReturn != nil}
	for _, b := range st.usrBeliefs {
		s := SlotSummary{Name: b.Name, MaxConf: b.MaxConf()}
		if v, ok := b.MaxConfValue(); ok && v != nil {
			word := st.domain.GetUserSlot(b.Name).Vocabulary[*v]
			s.MaxVal = &word
		}
		out.UsrSlots = append(out.UsrSlots, s)
	}
	for _, g := range st.sysGoals {
		gs := GoalSummary{Name: g.Name, Delivered: g.Delivered, Conf: g.Conf}
		slot := st.domain.GetSystemSlot(g.Name)
		if g.Value != nil {
			word := slot.Vocabulary[*g.Value]
			gs.Value = &word
		}
		if g.Expected != nil {
			word := slot.Vocabulary[*g.Expected]
			gs.Expected = &word
		}
		out.SysGoals = append(out.SysGoals, gs)
	}
	return out
}

// System is the deterministic system agent. All randomness in a session lives
// on the user side and in the channel.
type System struct {
	domain  *domain.Domain
	profile *complexity.Profile
	state   *sysState
	logger  *zap.Logger
}

// NewSystem builds a system agent with fresh state.
func NewSystem(d *domain.Domain, profile *complexity.Profile, logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{domain: d, profile: profile, state: newSysState(d), logger: logger}
}

func (s *System) stateUpdate(usrActions []*action.Action, conf float64) {
	if len(usrActions) == 0 {
		return
	}
	st := s.state
	st.history.Append(SpeakerUser, usrActions)
	st.floor = floorSpeak

	for _, a := range usrActions {
		switch a.Act {
		case action.Confirm:
			if b := st.belief(a.Slot()); b != nil {
				b.AddGrounding(conf, 1.0-conf, st.turnID())
			}
		case action.Disconfirm:
			if b := st.belief(a.Slot()); b != nil {
				b.AddGrounding(1.0-conf, conf, st.turnID())
			}
		case action.Inform:
			if b := st.belief(a.Slot()); b != nil {
				b.AddObservation(a.Value(), conf, st.turnID())
			}
		case action.Request:
			if g := st.goal(a.Slot()); g != nil {
				g.AddObservation(conf, nil)
			}
		case action.YNQuestion:
			if g := st.goal(a.Slot()); g != nil {
				g.AddObservation(conf, a.Value())
			}
		case action.NewSearch:
			st.resetForNewSearch()
		case action.Satisfy, action.MoreRequest:
			for _, p := range a.Params {
				if g := st.goal(p.Slot); g != nil {
					g.Deliver()
				}
			}
		case action.KBReturn:
			st.pendingReturn = append([]action.SlotValue(nil), a.Constraints...)
			for _, r := range a.Results {
				if g := st.goal(r.Slot); g != nil {
					v := r.Value
					g.Value = &v
				}
			}
		}
	}
}

// updateGrounding self-grounds every slot the system just implicitly
// confirmed; the user only objects when the value is wrong.
func (s *System) updateGrounding(sysActions []*action.Action) {
	for _, a := range sysActions {
		if a.Act == action.ImplicitConfirm {
			if b := s.state.belief(a.Slot()); b != nil {
				b.AddGrounding(1.0, 0.0, s.state.turnID())
			}
		}
	}
}

func (s *System) policy() ([]*action.Action, error) {
	st := s.state
	if st.floor == floorExit {
		return nil, nil
	}

	if len(st.history) == 0 {
		return []*action.Action{
			action.New(action.Greet),
			action.NewWithSlot(action.Request, action.NeedSlot, nil),
		}, nil
	}

	lastUsr := st.history.LastActions(SpeakerUser)
	if lastUsr == nil {
		return nil, fmt.Errorf("system policy: no user turn in history")
	}
	for _, a := range lastUsr {
		if a.Act == action.Goodbye {
			st.floor = floorExit
			return []*action.Action{action.New(action.Goodbye)}, nil
		}
	}

	if st.pendingReturn != nil {
		inform := &action.Action{
			Act:         action.Inform,
			Constraints: append([]action.SlotValue(nil), st.pendingReturn...),
		}
		for _, g := range st.sysGoals {
			if !g.Delivered && g.Conf >= GoalThreshold {
				if g.Value == nil {
					return nil, fmt.Errorf("system policy: goal %s has no KB value to inform", g.Name)
				}
				inform.Results = append(inform.Results, action.GoalValue{
					Slot: g.Name, Value: *g.Value, Expected: g.Expected,
				})
			}
		}
		st.pendingReturn = nil
		return []*action.Action{
			inform,
			action.NewWithSlot(action.Request, action.HappySlot, nil),
		}, nil
	}

	if st.readyToInform() {
		query := &action.Action{Act: action.Query}
		for _, b := range st.usrBeliefs {
			v, _ := b.MaxConfValue()
			query.Constraints = append(query.Constraints, action.SlotValue{Slot: b.Name, Value: v})
		}
		for _, g := range st.sysGoals {
			if !g.Delivered && g.Conf >= GoalThreshold {
				query.Goals = append(query.Goals, g.Name)
			}
		}
		if len(query.Goals) == 0 {
			return nil, fmt.Errorf("system policy: ready to inform with no undelivered goal")
		}
		return []*action.Action{query}, nil
	}

	var implicitConfirms, explicitConfirms, requests []*action.Action
	for _, b := range st.usrBeliefs {
		conf := b.MaxConf()
		v, _ := b.MaxConfValue()
		switch {
		case conf < ExplicitThreshold:
			requests = append(requests, action.NewWithSlot(action.Request, b.Name, nil))
		case conf < ImplicitThreshold:
			explicitConfirms = append(explicitConfirms, action.NewWithSlot(action.ExplicitConfirm, b.Name, v))
		case conf < GroundThreshold:
			implicitConfirms = append(implicitConfirms, action.NewWithSlot(action.ImplicitConfirm, b.Name, v))
		}
	}
	for _, g := range st.sysGoals {
		if g.Conf > 0 && g.Conf < GoalThreshold {
			requests = append(requests, action.NewWithSlot(action.Request, action.NeedSlot, nil))
			break
		}
	}

	switch {
	case len(explicitConfirms) > 0:
		return append(implicitConfirms, explicitConfirms[0]), nil
	case len(requests) > 0:
		return append(implicitConfirms, requests[0]), nil
	default:
		return implicitConfirms, nil
	}
}

// Step consumes one (possibly noisy) user turn and produces the system turn.
// The returned state snapshot is taken right after belief update, before the
// policy acts on it.
func (s *System) Step(inputs []*action.Action, conf float64) (bool, []*action.Action, *TurnState, error) {
	s.stateUpdate(inputs, conf)
	state := s.state.summary()

	var turnActions []*action.Action
	for {
		acts, err := s.policy()
		if err != nil {
			return false, nil, nil, err
		}
		turnActions = append(turnActions, acts...)
		s.updateGrounding(acts)

		if s.state.floor == floorExit {
			s.state.history.Append(SpeakerSystem, turnActions)
			return true, turnActions, state, nil
		}
		if yieldFloor(turnActions) {
			s.state.history.Append(SpeakerSystem, turnActions)
			return false, turnActions, state, nil
		}
	}
}
