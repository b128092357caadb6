package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simdial/internal/action"
	"simdial/internal/complexity"
	"simdial/internal/domain"
)

func testDomain(t *testing.T, name string) *domain.Domain {
	t.Helper()
	spec, err := domain.Builtin(name)
	require.NoError(t, err)
	d, err := domain.New(spec, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	return d
}

func TestBeliefSlotNewObservationHalvesCompetitors(t *testing.T) {
	b := NewBeliefSlot("#loc")
	b.AddObservation(action.Int(1), 0.8, 0)
	b.AddObservation(action.Int(2), 0.6, 1)

	v, ok := b.MaxConfValue()
	require.True(t, ok)
	assert.Equal(t, 2, *v)
	assert.InDelta(t, 0.6, b.MaxConf(), 1e-9)

	// Re-observing the old value: max(prev, conf) + 0.2.
	b.AddObservation(action.Int(1), 0.9, 2)
	v, _ = b.MaxConfValue()
	assert.Equal(t, 1, *v)
	assert.InDelta(t, 1.1, b.MaxConf(), 1e-9)
}

func TestBeliefSlotDontCareValue(t *testing.T) {
	b := NewBeliefSlot("#loc")
	b.AddObservation(nil, 0.7, 0)
	v, ok := b.MaxConfValue()
	require.True(t, ok)
	assert.Nil(t, v)

	b.AddObservation(nil, 0.5, 1)
	assert.InDelta(t, 0.9, b.MaxConf(), 1e-9)
}

func TestBeliefSlotGroundingBounds(t *testing.T) {
	b := NewBeliefSlot("#loc")
	b.AddObservation(action.Int(0), 0.5, 0)

	// Repeated perfect disconfirms: monotone non-increasing, floored at 0.
	prev := b.MaxConf()
	for i := 0; i < 10; i++ {
		b.AddGrounding(0.0, 1.0, i)
		cur := b.MaxConf()
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0.0)
		prev = cur
	}
	assert.Zero(t, b.MaxConf())

	// Repeated perfect confirms saturate at 1.5.
	for i := 0; i < 10; i++ {
		b.AddGrounding(1.0, 0.0, i)
	}
	assert.InDelta(t, 1.5, b.MaxConf(), 1e-9)
}

func TestBeliefSlotGroundingOnEmptyIsNoop(t *testing.T) {
	b := NewBeliefSlot("#loc")
	b.AddGrounding(1.0, 0.0, 3)
	assert.Zero(t, b.MaxConf())
	assert.Equal(t, -1, b.LastUpdateTurn)
}

func TestBeliefSlotClear(t *testing.T) {
	b := NewBeliefSlot("#loc")
	b.AddObservation(action.Int(0), 1.2, 0)
	b.AddObservation(action.Int(1), 0.1, 1)
	b.Clear()
	assert.InDelta(t, 0.4, b.MaxConf(), 1e-9)
}

func TestBeliefSlotTieKeepsEarliest(t *testing.T) {
	b := NewBeliefSlot("#loc")
	b.AddObservation(action.Int(3), 0.5, 0)
	b.entries = append(b.entries, valueScore{value: action.Int(4), score: b.entries[0].score})
	v, _ := b.MaxConfValue()
	assert.Equal(t, 3, *v)
}

func TestBeliefGoal(t *testing.T) {
	g := &BeliefGoal{Name: "#open"}
	g.AddObservation(0.6, action.Int(1))
	assert.InDelta(t, 0.8, g.Conf, 1e-9)
	assert.Equal(t, 1, *g.Expected)

	// A plain request after a probe drops the expectation.
	g.AddObservation(0.5, nil)
	assert.InDelta(t, 1.0, g.Conf, 1e-9)
	assert.Nil(t, g.Expected)

	g.Deliver()
	g.Clear()
	assert.Zero(t, g.Conf)
	assert.False(t, g.Delivered)
}

func TestSystemOpener(t *testing.T) {
	d := testDomain(t, "restaurant")
	sys := NewSystem(d, complexity.Clean(), nil)

	terminal, acts, state, err := sys.Step(nil, 1.0)
	require.NoError(t, err)
	assert.False(t, terminal)
	require.Len(t, acts, 2)
	assert.Equal(t, action.Greet, acts[0].Act)
	assert.Equal(t, action.Request, acts[1].Act)
	assert.Equal(t, action.NeedSlot, acts[1].Slot())
	require.NotNil(t, state)
	assert.False(t, state.KBUpdate)
}

func TestSystemGoodbyeTerminates(t *testing.T) {
	d := testDomain(t, "restaurant")
	sys := NewSystem(d, complexity.Clean(), nil)
	_, _, _, err := sys.Step(nil, 1.0)
	require.NoError(t, err)

	terminal, acts, _, err := sys.Step([]*action.Action{action.New(action.Goodbye)}, 1.0)
	require.NoError(t, err)
	assert.True(t, terminal)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Goodbye, acts[0].Act)
}

// Walks a full clean single-goal exchange through the policy thresholds.
func TestSystemHappyPath(t *testing.T) {
	d := testDomain(t, "restaurant")
	sys := NewSystem(d, complexity.Clean(), nil)

	_, acts, _, err := sys.Step(nil, 1.0)
	require.NoError(t, err)

	// User asks for a recommendation.
	_, acts, _, err = sys.Step([]*action.Action{
		action.NewWithSlot(action.Request, action.DefaultSlot, nil),
	}, 1.0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Request, acts[0].Act)
	assert.Equal(t, "#loc", acts[0].Slot())

	// Both slots informed with full confidence, one at a time.
	_, acts, _, err = sys.Step([]*action.Action{
		action.NewWithSlot(action.Inform, "#loc", action.Int(2)),
	}, 1.0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Request, acts[0].Act)
	assert.Equal(t, "#food_pref", acts[0].Slot())

	_, acts, state, err := sys.Step([]*action.Action{
		action.NewWithSlot(action.Inform, "#food_pref", action.Int(0)),
	}, 1.0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	query := acts[0]
	assert.Equal(t, action.Query, query.Act)
	require.Len(t, query.Constraints, 2)
	assert.Equal(t, "#loc", query.Constraints[0].Slot)
	assert.Equal(t, 2, *query.Constraints[0].Value)
	assert.Equal(t, []string{action.DefaultSlot}, query.Goals)
	require.NotNil(t, state.UsrSlots[0].MaxVal)
	assert.Equal(t, d.UserSlots[0].Vocabulary[2], *state.UsrSlots[0].MaxVal)

	// KB return produces INFORM + REQUEST(#happy).
	_, acts, state, err = sys.Step([]*action.Action{
		{
			Act:         action.KBReturn,
			Constraints: query.Constraints,
			Results:     []action.GoalValue{{Slot: action.DefaultSlot, Value: 7}},
		},
	}, 1.0)
	require.NoError(t, err)
	assert.True(t, state.KBUpdate)
	require.Len(t, acts, 2)
	assert.Equal(t, action.Inform, acts[0].Act)
	require.Len(t, acts[0].Results, 1)
	assert.Equal(t, action.DefaultSlot, acts[0].Results[0].Slot)
	assert.Equal(t, 7, acts[0].Results[0].Value)
	assert.Equal(t, action.Request, acts[1].Act)
	assert.Equal(t, action.HappySlot, acts[1].Slot())

	// Satisfied user closes the session.
	satisfy := &action.Action{Act: action.Satisfy, Params: []action.SlotValue{{Slot: action.DefaultSlot}}}
	terminal, acts, _, err := sys.Step([]*action.Action{satisfy, action.New(action.Goodbye)}, 1.0)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, action.Goodbye, acts[0].Act)
}

func TestSystemConfidenceLadder(t *testing.T) {
	d := testDomain(t, "restaurant")
	sys := NewSystem(d, complexity.Clean(), nil)
	_, _, _, err := sys.Step(nil, 1.0)
	require.NoError(t, err)

	// A weak inform lands in the explicit-confirm band.
	_, acts, _, err := sys.Step([]*action.Action{
		action.NewWithSlot(action.Inform, "#loc", action.Int(1)),
	}, 0.4)
	require.NoError(t, err)
	require.NotEmpty(t, acts)
	assert.Equal(t, action.ExplicitConfirm, acts[len(acts)-1].Act)
	assert.Equal(t, "#loc", acts[len(acts)-1].Slot())

	// A confirm lifts #loc into the implicit band; a medium inform puts
	// #food_pref there too. Implicit confirms self-ground, so the policy
	// immediately follows up with the query in the same turn.
	_, acts, _, err = sys.Step([]*action.Action{
		action.NewWithSlot(action.Confirm, "#loc", action.Int(1)),
		action.NewWithSlot(action.Inform, "#food_pref", action.Int(3)),
	}, 0.7)
	require.NoError(t, err)
	require.Len(t, acts, 3)
	assert.Equal(t, action.ImplicitConfirm, acts[0].Act)
	assert.Equal(t, "#loc", acts[0].Slot())
	assert.Equal(t, action.ImplicitConfirm, acts[1].Act)
	assert.Equal(t, "#food_pref", acts[1].Slot())
	assert.Equal(t, action.Query, acts[2].Act)
}

func TestSystemNewSearchResets(t *testing.T) {
	d := testDomain(t, "restaurant")
	sys := NewSystem(d, complexity.Clean(), nil)
	_, _, _, err := sys.Step(nil, 1.0)
	require.NoError(t, err)
	_, _, _, err = sys.Step([]*action.Action{
		action.NewWithSlot(action.Inform, "#loc", action.Int(0)),
		action.NewWithSlot(action.Request, "#open", nil),
	}, 1.0)
	require.NoError(t, err)

	_, _, state, err := sys.Step([]*action.Action{
		action.NewWithSlot(action.NewSearch, action.DefaultSlot, nil),
	}, 1.0)
	require.NoError(t, err)

	for _, g := range state.SysGoals {
		assert.False(t, g.Delivered)
		if g.Name == action.DefaultSlot {
			assert.Equal(t, 1.0, g.Conf)
		} else {
			assert.Zero(t, g.Conf)
		}
	}
	// Cleared beliefs sit at the re-confirmation midpoint.
	assert.InDelta(t, 0.4, state.UsrSlots[0].MaxConf, 1e-9)
}
