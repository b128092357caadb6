package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simdial/internal/action"
	"simdial/internal/complexity"
	"simdial/internal/randutil"
)

func newTestUser(t *testing.T, domainName string, profile *complexity.Profile, seed int64) *User {
	t.Helper()
	d := testDomain(t, domainName)
	return NewUser(d, profile, rand.New(rand.NewSource(seed)), nil)
}

func TestUserGoalSampling(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 5)

	assert.Equal(t, 1, u.goalCnt)
	require.Len(t, u.constraints, 2)
	for _, c := range u.constraints {
		assert.NotNil(t, c, "Clean profile never samples dont_care")
	}
	require.NotEmpty(t, u.sysGoals)
	assert.Equal(t, action.DefaultSlot, u.sysGoals[0])
	assert.Equal(t, action.DefaultSlot, u.state.unmetGoal())
}

func TestUserOpeningTurn(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 7)
	terminal, acts, err := u.Step([]*action.Action{
		action.New(action.Greet),
		action.NewWithSlot(action.Request, action.NeedSlot, nil),
	})
	require.NoError(t, err)
	assert.False(t, terminal)
	require.Len(t, acts, 2)
	assert.Equal(t, action.Greet, acts[0].Act)
	assert.Equal(t, action.Request, acts[1].Act)
	assert.Equal(t, action.DefaultSlot, acts[1].Slot())
}

func TestUserAnswersSlotRequest(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 9)
	_, acts, err := u.Step([]*action.Action{
		action.NewWithSlot(action.Request, "#loc", nil),
	})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Inform, acts[0].Act)
	assert.Equal(t, "#loc", acts[0].Slot())
	assert.Equal(t, u.constraints[0], acts[0].Value())
}

func TestUserMultiSlotInform(t *testing.T) {
	profile := complexity.Clean()
	profile.Proposition.MultiSlots = []randutil.WeightedInt{{Value: 2, Weight: 1.0}}
	u := newTestUser(t, "bus", profile, 11)

	_, acts, err := u.Step([]*action.Action{
		action.NewWithSlot(action.Request, "#from_loc", nil),
	})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "#from_loc", acts[0].Slot())
	assert.NotEqual(t, "#from_loc", acts[1].Slot())
	for _, a := range acts {
		assert.Equal(t, action.Inform, a.Act)
	}
}

func TestUserExplicitConfirm(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 13)
	right := u.constraints[0]

	_, acts, err := u.Step([]*action.Action{
		action.NewWithSlot(action.ExplicitConfirm, "#loc", action.Int(*right)),
	})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Confirm, acts[0].Act)

	wrong := (*right + 1) % u.domain.UserSlots[0].Dim
	_, acts, err = u.Step([]*action.Action{
		action.NewWithSlot(action.ExplicitConfirm, "#loc", action.Int(wrong)),
	})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Disconfirm, acts[0].Act)
}

func TestUserImplicitConfirm(t *testing.T) {
	profile := complexity.Clean()
	profile.Proposition.RejectStyle = []randutil.WeightedString{
		{Value: complexity.RejectInform, Weight: 1.0},
	}
	u := newTestUser(t, "restaurant", profile, 17)
	right := u.constraints[0]

	// A correct implicit confirm passes silently.
	_, acts, err := u.Step([]*action.Action{
		action.NewWithSlot(action.ImplicitConfirm, "#loc", action.Int(*right)),
	})
	require.NoError(t, err)
	assert.Empty(t, acts)

	// A wrong one is rejected and corrected in one turn.
	wrong := (*right + 1) % u.domain.UserSlots[0].Dim
	_, acts, err = u.Step([]*action.Action{
		action.NewWithSlot(action.ImplicitConfirm, "#loc", action.Int(wrong)),
	})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, action.Disconfirm, acts[0].Act)
	assert.Equal(t, action.Inform, acts[1].Act)
	assert.Equal(t, *right, *acts[1].Value())
}

func TestUserQueryProducesKBReturn(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 19)
	query := &action.Action{
		Act: action.Query,
		Constraints: []action.SlotValue{
			{Slot: "#loc", Value: u.constraints[0]},
			{Slot: "#food_pref", Value: u.constraints[1]},
		},
		Goals: []string{action.DefaultSlot, "#open"},
	}
	_, acts, err := u.Step([]*action.Action{query})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	ret := acts[0]
	assert.Equal(t, action.KBReturn, ret.Act)
	assert.Equal(t, query.Constraints, ret.Constraints)
	require.Len(t, ret.Results, 2)
	assert.Equal(t, action.DefaultSlot, ret.Results[0].Slot)
	assert.Less(t, ret.Results[0].Value, u.domain.DB.NumRows())
	assert.Equal(t, "#open", ret.Results[1].Slot)
	assert.Less(t, ret.Results[1].Value, u.domain.GetSystemSlot("#open").Dim)
}

func TestUserQueryEmptyResultFallsBack(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 21)
	impossible := 99
	query := &action.Action{
		Act: action.Query,
		Constraints: []action.SlotValue{
			{Slot: "#loc", Value: &impossible},
			{Slot: "#food_pref", Value: nil},
		},
		Goals: []string{action.DefaultSlot},
	}
	_, acts, err := u.Step([]*action.Action{query})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.KBReturn, acts[0].Act)
	require.Len(t, acts[0].Results, 1)
}

func TestUserSatisfiedAfterFullInform(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 23)
	inform := &action.Action{Act: action.Inform}
	for i, s := range u.domain.UserSlots {
		inform.Constraints = append(inform.Constraints,
			action.SlotValue{Slot: s.Name, Value: u.constraints[i]})
	}
	for _, g := range u.sysGoals {
		inform.Results = append(inform.Results, action.GoalValue{Slot: g, Value: 0})
	}

	_, acts, err := u.Step([]*action.Action{
		inform,
		action.NewWithSlot(action.Request, action.HappySlot, nil),
	})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, action.Satisfy, acts[0].Act)
	assert.Equal(t, action.Goodbye, acts[1].Act)
	assert.Equal(t, 1.0, u.Reward())
}

func TestUserCorrectsWrongConstraint(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 25)
	wrong := (*u.constraints[0] + 1) % u.domain.UserSlots[0].Dim
	inform := &action.Action{
		Act: action.Inform,
		Constraints: []action.SlotValue{
			{Slot: "#loc", Value: &wrong},
			{Slot: "#food_pref", Value: u.constraints[1]},
		},
		Results: []action.GoalValue{{Slot: action.DefaultSlot, Value: 3}},
	}
	_, acts, err := u.Step([]*action.Action{inform})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Inform, acts[0].Act)
	assert.Equal(t, "#loc", acts[0].Slot())
	assert.Equal(t, *u.constraints[0], *acts[0].Value())
	assert.Equal(t, -1.0, u.Reward())
}

func TestUserTriggersNewSearchOnSecondGoal(t *testing.T) {
	profile := complexity.Clean()
	profile.Proposition.MultiGoals = []randutil.WeightedInt{{Value: 2, Weight: 1.0}}
	u := newTestUser(t, "movie", profile, 27)
	require.Equal(t, 2, u.goalCnt)

	inform := &action.Action{Act: action.Inform}
	for i, s := range u.domain.UserSlots {
		inform.Constraints = append(inform.Constraints,
			action.SlotValue{Slot: s.Name, Value: u.constraints[i]})
	}
	for _, g := range u.sysGoals {
		inform.Results = append(inform.Results, action.GoalValue{Slot: g, Value: 0})
	}

	_, acts, err := u.Step([]*action.Action{inform})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, action.NewSearch, acts[0].Act)
	assert.Equal(t, action.Inform, acts[1].Act)
	assert.Equal(t, 1, u.goalPtr)
	assert.Equal(t, action.DefaultSlot, u.state.unmetGoal())
}

func TestUserAsksYNQuestionWhenTemplated(t *testing.T) {
	profile := complexity.Clean()
	profile.Proposition.YNQuestion = 1.0
	u := newTestUser(t, "weather", profile, 29)
	u.sysGoals = []string{action.DefaultSlot, "#weather_type"}
	u.state.resetGoals(u.sysGoals)

	inform := &action.Action{Act: action.Inform}
	for i, s := range u.domain.UserSlots {
		inform.Constraints = append(inform.Constraints,
			action.SlotValue{Slot: s.Name, Value: u.constraints[i]})
	}
	inform.Results = []action.GoalValue{{Slot: action.DefaultSlot, Value: 0}}

	_, acts, err := u.Step([]*action.Action{inform})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, action.MoreRequest, acts[0].Act)
	// Every weather_type word has a yn template, so the probe always fires.
	assert.Equal(t, action.YNQuestion, acts[1].Act)
	assert.Equal(t, "#weather_type", acts[1].Slot())
	require.NotNil(t, acts[1].Value())
}

func TestUserRepeatsLastTurnOnAskRepeat(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 33)
	_, first, err := u.Step([]*action.Action{
		action.NewWithSlot(action.Request, "#loc", nil),
	})
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, again, err := u.Step([]*action.Action{action.New(action.AskRepeat)})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, action.Inform, again[0].Act)
	assert.Equal(t, first[0].Slot(), again[0].Slot())
	require.NotNil(t, again[0].Value())
	assert.Equal(t, *first[0].Value(), *again[0].Value())
	assert.False(t, again[0].HasMarker(action.AgainMarker))
}

func TestUserTagsRephraseWithAgainMarker(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 35)
	_, first, err := u.Step([]*action.Action{
		action.NewWithSlot(action.Request, "#food_pref", nil),
	})
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, rephrased, err := u.Step([]*action.Action{action.New(action.AskRephrase)})
	require.NoError(t, err)
	require.Len(t, rephrased, 1)
	assert.Equal(t, action.Inform, rephrased[0].Act)
	assert.Equal(t, first[0].Slot(), rephrased[0].Slot())
	assert.Equal(t, *first[0].Value(), *rephrased[0].Value())
	assert.True(t, rephrased[0].HasMarker(action.AgainMarker))

	// The marker lands on a clone; the originally recorded turn stays clean.
	require.GreaterOrEqual(t, len(u.state.history), 2)
	original := u.state.history[1].Actions
	require.Len(t, original, 1)
	assert.False(t, original[0].HasMarker(action.AgainMarker))
}

func TestUserAskRepeatBeforeSpeakingErrors(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 37)
	_, _, err := u.Step([]*action.Action{action.New(action.AskRepeat)})
	assert.Error(t, err)

	u = newTestUser(t, "restaurant", complexity.Clean(), 37)
	_, _, err = u.Step([]*action.Action{action.New(action.AskRephrase)})
	assert.Error(t, err)
}

func TestUserForcedGoodbyeAtTurnCap(t *testing.T) {
	u := newTestUser(t, "restaurant", complexity.Clean(), 31)
	for i := 0; i < maxUserTurns+1; i++ {
		u.state.history.Append(SpeakerSystem, nil)
	}
	_, acts, err := u.Step([]*action.Action{
		action.NewWithSlot(action.Request, "#loc", nil),
	})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, action.Goodbye, acts[0].Act)
}
