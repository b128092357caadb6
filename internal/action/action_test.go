package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSimpleAct(t *testing.T) {
	a := NewWithSlot(Inform, "#loc", Int(3))
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"act":"inform","parameters":[["#loc",3]]}`, string(data))
}

func TestMarshalMarker(t *testing.T) {
	a := NewWithSlot(Inform, "#loc", Int(1))
	a.AddMarker(SelfCorrectSlot)
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"act":"inform","parameters":[["#loc",1],["#self_correct",true]]}`, string(data))
}

func TestMarshalQuery(t *testing.T) {
	a := &Action{
		Act: Query,
		Constraints: []SlotValue{
			{Slot: "#loc", Value: Int(2)},
			{Slot: "#food_pref", Value: nil},
		},
		Goals: []string{"#default", "#open"},
	}
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"act":"query","parameters":[[["#loc",2],["#food_pref",null]],["#default","#open"]]}`,
		string(data))
}

func TestMarshalSystemInform(t *testing.T) {
	a := &Action{
		Act:         Inform,
		Constraints: []SlotValue{{Slot: "#loc", Value: Int(0)}},
		Results:     []GoalValue{{Slot: "#open", Value: 1, Expected: Int(0)}},
	}
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"act":"inform","parameters":[{"#loc":0},{"#open":[1,0]}]}`,
		string(data))
}

func TestDumpString(t *testing.T) {
	a := NewWithSlot(Request, NeedSlot, nil)
	assert.Equal(t, "request:(#need, none)", a.DumpString())
}

func TestCloneIsDeep(t *testing.T) {
	a := NewWithSlot(Inform, "#loc", Int(5))
	c := a.Clone()
	*c.Params[0].Value = 9
	c.Act = Request

	assert.Equal(t, Inform, a.Act)
	assert.Equal(t, 5, *a.Params[0].Value)
}

func TestCloneAllIndependence(t *testing.T) {
	in := []*Action{
		NewWithSlot(Confirm, "#loc", Int(1)),
		{Act: KBReturn, Results: []GoalValue{{Slot: "#open", Value: 0}}},
	}
	out := CloneAll(in)
	out[0].Act = Disconfirm
	out[1].Results[0].Value = 7

	assert.Equal(t, Confirm, in[0].Act)
	assert.Equal(t, 0, in[1].Results[0].Value)
}

func TestHasMarker(t *testing.T) {
	a := NewWithSlot(Inform, "#loc", Int(0))
	assert.False(t, a.HasMarker(AgainMarker))
	a.AddMarker(AgainMarker)
	assert.True(t, a.HasMarker(AgainMarker))
}
