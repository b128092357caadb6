package channel

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simdial/internal/action"
	"simdial/internal/complexity"
	"simdial/internal/domain"
)

func testDomain(t *testing.T) *domain.Domain {
	t.Helper()
	spec, err := domain.Builtin("restaurant")
	require.NoError(t, err)
	d, err := domain.New(spec, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	return d
}

func TestCleanChannelLeavesActsIntact(t *testing.T) {
	d := testDomain(t)
	ch := NewActionChannel(d, complexity.Clean(), rand.New(rand.NewSource(2)))

	in := []*action.Action{
		action.NewWithSlot(action.Inform, "#loc", action.Int(3)),
		action.NewWithSlot(action.Request, action.DefaultSlot, nil),
	}
	noisy, conf := ch.Transmit(in)

	// Clean: mean 1.0, std 0 clamps to the 0.99 ceiling.
	assert.InDelta(t, 0.99, conf, 1e-9)
	require.Len(t, noisy, 2)
	assert.Equal(t, action.Inform, noisy[0].Act)
	assert.False(t, noisy[0].HasMarker(action.SelfCorrectSlot))
	assert.Equal(t, action.Request, noisy[1].Act)
}

func TestTransmitNeverMutatesInput(t *testing.T) {
	d := testDomain(t)
	profile := complexity.Mix()
	ch := NewActionChannel(d, profile, rand.New(rand.NewSource(3)))

	in := []*action.Action{
		action.NewWithSlot(action.Inform, "#loc", action.Int(3)),
		action.NewWithSlot(action.Confirm, "#loc", action.Int(3)),
	}
	for i := 0; i < 200; i++ {
		ch.Transmit(in)
	}
	assert.Equal(t, action.Inform, in[0].Act)
	assert.Equal(t, 3, *in[0].Params[0].Value)
	assert.False(t, in[0].HasMarker(action.SelfCorrectSlot))
	assert.Equal(t, action.Confirm, in[1].Act)
}

func TestConfidenceBounds(t *testing.T) {
	d := testDomain(t)
	ch := NewActionChannel(d, complexity.Mix(), rand.New(rand.NewSource(4)))
	in := []*action.Action{action.NewWithSlot(action.Inform, "#loc", action.Int(0))}
	for i := 0; i < 500; i++ {
		_, conf := ch.Transmit(in)
		require.GreaterOrEqual(t, conf, 0.1)
		require.LessOrEqual(t, conf, 0.99)
	}
}

func TestNoisyChannelFlipsConfirms(t *testing.T) {
	d := testDomain(t)
	// Force a low-confidence channel so flips are frequent.
	profile := complexity.Clean()
	profile.Environment = complexity.Environment{ASRAcc: 0.1, ASRStd: 0.0}
	ch := NewActionChannel(d, profile, rand.New(rand.NewSource(5)))

	flips := 0
	n := 500
	for i := 0; i < n; i++ {
		in := []*action.Action{action.NewWithSlot(action.Confirm, "#loc", action.Int(1))}
		noisy, _ := ch.Transmit(in)
		if noisy[0].Act == action.Disconfirm {
			flips++
		}
	}
	// conf sits at 0.2 after the confirm bonus, so ~80% flip.
	assert.Greater(t, flips, n/2)
}

func TestNoisyChannelCorruptsInformValues(t *testing.T) {
	d := testDomain(t)
	profile := complexity.Clean()
	profile.Environment = complexity.Environment{ASRAcc: 0.1, ASRStd: 0.0}
	ch := NewActionChannel(d, profile, rand.New(rand.NewSource(6)))

	dim := d.GetUserSlot("#loc").Dim
	changed := 0
	sawNil := false
	n := 1000
	for i := 0; i < n; i++ {
		in := []*action.Action{action.NewWithSlot(action.Inform, "#loc", action.Int(2))}
		noisy, _ := ch.Transmit(in)
		v := noisy[0].Value()
		if v == nil {
			sawNil = true
			changed++
		} else {
			require.Less(t, *v, dim)
			if *v != 2 {
				changed++
			}
		}
	}
	assert.Greater(t, changed, n/2)
	assert.True(t, sawNil, "corruption must sometimes yield the dont-care reading")
}

func TestSelfCorrectMarker(t *testing.T) {
	d := testDomain(t)
	profile := complexity.Clean()
	profile.Interaction.SelfCorrect = 1.0
	ch := NewActionChannel(d, profile, rand.New(rand.NewSource(7)))

	in := []*action.Action{
		action.NewWithSlot(action.Inform, "#loc", action.Int(0)),
		action.NewWithSlot(action.Request, action.DefaultSlot, nil),
	}
	noisy, _ := ch.Transmit(in)
	assert.True(t, noisy[0].HasMarker(action.SelfCorrectSlot))
	assert.False(t, noisy[1].HasMarker(action.SelfCorrectSlot), "only informs self-correct")
}

func TestWordChannelHesitation(t *testing.T) {
	profile := complexity.Clean()
	profile.Interaction.Hesitation = 1.0
	ch := NewWordChannel(profile, rand.New(rand.NewSource(8)))

	out := ch.Transmit("I am looking for a restaurant downtown")
	assert.NotEqual(t, "I am looking for a restaurant downtown", out)
	hasFiller := strings.Contains(out, "hmm") || strings.Contains(out, "uhm")
	assert.True(t, hasFiller, "got %q", out)

	// Fillers never lead or trail the utterance.
	assert.False(t, strings.HasPrefix(out, "hmm"))
	assert.False(t, strings.HasPrefix(out, "uhm"))
}

func TestWordChannelSelfRestart(t *testing.T) {
	profile := complexity.Clean()
	profile.Interaction.SelfRestart = 1.0
	ch := NewWordChannel(profile, rand.New(rand.NewSource(9)))

	utt := "I am looking for a restaurant"
	out := ch.Transmit(utt)
	assert.Contains(t, out, "uhm yeah")
	assert.True(t, strings.HasSuffix(out, utt), "restart keeps the full original: %q", out)
}

func TestWordChannelShortUtterancePassesThrough(t *testing.T) {
	profile := complexity.Clean()
	profile.Interaction.Hesitation = 1.0
	profile.Interaction.SelfRestart = 1.0
	ch := NewWordChannel(profile, rand.New(rand.NewSource(10)))
	assert.Equal(t, "Yes.", ch.Transmit("Yes."))
}
