// Package channel corrupts the user-to-system path the way a speech front end
// would: disfluency markers at the action level, then ASR confusion with a
// per-turn confidence score, then hesitation and restarts at the word level.
package channel

import (
	"math/rand"
	"strings"

	"simdial/internal/action"
	"simdial/internal/complexity"
	"simdial/internal/domain"
	"simdial/internal/randutil"
)

var hesitationTokens = []string{"hmm", "uhm", "hmm ..."}

// ActionChannel applies action-level noise. The input actions are never
// mutated; the caller gets corrupted copies plus the simulated ASR confidence.
type ActionChannel struct {
	domain  *domain.Domain
	profile *complexity.Profile
	rng     *rand.Rand
}

// NewActionChannel wires a channel to one session's RNG.
func NewActionChannel(d *domain.Domain, profile *complexity.Profile, rng *rand.Rand) *ActionChannel {
	return &ActionChannel{domain: d, profile: profile, rng: rng}
}

// Transmit runs interaction noise, social noise and environment noise in that
// order and returns the noisy actions with the turn confidence.
func (c *ActionChannel) Transmit(actions []*action.Action) ([]*action.Action, float64) {
	noisy := action.CloneAll(actions)
	c.addSelfCorrect(noisy)
	// Social noise is a pass-through until the social knobs are defined.
	conf := c.corrupt(noisy)
	return noisy, conf
}

func (c *ActionChannel) addSelfCorrect(actions []*action.Action) {
	for _, a := range actions {
		if a.Act == action.Inform && c.rng.Float64() < c.profile.Interaction.SelfCorrect {
			a.AddMarker(action.SelfCorrectSlot)
		}
	}
}

func (c *ActionChannel) corrupt(actions []*action.Action) float64 {
	env := c.profile.Environment
	conf := randutil.ClampedNormal(c.rng, env.ASRAcc, env.ASRStd, 0.1, 0.99)

	// Yes/no answers are short and clean; recognizing them is easier.
	for _, a := range actions {
		if a.Act == action.Confirm || a.Act == action.Disconfirm {
			conf = randutil.Clamp(conf+0.1, 0.1, 0.99)
			break
		}
	}

	for _, a := range actions {
		switch a.Act {
		case action.Confirm:
			if c.rng.Float64() > conf {
				a.Act = action.Disconfirm
			}
		case action.Disconfirm:
			if c.rng.Float64() > conf {
				a.Act = action.Confirm
			}
		case action.Inform:
			if c.rng.Float64() > conf {
				slot := c.domain.GetUserSlot(a.Slot())
				if slot == nil {
					continue
				}
				// Uniform over the vocabulary plus the don't-care reading.
				pick := c.rng.Intn(slot.Dim + 1)
				if pick == slot.Dim {
					a.Params[0].Value = nil
				} else {
					a.Params[0].Value = action.Int(pick)
				}
			}
		}
	}
	return conf
}

// WordChannel applies word-level disfluencies to a rendered user utterance.
type WordChannel struct {
	profile *complexity.Profile
	rng     *rand.Rand
}

// NewWordChannel wires a word channel to one session's RNG.
func NewWordChannel(profile *complexity.Profile, rng *rand.Rand) *WordChannel {
	return &WordChannel{profile: profile, rng: rng}
}

// Transmit inserts a hesitation token, then possibly a false start. Short
// utterances pass through untouched.
func (c *WordChannel) Transmit(utt string) string {
	return c.addSelfRestart(c.addHesitation(utt))
}

func (c *WordChannel) addHesitation(utt string) string {
	tokens := strings.Split(utt, " ")
	if len(tokens) <= 4 || c.rng.Float64() >= c.profile.Interaction.Hesitation {
		return utt
	}
	pos := 1 + c.rng.Intn(len(tokens)-2)
	filler := hesitationTokens[c.rng.Intn(len(hesitationTokens))]
	tokens = append(tokens[:pos], append([]string{filler}, tokens[pos:]...)...)
	return strings.Join(tokens, " ")
}

func (c *WordChannel) addSelfRestart(utt string) string {
	tokens := strings.Split(utt, " ")
	if len(tokens) <= 4 || c.rng.Float64() >= c.profile.Interaction.SelfRestart {
		return utt
	}
	length := 1 + c.rng.Intn(2)
	out := make([]string, 0, length+1+len(tokens))
	out = append(out, tokens[:length]...)
	out = append(out, "uhm yeah")
	out = append(out, tokens...)
	return strings.Join(out, " ")
}
