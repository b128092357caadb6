// Package nlg renders dialog acts into surface text with the domain's
// template pools. The system renderer also emits the lexicalized acts that go
// into the transcript, with value indices replaced by vocabulary words.
package nlg

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"simdial/internal/action"
	"simdial/internal/domain"
)

const dontCareWord = "dont_care"

// Domain-independent system templates, keyed by act (plus the meta slot for
// requests and the don't-care variants of confirms).
var sysTemplates = map[string][]string{
	string(action.Greet):       {"Hello.", "Hi.", "Greetings.", "How are you doing?"},
	string(action.AskRepeat):   {"Can you please repeat that?", "What did you say?"},
	string(action.AskRephrase): {"Can you please rephrase that?", "Can you say it in another way?"},
	string(action.Goodbye):     {"Goodbye.", "See you next time."},
	string(action.Clarify):     {"I didn't catch you."},
	string(action.Request) + action.NeedSlot: {
		"What can I do for you?", "What do you need?", "How can I help?",
	},
	string(action.Request) + action.HappySlot: {
		"What else can I do?", "Are you happy about my answer?", "Anything else?",
	},
	string(action.ExplicitConfirm) + dontCareWord: {
		"Okay, you dont_care, do you?", "You dont_care, right?",
	},
	string(action.ImplicitConfirm) + dontCareWord: {
		"Okay, you dont_care.", "Alright, dont_care.",
	},
}

var (
	userGreets      = []string{"Hi.", "Hello robot.", "What's up?"}
	userGoodbyes    = []string{"That's all.", "Thank you.", "See you."}
	userChats       = []string{"What's your name?", "Where are you from?"}
	userConfirms    = []string{"Yes.", "Yep.", "Yeah.", "That's correct.", "Uh-huh."}
	userDisconfirms = []string{"No.", "Nope.", "Wrong.", "That's wrong.", "Nay."}
	userSatisfies   = []string{"No more questions.", "I have all I need.", "All good."}
	userMoreReqs    = []string{"I have more requests.", "One more thing.", "Not done yet."}
	userNewSearches = []string{"I want to search a new one.", "New request.", "A new search."}
	userDontCares   = []string{"Anything is fine.", "I don't care.", "Whatever is good."}
	correctConnects = []string{"Oh no,", "Uhm sorry,", "Oh sorry,"}
)

func sample(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// SysNLG renders system turns.
type SysNLG struct {
	domain *domain.Domain
	rng    *rand.Rand
}

// NewSysNLG binds a renderer to a domain and a session RNG.
func NewSysNLG(d *domain.Domain, rng *rand.Rand) *SysNLG {
	return &SysNLG{domain: d, rng: rng}
}

// Generate maps one system turn to an utterance plus the lexicalized acts.
func (n *SysNLG) Generate(actions []*action.Action) (string, []action.LexAction, error) {
	var sents []string
	var lexed []action.LexAction
	for _, a := range actions {
		sent, lex, err := n.generateOne(a)
		if err != nil {
			return "", nil, err
		}
		sents = append(sents, sent)
		lexed = append(lexed, lex)
	}
	return strings.Join(sents, " "), lexed, nil
}

func (n *SysNLG) generateOne(a *action.Action) (string, action.LexAction, error) {
	lex := action.LexAction{Act: a.Act}

	switch a.Act {
	case action.Greet:
		return n.domain.Greet, lex, nil

	case action.Query:
		search := map[string]string{}
		for _, c := range a.Constraints {
			if c.Value == nil {
				search[c.Slot] = dontCareWord
			} else {
				search[c.Slot] = n.domain.GetUserSlot(c.Slot).Vocabulary[*c.Value]
			}
		}
		lex.Parameters = []any{search, a.Goals}
		utt, err := json.Marshal(map[string]any{"QUERY": search, "GOALS": a.Goals})
		if err != nil {
			return "", lex, err
		}
		return string(utt), lex, nil

	case action.Inform:
		var sents []string
		goalWords := map[string]string{}
		for _, r := range a.Results {
			slot := n.domain.GetSystemSlot(r.Slot)
			word := slot.Vocabulary[r.Value]
			goalWords[r.Slot] = word

			prefix := ""
			if r.Expected != nil {
				if *r.Expected == r.Value {
					prefix = "Yes, "
				} else {
					prefix = "No, "
				}
			}
			tmpl, err := slot.SampleInform(n.rng)
			if err != nil {
				return "", lex, err
			}
			sents = append(sents, prefix+fmt.Sprintf(tmpl, word))
		}
		lex.Parameters = []any{goalWords}
		return strings.Join(sents, " "), lex, nil

	case action.Request:
		slotName := a.Slot()
		lex.Parameters = lexParams(a)
		if slotName == action.NeedSlot || slotName == action.HappySlot {
			return sample(n.rng, sysTemplates[string(action.Request)+slotName]), lex, nil
		}
		slot := n.domain.GetUserSlot(slotName)
		if slot == nil {
			return "", lex, fmt.Errorf("nlg: request for unknown slot %s", slotName)
		}
		utt, err := slot.SampleRequest(n.rng)
		return utt, lex, err

	case action.ExplicitConfirm, action.ImplicitConfirm:
		slotName, val := a.Slot(), a.Value()
		if val == nil {
			lex.Parameters = []any{[]any{slotName, dontCareWord}}
			return sample(n.rng, sysTemplates[string(a.Act)+dontCareWord]), lex, nil
		}
		slot := n.domain.GetUserSlot(slotName)
		if slot == nil {
			return "", lex, fmt.Errorf("nlg: %s for unknown slot %s", a.Act, slotName)
		}
		word := slot.Vocabulary[*val]
		lex.Parameters = []any{[]any{slotName, word}}
		if a.Act == action.ExplicitConfirm {
			return fmt.Sprintf("Do you mean %s?", word), lex, nil
		}
		return fmt.Sprintf("I believe you said %s.", word), lex, nil

	default:
		pool, ok := sysTemplates[string(a.Act)]
		if !ok {
			return "", lex, fmt.Errorf("nlg: unknown system act %s", a.Act)
		}
		lex.Parameters = lexParams(a)
		return sample(n.rng, pool), lex, nil
	}
}

func lexParams(a *action.Action) []any {
	var out []any
	for _, p := range a.Params {
		if p.Value == nil && (p.Slot == action.AgainMarker || p.Slot == action.SelfCorrectSlot) {
			out = append(out, []any{p.Slot, true})
			continue
		}
		out = append(out, []any{p.Slot, p.Value})
	}
	return out
}

// UserNLG renders user turns. It consumes the noisy actions, so what the
// transcript reads matches what the system heard.
type UserNLG struct {
	domain *domain.Domain
	rng    *rand.Rand
}

// NewUserNLG binds a renderer to a domain and a session RNG.
func NewUserNLG(d *domain.Domain, rng *rand.Rand) *UserNLG {
	return &UserNLG{domain: d, rng: rng}
}

// Generate maps one user turn to an utterance.
func (n *UserNLG) Generate(actions []*action.Action) (string, error) {
	var sents []string
	for _, a := range actions {
		sent, err := n.generateOne(a)
		if err != nil {
			return "", err
		}
		sents = append(sents, sent)
	}
	return strings.Join(sents, " "), nil
}

func (n *UserNLG) generateOne(a *action.Action) (string, error) {
	switch a.Act {
	case action.KBReturn:
		ret := map[string]string{}
		for _, r := range a.Results {
			ret[r.Slot] = n.domain.GetSystemSlot(r.Slot).Vocabulary[r.Value]
		}
		utt, err := json.Marshal(map[string]any{"RET": ret})
		return string(utt), err

	case action.Greet:
		return sample(n.rng, userGreets), nil
	case action.Goodbye:
		return sample(n.rng, userGoodbyes), nil
	case action.Chat:
		return sample(n.rng, userChats), nil
	case action.Confirm:
		return sample(n.rng, userConfirms), nil
	case action.Disconfirm:
		return sample(n.rng, userDisconfirms), nil
	case action.Satisfy:
		return sample(n.rng, userSatisfies), nil
	case action.MoreRequest:
		return sample(n.rng, userMoreReqs), nil
	case action.NewSearch:
		return sample(n.rng, userNewSearches), nil

	case action.Request:
		slot := n.domain.GetSystemSlot(a.Slot())
		if slot == nil {
			return "", fmt.Errorf("nlg: user request for unknown goal %s", a.Slot())
		}
		return slot.SampleRequest(n.rng)

	case action.YNQuestion:
		slot := n.domain.GetSystemSlot(a.Slot())
		if slot == nil || a.Value() == nil {
			return "", fmt.Errorf("nlg: malformed yn_question on %s", a.Slot())
		}
		return slot.SampleYNQuestion(n.rng, slot.Vocabulary[*a.Value()])

	case action.Inform:
		return n.generateInform(a)

	default:
		return "", fmt.Errorf("nlg: unknown user act %s", a.Act)
	}
}

func (n *UserNLG) generateInform(a *action.Action) (string, error) {
	slot := n.domain.GetUserSlot(a.Slot())
	if slot == nil {
		return "", fmt.Errorf("nlg: user inform for unknown slot %s", a.Slot())
	}

	render := func(val *int) (string, error) {
		if val == nil {
			return sample(n.rng, userDontCares), nil
		}
		tmpl, err := slot.SampleInform(n.rng)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(tmpl, slot.Vocabulary[*val]), nil
	}

	if a.HasMarker(action.SelfCorrectSlot) {
		wrong, err := render(slot.SampleDifferent(n.rng, a.Value()))
		if err != nil {
			return "", err
		}
		correct, err := render(a.Value())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", wrong, sample(n.rng, correctConnects), correct), nil
	}
	return render(a.Value())
}
