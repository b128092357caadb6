// Package domain models a slot-filling domain: the declarative spec (user and
// system slots, NLG templates, database size) and the runtime view built from
// it, including the synthetic #default slot that identifies database entries.
package domain

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"simdial/internal/action"
)

// SlotSpec declares one slot: its name (unprefixed), a human description and
// the value vocabulary.
type SlotSpec struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Vocabulary  []string `yaml:"vocabulary" json:"vocabulary"`
}

// NLGBundle carries the surface templates for one slot. Inform templates take
// the value word through a single %s verb slot. YNQuestion maps an expected
// vocabulary word to question templates.
type NLGBundle struct {
	Inform     []string            `yaml:"inform" json:"inform"`
	Request    []string            `yaml:"request" json:"request"`
	YNQuestion map[string][]string `yaml:"yn_question,omitempty" json:"yn_question,omitempty"`
}

// Spec is the immutable, declarative description of a domain. The NLG map is
// keyed by unprefixed slot name; the reserved key "default" binds to the
// synthetic #default system slot.
type Spec struct {
	Name        string               `yaml:"name" json:"name"`
	Greet       string               `yaml:"greet" json:"greet"`
	UserSlots   []SlotSpec           `yaml:"usr_slots" json:"usr_slots"`
	SystemSlots []SlotSpec           `yaml:"sys_slots" json:"sys_slots"`
	DBSize      int                  `yaml:"db_size" json:"db_size"`
	NLG         map[string]NLGBundle `yaml:"nlg_spec" json:"nlg_spec"`
}

// Validate checks the structural invariants a spec must satisfy before any
// session can run against it.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("domain spec: missing name")
	}
	if s.DBSize <= 0 {
		return fmt.Errorf("domain %s: db_size must be positive, got %d", s.Name, s.DBSize)
	}
	if len(s.UserSlots) == 0 || len(s.SystemSlots) == 0 {
		return fmt.Errorf("domain %s: needs at least one user and one system slot", s.Name)
	}
	names := map[string]bool{}
	for _, group := range [][]SlotSpec{s.UserSlots, s.SystemSlots} {
		for _, sl := range group {
			if len(sl.Vocabulary) < 2 {
				return fmt.Errorf("domain %s: slot %s needs a vocabulary of size >= 2", s.Name, sl.Name)
			}
			if names[sl.Name] {
				return fmt.Errorf("domain %s: duplicate slot %s", s.Name, sl.Name)
			}
			names[sl.Name] = true
		}
	}
	if _, ok := s.NLG["default"]; !ok {
		return fmt.Errorf("domain %s: nlg_spec missing the \"default\" bundle", s.Name)
	}
	for key, bundle := range s.NLG {
		if key != "default" && !names[key] {
			return fmt.Errorf("domain %s: nlg_spec key %s does not match any slot", s.Name, key)
		}
		if len(bundle.Inform) == 0 || len(bundle.Request) == 0 {
			return fmt.Errorf("domain %s: nlg_spec for %s needs inform and request templates", s.Name, key)
		}
	}
	for _, sl := range append(append([]SlotSpec{}, s.UserSlots...), s.SystemSlots...) {
		if _, ok := s.NLG[sl.Name]; !ok {
			return fmt.Errorf("domain %s: slot %s has no nlg_spec bundle", s.Name, sl.Name)
		}
	}
	return nil
}

// LoadSpec reads and validates a domain spec from a YAML file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain spec: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse domain spec %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Slot is the runtime view of a slot: name prefixed with "#", plus the
// template pools attached from the spec's NLG map.
type Slot struct {
	Name        string
	Description string
	Vocabulary  []string
	Dim         int
	Informs     []string
	Requests    []string
	YNQuestions map[string][]string
}

func newSlot(name, description string, vocabulary []string) *Slot {
	return &Slot{
		Name:        "#" + name,
		Description: description,
		Vocabulary:  vocabulary,
		Dim:         len(vocabulary),
	}
}

// SampleRequest draws a request template uniformly.
func (s *Slot) SampleRequest(rng *rand.Rand) (string, error) {
	if len(s.Requests) == 0 {
		return "", fmt.Errorf("slot %s: empty request template pool", s.Name)
	}
	return s.Requests[rng.Intn(len(s.Requests))], nil
}

// SampleInform draws an inform template uniformly.
func (s *Slot) SampleInform(rng *rand.Rand) (string, error) {
	if len(s.Informs) == 0 {
		return "", fmt.Errorf("slot %s: empty inform template pool", s.Name)
	}
	return s.Informs[rng.Intn(len(s.Informs))], nil
}

// SampleYNQuestion draws a yes/no question template for the expected word.
func (s *Slot) SampleYNQuestion(rng *rand.Rand, expected string) (string, error) {
	pool := s.YNQuestions[expected]
	if len(pool) == 0 {
		return "", fmt.Errorf("slot %s: no yn_question templates for %q", s.Name, expected)
	}
	return pool[rng.Intn(len(pool))], nil
}

// SampleDifferent returns a value different from v: for a nil (don't-care)
// input any concrete value, otherwise either nil or any other index. With a
// one-word vocabulary the only different choice is nil.
func (s *Slot) SampleDifferent(rng *rand.Rand, v *int) *int {
	if v == nil {
		return action.Int(rng.Intn(s.Dim))
	}
	choices := make([]*int, 0, s.Dim)
	choices = append(choices, nil)
	for i := 0; i < s.Dim; i++ {
		if i != *v {
			choices = append(choices, action.Int(i))
		}
	}
	return choices[rng.Intn(len(choices))]
}
