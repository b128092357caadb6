// Package complexity defines the named probability bundles that parameterize
// every stochastic choice in a session: channel noise, semantic phenomena and
// disfluencies. Profiles are plain data and can be loaded from YAML.
package complexity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"simdial/internal/randutil"
)

// Rejection styles for a wrong implicit confirm.
const (
	RejectOnly   = "reject"
	RejectInform = "reject+inform"
)

// Environment controls the simulated ASR channel.
type Environment struct {
	ASRAcc float64 `yaml:"asr_acc"`
	ASRStd float64 `yaml:"asr_std"`
}

// Proposition controls semantic phenomena in the user's behavior.
type Proposition struct {
	YNQuestion  float64                   `yaml:"yn_question"`
	RejectStyle []randutil.WeightedString `yaml:"reject_style"`
	MultiSlots  []randutil.WeightedInt    `yaml:"multi_slots"`
	DontCare    float64                   `yaml:"dont_care"`
	MultiGoals  []randutil.WeightedInt    `yaml:"multi_goals"`
}

// Interaction controls per-utterance disfluencies.
type Interaction struct {
	Hesitation  float64 `yaml:"hesitation"`
	SelfRestart float64 `yaml:"self_restart"`
	SelfCorrect float64 `yaml:"self_correct"`
}

// Social is reserved; all knobs are currently unused placeholders.
type Social struct {
	SelfDisclosure *float64 `yaml:"self_disclosure"`
	RefShared      *float64 `yaml:"ref_shared"`
	ViolationSN    *float64 `yaml:"violation_sn"`
}

// Profile is a named bundle of all complexity knobs.
type Profile struct {
	Name        string      `yaml:"name"`
	Environment Environment `yaml:"environment"`
	Proposition Proposition `yaml:"proposition"`
	Interaction Interaction `yaml:"interaction"`
	Social      Social      `yaml:"social"`
}

// Validate checks that the distributions a session will draw from are usable.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("complexity profile: missing name")
	}
	if len(p.Proposition.RejectStyle) == 0 {
		return fmt.Errorf("profile %s: empty reject_style distribution", p.Name)
	}
	if len(p.Proposition.MultiSlots) == 0 {
		return fmt.Errorf("profile %s: empty multi_slots distribution", p.Name)
	}
	if len(p.Proposition.MultiGoals) == 0 {
		return fmt.Errorf("profile %s: empty multi_goals distribution", p.Name)
	}
	return nil
}

// Load reads and validates a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read complexity profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse complexity profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func cleanProposition() Proposition {
	return Proposition{
		YNQuestion:  0.0,
		RejectStyle: []randutil.WeightedString{{Value: RejectOnly, Weight: 1.0}},
		MultiSlots:  []randutil.WeightedInt{{Value: 1, Weight: 1.0}},
		DontCare:    0.0,
		MultiGoals:  []randutil.WeightedInt{{Value: 1, Weight: 1.0}},
	}
}

// Clean has no noise of any kind.
func Clean() *Profile {
	return &Profile{
		Name:        "Clean",
		Environment: Environment{ASRAcc: 1.0, ASRStd: 0.0},
		Proposition: cleanProposition(),
	}
}

// Env adds ASR noise only.
func Env() *Profile {
	return &Profile{
		Name:        "Env",
		Environment: Environment{ASRAcc: 0.7, ASRStd: 0.2},
		Proposition: cleanProposition(),
	}
}

// Prop adds semantic phenomena only.
func Prop() *Profile {
	return &Profile{
		Name:        "Prop",
		Environment: Environment{ASRAcc: 1.0, ASRStd: 0.0},
		Proposition: Proposition{
			YNQuestion: 0.4,
			RejectStyle: []randutil.WeightedString{
				{Value: RejectOnly, Weight: 0.5},
				{Value: RejectInform, Weight: 0.5},
			},
			MultiSlots: []randutil.WeightedInt{
				{Value: 1, Weight: 0.7},
				{Value: 2, Weight: 0.3},
			},
			DontCare: 0.1,
			MultiGoals: []randutil.WeightedInt{
				{Value: 1, Weight: 0.7},
				{Value: 2, Weight: 0.3},
			},
		},
	}
}

// Interact adds disfluencies only.
func Interact() *Profile {
	return &Profile{
		Name:        "Interact",
		Environment: Environment{ASRAcc: 1.0, ASRStd: 0.0},
		Proposition: cleanProposition(),
		Interaction: Interaction{Hesitation: 0.4, SelfRestart: 0.1, SelfCorrect: 0.2},
	}
}

// Mix combines every noise source.
func Mix() *Profile {
	return &Profile{
		Name:        "Mix",
		Environment: Environment{ASRAcc: 0.7, ASRStd: 0.15},
		Proposition: Proposition{
			YNQuestion: 0.4,
			RejectStyle: []randutil.WeightedString{
				{Value: RejectOnly, Weight: 0.5},
				{Value: RejectInform, Weight: 0.5},
			},
			MultiSlots: []randutil.WeightedInt{
				{Value: 1, Weight: 0.7},
				{Value: 2, Weight: 0.3},
			},
			DontCare: 0.1,
			MultiGoals: []randutil.WeightedInt{
				{Value: 1, Weight: 0.6},
				{Value: 2, Weight: 0.4},
			},
		},
		Interaction: Interaction{Hesitation: 0.4, SelfRestart: 0.1, SelfCorrect: 0.2},
	}
}

// Builtin returns the named preset, or an error listing the known names.
func Builtin(name string) (*Profile, error) {
	for _, p := range Builtins() {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown complexity profile %q (have %v)", name, Names())
}

// Builtins returns all presets in a stable order.
func Builtins() []*Profile {
	return []*Profile{Clean(), Env(), Prop(), Interact(), Mix()}
}

// Names lists the builtin profile names.
func Names() []string {
	var names []string
	for _, p := range Builtins() {
		names = append(names, p.Name)
	}
	return names
}
