package complexity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsValidate(t *testing.T) {
	require.Equal(t, []string{"Clean", "Env", "Prop", "Interact", "Mix"}, Names())
	for _, p := range Builtins() {
		assert.NoError(t, p.Validate(), "profile %s", p.Name)
	}
}

func TestCleanHasNoNoise(t *testing.T) {
	p := Clean()
	assert.Equal(t, 1.0, p.Environment.ASRAcc)
	assert.Zero(t, p.Environment.ASRStd)
	assert.Zero(t, p.Proposition.YNQuestion)
	assert.Zero(t, p.Proposition.DontCare)
	assert.Zero(t, p.Interaction.Hesitation)
	require.Len(t, p.Proposition.MultiGoals, 1)
	assert.Equal(t, 1, p.Proposition.MultiGoals[0].Value)
}

func TestBuiltinLookup(t *testing.T) {
	p, err := Builtin("Mix")
	require.NoError(t, err)
	assert.Equal(t, 0.7, p.Environment.ASRAcc)

	_, err = Builtin("Chaos")
	assert.Error(t, err)
}

func TestValidateRejectsEmptyDistributions(t *testing.T) {
	p := Clean()
	p.Proposition.RejectStyle = nil
	assert.Error(t, p.Validate())

	p = Clean()
	p.Name = ""
	assert.Error(t, p.Validate())
}

func TestLoadYAML(t *testing.T) {
	raw := `
name: Custom
environment:
  asr_acc: 0.8
  asr_std: 0.05
proposition:
  yn_question: 0.2
  reject_style:
    - {value: reject, weight: 0.5}
    - {value: reject+inform, weight: 0.5}
  multi_slots:
    - {value: 1, weight: 1.0}
  dont_care: 0.05
  multi_goals:
    - {value: 1, weight: 0.9}
    - {value: 2, weight: 0.1}
interaction:
  hesitation: 0.3
  self_restart: 0.0
  self_correct: 0.1
`
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom", p.Name)
	assert.Equal(t, 0.8, p.Environment.ASRAcc)
	assert.Equal(t, RejectInform, p.Proposition.RejectStyle[1].Value)
	assert.Equal(t, 0.3, p.Interaction.Hesitation)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: NoDist\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
