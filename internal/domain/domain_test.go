package domain

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simdial/internal/action"
)

func TestBuiltinSpecsValidate(t *testing.T) {
	names := BuiltinNames()
	require.Len(t, names, 6)
	for _, s := range Builtins() {
		assert.NoError(t, s.Validate(), "domain %s", s.Name)
	}
}

func TestBuiltinLookup(t *testing.T) {
	s, err := Builtin("bus")
	require.NoError(t, err)
	assert.Equal(t, "bus", s.Name)

	_, err = Builtin("banking")
	assert.Error(t, err)
}

func TestNewDomainAssembly(t *testing.T) {
	spec, err := Builtin("restaurant")
	require.NoError(t, err)
	d, err := New(spec, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)

	// Slot names get the # prefix; #default leads the system slots.
	require.Len(t, d.UserSlots, 2)
	assert.Equal(t, "#loc", d.UserSlots[0].Name)
	require.Len(t, d.SystemSlots, 4)
	assert.Equal(t, action.DefaultSlot, d.SystemSlots[0].Name)

	// #default's vocabulary is the stringified row index.
	assert.Equal(t, spec.DBSize, d.SystemSlots[0].Dim)
	assert.Equal(t, "0", d.SystemSlots[0].Vocabulary[0])
	assert.Equal(t, "99", d.SystemSlots[0].Vocabulary[99])

	// NLG bundles are attached to their slots.
	assert.NotEmpty(t, d.UserSlots[0].Informs)
	assert.NotEmpty(t, d.SystemSlots[0].Informs)
	open := d.GetSystemSlot("#open")
	require.NotNil(t, open)
	assert.NotEmpty(t, open.YNQuestions["open"])

	assert.Equal(t, spec.DBSize, d.DB.NumRows())
	assert.Equal(t, len(d.UserSlots), d.DB.NumUserColumns())
}

func TestSlotLookups(t *testing.T) {
	spec, _ := Builtin("weather")
	d, err := New(spec, rand.New(rand.NewSource(2)), nil)
	require.NoError(t, err)

	slot, idx := d.GetUserSlotIndex("#datetime")
	require.NotNil(t, slot)
	assert.Equal(t, 1, idx)
	assert.True(t, d.IsUserSlot("#loc"))
	assert.False(t, d.IsUserSlot("#temperature"))

	_, idx = d.GetSystemSlotIndex("#temperature")
	assert.Equal(t, 1, idx)
}

func TestSampleDifferent(t *testing.T) {
	slot := newSlot("loc", "", []string{"a", "b", "c"})
	rng := rand.New(rand.NewSource(3))

	// From a concrete value: nil or any other index.
	v := 1
	for i := 0; i < 50; i++ {
		got := slot.SampleDifferent(rng, &v)
		if got != nil {
			assert.NotEqual(t, 1, *got)
		}
	}

	// From don't-care: always concrete.
	for i := 0; i < 50; i++ {
		got := slot.SampleDifferent(rng, nil)
		require.NotNil(t, got)
		assert.Less(t, *got, 3)
	}

	// dim == 1 leaves only the don't-care reading.
	tiny := newSlot("flag", "", []string{"x"})
	z := 0
	assert.Nil(t, tiny.SampleDifferent(rng, &z))
}

func TestSampleYNQuestionMissing(t *testing.T) {
	slot := newSlot("open", "", []string{"open", "closed"})
	_, err := slot.SampleYNQuestion(rand.New(rand.NewSource(4)), "open")
	assert.Error(t, err)
}

func TestValidateRejectsBadSpecs(t *testing.T) {
	base := func() *Spec {
		s, _ := Builtin("restaurant")
		return s
	}

	s := base()
	s.DBSize = 0
	assert.Error(t, s.Validate())

	s = base()
	s.UserSlots[0].Vocabulary = []string{"only"}
	assert.Error(t, s.Validate())

	s = base()
	delete(s.NLG, "default")
	assert.Error(t, s.Validate())

	s = base()
	delete(s.NLG, "open")
	assert.Error(t, s.Validate())

	s = base()
	s.NLG["bogus"] = NLGBundle{Inform: []string{"%s"}, Request: []string{"?"}}
	assert.Error(t, s.Validate())
}

func TestLoadSpecYAML(t *testing.T) {
	raw := `
name: toy
greet: "Toy domain."
usr_slots:
  - name: color
    description: a color
    vocabulary: [red, blue]
sys_slots:
  - name: size
    description: a size
    vocabulary: [small, large]
db_size: 10
nlg_spec:
  color:
    inform: ["I want %s."]
    request: ["Which color?"]
  size:
    inform: ["It is %s."]
    request: ["What size?"]
    yn_question:
      small: ["Is it small?"]
  default:
    inform: ["Item %s fits."]
    request: ["Find me an item."]
`
	path := filepath.Join(t.TempDir(), "toy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	spec, err := LoadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, "toy", spec.Name)
	assert.Equal(t, 10, spec.DBSize)
	require.Len(t, spec.UserSlots, 1)
	assert.Equal(t, []string{"red", "blue"}, spec.UserSlots[0].Vocabulary)
	assert.Equal(t, []string{"Is it small?"}, spec.NLG["size"].YNQuestion["small"])

	d, err := New(spec, rand.New(rand.NewSource(5)), nil)
	require.NoError(t, err)
	assert.Equal(t, "toy", d.Name)
}

func TestBusYNQuestionsKeyedByWord(t *testing.T) {
	spec, _ := Builtin("bus")
	arrive := spec.NLG["arrive_in"]
	require.NotEmpty(t, arrive.YNQuestion)
	// Every key is a vocabulary word of the slot.
	var vocab []string
	for _, s := range spec.SystemSlots {
		if s.Name == "arrive_in" {
			vocab = s.Vocabulary
		}
	}
	require.NotEmpty(t, vocab)
	words := map[string]bool{}
	for _, w := range vocab {
		words[w] = true
	}
	for key := range arrive.YNQuestion {
		assert.True(t, words[key], "yn_question key %q not in vocabulary", key)
	}
	assert.Contains(t, arrive.YNQuestion["25"][0], "long wait")
	assert.Contains(t, arrive.YNQuestion["5"][0], "shortly")
}
