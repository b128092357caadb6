package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simdial/internal/complexity"
	"simdial/internal/domain"
	"simdial/internal/generator"
)

func testCorpus(t *testing.T, size int) *generator.Corpus {
	t.Helper()
	spec, err := domain.Builtin("weather")
	require.NoError(t, err)
	c, err := generator.Generate(context.Background(), generator.Config{
		Spec:    spec,
		Profile: complexity.Clean(),
		Size:    size,
		Seed:    11,
		Workers: 1,
	})
	require.NoError(t, err)
	return c
}

func TestWriteJSONShape(t *testing.T) {
	c := testCorpus(t, 3)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, c))

	var out struct {
		Dialogs []json.RawMessage `json:"dialogs"`
		Meta    struct {
			Name string `json:"name"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out.Dialogs, 3)
	assert.Equal(t, "weather", out.Meta.Name)
}

func TestWriteText(t *testing.T) {
	c := testCorpus(t, 2)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, c))

	text := buf.String()
	assert.Contains(t, text, "## DIALOG 0 ##")
	assert.Contains(t, text, "## DIALOG 1 ##")
	assert.Contains(t, text, "SYS -> ")
	assert.Contains(t, text, "USR(")

	// Every line is either a dialog header or a speaker line.
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		ok := strings.HasPrefix(line, "## DIALOG") ||
			strings.HasPrefix(line, "SYS -> ") ||
			strings.HasPrefix(line, "USR(")
		assert.True(t, ok, "unexpected line %q", line)
	}
}

func TestWriteFiles(t *testing.T) {
	c := testCorpus(t, 2)
	dir := t.TempDir()
	require.NoError(t, WriteJSONFile(filepath.Join(dir, "out.json"), c))
	require.NoError(t, WriteTextFile(filepath.Join(dir, "out.txt"), c))
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	c := testCorpus(t, 4)
	path := filepath.Join(t.TempDir(), "corpus.db")

	sink, err := OpenSQLite(path)
	require.NoError(t, err)
	defer sink.Close()

	runID := uuid.NewString()
	require.NoError(t, sink.WriteCorpus(runID, c))

	n, err := sink.CountDialogs(runID)
	require.NoError(t, err)
	assert.Equal(t, len(c.Dialogs), n)

	// A second run under a fresh ID is isolated.
	n, err = sink.CountDialogs(uuid.NewString())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteSinkReopen(t *testing.T) {
	c := testCorpus(t, 2)
	path := filepath.Join(t.TempDir(), "corpus.db")
	runID := uuid.NewString()

	sink, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, sink.WriteCorpus(runID, c))
	require.NoError(t, sink.Close())

	sink, err = OpenSQLite(path)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.WriteCorpus(runID, c))

	n, err := sink.CountDialogs(runID)
	require.NoError(t, err)
	assert.Equal(t, 2*len(c.Dialogs), n)
}
