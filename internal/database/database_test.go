package database

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformPriors(dims ...int) [][]float64 {
	out := make([][]float64, len(dims))
	for i, d := range dims {
		p := make([]float64, d)
		for j := range p {
			p[j] = 1
		}
		out[i] = p
	}
	return out
}

func newTestDB(t *testing.T, seed int64) *DB {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	return New(rng, uniformPriors(4, 3), uniformPriors(2, 5), 50)
}

func TestNewShapes(t *testing.T) {
	db := newTestDB(t, 1)
	assert.Equal(t, 50, db.NumRows())
	assert.Equal(t, 2, db.NumUserColumns())

	// System rows carry the UID prefix column equal to the row index.
	for i := 0; i < db.NumRows(); i++ {
		row := db.SysRow(i)
		require.Len(t, row, 3)
		assert.Equal(t, i, row[0])
	}
}

func TestSelectNilNeverFilters(t *testing.T) {
	db := newTestDB(t, 2)
	rows := db.Select([]*int{nil, nil})
	assert.Len(t, rows, db.NumRows())
}

func TestSelectIsSubsetAndConsistent(t *testing.T) {
	db := newTestDB(t, 3)
	v := 1
	idx := db.SelectIndices([]*int{&v, nil})
	require.NotEmpty(t, idx)
	for _, row := range idx {
		assert.Equal(t, 1, db.usrTable[row][0])
	}

	// Adding a constraint can only shrink the result.
	w := 2
	narrower := db.SelectIndices([]*int{&v, &w})
	assert.LessOrEqual(t, len(narrower), len(idx))
	for _, row := range narrower {
		assert.Equal(t, 1, db.usrTable[row][0])
		assert.Equal(t, 2, db.usrTable[row][1])
	}
}

func TestSelectImpossibleValue(t *testing.T) {
	db := newTestDB(t, 4)
	v := 99 // outside every vocabulary
	assert.Empty(t, db.Select([]*int{&v, nil}))
}

func TestSelectRowOrder(t *testing.T) {
	db := newTestDB(t, 5)
	v := 0
	idx := db.SelectIndices([]*int{&v, nil})
	for i := 1; i < len(idx); i++ {
		assert.Greater(t, idx[i], idx[i-1])
	}
}

func TestSampleUniqueRowIsReachable(t *testing.T) {
	db := newTestDB(t, 6)
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 20; i++ {
		row := db.SampleUniqueRow(rng)
		require.Len(t, row, 2)
		query := []*int{&row[0], &row[1]}
		assert.NotEmpty(t, db.Select(query), "sampled row must match at least one entry")
	}
}

func TestDeterministicConstruction(t *testing.T) {
	a := newTestDB(t, 7)
	b := newTestDB(t, 7)
	assert.Equal(t, a.usrTable, b.usrTable)
	assert.Equal(t, a.sysTable, b.sysTable)
}

func TestNumUniqueRows(t *testing.T) {
	db := newTestDB(t, 8)
	n := db.NumUniqueRows()
	assert.Greater(t, n, 0)
	// 4 x 3 combinations bound the distinct user rows.
	assert.LessOrEqual(t, n, 12)
}
