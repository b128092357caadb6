// Package database implements the randomly generated table a domain is backed
// by. Two column groups share one row index: user-searchable columns and
// system-informable columns, the latter prefixed by a synthetic UID column.
package database

import (
	"fmt"
	"math/rand"
	"strings"

	"simdial/internal/randutil"
)

// DB is the generated table. Immutable after construction; safe for
// concurrent reads.
type DB struct {
	numRows int

	usrPDF [][]float64
	sysPDF [][]float64

	// usrTable[row][col] and sysTable[row][col] are aligned by row index;
	// sysTable column 0 is the UID, equal to the row index.
	usrTable [][]int
	sysTable [][]int

	// indexes[col][value] lists the rows holding value in that user column,
	// in ascending row order.
	indexes []map[int][]int
}

// New samples one PDF per column from its Dirichlet prior, then fills both
// tables with IID draws and builds the inverse indexes.
func New(rng *rand.Rand, usrPriors, sysPriors [][]float64, numRows int) *DB {
	db := &DB{numRows: numRows}

	usrCols := make([][]int, len(usrPriors))
	for i, prior := range usrPriors {
		db.usrPDF = append(db.usrPDF, randutil.Dirichlet(rng, prior))
		usrCols[i] = sampleColumn(rng, db.usrPDF[i], numRows)
	}
	sysCols := make([][]int, len(sysPriors))
	for i, prior := range sysPriors {
		db.sysPDF = append(db.sysPDF, randutil.Dirichlet(rng, prior))
		sysCols[i] = sampleColumn(rng, db.sysPDF[i], numRows)
	}

	db.usrTable = transpose(usrCols, numRows)

	db.sysTable = make([][]int, numRows)
	for row := 0; row < numRows; row++ {
		entry := make([]int, 0, len(sysCols)+1)
		entry = append(entry, row) // UID
		for _, col := range sysCols {
			entry = append(entry, col[row])
		}
		db.sysTable[row] = entry
	}

	db.indexes = make([]map[int][]int, len(usrCols))
	for c, col := range usrCols {
		idx := map[int][]int{}
		for row, v := range col {
			idx[v] = append(idx[v], row)
		}
		db.indexes[c] = idx
	}
	return db
}

func sampleColumn(rng *rand.Rand, pdf []float64, numRows int) []int {
	col := make([]int, numRows)
	for i := range col {
		col[i] = randutil.ChooseIndexWeighted(rng, pdf)
	}
	return col
}

func transpose(cols [][]int, numRows int) [][]int {
	rows := make([][]int, numRows)
	for r := 0; r < numRows; r++ {
		row := make([]int, len(cols))
		for c, col := range cols {
			row[c] = col[r]
		}
		rows[r] = row
	}
	return rows
}

// NumRows returns the row count shared by both tables.
func (db *DB) NumRows() int { return db.numRows }

// NumUserColumns returns the number of searchable columns.
func (db *DB) NumUserColumns() int { return len(db.indexes) }

// SysRow returns the system-side entry at the given row index.
func (db *DB) SysRow(i int) []int { return db.sysTable[i] }

// Select filters rows by equality on the user columns. The query is aligned
// to the user columns; a nil entry never filters. Returns the system-side
// entries at the surviving indices, in row order. An empty result is legal.
func (db *DB) Select(query []*int) [][]int {
	idx := db.SelectIndices(query)
	out := make([][]int, len(idx))
	for i, row := range idx {
		out[i] = db.sysTable[row]
	}
	return out
}

// SelectIndices is Select returning row indices instead of entries.
func (db *DB) SelectIndices(query []*int) []int {
	var valid []int
	for row := 0; row < db.numRows; row++ {
		valid = append(valid, row)
	}
	for col, q := range query {
		if q == nil || col >= len(db.indexes) {
			continue
		}
		valid = intersectSorted(valid, db.indexes[col][*q])
		if len(valid) == 0 {
			break
		}
	}
	return valid
}

func intersectSorted(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// SampleUniqueRow picks uniformly over the set of distinct user-side rows.
func (db *DB) SampleUniqueRow(rng *rand.Rand) []int {
	unique := db.uniqueUserRows()
	picked := unique[rng.Intn(len(unique))]
	return append([]int(nil), picked...)
}

// NumUniqueRows counts the distinct user-side rows.
func (db *DB) NumUniqueRows() int { return len(db.uniqueUserRows()) }

func (db *DB) uniqueUserRows() [][]int {
	seen := map[string]bool{}
	var unique [][]int
	for _, row := range db.usrTable {
		key := rowKey(row)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, row)
		}
	}
	return unique
}

func rowKey(row []int) string {
	var b strings.Builder
	for _, v := range row {
		fmt.Fprintf(&b, "%d,", v)
	}
	return b.String()
}
