// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse provides the compressed column storage and indexed
// work vectors shared by every numerical stage of the solver.
package sparse

import "sort"

// Entry is a single nonzero of a matrix in triplet form.
type Entry struct {
	Row, Col int
	Val      float64
}

// Matrix is a sparse matrix in compressed sparse column (CSC) form.
// Row indices within a column are strictly increasing.
type Matrix struct {
	Rows, Cols int
	ColStart   []int // len Cols+1
	RowIndex   []int
	Value      []float64
}

// FromTriplets builds a CSC matrix from an unordered triplet list.
// Duplicate (row,col) entries are summed and exact zeros dropped,
// so no spurious fill is fabricated.
func FromTriplets(rows, cols int, entries []Entry) *Matrix {
	es := make([]Entry, len(entries))
	copy(es, entries)
	sort.Slice(es, func(i, j int) bool {
		if es[i].Col != es[j].Col {
			return es[i].Col < es[j].Col
		}
		return es[i].Row < es[j].Row
	})

	merged := es[:0]
	for _, e := range es {
		if n := len(merged); n > 0 && merged[n-1].Col == e.Col && merged[n-1].Row == e.Row {
			merged[n-1].Val += e.Val
			continue
		}
		merged = append(merged, e)
	}

	m := &Matrix{
		Rows:     rows,
		Cols:     cols,
		ColStart: make([]int, cols+1),
		RowIndex: make([]int, 0, len(merged)),
		Value:    make([]float64, 0, len(merged)),
	}
	col := 0
	for _, e := range merged {
		if e.Val == 0 {
			continue
		}
		for col < e.Col {
			col++
			m.ColStart[col] = len(m.RowIndex)
		}
		m.RowIndex = append(m.RowIndex, e.Row)
		m.Value = append(m.Value, e.Val)
	}
	for col < cols {
		col++
		m.ColStart[col] = len(m.RowIndex)
	}
	return m
}

// NumNz returns the number of stored nonzeros.
func (m *Matrix) NumNz() int { return len(m.RowIndex) }

// Col returns the row indices and values of column j.
// The returned slices alias the matrix storage.
func (m *Matrix) Col(j int) (rows []int, vals []float64) {
	s, e := m.ColStart[j], m.ColStart[j+1]
	return m.RowIndex[s:e], m.Value[s:e]
}

// ColDot computes aⱼ·x for a dense vector x of length Rows.
// Only the nonzeros of column j are touched.
func (m *Matrix) ColDot(j int, x []float64) float64 {
	s, e := m.ColStart[j], m.ColStart[j+1]
	dot := 0.0
	for k := s; k < e; k++ {
		dot += m.Value[k] * x[m.RowIndex[k]]
	}
	return dot
}

// ColAxpy accumulates x += alpha·aⱼ into a dense target.
func (m *Matrix) ColAxpy(j int, alpha float64, x []float64) {
	if alpha == 0 {
		return
	}
	s, e := m.ColStart[j], m.ColStart[j+1]
	for k := s; k < e; k++ {
		x[m.RowIndex[k]] += alpha * m.Value[k]
	}
}

// Transpose returns the matrix in compressed row form, expressed as
// the CSC storage of Aᵀ. Used for row-wise scans of a column-stored
// problem, such as the solution audit.
func (m *Matrix) Transpose() *Matrix {
	t := &Matrix{
		Rows:     m.Cols,
		Cols:     m.Rows,
		ColStart: make([]int, m.Rows+1),
		RowIndex: make([]int, len(m.RowIndex)),
		Value:    make([]float64, len(m.Value)),
	}
	for _, r := range m.RowIndex {
		t.ColStart[r+1]++
	}
	for i := 0; i < m.Rows; i++ {
		t.ColStart[i+1] += t.ColStart[i]
	}
	next := make([]int, m.Rows)
	copy(next, t.ColStart[:m.Rows])
	for j := 0; j < m.Cols; j++ {
		for k := m.ColStart[j]; k < m.ColStart[j+1]; k++ {
			r := m.RowIndex[k]
			p := next[r]
			t.RowIndex[p] = j
			t.Value[p] = m.Value[k]
			next[r]++
		}
	}
	return t
}

// Clone deep-copies the matrix.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{
		Rows:     m.Rows,
		Cols:     m.Cols,
		ColStart: make([]int, len(m.ColStart)),
		RowIndex: make([]int, len(m.RowIndex)),
		Value:    make([]float64, len(m.Value)),
	}
	copy(c.ColStart, m.ColStart)
	copy(c.RowIndex, m.RowIndex)
	copy(c.Value, m.Value)
	return c
}
