// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package presolve

import (
	"math"
	"sort"
)

// liveRow collects the live (col, val) pairs of row i, sorted by
// column.
func (w *work) liveRow(i int) ([]int, []float64) {
	var cols []int
	var vals []float64
	for _, h := range w.rowList[i] {
		if e := &w.entries[h]; !e.dead {
			cols = append(cols, e.col)
			vals = append(vals, e.val)
		}
	}
	sort.Sort(&pairSort{cols, vals})
	return cols, vals
}

// liveCol collects the live (row, val) pairs of column j, sorted by
// row.
func (w *work) liveCol(j int) ([]int, []float64) {
	var rows []int
	var vals []float64
	for _, h := range w.colList[j] {
		if e := &w.entries[h]; !e.dead {
			rows = append(rows, e.row)
			vals = append(vals, e.val)
		}
	}
	sort.Sort(&pairSort{rows, vals})
	return rows, vals
}

type pairSort struct {
	idx []int
	val []float64
}

func (p *pairSort) Len() int           { return len(p.idx) }
func (p *pairSort) Less(a, b int) bool { return p.idx[a] < p.idx[b] }
func (p *pairSort) Swap(a, b int) {
	p.idx[a], p.idx[b] = p.idx[b], p.idx[a]
	p.val[a], p.val[b] = p.val[b], p.val[a]
}

// proportional reports whether v2 == f·v1 elementwise and returns f.
func proportional(v1, v2 []float64) (f float64, ok bool) {
	f = v2[0] / v1[0]
	for k := range v1 {
		if math.Abs(v2[k]-f*v1[k]) > 1e-12*(1+math.Abs(v2[k])) {
			return 0, false
		}
	}
	return f, true
}

// supportKey is a cheap bucket key over a sorted support: length and
// the extreme indices. Full equality is re-checked pairwise.
func supportKey(idx []int) [3]int {
	return [3]int{len(idx), idx[0], idx[len(idx)-1]}
}

func sameSupport(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

// reduceDuplicateRows merges pairs of rows whose coefficient vectors
// are proportional: the implied bounds of one transfer onto the other
// and the duplicate is dropped. A crossed intersection proves
// infeasibility.
func (w *work) reduceDuplicateRows() bool {
	buckets := make(map[[3]int][]int)
	for i := 0; i < w.m; i++ {
		if !w.rowAlive[i] || w.rowCount[i] < 2 {
			continue
		}
		cols, _ := w.liveRow(i)
		buckets[supportKey(cols)] = append(buckets[supportKey(cols)], i)
	}
	for _, rows := range buckets {
		for a := 0; a < len(rows); a++ {
			r1 := rows[a]
			if !w.rowAlive[r1] {
				continue
			}
			cols1, vals1 := w.liveRow(r1)
			for b := a + 1; b < len(rows); b++ {
				r2 := rows[b]
				if !w.rowAlive[r2] {
					continue
				}
				cols2, vals2 := w.liveRow(r2)
				if !sameSupport(cols1, cols2) {
					continue
				}
				f, ok := proportional(vals1, vals2)
				if !ok {
					continue
				}
				if !w.mergeRows(r1, r2, f) {
					return false
				}
			}
		}
	}
	return true
}

// mergeRows folds the bounds of r2, scaled by 1/f, into r1 and drops
// r2. Which side each transferred bound lands on flips with f's sign.
func (w *work) mergeRows(r1, r2 int, f float64) bool {
	lo, up := w.rowLower[r2]/f, w.rowUpper[r2]/f
	if f < 0 {
		lo, up = up, lo
	}
	red := &dupRowRed{keep: r1, drop: r2, factor: f}
	if lo > w.rowLower[r1] {
		w.rowLower[r1] = lo
		red.lowerFromDrop = true
	}
	if up < w.rowUpper[r1] {
		w.rowUpper[r1] = up
		red.upperFromDrop = true
	}
	if w.rowLower[r1] > w.rowUpper[r1]+w.tol {
		return false
	}
	w.push(red)
	w.killRow(r2)
	return true
}

// reduceDuplicateCols merges pairs of parallel continuous columns with
// matching scaled costs. Only the positive-factor, box-bounded case is
// taken: the merged interval is then exact and the split in postsolve
// cannot leave the original boxes.
func (w *work) reduceDuplicateCols() bool {
	buckets := make(map[[3]int][]int)
	for j := 0; j < w.n; j++ {
		if !w.colAlive[j] || w.colCount[j] < 1 || w.integer[j] ||
			math.IsInf(w.colLower[j], -1) || math.IsInf(w.colUpper[j], 1) {
			continue
		}
		rows, _ := w.liveCol(j)
		buckets[supportKey(rows)] = append(buckets[supportKey(rows)], j)
	}
	for _, cols := range buckets {
		for a := 0; a < len(cols); a++ {
			j := cols[a]
			if !w.colAlive[j] {
				continue
			}
			rows1, vals1 := w.liveCol(j)
			for b := a + 1; b < len(cols); b++ {
				k := cols[b]
				if !w.colAlive[k] {
					continue
				}
				rows2, vals2 := w.liveCol(k)
				if !sameSupport(rows1, rows2) {
					continue
				}
				f, ok := proportional(vals1, vals2)
				if !ok || f <= 0 {
					continue
				}
				if math.Abs(w.cost[k]-f*w.cost[j]) > 1e-12*(1+math.Abs(w.cost[k])) {
					continue
				}
				w.mergeCols(j, k, f)
				// Column j's support is unchanged by the merge.
			}
		}
	}
	return true
}

// mergeCols absorbs column k into column j, widening j's box to the
// Minkowski sum of the two.
func (w *work) mergeCols(j, k int, f float64) {
	w.push(&dupColRed{
		keep: j, drop: k, factor: f,
		keepLower: w.colLower[j], keepUpper: w.colUpper[j],
		dropLower: w.colLower[k], dropUpper: w.colUpper[k],
	})
	w.colLower[j] += f * w.colLower[k]
	w.colUpper[j] += f * w.colUpper[k]
	w.killCol(k)
}
