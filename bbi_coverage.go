/* Copyright (C) 2016 Philipp Benner
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package gobbi

/* -------------------------------------------------------------------------- */

import "github.com/google/btree"

/* -------------------------------------------------------------------------- */

type coverageBreak struct {
  Position uint32
  Delta    int
}

func (a coverageBreak) Less(b btree.Item) bool {
  return a.Position < b.(coverageBreak).Position
}

/* -------------------------------------------------------------------------- */

// Coverage depth of a set of possibly overlapping intervals on a single
// chromosome. Interval ends are kept as break points in an ordered tree.
type coverageDepth struct {
  tree *btree.BTree
}

func newCoverageDepth() *coverageDepth {
  return &coverageDepth{btree.New(32)}
}

func (c *coverageDepth) addBreak(position uint32, delta int) {
  item := coverageBreak{Position: position}
  if i := c.tree.Get(item); i != nil {
    item.Delta = i.(coverageBreak).Delta
  }
  item.Delta += delta
  if item.Delta == 0 {
    c.tree.Delete(item)
  } else {
    c.tree.ReplaceOrInsert(item)
  }
}

func (c *coverageDepth) AddInterval(start, end uint32) {
  if start >= end {
    return
  }
  c.addBreak(start,  1)
  c.addBreak(end,   -1)
}

// Call f on all maximal ranges with constant non-zero depth in ascending
// order.
func (c *coverageDepth) Ranges(f func(start, end uint32, depth int)) {
  depth := 0
  last  := uint32(0)
  c.tree.Ascend(func(i btree.Item) bool {
    b := i.(coverageBreak)
    if depth > 0 && b.Position > last {
      f(last, b.Position, depth)
    }
    depth += b.Delta
    last    = b.Position
    return true
  })
}

func (c *coverageDepth) Clear() {
  c.tree.Clear(false)
}

/* -------------------------------------------------------------------------- */

// Convert intervals of a single chromosome to summary records where the
// value of a record is its coverage depth.
func coverageRecords(chromId uint32, intervals [][2]uint32) []BbiSummaryRecord {
  c := newCoverageDepth()
  for _, i := range intervals {
    c.AddInterval(i[0], i[1])
  }
  r := []BbiSummaryRecord{}
  c.Ranges(func(start, end uint32, depth int) {
    record := NewBbiSummaryRecord()
    record.ChromId = chromId
    record.Start   = start
    record.End     = end
    record.AddValue(float64(depth), float64(end-start))
    r = append(r, record)
  })
  return r
}
