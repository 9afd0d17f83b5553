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

import   "math"
import   "testing"

/* -------------------------------------------------------------------------- */

func TestSummaryBuilder1(t *testing.T) {
  // single item spanning the first hundred bases of a chromosome
  b := newBbiSummaryBuilder(1000, []uint32{1000})
  b.AddRange(0, 0, 100, 5.0)

  if len(b.Records) != 1 {
    t.Error("TestSummaryBuilder1 failed!"); return
  }
  r := b.Records[0]
  if r.Start != 0 || r.End != 1000 {
    t.Error("TestSummaryBuilder1 failed!")
  }
  if r.Valid != 100 || r.Sum != 500 || r.Min != 5 || r.Max != 5 || r.SumSquares != 2500 {
    t.Errorf("TestSummaryBuilder1 failed: %v", r)
  }
}

func TestSummaryBuilder2(t *testing.T) {
  // a record crossing a bucket boundary is split in proportion to the
  // overlap
  b := newBbiSummaryBuilder(10, []uint32{1000})
  s := NewBbiSummaryStatistics()
  s.AddValue(2.0, 10)
  b.AddStatistics(0, 6, 16, s)

  if len(b.Records) != 2 {
    t.Error("TestSummaryBuilder2 failed!"); return
  }
  r1 := b.Records[0]
  r2 := b.Records[1]
  if r1.Start != 0 || r1.End != 10 || r2.Start != 10 || r2.End != 20 {
    t.Error("TestSummaryBuilder2 failed!")
  }
  if math.Abs(r1.Valid - 4) > 1e-10 || math.Abs(r1.Sum - 8) > 1e-10 {
    t.Error("TestSummaryBuilder2 failed!")
  }
  if math.Abs(r2.Valid - 6) > 1e-10 || math.Abs(r2.Sum - 12) > 1e-10 {
    t.Error("TestSummaryBuilder2 failed!")
  }
  if r1.Min != 2 || r1.Max != 2 || r2.Min != 2 || r2.Max != 2 {
    t.Error("TestSummaryBuilder2 failed!")
  }
}

func TestSummaryBuilder3(t *testing.T) {
  // buckets are clipped to the chromosome size and do not cross
  // chromosome boundaries
  b := newBbiSummaryBuilder(100, []uint32{150, 80})
  b.AddRange(0, 90, 160, 1.0)
  b.AddRange(1,  0,  10, 2.0)

  if len(b.Records) != 3 {
    t.Error("TestSummaryBuilder3 failed!"); return
  }
  if b.Records[1].Start != 100 || b.Records[1].End != 150 || b.Records[1].Valid != 50 {
    t.Error("TestSummaryBuilder3 failed!")
  }
  if b.Records[2].ChromId != 1 || b.Records[2].Start != 0 || b.Records[2].End != 80 {
    t.Error("TestSummaryBuilder3 failed!")
  }
  // total number of bases is preserved
  valid := 0.0
  for _, r := range b.Records {
    valid += r.Valid
  }
  if valid != 70 {
    t.Error("TestSummaryBuilder3 failed!")
  }
}

/* -------------------------------------------------------------------------- */

func TestZoomLevels1(t *testing.T) {
  chromSizes := []uint32{1000}
  b := newBbiSummaryBuilder(10, chromSizes)
  for i := uint32(0); i < 100; i++ {
    b.AddRange(0, i*10, i*10+10, float64(i))
  }
  levels := bbiFurtherZoomLevels(bbiZoomLevel{10, b.Records}, chromSizes, 4)

  reductions := []uint32{10, 40, 160, 640, 2560}
  counts     := []int   {100, 25, 7, 2, 1}
  if len(levels) != len(reductions) {
    t.Errorf("TestZoomLevels1 failed: got %d levels", len(levels)); return
  }
  for i, level := range levels {
    if level.Reduction != reductions[i] || len(level.Records) != counts[i] {
      t.Errorf("TestZoomLevels1 failed at level %d", i)
    }
    // coarser levels preserve the number of bases and the sum
    valid, sum := 0.0, 0.0
    for _, r := range level.Records {
      valid += r.Valid
      sum   += r.Sum
    }
    if math.Abs(valid - 1000) > 1e-8 || math.Abs(sum - 49500) > 1e-6 {
      t.Errorf("TestZoomLevels1 failed at level %d", i)
    }
  }
  if levels[4].Records[0].Min != 0 || levels[4].Records[0].Max != 99 {
    t.Error("TestZoomLevels1 failed!")
  }
}

func TestZoomLevels2(t *testing.T) {
  calls := []uint32{}
  summarize := func(reduction uint32) []BbiSummaryRecord {
    calls = append(calls, reduction)
    return []BbiSummaryRecord{NewBbiSummaryRecord()}
  }
  levels, err := bbiFixedZoomLevels([]int{100, 10, 100}, summarize)
  if err != nil {
    t.Error(err); return
  }
  if len(levels) != 2 || levels[0].Reduction != 10 || levels[1].Reduction != 100 {
    t.Error("TestZoomLevels2 failed!")
  }
  if len(calls) != 2 {
    t.Error("TestZoomLevels2 failed!")
  }
  if _, err := bbiFixedZoomLevels([]int{0}, summarize); err == nil {
    t.Error("TestZoomLevels2 failed!")
  }
  if _, err := bbiFixedZoomLevels(make([]int, 11), summarize); err == nil {
    t.Error("TestZoomLevels2 failed!")
  }
}

/* -------------------------------------------------------------------------- */

func testSummaryRecord(start, end uint32, value float64) BbiSummaryRecord {
  r := NewBbiSummaryRecord()
  r.Start = start
  r.End   = end
  r.AddValue(value, float64(end-start))
  return r
}

func TestSliceSummaries1(t *testing.T) {
  records := []BbiSummaryRecord{
    testSummaryRecord( 0, 10, 1.0),
    testSummaryRecord(10, 20, 3.0) }

  s, valid := bbiSliceSummaries(records, 0, 20, 4)
  means := []float64{1, 1, 3, 3}
  for i := range s {
    if !valid[i] || s[i].Valid != 5 || s[i].Mean() != means[i] {
      t.Errorf("TestSliceSummaries1 failed at bin %d", i)
    }
  }
  s, _ = bbiSliceSummaries(records, 0, 20, 1)
  if s[0].Mean() != 2 || s[0].Min != 1 || s[0].Max != 3 {
    t.Error("TestSliceSummaries1 failed!")
  }
  // bins without data
  s, valid = bbiSliceSummaries(records, 15, 35, 2)
  if !valid[0] || valid[1] || s[0].Valid != 5 {
    t.Error("TestSliceSummaries1 failed!")
  }
  // more bins than bases
  s, valid = bbiSliceSummaries(records, 0, 2, 4)
  for i := range s {
    if !valid[i] || s[i].Valid != 1 {
      t.Errorf("TestSliceSummaries1 failed at bin %d", i)
    }
  }
}

func TestSummaryStatistics1(t *testing.T) {
  s := NewBbiSummaryStatistics()
  s.AddValue(1.0, 2)
  s.AddValue(4.0, 1)
  if s.Mean() != 2 || s.Min != 1 || s.Max != 4 {
    t.Error("TestSummaryStatistics1 failed!")
  }
  // sum of squares 18, squared sum divided by n 12
  if math.Abs(s.Variance() - 3) > 1e-10 || math.Abs(s.StdDev() - math.Sqrt(3)) > 1e-10 {
    t.Error("TestSummaryStatistics1 failed!")
  }
  if s.Coverage(6) != 0.5 {
    t.Error("TestSummaryStatistics1 failed!")
  }
  if v := BbiSummaryCoverage.Project(s, 3); v != 1 {
    t.Error("TestSummaryStatistics1 failed!")
  }
  for _, str := range []string{"mean", "max", "min", "coverage", "std"} {
    if st, err := ParseBbiSummaryType(str); err != nil || st.String() != str {
      t.Error("TestSummaryStatistics1 failed!")
    }
  }
  if _, err := ParseBbiSummaryType("median"); err == nil {
    t.Error("TestSummaryStatistics1 failed!")
  }
}

/* -------------------------------------------------------------------------- */

func TestCoverageDepth1(t *testing.T) {
  records := coverageRecords(2, [][2]uint32{{0, 10}, {5, 15}, {20, 30}, {20, 30}})

  expected := []struct { start, end uint32; depth float64 } {
    { 0, 5, 1}, {5, 10, 2}, {10, 15, 1}, {20, 30, 2} }
  if len(records) != len(expected) {
    t.Errorf("TestCoverageDepth1 failed: got %d records", len(records)); return
  }
  for i, r := range records {
    if r.ChromId != 2 || r.Start != expected[i].start || r.End != expected[i].end || r.Max != expected[i].depth {
      t.Errorf("TestCoverageDepth1 failed at record %d", i)
    }
    if r.Valid != float64(r.End - r.Start) {
      t.Errorf("TestCoverageDepth1 failed at record %d", i)
    }
  }
}

func TestCoverageDepth2(t *testing.T) {
  c := newCoverageDepth()
  // adjacent intervals cancel at the shared break point
  c.AddInterval( 0, 10)
  c.AddInterval(10, 20)
  c.AddInterval(15, 15)
  n := 0
  c.Ranges(func(start, end uint32, depth int) {
    if start != 0 || end != 20 || depth != 1 {
      t.Error("TestCoverageDepth2 failed!")
    }
    n++
  })
  if n != 1 {
    t.Error("TestCoverageDepth2 failed!")
  }
  c.Clear()
  c.Ranges(func(start, end uint32, depth int) {
    t.Error("TestCoverageDepth2 failed!")
  })
}
