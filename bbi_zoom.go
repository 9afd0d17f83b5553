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

import "fmt"
import "sort"

/* -------------------------------------------------------------------------- */

const BBI_MAX_ZOOM_LEVELS = 10

const bbiMaxReduction = 1000000000

/* -------------------------------------------------------------------------- */

// Folds ranges into buckets of a fixed reduction. Buckets start at
// multiples of the reduction and never extend past the end of their
// chromosome. Input must be sorted by chromosome and start position.
type bbiSummaryBuilder struct {
  Reduction  uint32
  ChromSizes []uint32
  Records    []BbiSummaryRecord
}

func newBbiSummaryBuilder(reduction uint32, chromSizes []uint32) *bbiSummaryBuilder {
  return &bbiSummaryBuilder{Reduction: reduction, ChromSizes: chromSizes}
}

// Add a range with constant value.
func (b *bbiSummaryBuilder) AddRange(chromId, start, end uint32, value float64) {
  if end > b.ChromSizes[chromId] {
    end = b.ChromSizes[chromId]
  }
  if start >= end {
    return
  }
  s := NewBbiSummaryStatistics()
  s.AddValue(value, float64(end-start))
  b.AddStatistics(chromId, start, end, s)
}

// Add statistics that cover the range [start, end). Parts of the
// statistics are assigned to buckets in proportion to the overlap.
func (b *bbiSummaryBuilder) AddStatistics(chromId, start, end uint32, s BbiSummaryStatistics) {
  chromSize := b.ChromSizes[chromId]
  if end > chromSize {
    end = chromSize
  }
  if start >= end {
    return
  }
  size := float64(end - start)
  for start < end {
    n := len(b.Records)
    if n == 0 || b.Records[n-1].ChromId != chromId || b.Records[n-1].End <= start {
      bucketStart := start - start % b.Reduction
      bucketEnd   := uint64(bucketStart) + uint64(b.Reduction)
      if bucketEnd > uint64(chromSize) {
        bucketEnd = uint64(chromSize)
      }
      r := NewBbiSummaryRecord()
      r.ChromId = chromId
      r.Start   = bucketStart
      r.End     = uint32(bucketEnd)
      b.Records = append(b.Records, r)
      n++
    }
    r := &b.Records[n-1]
    from := start
    if from < r.Start {
      from = r.Start
    }
    to := end
    if to > r.End {
      to = r.End
    }
    if to <= from {
      // unsorted input
      return
    }
    r.addFraction(s, float64(to-from), size)
    start = to
  }
}

func (b *bbiSummaryBuilder) AddRecord(record BbiSummaryRecord) {
  b.AddStatistics(record.ChromId, record.Start, record.End, record.BbiSummaryStatistics)
}

/* -------------------------------------------------------------------------- */

// Reduce a sorted list of summaries to a coarser resolution.
func reduceSummaries(records []BbiSummaryRecord, reduction uint32, chromSizes []uint32) []BbiSummaryRecord {
  b := newBbiSummaryBuilder(reduction, chromSizes)
  for _, r := range records {
    b.AddRecord(r)
  }
  return b.Records
}

/* -------------------------------------------------------------------------- */

type bbiZoomLevel struct {
  Reduction uint32
  Records   []BbiSummaryRecord
}

func bbiSummarySize(records []BbiSummaryRecord) uint64 {
  return uint64(len(records))*bbiSummaryRecordSize
}

// Compute further zoom levels by repeatedly scaling the reduction of the
// first level. A level is skipped if it does not shrink the number of
// summaries. No further levels are computed once the number of
// summaries drops to the number of chromosomes.
func bbiFurtherZoomLevels(first bbiZoomLevel, chromSizes []uint32, increment int) []bbiZoomLevel {
  levels    := []bbiZoomLevel{first}
  reduction := uint64(first.Reduction)
  if increment < 2 {
    increment = 2
  }
  if len(first.Records) <= len(chromSizes) {
    return levels
  }
  for i := 0; i < BBI_MAX_ZOOM_LEVELS-1; i++ {
    reduction *= uint64(increment)
    if reduction > bbiMaxReduction {
      break
    }
    last    := levels[len(levels)-1]
    records := reduceSummaries(last.Records, uint32(reduction), chromSizes)
    if len(records) != len(last.Records) {
      levels = append(levels, bbiZoomLevel{uint32(reduction), records})
    }
    if len(records) <= len(chromSizes) {
      break
    }
  }
  return levels
}

// Zoom levels at reductions given by the user. Each level is computed
// from raw data.
func bbiFixedZoomLevels(reductions []int, summarize func(reduction uint32) []BbiSummaryRecord) ([]bbiZoomLevel, error) {
  if len(reductions) > BBI_MAX_ZOOM_LEVELS {
    return nil, fmt.Errorf("too many zoom levels: %d (maximum is %d)", len(reductions), BBI_MAX_ZOOM_LEVELS)
  }
  r := append([]int{}, reductions...)
  sort.Ints(r)
  levels := []bbiZoomLevel{}
  for i, reduction := range r {
    if reduction <= 0 || reduction > bbiMaxReduction {
      return nil, fmt.Errorf("invalid reduction level `%d'", reduction)
    }
    if i > 0 && reduction == r[i-1] {
      continue
    }
    levels = append(levels, bbiZoomLevel{uint32(reduction), summarize(uint32(reduction))})
  }
  return levels, nil
}

// Choose zoom levels for a bigWig file. The first reduction is ten times
// the resolution of the data and is increased until the summaries are
// less than half the size of the primary data, or until increasing it
// no longer changes the size.
func bwgZoomLevels(summarize func(reduction uint32) []BbiSummaryRecord, chromSizes []uint32, resolution int, dataSize uint64, parameters BbiParameters) ([]bbiZoomLevel, error) {
  if dataSize == 0 {
    return nil, nil
  }
  if len(parameters.ReductionLevels) > 0 {
    return bbiFixedZoomLevels(parameters.ReductionLevels, summarize)
  }
  reduction      := uint64(iMax(resolution*10, 1))
  maxReducedSize := dataSize/2
  lastSize       := uint64(0)
  records        := []BbiSummaryRecord{}
  for {
    records = summarize(uint32(reduction))
    size   := bbiSummarySize(records)
    if parameters.Compress {
      // summaries do not compress as well as primary data
      size *= 2
    }
    if size >= maxReducedSize && size != lastSize && reduction < bbiMaxReduction {
      next := uint64(1.1*float64(reduction)*float64(size)/float64(maxReducedSize))
      if next < 2*reduction {
        next = 2*reduction
      }
      if next > bbiMaxReduction {
        next = bbiMaxReduction
      }
      reduction = next
      lastSize  = size
    } else {
      break
    }
  }
  return bbiFurtherZoomLevels(bbiZoomLevel{uint32(reduction), records}, chromSizes, parameters.ZoomIncrement), nil
}

// Choose zoom levels for a bigBed file. The first reduction is ten times
// the average item size (at most 10000) and doubled while summaries are
// larger than the primary data.
func bbdZoomLevels(summarize func(reduction uint32) []BbiSummaryRecord, chromSizes []uint32, averageSize int, dataSize uint64, parameters BbiParameters) ([]bbiZoomLevel, error) {
  if dataSize == 0 {
    return nil, nil
  }
  if len(parameters.ReductionLevels) > 0 {
    return bbiFixedZoomLevels(parameters.ReductionLevels, summarize)
  }
  reduction := uint64(iMin(iMax(averageSize*10, 1), 10000))
  lastSize  := uint64(0)
  records   := []BbiSummaryRecord{}
  for {
    records = summarize(uint32(reduction))
    size   := bbiSummarySize(records)
    if size >= dataSize && size != lastSize && 2*reduction <= bbiMaxReduction {
      reduction *= 2
      lastSize   = size
    } else {
      break
    }
  }
  return bbiFurtherZoomLevels(bbiZoomLevel{uint32(reduction), records}, chromSizes, parameters.ZoomIncrement), nil
}

/* -------------------------------------------------------------------------- */

// Split the region [start, end) into n evenly spaced bins and summarize
// the given records within each bin. Records must be sorted and belong to
// a single chromosome. Records contribute to a bin in proportion to their
// overlap. The second return value marks bins that received data.
func bbiSliceSummaries(records []BbiSummaryRecord, start, end uint32, n int) ([]BbiSummaryStatistics, []bool) {
  result := make([]BbiSummaryStatistics, n)
  valid  := make([]bool, n)
  count  := uint64(end - start)
  binStart := start
  j := 0
  for i := 0; i < n; i++ {
    result[i].Reset()
    binEnd := start + uint32(count*uint64(i+1)/uint64(n))
    // every bin covers at least one base
    to := binEnd
    if to == binStart {
      to = binStart+1
    }
    for j < len(records) && records[j].End <= binStart {
      j++
    }
    for k := j; k < len(records) && records[k].Start < to; k++ {
      overlap := rangeIntersection(int(binStart), int(to), int(records[k].Start), int(records[k].End))
      if overlap > 0 {
        result[i].addFraction(records[k].BbiSummaryStatistics, float64(overlap), float64(records[k].End - records[k].Start))
      }
    }
    if result[i].Valid > 0 {
      valid[i] = true
    }
    binStart = binEnd
  }
  return result, valid
}
