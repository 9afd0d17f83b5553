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
import "math"
import "strings"

/* -------------------------------------------------------------------------- */

const bbiSummaryRecordSize = 32

/* -------------------------------------------------------------------------- */

// Summary statistics over a set of bases. Valid counts bases with data
// and may be fractional when a summary is split across bins.
type BbiSummaryStatistics struct {
  Valid      float64
  Min        float64
  Max        float64
  Sum        float64
  SumSquares float64
}

func NewBbiSummaryStatistics() BbiSummaryStatistics {
  r := BbiSummaryStatistics{}
  r.Reset()
  return r
}

func (obj *BbiSummaryStatistics) Reset() {
  obj.Valid      = 0.0
  obj.Min        = math.Inf( 1)
  obj.Max        = math.Inf(-1)
  obj.Sum        = 0.0
  obj.SumSquares = 0.0
}

// Add n bases with value x.
func (obj *BbiSummaryStatistics) AddValue(x, n float64) {
  obj.Valid      += n
  obj.Min         = math.Min(obj.Min, x)
  obj.Max         = math.Max(obj.Max, x)
  obj.Sum        += n*x
  obj.SumSquares += n*x*x
}

func (obj *BbiSummaryStatistics) AddRecord(x BbiSummaryStatistics) {
  obj.Valid      += x.Valid
  obj.Min         = math.Min(obj.Min, x.Min)
  obj.Max         = math.Max(obj.Max, x.Max)
  obj.Sum        += x.Sum
  obj.SumSquares += x.SumSquares
}

// Add a fraction of the statistics in x. Min and max are not scaled.
func (obj *BbiSummaryStatistics) addFraction(x BbiSummaryStatistics, overlap, size float64) {
  obj.Valid      += x.Valid*overlap/size
  obj.Min         = math.Min(obj.Min, x.Min)
  obj.Max         = math.Max(obj.Max, x.Max)
  obj.Sum        += x.Sum*overlap/size
  obj.SumSquares += x.SumSquares*overlap/size
}

func (obj BbiSummaryStatistics) Mean() float64 {
  return obj.Sum/obj.Valid
}

func (obj BbiSummaryStatistics) Variance() float64 {
  if obj.Valid <= 0.0 {
    return math.NaN()
  }
  v := obj.SumSquares - obj.Sum*obj.Sum/obj.Valid
  if obj.Valid > 1.0 {
    v /= obj.Valid - 1.0
  }
  if v < 0.0 {
    v = 0.0
  }
  return v
}

func (obj BbiSummaryStatistics) StdDev() float64 {
  return math.Sqrt(obj.Variance())
}

// Fraction of bases with data in a region of the given size.
func (obj BbiSummaryStatistics) Coverage(size float64) float64 {
  return obj.Valid/size
}

/* -------------------------------------------------------------------------- */

type BbiSummaryRecord struct {
  ChromId uint32
  Start   uint32
  End     uint32
  BbiSummaryStatistics
}

func NewBbiSummaryRecord() BbiSummaryRecord {
  return BbiSummaryRecord{BbiSummaryStatistics: NewBbiSummaryStatistics()}
}

func (record *BbiSummaryRecord) read(c *byteCursor) {
  record.ChromId    = c.Uint32()
  record.Start      = c.Uint32()
  record.End        = c.Uint32()
  record.Valid      = float64(c.Uint32())
  record.Min        = float64(c.Float32())
  record.Max        = float64(c.Float32())
  record.Sum        = float64(c.Float32())
  record.SumSquares = float64(c.Float32())
}

func (record *BbiSummaryRecord) write(a *byteAppender) {
  a.Uint32 (record.ChromId)
  a.Uint32 (record.Start)
  a.Uint32 (record.End)
  a.Uint32 (uint32(math.Round(record.Valid)))
  a.Float32(float32(record.Min))
  a.Float32(float32(record.Max))
  a.Float32(float32(record.Sum))
  a.Float32(float32(record.SumSquares))
}

func (record BbiSummaryRecord) String() string {
  return fmt.Sprintf("(%d,%d,%d) valid=%f min=%f max=%f sum=%f sumSquares=%f",
    record.ChromId, record.Start, record.End,
    record.Valid, record.Min, record.Max, record.Sum, record.SumSquares)
}

// Decode zoom records from an uncompressed data block.
func decodeBbiSummaryRecords(c *byteCursor) ([]BbiSummaryRecord, error) {
  if c.Remaining() % bbiSummaryRecordSize != 0 {
    return nil, fmt.Errorf("zoom block size `%d' is not a multiple of %d", c.Remaining(), bbiSummaryRecordSize)
  }
  r := make([]BbiSummaryRecord, c.Remaining()/bbiSummaryRecordSize)
  for i := range r {
    r[i].read(c)
  }
  return r, c.Err()
}

/* -------------------------------------------------------------------------- */

type BbiSummaryType int

const (
  BbiSummaryMean BbiSummaryType = iota
  BbiSummaryMax
  BbiSummaryMin
  BbiSummaryCoverage
  BbiSummaryStdDev
)

func ParseBbiSummaryType(str string) (BbiSummaryType, error) {
  switch strings.ToLower(str) {
  case "mean":
    return BbiSummaryMean, nil
  case "max":
    return BbiSummaryMax, nil
  case "min":
    return BbiSummaryMin, nil
  case "coverage":
    return BbiSummaryCoverage, nil
  case "std", "stddev":
    return BbiSummaryStdDev, nil
  }
  return BbiSummaryMean, fmt.Errorf("invalid summary type `%s'", str)
}

func (t BbiSummaryType) String() string {
  switch t {
  case BbiSummaryMean:
    return "mean"
  case BbiSummaryMax:
    return "max"
  case BbiSummaryMin:
    return "min"
  case BbiSummaryCoverage:
    return "coverage"
  case BbiSummaryStdDev:
    return "std"
  }
  return fmt.Sprintf("BbiSummaryType(%d)", int(t))
}

// Reduce statistics to a single value. The size of the summarized
// region is required for computing the coverage.
func (t BbiSummaryType) Project(s BbiSummaryStatistics, size float64) float64 {
  switch t {
  case BbiSummaryMax:
    return s.Max
  case BbiSummaryMin:
    return s.Min
  case BbiSummaryCoverage:
    return s.Coverage(size)
  case BbiSummaryStdDev:
    return s.StdDev()
  default:
    return s.Mean()
  }
}
