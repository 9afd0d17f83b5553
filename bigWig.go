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

import "errors"
import "fmt"
import "io"
import "math"
import "os"

/* -------------------------------------------------------------------------- */

const BIGWIG_MAGIC = 0x888FFC26

/* -------------------------------------------------------------------------- */

type BigWigParameters struct {
  BbiParameters
}

func DefaultBigWigParameters() BigWigParameters {
  return BigWigParameters{DefaultBbiParameters()}
}

/* -------------------------------------------------------------------------- */

func IsBigWigFile(filename string) (bool, error) {
  return isBbiFile(filename, BIGWIG_MAGIC)
}

/* -------------------------------------------------------------------------- */

type BigWigInterval struct {
  Start uint32
  End   uint32
  Value float64
}

type BigWigReader struct {
  BbiFile
}

func NewBigWigReader(reader io.ReadSeeker) (*BigWigReader, error) {
  bwr := new(BigWigReader)
  if err := bwr.Open(reader, BIGWIG_MAGIC); err != nil {
    if errors.Is(err, ErrInvalidMagic) {
      return nil, ErrNotBigWig
    }
    return nil, err
  }
  return bwr, nil
}

// Call f on all sections in the given blocks.
func (bwr *BigWigReader) eachSection(blocks []BbiBlock, f func(section *BigWigSection) error) error {
  return bwr.readBlocks(blocks, func(block BbiBlock, c *byteCursor) error {
    section, err := DecodeBigWigSection(c.Bytes(c.Remaining()), bwr.Order)
    if err != nil {
      return fmt.Errorf("block at offset %d: %w", block.Offset, err)
    }
    return f(&section)
  })
}

func (bwr *BigWigReader) queryInterval(chromId uint32, blocks []BbiBlock, start, end uint32, maxItems int) ([]BigWigInterval, error) {
  r    := []BigWigInterval{}
  done := errors.New("done")
  err  := bwr.eachSection(blocks, func(section *BigWigSection) error {
    if section.ChromId != chromId {
      return nil
    }
    full := false
    section.Each(func(s, e uint32, value float32) bool {
      if s < end && e > start {
        r = append(r, BigWigInterval{s, e, float64(value)})
        if maxItems > 0 && len(r) >= maxItems {
          full = true
          return false
        }
      }
      return true
    })
    if full {
      return done
    }
    return nil
  })
  if err != nil && err != done {
    return nil, err
  }
  return r, nil
}

// Return all items overlapping [start, end) on the given chromosome. At
// most maxItems items are returned unless maxItems is zero. An unknown
// chromosome gives an empty result. The region is clipped to the
// chromosome, and an empty region [s, s) returns the item that strictly
// contains s, if any.
func (bwr *BigWigReader) QueryInterval(chrom string, start, end, maxItems int) ([]BigWigInterval, error) {
  index, err := bwr.Index()
  if err != nil {
    return nil, err
  }
  info, from, to, ok, blocks, err := bwr.queryBlocks(index, chrom, start, end)
  if err != nil || !ok {
    return nil, err
  }
  return bwr.queryInterval(info.Id, blocks, from, to, maxItems)
}

// Return all items on the given chromosome.
func (bwr *BigWigReader) Intervals(chrom string) ([]BigWigInterval, error) {
  info, ok, err := bwr.ChromId(chrom)
  if err != nil || !ok {
    return nil, err
  }
  return bwr.QueryInterval(chrom, 0, int(info.Size), 0)
}

func (bwr *BigWigReader) fullSummaryRecords(chromId, start, end uint32) ([]BbiSummaryRecord, error) {
  index, err := bwr.Index()
  if err != nil {
    return nil, err
  }
  blocks, err := index.FindOverlappingBlocks(chromId, start, end)
  if err != nil {
    return nil, err
  }
  intervals, err := bwr.queryInterval(chromId, blocks, start, end, 0)
  if err != nil {
    return nil, err
  }
  r := make([]BbiSummaryRecord, 0, len(intervals))
  for _, i := range intervals {
    record := NewBbiSummaryRecord()
    record.ChromId = chromId
    record.Start   = i.Start
    record.End     = i.End
    record.AddValue(i.Value, float64(i.End - i.Start))
    r = append(r, record)
  }
  return r, nil
}

// Summary statistics for n evenly spaced bins of [start, end). The second
// return value marks bins that contain data.
func (bwr *BigWigReader) SummaryArrayExtended(chrom string, start, end, n int) ([]BbiSummaryStatistics, []bool, error) {
  return bwr.summaryArray(chrom, start, end, n, bwr.fullSummaryRecords)
}

// Fill values with a statistic of len(values) evenly spaced bins of
// [start, end). Bins without data keep their value. Returns true if
// any bin contains data.
func (bwr *BigWigReader) SummaryArray(chrom string, start, end int, t BbiSummaryType, values []float64) (bool, error) {
  stats, valid, err := bwr.SummaryArrayExtended(chrom, start, end, len(values))
  if err != nil {
    return false, err
  }
  return bbiProjectSummaries(stats, valid, start, end, t, values), nil
}

// Return a binned track of [from, to). Bins without data are set to
// init.
func (bwr *BigWigReader) QuerySlice(chrom string, from, to, binSize int, t BbiSummaryType, init float64) ([]float64, error) {
  if binSize <= 0 {
    return nil, fmt.Errorf("invalid bin size `%d'", binSize)
  }
  n := divIntUp(to-from, binSize)
  r := make([]float64, n)
  for i := range r {
    r[i] = init
  }
  if n == 0 {
    return r, nil
  }
  _, err := bwr.SummaryArray(chrom, from, from+n*binSize, t, r)
  return r, err
}

/* -------------------------------------------------------------------------- */

type bigWigChrom struct {
  Name      string
  Size      uint32
  Sections  []BigWigSection
  LastStart uint32
  LastEnd   uint32
  Items     int
}

func (c *bigWigChrom) addItem(itemsPerSlot int, t byte, start, end, step, span uint32, value float32) {
  var s *BigWigSection
  if n := len(c.Sections); n > 0 {
    s = &c.Sections[n-1]
    if s.Items.Type() != t || s.Items.Len() >= itemsPerSlot {
      s = nil
    } else {
      switch t {
      case BbiTypeVariableStep:
        if s.ItemSpan != span {
          s = nil
        }
      case BbiTypeFixedStep:
        if s.ItemStep != step || s.ItemSpan != span || start != s.Start + uint32(s.Items.Len())*step {
          s = nil
        }
      }
    }
  }
  if s == nil {
    section := BigWigSection{Start: start, ItemStep: step, ItemSpan: span}
    switch t {
    case BbiTypeBedGraph:
      section.Items = BedGraphItems{}
    case BbiTypeVariableStep:
      section.Items = VariableStepItems{}
    case BbiTypeFixedStep:
      section.Items = FixedStepItems{}
    }
    c.Sections = append(c.Sections, section)
    s = &c.Sections[len(c.Sections)-1]
  }
  switch items := s.Items.(type) {
  case BedGraphItems:
    s.Items = append(items, BedGraphItem{start, end, value})
  case VariableStepItems:
    s.Items = append(items, VariableStepItem{start, value})
  case FixedStepItems:
    s.Items = append(items, value)
  }
  s.End       = end
  c.LastStart = start
  c.LastEnd   = end
  c.Items++
}

/* -------------------------------------------------------------------------- */

// Writer for bigWig files. Items are collected in memory and the file is
// written when the writer is closed. Items of a chromosome must be sorted
// by position and must not overlap.
type BigWigWriter struct {
  bbiWriter
  Genome     Genome
  chromSizes map[string]uint32
  chroms     map[string]*bigWigChrom
  itemCount  int
}

func NewBigWigWriter(writer io.WriteSeeker, genome Genome, parameters BigWigParameters) (*BigWigWriter, error) {
  w, err := newBbiWriter(writer, BIGWIG_MAGIC, parameters.BbiParameters)
  if err != nil {
    return nil, err
  }
  sizes, err := genome.sizeMap()
  if err != nil {
    return nil, err
  }
  bww := BigWigWriter{}
  bww.bbiWriter  = w
  bww.Genome     = genome
  bww.chromSizes = sizes
  bww.chroms     = make(map[string]*bigWigChrom)
  return &bww, nil
}

// Validate the range of a new item. Items extending past the end of the
// chromosome are truncated if possible or otherwise dropped when
// clipping is enabled. The third return value is false if the item is
// dropped.
func (bww *BigWigWriter) checkItem(chrom string, start, end int, truncate bool) (*bigWigChrom, uint32, bool, error) {
  bww.itemCount++
  c, ok := bww.chroms[chrom]
  if !ok {
    size, ok := bww.chromSizes[chrom]
    if !ok {
      return nil, 0, false, fmt.Errorf("item %d: `%s': %w", bww.itemCount, chrom, ErrChromNotFound)
    }
    c = &bigWigChrom{Name: chrom, Size: size}
    bww.chroms[chrom] = c
  }
  if start < 0 || end < start {
    return nil, 0, false, fmt.Errorf("item %d: invalid range [%d, %d) on `%s'", bww.itemCount, start, end, chrom)
  }
  if int64(end) > int64(c.Size) {
    // chrM is circular, bedGraph items on it may extend past the end
    if !bww.Parameters.Clip && !(truncate && chrom == "chrM") {
      return nil, 0, false, fmt.Errorf("item %d: end position %d is past the end of `%s' (%d)", bww.itemCount, end, chrom, c.Size)
    }
    if !truncate || int64(start) >= int64(c.Size) {
      return c, 0, false, nil
    }
    end = int(c.Size)
  }
  if c.Items > 0 {
    if uint32(start) < c.LastStart {
      return nil, 0, false, fmt.Errorf("item %d: position %d on `%s' after position %d: %w", bww.itemCount, start, chrom, c.LastStart, ErrUnsorted)
    }
    if uint32(start) < c.LastEnd {
      return nil, 0, false, fmt.Errorf("item %d: range [%d, %d) on `%s' overlaps previous item", bww.itemCount, start, end, chrom)
    }
  }
  return c, uint32(end), true, nil
}

func (bww *BigWigWriter) WriteBedGraph(chrom string, start, end int, value float64) error {
  c, e, ok, err := bww.checkItem(chrom, start, end, true)
  if err != nil || !ok {
    return err
  }
  c.addItem(bww.Parameters.ItemsPerSlot, BbiTypeBedGraph, uint32(start), e, 0, 0, float32(value))
  return nil
}

func (bww *BigWigWriter) WriteVariableStep(chrom string, start, span int, value float64) error {
  if span <= 0 {
    return fmt.Errorf("invalid span `%d'", span)
  }
  c, e, ok, err := bww.checkItem(chrom, start, start+span, false)
  if err != nil || !ok {
    return err
  }
  c.addItem(bww.Parameters.ItemsPerSlot, BbiTypeVariableStep, uint32(start), e, 0, uint32(span), float32(value))
  return nil
}

func (bww *BigWigWriter) WriteFixedStep(chrom string, start, step, span int, value float64) error {
  if span <= 0 || step <= 0 {
    return fmt.Errorf("invalid step `%d' or span `%d'", step, span)
  }
  c, e, ok, err := bww.checkItem(chrom, start, start+span, false)
  if err != nil || !ok {
    return err
  }
  c.addItem(bww.Parameters.ItemsPerSlot, BbiTypeFixedStep, uint32(start), e, uint32(step), uint32(span), float32(value))
  return nil
}

// Write a binned track where bin i covers [i*binSize, (i+1)*binSize).
// NaN values are not written. A last bin that extends past the end of
// the chromosome is truncated.
func (bww *BigWigWriter) WriteSequence(chrom string, sequence []float64, binSize int) error {
  if binSize <= 0 {
    return fmt.Errorf("invalid bin size `%d'", binSize)
  }
  size, ok := bww.chromSizes[chrom]
  if !ok {
    return fmt.Errorf("`%s': %w", chrom, ErrChromNotFound)
  }
  for i, value := range sequence {
    if math.IsNaN(value) {
      continue
    }
    start := i*binSize
    if int64(start) >= int64(size) {
      break
    }
    if int64(start+binSize) > int64(size) {
      if err := bww.WriteBedGraph(chrom, start, int(size), value); err != nil {
        return err
      }
    } else {
      if err := bww.WriteFixedStep(chrom, start, binSize, binSize, value); err != nil {
        return err
      }
    }
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// Sections in file order with chromosome ids assigned.
func (bww *BigWigWriter) sections() ([]BbiChromInfo, []BigWigSection) {
  names := []string{}
  for name, c := range bww.chroms {
    if len(c.Sections) > 0 {
      names = append(names, name)
    }
  }
  chroms   := bbiMakeChromInfo(names, bww.chromSizes)
  sections := []BigWigSection{}
  for _, chrom := range chroms {
    for _, s := range bww.chroms[chrom.Name].Sections {
      s.ChromId = chrom.Id
      sections  = append(sections, s)
    }
  }
  return chroms, sections
}

// Average resolution of the data, computed as the mean over sections of
// the smallest item size (bedGraph), the smallest gap between items
// (variableStep) or the step size (fixedStep).
func bwgAverageResolution(sections []BigWigSection) int {
  if len(sections) == 0 {
    return 1
  }
  total := uint64(0)
  for _, section := range sections {
    res := uint32(0)
    switch items := section.Items.(type) {
    case BedGraphItems:
      res = math.MaxUint32
      for _, item := range items {
        if size := item.End - item.Start; size > 0 && size < res {
          res = size
        }
      }
      if res == math.MaxUint32 {
        res = 1
      }
    case VariableStepItems:
      res = math.MaxUint32
      for i := 1; i < len(items); i++ {
        if gap := items[i].Start - items[i-1].Start; gap < res {
          res = gap
        }
      }
      if res == math.MaxUint32 {
        res = section.ItemSpan
      }
    case FixedStepItems:
      res = section.ItemStep
    }
    total += uint64(res)
  }
  n := uint64(len(sections))
  return int((total + n/2)/n)
}

func bwgDataSize(sections []BigWigSection) uint64 {
  n := uint64(0)
  for i := range sections {
    n += uint64(sections[i].ByteSize())
  }
  return n
}

func bwgSummarize(sections []BigWigSection, chromSizes []uint32, reduction uint32) []BbiSummaryRecord {
  b := newBbiSummaryBuilder(reduction, chromSizes)
  for i := range sections {
    chromId := sections[i].ChromId
    sections[i].Each(func(start, end uint32, value float32) bool {
      b.AddRange(chromId, start, end, float64(value))
      return true
    })
  }
  return b.Records
}

func (bww *BigWigWriter) Close() error {
  chroms, sections := bww.sections()
  chromSizes := make([]uint32, len(chroms))
  for i, chrom := range chroms {
    chromSizes[i] = chrom.Size
  }
  levels, err := bwgZoomLevels(
    func(reduction uint32) []BbiSummaryRecord {
      return bwgSummarize(sections, chromSizes, reduction)
    }, chromSizes, bwgAverageResolution(sections), bwgDataSize(sections), bww.Parameters)
  if err != nil {
    return err
  }
  if err := bww.writeHeader("", false); err != nil {
    return err
  }
  if err := bww.writeChromTree(chroms); err != nil {
    return err
  }
  // primary data
  if offset, err := bww.tell(); err != nil {
    return err
  } else {
    bww.Header.DataOffset = offset
  }
  if _, err := bww.Writer.Write(uint64Bytes(bww.Order, uint64(len(sections)))); err != nil {
    return err
  }
  index := bww.newIndex()
  for i := range sections {
    if _, err := bww.writeIndexedBlock(index, sections[i].Encode(bww.Order), sections[i].ChromId, sections[i].Start, sections[i].End); err != nil {
      return err
    }
    sections[i].Each(func(start, end uint32, value float32) bool {
      bww.Header.Summary.AddValue(float64(value), float64(end-start))
      return true
    })
  }
  if err := bww.writeIndex(index); err != nil {
    return err
  }
  if err := bww.writeZoomLevels(levels); err != nil {
    return err
  }
  return bww.finish()
}

/* utility
 * -------------------------------------------------------------------------- */

func BigWigReadGenome(reader io.ReadSeeker) (Genome, error) {
  r, err := NewBigWigReader(reader)
  if err != nil {
    return Genome{}, err
  }
  return r.Genome()
}

func BigWigImportGenome(filename string) (Genome, error) {
  f, err := os.Open(filename)
  if err != nil {
    return Genome{}, err
  }
  defer f.Close()

  if genome, err := BigWigReadGenome(f); err != nil {
    return genome, fmt.Errorf("importing genome from `%s' failed: %w", filename, err)
  } else {
    return genome, nil
  }
}
