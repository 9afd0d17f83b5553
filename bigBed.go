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

import "bytes"
import "errors"
import "fmt"
import "io"
import "os"
import "sort"
import "strings"

/* -------------------------------------------------------------------------- */

const BIGBED_MAGIC = 0x8789F2EB

// value of an extra index entry: block offset and block size
const bbdExtraIndexValueSize = 16

/* -------------------------------------------------------------------------- */

type BigBedParameters struct {
  BbiParameters
  // autoSql description of the fields, a default table is used if empty
  AutoSql           string
  // total number of fields, determined from the data if zero
  FieldCount        int
  // number of standard bed fields, at most 12 if zero
  DefinedFieldCount int
  // names of fields for which an additional index is created
  ExtraIndex      []string
}

func DefaultBigBedParameters() BigBedParameters {
  return BigBedParameters{BbiParameters: DefaultBbiParameters()}
}

/* -------------------------------------------------------------------------- */

func IsBigBedFile(filename string) (bool, error) {
  return isBbiFile(filename, BIGBED_MAGIC)
}

/* -------------------------------------------------------------------------- */

type BigBedInterval struct {
  Chrom string
  Start uint32
  End   uint32
  Rest  string
}

type BigBedReader struct {
  BbiFile
}

func NewBigBedReader(reader io.ReadSeeker) (*BigBedReader, error) {
  bbr := new(BigBedReader)
  if err := bbr.Open(reader, BIGBED_MAGIC); err != nil {
    if errors.Is(err, ErrInvalidMagic) {
      return nil, ErrNotBigBed
    }
    return nil, err
  }
  return bbr, nil
}

func (bbr *BigBedReader) eachItem(blocks []BbiBlock, f func(item *BigBedItem) error) error {
  return bbr.readBlocks(blocks, func(block BbiBlock, c *byteCursor) error {
    items, err := decodeBigBedItems(c)
    if err != nil {
      return fmt.Errorf("block at offset %d: %w", block.Offset, err)
    }
    for i := range items {
      if err := f(&items[i]); err != nil {
        return err
      }
    }
    return nil
  })
}

func (bbr *BigBedReader) queryItems(chromId uint32, blocks []BbiBlock, start, end uint32, maxItems int) ([]BigBedItem, error) {
  r    := []BigBedItem{}
  done := errors.New("done")
  err  := bbr.eachItem(blocks, func(item *BigBedItem) error {
    if item.ChromId == chromId && item.Start < end && item.End > start {
      r = append(r, *item)
      if maxItems > 0 && len(r) >= maxItems {
        return done
      }
    }
    return nil
  })
  if err != nil && err != done {
    return nil, err
  }
  return r, nil
}

// Return all items overlapping [start, end) on the given chromosome. At
// most maxItems items are returned unless maxItems is zero. The region
// is clipped to the chromosome, and an empty region [s, s) returns the
// items that strictly contain s.
func (bbr *BigBedReader) QueryInterval(chrom string, start, end, maxItems int) ([]BigBedInterval, error) {
  index, err := bbr.Index()
  if err != nil {
    return nil, err
  }
  info, from, to, ok, blocks, err := bbr.queryBlocks(index, chrom, start, end)
  if err != nil || !ok {
    return nil, err
  }
  items, err := bbr.queryItems(info.Id, blocks, from, to, maxItems)
  if err != nil {
    return nil, err
  }
  r := make([]BigBedInterval, len(items))
  for i, item := range items {
    r[i] = BigBedInterval{info.Name, item.Start, item.End, item.Rest}
  }
  return r, nil
}

func (bbr *BigBedReader) Intervals(chrom string) ([]BigBedInterval, error) {
  info, ok, err := bbr.ChromId(chrom)
  if err != nil || !ok {
    return nil, err
  }
  return bbr.QueryInterval(chrom, 0, int(info.Size), 0)
}

/* -------------------------------------------------------------------------- */

func (bbr *BigBedReader) fullSummaryRecords(chromId, start, end uint32) ([]BbiSummaryRecord, error) {
  index, err := bbr.Index()
  if err != nil {
    return nil, err
  }
  blocks, err := index.FindOverlappingBlocks(chromId, start, end)
  if err != nil {
    return nil, err
  }
  items, err := bbr.queryItems(chromId, blocks, start, end, 0)
  if err != nil {
    return nil, err
  }
  intervals := make([][2]uint32, len(items))
  for i, item := range items {
    intervals[i] = [2]uint32{item.Start, item.End}
  }
  return coverageRecords(chromId, intervals), nil
}

// Summary statistics of the coverage depth for n evenly spaced bins of
// [start, end).
func (bbr *BigBedReader) SummaryArrayExtended(chrom string, start, end, n int) ([]BbiSummaryStatistics, []bool, error) {
  return bbr.summaryArray(chrom, start, end, n, bbr.fullSummaryRecords)
}

func (bbr *BigBedReader) SummaryArray(chrom string, start, end int, t BbiSummaryType, values []float64) (bool, error) {
  stats, valid, err := bbr.SummaryArrayExtended(chrom, start, end, len(values))
  if err != nil {
    return false, err
  }
  return bbiProjectSummaries(stats, valid, start, end, t, values), nil
}

/* -------------------------------------------------------------------------- */

// Return the autoSql table stored in the file. A default table is
// returned for files without autoSql.
func (bbr *BigBedReader) AutoSql() (string, error) {
  if bbr.Header.SqlOffset == 0 {
    return BedAutoSql(iMin(int(bbr.Header.DefinedFieldCount), len(bedAutoSqlFields)), int(bbr.Header.FieldCount))
  }
  if _, err := bbr.Reader.Seek(int64(bbr.Header.SqlOffset), io.SeekStart); err != nil {
    return "", err
  }
  var buffer bytes.Buffer
  chunk := make([]byte, 1024)
  for {
    n, err := io.ReadFull(bbr.Reader, chunk)
    if i := bytes.IndexByte(chunk[0:n], 0); i != -1 {
      buffer.Write(chunk[0:i])
      return buffer.String(), nil
    }
    buffer.Write(chunk[0:n])
    if err != nil {
      return "", fmt.Errorf("reading autoSql failed: unterminated string")
    }
  }
}

func (bbr *BigBedReader) FieldNames() ([]string, error) {
  if as, err := bbr.AutoSql(); err != nil {
    return nil, err
  } else {
    return AutoSqlFieldNames(as)
  }
}

// Find all items where the given field equals value. The field must have
// been indexed when the file was created.
func (bbr *BigBedReader) FindByName(field, value string) ([]BigBedInterval, error) {
  names, err := bbr.FieldNames()
  if err != nil {
    return nil, err
  }
  fieldId := -1
  for i, name := range names {
    if name == field {
      fieldId = i
      break
    }
  }
  if fieldId == -1 {
    return nil, fmt.Errorf("field `%s' not found", field)
  }
  var tree *BTreeFile
  for _, index := range bbr.Header.ExtraIndices {
    if len(index.FieldIds) > 0 && int(index.FieldIds[0]) == fieldId {
      if tree, err = OpenBTreeFile(bbr.Reader, int64(index.FileOffset)); err != nil {
        return nil, fmt.Errorf("reading index of field `%s' failed: %w", field, err)
      }
      break
    }
  }
  if tree == nil {
    return nil, fmt.Errorf("field `%s' is not indexed", field)
  }
  values, err := tree.FindMultiple([]byte(value), bbdExtraIndexValueSize)
  if err != nil {
    return nil, err
  }
  // blocks may be listed multiple times
  m := make(map[BbiBlock]struct{})
  for _, v := range values {
    m[BbiBlock{bbr.Order.Uint64(v[0:8]), bbr.Order.Uint64(v[8:16])}] = struct{}{}
  }
  blocks := make([]BbiBlock, 0, len(m))
  for block := range m {
    blocks = append(blocks, block)
  }
  sort.Slice(blocks, func(i, j int) bool { return blocks[i].Offset < blocks[j].Offset })

  r := []BigBedInterval{}
  if err := bbr.eachItem(blocks, func(item *BigBedItem) error {
    chrom, ok, err := bbr.ChromName(item.ChromId)
    if err != nil {
      return err
    }
    if !ok {
      return fmt.Errorf("invalid chromosome id `%d'", item.ChromId)
    }
    if v, ok := item.Field(chrom, fieldId); ok && v == value {
      r = append(r, BigBedInterval{chrom, item.Start, item.End, item.Rest})
    }
    return nil
  }); err != nil {
    return nil, err
  }
  return r, nil
}

/* -------------------------------------------------------------------------- */

type bigBedChrom struct {
  Name      string
  Size      uint32
  Items     []BigBedItem
}

// Writer for bigBed files. Items are collected in memory and the file is
// written when the writer is closed. Items of a chromosome must be sorted
// by start position.
type BigBedWriter struct {
  bbiWriter
  Genome           Genome
  BigBedParameters BigBedParameters
  chromSizes       map[string]uint32
  chroms           map[string]*bigBedChrom
  itemCount        int
  fieldCount       int
}

func NewBigBedWriter(writer io.WriteSeeker, genome Genome, parameters BigBedParameters) (*BigBedWriter, error) {
  w, err := newBbiWriter(writer, BIGBED_MAGIC, parameters.BbiParameters)
  if err != nil {
    return nil, err
  }
  sizes, err := genome.sizeMap()
  if err != nil {
    return nil, err
  }
  if parameters.FieldCount != 0 && parameters.FieldCount < 3 {
    return nil, fmt.Errorf("invalid field count `%d'", parameters.FieldCount)
  }
  bbw := BigBedWriter{}
  bbw.bbiWriter        = w
  bbw.Genome           = genome
  bbw.BigBedParameters = parameters
  bbw.chromSizes       = sizes
  bbw.chroms           = make(map[string]*bigBedChrom)
  bbw.fieldCount       = parameters.FieldCount
  return &bbw, nil
}

func bedFieldCount(rest string) int {
  if rest == "" {
    return 3
  }
  return 4 + strings.Count(rest, "\t")
}

// Add an item. The string rest contains all tab separated fields after
// chrom, start and end.
func (bbw *BigBedWriter) Write(chrom string, start, end int, rest string) error {
  bbw.itemCount++
  c, ok := bbw.chroms[chrom]
  if !ok {
    size, ok := bbw.chromSizes[chrom]
    if !ok {
      return fmt.Errorf("item %d: `%s': %w", bbw.itemCount, chrom, ErrChromNotFound)
    }
    c = &bigBedChrom{Name: chrom, Size: size}
    bbw.chroms[chrom] = c
  }
  if strings.IndexByte(rest, 0) != -1 {
    return fmt.Errorf("item %d: invalid zero byte in fields", bbw.itemCount)
  }
  if n := bedFieldCount(rest); bbw.fieldCount == 0 {
    bbw.fieldCount = n
  } else if n != bbw.fieldCount {
    return fmt.Errorf("item %d: expected %d fields but found %d", bbw.itemCount, bbw.fieldCount, n)
  }
  clip := bbw.Parameters.Clip || chrom == "chrM"
  if start < 0 {
    if !clip {
      return fmt.Errorf("item %d: negative start position %d on `%s'", bbw.itemCount, start, chrom)
    }
    start = 0
  }
  if int64(end) > int64(c.Size) {
    if !clip {
      return fmt.Errorf("item %d: end position %d is past the end of `%s' (%d)", bbw.itemCount, end, chrom, c.Size)
    }
    end = int(c.Size)
  }
  if start > end {
    if !clip {
      return fmt.Errorf("item %d: start position %d after end position %d on `%s'", bbw.itemCount, start, end, chrom)
    }
    return nil
  }
  if n := len(c.Items); n > 0 && uint32(start) < c.Items[n-1].Start {
    return fmt.Errorf("item %d: position %d on `%s' after position %d: %w", bbw.itemCount, start, chrom, c.Items[n-1].Start, ErrUnsorted)
  }
  c.Items = append(c.Items, BigBedItem{Start: uint32(start), End: uint32(end), Rest: rest})
  return nil
}

/* -------------------------------------------------------------------------- */

func (bbw *BigBedWriter) autoSql() (string, []string, error) {
  fieldCount := iMax(bbw.fieldCount, 3)
  autoSql    := bbw.BigBedParameters.AutoSql
  if autoSql == "" {
    defined := bbw.BigBedParameters.DefinedFieldCount
    if defined == 0 {
      defined = iMin(fieldCount, 12)
    }
    if as, err := BedAutoSql(defined, fieldCount); err != nil {
      return "", nil, err
    } else {
      autoSql = as
    }
  }
  names, err := AutoSqlFieldNames(autoSql)
  if err != nil {
    return "", nil, err
  }
  if len(names) != fieldCount {
    return "", nil, fmt.Errorf("autoSql table has %d fields but data has %d", len(names), fieldCount)
  }
  return autoSql, names, nil
}

type bbdExtraIndexWriter struct {
  FieldId int
  Tree    *BTree
  keys    []string
  blocks  []BbiBlock
}

func (bbw *BigBedWriter) extraIndices(names []string) ([]*bbdExtraIndexWriter, error) {
  r := []*bbdExtraIndexWriter{}
  for _, field := range bbw.BigBedParameters.ExtraIndex {
    fieldId := -1
    for i, name := range names {
      if name == field {
        fieldId = i
      }
    }
    if fieldId == -1 {
      return nil, fmt.Errorf("extra index field `%s' not found in autoSql table", field)
    }
    r = append(r, &bbdExtraIndexWriter{FieldId: fieldId})
  }
  return r, nil
}

func (index *bbdExtraIndexWriter) add(chrom string, item *BigBedItem, block BbiBlock) {
  if v, ok := item.Field(chrom, index.FieldId); ok && v != "" {
    index.keys   = append(index.keys,   v)
    index.blocks = append(index.blocks, block)
  }
}

func (bbw *BigBedWriter) writeExtraIndex(index *bbdExtraIndexWriter) error {
  keySize := 1
  for _, key := range index.keys {
    keySize = iMax(keySize, len(key))
  }
  tree := NewBTree(keySize, bbdExtraIndexValueSize, bbw.Parameters.BlockSize)
  for i, key := range index.keys {
    value := make([]byte, bbdExtraIndexValueSize)
    bbw.Order.PutUint64(value[0: 8], index.blocks[i].Offset)
    bbw.Order.PutUint64(value[8:16], index.blocks[i].Size)
    if err := tree.Add([]byte(key), value); err != nil {
      return err
    }
  }
  tree.Sort()
  offset, err := bbw.tell()
  if err != nil {
    return err
  }
  if err := tree.Write(bbw.Writer, bbw.Order); err != nil {
    return err
  }
  bbw.Header.ExtraIndices = append(bbw.Header.ExtraIndices, BbiExtraIndex{
    Type      : 0,
    FieldIds  : []uint16{uint16(index.FieldId)},
    FileOffset: offset })
  return nil
}

func (bbw *BigBedWriter) Close() error {
  names := []string{}
  for name, c := range bbw.chroms {
    if len(c.Items) > 0 {
      names = append(names, name)
    }
  }
  chroms     := bbiMakeChromInfo(names, bbw.chromSizes)
  chromSizes := make([]uint32, len(chroms))
  // coverage depth of all items, average item size and size of primary data
  coverage   := []BbiSummaryRecord{}
  itemCount  := 0
  totalSize  := uint64(0)
  dataSize   := uint64(0)
  for i, chrom := range chroms {
    chromSizes[i] = chrom.Size
    items     := bbw.chroms[chrom.Name].Items
    intervals := make([][2]uint32, len(items))
    for j := range items {
      items[j].ChromId = chrom.Id
      intervals[j] = [2]uint32{items[j].Start, items[j].End}
      totalSize += uint64(items[j].End - items[j].Start)
      dataSize  += uint64(items[j].ByteSize())
    }
    itemCount += len(items)
    coverage   = append(coverage, coverageRecords(chrom.Id, intervals)...)
  }
  averageSize := 0
  if itemCount > 0 {
    averageSize = int(totalSize/uint64(itemCount))
  }
  levels, err := bbdZoomLevels(
    func(reduction uint32) []BbiSummaryRecord {
      return reduceSummaries(coverage, reduction, chromSizes)
    }, chromSizes, averageSize, dataSize, bbw.Parameters)
  if err != nil {
    return err
  }
  autoSql, fieldNames, err := bbw.autoSql()
  if err != nil {
    return err
  }
  extraIndices, err := bbw.extraIndices(fieldNames)
  if err != nil {
    return err
  }
  bbw.Header.FieldCount        = uint16(len(fieldNames))
  if defined := bbw.BigBedParameters.DefinedFieldCount; defined == 0 {
    bbw.Header.DefinedFieldCount = uint16(iMin(len(fieldNames), 12))
  } else {
    bbw.Header.DefinedFieldCount = uint16(iMin(len(fieldNames), iMax(defined, 3)))
  }
  for _, record := range coverage {
    bbw.Header.Summary.AddRecord(record.BbiSummaryStatistics)
  }
  if err := bbw.writeHeader(autoSql, len(extraIndices) > 0); err != nil {
    return err
  }
  if err := bbw.writeChromTree(chroms); err != nil {
    return err
  }
  // primary data
  if offset, err := bbw.tell(); err != nil {
    return err
  } else {
    bbw.Header.DataOffset = offset
  }
  if _, err := bbw.Writer.Write(uint64Bytes(bbw.Order, uint64(itemCount))); err != nil {
    return err
  }
  index := bbw.newIndex()
  a     := newByteAppender(bbw.Order, 0)
  for _, chrom := range chroms {
    items := bbw.chroms[chrom.Name].Items
    for i := 0; i < len(items); i += bbw.Parameters.ItemsPerSlot {
      j   := iMin(i+bbw.Parameters.ItemsPerSlot, len(items))
      end := uint32(0)
      a.Reset()
      for k := i; k < j; k++ {
        items[k].encode(a)
        if items[k].End > end {
          end = items[k].End
        }
      }
      block, err := bbw.writeIndexedBlock(index, a.Result(), chrom.Id, items[i].Start, end)
      if err != nil {
        return err
      }
      for _, extraIndex := range extraIndices {
        for k := i; k < j; k++ {
          extraIndex.add(chrom.Name, &items[k], block)
        }
      }
    }
  }
  if err := bbw.writeIndex(index); err != nil {
    return err
  }
  if err := bbw.writeZoomLevels(levels); err != nil {
    return err
  }
  for _, extraIndex := range extraIndices {
    if err := bbw.writeExtraIndex(extraIndex); err != nil {
      return err
    }
  }
  return bbw.finish()
}

/* utility
 * -------------------------------------------------------------------------- */

func BigBedReadGenome(reader io.ReadSeeker) (Genome, error) {
  r, err := NewBigBedReader(reader)
  if err != nil {
    return Genome{}, err
  }
  return r.Genome()
}

func BigBedImportGenome(filename string) (Genome, error) {
  f, err := os.Open(filename)
  if err != nil {
    return Genome{}, err
  }
  defer f.Close()

  if genome, err := BigBedReadGenome(f); err != nil {
    return genome, fmt.Errorf("importing genome from `%s' failed: %w", filename, err)
  } else {
    return genome, nil
  }
}
