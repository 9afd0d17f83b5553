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
import "encoding/binary"
import "errors"
import "fmt"
import "io"
import "os"
import "sort"

/* -------------------------------------------------------------------------- */

var (
  ErrNotBigWig     = errors.New("not a bigWig file")
  ErrNotBigBed     = errors.New("not a bigBed file")
  ErrInvalidMagic  = errors.New("invalid magic number")
  ErrKeySize       = errors.New("key too long")
  ErrValueSize     = errors.New("invalid value size")
  ErrUnsorted      = errors.New("input is not sorted")
  ErrChromNotFound = errors.New("chromosome not found")
)

/* -------------------------------------------------------------------------- */

type BbiParameters struct {
  BlockSize         int
  ItemsPerSlot      int
  Compress          bool
  ZoomIncrement     int
  // reductions of zoom levels, computed automatically if empty
  ReductionLevels []int
  // clip items that extend past the end of a chromosome instead of
  // reporting an error
  Clip              bool
}

func DefaultBbiParameters() BbiParameters {
  return BbiParameters{
    BlockSize      : 256,
    ItemsPerSlot   : 1024,
    Compress       : true,
    ZoomIncrement  : 4,
    ReductionLevels: nil,
    Clip           : false }
}

func (parameters BbiParameters) check() error {
  if parameters.BlockSize < 2 || parameters.BlockSize > int(^uint16(0)) {
    return fmt.Errorf("invalid block size `%d'", parameters.BlockSize)
  }
  if parameters.ItemsPerSlot < 1 || parameters.ItemsPerSlot > int(^uint16(0)) {
    return fmt.Errorf("invalid number of items per slot `%d'", parameters.ItemsPerSlot)
  }
  if parameters.ZoomIncrement < 2 {
    return fmt.Errorf("invalid zoom increment `%d'", parameters.ZoomIncrement)
  }
  return nil
}

/* -------------------------------------------------------------------------- */

type BbiChromInfo struct {
  Name string
  Id   uint32
  Size uint32
}

const bbiChromValueSize = 8

/* -------------------------------------------------------------------------- */

// Handle for reading a bbi file. A handle must not be used concurrently,
// open one handle per goroutine instead.
type BbiFile struct {
  Header     BbiHeader
  Order      binary.ByteOrder
  Reader     io.ReadSeeker
  ChromTree  *BTreeFile
  index      *RTreeFile
  indexZoom  []*RTreeFile
  chroms     []BbiChromInfo
  chromIds   map[uint32]int
  decoder    *blockDecoder
}

func NewBbiFile() *BbiFile {
  return &BbiFile{}
}

// Parse the header of a bbi file and attach the chromosome tree. The
// data index and zoom indices are opened on first use.
func (bbi *BbiFile) Open(reader io.ReadSeeker, magic uint32) error {
  if order, err := bbi.Header.Read(reader, magic); err != nil {
    return err
  } else {
    bbi.Order = order
  }
  bbi.Reader    = reader
  bbi.index     = nil
  bbi.indexZoom = make([]*RTreeFile, len(bbi.Header.ZoomHeaders))
  bbi.chroms    = nil
  bbi.chromIds  = nil
  bbi.decoder   = newBlockDecoder(int(bbi.Header.UncompressBufSize))
  if tree, err := OpenBTreeFile(reader, int64(bbi.Header.CtOffset)); err != nil {
    return fmt.Errorf("reading chromosome tree failed: %w", err)
  } else {
    bbi.ChromTree = tree
  }
  if bbi.ChromTree.ValueSize != bbiChromValueSize {
    return fmt.Errorf("invalid chromosome tree: %w", ErrValueSize)
  }
  return nil
}

func (bbi *BbiFile) Index() (*RTreeFile, error) {
  if bbi.index == nil {
    if tree, err := OpenRTreeFile(bbi.Reader, int64(bbi.Header.IndexOffset)); err != nil {
      return nil, fmt.Errorf("reading data index failed: %w", err)
    } else {
      bbi.index = tree
    }
  }
  return bbi.index, nil
}

func (bbi *BbiFile) IndexZoom(i int) (*RTreeFile, error) {
  if i < 0 || i >= len(bbi.indexZoom) {
    return nil, fmt.Errorf("invalid zoom level `%d'", i)
  }
  if bbi.indexZoom[i] == nil {
    if tree, err := OpenRTreeFile(bbi.Reader, int64(bbi.Header.ZoomHeaders[i].IndexOffset)); err != nil {
      return nil, fmt.Errorf("reading index of zoom level %d failed: %w", i, err)
    } else {
      bbi.indexZoom[i] = tree
    }
  }
  return bbi.indexZoom[i], nil
}

/* -------------------------------------------------------------------------- */

func (bbi *BbiFile) decodeChromValue(name []byte, value []byte) BbiChromInfo {
  return BbiChromInfo{
    Name: string(bytes.TrimRight(name, "\x00")),
    Id  : bbi.Order.Uint32(value[0:4]),
    Size: bbi.Order.Uint32(value[4:8]) }
}

// Look up a chromosome by name. The second return value is false if the
// chromosome is not part of the file.
func (bbi *BbiFile) ChromId(name string) (BbiChromInfo, bool, error) {
  if bbi.chroms != nil {
    for _, chrom := range bbi.chroms {
      if chrom.Name == name {
        return chrom, true, nil
      }
    }
    return BbiChromInfo{}, false, nil
  }
  value, ok, err := bbi.ChromTree.Find([]byte(name), bbiChromValueSize)
  if err != nil || !ok {
    return BbiChromInfo{}, false, err
  }
  return bbi.decodeChromValue([]byte(name), value), true, nil
}

func (bbi *BbiFile) loadChroms() error {
  if bbi.chroms != nil {
    return nil
  }
  chroms := []BbiChromInfo{}
  if err := bbi.ChromTree.Traverse(func(key, value []byte) error {
    chroms = append(chroms, bbi.decodeChromValue(key, value))
    return nil
  }); err != nil {
    return fmt.Errorf("reading chromosome tree failed: %w", err)
  }
  sort.Slice(chroms, func(i, j int) bool { return chroms[i].Id < chroms[j].Id })
  bbi.chroms   = chroms
  bbi.chromIds = make(map[uint32]int)
  for i, chrom := range chroms {
    bbi.chromIds[chrom.Id] = i
  }
  return nil
}

// Look up a chromosome by its id. The name table is read once and cached.
func (bbi *BbiFile) ChromName(id uint32) (string, bool, error) {
  if err := bbi.loadChroms(); err != nil {
    return "", false, err
  }
  if i, ok := bbi.chromIds[id]; ok {
    return bbi.chroms[i].Name, true, nil
  }
  return "", false, nil
}

// List of chromosomes sorted by id.
func (bbi *BbiFile) ChromList() ([]BbiChromInfo, error) {
  if err := bbi.loadChroms(); err != nil {
    return nil, err
  }
  r := make([]BbiChromInfo, len(bbi.chroms))
  copy(r, bbi.chroms)
  return r, nil
}

func (bbi *BbiFile) Genome() (Genome, error) {
  chroms, err := bbi.ChromList()
  if err != nil {
    return Genome{}, err
  }
  seqnames := make([]string, len(chroms))
  lengths  := make([]int,    len(chroms))
  for i, chrom := range chroms {
    seqnames[i] = chrom.Name
    lengths [i] = int(chrom.Size)
  }
  return NewGenome(seqnames, lengths), nil
}

/* -------------------------------------------------------------------------- */

// Read and uncompress blocks. Function f receives a cursor over the
// uncompressed content of every block.
func (bbi *BbiFile) readBlocks(blocks []BbiBlock, f func(block BbiBlock, c *byteCursor) error) error {
  return readBlocks(bbi.Reader, blocks, func(block BbiBlock, data []byte) error {
    if data, err := bbi.decoder.Decode(data); err != nil {
      return fmt.Errorf("block at offset %d: %w", block.Offset, err)
    } else {
      return f(block, newByteCursor(data, bbi.Order))
    }
  })
}

// Resolve a query region to a chromosome and the data blocks that may
// overlap it. The region is clipped to the chromosome and returned as
// the second and third value. The fourth return value is false if the
// chromosome is unknown or the region is invalid. An empty region
// [s, s) selects items that strictly contain s.
func (bbi *BbiFile) queryBlocks(tree *RTreeFile, chrom string, start, end int) (BbiChromInfo, uint32, uint32, bool, []BbiBlock, error) {
  info, ok, err := bbi.ChromId(chrom)
  if err != nil || !ok {
    return info, 0, 0, false, nil, err
  }
  if start < 0 {
    start = 0
  }
  if int64(end) > int64(info.Size) {
    end = int(info.Size)
  }
  if end < start {
    return info, 0, 0, false, nil, nil
  }
  blocks, err := tree.FindOverlappingBlocks(info.Id, uint32(start), uint32(end))
  if err != nil {
    return info, 0, 0, false, nil, err
  }
  return info, uint32(start), uint32(end), true, blocks, nil
}

/* -------------------------------------------------------------------------- */

// Return summary records of zoom level i that overlap the given region.
func (bbi *BbiFile) ZoomRecords(i int, chromId, start, end uint32) ([]BbiSummaryRecord, error) {
  tree, err := bbi.IndexZoom(i)
  if err != nil {
    return nil, err
  }
  blocks, err := tree.FindOverlappingBlocks(chromId, start, end)
  if err != nil {
    return nil, err
  }
  r := []BbiSummaryRecord{}
  if err := bbi.readBlocks(blocks, func(block BbiBlock, c *byteCursor) error {
    if records, err := decodeBbiSummaryRecords(c); err != nil {
      return err
    } else {
      for _, record := range records {
        if record.ChromId == chromId && record.Start < end && record.End > start {
          r = append(r, record)
        }
      }
    }
    return nil
  }); err != nil {
    return nil, err
  }
  return r, nil
}

// Return the index of the zoom level with the largest reduction that
// does not exceed desiredReduction, or -1 if no zoom level qualifies.
func (bbi *BbiFile) BestZoom(desiredReduction int) int {
  if desiredReduction <= 1 {
    return -1
  }
  best := -1
  diff := 0
  for i, zoom := range bbi.Header.ZoomHeaders {
    d := desiredReduction - int(zoom.ReductionLevel)
    if d >= 0 && (best == -1 || d < diff) {
      best = i
      diff = d
    }
  }
  return best
}

// Summarize the region [start, end) in n bins. Zoom levels are used if
// the region is large enough, otherwise records are computed from full
// resolution data with fromFull.
func (bbi *BbiFile) summaryArray(chrom string, start, end, n int, fromFull func(chromId, start, end uint32) ([]BbiSummaryRecord, error)) ([]BbiSummaryStatistics, []bool, error) {
  if n <= 0 {
    return nil, nil, fmt.Errorf("invalid number of bins `%d'", n)
  }
  if start < 0 || end <= start || int64(end) > int64(^uint32(0)) {
    return nil, nil, fmt.Errorf("invalid region [%d, %d)", start, end)
  }
  info, ok, err := bbi.ChromId(chrom)
  if err != nil {
    return nil, nil, err
  }
  if !ok {
    return nil, make([]bool, n), nil
  }
  var records []BbiSummaryRecord
  if level := bbi.BestZoom((end-start)/n/2); level >= 0 {
    records, err = bbi.ZoomRecords(level, info.Id, uint32(start), uint32(end))
  } else {
    records, err = fromFull(info.Id, uint32(start), uint32(end))
  }
  if err != nil {
    return nil, nil, err
  }
  r, valid := bbiSliceSummaries(records, uint32(start), uint32(end), n)
  return r, valid, nil
}

// Project extended summaries to values of a summary type. Bins without
// data are left untouched.
func bbiProjectSummaries(stats []BbiSummaryStatistics, valid []bool, start, end int, t BbiSummaryType, values []float64) bool {
  r := false
  // expected number of bases per bin
  size := float64(end - start)/float64(len(values))
  for i := range values {
    if i < len(valid) && valid[i] {
      values[i] = t.Project(stats[i], size)
      r = true
    }
  }
  return r
}

/* -------------------------------------------------------------------------- */

// Statistics over all data in the file.
func (bbi *BbiFile) TotalSummary() (BbiSummaryStatistics, error) {
  if bbi.Header.SummaryOffset != 0 {
    return bbi.Header.Summary, nil
  }
  r := NewBbiSummaryStatistics()
  if len(bbi.Header.ZoomHeaders) == 0 {
    return r, nil
  }
  // use coarsest zoom level
  i := len(bbi.Header.ZoomHeaders)-1
  tree, err := bbi.IndexZoom(i)
  if err != nil {
    return r, err
  }
  blocks, err := tree.AllBlocks()
  if err != nil {
    return r, err
  }
  if err := bbi.readBlocks(blocks, func(block BbiBlock, c *byteCursor) error {
    if records, err := decodeBbiSummaryRecords(c); err != nil {
      return err
    } else {
      for _, record := range records {
        r.AddRecord(record.BbiSummaryStatistics)
      }
    }
    return nil
  }); err != nil {
    return r, err
  }
  return r, nil
}

// Number of sections (bigWig) or items (bigBed) in the primary data.
func (bbi *BbiFile) DataCount() (uint64, error) {
  buffer, err := readAt(bbi.Reader, int64(bbi.Header.DataOffset), 8)
  if err != nil {
    return 0, err
  }
  return bbi.Order.Uint64(buffer), nil
}

/* -------------------------------------------------------------------------- */

type BbiInfo struct {
  Version           uint16
  Compressed        bool
  ByteSwapped       bool
  PrimaryDataSize   uint64
  PrimaryIndexSize  uint64
  DataCount         uint64
  ChromCount        uint64
  FieldCount        uint16
  DefinedFieldCount uint16
  ZoomLevels      []BbiHeaderZoom
  Summary           BbiSummaryStatistics
}

func (bbi *BbiFile) Info() (BbiInfo, error) {
  info := BbiInfo{}
  info.Version           = bbi.Header.Version
  info.Compressed        = bbi.Header.UncompressBufSize > 0
  info.ByteSwapped       = bbi.Order == binary.BigEndian
  info.PrimaryDataSize   = bbi.Header.IndexOffset - bbi.Header.DataOffset
  info.ChromCount        = bbi.ChromTree.ItemCount
  info.FieldCount        = bbi.Header.FieldCount
  info.DefinedFieldCount = bbi.Header.DefinedFieldCount
  info.ZoomLevels        = append([]BbiHeaderZoom{}, bbi.Header.ZoomHeaders...)
  if len(bbi.Header.ZoomHeaders) > 0 {
    info.PrimaryIndexSize = bbi.Header.ZoomHeaders[0].DataOffset - bbi.Header.IndexOffset
  }
  if n, err := bbi.DataCount(); err != nil {
    return info, err
  } else {
    info.DataCount = n
  }
  if s, err := bbi.TotalSummary(); err != nil {
    return info, err
  } else {
    info.Summary = s
  }
  return info, nil
}

/* -------------------------------------------------------------------------- */

// Check the leading magic number of a file in both byte orders.
func isBbiFile(filename string, magic uint32) (bool, error) {
  f, err := os.Open(filename)
  if err != nil {
    return false, err
  }
  defer f.Close()
  buffer := make([]byte, 4)
  if _, err := io.ReadFull(f, buffer); err != nil {
    if err == io.EOF || err == io.ErrUnexpectedEOF {
      return false, nil
    }
    return false, err
  }
  if _, err := detectByteOrder(binary.LittleEndian.Uint32(buffer), magic); err != nil {
    return false, nil
  }
  return true, nil
}
