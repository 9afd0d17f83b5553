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

import "encoding/binary"
import "fmt"
import "io"
import "sort"

/* -------------------------------------------------------------------------- */

// Shared part of bigWig and bigBed writers. A file is written in a
// single pass, offsets are filled into the header at the end.
type bbiWriter struct {
  Writer       io.WriteSeeker
  Order        binary.ByteOrder
  Header       *BbiHeader
  Parameters   BbiParameters
  encoder      blockEncoder
  maxBlockSize int
}

func newBbiWriter(writer io.WriteSeeker, magic uint32, parameters BbiParameters) (bbiWriter, error) {
  if err := parameters.check(); err != nil {
    return bbiWriter{}, err
  }
  return bbiWriter{
    Writer    : writer,
    Order     : binary.LittleEndian,
    Header    : NewBbiHeader(magic),
    Parameters: parameters }, nil
}

func (w *bbiWriter) tell() (uint64, error) {
  offset, err := tell(w.Writer)
  return uint64(offset), err
}

// Write the header with empty zoom slots, the autoSql string and
// placeholders for the total summary and the extension header.
func (w *bbiWriter) writeHeader(autoSql string, extension bool) error {
  if err := w.Header.Write(w.Writer, w.Order); err != nil {
    return err
  }
  if autoSql != "" {
    if offset, err := w.tell(); err != nil {
      return err
    } else {
      w.Header.SqlOffset = offset
    }
    if _, err := w.Writer.Write(append([]byte(autoSql), 0)); err != nil {
      return err
    }
  }
  if err := w.Header.reserveSummary(w.Writer); err != nil {
    return err
  }
  if extension {
    if err := w.Header.reserveExtension(w.Writer); err != nil {
      return err
    }
  }
  return nil
}

// Chromosomes must be sorted by name and carry ids in that order.
func (w *bbiWriter) writeChromTree(chroms []BbiChromInfo) error {
  keySize := 1
  for _, chrom := range chroms {
    keySize = iMax(keySize, len(chrom.Name))
  }
  tree := NewBTree(keySize, bbiChromValueSize, iMin(w.Parameters.BlockSize, len(chroms)))
  for _, chrom := range chroms {
    value := make([]byte, bbiChromValueSize)
    w.Order.PutUint32(value[0:4], chrom.Id)
    w.Order.PutUint32(value[4:8], chrom.Size)
    if err := tree.Add([]byte(chrom.Name), value); err != nil {
      return err
    }
  }
  if offset, err := w.tell(); err != nil {
    return err
  } else {
    w.Header.CtOffset = offset
  }
  return tree.Write(w.Writer, w.Order)
}

// Write a data block at the current position, compressed if requested.
func (w *bbiWriter) writeBlock(data []byte) (BbiBlock, error) {
  offset, err := w.tell()
  if err != nil {
    return BbiBlock{}, err
  }
  w.maxBlockSize = iMax(w.maxBlockSize, len(data))
  if w.Parameters.Compress {
    if data, err = w.encoder.Encode(data); err != nil {
      return BbiBlock{}, err
    }
  }
  if _, err := w.Writer.Write(data); err != nil {
    return BbiBlock{}, err
  }
  return BbiBlock{Offset: offset, Size: uint64(len(data))}, nil
}

// Write a block and add it to an index.
func (w *bbiWriter) writeIndexedBlock(tree *RTree, data []byte, chromId, start, end uint32) (BbiBlock, error) {
  block, err := w.writeBlock(data)
  if err != nil {
    return block, err
  }
  tree.Add(RTreeItem{
    ChromIdStart: chromId,
    BaseStart   : start,
    ChromIdEnd  : chromId,
    BaseEnd     : end,
    Offset      : block.Offset })
  return block, nil
}

func (w *bbiWriter) newIndex() *RTree {
  return NewRTree(w.Parameters.BlockSize, 1)
}

// Write the index of the primary data, which ends at the current
// position.
func (w *bbiWriter) writeIndex(tree *RTree) error {
  if offset, err := w.tell(); err != nil {
    return err
  } else {
    w.Header.IndexOffset = offset
  }
  return tree.Write(w.Writer, w.Order, w.Header.IndexOffset)
}

/* -------------------------------------------------------------------------- */

func (w *bbiWriter) writeZoomLevel(level bbiZoomLevel) error {
  zoomHeader := BbiHeaderZoom{ReductionLevel: level.Reduction}
  if offset, err := w.tell(); err != nil {
    return err
  } else {
    zoomHeader.DataOffset = offset
  }
  if err := binary.Write(w.Writer, w.Order, uint32(len(level.Records))); err != nil {
    return err
  }
  tree := w.newIndex()
  a    := newByteAppender(w.Order, w.Parameters.ItemsPerSlot*bbiSummaryRecordSize)
  for i := 0; i < len(level.Records); {
    // records of a block belong to a single chromosome
    a.Reset()
    first := level.Records[i]
    j := i
    for ; j < len(level.Records) && j-i < w.Parameters.ItemsPerSlot && level.Records[j].ChromId == first.ChromId; j++ {
      level.Records[j].write(a)
    }
    if _, err := w.writeIndexedBlock(tree, a.Result(), first.ChromId, first.Start, level.Records[j-1].End); err != nil {
      return err
    }
    i = j
  }
  if offset, err := w.tell(); err != nil {
    return err
  } else {
    zoomHeader.IndexOffset = offset
  }
  if err := tree.Write(w.Writer, w.Order, zoomHeader.IndexOffset); err != nil {
    return err
  }
  w.Header.ZoomHeaders = append(w.Header.ZoomHeaders, zoomHeader)
  return nil
}

func (w *bbiWriter) writeZoomLevels(levels []bbiZoomLevel) error {
  if len(levels) > BBI_MAX_ZOOM_LEVELS {
    return fmt.Errorf("too many zoom levels: %d", len(levels))
  }
  for _, level := range levels {
    if err := w.writeZoomLevel(level); err != nil {
      return err
    }
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// Fill in all offsets and append the magic number at the end of the file.
func (w *bbiWriter) finish() error {
  if w.Parameters.Compress {
    w.Header.UncompressBufSize = uint32(iMax(w.maxBlockSize, w.Parameters.ItemsPerSlot*bbiSummaryRecordSize))
  } else {
    w.Header.UncompressBufSize = 0
  }
  if err := w.Header.WriteExtension(w.Writer, w.Order); err != nil {
    return err
  }
  if err := w.Header.WriteSummary(w.Writer, w.Order); err != nil {
    return err
  }
  if err := w.Header.WriteOffsets(w.Writer, w.Order); err != nil {
    return err
  }
  if _, err := w.Writer.Seek(0, io.SeekEnd); err != nil {
    return err
  }
  return binary.Write(w.Writer, w.Order, w.Header.Magic)
}

/* -------------------------------------------------------------------------- */

// Assign ids to the given chromosome names in sorted order.
func bbiMakeChromInfo(names []string, sizes map[string]uint32) []BbiChromInfo {
  names = append([]string{}, names...)
  sort.Strings(names)
  r := make([]BbiChromInfo, len(names))
  for i, name := range names {
    r[i] = BbiChromInfo{Name: name, Id: uint32(i), Size: sizes[name]}
  }
  return r
}
