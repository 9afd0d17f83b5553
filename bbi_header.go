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

/* -------------------------------------------------------------------------- */

const BBI_VERSION = 4

const (
  bbiHeaderSize          = 64
  bbiZoomHeaderSize      = 24
  bbiTotalSummarySize    = 40
  bbiExtensionHeaderSize = 64
  bbiExtraIndexEntrySize = 16
)

/* -------------------------------------------------------------------------- */

type BbiHeaderZoom struct {
  ReductionLevel uint32
  Reserved       uint32
  DataOffset     uint64
  IndexOffset    uint64
}

func (zoomHeader *BbiHeaderZoom) read(c *byteCursor) {
  zoomHeader.ReductionLevel = c.Uint32()
  zoomHeader.Reserved       = c.Uint32()
  zoomHeader.DataOffset     = c.Uint64()
  zoomHeader.IndexOffset    = c.Uint64()
}

func (zoomHeader *BbiHeaderZoom) write(a *byteAppender) {
  a.Uint32(zoomHeader.ReductionLevel)
  a.Uint32(zoomHeader.Reserved)
  a.Uint64(zoomHeader.DataOffset)
  a.Uint64(zoomHeader.IndexOffset)
}

/* -------------------------------------------------------------------------- */

// Additional B+tree index over a field of a bigBed file.
type BbiExtraIndex struct {
  Type       uint16
  FieldIds   []uint16
  FileOffset uint64
}

/* -------------------------------------------------------------------------- */

type BbiHeader struct {
  Magic             uint32
  Version           uint16
  ZoomLevels        uint16
  CtOffset          uint64
  DataOffset        uint64
  IndexOffset       uint64
  FieldCount        uint16
  DefinedFieldCount uint16
  SqlOffset         uint64
  SummaryOffset     uint64
  UncompressBufSize uint32
  ExtensionOffset   uint64
  ZoomHeaders     []BbiHeaderZoom
  // total summary
  Summary           BbiSummaryStatistics
  // extension
  ExtensionSize     uint16
  ExtraIndexCount   uint16
  ExtraIndexOffset  uint64
  ExtraIndices    []BbiExtraIndex
  // position of the header in the output file
  position          int64
}

func NewBbiHeader(magic uint32) *BbiHeader {
  header := BbiHeader{}
  header.Magic   = magic
  header.Version = BBI_VERSION
  header.Summary.Reset()
  return &header
}

// Read the header of a bbi file. The byte order of the file is detected
// from the magic number.
func (header *BbiHeader) Read(reader io.ReadSeeker, magic uint32) (binary.ByteOrder, error) {
  buffer, err := readAt(reader, 0, bbiHeaderSize)
  if err != nil {
    return nil, err
  }
  order, err := detectByteOrder(binary.LittleEndian.Uint32(buffer), magic)
  if err != nil {
    return nil, err
  }
  c := newByteCursor(buffer, order)
  header.Magic             = c.Uint32()
  header.Version           = c.Uint16()
  header.ZoomLevels        = c.Uint16()
  header.CtOffset          = c.Uint64()
  header.DataOffset        = c.Uint64()
  header.IndexOffset       = c.Uint64()
  header.FieldCount        = c.Uint16()
  header.DefinedFieldCount = c.Uint16()
  header.SqlOffset         = c.Uint64()
  header.SummaryOffset     = c.Uint64()
  header.UncompressBufSize = c.Uint32()
  header.ExtensionOffset   = c.Uint64()
  if err := c.Err(); err != nil {
    return nil, err
  }
  if header.ZoomLevels > BBI_MAX_ZOOM_LEVELS {
    return nil, fmt.Errorf("invalid number of zoom levels: %d", header.ZoomLevels)
  }
  // zoom levels
  if buffer, err := readAt(reader, bbiHeaderSize, int(header.ZoomLevels)*bbiZoomHeaderSize); err != nil {
    return nil, err
  } else {
    c := newByteCursor(buffer, order)
    header.ZoomHeaders = make([]BbiHeaderZoom, header.ZoomLevels)
    for i := range header.ZoomHeaders {
      header.ZoomHeaders[i].read(c)
    }
  }
  // total summary
  header.Summary.Reset()
  if header.SummaryOffset > 0 {
    if buffer, err := readAt(reader, int64(header.SummaryOffset), bbiTotalSummarySize); err != nil {
      return nil, err
    } else {
      c := newByteCursor(buffer, order)
      header.Summary.Valid      = float64(c.Uint64())
      header.Summary.Min        = c.Float64()
      header.Summary.Max        = c.Float64()
      header.Summary.Sum        = c.Float64()
      header.Summary.SumSquares = c.Float64()
    }
  }
  // extension
  if header.ExtensionOffset > 0 {
    if err := header.readExtension(reader, order); err != nil {
      return nil, err
    }
  }
  return order, nil
}

func (header *BbiHeader) readExtension(reader io.ReadSeeker, order binary.ByteOrder) error {
  buffer, err := readAt(reader, int64(header.ExtensionOffset), bbiExtensionHeaderSize)
  if err != nil {
    return err
  }
  c := newByteCursor(buffer, order)
  header.ExtensionSize    = c.Uint16()
  header.ExtraIndexCount  = c.Uint16()
  header.ExtraIndexOffset = c.Uint64()
  if header.ExtraIndexCount == 0 {
    return nil
  }
  header.ExtraIndices = make([]BbiExtraIndex, header.ExtraIndexCount)
  if _, err := reader.Seek(int64(header.ExtraIndexOffset), io.SeekStart); err != nil {
    return err
  }
  for i := range header.ExtraIndices {
    buffer := make([]byte, bbiExtraIndexEntrySize)
    if _, err := io.ReadFull(reader, buffer); err != nil {
      return fmt.Errorf("reading extra index list failed: %w", err)
    }
    c := newByteCursor(buffer, order)
    header.ExtraIndices[i].Type       = c.Uint16()
    fieldCount                       := c.Uint16()
    header.ExtraIndices[i].FileOffset = c.Uint64()
    c.Skip(4)
    fields := make([]byte, 4*int(fieldCount))
    if _, err := io.ReadFull(reader, fields); err != nil {
      return fmt.Errorf("reading extra index list failed: %w", err)
    }
    c = newByteCursor(fields, order)
    header.ExtraIndices[i].FieldIds = make([]uint16, fieldCount)
    for j := range header.ExtraIndices[i].FieldIds {
      header.ExtraIndices[i].FieldIds[j] = c.Uint16()
      c.Skip(2)
    }
  }
  return nil
}

/* -------------------------------------------------------------------------- */

func (header *BbiHeader) encode(order binary.ByteOrder) []byte {
  a := newByteAppender(order, bbiHeaderSize + BBI_MAX_ZOOM_LEVELS*bbiZoomHeaderSize)
  a.Uint32(header.Magic)
  a.Uint16(header.Version)
  a.Uint16(header.ZoomLevels)
  a.Uint64(header.CtOffset)
  a.Uint64(header.DataOffset)
  a.Uint64(header.IndexOffset)
  a.Uint16(header.FieldCount)
  a.Uint16(header.DefinedFieldCount)
  a.Uint64(header.SqlOffset)
  a.Uint64(header.SummaryOffset)
  a.Uint32(header.UncompressBufSize)
  a.Uint64(header.ExtensionOffset)
  for i := 0; i < BBI_MAX_ZOOM_LEVELS; i++ {
    if i < len(header.ZoomHeaders) {
      header.ZoomHeaders[i].write(a)
    } else {
      a.Zeros(bbiZoomHeaderSize)
    }
  }
  return a.Result()
}

// Write the header at the current position including space for the
// maximum number of zoom levels. Offsets are filled in later by
// WriteOffsets.
func (header *BbiHeader) Write(writer io.WriteSeeker, order binary.ByteOrder) error {
  if len(header.ZoomHeaders) > BBI_MAX_ZOOM_LEVELS {
    return fmt.Errorf("too many zoom levels: %d", len(header.ZoomHeaders))
  }
  if position, err := tell(writer); err != nil {
    return err
  } else {
    header.position = position
  }
  if _, err := writer.Write(header.encode(order)); err != nil {
    return err
  }
  return nil
}

// Write the header again at its original position.
func (header *BbiHeader) WriteOffsets(writer io.WriteSeeker, order binary.ByteOrder) error {
  header.ZoomLevels = uint16(len(header.ZoomHeaders))
  return writeAt(writer, order, header.position, header.encode(order))
}

// Reserve space for the total summary at the current position.
func (header *BbiHeader) reserveSummary(writer io.WriteSeeker) error {
  if position, err := tell(writer); err != nil {
    return err
  } else {
    header.SummaryOffset = uint64(position)
  }
  _, err := writer.Write(make([]byte, bbiTotalSummarySize))
  return err
}

func (header *BbiHeader) WriteSummary(writer io.WriteSeeker, order binary.ByteOrder) error {
  if header.SummaryOffset == 0 {
    return nil
  }
  a := newByteAppender(order, bbiTotalSummarySize)
  s := header.Summary
  if s.Valid == 0 {
    s.Min = 0
    s.Max = 0
  }
  a.Uint64 (uint64(s.Valid))
  a.Float64(s.Min)
  a.Float64(s.Max)
  a.Float64(s.Sum)
  a.Float64(s.SumSquares)
  return writeAt(writer, order, int64(header.SummaryOffset), a.Result())
}

// Reserve space for the extension header at the current position.
func (header *BbiHeader) reserveExtension(writer io.WriteSeeker) error {
  if position, err := tell(writer); err != nil {
    return err
  } else {
    header.ExtensionOffset = uint64(position)
  }
  _, err := writer.Write(make([]byte, bbiExtensionHeaderSize))
  return err
}

// Write the list of extra indices at the current position and fill in
// the extension header.
func (header *BbiHeader) WriteExtension(writer io.WriteSeeker, order binary.ByteOrder) error {
  if header.ExtensionOffset == 0 {
    return nil
  }
  header.ExtensionSize   = bbiExtensionHeaderSize
  header.ExtraIndexCount = uint16(len(header.ExtraIndices))
  if len(header.ExtraIndices) > 0 {
    if position, err := tell(writer); err != nil {
      return err
    } else {
      header.ExtraIndexOffset = uint64(position)
    }
    a := newByteAppender(order, 0)
    for _, index := range header.ExtraIndices {
      a.Uint16(index.Type)
      a.Uint16(uint16(len(index.FieldIds)))
      a.Uint64(index.FileOffset)
      a.Zeros(4)
      for _, id := range index.FieldIds {
        a.Uint16(id)
        a.Zeros(2)
      }
    }
    if _, err := writer.Write(a.Result()); err != nil {
      return err
    }
  }
  a := newByteAppender(order, bbiExtensionHeaderSize)
  a.Uint16(header.ExtensionSize)
  a.Uint16(header.ExtraIndexCount)
  a.Uint64(header.ExtraIndexOffset)
  a.Zeros(bbiExtensionHeaderSize - a.Len())
  return writeAt(writer, order, int64(header.ExtensionOffset), a.Result())
}
