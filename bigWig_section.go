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

/* -------------------------------------------------------------------------- */

const (
  BbiTypeBedGraph     = 1
  BbiTypeVariableStep = 2
  BbiTypeFixedStep    = 3
)

const bwgSectionHeaderSize = 24

/* -------------------------------------------------------------------------- */

type BbiDataHeader struct {
  ChromId   uint32
  Start     uint32
  End       uint32
  Step      uint32
  Span      uint32
  Type      byte
  Reserved  byte
  ItemCount uint16
}

func (header *BbiDataHeader) read(c *byteCursor) {
  header.ChromId   = c.Uint32()
  header.Start     = c.Uint32()
  header.End       = c.Uint32()
  header.Step      = c.Uint32()
  header.Span      = c.Uint32()
  header.Type      = c.Uint8()
  header.Reserved  = c.Uint8()
  header.ItemCount = c.Uint16()
}

func (header *BbiDataHeader) write(a *byteAppender) {
  a.Uint32(header.ChromId)
  a.Uint32(header.Start)
  a.Uint32(header.End)
  a.Uint32(header.Step)
  a.Uint32(header.Span)
  a.Uint8 (header.Type)
  a.Uint8 (header.Reserved)
  a.Uint16(header.ItemCount)
}

/* -------------------------------------------------------------------------- */

type BedGraphItem struct {
  Start uint32
  End   uint32
  Value float32
}

type VariableStepItem struct {
  Start uint32
  Value float32
}

// Items of a bigWig section. The concrete type determines the encoding
// of the section: BedGraphItems, VariableStepItems or FixedStepItems.
type BigWigItems interface {
  Type    () byte
  Len     () int
  itemSize() int
  encode  (a *byteAppender)
}

type BedGraphItems     []BedGraphItem
type VariableStepItems []VariableStepItem
type FixedStepItems    []float32

func (items BedGraphItems) Type() byte {
  return BbiTypeBedGraph
}

func (items BedGraphItems) Len() int {
  return len(items)
}

func (items BedGraphItems) itemSize() int {
  return 12
}

func (items BedGraphItems) encode(a *byteAppender) {
  for _, item := range items {
    a.Uint32 (item.Start)
    a.Uint32 (item.End)
    a.Float32(item.Value)
  }
}

func (items VariableStepItems) Type() byte {
  return BbiTypeVariableStep
}

func (items VariableStepItems) Len() int {
  return len(items)
}

func (items VariableStepItems) itemSize() int {
  return 8
}

func (items VariableStepItems) encode(a *byteAppender) {
  for _, item := range items {
    a.Uint32 (item.Start)
    a.Float32(item.Value)
  }
}

func (items FixedStepItems) Type() byte {
  return BbiTypeFixedStep
}

func (items FixedStepItems) Len() int {
  return len(items)
}

func (items FixedStepItems) itemSize() int {
  return 4
}

func (items FixedStepItems) encode(a *byteAppender) {
  for _, value := range items {
    a.Float32(value)
  }
}

/* -------------------------------------------------------------------------- */

// A section is a run of items of the same type on a single chromosome.
type BigWigSection struct {
  ChromId  uint32
  Start    uint32
  End      uint32
  ItemStep uint32
  ItemSpan uint32
  Items    BigWigItems
}

func (section *BigWigSection) ByteSize() int {
  return bwgSectionHeaderSize + section.Items.Len()*section.Items.itemSize()
}

func (section *BigWigSection) Encode(order binary.ByteOrder) []byte {
  a := newByteAppender(order, section.ByteSize())
  section.encode(a)
  return a.Result()
}

func (section *BigWigSection) encode(a *byteAppender) {
  header := BbiDataHeader{
    ChromId  : section.ChromId,
    Start    : section.Start,
    End      : section.End,
    Step     : section.ItemStep,
    Span     : section.ItemSpan,
    Type     : section.Items.Type(),
    ItemCount: uint16(section.Items.Len()) }
  header.write(a)
  section.Items.encode(a)
}

// Call f on every item of the section with its genomic range. Iteration
// stops as soon as f returns false.
func (section *BigWigSection) Each(f func(start, end uint32, value float32) bool) {
  switch items := section.Items.(type) {
  case BedGraphItems:
    for _, item := range items {
      if !f(item.Start, item.End, item.Value) {
        return
      }
    }
  case VariableStepItems:
    for _, item := range items {
      if !f(item.Start, item.Start+section.ItemSpan, item.Value) {
        return
      }
    }
  case FixedStepItems:
    for i, value := range items {
      start := section.Start + uint32(i)*section.ItemStep
      if !f(start, start+section.ItemSpan, value) {
        return
      }
    }
  }
}

/* -------------------------------------------------------------------------- */

// Decode one section from an uncompressed data block.
func DecodeBigWigSection(data []byte, order binary.ByteOrder) (BigWigSection, error) {
  c := newByteCursor(data, order)
  header := BbiDataHeader{}
  header.read(c)
  if err := c.Err(); err != nil {
    return BigWigSection{}, fmt.Errorf("decoding section header failed: %w", err)
  }
  section := BigWigSection{
    ChromId : header.ChromId,
    Start   : header.Start,
    End     : header.End,
    ItemStep: header.Step,
    ItemSpan: header.Span }
  n := int(header.ItemCount)
  switch header.Type {
  case BbiTypeBedGraph:
    items := make(BedGraphItems, n)
    for i := 0; i < n; i++ {
      items[i].Start = c.Uint32()
      items[i].End   = c.Uint32()
      items[i].Value = c.Float32()
    }
    section.Items = items
  case BbiTypeVariableStep:
    items := make(VariableStepItems, n)
    for i := 0; i < n; i++ {
      items[i].Start = c.Uint32()
      items[i].Value = c.Float32()
    }
    section.Items = items
  case BbiTypeFixedStep:
    items := make(FixedStepItems, n)
    for i := 0; i < n; i++ {
      items[i] = c.Float32()
    }
    section.Items = items
  default:
    return BigWigSection{}, fmt.Errorf("invalid section type `%d'", header.Type)
  }
  if err := c.Err(); err != nil {
    return BigWigSection{}, fmt.Errorf("decoding section items failed: %w", err)
  }
  return section, nil
}
