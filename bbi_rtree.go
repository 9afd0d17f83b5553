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

// Chromosome interval R tree (cirTree) that maps genomic ranges to the
// file blocks containing the data.

/* -------------------------------------------------------------------------- */

import "encoding/binary"
import "fmt"
import "io"

/* -------------------------------------------------------------------------- */

const CIRTREE_MAGIC = 0x2468ace0

const cirTreeHeaderSize    = 48
const cirTreeNodeHeader    = 4
const cirTreeIndexSlotSize = 24
const cirTreeLeafSlotSize  = 32

/* -------------------------------------------------------------------------- */

// A range on the genome together with the file offset where the data
// of this range begins. The range may span several chromosomes.
type RTreeItem struct {
  ChromIdStart uint32
  BaseStart    uint32
  ChromIdEnd   uint32
  BaseEnd      uint32
  Offset       uint64
}

// File block that potentially contains data of a query range.
type BbiBlock struct {
  Offset uint64
  Size   uint64
}

func cirTreeOverlaps(qChrom, qStart, qEnd, rChromStart, rBaseStart, rChromEnd, rBaseEnd uint32) bool {
  return cmpUint32Pair(qChrom, qStart, rChromEnd,   rBaseEnd)   < 0 &&
         cmpUint32Pair(qChrom, qEnd,   rChromStart, rBaseStart) > 0
}

/* -------------------------------------------------------------------------- */

type rVertex struct {
  ChromIdStart  uint32
  BaseStart     uint32
  ChromIdEnd    uint32
  BaseEnd       uint32
  OffsetStart   uint64
  OffsetEnd     uint64
  Children    []*rVertex
}

func (v *rVertex) extend(chromIdStart, baseStart, chromIdEnd, baseEnd uint32) {
  if chromIdStart < v.ChromIdStart {
    v.ChromIdStart = chromIdStart
    v.BaseStart    = baseStart
  } else if chromIdStart == v.ChromIdStart && baseStart < v.BaseStart {
    v.BaseStart    = baseStart
  }
  if chromIdEnd > v.ChromIdEnd {
    v.ChromIdEnd   = chromIdEnd
    v.BaseEnd      = baseEnd
  } else if chromIdEnd == v.ChromIdEnd && baseEnd > v.BaseEnd {
    v.BaseEnd      = baseEnd
  }
}

/* -------------------------------------------------------------------------- */

type RTree struct {
  BlockSize     uint32
  ItemsPerSlot  uint32
  Items       []RTreeItem
}

func NewRTree(blockSize, itemsPerSlot int) *RTree {
  tree := RTree{}
  tree.BlockSize    = uint32(blockSize)
  tree.ItemsPerSlot = uint32(itemsPerSlot)
  return &tree
}

// Add an item to the tree. Items must be added sorted by chromosome and
// start position.
func (tree *RTree) Add(item RTreeItem) {
  tree.Items = append(tree.Items, item)
}

// Group items into leaf slots and build parent levels until a single root
// node remains. The first level of the result contains the root, the last
// level contains the leaf slots.
func (tree *RTree) buildLevels(endOfData uint64) [][]*rVertex {
  n := len(tree.Items)
  k := int(tree.ItemsPerSlot)
  b := int(tree.BlockSize)
  // leaf slots
  slots := []*rVertex{}
  for i := 0; i < n; i += k {
    m    := iMin(k, n-i)
    item := tree.Items[i]
    v    := rVertex{}
    v.ChromIdStart = item.ChromIdStart
    v.BaseStart    = item.BaseStart
    v.ChromIdEnd   = item.ChromIdEnd
    v.BaseEnd      = item.BaseEnd
    v.OffsetStart  = item.Offset
    if i+m < n {
      v.OffsetEnd = tree.Items[i+m].Offset
    } else {
      v.OffsetEnd = endOfData
    }
    for j := i+1; j < i+m; j++ {
      v.extend(tree.Items[j].ChromIdStart, tree.Items[j].BaseStart, tree.Items[j].ChromIdEnd, tree.Items[j].BaseEnd)
    }
    slots = append(slots, &v)
  }
  levels := [][]*rVertex{slots}
  for {
    children := levels[0]
    parents  := []*rVertex{}
    for i := 0; i < len(children); i += b {
      c := children[i:iMin(i+b, len(children))]
      v := rVertex{}
      v.ChromIdStart = c[0].ChromIdStart
      v.BaseStart    = c[0].BaseStart
      v.ChromIdEnd   = c[0].ChromIdEnd
      v.BaseEnd      = c[0].BaseEnd
      v.Children     = c
      for j := 1; j < len(c); j++ {
        v.extend(c[j].ChromIdStart, c[j].BaseStart, c[j].ChromIdEnd, c[j].BaseEnd)
      }
      parents = append(parents, &v)
    }
    levels = append([][]*rVertex{parents}, levels...)
    if len(parents) == 1 {
      break
    }
  }
  return levels
}

// Write the tree at the current position. The offset endOfData marks the
// end of the last data block.
func (tree *RTree) Write(writer io.WriteSeeker, order binary.ByteOrder, endOfData uint64) error {
  if tree.BlockSize < 2 {
    return fmt.Errorf("invalid R tree block size `%d'", tree.BlockSize)
  }
  if tree.BlockSize > uint32(^uint16(0)) {
    return fmt.Errorf("R tree block size too large (maximum value is `%d')", ^uint16(0))
  }
  if tree.ItemsPerSlot == 0 {
    return fmt.Errorf("invalid number of items per slot `%d'", tree.ItemsPerSlot)
  }
  var levels [][]*rVertex
  var root     rVertex
  if len(tree.Items) > 0 {
    levels = tree.buildLevels(endOfData)
    root   = *levels[0][0]
  }
  a := newByteAppender(order, cirTreeHeaderSize)
  a.Uint32(CIRTREE_MAGIC)
  a.Uint32(tree.BlockSize)
  a.Uint64(uint64(len(tree.Items)))
  a.Uint32(root.ChromIdStart)
  a.Uint32(root.BaseStart)
  a.Uint32(root.ChromIdEnd)
  a.Uint32(root.BaseEnd)
  a.Uint64(endOfData)
  a.Uint32(tree.ItemsPerSlot)
  a.Uint32(0)
  if _, err := writer.Write(a.Result()); err != nil {
    return err
  }
  if len(levels) == 0 {
    return nil
  }
  return tree.writeNodes(writer, order, levels)
}

func (tree *RTree) writeNodes(writer io.WriteSeeker, order binary.ByteOrder, levels [][]*rVertex) error {
  // all levels except the last contain nodes, the last level
  // contains leaf slots
  nodeLevels := len(levels)-1
  blockSize  := int(tree.BlockSize)
  iNodeSize  := uint64(cirTreeNodeHeader + cirTreeIndexSlotSize*blockSize)
  lNodeSize  := uint64(cirTreeNodeHeader + cirTreeLeafSlotSize *blockSize)

  offset, err := tell(writer)
  if err != nil {
    return err
  }
  levelOffsets := make([]uint64, nodeLevels)
  for i, o := 0, uint64(offset); i < nodeLevels; i++ {
    levelOffsets[i] = o
    o += uint64(len(levels[i]))*iNodeSize
  }
  a := newByteAppender(order, int(lNodeSize))
  // index nodes
  for i := 0; i < nodeLevels-1; i++ {
    childOffset   := levelOffsets[i+1]
    childNodeSize := iNodeSize
    if i+1 == nodeLevels-1 {
      childNodeSize = lNodeSize
    }
    for _, v := range levels[i] {
      a.Reset()
      a.Uint8 (0)
      a.Uint8 (0)
      a.Uint16(uint16(len(v.Children)))
      for _, c := range v.Children {
        a.Uint32(c.ChromIdStart)
        a.Uint32(c.BaseStart)
        a.Uint32(c.ChromIdEnd)
        a.Uint32(c.BaseEnd)
        a.Uint64(childOffset)
        childOffset += childNodeSize
      }
      a.Zeros((blockSize-len(v.Children))*cirTreeIndexSlotSize)
      if _, err := writer.Write(a.Result()); err != nil {
        return err
      }
    }
    if offset, err := tell(writer); err != nil {
      return err
    } else if uint64(offset) != levelOffsets[i+1] {
      return fmt.Errorf("internal error: R tree level ends at offset %d, expected %d", offset, levelOffsets[i+1])
    }
  }
  // leaf nodes
  for _, v := range levels[nodeLevels-1] {
    a.Reset()
    a.Uint8 (1)
    a.Uint8 (0)
    a.Uint16(uint16(len(v.Children)))
    for _, c := range v.Children {
      a.Uint32(c.ChromIdStart)
      a.Uint32(c.BaseStart)
      a.Uint32(c.ChromIdEnd)
      a.Uint32(c.BaseEnd)
      a.Uint64(c.OffsetStart)
      a.Uint64(c.OffsetEnd - c.OffsetStart)
    }
    a.Zeros((blockSize-len(v.Children))*cirTreeLeafSlotSize)
    if _, err := writer.Write(a.Result()); err != nil {
      return err
    }
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// Handle for an R tree stored in a file. Nodes are read on demand.
type RTreeFile struct {
  Reader        io.ReadSeeker
  Order         binary.ByteOrder
  BlockSize     uint32
  ItemCount     uint64
  ChromIdStart  uint32
  BaseStart     uint32
  ChromIdEnd    uint32
  BaseEnd       uint32
  EndOfData     uint64
  ItemsPerSlot  uint32
  RootOffset    int64
}

func OpenRTreeFile(reader io.ReadSeeker, offset int64) (*RTreeFile, error) {
  buffer, err := readAt(reader, offset, cirTreeHeaderSize)
  if err != nil {
    return nil, err
  }
  order, err := detectByteOrder(binary.LittleEndian.Uint32(buffer[0:4]), CIRTREE_MAGIC)
  if err != nil {
    return nil, fmt.Errorf("invalid R tree at offset %d: %w", offset, err)
  }
  tree := RTreeFile{Reader: reader, Order: order}
  c := newByteCursor(buffer[4:], order)
  tree.BlockSize    = c.Uint32()
  tree.ItemCount    = c.Uint64()
  tree.ChromIdStart = c.Uint32()
  tree.BaseStart    = c.Uint32()
  tree.ChromIdEnd   = c.Uint32()
  tree.BaseEnd      = c.Uint32()
  tree.EndOfData    = c.Uint64()
  tree.ItemsPerSlot = c.Uint32()
  tree.RootOffset   = offset + cirTreeHeaderSize
  return &tree, c.Err()
}

type rTreeSlot struct {
  ChromIdStart uint32
  BaseStart    uint32
  ChromIdEnd   uint32
  BaseEnd      uint32
  Offset       uint64
  Size         uint64
}

func (tree *RTreeFile) readNode(offset int64) (bool, []rTreeSlot, error) {
  header, err := readAt(tree.Reader, offset, cirTreeNodeHeader)
  if err != nil {
    return false, nil, err
  }
  isLeaf := header[0] != 0
  count  := int(tree.Order.Uint16(header[2:4]))
  slotSize := cirTreeIndexSlotSize
  if isLeaf {
    slotSize = cirTreeLeafSlotSize
  }
  body, err := readAt(tree.Reader, offset+cirTreeNodeHeader, count*slotSize)
  if err != nil {
    return false, nil, err
  }
  c := newByteCursor(body, tree.Order)
  slots := make([]rTreeSlot, count)
  for i := 0; i < count; i++ {
    slots[i].ChromIdStart = c.Uint32()
    slots[i].BaseStart    = c.Uint32()
    slots[i].ChromIdEnd   = c.Uint32()
    slots[i].BaseEnd      = c.Uint32()
    slots[i].Offset       = c.Uint64()
    if isLeaf {
      slots[i].Size       = c.Uint64()
    }
  }
  return isLeaf, slots, c.Err()
}

func (tree *RTreeFile) findOverlappingBlocks(offset int64, chromId, start, end uint32, all bool, blocks []BbiBlock) ([]BbiBlock, error) {
  isLeaf, slots, err := tree.readNode(offset)
  if err != nil {
    return blocks, err
  }
  for _, s := range slots {
    if !all && !cirTreeOverlaps(chromId, start, end, s.ChromIdStart, s.BaseStart, s.ChromIdEnd, s.BaseEnd) {
      continue
    }
    if isLeaf {
      blocks = append(blocks, BbiBlock{s.Offset, s.Size})
    } else {
      if blocks, err = tree.findOverlappingBlocks(int64(s.Offset), chromId, start, end, all, blocks); err != nil {
        return blocks, err
      }
    }
  }
  return blocks, nil
}

// Return all blocks that may contain data overlapping [start, end) on
// the given chromosome. Blocks may also contain items outside the query
// range.
func (tree *RTreeFile) FindOverlappingBlocks(chromId, start, end uint32) ([]BbiBlock, error) {
  if tree.ItemCount == 0 {
    return nil, nil
  }
  return tree.findOverlappingBlocks(tree.RootOffset, chromId, start, end, false, nil)
}

// Return all blocks in file order.
func (tree *RTreeFile) AllBlocks() ([]BbiBlock, error) {
  if tree.ItemCount == 0 {
    return nil, nil
  }
  return tree.findOverlappingBlocks(tree.RootOffset, 0, 0, 0, true, nil)
}
