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

// On-disk B+ tree that maps fixed size keys to fixed size values. Trees are
// built in bulk from sorted data and are read-only afterwards.

/* -------------------------------------------------------------------------- */

import "bytes"
import "encoding/binary"
import "fmt"
import "io"
import "sort"

/* -------------------------------------------------------------------------- */

const BPT_MAGIC = 0x78ca8c91

const bptHeaderSize = 32

/* -------------------------------------------------------------------------- */

// Number of levels required for a tree with itemCount leaf items.
func bptCountLevels(blockSize, itemCount uint64) int {
  levels := 1
  for itemCount > blockSize {
    itemCount = (itemCount + blockSize - 1)/blockSize
    levels++
  }
  return levels
}

/* -------------------------------------------------------------------------- */

type BTree struct {
  BlockSize   uint32
  KeySize     uint32
  ValueSize   uint32
  Keys      [][]byte
  Values    [][]byte
}

func NewBTree(keySize, valueSize, blockSize int) *BTree {
  tree := BTree{}
  tree.KeySize   = uint32(keySize)
  tree.ValueSize = uint32(valueSize)
  tree.BlockSize = uint32(blockSize)
  return &tree
}

// Add a new item to the tree. Keys shorter than the key size of the tree
// are padded with zeros.
func (tree *BTree) Add(key, value []byte) error {
  if uint32(len(key)) > tree.KeySize {
    return fmt.Errorf("key `%s' has %d bytes, but key size is %d: %w", string(key), len(key), tree.KeySize, ErrKeySize)
  }
  if uint32(len(value)) != tree.ValueSize {
    return fmt.Errorf("value has %d bytes, but value size is %d: %w", len(value), tree.ValueSize, ErrValueSize)
  }
  k := make([]byte, tree.KeySize)
  v := make([]byte, tree.ValueSize)
  copy(k, key)
  copy(v, value)
  tree.Keys   = append(tree.Keys,   k)
  tree.Values = append(tree.Values, v)
  return nil
}

func (tree *BTree) Len() int {
  return len(tree.Keys)
}

func (tree *BTree) Less(i, j int) bool {
  return bytes.Compare(tree.Keys[i], tree.Keys[j]) < 0
}

func (tree *BTree) Swap(i, j int) {
  tree.Keys  [i], tree.Keys  [j] = tree.Keys  [j], tree.Keys  [i]
  tree.Values[i], tree.Values[j] = tree.Values[j], tree.Values[i]
}

// Sort items by key. Items with identical keys keep their order.
func (tree *BTree) Sort() {
  sort.Stable(tree)
}

func (tree *BTree) writeIndexLevel(writer io.Writer, order binary.ByteOrder, indexOffset uint64, level int) (uint64, error) {
  blockSize := uint64(tree.BlockSize)
  keySize   := uint64(tree.KeySize)
  valueSize := uint64(tree.ValueSize)
  itemCount := uint64(len(tree.Keys))
  // number of leaf items below a single slot of this level
  slotSizePer := uint64(1)
  for i := 0; i < level; i++ {
    slotSizePer *= blockSize
  }
  nodeSizePer := slotSizePer*blockSize
  nodeCount   := (itemCount + nodeSizePer - 1)/nodeSizePer

  bytesInIndexBlock     := 4 + blockSize*(keySize+8)
  bytesInLeafBlock      := 4 + blockSize*(keySize+valueSize)
  bytesInNextLevelBlock := bytesInIndexBlock
  if level == 1 {
    bytesInNextLevelBlock = bytesInLeafBlock
  }
  endLevel  := indexOffset + nodeCount*bytesInIndexBlock
  nextChild := endLevel

  a := newByteAppender(order, int(bytesInIndexBlock))

  for i := uint64(0); i < itemCount; i += nodeSizePer {
    countOne := (itemCount - i + slotSizePer - 1)/slotSizePer
    if countOne > blockSize {
      countOne = blockSize
    }
    a.Reset()
    a.Uint8 (0)
    a.Uint8 (0)
    a.Uint16(uint16(countOne))
    for j := uint64(0); j < countOne; j++ {
      a.Bytes (tree.Keys[i + j*slotSizePer])
      a.Uint64(nextChild)
      nextChild += bytesInNextLevelBlock
    }
    // empty slots
    a.Zeros(int((blockSize-countOne)*(keySize+8)))
    if _, err := writer.Write(a.Result()); err != nil {
      return 0, err
    }
  }
  return endLevel, nil
}

func (tree *BTree) writeLeafLevel(writer io.Writer, order binary.ByteOrder) error {
  blockSize := uint64(tree.BlockSize)
  itemSize  := uint64(tree.KeySize + tree.ValueSize)
  itemCount := uint64(len(tree.Keys))

  a := newByteAppender(order, int(4 + blockSize*itemSize))

  for i := uint64(0); i < itemCount; i += blockSize {
    countOne := itemCount - i
    if countOne > blockSize {
      countOne = blockSize
    }
    a.Reset()
    a.Uint8 (1)
    a.Uint8 (0)
    a.Uint16(uint16(countOne))
    for j := i; j < i+countOne; j++ {
      a.Bytes(tree.Keys  [j])
      a.Bytes(tree.Values[j])
    }
    a.Zeros(int((blockSize-countOne)*itemSize))
    if _, err := writer.Write(a.Result()); err != nil {
      return err
    }
  }
  return nil
}

// Write the tree at the current position of writer. Items must be sorted
// by key.
func (tree *BTree) Write(writer io.WriteSeeker, order binary.ByteOrder) error {
  itemCount := uint64(len(tree.Keys))
  if tree.BlockSize == 0 {
    tree.BlockSize = 1
  }
  if tree.BlockSize < 2 && itemCount > 1 {
    return fmt.Errorf("invalid B+ tree block size `%d'", tree.BlockSize)
  }
  // BlockSize has 32 bits but the item count of a node only 16 bits
  if tree.BlockSize > uint32(^uint16(0)) {
    return fmt.Errorf("B+ tree block size too large (maximum value is `%d')", ^uint16(0))
  }
  for i := 1; i < len(tree.Keys); i++ {
    if bytes.Compare(tree.Keys[i-1], tree.Keys[i]) > 0 {
      return fmt.Errorf("B+ tree key `%s' is not sorted: %w", string(bytes.TrimRight(tree.Keys[i], "\x00")), ErrUnsorted)
    }
  }
  offset, err := tell(writer)
  if err != nil {
    return err
  }
  a := newByteAppender(order, bptHeaderSize)
  a.Uint32(BPT_MAGIC)
  a.Uint32(tree.BlockSize)
  a.Uint32(tree.KeySize)
  a.Uint32(tree.ValueSize)
  a.Uint64(itemCount)
  // reserved
  a.Uint32(0)
  a.Uint32(0)
  if _, err := writer.Write(a.Result()); err != nil {
    return err
  }
  indexOffset := uint64(offset) + bptHeaderSize
  // write index levels from the root down to the leaves
  for level := bptCountLevels(uint64(tree.BlockSize), itemCount)-1; level > 0; level-- {
    endLevelOffset, err := tree.writeIndexLevel(writer, order, indexOffset, level)
    if err != nil {
      return err
    }
    if offset, err := tell(writer); err != nil {
      return err
    } else {
      indexOffset = uint64(offset)
    }
    if indexOffset != endLevelOffset {
      return fmt.Errorf("internal error: B+ tree level ends at offset %d, expected %d", indexOffset, endLevelOffset)
    }
  }
  return tree.writeLeafLevel(writer, order)
}

/* -------------------------------------------------------------------------- */

// Handle for a B+ tree stored in a file. Nodes are read on demand.
type BTreeFile struct {
  Reader     io.ReadSeeker
  Order      binary.ByteOrder
  BlockSize  uint32
  KeySize    uint32
  ValueSize  uint32
  ItemCount  uint64
  RootOffset int64
}

func OpenBTreeFile(reader io.ReadSeeker, offset int64) (*BTreeFile, error) {
  buffer, err := readAt(reader, offset, bptHeaderSize)
  if err != nil {
    return nil, err
  }
  order, err := detectByteOrder(binary.LittleEndian.Uint32(buffer[0:4]), BPT_MAGIC)
  if err != nil {
    return nil, fmt.Errorf("invalid B+ tree at offset %d: %w", offset, err)
  }
  tree := BTreeFile{Reader: reader, Order: order}
  c := newByteCursor(buffer[4:], order)
  tree.BlockSize  = c.Uint32()
  tree.KeySize    = c.Uint32()
  tree.ValueSize  = c.Uint32()
  tree.ItemCount  = c.Uint64()
  tree.RootOffset = offset + bptHeaderSize
  return &tree, c.Err()
}

func (tree *BTreeFile) readNode(offset int64) (bool, int, *byteCursor, error) {
  header, err := readAt(tree.Reader, offset, 4)
  if err != nil {
    return false, 0, nil, err
  }
  isLeaf := header[0] != 0
  count  := int(tree.Order.Uint16(header[2:4]))
  itemSize := int(tree.KeySize)
  if isLeaf {
    itemSize += int(tree.ValueSize)
  } else {
    itemSize += 8
  }
  body, err := readAt(tree.Reader, offset+4, count*itemSize)
  if err != nil {
    return false, 0, nil, err
  }
  return isLeaf, count, newByteCursor(body, tree.Order), nil
}

// Pad key with zeros to the key size of the tree. Returns false if the key
// is too long to be contained in the tree.
func (tree *BTreeFile) searchKey(key []byte) ([]byte, bool) {
  if uint32(len(key)) > tree.KeySize {
    return nil, false
  }
  if uint32(len(key)) == tree.KeySize {
    return key, true
  }
  k := make([]byte, tree.KeySize)
  copy(k, key)
  return k, true
}

func (tree *BTreeFile) checkValueSize(valueSize int) error {
  if valueSize != int(tree.ValueSize) {
    return fmt.Errorf("requested value size %d does not match B+ tree value size %d: %w", valueSize, tree.ValueSize, ErrValueSize)
  }
  return nil
}

func (tree *BTreeFile) find(offset int64, key []byte) ([]byte, bool, error) {
  isLeaf, count, c, err := tree.readNode(offset)
  if err != nil {
    return nil, false, err
  }
  keySize := int(tree.KeySize)
  if isLeaf {
    for i := 0; i < count; i++ {
      k := c.Bytes(keySize)
      v := c.Bytes(int(tree.ValueSize))
      if bytes.Equal(k, key) {
        r := make([]byte, len(v))
        copy(r, v)
        return r, true, nil
      }
    }
    return nil, false, c.Err()
  }
  if count == 0 {
    return nil, false, nil
  }
  // descend into the last child whose key is not greater than the
  // search key
  c.Skip(keySize)
  next := c.Uint64()
  for i := 1; i < count; i++ {
    k := c.Bytes(keySize)
    o := c.Uint64()
    if c.Err() != nil || bytes.Compare(key, k) < 0 {
      break
    }
    next = o
  }
  if err := c.Err(); err != nil {
    return nil, false, err
  }
  return tree.find(int64(next), key)
}

// Find the value of a key. The value size must match the value size
// of the tree.
func (tree *BTreeFile) Find(key []byte, valueSize int) ([]byte, bool, error) {
  if err := tree.checkValueSize(valueSize); err != nil {
    return nil, false, err
  }
  k, ok := tree.searchKey(key)
  if !ok || tree.ItemCount == 0 {
    return nil, false, nil
  }
  return tree.find(tree.RootOffset, k)
}

func (tree *BTreeFile) findMultiple(offset int64, key []byte, result [][]byte) ([][]byte, error) {
  isLeaf, count, c, err := tree.readNode(offset)
  if err != nil {
    return result, err
  }
  keySize := int(tree.KeySize)
  if isLeaf {
    for i := 0; i < count; i++ {
      k := c.Bytes(keySize)
      v := c.Bytes(int(tree.ValueSize))
      if c.Err() == nil && bytes.Equal(k, key) {
        r := make([]byte, len(v))
        copy(r, v)
        result = append(result, r)
      }
    }
    return result, c.Err()
  }
  if count == 0 {
    return result, nil
  }
  // identical keys may span several children
  lastCmp    := bytes.Compare(key, c.Bytes(keySize))
  lastOffset := c.Uint64()
  offsetOne  := lastOffset
  for i := 1; i < count; i++ {
    k := c.Bytes(keySize)
    offsetOne = c.Uint64()
    if err := c.Err(); err != nil {
      return result, err
    }
    cmp := bytes.Compare(key, k)
    if lastCmp >= 0 && cmp <= 0 {
      if result, err = tree.findMultiple(int64(lastOffset), key, result); err != nil {
        return result, err
      }
    }
    if cmp < 0 {
      return result, nil
    }
    lastCmp    = cmp
    lastOffset = offsetOne
  }
  if err := c.Err(); err != nil {
    return result, err
  }
  return tree.findMultiple(int64(offsetOne), key, result)
}

// Find all values of a key. Keys in secondary indices are not necessarily
// unique.
func (tree *BTreeFile) FindMultiple(key []byte, valueSize int) ([][]byte, error) {
  if err := tree.checkValueSize(valueSize); err != nil {
    return nil, err
  }
  k, ok := tree.searchKey(key)
  if !ok || tree.ItemCount == 0 {
    return nil, nil
  }
  return tree.findMultiple(tree.RootOffset, k, nil)
}

func (tree *BTreeFile) traverse(offset int64, f func(key, value []byte) error) error {
  isLeaf, count, c, err := tree.readNode(offset)
  if err != nil {
    return err
  }
  keySize := int(tree.KeySize)
  if isLeaf {
    for i := 0; i < count; i++ {
      k := c.Bytes(keySize)
      v := c.Bytes(int(tree.ValueSize))
      if err := c.Err(); err != nil {
        return err
      }
      if err := f(k, v); err != nil {
        return err
      }
    }
    return nil
  }
  children := make([]uint64, count)
  for i := 0; i < count; i++ {
    c.Skip(keySize)
    children[i] = c.Uint64()
  }
  if err := c.Err(); err != nil {
    return err
  }
  for _, child := range children {
    if err := tree.traverse(int64(child), f); err != nil {
      return err
    }
  }
  return nil
}

// Call f on every leaf item in key order. Slices passed to f are only
// valid during the call.
func (tree *BTreeFile) Traverse(f func(key, value []byte) error) error {
  if tree.ItemCount == 0 {
    return nil
  }
  return tree.traverse(tree.RootOffset, f)
}
