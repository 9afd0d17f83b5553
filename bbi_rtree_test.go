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

import   "encoding/binary"
import   "testing"

/* -------------------------------------------------------------------------- */

func writeTestRTree(t *testing.T, tree *RTree, endOfData uint64) *RTreeFile {
  f := newTestFile(t)
  // fake data section
  f.Write(make([]byte, endOfData))
  if err := tree.Write(f, binary.LittleEndian, endOfData); err != nil {
    t.Fatal(err)
  }
  r, err := OpenRTreeFile(f, int64(endOfData))
  if err != nil {
    t.Fatal(err)
  }
  return r
}

/* -------------------------------------------------------------------------- */

func TestRTree1(t *testing.T) {
  tree := NewRTree(256, 1)
  tree.Add(RTreeItem{0,  0, 0,  40, 0})
  tree.Add(RTreeItem{0, 40, 0, 100, 64})
  r := writeTestRTree(t, tree, 128)

  if r.ItemCount != 2 || r.EndOfData != 128 {
    t.Error("TestRTree1 failed!")
  }
  if r.ChromIdStart != 0 || r.BaseStart != 0 || r.ChromIdEnd != 0 || r.BaseEnd != 100 {
    t.Error("TestRTree1 failed!")
  }
  blocks, err := r.FindOverlappingBlocks(0, 50, 60)
  if err != nil {
    t.Error(err); return
  }
  if len(blocks) != 1 || blocks[0].Offset != 64 || blocks[0].Size != 64 {
    t.Error("TestRTree1 failed!")
  }
  blocks, _ = r.FindOverlappingBlocks(0, 30, 60)
  if len(blocks) != 2 || blocks[0].Offset != 0 || blocks[0].Size != 64 {
    t.Error("TestRTree1 failed!")
  }
  // half-open intervals
  if blocks, _ := r.FindOverlappingBlocks(0, 100, 200); len(blocks) != 0 {
    t.Error("TestRTree1 failed!")
  }
  if blocks, _ := r.FindOverlappingBlocks(1, 0, 200); len(blocks) != 0 {
    t.Error("TestRTree1 failed!")
  }
}

func TestRTree2(t *testing.T) {
  // many items on several chromosomes with a small block size
  // to obtain multiple index levels
  tree := NewRTree(2, 3)
  offset := uint64(0)
  for chrom := uint32(0); chrom < 3; chrom++ {
    for i := uint32(0); i < 20; i++ {
      tree.Add(RTreeItem{chrom, i*10, chrom, i*10+10, offset})
      offset += 10
    }
  }
  r := writeTestRTree(t, tree, offset)

  if all, err := r.AllBlocks(); err != nil {
    t.Error(err)
  } else {
    // each block contains three items
    if len(all) != 20 {
      t.Errorf("TestRTree2 failed: found %d blocks", len(all))
    }
    for i := 1; i < len(all); i++ {
      if all[i].Offset != all[i-1].Offset + all[i-1].Size {
        t.Error("TestRTree2 failed!")
      }
    }
  }
  blocks, err := r.FindOverlappingBlocks(1, 35, 45)
  if err != nil {
    t.Error(err); return
  }
  // item 3 of chromosome 1 is the last item of block 7, item 4 the first
  // item of block 8
  if len(blocks) != 2 || blocks[0].Offset != 210 || blocks[1].Offset != 240 || blocks[1].Size != 30 {
    t.Error("TestRTree2 failed!")
  }
}

func TestRTree3(t *testing.T) {
  // tree without items
  tree := NewRTree(256, 1)
  r := writeTestRTree(t, tree, 8)
  if r.ItemCount != 0 {
    t.Error("TestRTree3 failed!")
  }
  if blocks, err := r.FindOverlappingBlocks(0, 0, 100); err != nil || len(blocks) != 0 {
    t.Error("TestRTree3 failed!")
  }
}
