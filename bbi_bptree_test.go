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

import   "bytes"
import   "encoding/binary"
import   "errors"
import   "fmt"
import   "os"
import   "testing"

/* -------------------------------------------------------------------------- */

func newTestFile(t *testing.T) *os.File {
  f, err := os.CreateTemp(t.TempDir(), "gobbi-*")
  if err != nil {
    t.Fatal(err)
  }
  t.Cleanup(func() { f.Close() })
  return f
}

func writeTestBTree(t *testing.T, f *os.File, order binary.ByteOrder, blockSize int, keys []string, values []uint32) *BTreeFile {
  tree := NewBTree(5, 4, blockSize)
  for i, key := range keys {
    value := make([]byte, 4)
    order.PutUint32(value, values[i])
    if err := tree.Add([]byte(key), value); err != nil {
      t.Fatal(err)
    }
  }
  tree.Sort()
  // some leading bytes so that the tree does not start at offset zero
  f.Write([]byte("data"))
  if err := tree.Write(f, order); err != nil {
    t.Fatal(err)
  }
  r, err := OpenBTreeFile(f, 4)
  if err != nil {
    t.Fatal(err)
  }
  return r
}

/* -------------------------------------------------------------------------- */

func TestBTree1(t *testing.T) {
  for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
    f := newTestFile(t)
    r := writeTestBTree(t, f, order, 2, []string{"chr2", "chr1", "chr10"}, []uint32{2, 0, 1})

    if r.ItemCount != 3 || r.KeySize != 5 || r.ValueSize != 4 || r.Order != order {
      t.Error("TestBTree1 failed!")
    }
    // three items and block size two require an index level above the leaves
    if bptCountLevels(2, 3) != 2 {
      t.Error("TestBTree1 failed!")
    }
    if v, ok, err := r.Find([]byte("chr10"), 4); err != nil || !ok || order.Uint32(v) != 1 {
      t.Error("TestBTree1 failed!")
    }
    if v, ok, err := r.Find([]byte("chr2"), 4); err != nil || !ok || order.Uint32(v) != 2 {
      t.Error("TestBTree1 failed!")
    }
    if v, ok, err := r.Find([]byte("chr1"), 4); err != nil || !ok || order.Uint32(v) != 0 {
      t.Error("TestBTree1 failed!")
    }
    if _, ok, err := r.Find([]byte("chr3"), 4); err != nil || ok {
      t.Error("TestBTree1 failed!")
    }
    // keys longer than the key size can not be contained in the tree
    if _, ok, err := r.Find([]byte("chr100"), 4); err != nil || ok {
      t.Error("TestBTree1 failed!")
    }
    if _, _, err := r.Find([]byte("chr1"), 8); !errors.Is(err, ErrValueSize) {
      t.Error("TestBTree1 failed!")
    }
  }
}

func TestBTree2(t *testing.T) {
  f := newTestFile(t)
  keys   := []string{}
  values := []uint32{}
  for i := 0; i < 100; i++ {
    keys   = append(keys,   fmt.Sprintf("k%02d", i))
    values = append(values, uint32(i))
  }
  r := writeTestBTree(t, f, binary.LittleEndian, 3, keys, values)

  for i := 0; i < 100; i++ {
    if v, ok, err := r.Find([]byte(keys[i]), 4); err != nil || !ok || binary.LittleEndian.Uint32(v) != uint32(i) {
      t.Errorf("TestBTree2 failed for key `%s'", keys[i])
    }
  }
  // traverse all items in key order
  i := 0
  if err := r.Traverse(func(key, value []byte) error {
    if string(bytes.TrimRight(key, "\x00")) != keys[i] {
      t.Errorf("TestBTree2 failed: expected key `%s'", keys[i])
    }
    i++
    return nil
  }); err != nil {
    t.Error(err)
  }
  if i != 100 {
    t.Error("TestBTree2 failed!")
  }
}

func TestBTree3(t *testing.T) {
  f := newTestFile(t)
  keys   := []string{"a", "b", "b", "b", "b", "b", "c", "d"}
  values := []uint32{ 0,   1,   2,   3,   4,   5,   6,   7}
  r := writeTestBTree(t, f, binary.LittleEndian, 2, keys, values)

  v, err := r.FindMultiple([]byte("b"), 4)
  if err != nil {
    t.Error(err); return
  }
  if len(v) != 5 {
    t.Errorf("TestBTree3 failed: found %d values", len(v))
    return
  }
  for i := range v {
    if binary.LittleEndian.Uint32(v[i]) != uint32(i+1) {
      t.Error("TestBTree3 failed!")
    }
  }
  if v, err := r.FindMultiple([]byte("e"), 4); err != nil || len(v) != 0 {
    t.Error("TestBTree3 failed!")
  }
  if v, err := r.FindMultiple([]byte("a"), 4); err != nil || len(v) != 1 {
    t.Error("TestBTree3 failed!")
  }
}

func TestBTree4(t *testing.T) {
  tree := NewBTree(4, 4, 2)
  if err := tree.Add([]byte("chr10"), make([]byte, 4)); !errors.Is(err, ErrKeySize) {
    t.Error("TestBTree4 failed!")
  }
  if err := tree.Add([]byte("chr1"), make([]byte, 3)); !errors.Is(err, ErrValueSize) {
    t.Error("TestBTree4 failed!")
  }
  tree.Add([]byte("chr2"), make([]byte, 4))
  tree.Add([]byte("chr1"), make([]byte, 4))
  f := newTestFile(t)
  if err := tree.Write(f, binary.LittleEndian); !errors.Is(err, ErrUnsorted) {
    t.Error("TestBTree4 failed!")
  }
}

func TestBTree5(t *testing.T) {
  // empty tree
  f := newTestFile(t)
  r := writeTestBTree(t, f, binary.LittleEndian, 4, nil, nil)
  if _, ok, err := r.Find([]byte("chr1"), 4); err != nil || ok {
    t.Error("TestBTree5 failed!")
  }
  if err := r.Traverse(func(key, value []byte) error {
    t.Error("TestBTree5 failed!")
    return nil
  }); err != nil {
    t.Error(err)
  }
}
