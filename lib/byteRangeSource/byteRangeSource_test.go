/* Copyright (C) 2017 Philipp Benner
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

package byteRangeSource

/* -------------------------------------------------------------------------- */

import   "bytes"
import   "io"
import   "os"
import   "path/filepath"
import   "testing"

/* -------------------------------------------------------------------------- */

func testByteRangeSource(t *testing.T, source ByteRangeSource, data []byte) {
  for _, position := range []int64{10, 0, 4000, 123} {
    if _, err := source.Seek(position, io.SeekStart); err != nil {
      t.Error(err); return
    }
    buf := make([]byte, 50)
    if _, err := io.ReadFull(source, buf); err != nil {
      t.Error(err); return
    }
    if !bytes.Equal(buf, data[position:position+50]) {
      t.Errorf("reading at position %d failed", position)
    }
  }
}

func TestByteRangeSource1(t *testing.T) {
  data := make([]byte, 5000)
  for i := range data {
    data[i] = byte(i*7)
  }
  filename := filepath.Join(t.TempDir(), "data.bin")
  if err := os.WriteFile(filename, data, 0644); err != nil {
    t.Error(err); return
  }
  // memory mapped
  if source, err := Open(filename); err != nil {
    t.Error(err)
  } else {
    testByteRangeSource(t, source, data)
    if err := source.Close(); err != nil {
      t.Error(err)
    }
  }
  // buffered
  f, err := os.Open(filename)
  if err != nil {
    t.Error(err); return
  }
  if source, err := NewBuffered(f, 128); err != nil {
    t.Error(err)
  } else {
    testByteRangeSource(t, source, data)
    source.Close()
  }
}

func TestByteRangeSource2(t *testing.T) {
  filename := filepath.Join(t.TempDir(), "empty.bin")
  if err := os.WriteFile(filename, nil, 0644); err != nil {
    t.Error(err); return
  }
  source, err := Open(filename)
  if err != nil {
    t.Error(err); return
  }
  defer source.Close()
  buf := make([]byte, 1)
  if _, err := source.Read(buf); err != io.EOF {
    t.Error("TestByteRangeSource2 failed!")
  }
}
