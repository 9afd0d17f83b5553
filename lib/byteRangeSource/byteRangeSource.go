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

// Package byteRangeSource provides random access to local files. Regular
// files are memory mapped, everything else is read through a buffered
// reader.
package byteRangeSource

/* -------------------------------------------------------------------------- */

import   "bytes"
import   "io"
import   "os"

import   "github.com/edsrzf/mmap-go"

import   "github.com/pbenner/gobbi/lib/bufferedReadSeeker"

/* -------------------------------------------------------------------------- */

const DefaultBufSize = 64*1024

type ByteRangeSource interface {
  io.ReadSeeker
  io.Closer
}

/* -------------------------------------------------------------------------- */

type mappedFile struct {
  *bytes.Reader
  file *os.File
  data  mmap.MMap
}

func (m *mappedFile) Close() error {
  err1 := m.data.Unmap()
  err2 := m.file.Close()
  if err1 != nil {
    return err1
  }
  return err2
}

/* -------------------------------------------------------------------------- */

type bufferedFile struct {
  *bufferedReadSeeker.BufferedReadSeeker
  file *os.File
}

func (b *bufferedFile) Close() error {
  return b.file.Close()
}

/* -------------------------------------------------------------------------- */

func NewBuffered(f *os.File, bufsize int) (ByteRangeSource, error) {
  reader, err := bufferedReadSeeker.New(f, bufsize)
  if err != nil {
    return nil, err
  }
  return &bufferedFile{reader, f}, nil
}

// Open a local file for reading. The file is mapped into memory if
// possible. Empty files and files that cannot be mapped are accessed
// through a buffer of DefaultBufSize bytes.
func Open(filename string) (ByteRangeSource, error) {
  f, err := os.Open(filename)
  if err != nil {
    return nil, err
  }
  if info, err := f.Stat(); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
    if data, err := mmap.Map(f, mmap.RDONLY, 0); err == nil {
      return &mappedFile{bytes.NewReader(data), f, data}, nil
    }
  }
  if r, err := NewBuffered(f, DefaultBufSize); err != nil {
    f.Close()
    return nil, err
  } else {
    return r, nil
  }
}
