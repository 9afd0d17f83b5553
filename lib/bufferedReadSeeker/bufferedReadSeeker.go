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

package bufferedReadSeeker

/* -------------------------------------------------------------------------- */

import   "fmt"
import   "io"

/* -------------------------------------------------------------------------- */

type BufferedReadSeeker struct {
  reader     io.ReadSeeker
  // file position of the first byte in the buffer
  position   int64
  // read offset within the buffer
  offset     int64
  // number of valid bytes in the buffer
  valid      int64
  buffer   []byte
}

/* -------------------------------------------------------------------------- */

func New(reader io.ReadSeeker, bufsize int) (*BufferedReadSeeker, error) {
  if bufsize <= 0 {
    return nil, fmt.Errorf("invalid buffer size")
  }
  position, err := reader.Seek(0, io.SeekCurrent)
  if err != nil {
    return nil, err
  }
  return &BufferedReadSeeker{reader, position, 0, 0, make([]byte, bufsize)}, nil
}

/* -------------------------------------------------------------------------- */

func (reader *BufferedReadSeeker) fillBuffer() error {
  position := reader.position + reader.offset
  if _, err := reader.reader.Seek(position, io.SeekStart); err != nil {
    return err
  }
  n, err := io.ReadFull(reader.reader, reader.buffer)
  if err == io.ErrUnexpectedEOF {
    err = nil
  }
  reader.position = position
  reader.offset   = 0
  reader.valid    = int64(n)
  return err
}

func (reader *BufferedReadSeeker) Read(p []byte) (int, error) {
  if len(p) == 0 {
    return 0, nil
  }
  if reader.offset >= reader.valid {
    if len(p) >= len(reader.buffer) {
      // more bytes requested than can be buffered
      position := reader.position + reader.offset
      if _, err := reader.reader.Seek(position, io.SeekStart); err != nil {
        return 0, err
      }
      n, err := reader.reader.Read(p)
      reader.position = position + int64(n)
      reader.offset   = 0
      reader.valid    = 0
      return n, err
    }
    if err := reader.fillBuffer(); err != nil {
      return 0, err
    }
  }
  n := copy(p, reader.buffer[reader.offset:reader.valid])
  reader.offset += int64(n)
  return n, nil
}

func (reader *BufferedReadSeeker) Seek(offset int64, whence int) (int64, error) {
  var target int64
  switch whence {
  case io.SeekStart:
    target = offset
  case io.SeekCurrent:
    target = reader.position + reader.offset + offset
  case io.SeekEnd:
    if n, err := reader.reader.Seek(offset, io.SeekEnd); err != nil {
      return n, err
    } else {
      target = n
    }
  default:
    return 0, fmt.Errorf("invalid whence `%d'", whence)
  }
  if target < 0 {
    return 0, fmt.Errorf("negative position")
  }
  if target >= reader.position && target <= reader.position + reader.valid {
    reader.offset   = target - reader.position
  } else {
    reader.position = target
    reader.offset   = 0
    reader.valid    = 0
  }
  return target, nil
}

func (reader *BufferedReadSeeker) SetBufSize(n int) error {
  if n <= 0 {
    return fmt.Errorf("invalid buffer size")
  }
  reader.position += reader.offset
  if n <= cap(reader.buffer) {
    reader.buffer = reader.buffer[0:n]
  } else {
    reader.buffer = make([]byte, n)
  }
  reader.offset = 0
  reader.valid  = 0
  return nil
}
