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

// Low level binary i/o shared by all parts of Big Binary Indexed files

/* -------------------------------------------------------------------------- */

import "encoding/binary"
import "fmt"
import "io"
import "math"

/* -------------------------------------------------------------------------- */

func swapUint32(x uint32) uint32 {
  return (x&0x000000ff)<<24 | (x&0x0000ff00)<<8 | (x&0x00ff0000)>>8 | (x&0xff000000)>>24
}

// Determine the byte order of a file from a magic number that was
// decoded as little endian.
func detectByteOrder(magic, expected uint32) (binary.ByteOrder, error) {
  switch magic {
  case expected:
    return binary.LittleEndian, nil
  case swapUint32(expected):
    return binary.BigEndian, nil
  }
  return nil, ErrInvalidMagic
}

/* -------------------------------------------------------------------------- */

func uint64Bytes(order binary.ByteOrder, v uint64) []byte {
  b := make([]byte, 8)
  order.PutUint64(b, v)
  return b
}

func tell(s io.Seeker) (int64, error) {
  return s.Seek(0, io.SeekCurrent)
}

// Read exactly n bytes at the given offset. The position of the reader is
// left at offset+n.
func readAt(reader io.ReadSeeker, offset int64, n int) ([]byte, error) {
  if _, err := reader.Seek(offset, io.SeekStart); err != nil {
    return nil, err
  }
  buffer := make([]byte, n)
  if _, err := io.ReadFull(reader, buffer); err != nil {
    return nil, fmt.Errorf("reading %d bytes at offset %d failed: %w", n, offset, err)
  }
  return buffer, nil
}

// Write data at the given offset and restore the current position.
func writeAt(writer io.WriteSeeker, order binary.ByteOrder, offset int64, data interface{}) error {
  currentPosition, err := tell(writer)
  if err != nil {
    return err
  }
  if _, err := writer.Seek(offset, io.SeekStart); err != nil {
    return err
  }
  if err := binary.Write(writer, order, data); err != nil {
    return err
  }
  if _, err := writer.Seek(currentPosition, io.SeekStart); err != nil {
    return err
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// A reserved slot in an output file that is filled in once its value is
// known.
type bbiPlaceholder struct {
  Position int64
}

// Reserve space for data at the current position.
func reservePlaceholder(writer io.WriteSeeker, order binary.ByteOrder, data interface{}) (bbiPlaceholder, error) {
  position, err := tell(writer)
  if err != nil {
    return bbiPlaceholder{}, err
  }
  if err := binary.Write(writer, order, data); err != nil {
    return bbiPlaceholder{}, err
  }
  return bbiPlaceholder{position}, nil
}

func (p bbiPlaceholder) Fill(writer io.WriteSeeker, order binary.ByteOrder, data interface{}) error {
  return writeAt(writer, order, p.Position, data)
}

/* -------------------------------------------------------------------------- */

// Cursor over a byte slice that decodes numbers in a fixed byte order.
// Reading beyond the end of the buffer sets a sticky error and returns
// zero values.
type byteCursor struct {
  buf   []byte
  pos   int
  order binary.ByteOrder
  err   error
}

func newByteCursor(buf []byte, order binary.ByteOrder) *byteCursor {
  return &byteCursor{buf: buf, order: order}
}

func (c *byteCursor) need(n int) bool {
  if c.err != nil {
    return false
  }
  if n < 0 || c.pos+n > len(c.buf) {
    c.err = fmt.Errorf("unexpected end of data: need %d bytes at position %d, buffer has %d", n, c.pos, len(c.buf))
    return false
  }
  return true
}

func (c *byteCursor) Uint8() uint8 {
  if !c.need(1) {
    return 0
  }
  v := c.buf[c.pos]
  c.pos++
  return v
}

func (c *byteCursor) Uint16() uint16 {
  if !c.need(2) {
    return 0
  }
  v := c.order.Uint16(c.buf[c.pos:])
  c.pos += 2
  return v
}

func (c *byteCursor) Uint32() uint32 {
  if !c.need(4) {
    return 0
  }
  v := c.order.Uint32(c.buf[c.pos:])
  c.pos += 4
  return v
}

func (c *byteCursor) Uint64() uint64 {
  if !c.need(8) {
    return 0
  }
  v := c.order.Uint64(c.buf[c.pos:])
  c.pos += 8
  return v
}

func (c *byteCursor) Float32() float32 {
  return math.Float32frombits(c.Uint32())
}

func (c *byteCursor) Float64() float64 {
  return math.Float64frombits(c.Uint64())
}

// Return the next n bytes without copying.
func (c *byteCursor) Bytes(n int) []byte {
  if !c.need(n) {
    return nil
  }
  v := c.buf[c.pos:c.pos+n]
  c.pos += n
  return v
}

// Return bytes up to the next zero byte, which is consumed but not
// returned.
func (c *byteCursor) CString() []byte {
  if c.err != nil {
    return nil
  }
  for i := c.pos; i < len(c.buf); i++ {
    if c.buf[i] == 0 {
      v := c.buf[c.pos:i]
      c.pos = i+1
      return v
    }
  }
  c.err = fmt.Errorf("unterminated string at position %d", c.pos)
  return nil
}

func (c *byteCursor) Skip(n int) {
  if c.need(n) {
    c.pos += n
  }
}

func (c *byteCursor) Remaining() int {
  return len(c.buf) - c.pos
}

func (c *byteCursor) Err() error {
  return c.err
}

/* -------------------------------------------------------------------------- */

// Append numbers to a byte slice in a fixed byte order.
type byteAppender struct {
  buf   []byte
  order binary.ByteOrder
  tmp   [8]byte
}

func newByteAppender(order binary.ByteOrder, capacity int) *byteAppender {
  return &byteAppender{buf: make([]byte, 0, capacity), order: order}
}

func (a *byteAppender) Uint8(v uint8) {
  a.buf = append(a.buf, v)
}

func (a *byteAppender) Uint16(v uint16) {
  a.order.PutUint16(a.tmp[0:2], v)
  a.buf = append(a.buf, a.tmp[0:2]...)
}

func (a *byteAppender) Uint32(v uint32) {
  a.order.PutUint32(a.tmp[0:4], v)
  a.buf = append(a.buf, a.tmp[0:4]...)
}

func (a *byteAppender) Uint64(v uint64) {
  a.order.PutUint64(a.tmp[0:8], v)
  a.buf = append(a.buf, a.tmp[0:8]...)
}

func (a *byteAppender) Float32(v float32) {
  a.Uint32(math.Float32bits(v))
}

func (a *byteAppender) Float64(v float64) {
  a.Uint64(math.Float64bits(v))
}

func (a *byteAppender) Bytes(v []byte) {
  a.buf = append(a.buf, v...)
}

func (a *byteAppender) Zeros(n int) {
  for i := 0; i < n; i++ {
    a.buf = append(a.buf, 0)
  }
}

func (a *byteAppender) Len() int {
  return len(a.buf)
}

func (a *byteAppender) Result() []byte {
  return a.buf
}

func (a *byteAppender) Reset() {
  a.buf = a.buf[:0]
}
