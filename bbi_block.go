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

import "bytes"
import "fmt"
import "io"

import "github.com/klauspost/compress/zlib"

/* -------------------------------------------------------------------------- */

// Compresses data blocks with zlib. The encoder reuses its internal
// state between blocks.
type blockEncoder struct {
  buffer bytes.Buffer
  writer *zlib.Writer
}

func (e *blockEncoder) Encode(data []byte) ([]byte, error) {
  e.buffer.Reset()
  if e.writer == nil {
    if w, err := zlib.NewWriterLevel(&e.buffer, zlib.BestCompression); err != nil {
      return nil, err
    } else {
      e.writer = w
    }
  } else {
    e.writer.Reset(&e.buffer)
  }
  if _, err := e.writer.Write(data); err != nil {
    return nil, err
  }
  if err := e.writer.Close(); err != nil {
    return nil, err
  }
  r := make([]byte, e.buffer.Len())
  copy(r, e.buffer.Bytes())
  return r, nil
}

/* -------------------------------------------------------------------------- */

// Uncompresses data blocks into a scratch buffer whose size is fixed when
// the file is opened. A buffer size of zero means that blocks are not
// compressed.
type blockDecoder struct {
  bufSize int
  buffer  []byte
  reader  io.ReadCloser
  source  bytes.Reader
}

func newBlockDecoder(bufSize int) *blockDecoder {
  return &blockDecoder{bufSize: bufSize}
}

// Decode a single block. The result is only valid until the next call
// to Decode.
func (d *blockDecoder) Decode(data []byte) ([]byte, error) {
  if d.bufSize == 0 {
    return data, nil
  }
  if d.buffer == nil {
    d.buffer = make([]byte, d.bufSize)
  }
  d.source.Reset(data)
  if d.reader == nil {
    if r, err := zlib.NewReader(&d.source); err != nil {
      return nil, fmt.Errorf("uncompressing block failed: %w", err)
    } else {
      d.reader = r
    }
  } else {
    if err := d.reader.(zlib.Resetter).Reset(&d.source, nil); err != nil {
      return nil, fmt.Errorf("uncompressing block failed: %w", err)
    }
  }
  n, err := io.ReadFull(d.reader, d.buffer)
  switch err {
  case io.EOF, io.ErrUnexpectedEOF:
  case nil:
    // buffer is full, the stream must end here
    var tmp [1]byte
    if m, err := d.reader.Read(tmp[:]); m != 0 {
      return nil, fmt.Errorf("uncompressed block exceeds maximum size of %d bytes", d.bufSize)
    } else if err != nil && err != io.EOF {
      return nil, fmt.Errorf("uncompressing block failed: %w", err)
    }
  default:
    return nil, fmt.Errorf("uncompressing block failed: %w", err)
  }
  return d.buffer[0:n], nil
}

/* -------------------------------------------------------------------------- */

// Read a list of blocks sorted by file offset. Blocks that are adjacent
// in the file are fetched with a single read. Function f is called on
// every block in the order of the list.
func readBlocks(reader io.ReadSeeker, blocks []BbiBlock, f func(block BbiBlock, data []byte) error) error {
  for i := 0; i < len(blocks); {
    j   := i+1
    end := blocks[i].Offset + blocks[i].Size
    for j < len(blocks) && blocks[j].Offset == end {
      end += blocks[j].Size
      j++
    }
    buffer, err := readAt(reader, int64(blocks[i].Offset), int(end - blocks[i].Offset))
    if err != nil {
      return err
    }
    for k := i; k < j; k++ {
      from := blocks[k].Offset - blocks[i].Offset
      if err := f(blocks[k], buffer[from:from+blocks[k].Size]); err != nil {
        return err
      }
    }
    i = j
  }
  return nil
}
