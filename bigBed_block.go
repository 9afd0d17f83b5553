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

import "fmt"
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

type BigBedItem struct {
  ChromId uint32
  Start   uint32
  End     uint32
  // tab separated fields following chrom, start and end
  Rest    string
}

func (item *BigBedItem) ByteSize() int {
  return 12 + len(item.Rest) + 1
}

func (item *BigBedItem) encode(a *byteAppender) {
  a.Uint32(item.ChromId)
  a.Uint32(item.Start)
  a.Uint32(item.End)
  a.Bytes ([]byte(item.Rest))
  a.Uint8 (0)
}

// Value of a bed field, where fields 0, 1 and 2 are the chromosome name,
// start and end.
func (item *BigBedItem) Field(chrom string, i int) (string, bool) {
  switch i {
  case 0:
    return chrom, true
  case 1:
    return strconv.FormatUint(uint64(item.Start), 10), true
  case 2:
    return strconv.FormatUint(uint64(item.End), 10), true
  }
  if i < 0 || item.Rest == "" {
    return "", false
  }
  fields := strings.Split(item.Rest, "\t")
  if i-3 >= len(fields) {
    return "", false
  }
  return fields[i-3], true
}

/* -------------------------------------------------------------------------- */

func decodeBigBedItems(c *byteCursor) ([]BigBedItem, error) {
  r := []BigBedItem{}
  for c.Remaining() > 0 {
    item := BigBedItem{}
    item.ChromId = c.Uint32()
    item.Start   = c.Uint32()
    item.End     = c.Uint32()
    item.Rest    = string(c.CString())
    if err := c.Err(); err != nil {
      return nil, fmt.Errorf("decoding bigBed item failed: %w", err)
    }
    r = append(r, item)
  }
  return r, nil
}
