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

import "bufio"
import "io"
import "os"
import "regexp"
import "strings"
import "unicode"

import "github.com/klauspost/compress/gzip"

/* -------------------------------------------------------------------------- */

func iMin(a, b int) int {
  if a < b {
    return a
  } else {
    return b
  }
}

func iMax(a, b int) int {
  if a > b {
    return a
  } else {
    return b
  }
}

// Divide a by b, the result is rounded up.
func divIntUp(a, b int) int {
  return (a+b-1)/b
}

// Number of bases shared by [start1, end1) and [start2, end2), zero if the
// ranges do not intersect.
func rangeIntersection(start1, end1, start2, end2 int) int {
  s := iMax(start1, start2)
  e := iMin(end1, end2)
  if e < s {
    return 0
  }
  return e-s
}

// Compare (aHi, aLo) with (bHi, bLo) lexicographically, returns -1, 0
// or 1.
func cmpUint32Pair(aHi, aLo, bHi, bLo uint32) int {
  switch {
  case aHi < bHi: return -1
  case aHi > bHi: return  1
  case aLo < bLo: return -1
  case aLo > bLo: return  1
  }
  return 0
}

/* -------------------------------------------------------------------------- */

func isGzip(filename string) bool {

  f, err := os.Open(filename)
  if err != nil {
    return false
  }
  defer f.Close()

  b := make([]byte, 2)
  n, err := f.Read(b)
  if err != nil {
    return false
  }

  if n == 2 && b[0] == 31 && b[1] == 139 {
    return true
  }
  return false
}

type textFile struct {
  io.Reader
  closers []io.Closer
}

func (f textFile) Close() error {
  var err error
  for i := len(f.closers)-1; i >= 0; i-- {
    if e := f.closers[i].Close(); e != nil && err == nil {
      err = e
    }
  }
  return err
}

// Open a text file for reading, gzip compressed files are decompressed
// on the fly.
func openTextFile(filename string) (io.ReadCloser, error) {
  f, err := os.Open(filename)
  if err != nil {
    return nil, err
  }
  if !isGzip(filename) {
    return textFile{f, []io.Closer{f}}, nil
  }
  g, err := gzip.NewReader(f)
  if err != nil {
    f.Close()
    return nil, err
  }
  return textFile{g, []io.Closer{f, g}}, nil
}

/* -------------------------------------------------------------------------- */

func fieldsQuoted(line string) []string {
  // if quoted
  q := false
  f := func(r rune) bool {
    if r == '"' {
      q = !q
    }
    return unicode.IsSpace(r) && q == false
  }
  return strings.FieldsFunc(line, f)
}

func removeQuotes(str string) string {
  reg := regexp.MustCompile(`"([^"]*)"`)
  if reg.MatchString(str) {
    return reg.ReplaceAllString(str, "${1}")
  }
  return str
}

/* -------------------------------------------------------------------------- */

// Line scanner that keeps track of line numbers and allows to push back
// a single line.
type lineScanner struct {
  scanner *bufio.Scanner
  line     string
  lineNum  int
  reuse    bool
}

func newLineScanner(r io.Reader) *lineScanner {
  scanner := bufio.NewScanner(r)
  scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
  return &lineScanner{scanner: scanner}
}

func (s *lineScanner) Scan() bool {
  if s.reuse {
    s.reuse = false
    return true
  }
  if !s.scanner.Scan() {
    return false
  }
  s.line = s.scanner.Text()
  s.lineNum++
  return true
}

// Skip empty lines and comments.
func (s *lineScanner) ScanReal() bool {
  for s.Scan() {
    if t := strings.TrimSpace(s.line); t != "" && t[0] != '#' {
      return true
    }
  }
  return false
}

func (s *lineScanner) Text() string {
  return s.line
}

func (s *lineScanner) LineNum() int {
  return s.lineNum
}

func (s *lineScanner) Reuse() {
  s.reuse = true
}

func (s *lineScanner) Err() error {
  return s.scanner.Err()
}
