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
import "io"
import "regexp"
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

var bedTypeRegexp = regexp.MustCompile(`^bed([0-9]+)(\+([0-9]*))?$`)

// Parse a bed type of the form bedN or bedN+M. The first return value
// is the number of standard bed fields, the second the total number of
// fields or zero if it is not fixed.
func ParseBedType(str string) (int, int, error) {
  m := bedTypeRegexp.FindStringSubmatch(str)
  if m == nil {
    return 0, 0, fmt.Errorf("invalid bed type `%s'", str)
  }
  n, _ := strconv.Atoi(m[1])
  if n < 3 || n > len(bedAutoSqlFields) {
    return 0, 0, fmt.Errorf("invalid bed type `%s': number of fields must be between 3 and %d", str, len(bedAutoSqlFields))
  }
  switch {
  case m[2] == "":
    return n, n, nil
  case m[3] == "":
    return n, 0, nil
  }
  k, _ := strconv.Atoi(m[3])
  return n, n+k, nil
}

/* -------------------------------------------------------------------------- */

func readBed_line(line string, writer *BigBedWriter) error {
  var fields []string
  if strings.Contains(line, "\t") {
    fields = strings.Split(line, "\t")
  } else {
    fields = strings.Fields(line)
  }
  if len(fields) < 3 {
    return fmt.Errorf("expected at least 3 columns but found %d", len(fields))
  }
  t1, err := strconv.ParseInt(fields[1], 10, 64)
  if err != nil {
    return fmt.Errorf("invalid start position `%s'", fields[1])
  }
  t2, err := strconv.ParseInt(fields[2], 10, 64)
  if err != nil {
    return fmt.Errorf("invalid end position `%s'", fields[2])
  }
  return writer.Write(fields[0], int(t1), int(t2), strings.Join(fields[3:], "\t"))
}

// Read a bed file and add all items to a bigBed writer. Columns are
// separated by tabs, or by white space if a line contains no tab.
func ReadBed(r io.Reader, writer *BigBedWriter) error {
  scanner := newLineScanner(r)
  for scanner.ScanReal() {
    line := strings.TrimRight(scanner.Text(), "\r\n")
    if strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
      continue
    }
    if err := readBed_line(line, writer); err != nil {
      return fmt.Errorf("line %d: %w", scanner.LineNum(), err)
    }
  }
  return scanner.Err()
}

func ImportBed(filename string, writer *BigBedWriter) error {
  f, err := openTextFile(filename)
  if err != nil {
    return err
  }
  defer f.Close()
  if err := ReadBed(f, writer); err != nil {
    return fmt.Errorf("reading `%s' failed: %w", filename, err)
  }
  return nil
}
