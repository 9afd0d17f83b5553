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

import "errors"
import "fmt"
import "io"
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

// Parse a declaration line into key value pairs.
func readWiggle_declaration(line string) (map[string]string, error) {
  fields := fieldsQuoted(line)
  r := make(map[string]string)
  for i := 1; i < len(fields); i++ {
    headerFields := strings.SplitN(fields[i], "=", 2)
    if len(headerFields) != 2 {
      return nil, fmt.Errorf("invalid declaration `%s'", fields[i])
    }
    r[headerFields[0]] = removeQuotes(headerFields[1])
  }
  return r, nil
}

func readWiggle_int(declaration map[string]string, key string, def int) (int, error) {
  v, ok := declaration[key]
  if !ok {
    return def, nil
  }
  t, err := strconv.ParseInt(v, 10, 64)
  if err != nil {
    return 0, fmt.Errorf("invalid value `%s' for `%s'", v, key)
  }
  return int(t), nil
}

func readWiggle_header(line string) error {
  declaration, err := readWiggle_declaration(line)
  if err != nil {
    return err
  }
  if t, ok := declaration["type"]; ok && t != "wiggle_0" && t != "bedGraph" {
    return fmt.Errorf("unsupported track type `%s'", t)
  }
  return nil
}

func readWiggle_fixedStep(scanner *lineScanner, writer *BigWigWriter) error {
  declaration, err := readWiggle_declaration(scanner.Text())
  if err != nil {
    return err
  }
  seqname, ok := declaration["chrom"]
  if !ok {
    return errors.New("declaration line is missing the chromosome name")
  }
  position, err := readWiggle_int(declaration, "start", 0)
  if err != nil {
    return err
  }
  if position < 1 {
    return errors.New("declaration line defines invalid start position")
  }
  // wiggle positions are one-based
  position--
  step, err := readWiggle_int(declaration, "step", 0)
  if err != nil {
    return err
  }
  if step < 1 {
    return errors.New("declaration line defines invalid step size")
  }
  span, err := readWiggle_int(declaration, "span", step)
  if err != nil {
    return err
  }
  for scanner.ScanReal() {
    fields := strings.Fields(scanner.Text())
    if len(fields) != 1 {
      scanner.Reuse()
      break
    }
    t, err := strconv.ParseFloat(fields[0], 64)
    if err != nil {
      return fmt.Errorf("invalid value `%s'", fields[0])
    }
    if err := writer.WriteFixedStep(seqname, position, step, span, t); err != nil {
      return err
    }
    position += step
  }
  return nil
}

func readWiggle_variableStep(scanner *lineScanner, writer *BigWigWriter) error {
  declaration, err := readWiggle_declaration(scanner.Text())
  if err != nil {
    return err
  }
  seqname, ok := declaration["chrom"]
  if !ok {
    return errors.New("declaration line is missing the chromosome name")
  }
  span, err := readWiggle_int(declaration, "span", 1)
  if err != nil {
    return err
  }
  if span < 1 {
    return errors.New("declaration line defines invalid span")
  }
  for scanner.ScanReal() {
    fields := strings.Fields(scanner.Text())
    if len(fields) != 2 {
      scanner.Reuse()
      break
    }
    t1, err := strconv.ParseInt(fields[0], 10, 64)
    if err != nil || t1 < 1 {
      return fmt.Errorf("invalid position `%s'", fields[0])
    }
    t2, err := strconv.ParseFloat(fields[1], 64)
    if err != nil {
      return fmt.Errorf("invalid value `%s'", fields[1])
    }
    if err := writer.WriteVariableStep(seqname, int(t1-1), span, t2); err != nil {
      return err
    }
  }
  return nil
}

// Parse a single bedGraph line with chromosome, start, end and value.
func readBedGraph_line(fields []string, writer *BigWigWriter) error {
  if len(fields) != 4 {
    return fmt.Errorf("expected 4 columns but found %d", len(fields))
  }
  t1, err := strconv.ParseInt(fields[1], 10, 64)
  if err != nil {
    return fmt.Errorf("invalid start position `%s'", fields[1])
  }
  t2, err := strconv.ParseInt(fields[2], 10, 64)
  if err != nil {
    return fmt.Errorf("invalid end position `%s'", fields[2])
  }
  t3, err := strconv.ParseFloat(fields[3], 64)
  if err != nil {
    return fmt.Errorf("invalid value `%s'", fields[3])
  }
  return writer.WriteBedGraph(fields[0], int(t1), int(t2), t3)
}

/* -------------------------------------------------------------------------- */

// Read a wiggle file with fixedStep, variableStep or bedGraph sections
// and add all items to a bigWig writer.
func ReadWiggle(r io.Reader, writer *BigWigWriter) error {
  scanner := newLineScanner(r)
  for scanner.ScanReal() {
    fields := strings.Fields(scanner.Text())
    var err error
    switch fields[0] {
    case "track":
      err = readWiggle_header(scanner.Text())
    case "browser":
      // skip any browser options
    case "fixedStep":
      err = readWiggle_fixedStep(scanner, writer)
    case "variableStep":
      err = readWiggle_variableStep(scanner, writer)
    default:
      err = readBedGraph_line(fields, writer)
    }
    if err != nil {
      return fmt.Errorf("line %d: %w", scanner.LineNum(), err)
    }
  }
  return scanner.Err()
}

// Import a wiggle file, which may be gzip compressed.
func ImportWiggle(filename string, writer *BigWigWriter) error {
  f, err := openTextFile(filename)
  if err != nil {
    return err
  }
  defer f.Close()
  if err := ReadWiggle(f, writer); err != nil {
    return fmt.Errorf("reading `%s' failed: %w", filename, err)
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// Read a bedGraph file with four columns and add all items to a bigWig
// writer.
func ReadBedGraph(r io.Reader, writer *BigWigWriter) error {
  scanner := newLineScanner(r)
  for scanner.ScanReal() {
    fields := strings.Fields(scanner.Text())
    if fields[0] == "track" || fields[0] == "browser" {
      continue
    }
    if err := readBedGraph_line(fields, writer); err != nil {
      return fmt.Errorf("line %d: %w", scanner.LineNum(), err)
    }
  }
  return scanner.Err()
}

func ImportBedGraph(filename string, writer *BigWigWriter) error {
  f, err := openTextFile(filename)
  if err != nil {
    return err
  }
  defer f.Close()
  if err := ReadBedGraph(f, writer); err != nil {
    return fmt.Errorf("reading `%s' failed: %w", filename, err)
  }
  return nil
}
