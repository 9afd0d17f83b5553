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
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

// Chromosome sizes, as given by a UCSC chrom.sizes table.
type Genome struct {
  Seqnames []string
  Lengths  []int
}

/* constructor
 * -------------------------------------------------------------------------- */

func NewGenome(seqnames []string, lengths []int) Genome {
  if len(seqnames) != len(lengths) {
    panic("NewGenome(): Invalid parameters!")
  }
  return Genome{seqnames, lengths}
}

/* -------------------------------------------------------------------------- */

// Number of chromosomes in the structure.
func (genome Genome) Length() int {
  return len(genome.Seqnames)
}

func (genome Genome) GetIdx(seqname string) (int, error) {
  for i, s := range genome.Seqnames {
    if seqname == s {
      return i, nil
    }
  }
  return -1, fmt.Errorf("`%s': %w", seqname, ErrChromNotFound)
}

// Length of the given chromosome. Returns an error if the chromosome
// is not found.
func (genome Genome) SeqLength(seqname string) (int, error) {
  if i, err := genome.GetIdx(seqname); err != nil {
    return 0, err
  } else {
    return genome.Lengths[i], nil
  }
}

// Map from chromosome names to sizes.
func (genome Genome) sizeMap() (map[string]uint32, error) {
  r := make(map[string]uint32)
  for i, seqname := range genome.Seqnames {
    if genome.Lengths[i] < 0 || int64(genome.Lengths[i]) > int64(^uint32(0)) {
      return nil, fmt.Errorf("invalid length `%d' of sequence `%s'", genome.Lengths[i], seqname)
    }
    if _, ok := r[seqname]; ok {
      return nil, fmt.Errorf("sequence `%s' is listed more than once", seqname)
    }
    r[seqname] = uint32(genome.Lengths[i])
  }
  return r, nil
}

/* convert to string
 * -------------------------------------------------------------------------- */

func (genome Genome) String() string {
  var buffer bytes.Buffer

  printRow := func(i int) {
    if i != 0 {
      buffer.WriteString("\n")
    }
    buffer.WriteString(
      fmt.Sprintf("%10s %10d",
        genome.Seqnames[i],
        genome.Lengths [i]))
  }

  // pring header
  buffer.WriteString(
    fmt.Sprintf("%10s %10s\n", "seqnames", "lengths"))

  for i := 0; i < genome.Length(); i++ {
    printRow(i)
  }
  return buffer.String()
}

/* i/o
 * -------------------------------------------------------------------------- */

// Read chromosome sizes from a whitespace separated table where the first
// column is the name of the chromosome and the second column the
// chromosome length.
func (genome *Genome) Read(r io.Reader) error {
  seqnames := []string{}
  lengths  := []int{}

  scanner := newLineScanner(r)
  for scanner.ScanReal() {
    fields := strings.Fields(scanner.Text())
    if len(fields) < 2 {
      return fmt.Errorf("invalid chromosome sizes table at line %d", scanner.LineNum())
    }
    t, err := strconv.ParseInt(fields[1], 10, 64)
    if err != nil || t < 0 {
      return fmt.Errorf("invalid chromosome size `%s' at line %d", fields[1], scanner.LineNum())
    }
    seqnames = append(seqnames, fields[0])
    lengths  = append(lengths,  int(t))
  }
  if err := scanner.Err(); err != nil {
    return err
  }
  *genome = NewGenome(seqnames, lengths)
  return nil
}

// Import chromosome sizes from a UCSC text file, which may be gzip
// compressed.
func (genome *Genome) Import(filename string) error {
  f, err := openTextFile(filename)
  if err != nil {
    return err
  }
  defer f.Close()
  if err := genome.Read(f); err != nil {
    return fmt.Errorf("reading `%s' failed: %w", filename, err)
  }
  return nil
}

func ReadGenome(r io.Reader) (Genome, error) {
  genome := Genome{}
  err    := genome.Read(r)
  return genome, err
}

func ImportGenome(filename string) (Genome, error) {
  genome := Genome{}
  err    := genome.Import(filename)
  return genome, err
}
