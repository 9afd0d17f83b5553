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
package main

/* -------------------------------------------------------------------------- */

import   "fmt"
import   "log"
import   "os"
import   "strings"

import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"
import   "github.com/pbenner/gobbi/lib/byteRangeSource"

/* -------------------------------------------------------------------------- */

func extract(chromNames []string, filenameIn, filenameOut string, verbose bool) {
  source, err := byteRangeSource.Open(filenameIn)
  if err != nil {
    log.Fatal(err)
  }
  defer source.Close()

  reader, err := NewBigWigReader(source)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filenameIn, err))
  }
  genome := Genome{}
  for _, chromName := range chromNames {
    if info, ok, err := reader.ChromId(chromName); err != nil {
      log.Fatal(err)
    } else if !ok {
      log.Fatalf("chromosome `%s' not found in `%s'", chromName, filenameIn)
    } else {
      genome.Seqnames = append(genome.Seqnames, chromName)
      genome.Lengths  = append(genome.Lengths,  int(info.Size))
    }
  }
  f, err := os.Create(filenameOut)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  writer, err := NewBigWigWriter(f, genome, DefaultBigWigParameters())
  if err != nil {
    log.Fatal(err)
  }
  for _, chromName := range chromNames {
    if verbose {
      log.Printf("reading sequence %s", chromName)
    }
    intervals, err := reader.Intervals(chromName)
    if err != nil {
      log.Fatal(err)
    }
    for _, i := range intervals {
      if err := writer.WriteBedGraph(chromName, int(i.Start), int(i.End), i.Value); err != nil {
        log.Fatal(err)
      }
    }
  }
  if verbose {
    log.Printf("writing track `%s'", filenameOut)
  }
  if err := writer.Close(); err != nil {
    log.Fatal(err)
  }
}

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optHelp    := options.BoolLong("help",    'h',  "print help")
  optVerbose := options.BoolLong("verbose", 'v',  "be verbose")

  options.SetParameters("<chrom1,chrom2,...> <input.bw> <output.bw>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 3 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  chromNames  := strings.Split(options.Args()[0], ",")
  filenameIn  := options.Args()[1]
  filenameOut := options.Args()[2]

  extract(chromNames, filenameIn, filenameOut, *optVerbose)
}
