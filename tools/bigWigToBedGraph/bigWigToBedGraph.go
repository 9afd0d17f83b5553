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

import   "bufio"
import   "fmt"
import   "log"
import   "os"
import   "strconv"

import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"
import   "github.com/pbenner/gobbi/lib/byteRangeSource"

/* -------------------------------------------------------------------------- */

func PrintStderr(verbose int, level int, format string, args ...interface{}) {
  if verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func bigWigToBedGraph(filenameIn, filenameOut, chrom string, start, end int, verbose int) {
  source, err := byteRangeSource.Open(filenameIn)
  if err != nil {
    log.Fatal(err)
  }
  defer source.Close()

  reader, err := NewBigWigReader(source)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filenameIn, err))
  }
  chroms, err := reader.ChromList()
  if err != nil {
    log.Fatal(err)
  }
  f, err := os.Create(filenameOut)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  w := bufio.NewWriter(f)
  defer w.Flush()

  for _, c := range chroms {
    if chrom != "" && c.Name != chrom {
      continue
    }
    from, to := 0, int(c.Size)
    if start > 0 {
      from = start
    }
    if end > 0 && end < to {
      to = end
    }
    if from >= to {
      continue
    }
    PrintStderr(verbose, 1, "Exporting `%s'... ", c.Name)
    intervals, err := reader.QueryInterval(c.Name, from, to, 0)
    if err != nil {
      PrintStderr(verbose, 1, "failed\n")
      log.Fatal(err)
    }
    for _, i := range intervals {
      fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", c.Name, i.Start, i.End, strconv.FormatFloat(i.Value, 'g', -1, 32))
    }
    PrintStderr(verbose, 1, "done\n")
  }
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optChrom      := options. StringLong("chrom",    0 , "",  "restrict output to given chromosome")
  optStart      := options.    IntLong("start",    0 ,  0,  "restrict output to region starting at given position")
  optEnd        := options.    IntLong("end",      0 ,  0,  "restrict output to region ending at given position")
  optHelp       := options.   BoolLong("help",    'h',      "print help")
  optVerbose    := options.CounterLong("verbose", 'v',      "be verbose")

  options.SetParameters("<input.bw> <output.bedGraph>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 2 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  bigWigToBedGraph(options.Args()[0], options.Args()[1], *optChrom, *optStart, *optEnd, *optVerbose)
}
