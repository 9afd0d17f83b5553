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
import   "math"
import   "os"

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

func printStatistics(name string, size int, s BbiSummaryStatistics) {
  fmt.Printf("%s\t%d\t%.0f\t%g\t%g\t%g\t%g\t%g\n", name, size, s.Valid, s.Valid/float64(size), s.Mean(), s.Min, s.Max, math.Sqrt(s.Variance()))
}

func bigWigStatistics(filename string, perChrom bool, verbose int) {
  source, err := byteRangeSource.Open(filename)
  if err != nil {
    log.Fatal(err)
  }
  defer source.Close()

  PrintStderr(verbose, 1, "Reading bigWig `%s'... ", filename)
  reader, err := NewBigWigReader(source)
  if err != nil {
    PrintStderr(verbose, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "done\n")

  chroms, err := reader.ChromList()
  if err != nil {
    log.Fatal(err)
  }
  fmt.Println("chrom\tsize\tbasesCovered\tcoverage\tmean\tmin\tmax\tstd")
  size := 0
  for _, c := range chroms {
    size += int(c.Size)
    if !perChrom || c.Size == 0 {
      continue
    }
    PrintStderr(verbose, 2, "Summarizing `%s'...\n", c.Name)
    stats, valid, err := reader.SummaryArrayExtended(c.Name, 0, int(c.Size), 1)
    if err != nil {
      log.Fatal(err)
    }
    if valid[0] {
      printStatistics(c.Name, int(c.Size), stats[0])
    }
  }
  total, err := reader.TotalSummary()
  if err != nil {
    log.Fatal(err)
  }
  if size > 0 {
    printStatistics("total", size, total)
  }
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optChroms     := options.   BoolLong("chroms",       0 ,     "print statistics for each chromosome")
  optHelp       := options.   BoolLong("help",        'h',     "print help")
  optVerbose    := options.CounterLong("verbose",     'v',     "be verbose")

  options.SetParameters("<input.bw>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  filename := options.Args()[0]

  bigWigStatistics(filename, *optChroms, *optVerbose)
}
