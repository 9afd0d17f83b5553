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

type Config struct {
  Bins       int
  BinSize    int
  BinStat    BbiSummaryType
  Cumulative bool
  Verbose    int
}

/* -------------------------------------------------------------------------- */

func PrintStderr(config Config, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func importValues(config Config, filename string) []float64 {
  source, err := byteRangeSource.Open(filename)
  if err != nil {
    log.Fatal(err)
  }
  defer source.Close()

  reader, err := NewBigWigReader(source)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filename, err))
  }
  chroms, err := reader.ChromList()
  if err != nil {
    log.Fatal(err)
  }
  r := []float64{}
  for _, c := range chroms {
    s, err := reader.QuerySlice(c.Name, 0, int(c.Size), config.BinSize, config.BinStat, math.NaN())
    if err != nil {
      log.Fatal(err)
    }
    for _, x := range s {
      if !math.IsNaN(x) && !math.IsInf(x, 0) {
        r = append(r, x)
      }
    }
  }
  return r
}

func histogram(config Config, filename string) {
  PrintStderr(config, 1, "Importing track `%s'... ", filename)
  values := importValues(config, filename)
  PrintStderr(config, 1, "done\n")

  if len(values) == 0 {
    log.Fatalf("track `%s' contains no data", filename)
  }
  min, max := math.Inf(1), math.Inf(-1)
  for _, x := range values {
    min = math.Min(min, x)
    max = math.Max(max, x)
  }
  delta := (max - min)/float64(config.Bins)
  x     := make([]float64, config.Bins)
  y     := make([]float64, config.Bins)
  for i := range x {
    x[i] = min + float64(i)*delta
  }
  for _, v := range values {
    i := config.Bins-1
    if delta > 0 {
      i = int(math.Min(math.Floor((v - min)/delta), float64(config.Bins-1)))
    }
    y[i]++
  }
  if config.Cumulative {
    for i := 1; i < len(y); i++ {
      y[i] += y[i-1]
    }
  }
  fmt.Printf("%15s\t%15s\n", "x", "y")
  for i := 0; i < len(x); i++ {
    fmt.Printf("%15e\t%15f\n", x[i], y[i])
  }
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  config  := Config{}

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optBins       := options.    IntLong("bins",         'b',    100, "number of histogram bins")
  optBinSize    := options.    IntLong("bin-size",      0 ,     10, "bin size")
  optBinStat    := options. StringLong("bin-summary",   0 , "mean", "bin summary statistic [mean (default), max, min]")
  optCumulative := options.   BoolLong("cumulative",   'c',         "compute cumulative histogram")
  optHelp       := options.   BoolLong("help",         'h',         "print help")
  optVerbose    := options.CounterLong("verbose",      'v',         "verbose level [-v or -vv]")

  options.SetParameters("<INPUT.bw>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  if *optBins < 1 {
    log.Fatal("invalid number of bins")
  }
  if t, err := ParseBbiSummaryType(*optBinStat); err != nil {
    log.Fatal(err)
  } else {
    config.BinStat = t
  }
  config.Bins       = *optBins
  config.BinSize    = *optBinSize
  config.Cumulative = *optCumulative
  config.Verbose    = *optVerbose

  filenameIn := options.Args()[0]

  histogram(config, filenameIn)
}
