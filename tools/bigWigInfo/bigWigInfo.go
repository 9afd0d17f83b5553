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

import   "github.com/dustin/go-humanize"
import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"

/* -------------------------------------------------------------------------- */

func yesNo(b bool) string {
  if b {
    return "yes"
  }
  return "no"
}

func comma(n uint64) string {
  return humanize.Comma(int64(n))
}

/* -------------------------------------------------------------------------- */

func bigWigInfo(filename string, printChroms, printZooms bool) {
  f, err := os.Open(filename)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  reader, err := NewBigWigReader(f)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filename, err))
  }
  info, err := reader.Info()
  if err != nil {
    log.Fatal(err)
  }
  fmt.Printf("version: %d\n", info.Version)
  fmt.Printf("isCompressed: %s\n", yesNo(info.Compressed))
  fmt.Printf("isSwapped: %s\n", yesNo(info.ByteSwapped))
  fmt.Printf("primaryDataSize: %s\n", comma(info.PrimaryDataSize))
  fmt.Printf("primaryIndexSize: %s\n", comma(info.PrimaryIndexSize))
  fmt.Printf("sectionCount: %s\n", comma(info.DataCount))
  fmt.Printf("zoomLevels: %d\n", len(info.ZoomLevels))
  if printZooms {
    for _, zoom := range info.ZoomLevels {
      fmt.Printf("\t%d\t%d\n", zoom.ReductionLevel, zoom.IndexOffset - zoom.DataOffset)
    }
  }
  fmt.Printf("chromCount: %d\n", info.ChromCount)
  if printChroms {
    chroms, err := reader.ChromList()
    if err != nil {
      log.Fatal(err)
    }
    for _, chrom := range chroms {
      fmt.Printf("\t%s %d %d\n", chrom.Name, chrom.Id, chrom.Size)
    }
  }
  fmt.Printf("basesCovered: %s\n", comma(uint64(info.Summary.Valid)))
  fmt.Printf("mean: %f\n", info.Summary.Mean())
  fmt.Printf("min: %f\n", info.Summary.Min)
  fmt.Printf("max: %f\n", info.Summary.Max)
  fmt.Printf("std: %f\n", info.Summary.StdDev())
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optChroms     := options.  BoolLong("chroms",      0 ,     "list all chromosomes and their sizes")
  optZooms      := options.  BoolLong("zooms",       0 ,     "list all zoom levels")
  optHelp       := options.  BoolLong("help",        'h',     "print help")

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
  bigWigInfo(options.Args()[0], *optChroms, *optZooms)
}
