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

import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"

/* -------------------------------------------------------------------------- */

func PrintStderr(verbose int, level int, format string, args ...interface{}) {
  if verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func importGenome(filename string, verbose int) Genome {
  PrintStderr(verbose, 1, "Reading chromosome sizes from `%s'... ", filename)
  genome, err := ImportGenome(filename)
  if err != nil {
    PrintStderr(verbose, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "done\n")
  return genome
}

func convert(filenameIn, filenameGenome, filenameOut string, parameters BigWigParameters, verbose int) {
  genome := importGenome(filenameGenome, verbose)

  f, err := os.Create(filenameOut)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  writer, err := NewBigWigWriter(f, genome, parameters)
  if err != nil {
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "Reading bedGraph file `%s'... ", filenameIn)
  if err := ImportBedGraph(filenameIn, writer); err != nil {
    PrintStderr(verbose, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "done\n")
  PrintStderr(verbose, 1, "Writing bigWig file `%s'... ", filenameOut)
  if err := writer.Close(); err != nil {
    PrintStderr(verbose, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "done\n")
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optBlockSize     := options.    IntLong("blockSize",     0 , 256,  "number of items to bundle in r-tree")
  optItemsPerSlot  := options.    IntLong("itemsPerSlot",  0 , 1024, "number of data points bundled at lowest level")
  optZoomIncrement := options.    IntLong("zoomIncrement", 0 , 4,    "reduction factor between zoom levels")
  optClip          := options.   BoolLong("clip",          0 ,       "clip items that extend past the end of a chromosome")
  optUnc           := options.   BoolLong("unc",           0 ,       "do not use compression")
  optHelp          := options.   BoolLong("help",         'h',       "print help")
  optVerbose       := options.CounterLong("verbose",      'v',       "be verbose")

  options.SetParameters("<input.bedGraph> <chrom.sizes> <output.bw>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 3 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  parameters := DefaultBigWigParameters()
  parameters.BlockSize     = *optBlockSize
  parameters.ItemsPerSlot  = *optItemsPerSlot
  parameters.ZoomIncrement = *optZoomIncrement
  parameters.Clip          = *optClip
  parameters.Compress      = !*optUnc

  filenameIn     := options.Args()[0]
  filenameGenome := options.Args()[1]
  filenameOut    := options.Args()[2]

  convert(filenameIn, filenameGenome, filenameOut, parameters, *optVerbose)
}
