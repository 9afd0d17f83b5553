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

/* -------------------------------------------------------------------------- */

type SessionConfig struct {
  Parameters BigBedParameters
  Verbose    int
}

/* -------------------------------------------------------------------------- */

func PrintStderr(config SessionConfig, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func importGenome(config SessionConfig, filename string) Genome {
  PrintStderr(config, 1, "Reading chromosome sizes from `%s'... ", filename)
  genome, err := ImportGenome(filename)
  if err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
  return genome
}

func importAutoSql(config SessionConfig, filename string) string {
  PrintStderr(config, 1, "Reading autoSql table from `%s'... ", filename)
  autoSql, err := os.ReadFile(filename)
  if err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
  return string(autoSql)
}

/* -------------------------------------------------------------------------- */

func bedToBigBed(config SessionConfig, filenameIn, filenameGenome, filenameOut string) {
  genome := importGenome(config, filenameGenome)

  f, err := os.Create(filenameOut)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  writer, err := NewBigBedWriter(f, genome, config.Parameters)
  if err != nil {
    log.Fatal(err)
  }
  PrintStderr(config, 1, "Reading bed file `%s'... ", filenameIn)
  if err := ImportBed(filenameIn, writer); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
  PrintStderr(config, 1, "Writing bigBed file `%s'... ", filenameOut)
  if err := writer.Close(); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  config  := SessionConfig{}
  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optType          := options. StringLong("type",          0 , "",   "bedN[+[M]] where N is the number of standard bed fields and M the number of additional fields")
  optAutoSql       := options. StringLong("as",            0 , "",   "file with an autoSql description of the fields")
  optExtraIndex    := options. StringLong("extraIndex",    0 , "",   "comma separated list of fields to index")
  optBlockSize     := options.    IntLong("blockSize",     0 , 256,  "number of items to bundle in r-tree")
  optItemsPerSlot  := options.    IntLong("itemsPerSlot",  0 , 512,  "number of data points bundled at lowest level")
  optZoomIncrement := options.    IntLong("zoomIncrement", 0 , 4,    "reduction factor between zoom levels")
  optClip          := options.   BoolLong("clip",          0 ,       "clip items that extend past the end of a chromosome")
  optUnc           := options.   BoolLong("unc",           0 ,       "do not use compression")
  optHelp          := options.   BoolLong("help",         'h',       "print help")
  optVerbose       := options.CounterLong("verbose",      'v',       "be verbose")

  options.SetParameters("<input.bed> <chrom.sizes> <output.bb>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 3 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  config.Verbose    = *optVerbose
  config.Parameters = DefaultBigBedParameters()
  config.Parameters.BlockSize     = *optBlockSize
  config.Parameters.ItemsPerSlot  = *optItemsPerSlot
  config.Parameters.ZoomIncrement = *optZoomIncrement
  config.Parameters.Clip          = *optClip
  config.Parameters.Compress      = !*optUnc

  if *optType != "" {
    if defined, total, err := ParseBedType(*optType); err != nil {
      log.Fatal(err)
    } else {
      config.Parameters.DefinedFieldCount = defined
      config.Parameters.FieldCount        = total
    }
  }
  if *optAutoSql != "" {
    config.Parameters.AutoSql = importAutoSql(config, *optAutoSql)
  }
  if *optExtraIndex != "" {
    config.Parameters.ExtraIndex = strings.Split(*optExtraIndex, ",")
  }
  filenameIn     := options.Args()[0]
  filenameGenome := options.Args()[1]
  filenameOut    := options.Args()[2]

  bedToBigBed(config, filenameIn, filenameGenome, filenameOut)
}
