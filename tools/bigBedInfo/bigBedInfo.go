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

import   "github.com/dustin/go-humanize"
import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"

/* -------------------------------------------------------------------------- */

func bigBedInfo(filename string, printChroms, printZooms, printAutoSql, printExtraIndex bool) {
  f, err := os.Open(filename)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  reader, err := NewBigBedReader(f)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filename, err))
  }
  info, err := reader.Info()
  if err != nil {
    log.Fatal(err)
  }
  fmt.Printf("version: %d\n", info.Version)
  fmt.Printf("fieldCount: %d\n", info.FieldCount)
  fmt.Printf("definedFieldCount: %d\n", info.DefinedFieldCount)
  fmt.Printf("hasHeaderExtension: %t\n", reader.Header.ExtensionOffset != 0)
  fmt.Printf("isCompressed: %t\n", info.Compressed)
  fmt.Printf("isSwapped: %t\n", info.ByteSwapped)
  fmt.Printf("extraIndexCount: %d\n", len(reader.Header.ExtraIndices))
  if printExtraIndex && len(reader.Header.ExtraIndices) > 0 {
    names, err := reader.FieldNames()
    if err != nil {
      log.Fatal(err)
    }
    for _, index := range reader.Header.ExtraIndices {
      fields := []string{}
      for _, id := range index.FieldIds {
        if int(id) < len(names) {
          fields = append(fields, names[id])
        }
      }
      fmt.Printf("\t%s\n", strings.Join(fields, ","))
    }
  }
  fmt.Printf("itemCount: %s\n", humanize.Comma(int64(info.DataCount)))
  fmt.Printf("primaryDataSize: %s\n", humanize.Comma(int64(info.PrimaryDataSize)))
  fmt.Printf("primaryIndexSize: %s\n", humanize.Comma(int64(info.PrimaryIndexSize)))
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
  if printAutoSql {
    if autoSql, err := reader.AutoSql(); err != nil {
      log.Fatal(err)
    } else {
      fmt.Print(autoSql)
    }
  }
  fmt.Printf("basesCovered: %s\n", humanize.Comma(int64(info.Summary.Valid)))
  fmt.Printf("meanDepth (of bases covered): %f\n", info.Summary.Mean())
  fmt.Printf("minDepth: %f\n", info.Summary.Min)
  fmt.Printf("maxDepth: %f\n", info.Summary.Max)
  fmt.Printf("std of depth: %f\n", info.Summary.StdDev())
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optChroms     := options.  BoolLong("chroms",      0 ,     "list all chromosomes and their sizes")
  optZooms      := options.  BoolLong("zooms",       0 ,     "list all zoom levels")
  optAutoSql    := options.  BoolLong("as",          0 ,     "print autoSql table")
  optExtraIndex := options.  BoolLong("extraIndex",  0 ,     "list all extra indices")
  optHelp       := options.  BoolLong("help",        'h',     "print help")

  options.SetParameters("<input.bb>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  bigBedInfo(options.Args()[0], *optChroms, *optZooms, *optAutoSql, *optExtraIndex)
}
