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

import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"
import   "github.com/pbenner/gobbi/lib/byteRangeSource"

/* -------------------------------------------------------------------------- */

func bigBedNamedItems(filenameIn, field, name, filenameOut string) {
  source, err := byteRangeSource.Open(filenameIn)
  if err != nil {
    log.Fatal(err)
  }
  defer source.Close()

  reader, err := NewBigBedReader(source)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filenameIn, err))
  }
  intervals, err := reader.FindByName(field, name)
  if err != nil {
    log.Fatal(err)
  }
  f := os.Stdout
  if filenameOut != "" {
    if f, err = os.Create(filenameOut); err != nil {
      log.Fatal(err)
    }
    defer f.Close()
  }
  w := bufio.NewWriter(f)
  defer w.Flush()

  for _, i := range intervals {
    if i.Rest == "" {
      fmt.Fprintf(w, "%s\t%d\t%d\n", i.Chrom, i.Start, i.End)
    } else {
      fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", i.Chrom, i.Start, i.End, i.Rest)
    }
  }
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optField      := options. StringLong("field",    0 , "name", "name of an indexed field")
  optHelp       := options.   BoolLong("help",    'h',         "print help")

  options.SetParameters("<input.bb> <name> [<output.bed>]")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 2 && len(options.Args()) != 3 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  filenameOut := ""
  if len(options.Args()) == 3 {
    filenameOut = options.Args()[2]
  }
  bigBedNamedItems(options.Args()[0], *optField, options.Args()[1], filenameOut)
}
