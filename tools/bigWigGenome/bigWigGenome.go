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

func getGenome(filenameIn string, bigBed bool) {
  var genome Genome
  var err    error
  if bigBed {
    genome, err = BigBedImportGenome(filenameIn)
  } else {
    genome, err = BigWigImportGenome(filenameIn)
  }
  if err != nil {
    log.Fatal(err)
  }
  fmt.Println(genome)
}

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optBigBed     := options.  BoolLong("bigBed",      0 ,     "input is a bigBed file")
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
  filenameIn := options.Args()[0]

  if ok, err := IsBigBedFile(filenameIn); err == nil && ok {
    *optBigBed = true
  }
  getGenome(filenameIn, *optBigBed)
}
