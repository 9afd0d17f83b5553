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
import   "regexp"

import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"
import   "github.com/pbenner/gobbi/lib/byteRangeSource"

/* -------------------------------------------------------------------------- */

// Chromosome names are keys of a sorted B+ tree, so the file is rewritten
// instead of editing names in place.
func editChromNames(filenameIn, filenameOut, regex, repl string, dryRun, verbose bool) {
  r, err := regexp.Compile(regex); if err != nil {
    log.Fatal("invalid regular expression:", err)
  }
  source, err := byteRangeSource.Open(filenameIn)
  if err != nil {
    log.Fatal(err)
  }
  defer source.Close()

  reader, err := NewBigWigReader(source)
  if err != nil {
    log.Fatal(fmt.Errorf("reading `%s' failed: %w", filenameIn, err))
  }
  genomeOld, err := reader.Genome()
  if err != nil {
    log.Fatal(err)
  }
  genomeNew := Genome{}
  for i, seqnameOld := range genomeOld.Seqnames {
    seqnameNew := r.ReplaceAllString(seqnameOld, repl)
    if dryRun || verbose {
      fmt.Printf("`%s' -> `%s'\n", seqnameOld, seqnameNew)
    }
    genomeNew.Seqnames = append(genomeNew.Seqnames, seqnameNew)
    genomeNew.Lengths  = append(genomeNew.Lengths,  genomeOld.Lengths[i])
  }
  if dryRun {
    return
  }
  f, err := os.Create(filenameOut)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  writer, err := NewBigWigWriter(f, genomeNew, DefaultBigWigParameters())
  if err != nil {
    log.Fatal(err)
  }
  for i, seqnameOld := range genomeOld.Seqnames {
    intervals, err := reader.Intervals(seqnameOld)
    if err != nil {
      log.Fatal(err)
    }
    for _, j := range intervals {
      if err := writer.WriteBedGraph(genomeNew.Seqnames[i], int(j.Start), int(j.End), j.Value); err != nil {
        log.Fatal(err)
      }
    }
  }
  if err := writer.Close(); err != nil {
    log.Fatal(err)
  }
}

func main() {
  log.SetFlags(0)

  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optDryRun     := options.  BoolLong("dry-run",      0 ,     "just print changes and do not write a file")
  optHelp       := options.  BoolLong("help",        'h',     "print help")
  optVerbose    := options.  BoolLong("verbose",     'v',     "be verbose")

  options.SetParameters("<input.bw> <regex> <replacement> [output.bw]")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if n := len(options.Args()); n != 4 && !(n == 3 && *optDryRun) {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  filenameIn  := options.Args()[0]
  regex       := options.Args()[1]
  repl        := options.Args()[2]
  filenameOut := ""
  if len(options.Args()) == 4 {
    filenameOut = options.Args()[3]
  }
  editChromNames(filenameIn, filenameOut, regex, repl, *optDryRun, *optVerbose)
}
