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
import   "io"
import   "log"
import   "math"
import   "os"
import   "strconv"
import   "strings"

import   "github.com/pbenner/threadpool"
import   "github.com/pborman/getopt"

import . "github.com/pbenner/gobbi"
import   "github.com/pbenner/gobbi/lib/byteRangeSource"
import   "github.com/pbenner/gobbi/lib/progress"

/* -------------------------------------------------------------------------- */

type SessionConfig struct {
  Type    BbiSummaryType
  Status  bool
  Threads int
  Verbose int
}

type Region struct {
  Chrom string
  Start int
  End   int
}

/* -------------------------------------------------------------------------- */

func PrintStderr(config SessionConfig, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func parseRegion(fields []string) (Region, error) {
  if len(fields) < 3 {
    return Region{}, fmt.Errorf("expected at least 3 columns but found %d", len(fields))
  }
  start, err := strconv.Atoi(fields[1])
  if err != nil {
    return Region{}, fmt.Errorf("invalid start position `%s'", fields[1])
  }
  end, err := strconv.Atoi(fields[2])
  if err != nil {
    return Region{}, fmt.Errorf("invalid end position `%s'", fields[2])
  }
  return Region{fields[0], start, end}, nil
}

func importRegions(config SessionConfig, filename string) []Region {
  PrintStderr(config, 1, "Reading regions from `%s'... ", filename)
  f, err := os.Open(filename)
  if err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  defer f.Close()

  regions := []Region{}
  scanner := bufio.NewScanner(f)
  for i := 1; scanner.Scan(); i++ {
    fields := strings.Fields(scanner.Text())
    if len(fields) == 0 || strings.HasPrefix(fields[0], "#") || fields[0] == "track" || fields[0] == "browser" {
      continue
    }
    if r, err := parseRegion(fields); err != nil {
      PrintStderr(config, 1, "failed\n")
      log.Fatalf("reading `%s' failed: line %d: %v", filename, i, err)
    } else {
      regions = append(regions, r)
    }
  }
  if err := scanner.Err(); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
  return regions
}

/* -------------------------------------------------------------------------- */

type handle struct {
  source byteRangeSource.ByteRangeSource
  reader *BigWigReader
}

func openHandles(config SessionConfig, filename string, n int) []handle {
  handles := make([]handle, n)
  for i := range handles {
    source, err := byteRangeSource.Open(filename)
    if err != nil {
      log.Fatal(err)
    }
    reader, err := NewBigWigReader(source)
    if err != nil {
      log.Fatal(fmt.Errorf("reading `%s' failed: %w", filename, err))
    }
    handles[i] = handle{source, reader}
  }
  return handles
}

func closeHandles(handles []handle) {
  for _, h := range handles {
    h.source.Close()
  }
}

/* -------------------------------------------------------------------------- */

func summarize(config SessionConfig, filename string, regions []Region, n int) [][]float64 {
  pool    := threadpool.New(config.Threads, 100*config.Threads)
  handles := openHandles(config, filename, pool.NumberOfThreads())
  defer closeHandles(handles)

  result := make([][]float64, len(regions))
  status := progress.New(os.Stderr, len(regions), 1000)

  if !config.Status {
    PrintStderr(config, 1, "Summarizing %d regions... ", len(regions))
  }
  jobGroup := pool.NewJobGroup()

  if err := pool.AddRangeJob(0, len(regions), jobGroup, func(i int, pool threadpool.ThreadPool, erf func() error) error {
    if erf() != nil {
      return nil
    }
    r := regions[i]
    v := make([]float64, n)
    for j := range v {
      v[j] = math.NaN()
    }
    if _, err := handles[pool.GetThreadId()].reader.SummaryArray(r.Chrom, r.Start, r.End, config.Type, v); err != nil {
      return fmt.Errorf("region %s:%d-%d: %w", r.Chrom, r.Start, r.End, err)
    }
    result[i] = v
    if config.Status {
      status.Step()
    }
    return nil
  }); err != nil {
    log.Fatal(err)
  }
  if err := pool.Wait(jobGroup); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  if !config.Status {
    PrintStderr(config, 1, "done\n")
  }
  return result
}

func writeResult(writer io.Writer, regions []Region, values [][]float64, withRegion bool) {
  w := bufio.NewWriter(writer)
  defer w.Flush()

  for i, r := range regions {
    if withRegion {
      fmt.Fprintf(w, "%s\t%d\t%d\t", r.Chrom, r.Start, r.End)
    }
    for j, x := range values[i] {
      if j != 0 {
        w.WriteString("\t")
      }
      if math.IsNaN(x) {
        w.WriteString("n/a")
      } else {
        w.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
      }
    }
    w.WriteString("\n")
  }
}

/* -------------------------------------------------------------------------- */

func main() {
  log.SetFlags(0)

  config  := SessionConfig{}
  options := getopt.New()
  options.SetProgram(fmt.Sprintf("%s", os.Args[0]))

  optType       := options. StringLong("type",     0 , "mean", "summary type [mean, max, min, coverage, std]")
  optRegions    := options. StringLong("regions",  0 , "",     "bed file with regions to summarize")
  optThreads    := options.    IntLong("threads",  0 ,  1,     "number of threads")
  optStatus     := options.   BoolLong("status",   0 ,         "show progress")
  optHelp       := options.   BoolLong("help",    'h',         "print help")
  optVerbose    := options.CounterLong("verbose", 'v',         "be verbose")

  options.SetParameters("<input.bw> [<chrom> <start> <end>] <dataPoints>")
  options.Parse(os.Args)

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if t, err := ParseBbiSummaryType(*optType); err != nil {
    log.Fatal(err)
  } else {
    config.Type = t
  }
  if *optThreads < 1 {
    log.Fatalf("invalid number of threads `%d'", *optThreads)
  }
  config.Status  = *optStatus
  config.Threads = *optThreads
  config.Verbose = *optVerbose

  var regions []Region
  var args    []string

  if *optRegions != "" {
    if len(options.Args()) != 2 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    args    = options.Args()
    regions = importRegions(config, *optRegions)
  } else {
    if len(options.Args()) != 5 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    r, err := parseRegion(options.Args()[1:4])
    if err != nil {
      log.Fatal(err)
    }
    args    = []string{options.Args()[0], options.Args()[4]}
    regions = []Region{r}
  }
  n, err := strconv.Atoi(args[1])
  if err != nil || n < 1 {
    log.Fatalf("invalid number of data points `%s'", args[1])
  }
  values := summarize(config, args[0], regions, n)

  writeResult(os.Stdout, regions, values, *optRegions != "")
}
