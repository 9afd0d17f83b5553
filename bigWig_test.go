/* Copyright (C) 2016 Philipp Benner
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

package gobbi

/* -------------------------------------------------------------------------- */

import   "encoding/binary"
import   "errors"
import   "io"
import   "math"
import   "os"
import   "testing"

/* -------------------------------------------------------------------------- */

func writeTestBigWig(t *testing.T, genome Genome, parameters BigWigParameters, order binary.ByteOrder, f func(w *BigWigWriter) error) *os.File {
  file := newTestFile(t)
  writer, err := NewBigWigWriter(file, genome, parameters)
  if err != nil {
    t.Fatal(err)
  }
  writer.Order = order
  if err := f(writer); err != nil {
    t.Fatal(err)
  }
  if err := writer.Close(); err != nil {
    t.Fatal(err)
  }
  return file
}

func openTestBigWig(t *testing.T, file *os.File) *BigWigReader {
  if _, err := file.Seek(0, io.SeekStart); err != nil {
    t.Fatal(err)
  }
  reader, err := NewBigWigReader(file)
  if err != nil {
    t.Fatal(err)
  }
  return reader
}

func testBigWigData(w *BigWigWriter) error {
  if err := w.WriteBedGraph("chr1",   0, 100, 5.0); err != nil {
    return err
  }
  if err := w.WriteBedGraph("chr1", 100, 200, 2.0); err != nil {
    return err
  }
  if err := w.WriteBedGraph("chr1", 300, 400, 1.0); err != nil {
    return err
  }
  if err := w.WriteVariableStep("chr2", 10, 5, 3.0); err != nil {
    return err
  }
  if err := w.WriteVariableStep("chr2", 20, 5, 4.0); err != nil {
    return err
  }
  return nil
}

/* -------------------------------------------------------------------------- */

func TestBigWig1(t *testing.T) {
  genome := NewGenome([]string{"chr2", "chr1", "chr3"}, []int{500, 1000, 300})

  for _, compress := range []bool{true, false} {
    for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
      parameters := DefaultBigWigParameters()
      parameters.Compress = compress

      file   := writeTestBigWig(t, genome, parameters, order, testBigWigData)
      reader := openTestBigWig(t, file)

      if reader.Order != order || reader.Header.Version != BBI_VERSION {
        t.Error("TestBigWig1 failed!")
      }
      if (reader.Header.UncompressBufSize != 0) != compress {
        t.Error("TestBigWig1 failed!")
      }
      // chromosomes without data are not part of the file
      if chroms, err := reader.ChromList(); err != nil {
        t.Error(err)
      } else if len(chroms) != 2 || chroms[0].Name != "chr1" || chroms[0].Id != 0 || chroms[0].Size != 1000 || chroms[1].Name != "chr2" {
        t.Error("TestBigWig1 failed!")
      }
      if name, ok, err := reader.ChromName(1); err != nil || !ok || name != "chr2" {
        t.Error("TestBigWig1 failed!")
      }
      r, err := reader.QueryInterval("chr1", 50, 150, 0)
      if err != nil {
        t.Error(err); continue
      }
      if len(r) != 2 || r[0] != (BigWigInterval{0, 100, 5.0}) || r[1] != (BigWigInterval{100, 200, 2.0}) {
        t.Errorf("TestBigWig1 failed: %v", r)
      }
      // half-open intervals
      if r, err := reader.QueryInterval("chr1", 200, 300, 0); err != nil || len(r) != 0 {
        t.Error("TestBigWig1 failed!")
      }
      if r, err := reader.QueryInterval("chr1", 0, 1000, 2); err != nil || len(r) != 2 {
        t.Error("TestBigWig1 failed!")
      }
      if r, err := reader.QueryInterval("chr2", 0, 500, 0); err != nil || len(r) != 2 || r[1] != (BigWigInterval{20, 25, 4.0}) {
        t.Error("TestBigWig1 failed!")
      }
      // unknown chromosomes give empty results
      if r, err := reader.QueryInterval("chrX", 0, 100, 0); err != nil || len(r) != 0 {
        t.Error("TestBigWig1 failed!")
      }
      if r, err := reader.QueryInterval("chr3", 0, 100, 0); err != nil || len(r) != 0 {
        t.Error("TestBigWig1 failed!")
      }
      if r, err := reader.Intervals("chr1"); err != nil || len(r) != 3 {
        t.Error("TestBigWig1 failed!")
      }
      // total summary
      if s, err := reader.TotalSummary(); err != nil {
        t.Error(err)
      } else {
        if s.Valid != 310 || s.Sum != 835 || s.Min != 1 || s.Max != 5 {
          t.Errorf("TestBigWig1 failed: %v", s)
        }
      }
      if n, err := reader.DataCount(); err != nil || n != 2 {
        t.Error("TestBigWig1 failed!")
      }
    }
  }
}

func TestBigWig2(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})
  file   := writeTestBigWig(t, genome, DefaultBigWigParameters(), binary.LittleEndian, testBigWigData)
  reader := openTestBigWig(t, file)

  values := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
  if ok, err := reader.SummaryArray("chr1", 0, 400, BbiSummaryMean, values); err != nil || !ok {
    t.Error("TestBigWig2 failed!")
  }
  if values[0] != 5 || values[1] != 2 || !math.IsNaN(values[2]) || values[3] != 1 {
    t.Errorf("TestBigWig2 failed: %v", values)
  }
  stats, valid, err := reader.SummaryArrayExtended("chr1", 50, 150, 1)
  if err != nil {
    t.Error(err); return
  }
  if !valid[0] || stats[0].Valid != 100 || stats[0].Mean() != 3.5 || stats[0].Min != 2 || stats[0].Max != 5 {
    t.Error("TestBigWig2 failed!")
  }
  coverage := []float64{0}
  reader.SummaryArray("chr1", 0, 1000, BbiSummaryCoverage, coverage)
  if math.Abs(coverage[0] - 0.3) > 1e-10 {
    t.Error("TestBigWig2 failed!")
  }
  // unknown chromosome
  if ok, err := reader.SummaryArray("chrX", 0, 400, BbiSummaryMean, values); err != nil || ok {
    t.Error("TestBigWig2 failed!")
  }
  if _, err := reader.SummaryArray("chr1", 400, 0, BbiSummaryMean, values); err == nil {
    t.Error("TestBigWig2 failed!")
  }
  // a single zoom level suffices for two chromosomes
  if len(reader.Header.ZoomHeaders) != 1 {
    t.Errorf("TestBigWig2 failed: got %d zoom levels", len(reader.Header.ZoomHeaders))
  } else {
    records, err := reader.ZoomRecords(0, 0, 0, 1000)
    if err != nil {
      t.Error(err)
    } else if len(records) != 1 || records[0].Valid != 300 || records[0].Sum != 800 || records[0].Min != 1 || records[0].Max != 5 {
      t.Errorf("TestBigWig2 failed: %v", records)
    }
  }
}

func TestBigWig3(t *testing.T) {
  // single item, zoom summary covers the first hundred bases
  genome := NewGenome([]string{"chr1"}, []int{1000})
  file   := writeTestBigWig(t, genome, DefaultBigWigParameters(), binary.LittleEndian, func(w *BigWigWriter) error {
    return w.WriteBedGraph("chr1", 0, 100, 5.0)
  })
  reader := openTestBigWig(t, file)

  if len(reader.Header.ZoomHeaders) == 0 {
    t.Error("TestBigWig3 failed!"); return
  }
  records, err := reader.ZoomRecords(0, 0, 0, 1000)
  if err != nil {
    t.Error(err); return
  }
  if len(records) != 1 || records[0].Valid != 100 || records[0].Sum != 500 || records[0].Min != 5 || records[0].Max != 5 {
    t.Errorf("TestBigWig3 failed: %v", records)
  }
}

func TestBigWig4(t *testing.T) {
  // fixed zoom levels on a larger chromosome, where summaries of large
  // regions are computed from zoom data
  genome := NewGenome([]string{"chr1"}, []int{1000000})
  parameters := DefaultBigWigParameters()
  parameters.ReductionLevels = []int{1000, 100}

  file := writeTestBigWig(t, genome, parameters, binary.LittleEndian, func(w *BigWigWriter) error {
    for i := 0; i < 10000; i++ {
      if err := w.WriteFixedStep("chr1", 10*i, 10, 10, float64(i/1000)); err != nil {
        return err
      }
    }
    return nil
  })
  reader := openTestBigWig(t, file)

  if len(reader.Header.ZoomHeaders) != 2 || reader.Header.ZoomHeaders[0].ReductionLevel != 100 || reader.Header.ZoomHeaders[1].ReductionLevel != 1000 {
    t.Error("TestBigWig4 failed!"); return
  }
  if reader.BestZoom(5000) != 1 || reader.BestZoom(500) != 0 || reader.BestZoom(50) != -1 || reader.BestZoom(1) != -1 {
    t.Error("TestBigWig4 failed!")
  }
  // bins of 10000 bases use the coarsest zoom level
  values := make([]float64, 10)
  if _, err := reader.SummaryArray("chr1", 0, 100000, BbiSummaryMean, values); err != nil {
    t.Error(err); return
  }
  for i := range values {
    if values[i] != float64(i) {
      t.Errorf("TestBigWig4 failed: %v", values); break
    }
  }
  values, err := reader.QuerySlice("chr1", 95000, 105000, 1000, BbiSummaryMax, math.NaN())
  if err != nil {
    t.Error(err); return
  }
  if len(values) != 10 || values[0] != 9 || values[4] != 9 || !math.IsNaN(values[5]) {
    t.Errorf("TestBigWig4 failed: %v", values)
  }
  if r, err := reader.QueryInterval("chr1", 99985, 200000, 0); err != nil || len(r) != 2 {
    t.Error("TestBigWig4 failed!")
  }
  if s, err := reader.TotalSummary(); err != nil || s.Valid != 100000 || s.Max != 9 {
    t.Error("TestBigWig4 failed!")
  }
}

func TestBigWig5(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chrM"}, []int{1000, 100})
  file   := newTestFile(t)

  writer, err := NewBigWigWriter(file, genome, DefaultBigWigParameters())
  if err != nil {
    t.Error(err); return
  }
  if err := writer.WriteBedGraph("chrX", 0, 10, 1.0); !errors.Is(err, ErrChromNotFound) {
    t.Error("TestBigWig5 failed!")
  }
  if err := writer.WriteBedGraph("chr1", 100, 200, 1.0); err != nil {
    t.Error(err)
  }
  if err := writer.WriteBedGraph("chr1", 50, 60, 1.0); !errors.Is(err, ErrUnsorted) {
    t.Error("TestBigWig5 failed!")
  }
  // overlapping items
  if err := writer.WriteBedGraph("chr1", 150, 250, 1.0); err == nil || errors.Is(err, ErrUnsorted) {
    t.Error("TestBigWig5 failed!")
  }
  // items past the end of a chromosome
  if err := writer.WriteBedGraph("chr1", 900, 1100, 1.0); err == nil {
    t.Error("TestBigWig5 failed!")
  }
  // chrM is always clipped
  if err := writer.WriteBedGraph("chrM", 90, 110, 1.0); err != nil {
    t.Error(err)
  }
  if err := writer.Close(); err != nil {
    t.Error(err); return
  }
  reader := openTestBigWig(t, file)
  if r, err := reader.QueryInterval("chrM", 0, 200, 0); err != nil || len(r) != 1 || r[0].End != 100 {
    t.Error("TestBigWig5 failed!")
  }
}

func TestBigWig6(t *testing.T) {
  genome := NewGenome([]string{"chr1"}, []int{1000})
  parameters := DefaultBigWigParameters()
  parameters.Clip = true

  file := writeTestBigWig(t, genome, parameters, binary.LittleEndian, func(w *BigWigWriter) error {
    if err := w.WriteBedGraph("chr1", 900, 1100, 1.0); err != nil {
      return err
    }
    // fixedStep items past the end are dropped
    return w.WriteFixedStep("chr1", 995, 10, 10, 2.0)
  })
  reader := openTestBigWig(t, file)
  if r, err := reader.Intervals("chr1"); err != nil || len(r) != 1 || r[0] != (BigWigInterval{900, 1000, 1.0}) {
    t.Error("TestBigWig6 failed!")
  }
}

func TestBigWig7(t *testing.T) {
  // binned sequence with missing values
  genome := NewGenome([]string{"chr1"}, []int{95})
  file   := writeTestBigWig(t, genome, DefaultBigWigParameters(), binary.LittleEndian, func(w *BigWigWriter) error {
    return w.WriteSequence("chr1", []float64{1, 2, math.NaN(), 4, 5, 6, 7, 8, 9, 10}, 10)
  })
  reader := openTestBigWig(t, file)
  r, err := reader.Intervals("chr1")
  if err != nil {
    t.Error(err); return
  }
  if len(r) != 9 || r[2] != (BigWigInterval{30, 40, 4}) || r[8] != (BigWigInterval{90, 95, 10}) {
    t.Errorf("TestBigWig7 failed: %v", r)
  }
  s, err := reader.QuerySlice("chr1", 0, 95, 10, BbiSummaryMean, math.NaN())
  if err != nil {
    t.Error(err); return
  }
  if len(s) != 10 || s[0] != 1 || !math.IsNaN(s[2]) || s[9] != 10 {
    t.Errorf("TestBigWig7 failed: %v", s)
  }
}

func TestBigWig8(t *testing.T) {
  // empty file
  genome := NewGenome([]string{"chr1"}, []int{1000})
  file   := writeTestBigWig(t, genome, DefaultBigWigParameters(), binary.LittleEndian, func(w *BigWigWriter) error {
    return nil
  })
  reader := openTestBigWig(t, file)
  if len(reader.Header.ZoomHeaders) != 0 {
    t.Error("TestBigWig8 failed!")
  }
  if r, err := reader.QueryInterval("chr1", 0, 1000, 0); err != nil || len(r) != 0 {
    t.Error("TestBigWig8 failed!")
  }
  if s, err := reader.TotalSummary(); err != nil || s.Valid != 0 {
    t.Error("TestBigWig8 failed!")
  }
  // bigBed readers reject bigWig files
  file.Seek(0, io.SeekStart)
  if _, err := NewBigBedReader(file); !errors.Is(err, ErrNotBigBed) {
    t.Error("TestBigWig8 failed!")
  }
}

func TestBigWig9(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})
  file   := writeTestBigWig(t, genome, DefaultBigWigParameters(), binary.LittleEndian, testBigWigData)
  reader := openTestBigWig(t, file)

  // query end beyond 32 bits is clipped to the chromosome
  end := int64(1) << 32 + 50
  if r, err := reader.QueryInterval("chr1", 0, int(end), 0); err != nil || len(r) != 3 {
    t.Errorf("TestBigWig9 failed: %v", r)
  }
  if _, err := reader.SummaryArray("chr1", 0, int(end), BbiSummaryMean, make([]float64, 4)); err == nil {
    t.Error("TestBigWig9 failed!")
  }
  // empty regions select items that strictly contain the position
  if r, err := reader.QueryInterval("chr1", 150, 150, 0); err != nil || len(r) != 1 || r[0].Start != 100 || r[0].End != 200 {
    t.Errorf("TestBigWig9 failed: %v", r)
  }
  if r, err := reader.QueryInterval("chr1", 100, 100, 0); err != nil || len(r) != 0 {
    t.Errorf("TestBigWig9 failed: %v", r)
  }
  if r, err := reader.QueryInterval("chr1", 250, 250, 0); err != nil || len(r) != 0 {
    t.Errorf("TestBigWig9 failed: %v", r)
  }
  if r, err := reader.QueryInterval("chr1", 1200, 1100, 0); err != nil || len(r) != 0 {
    t.Errorf("TestBigWig9 failed: %v", r)
  }
}

func TestBigWig10(t *testing.T) {
  genome := NewGenome([]string{"chrM"}, []int{100})

  writer, err := NewBigWigWriter(newTestFile(t), genome, DefaultBigWigParameters())
  if err != nil {
    t.Fatal(err)
  }
  // only bedGraph items are clipped on chrM
  if err := writer.WriteVariableStep("chrM", 95, 10, 1.0); err == nil {
    t.Error("TestBigWig10 failed!")
  }
  if err := writer.WriteFixedStep("chrM", 95, 10, 10, 1.0); err == nil {
    t.Error("TestBigWig10 failed!")
  }
  if err := writer.WriteBedGraph("chrM", 95, 105, 1.0); err != nil {
    t.Error(err)
  }
  // unless clipping is enabled
  parameters := DefaultBigWigParameters()
  parameters.Clip = true
  file := writeTestBigWig(t, genome, parameters, binary.LittleEndian, func(w *BigWigWriter) error {
    if err := w.WriteVariableStep("chrM", 10, 5, 1.0); err != nil {
      return err
    }
    return w.WriteVariableStep("chrM", 95, 10, 2.0)
  })
  reader := openTestBigWig(t, file)
  if r, err := reader.Intervals("chrM"); err != nil || len(r) != 1 || r[0].Start != 10 {
    t.Errorf("TestBigWig10 failed: %v", r)
  }
}
