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

func writeTestBigBed(t *testing.T, genome Genome, parameters BigBedParameters, order binary.ByteOrder, f func(w *BigBedWriter) error) *os.File {
  file := newTestFile(t)
  writer, err := NewBigBedWriter(file, genome, parameters)
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

func openTestBigBed(t *testing.T, file *os.File) *BigBedReader {
  if _, err := file.Seek(0, io.SeekStart); err != nil {
    t.Fatal(err)
  }
  reader, err := NewBigBedReader(file)
  if err != nil {
    t.Fatal(err)
  }
  return reader
}

func testBigBedData(w *BigBedWriter) error {
  if err := w.Write("chr1",   0, 100, "a\t0\t+"); err != nil {
    return err
  }
  if err := w.Write("chr1",  50, 150, "b\t0\t-"); err != nil {
    return err
  }
  if err := w.Write("chr1", 300, 400, "a\t0\t+"); err != nil {
    return err
  }
  if err := w.Write("chr2",  10,  20, "c\t0\t+"); err != nil {
    return err
  }
  return nil
}

/* -------------------------------------------------------------------------- */

func TestBigBed1(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})

  for _, compress := range []bool{false, true} {
    for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
      parameters := DefaultBigBedParameters()
      parameters.Compress     = compress
      parameters.ItemsPerSlot = 2
      file   := writeTestBigBed(t, genome, parameters, order, testBigBedData)
      reader := openTestBigBed(t, file)

      if reader.Order != order {
        t.Error("TestBigBed1 failed!")
      }
      if r, err := reader.QueryInterval("chr1", 120, 320, 0); err != nil {
        t.Error(err)
      } else if len(r) != 2 || r[0].Start != 50 || r[0].End != 150 || r[0].Rest != "b\t0\t-" || r[1].Start != 300 || r[1].Chrom != "chr1" {
        t.Errorf("TestBigBed1 failed: %v", r)
      }
      if r, err := reader.QueryInterval("chr1", 0, 1000, 1); err != nil {
        t.Error(err)
      } else if len(r) != 1 || r[0].Start != 0 {
        t.Errorf("TestBigBed1 failed: %v", r)
      }
      if r, err := reader.Intervals("chr2"); err != nil {
        t.Error(err)
      } else if len(r) != 1 || r[0].Chrom != "chr2" || r[0].Start != 10 || r[0].End != 20 || r[0].Rest != "c\t0\t+" {
        t.Errorf("TestBigBed1 failed: %v", r)
      }
      if r, err := reader.Intervals("chrX"); err != nil || len(r) != 0 {
        t.Error("TestBigBed1 failed!")
      }
      if n, err := reader.DataCount(); err != nil || n != 4 {
        t.Error("TestBigBed1 failed!")
      }
      if s, err := reader.TotalSummary(); err != nil {
        t.Error(err)
      } else if s.Valid != 260 || s.Sum != 310 || s.Min != 1 || s.Max != 2 {
        t.Errorf("TestBigBed1 failed: %v", s)
      }
    }
  }
}

func TestBigBed2(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})

  parameters := DefaultBigBedParameters()
  parameters.ItemsPerSlot = 2
  parameters.ExtraIndex   = []string{"name"}
  file   := writeTestBigBed(t, genome, parameters, binary.LittleEndian, testBigBedData)
  reader := openTestBigBed(t, file)

  names, err := reader.FieldNames()
  if err != nil {
    t.Error(err); return
  }
  expected := []string{"chrom", "chromStart", "chromEnd", "name", "score", "strand"}
  if len(names) != len(expected) {
    t.Errorf("TestBigBed2 failed: %v", names)
  } else {
    for i := range names {
      if names[i] != expected[i] {
        t.Errorf("TestBigBed2 failed: %v", names)
      }
    }
  }
  if reader.Header.FieldCount != 6 || reader.Header.DefinedFieldCount != 6 {
    t.Error("TestBigBed2 failed!")
  }
  // items with name `a' are stored in two different blocks
  if r, err := reader.FindByName("name", "a"); err != nil {
    t.Error(err)
  } else if len(r) != 2 || r[0].Start != 0 || r[1].Start != 300 || r[1].Chrom != "chr1" {
    t.Errorf("TestBigBed2 failed: %v", r)
  }
  if r, err := reader.FindByName("name", "c"); err != nil {
    t.Error(err)
  } else if len(r) != 1 || r[0].Chrom != "chr2" {
    t.Errorf("TestBigBed2 failed: %v", r)
  }
  if r, err := reader.FindByName("name", "d"); err != nil || len(r) != 0 {
    t.Error("TestBigBed2 failed!")
  }
  if _, err := reader.FindByName("strand", "+"); err == nil {
    t.Error("TestBigBed2 failed!")
  }
  if _, err := reader.FindByName("foo", "a"); err == nil {
    t.Error("TestBigBed2 failed!")
  }
}

func TestBigBed3(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})
  file   := writeTestBigBed(t, genome, DefaultBigBedParameters(), binary.LittleEndian, testBigBedData)
  reader := openTestBigBed(t, file)

  // coverage depth
  values := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
  if ok, err := reader.SummaryArray("chr1", 0, 400, BbiSummaryMean, values); err != nil || !ok {
    t.Error("TestBigBed3 failed!")
  }
  if values[0] != 1.5 || values[1] != 1 || !math.IsNaN(values[2]) || values[3] != 1 {
    t.Errorf("TestBigBed3 failed: %v", values)
  }
  if ok, err := reader.SummaryArray("chr1", 0, 400, BbiSummaryMax, values); err != nil || !ok {
    t.Error("TestBigBed3 failed!")
  }
  if values[0] != 2 || values[1] != 1 || values[3] != 1 {
    t.Errorf("TestBigBed3 failed: %v", values)
  }
  if genome, err := BigBedReadGenome(file); err != nil {
    t.Error(err)
  } else if genome.Length() != 2 {
    t.Error("TestBigBed3 failed!")
  } else if n, err := genome.SeqLength("chr2"); err != nil || n != 500 {
    t.Error("TestBigBed3 failed!")
  }
  if _, err := file.Seek(0, io.SeekStart); err != nil {
    t.Fatal(err)
  }
  if _, err := NewBigWigReader(file); !errors.Is(err, ErrNotBigWig) {
    t.Error("TestBigBed3 failed!")
  }
}

func TestBigBed4(t *testing.T) {
  genome := NewGenome([]string{"chr1"}, []int{1000})
  as := "table test\n\"test table\"\n   (\n" +
    "   string chrom;      \"Chromosome\"\n" +
    "   uint   chromStart; \"Start\"\n" +
    "   uint   chromEnd;   \"End\"\n" +
    "   string id;         \"Identifier\"\n" +
    "   )\n"
  parameters := DefaultBigBedParameters()
  parameters.AutoSql    = as
  parameters.ExtraIndex = []string{"id"}
  parameters.DefinedFieldCount = 3
  file := writeTestBigBed(t, genome, parameters, binary.BigEndian, func(w *BigBedWriter) error {
    if err := w.Write("chr1", 10, 20, "x1"); err != nil {
      return err
    }
    return w.Write("chr1", 10, 30, "x2")
  })
  reader := openTestBigBed(t, file)
  if s, err := reader.AutoSql(); err != nil || s != as {
    t.Error("TestBigBed4 failed!")
  }
  if r, err := reader.FindByName("id", "x2"); err != nil {
    t.Error(err)
  } else if len(r) != 1 || r[0].End != 30 {
    t.Errorf("TestBigBed4 failed: %v", r)
  }
  if names, err := reader.FieldNames(); err != nil || len(names) != 4 || names[3] != "id" {
    t.Error("TestBigBed4 failed!")
  }
  if reader.Header.DefinedFieldCount != 3 {
    t.Error("TestBigBed4 failed!")
  }
}

func TestBigBed5(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chrM"}, []int{1000, 100})

  writer, err := NewBigBedWriter(newTestFile(t), genome, DefaultBigBedParameters())
  if err != nil {
    t.Fatal(err)
  }
  if err := writer.Write("chr1", 100, 200, "a"); err != nil {
    t.Error(err)
  }
  if err := writer.Write("chr1", 300, 400, "a\t0"); err == nil {
    t.Error("TestBigBed5 failed!")
  }
  if err := writer.Write("chr1", 50, 60, "b"); !errors.Is(err, ErrUnsorted) {
    t.Error("TestBigBed5 failed!")
  }
  if err := writer.Write("chrX", 50, 60, "b"); !errors.Is(err, ErrChromNotFound) {
    t.Error("TestBigBed5 failed!")
  }
  if err := writer.Write("chr1", 900, 1100, "c"); err == nil {
    t.Error("TestBigBed5 failed!")
  }
  if err := writer.Write("chr1", 600, 500, "c"); err == nil {
    t.Error("TestBigBed5 failed!")
  }
  // chrM is always clipped
  if err := writer.Write("chrM", 50, 150, "m"); err != nil {
    t.Error(err)
  }
  if err := writer.Close(); err != nil {
    t.Error(err)
  }
  // autoSql must match the number of fields
  parameters := DefaultBigBedParameters()
  parameters.AutoSql, _ = BedAutoSql(6, 6)
  writer, err = NewBigBedWriter(newTestFile(t), genome, parameters)
  if err != nil {
    t.Fatal(err)
  }
  if err := writer.Write("chr1", 100, 200, "a"); err != nil {
    t.Error(err)
  }
  if err := writer.Close(); err == nil {
    t.Error("TestBigBed5 failed!")
  }
}

func TestBigBed6(t *testing.T) {
  genome := NewGenome([]string{"chr1"}, []int{1000})

  parameters := DefaultBigBedParameters()
  parameters.Clip = true
  file := writeTestBigBed(t, genome, parameters, binary.LittleEndian, func(w *BigBedWriter) error {
    if err := w.Write("chr1", -10, 20, ""); err != nil {
      return err
    }
    if err := w.Write("chr1", 900, 1100, ""); err != nil {
      return err
    }
    // skipped
    return w.Write("chr1", 1200, 1100, "")
  })
  reader := openTestBigBed(t, file)
  if r, err := reader.Intervals("chr1"); err != nil {
    t.Error(err)
  } else if len(r) != 2 || r[0].Start != 0 || r[0].End != 20 || r[1].End != 1000 {
    t.Errorf("TestBigBed6 failed: %v", r)
  }
  if names, err := reader.FieldNames(); err != nil || len(names) != 3 {
    t.Error("TestBigBed6 failed!")
  }
}

func TestBigBed7(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})

  parameters := DefaultBigBedParameters()
  parameters.ItemsPerSlot = 2
  parameters.ExtraIndex   = []string{"name", "strand"}
  file   := writeTestBigBed(t, genome, parameters, binary.LittleEndian, testBigBedData)
  reader := openTestBigBed(t, file)

  data, err := os.ReadFile(file.Name())
  if err != nil {
    t.Fatal(err)
  }
  order := binary.LittleEndian
  // extension header
  extensionOffset := order.Uint64(data[56:64])
  if extensionOffset == 0 || extensionOffset+12 > uint64(len(data)) {
    t.Fatalf("TestBigBed7 failed: invalid extension offset %d", extensionOffset)
  }
  extension := data[extensionOffset:]
  if order.Uint16(extension[0:2]) != 64 || order.Uint16(extension[2:4]) != 2 {
    t.Error("TestBigBed7 failed!")
  }
  listOffset := order.Uint64(extension[4:12])
  // each entry has 16 fixed bytes followed by 4 bytes per field
  for i, fieldId := range []uint16{3, 5} {
    entry := data[listOffset+uint64(20*i):]
    if order.Uint16(entry[0:2]) != 0 || order.Uint16(entry[2:4]) != 1 {
      t.Errorf("TestBigBed7 failed for entry %d", i)
    }
    fileOffset := order.Uint64(entry[4:12])
    if order.Uint16(entry[16:18]) != fieldId {
      t.Errorf("TestBigBed7 failed for entry %d", i)
    }
    if order.Uint32(data[fileOffset:fileOffset+4]) != BPT_MAGIC {
      t.Errorf("TestBigBed7 failed for entry %d", i)
    }
    if len(reader.Header.ExtraIndices) != 2 {
      t.Fatal("TestBigBed7 failed!")
    }
    index := reader.Header.ExtraIndices[i]
    if index.FileOffset != fileOffset || len(index.FieldIds) != 1 || index.FieldIds[0] != fieldId {
      t.Errorf("TestBigBed7 failed: %v", index)
    }
  }
  if r, err := reader.FindByName("strand", "-"); err != nil {
    t.Error(err)
  } else if len(r) != 1 || r[0].Start != 50 || r[0].Rest != "b\t0\t-" {
    t.Errorf("TestBigBed7 failed: %v", r)
  }
}

func TestBigBed8(t *testing.T) {
  genome := NewGenome([]string{"chr1", "chr2"}, []int{1000, 500})
  file   := writeTestBigBed(t, genome, DefaultBigBedParameters(), binary.LittleEndian, testBigBedData)
  reader := openTestBigBed(t, file)

  end := int64(1) << 32 + 50
  if r, err := reader.QueryInterval("chr1", 0, int(end), 0); err != nil || len(r) != 3 {
    t.Errorf("TestBigBed8 failed: %v", r)
  }
  if r, err := reader.QueryInterval("chr1", 75, 75, 0); err != nil || len(r) != 2 || r[0].Start != 0 || r[1].Start != 50 {
    t.Errorf("TestBigBed8 failed: %v", r)
  }
  if r, err := reader.QueryInterval("chr1", 300, 300, 0); err != nil || len(r) != 0 {
    t.Errorf("TestBigBed8 failed: %v", r)
  }
}
