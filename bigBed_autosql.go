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

import "bytes"
import "fmt"
import "strings"

/* -------------------------------------------------------------------------- */

var bedAutoSqlFields = []string{
  `string chrom;       "Reference sequence chromosome or scaffold"`,
  `uint   chromStart;  "Start position in chromosome"`,
  `uint   chromEnd;    "End position in chromosome"`,
  `string name;        "Name of item."`,
  `int score;          "Score (0-1000)"`,
  `char[1] strand;     "+ or - for strand"`,
  `uint thickStart;   "Start of where display should be thick (start codon)"`,
  `uint thickEnd;     "End of where display should be thick (stop codon)"`,
  `string reserved;     "Used as itemRgb as of 2004-11-22"`,
  `int blockCount;    "Number of blocks"`,
  `int[blockCount] blockSizes; "Comma separated list of block sizes"`,
  `int[blockCount] chromStarts; "Start positions relative to chromStart"`,
  `int expCount;	"Experiment count"`,
  `int[expCount] expIds;	"Comma separated list of experiment ids. Always 0,1,2,3...."`,
  `float[expCount] expScores; "Comma separated list of experiment scores."`,
}

// Default autoSql table for bed files with bedFieldCount standard fields
// and fieldCount fields in total.
func BedAutoSql(bedFieldCount, fieldCount int) (string, error) {
  if bedFieldCount < 3 || bedFieldCount > len(bedAutoSqlFields) {
    return "", fmt.Errorf("invalid number of bed fields `%d' (must be between 3 and %d)", bedFieldCount, len(bedAutoSqlFields))
  }
  var buffer bytes.Buffer
  buffer.WriteString("table bed\n")
  buffer.WriteString("\"Browser Extensible Data\"\n")
  buffer.WriteString("   (\n")
  for i := 0; i < bedFieldCount; i++ {
    buffer.WriteString("   ")
    buffer.WriteString(bedAutoSqlFields[i])
    buffer.WriteString("\n")
  }
  for i := bedFieldCount+1; i <= fieldCount; i++ {
    buffer.WriteString(fmt.Sprintf("   string field%d;\t\"Undocumented field\"\n", i))
  }
  buffer.WriteString("   )\n")
  return buffer.String(), nil
}

// Names of the columns of an autoSql table.
func AutoSqlFieldNames(autoSql string) ([]string, error) {
  from := strings.Index    (autoSql, "(")
  to   := strings.LastIndex(autoSql, ")")
  if from == -1 || to < from {
    return nil, fmt.Errorf("invalid autoSql table: missing field list")
  }
  names := []string{}
  for _, line := range strings.Split(autoSql[from+1:to], "\n") {
    line = strings.TrimSpace(line)
    if line == "" {
      continue
    }
    i := strings.Index(line, ";")
    if i == -1 {
      return nil, fmt.Errorf("invalid autoSql field `%s'", line)
    }
    fields := strings.Fields(line[0:i])
    if len(fields) < 2 {
      return nil, fmt.Errorf("invalid autoSql field `%s'", line)
    }
    names = append(names, fields[len(fields)-1])
  }
  return names, nil
}
