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

import   "testing"

/* -------------------------------------------------------------------------- */

func TestAutoSql1(t *testing.T) {
  as, err := BedAutoSql(12, 14)
  if err != nil {
    t.Error(err); return
  }
  names, err := AutoSqlFieldNames(as)
  if err != nil {
    t.Error(err); return
  }
  if len(names) != 14 || names[3] != "name" || names[10] != "blockSizes" || names[11] != "chromStarts" || names[12] != "field13" || names[13] != "field14" {
    t.Errorf("TestAutoSql1 failed: %v", names)
  }
  if _, err := BedAutoSql(2, 2); err == nil {
    t.Error("TestAutoSql1 failed!")
  }
  if _, err := AutoSqlFieldNames("table bed"); err == nil {
    t.Error("TestAutoSql1 failed!")
  }
  if _, err := AutoSqlFieldNames("table bed\n(\nstring chrom\n)"); err == nil {
    t.Error("TestAutoSql1 failed!")
  }
}
