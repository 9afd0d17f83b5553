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

package progress

/* -------------------------------------------------------------------------- */

import "bytes"
import "strings"
import "testing"

/* -------------------------------------------------------------------------- */

func TestProgress1(t *testing.T) {
  var buffer bytes.Buffer
  p := New(&buffer, 10, 5)
  p.Print(0)
  for i := 0; i < 10; i++ {
    p.Step()
  }
  s := buffer.String()
  if strings.Count(s, __line_del__) != 6 {
    t.Error("TestProgress1 failed!")
  }
  if !strings.HasSuffix(s, "100.00%\n") {
    t.Error("TestProgress1 failed!")
  }
}
