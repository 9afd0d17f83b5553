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
import "fmt"
import "io"
import "sync"

/* -------------------------------------------------------------------------- */

// Progress bar for jobs with a known number of steps. The bar is
// redrawn every K steps. Updates may come from several goroutines.
type Progress struct {
  N, K, LineWidth int
  Writer io.Writer
  mtx    sync.Mutex
  done   int
}

/* -------------------------------------------------------------------------- */

func New(writer io.Writer, n, k int) *Progress {
  progress := Progress{N: n, K: 1, LineWidth: 40, Writer: writer}
  if k > 0 && k <= n {
    progress.K = n/k
  }
  return &progress
}

/* -------------------------------------------------------------------------- */

const __line_del__ = "\033[2K\r"

func (progress *Progress) Format(i int) string {
  var buffer bytes.Buffer

  p := 1.0
  if progress.N > 0 {
    p = float64(i)/float64(progress.N)
  }
  // carriage return
  buffer.WriteString(__line_del__)
  buffer.WriteString("|")

  for j := 1; j < progress.LineWidth-1; j++ {
    if float64(j)/float64(progress.LineWidth) < p {
      buffer.WriteString(">")
    } else {
      buffer.WriteString(" ")
    }
  }
  fmt.Fprintf(&buffer, "| %6.2f%%", p*100)
  // add newline if finished
  if i >= progress.N {
    buffer.WriteString("\n")
  }
  return buffer.String()
}

func (progress *Progress) Print(i int) {
  if i == 0 || i >= progress.N || (i % progress.K == 0) {
    fmt.Fprint(progress.Writer, progress.Format(i))
  }
}

// Count one finished step and redraw the bar if necessary.
func (progress *Progress) Step() {
  progress.mtx.Lock()
  defer progress.mtx.Unlock()
  progress.done++
  progress.Print(progress.done)
}
