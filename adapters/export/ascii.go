package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"fiddler/domain/trace"
)

const (
	stampLayout = "20060102_1504"
	dateLayout  = "2006-01-02, 15:04"
)

// ASCIIColumns is the column header of an exported trace. The background
// columns are always zero for simulated traces.
var ASCIIColumns = []string{
	"D-Dexc-bg", "A-Dexc-bg", "A-Aexc-bg",
	"D-Dexc-rw", "A-Dexc-rw", "A-Aexc-rw",
	"S", "E",
}

// ASCIIFileName returns trace_<name>_<YYYYMMDD_HHMM>.txt.
func ASCIIFileName(name int, now time.Time) string {
	return fmt.Sprintf("trace_%d_%s.txt", name, now.Format(stampLayout))
}

// SaveASCII writes one trace to path.
func SaveASCII(path string, tr *trace.Trace, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteASCII(f, tr, now); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteASCII writes the five-line header, a blank line and a tab-separated
// table with values rounded to 4 decimals.
func WriteASCII(w io.Writer, tr *trace.Trace, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Simulated trace exported by Fiddler")
	fmt.Fprintf(bw, "Date: %s\n", now.Format(dateLayout))
	fmt.Fprintln(bw, "Movie filename: None")
	fmt.Fprintf(bw, "FRET pair #%d\n", tr.Name)
	fmt.Fprintf(bw, "Bleaches at %s\n", tr.BleachString())
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, strings.Join(ASCIIColumns, "\t"))
	zero := fToStr(0, 4)
	for _, f := range tr.Frames {
		row := []string{
			zero, zero, zero,
			fToStr(f.DD, 4),
			fToStr(f.DA, 4),
			fToStr(f.AA, 4),
			fToStr(f.S, 4),
			fToStr(f.E, 4),
		}
		fmt.Fprintln(bw, strings.Join(row, "\t"))
	}
	return bw.Flush()
}

func fToStr(x float64, decimals int) string {
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	if x == 0 {
		x = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(x, 'f', decimals, 64)
}
