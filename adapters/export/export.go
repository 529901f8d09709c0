// Package export writes generated trace tables to disk: one ASCII file per
// trace in the layout trace viewers import, or the whole table as CSV or XLSX.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fiddler/domain/core"
	"fiddler/domain/run"
	"fiddler/domain/trace"
	"fiddler/internal"
	"fiddler/internal/errors"
)

// Format selects the output layout.
type Format string

const (
	FormatASCII Format = "ascii"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat accepts ascii, txt, csv or xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascii", "txt":
		return FormatASCII, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown export format %q (want ascii, csv or xlsx)", s))
}

// Exporter writes tables into a directory.
type Exporter struct {
	clock  core.Clock
	logger *internal.Logger
}

// NewExporter creates an exporter. A nil clock uses the system time.
func NewExporter(clock core.Clock, logger *internal.Logger) *Exporter {
	if clock == nil {
		clock = core.SystemClock
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Exporter{clock: clock, logger: logger.Named("export")}
}

// Export writes the table to dir and returns the paths written. The manifest
// is embedded in XLSX output and ignored otherwise; it may be nil.
func (e *Exporter) Export(dir string, format Format, table *trace.Table, manifest *run.Manifest) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ExportFailed(dir, err)
	}

	now := e.clock()
	var paths []string
	switch format {
	case FormatASCII:
		for _, tr := range table.Traces {
			path := filepath.Join(dir, ASCIIFileName(tr.Name, now))
			if err := SaveASCII(path, tr, now); err != nil {
				return paths, errors.ExportFailed(path, err)
			}
			paths = append(paths, path)
		}
	case FormatCSV:
		path := filepath.Join(dir, "traces_"+now.Format(stampLayout)+".csv")
		if err := SaveCSV(path, table); err != nil {
			return nil, errors.ExportFailed(path, err)
		}
		paths = append(paths, path)
	case FormatXLSX:
		path := filepath.Join(dir, "traces_"+now.Format(stampLayout)+".xlsx")
		if err := SaveXLSX(path, table, manifest); err != nil {
			return nil, errors.ExportFailed(path, err)
		}
		paths = append(paths, path)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown export format %q", format))
	}

	e.logger.Info("exported %d traces as %s to %s (%d files)", table.Len(), format, dir, len(paths))
	return paths, nil
}
