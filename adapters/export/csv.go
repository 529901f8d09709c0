package export

import (
	"os"

	"fiddler/domain/trace"
)

// SaveCSV writes the full table with the result columns as header.
func SaveCSV(path string, table *trace.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
