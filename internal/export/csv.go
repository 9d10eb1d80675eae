// Package export serializes record collections for download: CSV for
// spreadsheets and a raw JSON dump for full backups.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"installerpro/internal/core"
)

// WriteCSV writes one row per installation after a header row. The
// client column appears only when the deployment collects client names;
// the csv writer quotes embedded commas in that free-text field.
func WriteCSV(w io.Writer, installations []core.Installation, includeClient bool) error {
	cw := csv.NewWriter(w)

	header := []string{"date", "code"}
	if includeClient {
		header = append(header, "clientName")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, inst := range installations {
		row := []string{inst.Date.ISO(), inst.Code}
		if includeClient {
			row = append(row, inst.ClientName)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
