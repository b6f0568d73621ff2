package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader matches the artifact contract consumed by callers.
var csvHeader = []string{"Date", "Quantity", "Item Name", "Cost Per Item ($)"}

// WriteCSV renders the ledger as the delimited artifact handed to the
// caller. The header row is written even for an empty ledger.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Date,
			strconv.Itoa(row.Quantity),
			row.Name,
			strconv.FormatFloat(row.UnitPrice, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
