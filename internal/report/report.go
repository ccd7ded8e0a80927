package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/oshokin/smart-home/internal/repository/history"
)

const (
	// CostGroup is the experiment group shown the estimated cost.
	CostGroup = "2"
	// CostPerMinute is the estimated price of one minute of light, in dollars.
	CostPerMinute = 0.05

	dateLayout = "2006-01-02"
)

// FileName returns the report object name of a house for a day.
func FileName(day time.Time, houseName string) string {
	return "report-" + day.Format(dateLayout) + "-" + houseName + ".csv"
}

// Build renders the CSV report of record.
func Build(record *history.Record) ([]byte, error) {
	var (
		minutes = int64(record.LightsOn / time.Minute)
		seconds = int64(record.LightsOn/time.Second) % 60
		header  = []string{"House Name", "Light Usage Minute", "Light Usage Second"}
		row     = []string{
			record.House,
			fmt.Sprintf("%d minutes", minutes),
			fmt.Sprintf("%d seconds", seconds),
		}
	)

	if record.GroupExperiment == CostGroup {
		cost := record.LightsOn.Minutes() * CostPerMinute

		header = append(header, "Estimated Cost")
		row = append(row, fmt.Sprintf("$%.2f", cost))
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{header, row}); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return buf.Bytes(), nil
}
