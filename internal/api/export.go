//
//
package api

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// ExportFilename is the suggested download name of the CSV export.
const ExportFilename = "temperature-log.csv"

// handleExport handles GET /api/temperature/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body, err := encodeCSV(s.station.History(0))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Failed to encode export")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// encodeCSV renders readings oldest first under a fixed header.
func encodeCSV(readings []reading.Reading) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write([]string{"Timestamp", "Temperature (°C)"}); err != nil {
		return nil, err
	}
	for _, r := range readings {
		row := []string{
			r.Timestamp.UTC().Format(reading.TimestampLayout),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	return buf.Bytes(), cw.Error()
}
