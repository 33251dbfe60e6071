package audit

import (
	"bytes"
	"encoding/csv"
	"time"
)

// WriteCSV renders timeline rows as CSV with a header line.
func WriteCSV(rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"at", "actor", "action", "resource_type", "resource_id", "ip_address"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.At.UTC().Format(time.RFC3339),
			r.Actor,
			r.Action,
			r.ResourceType,
			r.ResourceID,
			r.IPAddress,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
