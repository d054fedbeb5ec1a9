package cache

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/citsci/scirec/pkg/catalog"
)

// readRecordSet loads the persisted CSV into sparse records plus the header
// order it was written with. Empty cells stay absent from the record so a
// load/persist cycle round-trips byte for byte.
func readRecordSet(path string) ([]catalog.Opportunity, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("cache: reading record set %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("cache: record set %s has no header row", path)
	}
	header := rows[0]
	hasUID := false
	for _, col := range header {
		if col == catalog.FieldUID {
			hasUID = true
			break
		}
	}
	if !hasUID {
		return nil, nil, fmt.Errorf("cache: record set %s has no %s column", path, catalog.FieldUID)
	}

	records := make([]catalog.Opportunity, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := catalog.Opportunity{}
		for i, col := range header {
			if row[i] != "" {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, header, nil
}

// writeRecordSet persists records under the given column order. Writes go to
// a temp file first and replace the target via rename, so a failed merge
// never leaves a half-formed file over the previous cycle's data.
func writeRecordSet(path string, columns []string, records []catalog.Opportunity) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".recordset-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		tmp.Close()
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// appendColumns extends a header with any record keys it doesn't carry yet.
// New keys are appended in sorted order so the layout is deterministic, with
// coords pinned to the end.
func appendColumns(columns []string, records ...catalog.Opportunity) []string {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		seen[col] = true
	}
	var extra []string
	hasCoords := false
	for _, rec := range records {
		for k := range rec {
			if seen[k] {
				continue
			}
			seen[k] = true
			if k == catalog.FieldCoords {
				hasCoords = true
				continue
			}
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	columns = append(columns, extra...)
	if hasCoords {
		columns = append(columns, catalog.FieldCoords)
	}
	return columns
}

func buildColumns(records []catalog.Opportunity) []string {
	return appendColumns([]string{catalog.FieldUID}, records...)
}
