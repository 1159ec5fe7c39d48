package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// ReadTable reads a result table. A .json file holds an array of rows, the
// first being the header. A .csv file has a header line; its cells stay
// strings and are coerced when tables are matched.
func ReadTable(path string) (tablematch.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var rows [][]any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return tablematch.Table(rows), nil
	case ".csv":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		t := make(tablematch.Table, len(records))
		for i, rec := range records {
			row := make([]any, len(rec))
			for j, cell := range rec {
				row[j] = cell
			}
			t[i] = row
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// AttachPredictions fills in predicted queries and result tables from dir.
// For a case with id N it reads N.sql as the predicted query and N.json or
// N.csv as the predicted table. Missing files are not an error. It returns
// the number of cases that received at least one artifact.
func AttachPredictions(cases []Case, dir string) (int, error) {
	attached := 0
	for i := range cases {
		c := &cases[i]
		found := false

		sqlText, err := os.ReadFile(filepath.Join(dir, c.ID+".sql"))
		switch {
		case err == nil:
			c.Predicted = strings.TrimSpace(string(sqlText))
			found = true
		case !errors.Is(err, fs.ErrNotExist):
			return attached, fmt.Errorf("case %s: %w", c.ID, err)
		}

		for _, ext := range []string{".json", ".csv"} {
			path := filepath.Join(dir, c.ID+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			t, err := ReadTable(path)
			if err != nil {
				return attached, fmt.Errorf("case %s: %w", c.ID, err)
			}
			c.PredResult = t
			found = true
			break
		}

		if found {
			attached++
		}
	}
	return attached, nil
}
