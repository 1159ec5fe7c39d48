// Package corpus loads evaluation cases: question, gold query, predicted
// query and optionally the result tables of both.
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// ErrUnsupportedFormat is returned for files whose extension is not one of
// the supported formats.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Case is one evaluation pair.
type Case struct {
	ID        string `yaml:"id" json:"id"`
	DB        string `yaml:"db_id" json:"db_id"`
	Question  string `yaml:"question,omitempty" json:"question,omitempty"`
	Gold      string `yaml:"gold" json:"gold"`
	Predicted string `yaml:"predicted,omitempty" json:"predicted,omitempty"`

	// Result tables, inline or as paths relative to the corpus file.
	GoldResult     tablematch.Table `yaml:"gold_result,omitempty" json:"gold_result,omitempty"`
	PredResult     tablematch.Table `yaml:"pred_result,omitempty" json:"pred_result,omitempty"`
	GoldResultFile string           `yaml:"gold_result_file,omitempty" json:"gold_result_file,omitempty"`
	PredResultFile string           `yaml:"pred_result_file,omitempty" json:"pred_result_file,omitempty"`
}

// HasTables reports whether both result tables are present.
func (c *Case) HasTables() bool {
	return c.GoldResult != nil && c.PredResult != nil
}

// Load reads a YAML (.yaml, .yml) or JSON (.json) list of cases. Cases
// without an id are numbered from 1 in file order.
func Load(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var cases []Case
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cases)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&cases)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range cases {
		c := &cases[i]
		if c.ID == "" {
			c.ID = strconv.Itoa(i + 1)
		}
		if err := c.resolveTables(base); err != nil {
			return nil, fmt.Errorf("case %s: %w", c.ID, err)
		}
	}
	return cases, nil
}

func (c *Case) resolveTables(base string) error {
	load := func(file string, dst *tablematch.Table) error {
		if file == "" || *dst != nil {
			return nil
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		t, err := ReadTable(file)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	}
	if err := load(c.GoldResultFile, &c.GoldResult); err != nil {
		return err
	}
	return load(c.PredResultFile, &c.PredResult)
}
