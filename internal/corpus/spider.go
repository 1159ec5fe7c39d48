package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadSpiderPair reads the Spider benchmark layout: a gold file with one
// "query<TAB>db_id" per line and a prediction file with one query per line.
// Blank lines are skipped in both. Case ids are 1-based line ordinals.
func LoadSpiderPair(goldPath, predPath string) ([]Case, error) {
	gold, err := readLines(goldPath)
	if err != nil {
		return nil, err
	}
	pred, err := readLines(predPath)
	if err != nil {
		return nil, err
	}
	if len(gold) != len(pred) {
		return nil, fmt.Errorf("%s has %d queries but %s has %d", goldPath, len(gold), predPath, len(pred))
	}

	cases := make([]Case, len(gold))
	for i, line := range gold {
		query, db, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected query and db_id separated by a tab", goldPath, i+1)
		}
		// predictions may carry a trailing db_id column too
		p, _, _ := strings.Cut(pred[i], "\t")
		cases[i] = Case{
			ID:        strconv.Itoa(i + 1),
			DB:        strings.TrimSpace(db),
			Gold:      strings.TrimSpace(query),
			Predicted: strings.TrimSpace(p),
		}
	}
	return cases, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
