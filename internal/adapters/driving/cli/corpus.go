package cli

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
)

// Corpus file formats.
const (
	formatAuto  = "auto"
	formatText  = "txt"
	formatJSONL = "jsonl"
	formatCSV   = "csv"
)

// maxLineSize bounds one document line in text and JSONL input.
const maxLineSize = 16 * 1024 * 1024

// corpusFields names the id and text fields of structured input.
type corpusFields struct {
	Text string
	ID   string
}

// detectFormat picks the format from the file extension.
func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return formatJSONL
	case ".csv":
		return formatCSV
	default:
		return formatText
	}
}

// readCorpus reads documents in the given format. ids is nil when the input
// carries none.
func readCorpus(r io.Reader, format string, fields corpusFields) (texts, ids []string, err error) {
	switch format {
	case formatText:
		texts, err = readText(r)
	case formatJSONL:
		texts, ids, err = readJSONL(r, fields)
	case formatCSV:
		texts, ids, err = readCSV(r, fields)
	default:
		return nil, nil, fmt.Errorf("unknown corpus format %q", format)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(texts) == 0 {
		return nil, nil, errors.New("corpus is empty")
	}
	return texts, ids, nil
}

// readText reads one document per non-blank line.
func readText(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var texts []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return texts, nil
}

// readJSONL reads one JSON object per line.
func readJSONL(r io.Reader, fields corpusFields) ([]string, []string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var rec idCollector
	for line := 1; scanner.Scan(); line++ {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		text, ok := obj[fields.Text].(string)
		if !ok {
			return nil, nil, fmt.Errorf("line %d: missing string field %q", line, fields.Text)
		}
		id, hasID := obj[fields.ID]
		if err := rec.add(text, fmt.Sprint(id), hasID && id != nil); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read corpus: %w", err)
	}
	return rec.texts, rec.result(), nil
}

// readCSV reads a CSV file with a header row.
func readCSV(r io.Reader, fields corpusFields) ([]string, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	textCol := slices.Index(header, fields.Text)
	if textCol < 0 {
		return nil, nil, fmt.Errorf("csv has no %q column", fields.Text)
	}
	idCol := slices.Index(header, fields.ID)

	var rec idCollector
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		if textCol >= len(record) {
			return nil, nil, fmt.Errorf("row %d: missing %q column", row, fields.Text)
		}
		var id string
		if idCol >= 0 && idCol < len(record) {
			id = record[idCol]
		}
		if err := rec.add(record[textCol], id, idCol >= 0); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	return rec.texts, rec.result(), nil
}

// idCollector accumulates records and requires ids on all or none of them.
type idCollector struct {
	texts []string
	ids   []string
	withs int
}

func (c *idCollector) add(text, id string, hasID bool) error {
	if hasID {
		if len(c.texts) != c.withs {
			return errors.New("id present on some records but not others")
		}
		c.withs++
	} else if c.withs > 0 {
		return errors.New("id present on some records but not others")
	}
	c.texts = append(c.texts, text)
	c.ids = append(c.ids, id)
	return nil
}

func (c *idCollector) result() []string {
	if c.withs == 0 {
		return nil
	}
	return c.ids
}
