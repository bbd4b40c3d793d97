package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// DetectKind determines the database kind from a file name's extension.
// The extension is whatever follows the last dot, compared case-insensitively.
func DetectKind(fileName string) (Kind, error) {
	ext := fileName
	if idx := strings.LastIndex(fileName, "."); idx >= 0 {
		ext = fileName[idx+1:]
	}

	switch strings.ToLower(ext) {
	case "json":
		return KindJSON, nil
	case "csv":
		return KindCSV, nil
	case "txt":
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ParseOptions tunes how file content is turned into records.
type ParseOptions struct {
	// CSVQuoting switches CSV parsing from plain comma splitting to RFC 4180
	// (quoted fields may contain commas and newlines).
	CSVQuoting bool
}

// Parse converts decoded file content of the given kind into records.
func Parse(kind Kind, content string, opts ParseOptions) ([]Record, error) {
	switch kind {
	case KindJSON:
		return ParseJSON(content)
	case KindCSV:
		if opts.CSVQuoting {
			return parseCSVQuoted(content)
		}
		return parseCSV(content), nil
	case KindText:
		return parseText(content), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
}

// ParseJSON parses any valid JSON value into records.
//
// A top-level array yields one record per element. Any other value is a
// single record. Objects become field records in key order; everything else
// becomes a text record holding the stringified value.
func ParseJSON(content string) ([]Record, error) {
	if !gjson.Valid(content) {
		return nil, ErrInvalidJSON
	}

	root := gjson.Parse(content)
	if !root.IsArray() {
		return []Record{jsonRecord(root)}, nil
	}

	records := make([]Record, 0)
	root.ForEach(func(_, value gjson.Result) bool {
		records = append(records, jsonRecord(value))
		return true
	})
	return records, nil
}

func jsonRecord(v gjson.Result) Record {
	if !v.IsObject() {
		return NewTextRecord(jsonString(v))
	}

	rec := NewFieldRecord()
	v.ForEach(func(key, value gjson.Result) bool {
		rec.set(key.Str, jsonString(value))
		return true
	})
	return rec
}

// jsonString stringifies a JSON value for matching and display. Strings are
// unquoted, everything else keeps its JSON text.
func jsonString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return "null"
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return strings.TrimSpace(v.Raw)
	}
}

// parseCSV splits on newlines and commas without any quoting support. The
// first line is the header; values are zipped to headers by position, with
// missing trailing values left empty and surplus values dropped.
func parseCSV(content string) []Record {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	headers := splitTrimmed(lines[0])

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, zipRow(headers, splitTrimmed(line)))
	}
	return records
}

// parseCSVQuoted is parseCSV with RFC 4180 field parsing.
func parseCSVQuoted(content string) ([]Record, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(content)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}
	headers := trimAll(header)

	records := make([]Record, 0)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, zipRow(headers, trimAll(row)))
	}
	return records, nil
}

func zipRow(headers, values []string) Record {
	rec := Record{fields: make([]Field, 0, len(headers))}
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		rec.set(h, v)
	}
	return rec
}

func splitTrimmed(line string) []string {
	return trimAll(strings.Split(line, ","))
}

func trimAll(parts []string) []string {
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// parseText keeps every non-blank line as a record.
func parseText(content string) []Record {
	lines := strings.Split(content, "\n")
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, NewTextRecord(strings.TrimSuffix(line, "\r")))
	}
	return records
}
