package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sip-go/internal/sip"
)

// Column names of an intake export. date is optional.
const (
	ColumnAmount    = "amount_ml"
	ColumnTimestamp = "timestamp"
	ColumnDate      = "date"
)

// ParseFile reads an intake export from a CSV file.
func ParseFile(path string) ([]sip.ImportEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	entries, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// ParseCSV reads an intake export. The header names the columns in any order;
// amount_ml and timestamp are required. Timestamps and dates are passed through
// unvalidated so BulkImport can skip bad rows individually.
func ParseCSV(r io.Reader) ([]sip.ImportEntry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	amountCol, ok := columns[ColumnAmount]
	if !ok {
		return nil, fmt.Errorf("invalid header: missing %q column, got %v", ColumnAmount, header)
	}
	timestampCol, ok := columns[ColumnTimestamp]
	if !ok {
		return nil, fmt.Errorf("invalid header: missing %q column, got %v", ColumnTimestamp, header)
	}
	dateCol, hasDate := columns[ColumnDate]

	var entries []sip.ImportEntry
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}

		amount, err := strconv.ParseInt(strings.TrimSpace(record[amountCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing amount %q: %w", line, record[amountCol], err)
		}

		entry := sip.ImportEntry{
			AmountMl:  amount,
			Timestamp: strings.TrimSpace(record[timestampCol]),
		}
		if hasDate {
			entry.Date = strings.TrimSpace(record[dateCol])
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
