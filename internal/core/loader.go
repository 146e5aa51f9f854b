package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// HeaderIndex maps lowercased column names to their position in a record.
type HeaderIndex map[string]int

// RawRecord is one source row, positionally aligned with RawTable.Header.
type RawRecord []string

// RawTable is the source file held in memory.
// Every record has exactly len(Header) fields; short rows are padded with "".
type RawTable struct {
	Header    []string
	Index     HeaderIndex
	Records   []RawRecord
	BytesRead int64
}

// Column returns the position of a column, matched case-insensitively.
func (t *RawTable) Column(name string) (int, bool) {
	pos, ok := t.Index[strings.ToLower(name)]
	return pos, ok
}

// Len returns the number of data records.
func (t *RawTable) Len() int {
	return len(t.Records)
}

// LoadOptions controls how the source file is parsed.
type LoadOptions struct {
	Delimiter rune  // field separator, ',' if zero
	MaxBytes  int64 // 0 means unlimited
}

// DefaultLoadOptions returns comma-delimited parsing with no size limit.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Delimiter: ','}
}

// LoadRaw opens the file at path and parses it with ReadRaw.
// A missing or unreadable file yields ErrSourceUnavailable.
func LoadRaw(path string, opts LoadOptions) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceErr(path, ErrSourceUnavailable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, sourceErr(path, ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return nil, sourceErr(path, ErrSourceUnavailable, fmt.Errorf("%w: is a directory", fs.ErrInvalid))
	}
	if opts.MaxBytes > 0 && info.Size() > opts.MaxBytes {
		return nil, sourceErr(path, ErrSourceTooLarge, fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), opts.MaxBytes))
	}

	table, err := ReadRaw(f, opts)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			se.Path = path
			return nil, se
		}
		return nil, err
	}
	return table, nil
}

// ReadRaw parses delimited text into a RawTable.
// The first record is the header and must contain every column in RequiredColumns.
// Parse failures, rows wider than the header, and an empty input yield ErrSourceMalformed.
func ReadRaw(r io.Reader, opts LoadOptions) (*RawTable, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	src := WrapSource(r)
	var in io.Reader = src
	if opts.MaxBytes > 0 {
		in = io.LimitReader(src, opts.MaxBytes+1)
	}

	cr := csv.NewReader(in)
	cr.Comma = opts.Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, sourceErr("", ErrSourceMalformed, errors.New("no columns to parse from file"))
	}
	if err != nil {
		return nil, sourceErr("", ErrSourceMalformed, fmt.Errorf("read header: %w", err))
	}

	table := &RawTable{
		Header: header,
		Index:  MakeHeaderIndex(header),
	}

	if missing := missingColumns(table.Index); len(missing) > 0 {
		return nil, sourceErr("", ErrSourceMalformed, &MissingColumnsError{Columns: missing})
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if opts.MaxBytes > 0 && src.BytesRead > opts.MaxBytes {
				break
			}
			return nil, sourceErr("", ErrSourceMalformed, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, sourceErr("", ErrSourceMalformed,
				fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec)))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		table.Records = append(table.Records, rec)
	}

	table.BytesRead = src.BytesRead
	if opts.MaxBytes > 0 && src.BytesRead > opts.MaxBytes {
		return nil, sourceErr("", ErrSourceTooLarge, fmt.Errorf("exceeds limit of %d bytes", opts.MaxBytes))
	}

	return table, nil
}

// RequiredColumns returns every source column referenced by a registered entity,
// in first-seen order.
func RequiredColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, def := range All() {
		for _, spec := range def.Fields {
			key := strings.ToLower(spec.Source)
			if seen[key] {
				continue
			}
			seen[key] = true
			cols = append(cols, spec.Source)
		}
	}
	return cols
}

func missingColumns(idx HeaderIndex) []string {
	var missing []string
	for _, col := range RequiredColumns() {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
