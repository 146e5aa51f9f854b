package core

import (
	"errors"
	"fmt"
	"strings"
)

// Load-time failures. They are fatal for the request that triggered the load;
// the pipeline never returns partial data alongside them.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceMalformed   = errors.New("source malformed")
	ErrSourceTooLarge    = errors.New("source too large")
)

// SourceError carries the attempted location and the underlying cause of a load failure.
// Kind is one of the ErrSource* sentinels, so errors.Is matches on it.
type SourceError struct {
	Path string
	Kind error
	Err  error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// MissingColumnsError lists required columns absent from the source header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// FilterError reports a filter request that could not be interpreted.
type FilterError struct {
	Field string
	Value string
	Err   error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

func sourceErr(path string, kind, err error) error {
	return &SourceError{Path: path, Kind: kind, Err: err}
}
