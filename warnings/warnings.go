// Package warnings contains the non-fatal problems ingestion can report.
package warnings

import (
	"fmt"

	"github.com/lmichelin/feedprep/constants"
)

// Warning is a row-level problem that caused the row to be skipped during
// ingestion. Structural problems are errors instead, never warnings.
type Warning interface {
	File() constants.File
	Error() string
}

// RowMissingColumns reports a row that left required cells empty.
type RowMissingColumns struct {
	FileName    constants.File
	RowNumber   int
	MissingKeys []string
}

func (w RowMissingColumns) File() constants.File {
	return w.FileName
}

func (w RowMissingColumns) Error() string {
	return fmt.Sprintf("skipping row %d of %s because of missing columns %v", w.RowNumber, w.FileName, w.MissingKeys)
}

// InvalidValue reports a row whose cell could not be parsed as the expected
// type (a time, date or number).
type InvalidValue struct {
	FileName  constants.File
	RowNumber int
	Column    string
	Value     string
}

func (w InvalidValue) File() constants.File {
	return w.FileName
}

func (w InvalidValue) Error() string {
	return fmt.Sprintf("skipping row %d of %s: cannot parse %s value %q", w.RowNumber, w.FileName, w.Column, w.Value)
}
