// Package csv is a wrapper around the stdlib csv library that provides a nice
// API for reading the tabular files of a transit schedule feed.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lmichelin/feedprep/constants"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// File is one open tabular file. Columns are declared up front with Required
// and Optional; rows are then visited with NextRow.
type File struct {
	name            constants.File
	reader          *csv.Reader
	headerIndex     map[string]int
	rowNumber       int
	missingRequired []string
	cells           []string
	missingRowKeys  []string
	ioErr           error
	closer          func() error
}

// Open reads the header row of a tabular file and prepares it for iteration.
//
// A file without any rows at all (not even a header) is an error.
func Open(name constants.File, reader io.ReadCloser) (*File, error) {
	csvReader := bomAwareCSVReader(reader)
	header, err := csvReader.Read()
	if err == io.EOF {
		reader.Close()
		return nil, fmt.Errorf("%s contains no rows", name)
	} else if err != nil {
		reader.Close()
		return nil, err
	}
	csvReader.ReuseRecord = true
	index := map[string]int{}
	for i, columnName := range header {
		index[columnName] = i
	}
	return &File{
		name:        name,
		reader:      csvReader,
		headerIndex: index,
		closer:      reader.Close,
	}, nil
}

func (f *File) Name() constants.File {
	return f.name
}

// Column reads one cell of the current row.
type Column struct {
	i        int
	name     string
	required bool
	f        *File
}

// Required declares a column that every row must populate. If the header does
// not contain the column at all, it is reported by MissingRequiredColumns.
func (f *File) Required(name string) Column {
	i, ok := f.headerIndex[name]
	if !ok {
		f.missingRequired = append(f.missingRequired, name)
		i = -1
	}
	return Column{i: i, name: name, required: true, f: f}
}

// Optional declares a column that may be absent from the header or empty in
// any row.
func (f *File) Optional(name string) Column {
	i, ok := f.headerIndex[name]
	if !ok {
		i = -1
	}
	return Column{i: i, name: name, f: f}
}

// MissingRequiredColumns reports required columns absent from the header.
func (f *File) MissingRequiredColumns() []string {
	return f.missingRequired
}

// Read returns the cell value for the current row. Reading an empty cell of a
// required column registers the column in MissingRowKeys.
func (c Column) Read() string {
	if c.i < 0 || c.i >= len(c.f.cells) || c.f.cells[c.i] == "" {
		if c.required {
			c.f.missingRowKeys = append(c.f.missingRowKeys, c.name)
		}
		return ""
	}
	return c.f.cells[c.i]
}

// ReadOr returns the cell value, or def when the cell is absent or empty.
func (c Column) ReadOr(def string) string {
	if c.i < 0 || c.i >= len(c.f.cells) || c.f.cells[c.i] == "" {
		return def
	}
	return c.f.cells[c.i]
}

// NextRow advances to the next data row, returning false at end of input.
func (f *File) NextRow() bool {
	cells, err := f.reader.Read()
	if err == io.EOF {
		f.cells = nil
		return false
	}
	if err != nil {
		f.cells = nil
		f.ioErr = err
		return false
	}
	f.rowNumber++
	f.cells = cells
	f.missingRowKeys = nil
	return true
}

// RowNumber is the 1-based index of the current data row.
func (f *File) RowNumber() int {
	return f.rowNumber
}

// MissingRowKeys lists required columns the current row left empty.
func (f *File) MissingRowKeys() []string {
	return f.missingRowKeys
}

func (f *File) Close() error {
	closeErr := f.closer()
	if f.ioErr != nil {
		return f.ioErr
	}
	return closeErr
}

// bomAwareCSVReader detects a UTF byte order mark at the start of the data
// and transforms to UTF-8 accordingly. Without a BOM the data is read as is.
func bomAwareCSVReader(reader io.Reader) *csv.Reader {
	transformer := unicode.BOMOverride(encoding.Nop.NewDecoder())
	return csv.NewReader(transform.NewReader(reader, transformer))
}
