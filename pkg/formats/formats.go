// Package formats reads and writes frame tables as CSV, JSON, Parquet,
// Arrow IPC and Avro object container files.
package formats

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/tollframe/pkg/compression"
	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// Format represents a table file format
type Format string

const (
	// CSV is comma separated values with a header row
	CSV Format = "csv"
	// JSON is an array of objects, one per row
	JSON Format = "json"
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Avro is an Apache Avro object container file
	Avro Format = "avro"
)

// Formats lists every supported format
var Formats = []Format{CSV, JSON, Parquet, Arrow, Avro}

var extensions = map[string]Format{
	".csv":     CSV,
	".json":    JSON,
	".parquet": Parquet,
	".arrow":   Arrow,
	".feather": Arrow,
	".avro":    Avro,
}

// Writer writes tables in a file format. Tables written to the same writer
// must share a schema; the first Write fixes it.
type Writer interface {
	// Write appends the rows of t
	Write(t *frame.Table) error
	// Close flushes buffered data and writes any footer. It does not close
	// the underlying writer.
	Close() error
	// Format returns the file format
	Format() Format
}

// ParseFormat converts a configuration or flag value to a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unsupported format: %s", s)
}

// FormatFromPath infers the format of path from its extension, ignoring a
// trailing compression suffix, so "trips.csv.gz" is CSV.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(compression.TrimExtension(path)))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "cannot infer format from %q", path).
		WithDetail("extension", ext)
}

// NewWriter creates a writer of the given format over w
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case CSV:
		return newCSVWriter(w), nil
	case JSON:
		return newJSONWriter(w), nil
	case Parquet:
		return newParquetWriter(w), nil
	case Arrow:
		return newArrowWriter(w), nil
	case Avro:
		return newAvroWriter(w), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported format: %s", format)
	}
}

// Read decodes a whole table of the given format from r
func Read(r io.Reader, format Format) (*frame.Table, error) {
	switch format {
	case CSV:
		return ReadCSV(r, DefaultCSVOptions())
	case JSON:
		return ReadJSON(r)
	case Parquet:
		return ReadParquet(r)
	case Arrow:
		return ReadArrow(r)
	case Avro:
		return ReadAvro(r)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported format: %s", format)
	}
}

// Write encodes t to w in the given format and closes the format writer
func Write(w io.Writer, t *frame.Table, format Format) error {
	fw, err := NewWriter(w, format)
	if err != nil {
		return err
	}
	if err := fw.Write(t); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// checkSchema verifies that t matches the schema fixed by an earlier Write
func checkSchema(fixed *frame.Schema, t *frame.Table) error {
	got := t.Schema()
	if len(got.Fields) != len(fixed.Fields) {
		return errors.Newf(errors.ErrorTypeValidation,
			"table has %d columns, writer expects %d", len(got.Fields), len(fixed.Fields))
	}
	for i, f := range got.Fields {
		if f != fixed.Fields[i] {
			return errors.New(errors.ErrorTypeValidation, "table schema differs from first write").
				WithDetail("column", f.Name)
		}
	}
	return nil
}
