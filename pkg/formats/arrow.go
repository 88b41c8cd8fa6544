package formats

import (
	"bytes"
	"context"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

var timestampType = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}

// arrowWriter implements Writer for the Arrow IPC file format
type arrowWriter struct {
	writer     io.Writer
	pool       memory.Allocator
	schema     *frame.Schema
	fileWriter *ipc.FileWriter
}

func newArrowWriter(w io.Writer) *arrowWriter {
	return &arrowWriter{writer: w, pool: memory.NewGoAllocator()}
}

func (aw *arrowWriter) Write(t *frame.Table) error {
	if aw.fileWriter == nil {
		s := t.Schema()
		aw.schema = &s
		fw, err := ipc.NewFileWriter(aw.writer, ipc.WithSchema(toArrowSchema(s)), ipc.WithAllocator(aw.pool))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "create arrow writer")
		}
		aw.fileWriter = fw
	} else if err := checkSchema(aw.schema, t); err != nil {
		return err
	}

	rec, err := buildRecord(aw.pool, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	if err := aw.fileWriter.Write(rec); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "write arrow record batch")
	}
	return nil
}

func (aw *arrowWriter) Close() error {
	if aw.fileWriter == nil {
		// an empty file still needs a schema
		if err := aw.Write(frame.New()); err != nil {
			return err
		}
	}
	if err := aw.fileWriter.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "close arrow writer")
	}
	return nil
}

func (aw *arrowWriter) Format() Format { return Arrow }

// ReadArrow reads an Arrow IPC file
func ReadArrow(r io.Reader) (*frame.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "read arrow data")
	}

	pool := memory.NewGoAllocator()
	reader, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(pool))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "open arrow file")
	}
	defer reader.Close()

	b := newTableBuilder(reader.Schema())
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "read arrow record batch").WithDetail("batch", i)
		}
		if err := b.appendRecord(rec); err != nil {
			return nil, err
		}
	}
	return b.table()
}

// parquetWriter implements Writer for Parquet format
type parquetWriter struct {
	writer     io.Writer
	pool       memory.Allocator
	schema     *frame.Schema
	fileWriter *pqarrow.FileWriter
}

func newParquetWriter(w io.Writer) *parquetWriter {
	return &parquetWriter{writer: w, pool: memory.NewGoAllocator()}
}

func (pw *parquetWriter) Write(t *frame.Table) error {
	if pw.fileWriter == nil {
		s := t.Schema()
		pw.schema = &s

		props := parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Snappy),
			parquet.WithAllocator(pw.pool),
		)
		arrowProps := pqarrow.NewArrowWriterProperties(
			pqarrow.WithAllocator(pw.pool),
			pqarrow.WithStoreSchema(),
		)
		fw, err := pqarrow.NewFileWriter(toArrowSchema(s), pw.writer, props, arrowProps)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "create parquet writer")
		}
		pw.fileWriter = fw
	} else if err := checkSchema(pw.schema, t); err != nil {
		return err
	}

	rec, err := buildRecord(pw.pool, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	if err := pw.fileWriter.Write(rec); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "write parquet row group")
	}
	return nil
}

func (pw *parquetWriter) Close() error {
	if pw.fileWriter == nil {
		if err := pw.Write(frame.New()); err != nil {
			return err
		}
	}
	if err := pw.fileWriter.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "close parquet writer")
	}
	return nil
}

func (pw *parquetWriter) Format() Format { return Parquet }

// ReadParquet reads a Parquet file
func ReadParquet(r io.Reader) (*frame.Table, error) {
	// Parquet needs random access to the footer
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "read parquet data")
	}

	fr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "open parquet file")
	}
	defer fr.Close()

	pool := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, pool)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "create arrow reader")
	}

	tbl, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "read parquet table")
	}
	defer tbl.Release()

	b := newTableBuilder(tbl.Schema())
	tr := array.NewTableReader(tbl, 64*1024)
	defer tr.Release()
	for tr.Next() {
		if err := b.appendRecord(tr.Record()); err != nil {
			return nil, err
		}
	}
	if err := tr.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "iterate parquet table")
	}
	return b.table()
}

// Schema conversion helpers

func toArrowSchema(s frame.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrow.Field{
			Name:     f.Name,
			Type:     toArrowType(f.Type),
			Nullable: f.Type == frame.ColumnTypeFloat,
		}
	}
	return arrow.NewSchema(fields, nil)
}

func toArrowType(t frame.ColumnType) arrow.DataType {
	switch t {
	case frame.ColumnTypeInt:
		return arrow.PrimitiveTypes.Int64
	case frame.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float64
	case frame.ColumnTypeBool:
		return arrow.FixedWidthTypes.Boolean
	case frame.ColumnTypeTimestamp:
		return timestampType
	default:
		return arrow.BinaryTypes.String
	}
}

func fromArrowType(t arrow.DataType) frame.ColumnType {
	switch t.ID() {
	case arrow.BOOL:
		return frame.ColumnTypeBool
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return frame.ColumnTypeInt
	case arrow.FLOAT32, arrow.FLOAT64:
		return frame.ColumnTypeFloat
	case arrow.TIMESTAMP:
		return frame.ColumnTypeTimestamp
	default:
		return frame.ColumnTypeString
	}
}

// buildRecord converts a table into a single arrow record. NaN floats are
// written as nulls.
func buildRecord(pool memory.Allocator, t *frame.Table) (arrow.Record, error) {
	b := array.NewRecordBuilder(pool, toArrowSchema(t.Schema()))
	defer b.Release()

	for j := 0; j < t.Width(); j++ {
		switch c := t.ColumnAt(j).(type) {
		case *frame.IntColumn:
			b.Field(j).(*array.Int64Builder).AppendValues(c.Values(), nil)
		case *frame.FloatColumn:
			fb := b.Field(j).(*array.Float64Builder)
			for _, v := range c.Values() {
				if math.IsNaN(v) {
					fb.AppendNull()
				} else {
					fb.Append(v)
				}
			}
		case *frame.StringColumn:
			b.Field(j).(*array.StringBuilder).AppendValues(c.Values(), nil)
		case *frame.BoolColumn:
			bb := b.Field(j).(*array.BooleanBuilder)
			for i := 0; i < c.Len(); i++ {
				bb.Append(c.Bool(i))
			}
		case *frame.TimestampColumn:
			tb := b.Field(j).(*array.TimestampBuilder)
			for _, ts := range c.Values() {
				tb.Append(arrow.Timestamp(ts.UnixNano()))
			}
		default:
			return nil, errors.Newf(errors.ErrorTypeInternal, "unsupported column type %s", c.Type())
		}
	}
	return b.NewRecord(), nil
}

// tableBuilder accumulates arrow records into frame columns
type tableBuilder struct {
	names []string
	cols  []frame.Column
}

func newTableBuilder(schema *arrow.Schema) *tableBuilder {
	b := &tableBuilder{}
	for _, f := range schema.Fields() {
		b.names = append(b.names, f.Name)
		b.cols = append(b.cols, frame.NewColumn(fromArrowType(f.Type)))
	}
	return b
}

func (b *tableBuilder) appendRecord(rec arrow.Record) error {
	for j := range b.cols {
		if err := appendArray(b.cols[j], rec.Column(j)); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "convert arrow column").WithDetail("column", b.names[j])
		}
	}
	return nil
}

func (b *tableBuilder) table() (*frame.Table, error) {
	return frame.FromColumns(b.names, b.cols)
}

// appendArray appends arr to col. Nulls become NaN in float columns, zero
// in int columns, false in bool columns and "" in string columns.
func appendArray(col frame.Column, arr arrow.Array) error {
	for i := 0; i < arr.Len(); i++ {
		var v interface{}
		if !arr.IsNull(i) {
			v = arrowValue(arr, i)
		}
		if v == nil {
			switch col.Type() {
			case frame.ColumnTypeFloat:
				v = math.NaN()
			case frame.ColumnTypeInt:
				v = int64(0)
			case frame.ColumnTypeBool:
				v = false
			case frame.ColumnTypeTimestamp:
				return errors.New(errors.ErrorTypeData, "null timestamp").WithDetail("row", i)
			default:
				v = ""
			}
		}
		if err := col.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func arrowValue(arr arrow.Array, i int) interface{} {
	switch c := arr.(type) {
	case *array.Boolean:
		return c.Value(i)
	case *array.Int8:
		return int64(c.Value(i))
	case *array.Int16:
		return int64(c.Value(i))
	case *array.Int32:
		return int64(c.Value(i))
	case *array.Int64:
		return c.Value(i)
	case *array.Uint8:
		return int64(c.Value(i))
	case *array.Uint16:
		return int64(c.Value(i))
	case *array.Uint32:
		return int64(c.Value(i))
	case *array.Float32:
		return float64(c.Value(i))
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.LargeString:
		return c.Value(i)
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit)
	default:
		return arr.ValueStr(i)
	}
}
