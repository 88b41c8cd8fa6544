package formats

import (
	"io"
	"math"
	"regexp"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// avroColumnsKey is the container metadata key holding the original column
// names and types. Avro field names are restricted, so "1001400" is stored
// as "_1001400".
const avroColumnsKey = "tollframe.columns"

var avroNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var avroInvalidRE = regexp.MustCompile(`[^A-Za-z0-9_]`)

type avroColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// avroWriter implements Writer for Avro object container files
type avroWriter struct {
	writer    io.Writer
	schema    *frame.Schema
	fields    []string
	ocfWriter *goavro.OCFWriter
}

func newAvroWriter(w io.Writer) *avroWriter {
	return &avroWriter{writer: w}
}

func (aw *avroWriter) Write(t *frame.Table) error {
	if aw.ocfWriter == nil {
		if err := aw.init(t); err != nil {
			return err
		}
	} else if err := checkSchema(aw.schema, t); err != nil {
		return err
	}

	if t.Len() == 0 {
		return nil
	}
	batch := make([]interface{}, t.Len())
	for i := range batch {
		native := make(map[string]interface{}, len(aw.fields))
		for j, field := range aw.fields {
			native[field] = avroNative(t.ColumnAt(j).Get(i))
		}
		batch[i] = native
	}
	if err := aw.ocfWriter.Append(batch); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "write avro records")
	}
	return nil
}

func (aw *avroWriter) init(t *frame.Table) error {
	s := t.Schema()
	aw.schema = &s

	used := make(map[string]bool, len(s.Fields))
	fields := make([]map[string]interface{}, len(s.Fields))
	cols := make([]avroColumn, len(s.Fields))
	aw.fields = make([]string, len(s.Fields))
	for i, f := range s.Fields {
		name := avroFieldName(f.Name)
		for used[name] {
			name += "_"
		}
		used[name] = true
		aw.fields[i] = name
		fields[i] = map[string]interface{}{"name": name, "type": toAvroType(f.Type)}
		cols[i] = avroColumn{Name: f.Name, Type: f.Type.String()}
	}

	schemaJSON, err := gojson.Marshal(map[string]interface{}{
		"type":      "record",
		"name":      "row",
		"namespace": "tollframe",
		"fields":    fields,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "encode avro schema")
	}
	codec, err := goavro.NewCodec(string(schemaJSON))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "create avro codec")
	}
	meta, err := gojson.Marshal(cols)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "encode avro column metadata")
	}

	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               aw.writer,
		Codec:           codec,
		CompressionName: goavro.CompressionDeflateLabel,
		MetaData:        map[string][]byte{avroColumnsKey: meta},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "create avro writer")
	}
	aw.ocfWriter = ocf
	return nil
}

// Close writes the container header when nothing was written. OCFWriter
// flushes on every Append.
func (aw *avroWriter) Close() error {
	if aw.ocfWriter == nil {
		return aw.init(frame.New())
	}
	return nil
}

func (aw *avroWriter) Format() Format { return Avro }

// ReadAvro reads an Avro object container file written by the avro Writer
func ReadAvro(r io.Reader) (*frame.Table, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "open avro file")
	}

	var cols []avroColumn
	raw, ok := ocf.MetaData()[avroColumnsKey]
	if !ok {
		return nil, errors.New(errors.ErrorTypeData, "avro file has no column metadata").
			WithDetail("key", avroColumnsKey)
	}
	if err := gojson.Unmarshal(raw, &cols); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decode avro column metadata")
	}

	names := make([]string, len(cols))
	columns := make([]frame.Column, len(cols))
	fields := make([]string, len(cols))
	used := make(map[string]bool, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		columns[i] = frame.NewColumn(parseColumnType(c.Type))
		name := avroFieldName(c.Name)
		for used[name] {
			name += "_"
		}
		used[name] = true
		fields[i] = name
	}

	row := 0
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "read avro record").WithDetail("row", row)
		}
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "avro record is %T", datum)
		}
		for i, f := range fields {
			v := fromAvroNative(rec[f])
			if v == nil && columns[i].Type() == frame.ColumnTypeFloat {
				v = math.NaN()
			}
			if err := columns[i].Append(v); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "convert avro value").
					WithDetail("row", row).
					WithDetail("column", names[i])
			}
		}
		row++
	}
	if err := ocf.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "scan avro file")
	}
	return frame.FromColumns(names, columns)
}

func avroFieldName(name string) string {
	if avroNameRE.MatchString(name) {
		return name
	}
	name = avroInvalidRE.ReplaceAllString(name, "_")
	if !avroNameRE.MatchString(name) {
		name = "_" + name
	}
	return name
}

func toAvroType(t frame.ColumnType) interface{} {
	switch t {
	case frame.ColumnTypeInt:
		return "long"
	case frame.ColumnTypeFloat:
		return []interface{}{"null", "double"}
	case frame.ColumnTypeBool:
		return "boolean"
	case frame.ColumnTypeTimestamp:
		return map[string]interface{}{"type": "long", "logicalType": "timestamp-micros"}
	default:
		return "string"
	}
}

func parseColumnType(s string) frame.ColumnType {
	for _, t := range []frame.ColumnType{
		frame.ColumnTypeInt, frame.ColumnTypeFloat, frame.ColumnTypeBool, frame.ColumnTypeTimestamp,
	} {
		if t.String() == s {
			return t
		}
	}
	return frame.ColumnTypeString
}

func avroNative(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return goavro.Union("double", x)
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

func fromAvroNative(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		// union branch
		for _, inner := range x {
			return inner
		}
		return nil
	default:
		return v
	}
}
