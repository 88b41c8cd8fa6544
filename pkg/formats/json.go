package formats

import (
	"bufio"
	"io"
	"math"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// ReadJSON reads an array of objects. Columns appear in the order their key
// is first seen. A column of integral numbers with no missing value becomes
// an int column, other numeric columns become float columns with NaN for
// missing values, all-boolean columns become bool columns and everything
// else is read as strings.
func ReadJSON(r io.Reader) (*frame.Table, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var names []string
	values := make(map[string][]interface{})
	rows := 0
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "read json key").WithDetail("row", rows)
			}
			key, ok := tok.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeData, "expected object key, got %v", tok)
			}
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "read json value").
					WithDetail("row", rows).
					WithDetail("key", key)
			}
			col, seen := values[key]
			if !seen {
				names = append(names, key)
				col = make([]interface{}, rows, rows+1)
			}
			// a key repeated inside one object keeps its last value
			if len(col) > rows {
				col[rows] = v
			} else {
				col = append(col, v)
			}
			values[key] = col
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		rows++
		for _, name := range names {
			if len(values[name]) < rows {
				values[name] = append(values[name], nil)
			}
		}
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	cols := make([]frame.Column, len(names))
	for i, name := range names {
		col, err := inferJSONColumn(values[name])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "decode json column").WithDetail("column", name)
		}
		cols[i] = col
	}
	return frame.FromColumns(names, cols)
}

func expectDelim(dec *gojson.Decoder, want gojson.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "read json").WithDetail("expected", want.String())
	}
	if d, ok := tok.(gojson.Delim); !ok || d != want {
		return errors.Newf(errors.ErrorTypeData, "expected %q in json input, got %v", want.String(), tok)
	}
	return nil
}

func inferJSONColumn(vals []interface{}) (frame.Column, error) {
	allInt, allNum, allBool := true, true, true
	for _, v := range vals {
		switch x := v.(type) {
		case gojson.Number:
			allBool = false
			if _, err := x.Int64(); err != nil {
				allInt = false
			}
		case bool:
			allInt, allNum = false, false
		case nil:
			allInt, allBool = false, false
		default:
			allInt, allNum, allBool = false, false, false
		}
	}

	switch {
	case len(vals) == 0:
		return frame.NewFloatColumn(), nil
	case allInt:
		out := frame.NewIntColumn()
		for _, v := range vals {
			n, _ := v.(gojson.Number).Int64()
			if err := out.Append(n); err != nil {
				return nil, err
			}
		}
		return out, nil
	case allNum:
		out := make([]float64, len(vals))
		for i, v := range vals {
			if v == nil {
				out[i] = math.NaN()
				continue
			}
			f, err := v.(gojson.Number).Float64()
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return frame.NewFloatColumn(out...), nil
	case allBool:
		out := frame.NewBoolColumn()
		for _, v := range vals {
			if err := out.Append(v); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		out := make([]string, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
			case gojson.Number:
				out[i] = x.String()
			case string:
				out[i] = x
			case bool:
				out[i] = cast.ToString(x)
			default:
				b, err := gojson.Marshal(x)
				if err != nil {
					return nil, err
				}
				out[i] = string(b)
			}
		}
		return frame.NewStringColumn(out...), nil
	}
}

type jsonWriter struct {
	w      *bufio.Writer
	schema *frame.Schema
	rows   int
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{w: bufio.NewWriter(w)}
}

func (jw *jsonWriter) Write(t *frame.Table) error {
	if jw.schema == nil {
		s := t.Schema()
		jw.schema = &s
		if _, err := jw.w.WriteString("["); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "write json")
		}
	} else if err := checkSchema(jw.schema, t); err != nil {
		return err
	}

	keys := make([][]byte, t.Width())
	for j, name := range t.Names() {
		k, err := gojson.Marshal(name)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "encode json key")
		}
		keys[j] = k
	}

	for i := 0; i < t.Len(); i++ {
		if jw.rows > 0 {
			jw.w.WriteByte(',')
		}
		jw.w.WriteString("\n  {")
		for j := range keys {
			if j > 0 {
				jw.w.WriteByte(',')
			}
			jw.w.Write(keys[j])
			jw.w.WriteByte(':')
			v, err := gojson.Marshal(jsonValue(t.ColumnAt(j).Get(i)))
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "encode json value").
					WithDetail("row", i).
					WithDetail("column", t.Names()[j])
			}
			jw.w.Write(v)
		}
		if err := jw.w.WriteByte('}'); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "write json")
		}
		jw.rows++
	}
	return nil
}

func (jw *jsonWriter) Close() error {
	if jw.schema == nil {
		jw.w.WriteString("[")
	}
	if jw.rows > 0 {
		jw.w.WriteString("\n")
	}
	jw.w.WriteString("]\n")
	if err := jw.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "flush json")
	}
	return nil
}

func (jw *jsonWriter) Format() Format { return JSON }

// jsonValue maps NaN to null and timestamps to RFC 3339 strings
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return v
}
