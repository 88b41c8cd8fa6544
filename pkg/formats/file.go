package formats

import (
	"io"
	"os"

	"github.com/ajitpratap0/tollframe/pkg/compression"
	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// OpenFile opens path for reading, decompressing it when its extension
// names a compression algorithm.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "open input").WithDetail("path", path)
	}
	r, err := compression.NewReader(f, compression.AlgorithmFromPath(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileReader{ReadCloser: r, file: f}, nil
}

// CreateFile creates path for writing, compressing it when its extension
// names a compression algorithm.
func CreateFile(path string, level compression.Level) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "create output").WithDetail("path", path)
	}
	w, err := compression.NewWriter(f, compression.AlgorithmFromPath(path), level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileWriter{WriteCloser: w, file: f}, nil
}

// ReadFile reads a table from path, inferring format and compression from
// the extension.
func ReadFile(path string) (*frame.Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	r, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t, err := Read(r, format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "read "+string(format)).WithDetail("path", path)
	}
	return t, nil
}

// WriteFile writes t to path in format, compressing by extension. An empty
// format is inferred from the path.
func WriteFile(path string, t *frame.Table, format Format) error {
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}
	w, err := CreateFile(path, compression.Default)
	if err != nil {
		return err
	}
	if err := Write(w, t, format); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "write "+string(format)).WithDetail("path", path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "close output").WithDetail("path", path)
	}
	return nil
}

type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type fileWriter struct {
	io.WriteCloser
	file *os.File
}

func (w *fileWriter) Close() error {
	err := w.WriteCloser.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
