package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	nserrors "github.com/matzehuels/nextstep/pkg/errors"
)

// ResultColumns are the header columns of the results table.
var ResultColumns = []string{
	"KL", "RMSE", "accuracy", "MRR", "displacement",
	"N", "mode", "teleport", "num_models",
}

// Row is one line of the results table: the scores of one node under one
// strategy and configuration.
type Row struct {
	Values      [5]float64
	Neighbors   int
	Mode        string
	Teleport    float64
	Replication int
}

// ResultWriter writes the tab separated results table.
type ResultWriter struct {
	w      *bufio.Writer
	closer io.Closer
	rows   int
	closed bool
}

// NewResultWriter writes the header to w and returns a writer for rows.
// If w is an io.Closer it is closed by Close.
func NewResultWriter(w io.Writer) (*ResultWriter, error) {
	rw := &ResultWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		rw.closer = c
	}
	if _, err := rw.w.WriteString(strings.Join(ResultColumns, "\t") + "\n"); err != nil {
		return nil, errors.Join(fmt.Errorf("write header: %w", err), rw.Close())
	}
	return rw, nil
}

// CreateResults creates the file at path and writes the header.
func CreateResults(path string) (*ResultWriter, error) {
	if err := nserrors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return NewResultWriter(f)
}

// WriteRow appends one row.
func (rw *ResultWriter) WriteRow(r Row) error {
	if rw.closed {
		return nserrors.New(nserrors.ErrCodeInternal, "write to closed result writer")
	}
	for _, v := range r.Values {
		if _, err := fmt.Fprintf(rw.w, "%.4f\t", v); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(rw.w, "%d\t%s\t%.2f\t%d\n", r.Neighbors, r.Mode, r.Teleport, r.Replication); err != nil {
		return err
	}
	rw.rows++
	return nil
}

// Rows returns the number of rows written.
func (rw *ResultWriter) Rows() int { return rw.rows }

// Close flushes buffered rows and closes the underlying writer. It is safe
// to call more than once.
func (rw *ResultWriter) Close() error {
	if rw.closed {
		return nil
	}
	rw.closed = true
	err := rw.w.Flush()
	if rw.closer != nil {
		err = errors.Join(err, rw.closer.Close())
	}
	return err
}
