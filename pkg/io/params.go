package io

import (
	"bufio"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	nserrors "github.com/matzehuels/nextstep/pkg/errors"
)

// ReadParams reads one log-scale parameter per line and returns n values
// with exp applied, indexed by node id. Lines beyond n are not parsed;
// nodes without a line get 0. A parameter whose exp overflows or is NaN is
// rejected.
func ReadParams(r io.Reader, n int) ([]float64, error) {
	out := make([]float64, n)
	sc := bufio.NewScanner(r)
	for i := 0; i < n && sc.Scan(); i++ {
		line := strings.TrimSpace(sc.Text())
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, nserrors.Wrap(nserrors.ErrCodeInvalidInput, err, "parameter line %d", i+1)
		}
		e := math.Exp(v)
		if math.IsInf(e, 0) || math.IsNaN(e) {
			return nil, nserrors.New(nserrors.ErrCodeInvalidInput, "parameter line %d: exp(%v) is not finite", i+1, v)
		}
		out[i] = e
	}
	if err := sc.Err(); err != nil {
		return nil, nserrors.Wrap(nserrors.ErrCodeIngestion, err, "read parameters")
	}
	return out, nil
}

// LoadParams opens path and calls ReadParams.
func LoadParams(path string, n int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nserrors.Wrap(nserrors.ErrCodeFileNotFound, err, "parameter file %s", path)
		}
		return nil, nserrors.Wrap(nserrors.ErrCodeIngestion, err, "open %s", path)
	}
	defer f.Close()
	return ReadParams(f, n)
}
