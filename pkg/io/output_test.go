package io

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nextstep/pkg/graph"
)

func TestWriteEdges(t *testing.T) {
	g := graph.New(0)
	require.NoError(t, g.AddEdge(0, 1, 1))
	require.NoError(t, g.AddEdge(1, 2, 1))
	require.NoError(t, g.AddEdge(1, 3, 1))

	var buf bytes.Buffer
	require.NoError(t, WriteEdges(&buf, g, []float64{0, 1.0 / 3, 1.0 / 3}))
	assert.Equal(t,
		"0\t1\t0.333333333333333\n"+
			"1\t2\t0.333333333333333\n"+
			"1\t3\t0.000000000000000\n",
		buf.String())
}

func TestExportEdges(t *testing.T) {
	g := graph.New(0)
	require.NoError(t, g.AddEdge(0, 1, 1))
	path := filepath.Join(t.TempDir(), "edges.tsv")
	require.NoError(t, ExportEdges(path, g, []float64{0, 1}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0\t1\t1.000000000000000\n", string(data))
}

func TestResultWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kosarak.results")
	rw, err := CreateResults(path)
	require.NoError(t, err)

	require.NoError(t, rw.WriteRow(Row{
		Values:      [5]float64{0.12346, 0.3, 0, 0.5, 0.5},
		Neighbors:   2,
		Mode:        "learned",
		Teleport:    0.05,
		Replication: 3,
	}))
	assert.Equal(t, 1, rw.Rows())
	require.NoError(t, rw.Close())
	require.NoError(t, rw.Close())
	assert.Error(t, rw.WriteRow(Row{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "KL\tRMSE\taccuracy\tMRR\tdisplacement\tN\tmode\tteleport\tnum_models", lines[0])
	assert.Equal(t, "0.1235\t0.3000\t0.0000\t0.5000\t0.5000\t2\tlearned\t0.05\t3", lines[1])
}

type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestResultWriterClosesUnderlying(t *testing.T) {
	fc := &failingCloser{}
	rw, err := NewResultWriter(fc)
	require.NoError(t, err)
	err = rw.Close()
	assert.True(t, fc.closed)
	assert.ErrorContains(t, err, "close failed")
	assert.True(t, strings.HasPrefix(fc.String(), "KL\t"))
}

func TestJSONRoundTrip(t *testing.T) {
	type summary struct {
		Mode string  `json:"mode"`
		KL   float64 `json:"kl"`
	}
	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, ExportJSON(path, []summary{{"learned", 0.5}}))

	var got []summary
	require.NoError(t, ImportJSON(path, &got))
	assert.Equal(t, []summary{{"learned", 0.5}}, got)
}
