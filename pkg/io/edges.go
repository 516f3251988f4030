package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	nserrors "github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// WriteEdges writes one line per edge slot, "from\tto\tpopularity[to]",
// with the popularity printed to 15 decimals. Nodes are visited in id order
// and neighbors in slot order.
func WriteEdges(w io.Writer, g *graph.Store, popularity []float64) error {
	bw := bufio.NewWriter(w)
	for u := 0; u < g.NumNodes(); u++ {
		for _, to := range g.OutLinks(graph.NodeID(u)) {
			var p float64
			if int(to) < len(popularity) {
				p = popularity[to]
			}
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%.15f\n", u, to, p); err != nil {
				return fmt.Errorf("write edge %d->%d: %w", u, to, err)
			}
		}
	}
	return bw.Flush()
}

// ExportEdges writes the edge dump to a file at path.
func ExportEdges(path string, g *graph.Store, popularity []float64) (err error) {
	if err := nserrors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return WriteEdges(f, g, popularity)
}
