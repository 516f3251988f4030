// Package io reads session datasets and writes the interchange files of an
// evaluation run.
//
// # Sequences
//
// A dataset is a text file with one session per line and whitespace
// separated tokens. The file may be gzip compressed; [OpenSequences] detects
// compression from the magic bytes and also computes a SHA-256 digest of the
// raw bytes as they are read, which the pipeline uses as a dataset
// fingerprint for cache keys. [ReadSequences] streams lines to a callback:
//
//	src, err := io.OpenSequences("kosarak.dat.gz")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	stats, err := io.ReadSequences(ctx, src, model.Observe)
//
// # Parameters
//
// External per-node parameters are stored one value per line in node id
// order, as natural logarithms. [ReadParams] exponentiates them, ignores lines
// beyond the node count and pads short files with zeros.
//
// # Outputs
//
// [ResultWriter] writes the tab separated per-node results table and
// [WriteEdges] dumps every edge with the popularity of its target. [WriteJSON]
// writes run summaries.
package io
