package io

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	nserrors "github.com/matzehuels/nextstep/pkg/errors"
)

// MaxLineSize is the longest line ReadSequences accepts.
const MaxLineSize = 16 << 20

// ctxCheckInterval is how many lines are read between context checks.
const ctxCheckInterval = 4096

var gzipMagic = []byte{0x1f, 0x8b}

// LineStats summarises one pass over a dataset.
type LineStats struct {
	// Lines is the number of lines read.
	Lines int
	// Short is the number of lines with fewer than two tokens.
	Short int
	// Tokens is the total number of tokens across all lines.
	Tokens int
}

// ReadSequences reads r line by line and calls fn with the whitespace
// separated tokens of each line. Empty lines are passed as empty slices.
// Reading stops at the first error from fn, from r, or from ctx.
func ReadSequences(ctx context.Context, r io.Reader, fn func([]string) error) (LineStats, error) {
	var st LineStats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxLineSize)

	for sc.Scan() {
		if st.Lines%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return st, err
			}
		}
		st.Lines++
		tokens := strings.Fields(sc.Text())
		st.Tokens += len(tokens)
		if len(tokens) < 2 {
			st.Short++
		}
		if err := fn(tokens); err != nil {
			return st, fmt.Errorf("line %d: %w", st.Lines, err)
		}
	}
	if err := sc.Err(); err != nil {
		return st, nserrors.Wrap(nserrors.ErrCodeIngestion, err, "read line %d", st.Lines+1)
	}
	return st, nil
}

// SequenceFile is an open dataset. Reads return decompressed bytes.
type SequenceFile struct {
	path       string
	file       *os.File
	gz         *gzip.Reader
	r          io.Reader
	digest     hash.Hash
	compressed bool
}

// OpenSequences opens the dataset at path, transparently decompressing
// gzip input.
func OpenSequences(path string) (*SequenceFile, error) {
	if err := nserrors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nserrors.Wrap(nserrors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return nil, nserrors.Wrap(nserrors.ErrCodeIngestion, err, "open %s", path)
	}

	s := &SequenceFile{path: path, file: f, digest: sha256.New()}
	br := bufio.NewReader(io.TeeReader(f, s.digest))
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nserrors.Wrap(nserrors.ErrCodeIngestion, err, "read %s", path)
	}

	if bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, nserrors.Wrap(nserrors.ErrCodeIngestion, err, "gzip header %s", path)
		}
		s.gz, s.r, s.compressed = gz, gz, true
	} else {
		s.r = br
	}
	return s, nil
}

// Read implements io.Reader.
func (s *SequenceFile) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = nserrors.Wrap(nserrors.ErrCodeIngestion, err, "read %s", s.path)
	}
	return n, err
}

// Compressed reports whether the file is gzip compressed.
func (s *SequenceFile) Compressed() bool { return s.compressed }

// Path returns the path the file was opened from.
func (s *SequenceFile) Path() string { return s.path }

// Digest returns the hex SHA-256 of the raw bytes read so far. It
// identifies the dataset once the file has been read to the end.
func (s *SequenceFile) Digest() string {
	return hex.EncodeToString(s.digest.Sum(nil))
}

// Close releases the decompressor and the file.
func (s *SequenceFile) Close() error {
	var gzErr error
	if s.gz != nil {
		gzErr = s.gz.Close()
	}
	return errors.Join(gzErr, s.file.Close())
}
