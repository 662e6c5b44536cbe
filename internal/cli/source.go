package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"

	dbf "github.com/Ulysses-Xu/dbfreader"
)

type readCloser struct {
	io.Reader
	io.Closer
}

// openSource opens a table file, decompressing .lz4 and .sz (snappy framed)
// archives on the fly.
func openSource(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return readCloser{Reader: lz4.NewReader(f), Closer: f}, nil
	case ".sz":
		return readCloser{Reader: snappy.NewReader(f), Closer: f}, nil
	default:
		return f, nil
	}
}

// openTable opens path and parses its header. The caller closes the reader.
func openTable(path string, cfg dbf.Config) (*dbf.Reader, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	reader, err := dbf.NewReader(src, cfg)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reader, nil
}
