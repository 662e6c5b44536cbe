package dbf

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/axgle/mahonia"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DBF is the read surface of an opened table.
type DBF interface {
	Metadata() *Metadata
	Fields() []Field
	Next() (bool, error)
	NextAsync(ctx context.Context) <-chan Advance
	Row() (*Row, error)
	RecordsAffected() (int, error)
	Close() error
}

const (
	SPACE      = 0x20
	DELETED    = 0x2A
	EOF        = 0x1A
	NUL        = 0x00
	TERMINATOR = 0x0D
)

// Dialect selects which version bytes are accepted.
type Dialect int

const (
	// DialectDBase accepts dBASE III (3) and dBASE IV (4) tables.
	DialectDBase Dialect = iota
	// DialectXbase3 accepts version 3 only.
	DialectXbase3
)

func (d Dialect) accepts(version byte) bool {
	switch d {
	case DialectXbase3:
		return version == 3
	default:
		return version == 3 || version == 4
	}
}

// CenturyRule maps the two-digit year of the last-updated date to a full year.
type CenturyRule int

const (
	// CenturyPivot79 maps years below 79 to 20yy and the rest to 19yy.
	CenturyPivot79 CenturyRule = iota
	// Century1900 always maps to 19yy.
	Century1900
)

func (c CenturyRule) year(yy byte) int {
	if c == CenturyPivot79 && yy < 79 {
		return 2000 + int(yy)
	}
	return 1900 + int(yy)
}

// Config controls how a table is opened. The zero value reads dBASE III/IV
// tables with the 79 century pivot and raw ASCII text.
type Config struct {
	Dialect Dialect
	Century CenturyRule
	// Encoding is a mahonia charset name applied to field names and
	// character values. Empty leaves bytes untouched.
	Encoding string
	// Logger receives debug and trace events. Nil discards them.
	Logger logrus.FieldLogger
}

// Reader decodes one table. It is a forward-only cursor and must not be
// used from more than one goroutine at a time.
type Reader struct {
	r      io.Reader
	closer io.Closer
	log    *logrus.Entry
	text   textDecoder
	meta   *Metadata

	state     cursorState
	advanced  bool
	exhausted bool
	consumed  int
	buf       []byte
	row       *Row
}

var _ DBF = (*Reader)(nil)

// NewReaderFromFile opens fileName read-only and parses its header.
func NewReaderFromFile(fileName string, cfg Config) (*Reader, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	reader, err := NewReader(f, cfg)
	if err != nil {
		_ = f.Close()
		return nil, errors.WithMessage(err, fileName)
	}
	return reader, nil
}

// NewReader parses the table header from r and returns a reader positioned
// before the first record. The reader owns r from now on; if r is an
// io.Closer it is closed by Close.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	text, err := newTextDecoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	dbf := &Reader{
		r:    bufio.NewReader(r),
		log:  logger.WithField("component", "dbf"),
		text: text,
	}
	if c, ok := r.(io.Closer); ok {
		dbf.closer = c
	}

	dbf.meta, err = readMetadata(dbf.r, cfg, text)
	if err != nil {
		return nil, err
	}
	dbf.buf = make([]byte, dbf.meta.RecordLength)
	dbf.log.WithFields(logrus.Fields{
		"version":       dbf.meta.Version,
		"records":       dbf.meta.RecordCount,
		"header_length": dbf.meta.HeaderLength,
		"record_length": dbf.meta.RecordLength,
		"fields":        len(dbf.meta.Fields),
	}).Debug("opened table")
	return dbf, nil
}

// Metadata returns a copy of the parsed table header.
func (dbf *Reader) Metadata() *Metadata {
	return dbf.meta.clone()
}

// Fields returns the field definitions in on-disk order.
func (dbf *Reader) Fields() []Field {
	return append([]Field(nil), dbf.meta.Fields...)
}

func (dbf *Reader) FieldCount() int {
	return len(dbf.meta.Fields)
}

// Ordinal returns the position of the first field called name, or -1.
func (dbf *Reader) Ordinal(name string) int {
	for i, f := range dbf.meta.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// IsClosed reports whether Close has been called.
func (dbf *Reader) IsClosed() bool {
	return dbf.state == stateClosed
}

// textDecoder converts raw text bytes through an optional charset.
type textDecoder struct {
	dec mahonia.Decoder
}

func newTextDecoder(encoding string) (textDecoder, error) {
	if encoding == "" {
		return textDecoder{}, nil
	}
	dec := mahonia.NewDecoder(encoding)
	if dec == nil {
		return textDecoder{}, errors.Errorf("dbf: unsupported encoding %q", encoding)
	}
	return textDecoder{dec: dec}, nil
}

func (t textDecoder) convert(b []byte) string {
	if t.dec == nil {
		return string(b)
	}
	return t.dec.ConvertString(string(b))
}
