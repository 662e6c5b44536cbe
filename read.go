package dbf

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type cursorState int

const (
	stateBeforeFirst cursorState = iota
	statePositioned
	stateClosed
)

// Advance is the outcome of an asynchronous advance.
type Advance struct {
	OK  bool
	Err error
}

// byteSource fills one record buffer. Sync and async advances differ only
// in the source they hand to advance.
type byteSource interface {
	readRecord(buf []byte) (int, error)
}

type blockingSource struct {
	r io.Reader
}

func (s blockingSource) readRecord(buf []byte) (int, error) {
	return io.ReadFull(s.r, buf)
}

// contextSource refuses to start a record once ctx is done. A record that
// has started is always read to the end.
type contextSource struct {
	ctx context.Context
	r   io.Reader
}

func (s contextSource) readRecord(buf []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	return io.ReadFull(s.r, buf)
}

// Next moves to the next active record. It returns false with a nil error
// once the table is exhausted.
func (dbf *Reader) Next() (bool, error) {
	return dbf.advance(blockingSource{r: dbf.r})
}

// NextAsync runs the same advance as Next on its own goroutine and delivers
// the result on the returned channel. The caller must wait for the result
// before touching the reader again.
func (dbf *Reader) NextAsync(ctx context.Context) <-chan Advance {
	done := make(chan Advance, 1)
	go func() {
		defer close(done)
		ok, err := dbf.advance(contextSource{ctx: ctx, r: dbf.r})
		done <- Advance{OK: ok, Err: err}
	}()
	return done
}

// ForEach calls fn for every remaining active record.
func (dbf *Reader) ForEach(fn func(row *Row) error) error {
	for {
		ok, err := dbf.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(dbf.row); err != nil {
			return err
		}
	}
}

func (dbf *Reader) advance(src byteSource) (bool, error) {
	if dbf.state == stateClosed {
		return false, ErrCursorClosed
	}
	dbf.advanced = true
	if dbf.exhausted {
		return false, nil
	}

	for {
		n, err := src.readRecord(dbf.buf)
		if n > 0 && dbf.buf[0] == EOF {
			dbf.exhaust("end of file marker")
			return false, nil
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			dbf.exhaust("end of stream")
			return false, nil
		}
		if err != nil {
			if n > 0 {
				// the stream is no longer aligned on a record boundary
				dbf.exhaust("read error")
			}
			return false, errors.Wrapf(err, "dbf: read record %d", dbf.consumed+1)
		}
		dbf.consumed++

		if dbf.buf[0] == DELETED {
			dbf.log.WithField("record", dbf.consumed).Trace("skipped deleted record")
			continue
		}
		row, err := dbf.decodeRecord(dbf.buf[1:])
		if err != nil {
			dbf.row = nil
			return false, errors.WithMessagef(err, "record %d", dbf.consumed)
		}
		dbf.row = row
		dbf.state = statePositioned
		return true, nil
	}
}

func (dbf *Reader) exhaust(reason string) {
	dbf.exhausted = true
	dbf.row = nil
	dbf.log.WithFields(logrus.Fields{
		"records_read": dbf.consumed,
		"reason":       reason,
	}).Debug("end of table")
}

// decodeRecord slices data by the field lengths and decodes each window.
func (dbf *Reader) decodeRecord(data []byte) (*Row, error) {
	fields := dbf.meta.Fields
	values := make([]interface{}, len(fields))
	exact := make([]decimal.Decimal, len(fields))
	pos := 0
	for i, field := range fields {
		end := pos + field.Length
		if end > len(data) {
			return nil, errors.Wrapf(ErrMalformedRecord, "field %q ends at byte %d of %d", field.Name, end+1, len(data)+1)
		}
		window := data[pos:end]
		v, err := field.decode(window, dbf.text)
		if err != nil {
			return nil, err
		}
		if f, ok := v.(float64); ok {
			exact[i] = decodeDecimal(window, f)
		}
		if v == nil {
			dbf.log.WithFields(logrus.Fields{
				"record": dbf.consumed,
				"field":  field.Name,
			}).Trace("null value")
		}
		values[i] = v
		pos = end
	}
	return &Row{fields: fields, values: values, exact: exact}, nil
}

// Row returns the record the cursor is positioned on.
func (dbf *Reader) Row() (*Row, error) {
	if dbf.row == nil {
		return nil, ErrNoDataRead
	}
	return dbf.row, nil
}

// RecordsAffected reports the record count declared by the header. The count
// is informational only: iteration ends at the end of file marker or a short
// record. It is only available once Next or NextAsync has been called, and is
// 0 after Close.
func (dbf *Reader) RecordsAffected() (int, error) {
	if dbf.state == stateClosed {
		return 0, nil
	}
	if !dbf.advanced {
		return 0, ErrNoDataRead
	}
	return dbf.meta.RecordCount, nil
}

// Close releases the underlying stream. Closing twice is a no-op.
func (dbf *Reader) Close() error {
	if dbf.state == stateClosed {
		return nil
	}
	dbf.state = stateClosed
	dbf.row = nil
	if dbf.closer != nil {
		return dbf.closer.Close()
	}
	return nil
}
