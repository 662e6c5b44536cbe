package dbf

import "github.com/pkg/errors"

// Errors returned while opening or reading a table. They are wrapped with
// context, so compare with errors.Is.
var (
	// ErrMalformedHeader reports a structural violation in the table header
	// or the field descriptor array.
	ErrMalformedHeader = errors.New("dbf: malformed header")
	// ErrInvalidCalendarDate reports a last-updated date whose parts are in
	// range but do not form a real calendar date.
	ErrInvalidCalendarDate = errors.New("dbf: invalid calendar date")
	// ErrUnknownFieldType reports a descriptor type code outside C, D, N, F, L.
	ErrUnknownFieldType = errors.New("dbf: unknown field type")
	// ErrInvalidFieldDefinition reports a descriptor whose length or decimal
	// count is not allowed for its type.
	ErrInvalidFieldDefinition = errors.New("dbf: invalid field definition")
	// ErrMalformedRecord reports record bytes that cannot be split by the
	// field lengths.
	ErrMalformedRecord = errors.New("dbf: malformed record")
	// ErrNoDataRead is returned by record-scoped accessors before the cursor
	// has been advanced.
	ErrNoDataRead = errors.New("dbf: no data has been read, call Next first")
	// ErrCursorClosed is returned when advancing a closed reader.
	ErrCursorClosed = errors.New("dbf: reader is closed")
)
