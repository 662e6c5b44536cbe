package dbf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dsnet/golib/memfile"
	"github.com/stretchr/testify/require"
)

type fieldSpec struct {
	name     string
	typ      byte
	length   byte
	decimals byte
	workArea byte
	mdx      byte
}

// tableBuilder lays out table bytes the way a dBASE writer would.
type tableBuilder struct {
	version        byte
	year           byte
	month          byte
	day            byte
	recordCount    int32
	countSet       bool
	headerLength   int16
	recordLength   int16
	incomplete     byte
	encrypted      byte
	mdx            byte
	languageDriver byte
	fields         []fieldSpec
	terminator     []byte
	records        [][]byte
	trailer        []byte
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{
		version:    3,
		year:       15,
		month:      10,
		day:        21,
		terminator: []byte{TERMINATOR},
		trailer:    []byte{EOF},
	}
}

func (b *tableBuilder) field(name string, typ byte, length, decimals byte) *tableBuilder {
	b.fields = append(b.fields, fieldSpec{name: name, typ: typ, length: length, decimals: decimals})
	return b
}

func (b *tableBuilder) count(n int32) *tableBuilder {
	b.recordCount = n
	b.countSet = true
	return b
}

// record appends a record; each value is space padded or cut to its field
// length.
func (b *tableBuilder) record(deleted bool, values ...string) *tableBuilder {
	buf := bytes.Repeat([]byte{SPACE}, b.computedRecordLength())
	if deleted {
		buf[0] = DELETED
	}
	pos := 1
	for i, f := range b.fields {
		nextPos := pos + int(f.length)
		if i < len(values) {
			copy(buf[pos:nextPos], values[i])
		}
		pos = nextPos
	}
	b.records = append(b.records, buf)
	return b
}

func (b *tableBuilder) rawRecord(data []byte) *tableBuilder {
	b.records = append(b.records, data)
	return b
}

func (b *tableBuilder) computedRecordLength() int {
	if b.recordLength != 0 {
		return int(b.recordLength)
	}
	n := 1
	for _, f := range b.fields {
		n += int(f.length)
	}
	return n
}

func (b *tableBuilder) header() []byte {
	headerLength := b.headerLength
	if headerLength == 0 {
		headerLength = int16(minHeaderLength + fieldDescriptorSize*len(b.fields))
	}
	recordCount := b.recordCount
	if !b.countSet {
		recordCount = int32(len(b.records))
	}

	buf := make([]byte, 32)
	buf[0] = b.version
	buf[1], buf[2], buf[3] = b.year, b.month, b.day
	binary.LittleEndian.PutUint32(buf[4:8], uint32(recordCount))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(headerLength))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(b.computedRecordLength()))
	buf[14] = b.incomplete
	buf[15] = b.encrypted
	buf[28] = b.mdx
	buf[29] = b.languageDriver

	for _, f := range b.fields {
		buf = append(buf, descriptorBytes(f)...)
	}
	return append(buf, b.terminator...)
}

func (b *tableBuilder) bytes() []byte {
	buf := b.header()
	for _, r := range b.records {
		buf = append(buf, r...)
	}
	return append(buf, b.trailer...)
}

func descriptorBytes(f fieldSpec) []byte {
	buf := make([]byte, fieldDescriptorSize)
	copy(buf[:11], f.name)
	buf[11] = f.typ
	buf[16] = f.length
	buf[17] = f.decimals
	buf[20] = f.workArea
	buf[31] = f.mdx
	return buf
}

func openTable(t *testing.T, data []byte, cfg Config) *Reader {
	t.Helper()
	reader, err := NewReader(memfile.New(data), cfg)
	require.NoError(t, err)
	return reader
}

func openError(data []byte, cfg Config) error {
	_, err := NewReader(memfile.New(data), cfg)
	return err
}

// readAll advances until the table is exhausted and returns the rows seen.
func readAll(t *testing.T, reader *Reader) []*Row {
	t.Helper()
	var rows []*Row
	require.NoError(t, reader.ForEach(func(row *Row) error {
		rows = append(rows, row)
		return nil
	}))
	return rows
}
