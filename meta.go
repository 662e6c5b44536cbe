package dbf

import "time"

// rawHeader is the fixed part of the table header that follows the version
// byte. It is decoded in one binary.Read call.
type rawHeader struct {
	LastUpdateYear   byte
	LastUpdateMonth  byte
	LastUpdateDay    byte
	NumRecords       int32
	HeaderLength     int16
	RecordLength     int16
	Reserved         [2]byte
	Flag             byte
	EncryptFlag      byte
	Reserved2        [12]byte
	MDXFlag          byte
	LanguageDriverID byte
	Reserved3        [2]byte
}

// rawFieldDescriptor is the 32-byte on-disk layout of one field descriptor.
type rawFieldDescriptor struct {
	Name       [11]byte
	Type       byte
	Reserved1  [4]byte
	Length     byte
	Decimal    byte
	Reserved2  [2]byte
	WorkAreaID byte
	Reserved3  [10]byte
	Flag       byte
}

const (
	headerWindowSize    = 31
	fieldDescriptorSize = 32
	minHeaderLength     = 33
	minRecordLength     = 2
)

// Metadata describes an opened table. It is parsed once and never changes
// while the table is open.
type Metadata struct {
	Version               byte
	LastUpdated           time.Time
	RecordCount           int
	HeaderLength          int
	RecordLength          int
	IncompleteTransaction bool
	Encrypted             bool
	ProductionMDX         bool
	LanguageDriverID      byte

	// Fields are kept in on-disk order, which is also the order of their
	// bytes inside a record.
	Fields []Field
}

func (m *Metadata) clone() *Metadata {
	c := *m
	c.Fields = append([]Field(nil), m.Fields...)
	return &c
}
