package dbf

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
)

func readMetadata(r io.Reader, cfg Config, text textDecoder) (*Metadata, error) {
	meta, headerLength, err := readHeader(r, cfg)
	if err != nil {
		return nil, err
	}
	meta.Fields, err = readFields(r, headerLength, text)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func readHeader(r io.Reader, cfg Config) (*Metadata, int, error) {
	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, 0, errors.Wrap(ErrMalformedHeader, "missing version byte")
	}
	if !cfg.Dialect.accepts(version[0]) {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "unsupported version %d", version[0])
	}

	var header rawHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "header shorter than %d bytes", headerWindowSize+1)
	}

	lastUpdated, err := lastUpdatedDate(cfg.Century, header.LastUpdateYear, header.LastUpdateMonth, header.LastUpdateDay)
	if err != nil {
		return nil, 0, err
	}
	if header.NumRecords < 0 {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "negative record count %d", header.NumRecords)
	}
	if header.HeaderLength%32 != 1 || header.HeaderLength < minHeaderLength {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "header length %d", header.HeaderLength)
	}
	if header.RecordLength < minRecordLength {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "record length %d", header.RecordLength)
	}

	meta := &Metadata{
		Version:               version[0],
		LastUpdated:           lastUpdated,
		RecordCount:           int(header.NumRecords),
		HeaderLength:          int(header.HeaderLength),
		RecordLength:          int(header.RecordLength),
		IncompleteTransaction: header.Flag != 0,
		Encrypted:             header.EncryptFlag != 0,
		ProductionMDX:         header.MDXFlag != 0,
		LanguageDriverID:      header.LanguageDriverID,
	}
	return meta, int(header.HeaderLength), nil
}

// lastUpdatedDate range-checks the YY/MM/DD triple before building the date,
// so an out-of-range part and an impossible day of month fail differently.
func lastUpdatedDate(century CenturyRule, yy, mm, dd byte) (time.Time, error) {
	if yy > 99 || mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, errors.Wrapf(ErrMalformedHeader, "last updated %02d/%02d/%02d", yy, mm, dd)
	}
	year := century.year(yy)
	t := time.Date(year, time.Month(mm), int(dd), 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(mm) || t.Day() != int(dd) {
		return time.Time{}, errors.Wrapf(ErrInvalidCalendarDate, "%04d-%02d-%02d", year, mm, dd)
	}
	return t, nil
}

func readFields(r io.Reader, headerLength int, text textDecoder) ([]Field, error) {
	fieldNum := (headerLength - minHeaderLength) / fieldDescriptorSize
	fields := make([]Field, 0, fieldNum)
	buf := make([]byte, fieldDescriptorSize)
	for i := 0; i < fieldNum; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(ErrMalformedHeader, "field descriptor %d of %d is truncated", i+1, fieldNum)
		}
		field, err := parseFieldDescriptor(buf, text)
		if err != nil {
			return nil, errors.WithMessagef(err, "field descriptor %d", i+1)
		}
		fields = append(fields, field)
	}

	var terminator [1]byte
	if _, err := io.ReadFull(r, terminator[:]); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "missing header terminator")
	}
	if terminator[0] != TERMINATOR {
		return nil, errors.Wrapf(ErrMalformedHeader, "header terminator is 0x%02X", terminator[0])
	}
	return fields, nil
}

// parseFieldDescriptor decodes exactly one 32-byte descriptor.
func parseFieldDescriptor(buf []byte, text textDecoder) (Field, error) {
	if len(buf) != fieldDescriptorSize {
		return Field{}, errors.Wrapf(ErrMalformedHeader, "field descriptor is %d bytes", len(buf))
	}
	var descriptor rawFieldDescriptor
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &descriptor); err != nil {
		return Field{}, errors.Wrap(ErrMalformedHeader, err.Error())
	}

	index := bytes.IndexByte(descriptor.Name[:], NUL)
	if index == -1 {
		index = len(descriptor.Name)
	}
	field := Field{
		Name:          text.convert(descriptor.Name[:index]),
		Type:          FieldType(descriptor.Type),
		Length:        int(descriptor.Length),
		DecimalCount:  int(descriptor.Decimal),
		WorkAreaID:    descriptor.WorkAreaID,
		ProductionMDX: descriptor.Flag != 0,
	}
	if err := field.validate(); err != nil {
		return Field{}, err
	}
	return field, nil
}
