package redisstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/feldspar-io/authgate/store"
)

const recordFormatVersionCurrent = 1

var errInvalidRecordVersion = errors.New("invalid session record version")

// encodeRecord serializes a session record into the compact binary blob
// stored in Redis. Strings are uint16 length-prefixed; timestamps are
// big-endian UnixMilli with 0 meaning "unset".
func encodeRecord(rec *store.SessionRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)
	buf.WriteByte(byte(rec.Strategy))

	for _, s := range []string{rec.ID, rec.UserID, rec.IPAddress, rec.UserAgent} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}

	for _, t := range []time.Time{
		rec.CreatedAt,
		rec.LastUpdatedAt,
		rec.LastUsedAt,
		rec.LastExtendedAt,
		rec.LastVerifiedAt,
		rec.ExpiresAt,
	} {
		writeTime(&buf, t)
	}

	writeTimePtr(&buf, rec.TwoFactorVerifiedAt)
	writeTimePtr(&buf, rec.RevokedAt)

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*store.SessionRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errInvalidRecordVersion
	}

	strategy, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	rec := &store.SessionRecord{Strategy: store.Strategy(strategy)}

	for _, dst := range []*string{&rec.ID, &rec.UserID, &rec.IPAddress, &rec.UserAgent} {
		if *dst, err = readString(reader); err != nil {
			return nil, err
		}
	}

	for _, dst := range []*time.Time{
		&rec.CreatedAt,
		&rec.LastUpdatedAt,
		&rec.LastUsedAt,
		&rec.LastExtendedAt,
		&rec.LastVerifiedAt,
		&rec.ExpiresAt,
	} {
		if *dst, err = readTime(reader); err != nil {
			return nil, err
		}
	}

	if rec.TwoFactorVerifiedAt, err = readTimePtr(reader); err != nil {
		return nil, err
	}
	if rec.RevokedAt, err = readTimePtr(reader); err != nil {
		return nil, err
	}

	return rec, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return errors.New("record field too long")
	}
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(s)))
	buf.Write(length[:])
	buf.WriteString(s)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var length [2]byte
	if _, err := io.ReadFull(reader, length[:]); err != nil {
		return "", err
	}
	b := make([]byte, binary.BigEndian.Uint16(length[:]))
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeTime(buf *bytes.Buffer, t time.Time) {
	var ms int64
	if !t.IsZero() {
		ms = t.UnixMilli()
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(ms))
	buf.Write(b[:])
}

func readTime(reader *bytes.Reader) (time.Time, error) {
	var b [8]byte
	if _, err := io.ReadFull(reader, b[:]); err != nil {
		return time.Time{}, err
	}
	ms := int64(binary.BigEndian.Uint64(b[:]))
	if ms == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms).UTC(), nil
}

func writeTimePtr(buf *bytes.Buffer, t *time.Time) {
	if t == nil {
		writeTime(buf, time.Time{})
		return
	}
	writeTime(buf, *t)
}

func readTimePtr(reader *bytes.Reader) (*time.Time, error) {
	t, err := readTime(reader)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}
