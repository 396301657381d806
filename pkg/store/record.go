package store

import (
	"encoding/binary"
	"errors"
	"time"
)

// RecordSize is the encoded size of a Record.
const RecordSize = 1 + 16 + 8 + 8

const recordVersion byte = 1

var ErrBadRecord = errors.New("malformed packet record")

// Record describes a stored packet without its body.
type Record struct {
	Fingerprint [16]byte
	Size        int64
	Modified    time.Time
}

// EncodeRecord encodes r as a version byte followed by the fingerprint and
// big-endian size and modification time, so that records stay fixed size.
func EncodeRecord(r Record) []byte {
	buf := make([]byte, RecordSize)
	buf[0] = recordVersion
	copy(buf[1:17], r.Fingerprint[:])
	binary.BigEndian.PutUint64(buf[17:25], uint64(r.Size))
	binary.BigEndian.PutUint64(buf[25:33], uint64(r.Modified.UnixNano()))
	return buf
}

// DecodeRecord reverses EncodeRecord.
func DecodeRecord(data []byte) (Record, error) {
	if len(data) != RecordSize || data[0] != recordVersion {
		return Record{}, ErrBadRecord
	}
	var r Record
	copy(r.Fingerprint[:], data[1:17])
	r.Size = int64(binary.BigEndian.Uint64(data[17:25]))
	r.Modified = time.Unix(0, int64(binary.BigEndian.Uint64(data[25:33]))).UTC()
	return r, nil
}

// FingerprintKey builds the content index key for a resource.
func FingerprintKey(fingerprint [16]byte, resource string) []byte {
	key := make([]byte, 0, len(fingerprint)+len(resource))
	key = append(key, fingerprint[:]...)
	return append(key, resource...)
}
