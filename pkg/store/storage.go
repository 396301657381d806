// Package store defines the key-value layer the packet store is built on:
// a transactional Storage split into logical tables, and the fixed-size
// records kept next to each packet.
package store

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
)

// Storage is a transactional key-value store.
type Storage interface {
	Begin(writable bool) (Transaction, error)
	Close() error
	// Sync flushes writes to disk
	Sync() error
}

// Transaction gives snapshot-isolated access to every table. Read-only
// transactions reject Set and Delete with ErrTransactionRO.
type Transaction interface {
	// Get returns ErrNotFound for a missing key.
	Get(table Table, key []byte) ([]byte, error)
	Set(table Table, key, value []byte) error
	Delete(table Table, key []byte) error

	// Scan iterates over the keys of table in [start, end). A nil start
	// begins at the first key, a nil end runs to the last one. Keys are
	// returned without the table prefix.
	Scan(table Table, start, end []byte) (Iterator, error)

	Commit() error
	// Rollback discards the transaction; it is a no-op after Commit.
	Rollback() error
}

// Iterator walks the result of a Scan in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// Table is a logical keyspace inside the storage.
type Table byte

const (
	// Packet bodies: resource -> serialized packet
	TablePackets Table = iota

	// Packet records: resource -> fingerprint, size, modification time
	TableRecords

	// Content index: fingerprint || resource -> empty
	TableFingerprints

	// Total number of tables
	TableCount
)

func (t Table) String() string {
	switch t {
	case TablePackets:
		return "packets"
	case TableRecords:
		return "records"
	case TableFingerprints:
		return "fingerprints"
	default:
		return "unknown"
	}
}

// TablePrefix returns a byte prefix for a table to namespace keys
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey adds a table prefix to a key
func PrefixKey(table Table, key []byte) []byte {
	prefix := TablePrefix(table)
	result := make([]byte, len(prefix)+len(key))
	copy(result, prefix)
	copy(result[len(prefix):], key)
	return result
}

// PrefixEnd returns the first key after every key starting with prefix,
// for use as the end of a Scan. It returns nil when no such key exists
// (an empty prefix or one made only of 0xFF bytes).
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
