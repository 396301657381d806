package packetstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aleksaelezovic/xmpkit/internal/encoding"
	"github.com/aleksaelezovic/xmpkit/pkg/store"
	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

var ErrEmptyResource = errors.New("resource name is empty")

// Entry is one listed packet.
type Entry struct {
	Resource string
	store.Record
}

// PacketStore keeps serialized packets keyed by resource name, with a
// content index over their fingerprints.
type PacketStore struct {
	storage store.Storage
	log     *slog.Logger
	now     func() time.Time
}

// New creates a packet store over storage. A nil logger discards output.
func New(storage store.Storage, log *slog.Logger) *PacketStore {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PacketStore{
		storage: storage,
		log:     log,
		now:     time.Now,
	}
}

// Close closes the underlying storage
func (s *PacketStore) Close() error {
	return s.storage.Close()
}

// Sync flushes committed writes to disk.
func (s *PacketStore) Sync() error {
	return s.storage.Sync()
}

// Put stores packet under resource after checking that it parses. It
// reports false when the stored packet already had the same content.
func (s *PacketStore) Put(resource string, packet []byte) (store.Record, bool, error) {
	if resource == "" {
		return store.Record{}, false, ErrEmptyResource
	}
	if _, err := xmp.Parse(packet, &xmp.ParseOptions{OmitNormalization: true}); err != nil {
		return store.Record{}, false, fmt.Errorf("packet for %q: %w", resource, err)
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return store.Record{}, false, err
	}
	defer txn.Rollback()

	key := []byte(resource)
	rec := store.Record{
		Fingerprint: encoding.Hash128(packet),
		Size:        int64(len(packet)),
		Modified:    s.now().UTC(),
	}

	old, err := getRecord(txn, key)
	switch {
	case err == nil && old.Fingerprint == rec.Fingerprint:
		s.log.Debug("packet unchanged", "resource", resource, "fingerprint", encoding.Fingerprint(rec.Fingerprint))
		return old, false, nil
	case err == nil:
		if err := txn.Delete(store.TableFingerprints, store.FingerprintKey(old.Fingerprint, resource)); err != nil {
			return store.Record{}, false, err
		}
	case !errors.Is(err, store.ErrNotFound):
		return store.Record{}, false, err
	}

	if err := txn.Set(store.TablePackets, key, packet); err != nil {
		return store.Record{}, false, err
	}
	if err := txn.Set(store.TableRecords, key, store.EncodeRecord(rec)); err != nil {
		return store.Record{}, false, err
	}
	if err := txn.Set(store.TableFingerprints, store.FingerprintKey(rec.Fingerprint, resource), []byte{}); err != nil {
		return store.Record{}, false, err
	}
	if err := txn.Commit(); err != nil {
		return store.Record{}, false, fmt.Errorf("failed to commit packet %q: %w", resource, err)
	}

	s.log.Debug("packet stored", "resource", resource, "size", rec.Size, "fingerprint", encoding.Fingerprint(rec.Fingerprint))
	return rec, true, nil
}

// PutMeta serializes meta with opts and stores the result.
func (s *PacketStore) PutMeta(resource string, meta *xmp.Meta, opts *xmp.SerializeOptions) (store.Record, bool, error) {
	packet, err := xmp.Serialize(meta, opts)
	if err != nil {
		return store.Record{}, false, err
	}
	return s.Put(resource, packet)
}

// Get returns the packet stored under resource and its record.
func (s *PacketStore) Get(resource string) ([]byte, store.Record, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, store.Record{}, err
	}
	defer txn.Rollback()

	key := []byte(resource)
	rec, err := getRecord(txn, key)
	if err != nil {
		return nil, store.Record{}, err
	}
	packet, err := txn.Get(store.TablePackets, key)
	if err != nil {
		return nil, store.Record{}, err
	}
	if encoding.Hash128(packet) != rec.Fingerprint {
		return nil, store.Record{}, fmt.Errorf("packet %q: fingerprint mismatch", resource)
	}
	return packet, rec, nil
}

// GetMeta parses the packet stored under resource.
func (s *PacketStore) GetMeta(resource string, opts *xmp.ParseOptions) (*xmp.Meta, error) {
	packet, _, err := s.Get(resource)
	if err != nil {
		return nil, err
	}
	return xmp.Parse(packet, opts)
}

// Delete removes the packet stored under resource.
func (s *PacketStore) Delete(resource string) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	key := []byte(resource)
	rec, err := getRecord(txn, key)
	if err != nil {
		return err
	}
	if err := txn.Delete(store.TablePackets, key); err != nil {
		return err
	}
	if err := txn.Delete(store.TableRecords, key); err != nil {
		return err
	}
	if err := txn.Delete(store.TableFingerprints, store.FingerprintKey(rec.Fingerprint, resource)); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	s.log.Debug("packet deleted", "resource", resource)
	return nil
}

// List returns the stored packets whose resource starts with prefix, in
// resource order.
func (s *PacketStore) List(prefix string) ([]Entry, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	var start []byte
	if prefix != "" {
		start = []byte(prefix)
	}
	it, err := txn.Scan(store.TableRecords, start, store.PrefixEnd(start))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var entries []Entry
	for it.Next() {
		resource := string(it.Key())
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		rec, err := store.DecodeRecord(value)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", resource, err)
		}
		entries = append(entries, Entry{Resource: resource, Record: rec})
	}
	return entries, nil
}

// FindByFingerprint returns the resources whose packet has the given
// fingerprint.
func (s *PacketStore) FindByFingerprint(fingerprint encoding.Fingerprint) ([]string, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(store.TableFingerprints, fingerprint[:], store.PrefixEnd(fingerprint[:]))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var resources []string
	for it.Next() {
		key := it.Key()
		resources = append(resources, string(key[len(fingerprint):]))
	}
	return resources, nil
}

// Count returns the number of stored packets.
func (s *PacketStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(store.TableRecords, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}
	return count, nil
}

func getRecord(txn store.Transaction, key []byte) (store.Record, error) {
	value, err := txn.Get(store.TableRecords, key)
	if err != nil {
		return store.Record{}, err
	}
	return store.DecodeRecord(value)
}
