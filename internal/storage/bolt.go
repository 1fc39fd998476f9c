package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// DatabaseFile is the bbolt file name inside the data directory.
const DatabaseFile = "mindicons.db"

// BoltDB wraps bbolt with the bucket layout used by the application.
type BoltDB struct {
	db     *bbolt.DB
	logger *zap.SugaredLogger
}

// NewBoltDB opens (or creates) the database in dataDir.
func NewBoltDB(dataDir string, logger *zap.SugaredLogger) (*BoltDB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	b := &BoltDB{db: db, logger: logger}
	if err := b.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debugf("Opened database %s", dbPath)
	return b, nil
}

func (b *BoltDB) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{MapsBucket, MetaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(MetaBucket))
		current := meta.Get([]byte(SchemaVersionKey))
		if current == nil {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, CurrentSchemaVersion)
			return meta.Put([]byte(SchemaVersionKey), buf)
		}
		if v := binary.BigEndian.Uint64(current); v > CurrentSchemaVersion {
			return fmt.Errorf("database schema %d is newer than supported %d", v, CurrentSchemaVersion)
		}
		return nil
	})
}

// SchemaVersion returns the stored schema version
func (b *BoltDB) SchemaVersion() (uint64, error) {
	var version uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(MetaBucket)).Get([]byte(SchemaVersionKey))
		if len(v) != 8 {
			return fmt.Errorf("schema version missing")
		}
		version = binary.BigEndian.Uint64(v)
		return nil
	})
	return version, err
}

// SaveMap upserts a map record, keeping its creation time.
func (b *BoltDB) SaveMap(record *MapRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(MapsBucket))

		now := time.Now()
		record.Updated = now
		if existing := bucket.Get([]byte(record.ID)); existing != nil {
			var old MapRecord
			if err := old.UnmarshalBinary(existing); err == nil {
				record.Created = old.Created
			}
		}
		if record.Created.IsZero() {
			record.Created = now
		}

		data, err := record.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal map: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetMap returns the record stored under id.
func (b *BoltDB) GetMap(id string) (*MapRecord, error) {
	var record *MapRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(MapsBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrMapNotFound, id)
		}
		record = &MapRecord{}
		return record.UnmarshalBinary(data)
	})
	return record, err
}

// ListMaps returns every stored record in key order.
func (b *BoltDB) ListMaps() ([]*MapRecord, error) {
	var records []*MapRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(MapsBucket)).ForEach(func(k, v []byte) error {
			var record MapRecord
			if err := record.UnmarshalBinary(v); err != nil {
				b.logger.Warnf("Failed to unmarshal map %s: %v", string(k), err)
				return nil
			}
			records = append(records, &record)
			return nil
		})
	})
	return records, err
}

// DeleteMap removes the record stored under id.
func (b *BoltDB) DeleteMap(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(MapsBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrMapNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}
