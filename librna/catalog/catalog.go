package catalog

import (
	"bytes"
	"encoding/binary"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

/***

Catalog database format:

	gCatalogStateKey => catalogState

	kRecordPrefix, xxhash64(DesignKey) (big endian) => DesignKey (raw bytes), Record

A design key is the full encoding of the compile inputs (see FormDesignKey); its digest is only the db key.
The key is stored again in the value so a digest collision reads as a miss rather than a wrong record.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const (
	kRecordPrefix = byte(0x02)
	kRecordKeyLen = 1 + 8

	catalogMajorVers = 2026
	catalogMinorVers = 1
)

// catalog is a badger wrapper caching validated designs
type catalog struct {
	ctx        rnacad.CatalogContext
	readOnly   bool
	stateDirty bool
	state      catalogState
	db         *badger.DB
}

func OpenCatalog(ctx rnacad.CatalogContext, opts rnacad.CatalogOpts) (rnacad.Catalog, error) {
	cat := &catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(rnacad.ErrBadCatalogOpt, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, we consider the catalog ctx blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = catalogMajorVers
		cat.state.MinorVers = catalogMinorVers
	}

	if err == nil && (cat.state.MajorVers != catalogMajorVers || cat.state.MinorVers != catalogMinorVers) {
		err = errors.Wrapf(rnacad.ErrBadCatalogOpt, "catalog version %d.%d is incompatible", cat.state.MajorVers, cat.state.MinorVers)
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	klog.V(1).Infof("opened catalog %q: %d records", opts.DbPathName, cat.state.NumRecords)
	return cat, nil
}

func (cat *catalog) loadState() error {
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
	return err
}

func (cat *catalog) flushState() error {
	if !cat.stateDirty || cat.readOnly {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.Marshal())
	})
	if err != nil {
		return err
	}
	cat.stateDirty = false
	return nil
}

func (cat *catalog) Close() error {
	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if closeErr := cat.db.Close(); err == nil {
		err = closeErr
	}
	cat.db = nil
	cat.ctx.DetachCatalog(cat)
	cat.ctx = nil
	return err
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumRecords() int64 {
	return int64(cat.state.NumRecords)
}

func formRecordKey(key []byte) []byte {
	dbKey := make([]byte, kRecordKeyLen)
	dbKey[0] = kRecordPrefix
	binary.BigEndian.PutUint64(dbKey[1:], xxhash.Sum64(key))
	return dbKey
}

func (cat *catalog) Get(key []byte) (rec rnacad.Record, err error) {
	err = cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(formRecordKey(key))
		if err == badger.ErrKeyNotFound {
			return rnacad.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			storedKey, decoded, err := unmarshalRecord(val)
			if err != nil {
				return err
			}
			if !bytes.Equal(storedKey, key) {
				klog.V(2).Infof("catalog digest collision for %d byte key", len(key))
				return rnacad.ErrNotFound
			}
			rec = decoded
			return nil
		})
	})
	return rec, err
}

// Put stores rec under key, replacing any earlier record for the same key.
func (cat *catalog) Put(key []byte, rec rnacad.Record) error {
	if cat.readOnly {
		return rnacad.ErrReadOnly
	}
	dbKey := formRecordKey(key)
	val := marshalRecord(key, rec)

	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	isNew := false
	if _, err := txn.Get(dbKey); err == badger.ErrKeyNotFound {
		isNew = true
	} else if err != nil {
		return err
	}
	if err := txn.Set(dbKey, val); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}

	if isNew {
		cat.state.NumRecords++
		cat.stateDirty = true
	}
	return nil
}

func (cat *catalog) Select(onRecord func(key []byte, rec rnacad.Record) bool) error {
	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         []byte{kRecordPrefix},
	})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var (
			key []byte
			rec rnacad.Record
		)
		err := it.Item().Value(func(val []byte) error {
			var err error
			key, rec, err = unmarshalRecord(val)
			return err
		})
		if err != nil {
			return err
		}
		if !onRecord(key, rec) {
			break
		}
	}
	return nil
}

// StreamRecords emits every stored record as a candidate, in key order.
// A failed scan is emitted as a final candidate carrying the error.
func StreamRecords(cat rnacad.Catalog) *rnacad.DesignStream {
	stream := rnacad.NewDesignStream()
	go func() {
		defer stream.Close()
		err := cat.Select(func(key []byte, rec rnacad.Record) bool {
			stream.PushDesign(&rnacad.Candidate{Record: rec})
			return true
		})
		if err != nil {
			stream.PushDesign(&rnacad.Candidate{Err: err})
		}
	}()
	return stream
}
