// Package triestore provides the key-value trie backing shared by the Vin
// trie and the account trie (spec §6's "underlying Merkle-Patricia
// key-value trie" collaborator, explicitly out of the core's own scope to
// implement). It exposes go-ethereum's ethdb.KeyValueStore interface over a
// boltdb-backed overlay, standing in for qtum's OverlayDB, and a Trie type
// (trie.go) built on top of it.
package triestore

import (
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

// boltBucket is the single bucket every KeyValueStore write lands in. One
// bucket is enough: the trie and account-trie each open their own *bolt.DB
// file (or share one with distinct key prefixes), matching the original's
// separate dbUTXO overlay.
var boltBucket = []byte("triestore")

// boltKV adapts a *bolt.DB file to ethdb.KeyValueStore, the minimal
// interface triedb.Database needs for its disk layer.
type boltKV struct {
	db *bolt.DB
}

// OpenBolt opens (creating if absent) a boltdb-backed key-value store at
// path, for the durable overlay database (spec §6's persistent state
// layout, qtum's `OverlayDB dbUTXO`).
func OpenBolt(path string) (ethdb.KeyValueStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt overlay %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(boltBucket)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("init bolt bucket: %w", err)
	}
	return &boltKV{db: db}, nil
}

// OpenMemory returns an in-memory KeyValueStore, used by tests and by the
// CLI's ephemeral demo mode.
func OpenMemory() ethdb.KeyValueStore {
	return memorydb.New()
}

func (b *boltKV) Has(key []byte) (bool, error) {
	var ok bool
	err := b.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(boltBucket).Get(key) != nil
		return nil
	})
	return ok, err
}

func (b *boltKV) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ethdb.ErrNotFound
	}
	return val, nil
}

func (b *boltKV) Put(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (b *boltKV) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

func (b *boltKV) Close() error {
	return b.db.Close()
}

// Stat, Compact, NewBatch*, NewIterator, NewSnapshot round out
// ethdb.KeyValueStore for the subset of the interface the trie layer
// actually calls at runtime; batching falls back to unbatched writes since
// boltdb's own transactions already give us atomicity per Update call.
func (b *boltKV) Stat() (string, error)              { return "", nil }
func (b *boltKV) Compact(start, limit []byte) error  { return nil }

func (b *boltKV) NewBatch() ethdb.Batch             { return &boltBatch{kv: b} }
func (b *boltKV) NewBatchWithSize(_ int) ethdb.Batch { return &boltBatch{kv: b} }

// NewIterator snapshots every key under prefix (ignoring start, which the
// trie layer never uses) into memory and walks it in bolt's natural
// byte-sorted key order. Bolt cursors can't outlive their transaction, so
// streaming isn't an option here; the trie and account data sets this
// package serves are small enough that copying is cheap.
func (b *boltKV) NewIterator(prefix, start []byte) ethdb.Iterator {
	it := &boltIterator{}
	_ = b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			it.keys = append(it.keys, append([]byte(nil), k...))
			it.vals = append(it.vals, append([]byte(nil), v...))
		}
		return nil
	})
	it.cursor = -1
	return it
}

func (b *boltKV) NewSnapshot() (ethdb.Snapshot, error) { return b, nil }

func hasPrefix(k, prefix []byte) bool {
	if len(prefix) == 0 {
		return true
	}
	return len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix)
}

// boltIterator is an in-memory ethdb.Iterator over a point-in-time copy of
// a key range, built by NewIterator.
type boltIterator struct {
	keys   [][]byte
	vals   [][]byte
	cursor int
}

func (it *boltIterator) Next() bool {
	it.cursor++
	return it.cursor < len(it.keys)
}

func (it *boltIterator) Error() error    { return nil }
func (it *boltIterator) Key() []byte     { return it.keys[it.cursor] }
func (it *boltIterator) Value() []byte   { return it.vals[it.cursor] }
func (it *boltIterator) Release()        {}

// boltBatch buffers writes and applies them as a single bolt transaction on
// Write, matching ethdb.Batch semantics without a separate WAL.
type boltBatch struct {
	kv   *boltKV
	ops  []batchOp
	size int
}

type batchOp struct {
	key   []byte
	value []byte // nil means delete
}

func (b *boltBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{append([]byte(nil), key...), append([]byte(nil), value...)})
	b.size += len(key) + len(value)
	return nil
}

func (b *boltBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{append([]byte(nil), key...), nil})
	b.size += len(key)
	return nil
}

func (b *boltBatch) ValueSize() int { return b.size }

func (b *boltBatch) Write() error {
	return b.kv.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, op := range b.ops {
			if op.value == nil {
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltBatch) Reset() { b.ops = nil; b.size = 0 }

func (b *boltBatch) Replay(w ethdb.KeyValueWriter) error {
	for _, op := range b.ops {
		if op.value == nil {
			if err := w.Delete(op.key); err != nil {
				return err
			}
			continue
		}
		if err := w.Put(op.key, op.value); err != nil {
			return err
		}
	}
	return nil
}
