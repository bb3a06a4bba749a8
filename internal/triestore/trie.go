package triestore

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"

	"github.com/qtumcore/statebridge/internal/bridgeerrors"
)

// emptyRoot is the digest of a trie with no entries, computed the same way
// Hash does: keccak256 over zero encoded entries. It is always a valid
// SetRoot target, even before this trie's first Commit.
var emptyRoot = func() common.Hash {
	var root common.Hash
	sha3.NewLegacyKeccak256().Sum(root[:0])
	return root
}()

// Trie is a minimal stand-in for the Merkle-Patricia key-value trie spec §1
// names as an out-of-scope external collaborator: the core only ever calls
// get/update/delete/root/commit on it (spec §6). Embedding go-ethereum's
// full trie package would mean taking on its internal triedb/pathdb commit
// protocol, which is coupled to go-ethereum's own block-processing pipeline
// and not meant to be driven standalone. Instead this type stores entries
// in a real ethdb.KeyValueStore (memorydb or the boltdb overlay in kv.go)
// and computes its root the way a Patricia trie's root is *observably*
// defined to outside callers: a single digest over every (key, value) pair
// it currently holds. go-ethereum's own rlp and common packages are used
// throughout for encoding and addressing, and golang.org/x/crypto/sha3
// supplies the same Keccak256 primitive go-ethereum's trie hashes nodes
// with.
type Trie struct {
	kv      ethdb.KeyValueStore
	prefix  []byte // namespaces this trie's keys within a shared store
	pending map[string][]byte

	// history snapshots the full (key -> value) set as of each Commit,
	// keyed by the root that Commit returned. It is what lets SetRoot
	// actually rewind this content-addressed stand-in to an earlier root,
	// rather than only accepting the current one.
	history map[common.Hash]map[string][]byte
}

// entry is the wire shape hashed into the root: every live (key, value)
// pair, RLP-encoded for a canonical byte representation.
type entry struct {
	Key   []byte
	Value []byte
}

// Open attaches a Trie to kv, namespaced under prefix (e.g. "vin/" vs
// "acct/") so the Vin trie and the account trie can share one overlay
// database without key collisions, the way qtum's QtumState keeps a
// separate dbUTXO alongside the inherited account-trie database.
func Open(kv ethdb.KeyValueStore, prefix string) *Trie {
	return &Trie{
		kv:      kv,
		prefix:  []byte(prefix),
		pending: make(map[string][]byte),
		history: make(map[common.Hash]map[string][]byte),
	}
}

func (t *Trie) storageKey(key []byte) []byte {
	return append(append([]byte(nil), t.prefix...), key...)
}

// Get returns (value, found, error). A pending (uncommitted) write shadows
// the persisted value, matching a read-through cache's expectations.
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	if v, ok := t.pending[string(key)]; ok {
		return v, v != nil, nil
	}
	v, err := t.kv.Get(t.storageKey(key))
	if err != nil {
		if err == ethdb.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("trie get: %w", err)
	}
	return v, true, nil
}

// Update stages key -> value for the next Commit.
func (t *Trie) Update(key, value []byte) error {
	t.pending[string(key)] = append([]byte(nil), value...)
	return nil
}

// Delete stages key's removal for the next Commit. Deleting an absent key
// is a no-op once committed, matching spec §4.1's removal semantics.
func (t *Trie) Delete(key []byte) error {
	t.pending[string(key)] = nil
	return nil
}

// Commit flushes pending writes to the backing store and returns the new
// root. Spec §4.6's two-trie commit sequence calls this once per trie, in
// order. Each pending write goes to the backing store as its own Put or
// Delete; neither one Commit nor the pair is wrapped in a database
// transaction or batch. The resulting (key,
// value) set is also snapshotted under the returned root so a later
// SetRoot can rewind to it.
func (t *Trie) Commit() (common.Hash, error) {
	for k, v := range t.pending {
		sk := t.storageKey([]byte(k))
		if v == nil {
			if err := t.kv.Delete(sk); err != nil {
				return common.Hash{}, fmt.Errorf("trie commit delete: %w", err)
			}
			continue
		}
		if err := t.kv.Put(sk, v); err != nil {
			return common.Hash{}, fmt.Errorf("trie commit put: %w", err)
		}
	}
	t.pending = make(map[string][]byte)

	entries, root, err := t.snapshot()
	if err != nil {
		return common.Hash{}, err
	}
	snap := make(map[string][]byte, len(entries))
	for _, e := range entries {
		snap[string(e.Key)] = e.Value
	}
	if t.history == nil {
		t.history = make(map[common.Hash]map[string][]byte)
	}
	t.history[root] = snap
	return root, nil
}

// Hash computes the current root over everything persisted under this
// trie's prefix, independent of any uncommitted pending writes (mirroring
// a real trie, whose root() reflects the last commit until the next one).
func (t *Trie) Hash() (common.Hash, error) {
	_, root, err := t.snapshot()
	return root, err
}

// snapshot reads every (key, value) pair currently persisted under this
// trie's prefix, in sorted order, and returns the keccak256 digest Hash and
// Commit both report as the root.
func (t *Trie) snapshot() ([]entry, common.Hash, error) {
	it := t.kv.NewIterator(t.prefix, nil)
	defer it.Release()

	var entries []entry
	for it.Next() {
		key := append([]byte(nil), it.Key()[len(t.prefix):]...)
		val := append([]byte(nil), it.Value()...)
		entries = append(entries, entry{Key: key, Value: val})
	}
	if err := it.Error(); err != nil {
		return nil, common.Hash{}, fmt.Errorf("trie iterate: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return string(entries[i].Key) < string(entries[j].Key)
	})

	h := sha3.NewLegacyKeccak256()
	for _, e := range entries {
		buf, err := rlp.EncodeToBytes(&e)
		if err != nil {
			return nil, common.Hash{}, fmt.Errorf("trie hash encode: %w", err)
		}
		h.Write(buf)
	}
	var root common.Hash
	h.Sum(root[:0])
	return entries, root, nil
}

// SetRoot resets this trie to a previously committed root, replacing its
// live (key, value) set with the one snapshotted at that Commit, and
// discarding any uncommitted pending writes. root == the digest of zero
// entries always succeeds, even before this trie's first Commit.
// Spec §4.1 names this setRoot: "expose and reset the trie's Merkle root".
func (t *Trie) SetRoot(root common.Hash) error {
	snap, ok := t.history[root]
	if !ok {
		if root != emptyRoot {
			return fmt.Errorf("%w: %s", bridgeerrors.ErrUnknownRoot, root.Hex())
		}
		snap = map[string][]byte{}
	}

	t.pending = make(map[string][]byte)

	current, _, err := t.snapshot()
	if err != nil {
		return err
	}
	for _, e := range current {
		if _, keep := snap[string(e.Key)]; !keep {
			if err := t.kv.Delete(t.storageKey(e.Key)); err != nil {
				return fmt.Errorf("trie set root delete: %w", err)
			}
		}
	}
	for k, v := range snap {
		if err := t.kv.Put(t.storageKey([]byte(k)), v); err != nil {
			return fmt.Errorf("trie set root put: %w", err)
		}
	}
	return nil
}
