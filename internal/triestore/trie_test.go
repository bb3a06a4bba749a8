package triestore

import "testing"

func TestTrieGetAfterCommit(t *testing.T) {
	tr := Open(OpenMemory(), "t/")

	if err := tr.Update([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	v, found, err := tr.Get([]byte("a"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || string(v) != "1" {
		t.Fatalf("got (%q, %v), want (1, true)", v, found)
	}
}

func TestTrieHashChangesOnCommit(t *testing.T) {
	tr := Open(OpenMemory(), "t/")
	before, err := tr.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if err := tr.Update([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, err := tr.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if before == after {
		t.Fatal("root should change after committing a new entry")
	}
}

func TestTrieDeleteRemovesEntry(t *testing.T) {
	tr := Open(OpenMemory(), "t/")
	_ = tr.Update([]byte("a"), []byte("1"))
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_ = tr.Delete([]byte("a"))
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, found, err := tr.Get([]byte("a"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("expected entry to be gone after delete+commit")
	}
}

func TestSetRootRewindsToEarlierCommit(t *testing.T) {
	tr := Open(OpenMemory(), "t/")

	_ = tr.Update([]byte("a"), []byte("1"))
	rootA, err := tr.Commit()
	if err != nil {
		t.Fatalf("commit a: %v", err)
	}

	_ = tr.Update([]byte("b"), []byte("2"))
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("commit b: %v", err)
	}

	if err := tr.SetRoot(rootA); err != nil {
		t.Fatalf("set root: %v", err)
	}

	if _, found, err := tr.Get([]byte("b")); err != nil || found {
		t.Fatalf("expected b to be gone after rewinding to root a, found=%v err=%v", found, err)
	}
	v, found, err := tr.Get([]byte("a"))
	if err != nil || !found || string(v) != "1" {
		t.Fatalf("expected a to survive rewind, got (%q, %v, %v)", v, found, err)
	}

	after, err := tr.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if after != rootA {
		t.Fatalf("hash after rewind = %s, want %s", after.Hex(), rootA.Hex())
	}
}

func TestSetRootToEmptyRootClearsEverythingBeforeFirstCommit(t *testing.T) {
	tr := Open(OpenMemory(), "t/")
	empty, err := tr.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	_ = tr.Update([]byte("a"), []byte("1"))
	if err := tr.SetRoot(empty); err != nil {
		t.Fatalf("set root to empty root should always succeed: %v", err)
	}
	if _, found, err := tr.Get([]byte("a")); err != nil || found {
		t.Fatalf("expected pending write to be discarded by SetRoot, found=%v err=%v", found, err)
	}
}

func TestSetRootRejectsUnknownRoot(t *testing.T) {
	tr := Open(OpenMemory(), "t/")
	var bogus [32]byte
	bogus[0] = 0xff
	if err := tr.SetRoot(bogus); err == nil {
		t.Fatal("expected an error for a root this trie never committed")
	}
}

func TestTwoPrefixesDoNotCollide(t *testing.T) {
	kv := OpenMemory()
	a := Open(kv, "a/")
	b := Open(kv, "b/")

	_ = a.Update([]byte("x"), []byte("from-a"))
	if _, err := a.Commit(); err != nil {
		t.Fatalf("commit a: %v", err)
	}

	_, found, err := b.Get([]byte("x"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("trie b should not see trie a's keys")
	}
}
