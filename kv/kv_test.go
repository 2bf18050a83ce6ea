package kv

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	if _, err := s.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	if err := s.Put([]byte{1, 2}, []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put([]byte{1, 3}, []byte("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put([]byte{2, 0}, []byte("c")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put([]byte{1, 2}, []byte("d")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	v, err := s.Get([]byte{1, 2})
	if err != nil || !bytes.Equal(v, []byte("d")) {
		t.Fatalf("Get = %q, %v; want \"d\"", v, err)
	}
	if ok, err := s.Has([]byte{1, 3}); err != nil || !ok {
		t.Fatalf("Has = %v, %v", ok, err)
	}

	var keys [][]byte
	err = s.Iterate([]byte{1}, func(k, _ []byte) bool {
		keys = append(keys, bytes.Clone(k))
		return true
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if len(keys) != 2 || !bytes.Equal(keys[0], []byte{1, 2}) || !bytes.Equal(keys[1], []byte{1, 3}) {
		t.Fatalf("Iterate visited %v", keys)
	}

	if err := s.Delete([]byte{1, 3}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete([]byte{9}); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if ok, err := s.Has([]byte{1, 3}); err != nil || ok {
		t.Fatalf("Has after delete = %v, %v", ok, err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testStore(t, m)
	if m.Len() != 2 {
		t.Fatalf("Len = %v, want 2", m.Len())
	}
}

func TestLevelDB(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	l, err := OpenLevelDB(dir, LevelDBOptions{})
	if err != nil {
		t.Fatalf("OpenLevelDB: %v", err)
	}
	testStore(t, l)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l, err = OpenLevelDB(dir, LevelDBOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()
	if v, err := l.Get([]byte{2, 0}); err != nil || string(v) != "c" {
		t.Fatalf("value after reopen = %q, %v", v, err)
	}
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "world.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}
