package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.GetItem(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.SetItem(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := s.SetItem(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetItem overwrite: %v", err)
	}

	v, ok, err := s.GetItem(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("GetItem(k) = %q ok=%v err=%v, want v2", v, ok, err)
	}

	if err := s.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, _ := s.GetItem(ctx, "k"); ok {
		t.Fatal("key still present after RemoveItem")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.GetItem(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.SetItem(ctx, "scan-storage", `{"state":{}}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := s.SetItem(ctx, "scan-storage", `{"state":{"totalScans":1}}`); err != nil {
		t.Fatalf("SetItem upsert: %v", err)
	}

	v, ok, err := s.GetItem(ctx, "scan-storage")
	if err != nil || !ok {
		t.Fatalf("GetItem: ok=%v err=%v", ok, err)
	}
	if v != `{"state":{"totalScans":1}}` {
		t.Fatalf("GetItem returned %q", v)
	}

	if err := s.RemoveItem(ctx, "scan-storage"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, _ := s.GetItem(ctx, "scan-storage"); ok {
		t.Fatal("key still present after RemoveItem")
	}
}

func TestNewSQLiteStoreEmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
